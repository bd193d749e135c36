package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/solbridge-labs/solbridge/api/handlers"
)

func Serve(
	ctx context.Context,
	addr string,
	quoteHandler *handlers.QuoteHandler,
	sessionHandler *handlers.SessionHandler,
	stepHandler *handlers.StepHandler,
	limiter RequestLimiter,
) {
	r := mux.NewRouter()
	r.HandleFunc("/v1/quote", rateLimited(limiter, "quote", quoteHandler.HandleQuote)).Methods("POST")
	r.HandleFunc("/v1/sessions", rateLimited(limiter, "session", sessionHandler.HandleCreate)).Methods("POST")
	r.HandleFunc("/v1/sessions/{sessionId}", rateLimited(limiter, "session", sessionHandler.HandleStatus)).Methods("GET")
	r.HandleFunc("/v1/sessions/{sessionId}/steps/{stepIndex:[0-9]+}/transaction", rateLimited(limiter, "session", stepHandler.HandleTransaction)).Methods("POST")
	r.HandleFunc("/v1/sessions/{sessionId}/steps/{stepIndex:[0-9]+}/status", rateLimited(limiter, "session", stepHandler.HandleStatus)).Methods("POST")

	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: time.Second * 10,
	}
	go func() {
		log.Info().Msgf("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	if err != nil {
		log.Err(err).Msgf("Error shutting down server")
	} else {
		log.Info().Msgf("Server shut down gracefully.")
	}
}
