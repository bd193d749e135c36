package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/solbridge-labs/solbridge/types"
)

type Quoter interface {
	GetAllQuotes(ctx context.Context, req *types.QuoteRequest) ([]types.Route, []string)
}

type QuoteHandler struct {
	aggregator Quoter
}

func NewQuoteHandler(aggregator Quoter) *QuoteHandler {
	return &QuoteHandler{
		aggregator: aggregator,
	}
}

type QuoteResponse struct {
	Routes []types.Route `json:"routes"`
	Errors []string      `json:"errors,omitempty"`
}

// HandleQuote fans the request out to every configured provider and returns
// ranked routes. Provider failures are reported alongside the surviving
// routes, not as a request failure.
func (h *QuoteHandler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	req := &types.QuoteRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		JSONError(w, fmt.Errorf("invalid request body: %s", err), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		HandleError(w, err)
		return
	}

	routes, errs := h.aggregator.GetAllQuotes(r.Context(), req)
	JSONResponse(w, http.StatusOK, QuoteResponse{
		Routes: routes,
		Errors: errs,
	})
}
