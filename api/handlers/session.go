package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/solbridge-labs/solbridge/auth"
	"github.com/solbridge-labs/solbridge/session"
	"github.com/solbridge-labs/solbridge/types"
)

type SessionManager interface {
	CreateSession(ctx context.Context, req *session.CreateRequest, audience string) (*session.Session, *auth.Challenge, error)
	GetSession(id string) (*session.Session, error)
	ReconcileFinality(ctx context.Context, sessionID string) error
}

type SessionHandler struct {
	manager SessionManager
}

func NewSessionHandler(manager SessionManager) *SessionHandler {
	return &SessionHandler{
		manager: manager,
	}
}

// SessionResponse is the client-facing view of a session. The stored route
// snapshot and execution context are server-side state and never leave the
// engine.
type SessionResponse struct {
	SessionID    string         `json:"sessionId"`
	Status       session.Status `json:"status"`
	CurrentStep  int            `json:"currentStep"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	Steps        []session.Step `json:"steps"`
}

func newSessionResponse(sess *session.Session) SessionResponse {
	return SessionResponse{
		SessionID:    sess.ID,
		Status:       sess.Status,
		CurrentStep:  sess.CurrentStep,
		ErrorMessage: sess.ErrorMessage,
		Steps:        sess.Steps,
	}
}

type CreateSessionResponse struct {
	SessionID            string          `json:"sessionId"`
	Status               session.Status  `json:"status"`
	SessionAuthChallenge *auth.Challenge `json:"sessionAuthChallenge"`
	Steps                []session.Step  `json:"steps"`
}

// HandleCreate snapshots the selected route into a new session and returns it
// together with the challenge the wallet has to sign.
func (h *SessionHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req := &session.CreateRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		JSONError(w, fmt.Errorf("invalid request body: %s", err), http.StatusBadRequest)
		return
	}

	sess, challenge, err := h.manager.CreateSession(r.Context(), req, r.Host)
	if err != nil {
		HandleError(w, err)
		return
	}

	JSONResponse(w, http.StatusCreated, CreateSessionResponse{
		SessionID:            sess.ID,
		Status:               sess.Status,
		SessionAuthChallenge: challenge,
		Steps:                sess.Steps,
	})
}

// HandleStatus returns the session. Finality of submitted steps is
// reconciled opportunistically first, so polling clients observe on-chain
// confirmations without a separate report.
func (h *SessionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.manager.ReconcileFinality(r.Context(), sessionID); err != nil {
		if typed, ok := types.AsError(err); !ok || typed.Code != types.CodeNotFound {
			log.Warn().Str("session", sessionID).Msgf("finality reconcile failed: %s", err)
		}
	}

	sess, err := h.manager.GetSession(sessionID)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, newSessionResponse(sess))
}
