package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/solbridge-labs/solbridge/auth"
	"github.com/solbridge-labs/solbridge/session"
	"github.com/solbridge-labs/solbridge/types"
)

type StepExecutor interface {
	RequestStepTransaction(ctx context.Context, sessionID string, stepIndex int, provider string, routeID string, proof *auth.Proof, audience string) (*types.TxRequest, error)
	ReportStepStatus(ctx context.Context, sessionID string, stepIndex int, report *session.StatusReport, audience string) (*session.Session, error)
}

type StepHandler struct {
	manager StepExecutor
}

func NewStepHandler(manager StepExecutor) *StepHandler {
	return &StepHandler{
		manager: manager,
	}
}

type StepTransactionBody struct {
	Provider string     `json:"provider"`
	RouteID  string     `json:"routeId"`
	Proof    auth.Proof `json:"proof"`
}

type StepTransactionResponse struct {
	SessionID string           `json:"sessionId"`
	StepIndex int              `json:"stepIndex"`
	TxRequest *types.TxRequest `json:"txRequest"`
}

type StepStatusResponse struct {
	Success bool         `json:"success"`
	Step    session.Step `json:"step"`
}

// HandleTransaction returns the unsigned transaction for one step, rebuilt
// from the session's stored execution context. Provider and route in the body
// have to match the session; the authoritative values never come from the
// client.
func (h *StepHandler) HandleTransaction(w http.ResponseWriter, r *http.Request) {
	stepIndex, err := stepIndexVar(r)
	if err != nil {
		JSONError(w, err, http.StatusBadRequest)
		return
	}

	b := &StepTransactionBody{}
	if err := json.NewDecoder(r.Body).Decode(b); err != nil {
		JSONError(w, fmt.Errorf("invalid request body: %s", err), http.StatusBadRequest)
		return
	}

	sessionID := mux.Vars(r)["sessionId"]
	tx, err := h.manager.RequestStepTransaction(
		r.Context(),
		sessionID,
		stepIndex,
		b.Provider,
		b.RouteID,
		&b.Proof,
		r.Host,
	)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, StepTransactionResponse{
		SessionID: sessionID,
		StepIndex: stepIndex,
		TxRequest: tx,
	})
}

// HandleStatus applies a client-reported step transition and returns the
// refreshed session.
func (h *StepHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	stepIndex, err := stepIndexVar(r)
	if err != nil {
		JSONError(w, err, http.StatusBadRequest)
		return
	}

	report := &session.StatusReport{}
	if err := json.NewDecoder(r.Body).Decode(report); err != nil {
		JSONError(w, fmt.Errorf("invalid request body: %s", err), http.StatusBadRequest)
		return
	}

	sess, err := h.manager.ReportStepStatus(r.Context(), mux.Vars(r)["sessionId"], stepIndex, report, r.Host)
	if err != nil {
		HandleError(w, err)
		return
	}

	step, err := sess.Step(stepIndex)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSONResponse(w, http.StatusOK, StepStatusResponse{
		Success: true,
		Step:    *step,
	})
}

func stepIndexVar(r *http.Request) (int, error) {
	index, err := strconv.Atoi(mux.Vars(r)["stepIndex"])
	if err != nil {
		return 0, fmt.Errorf("field 'stepIndex' invalid")
	}
	return index, nil
}
