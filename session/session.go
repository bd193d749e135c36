// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/solbridge-labs/solbridge/auth"
	"github.com/solbridge-labs/solbridge/types"
)

// Status is the session-level aggregate state. It moves monotonically from
// quoted toward completed or failed; failed is sticky.
type Status string

const (
	StatusQuoted    Status = "quoted"
	StatusBridging  Status = "bridging"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type StepStatus string

const (
	StepIdle      StepStatus = "idle"
	StepSigning   StepStatus = "signing"
	StepSubmitted StepStatus = "submitted"
	StepConfirmed StepStatus = "confirmed"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// stepTransitions is the legal step state machine. Confirmed and completed
// steps never move backwards; funds-relevant state is never un-confirmed. A
// step can only be submitted after its transaction was requested, so idle
// never jumps straight to submitted.
var stepTransitions = map[StepStatus][]StepStatus{
	StepIdle:      {StepSigning, StepFailed},
	StepSigning:   {StepSubmitted, StepFailed},
	StepSubmitted: {StepConfirmed, StepFailed},
	StepConfirmed: {StepCompleted},
	StepCompleted: {},
	StepFailed:    {},
}

func (s StepStatus) CanTransition(to StepStatus) bool {
	for _, next := range stepTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Finished reports whether the step counts toward session completion.
func (s StepStatus) Finished() bool {
	return s == StepConfirmed || s == StepCompleted
}

// Step is one signable transaction within a session. Status and TxHash are
// always updated together or not at all. Provider is set on steps produced by
// a different adapter than the route's own (composed destination swaps);
// Metadata carries that adapter's opaque step payload.
type Step struct {
	Index       int             `json:"index"`
	Kind        types.ChainKind `json:"chainType"`
	ChainID     uint64          `json:"chainId,omitempty"`
	Description string          `json:"description,omitempty"`
	Provider    string          `json:"provider,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	Status      StepStatus      `json:"status"`
	TxHash      string          `json:"txHashOrSig,omitempty"`
}

// Session is the server-side record of one attempted transfer. The selected
// route and the execution context are snapshotted at creation so step
// execution never trusts client-resupplied values.
type Session struct {
	ID                 string                 `json:"id"`
	SourceAddress      string                 `json:"sourceAddress"`
	DestinationAddress string                 `json:"destinationAddress"`
	Provider           string                 `json:"provider"`
	RouteID            string                 `json:"routeId"`
	Route              types.Route            `json:"route"`
	Context            types.ExecutionContext `json:"context"`
	Status             Status                 `json:"status"`
	CurrentStep        int                    `json:"currentStep"`
	ErrorMessage       string                 `json:"errorMessage,omitempty"`
	Steps              []Step                 `json:"steps"`
	CreatedAt          time.Time              `json:"createdAt"`
	CompletedAt        *time.Time             `json:"completedAt,omitempty"`
}

func (s *Session) Step(index int) (*Step, error) {
	if index < 0 || index >= len(s.Steps) {
		return nil, types.NewError(types.CodeNotFound, fmt.Sprintf("session %s has no step %d", s.ID, index))
	}
	return &s.Steps[index], nil
}

// Binding returns the fields session-auth challenges are bound to.
func (s *Session) Binding() auth.SessionBinding {
	return auth.SessionBinding{
		SessionID:          s.ID,
		SourceAddress:      s.SourceAddress,
		DestinationAddress: s.DestinationAddress,
		Provider:           s.Provider,
		RouteID:            s.RouteID,
	}
}

// refresh recomputes the aggregate session state from its steps. Failed
// sessions are sticky and never recomputed.
func (s *Session) refresh() {
	if s.Status.Terminal() {
		return
	}

	finished := 0
	progressed := false
	for _, step := range s.Steps {
		if step.Status.Finished() {
			finished++
			progressed = true
		} else if step.Status == StepSubmitted {
			progressed = true
		}
	}

	s.CurrentStep = 0
	for _, step := range s.Steps {
		if !step.Status.Finished() {
			break
		}
		s.CurrentStep = step.Index + 1
	}

	if finished == len(s.Steps) {
		s.Status = StatusCompleted
		if s.CompletedAt == nil {
			now := time.Now().UTC()
			s.CompletedAt = &now
		}
		return
	}
	if progressed {
		s.Status = StatusBridging
	}
}
