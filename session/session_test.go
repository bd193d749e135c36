// The Licensed Work is (c) 2022 Sygma
// SPDX-License-Identifier: LGPL-3.0-only

package session_test

import (
	"testing"

	"github.com/solbridge-labs/solbridge/session"
	"github.com/solbridge-labs/solbridge/types"
)

func Test_Status_Terminal(t *testing.T) {
	tests := []struct {
		status   session.Status
		terminal bool
	}{
		{session.StatusQuoted, false},
		{session.StatusBridging, false},
		{session.StatusCompleted, true},
		{session.StatusFailed, true},
	}

	for _, tc := range tests {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Errorf("%s: expected terminal %v, got %v", tc.status, tc.terminal, got)
		}
	}
}

func Test_StepStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from    session.StepStatus
		to      session.StepStatus
		allowed bool
	}{
		{session.StepIdle, session.StepSigning, true},
		{session.StepIdle, session.StepSubmitted, false},
		{session.StepIdle, session.StepFailed, true},
		{session.StepIdle, session.StepConfirmed, false},
		{session.StepSigning, session.StepSubmitted, true},
		{session.StepSigning, session.StepIdle, false},
		{session.StepSubmitted, session.StepConfirmed, true},
		{session.StepSubmitted, session.StepSigning, false},
		{session.StepConfirmed, session.StepCompleted, true},
		{session.StepConfirmed, session.StepSubmitted, false},
		{session.StepConfirmed, session.StepFailed, false},
		{session.StepCompleted, session.StepFailed, false},
		{session.StepFailed, session.StepIdle, false},
	}

	for _, tc := range tests {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func Test_StepStatus_Finished(t *testing.T) {
	finished := []session.StepStatus{session.StepConfirmed, session.StepCompleted}
	for _, status := range finished {
		if !status.Finished() {
			t.Errorf("expected %s to be finished", status)
		}
	}

	unfinished := []session.StepStatus{session.StepIdle, session.StepSigning, session.StepSubmitted, session.StepFailed}
	for _, status := range unfinished {
		if status.Finished() {
			t.Errorf("expected %s to not be finished", status)
		}
	}
}

func Test_Session_Step(t *testing.T) {
	sess := &session.Session{
		ID: "session-1",
		Steps: []session.Step{
			{Index: 0, Kind: types.ChainKindEVM},
			{Index: 1, Kind: types.ChainKindSolana},
		},
	}

	step, err := sess.Step(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step.Kind != types.ChainKindSolana {
		t.Errorf("expected solana step, got %s", step.Kind)
	}

	for _, index := range []int{-1, 2} {
		if _, err := sess.Step(index); err == nil {
			t.Errorf("expected error for step %d", index)
		}
	}
}
