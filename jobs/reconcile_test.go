package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/solbridge-labs/solbridge/jobs"
)

type fakeReconciler struct {
	mu sync.Mutex

	ids     []string
	listErr error

	reconciled map[string]int
	errs       map[string]error
}

func (r *fakeReconciler) ActiveSessionIDs() ([]string, error) {
	return r.ids, r.listErr
}

func (r *fakeReconciler) ReconcileFinality(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reconciled == nil {
		r.reconciled = make(map[string]int)
	}
	r.reconciled[sessionID]++
	return r.errs[sessionID]
}

func (r *fakeReconciler) count(sessionID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconciled[sessionID]
}

func Test_ReconcileJob_SweepsActiveSessions(t *testing.T) {
	reconciler := &fakeReconciler{ids: []string{"a", "b"}}
	job := jobs.NewReconcileJob(reconciler, time.Millisecond*10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for reconciler.count("a") == 0 || reconciler.count("b") == 0 {
		select {
		case <-deadline:
			t.Fatal("sessions were never reconciled")
		case <-time.After(time.Millisecond * 5):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop on context cancellation")
	}
}

func Test_ReconcileJob_FailuresDoNotAbortSweep(t *testing.T) {
	reconciler := &fakeReconciler{
		ids:  []string{"failing", "healthy"},
		errs: map[string]error{"failing": errors.New("rpc unavailable")},
	}
	job := jobs.NewReconcileJob(reconciler, time.Millisecond*10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go job.Run(ctx)

	deadline := time.After(time.Second)
	for reconciler.count("healthy") == 0 {
		select {
		case <-deadline:
			t.Fatal("healthy session was never reconciled")
		case <-time.After(time.Millisecond * 5):
		}
	}
}
