package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const DEFAULT_RECONCILE_INTERVAL = time.Second * 30

type SessionReconciler interface {
	ActiveSessionIDs() ([]string, error)
	ReconcileFinality(ctx context.Context, sessionID string) error
}

// ReconcileJob periodically sweeps active sessions and promotes submitted
// steps whose transactions reached finality on chain. It exists so sessions
// progress even when the client stops polling.
type ReconcileJob struct {
	manager  SessionReconciler
	interval time.Duration
}

func NewReconcileJob(manager SessionReconciler, interval time.Duration) *ReconcileJob {
	if interval <= 0 {
		interval = DEFAULT_RECONCILE_INTERVAL
	}
	return &ReconcileJob{
		manager:  manager,
		interval: interval,
	}
}

// Run blocks until the context is cancelled.
func (j *ReconcileJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *ReconcileJob) sweep(ctx context.Context) {
	ids, err := j.manager.ActiveSessionIDs()
	if err != nil {
		log.Warn().Msgf("failed to list active sessions: %s", err)
		return
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := j.manager.ReconcileFinality(ctx, id); err != nil {
			log.Warn().Str("session", id).Msgf("finality reconcile failed: %s", err)
		}
	}
}
