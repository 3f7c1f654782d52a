package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"learning-entitlement/internal/usecase"
)

// ReplayWorker re-drives payment events that never completed their apply,
// covering crashes between webhook intake and reconciliation. Replays are
// idempotent, so scanning the same rows twice is safe.
type ReplayWorker struct {
	reconciler usecase.PaymentReconciler
	interval   time.Duration
	log        *zerolog.Logger
}

func NewReplayWorker(reconciler usecase.PaymentReconciler, interval time.Duration, logger *zerolog.Logger) *ReplayWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "ReplayWorker").Logger()
	return &ReplayWorker{reconciler: reconciler, interval: interval, log: &l}
}

func (w *ReplayWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting payment replay worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping payment replay worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.reconciler.ReplayUnapplied(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("payment replay error")
				continue
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("stale payment events applied")
			}
		}
	}
}
