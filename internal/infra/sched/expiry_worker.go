package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"learning-entitlement/internal/infra/metrics"
	"learning-entitlement/internal/usecase"
)

// ExpiryWorker periodically flips lapsed subscriptions inactive. The sweep
// is idempotent, so overlapping or repeated runs are harmless.
type ExpiryWorker struct {
	interval time.Duration
	store    usecase.SubscriptionStore
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, store usecase.SubscriptionStore, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, store: store, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.store.DeactivateExpired(ctx, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
				continue
			}
			if n > 0 {
				metrics.IncSubscriptionsDeactivated(n)
			}
			if counts, err := w.store.ActiveCountsByTier(ctx); err == nil {
				metrics.SetActiveSubscriptions(counts)
			}
		}
	}
}
