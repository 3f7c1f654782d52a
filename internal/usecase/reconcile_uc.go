package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
)

// Compile-time check
var _ PaymentReconciler = (*paymentReconciler)(nil)

// PaymentReconciler converts completed-payment events into subscription
// state. Safe under at-least-once delivery: replays of the same external
// payment id are no-ops, and a concurrent duplicate loses the active-record
// uniqueness race and resolves by re-reading the winner.
type PaymentReconciler interface {
	ApplyCompletedPayment(ctx context.Context, ev *model.PaymentEvent) (*model.Subscription, error)
	// RepairMismatch rewrites tier and ceilings from the paid amount when
	// the stored label has diverged. Amount is the source of truth.
	RepairMismatch(ctx context.Context, sub *model.Subscription) (*model.Subscription, error)
	// ReplayUnapplied re-drives intake rows that never completed their
	// apply (crash between intake and apply). Returns events applied.
	ReplayUnapplied(ctx context.Context, now time.Time) (int, error)
}

type paymentReconciler struct {
	subs         repository.SubscriptionRepository
	events       repository.PaymentEventRepository
	tm           repository.TransactionManager
	durationDays int
	staleAfter   time.Duration
	nowFn        func() time.Time
	log          *zerolog.Logger
}

func NewPaymentReconciler(
	subs repository.SubscriptionRepository,
	events repository.PaymentEventRepository,
	tm repository.TransactionManager,
	durationDays int,
	staleAfter time.Duration,
	logger *zerolog.Logger,
) *paymentReconciler {
	if durationDays <= 0 {
		durationDays = 30
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	l := logger.With().Str("component", "PaymentReconciler").Logger()
	return &paymentReconciler{
		subs:         subs,
		events:       events,
		tm:           tm,
		durationDays: durationDays,
		staleAfter:   staleAfter,
		nowFn:        time.Now,
		log:          &l,
	}
}

func (r *paymentReconciler) ApplyCompletedPayment(ctx context.Context, ev *model.PaymentEvent) (*model.Subscription, error) {
	if ev == nil || ev.ExternalPaymentID == "" || ev.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	// Validate the amount before anything is written. An unknown amount
	// must never fall back to a default tier.
	if _, _, err := model.TierForAmount(ev.AmountPaid); err != nil {
		return nil, err
	}
	if ev.Purpose == model.PurposeLearningPathSave && (ev.PathID == nil || *ev.PathID == "") {
		return nil, domain.ErrInvalidArgument
	}

	// Replay of an already-applied payment: the subscription linked to this
	// external id is the answer.
	existing, err := r.subs.FindByExternalPaymentID(ctx, repository.NoTX, ev.ExternalPaymentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		// Keep the intake row in sync so the replay worker stops picking
		// this event up.
		if stored, ferr := r.events.FindByExternalID(ctx, repository.NoTX, ev.ExternalPaymentID); ferr == nil && stored != nil && !stored.Applied {
			_ = r.events.MarkApplied(ctx, repository.NoTX, stored.ID)
		}
		r.log.Debug().Str("external_payment_id", ev.ExternalPaymentID).Msg("payment already applied, no-op")
		return existing, nil
	}

	scope := ev.Scope()
	now := r.nowFn()
	var created *model.Subscription

	txErr := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := r.events.Save(ctx, tx, ev); err != nil {
			return err
		}

		// Upgrade path: the prior active record for this scope is retired,
		// never deleted.
		if err := r.subs.DeactivateForScope(ctx, tx, ev.UserID, scope, now); err != nil {
			return err
		}

		sub, err := model.NewSubscription(uuid.NewString(), ev.UserID, scope, ev.AmountPaid, ev.ExternalPaymentID, now, r.durationDays)
		if err != nil {
			return err
		}
		if ev.Purpose == model.PurposeLearningPathSave {
			sub.LearningPathsSaved = 1
			if err := r.consumePathSlot(ctx, tx, ev.UserID, now); err != nil {
				return err
			}
		}
		if err := r.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		if err := r.events.MarkApplied(ctx, tx, ev.ID); err != nil {
			return err
		}
		created = sub
		return nil
	})

	if txErr != nil {
		// A concurrent reconciliation for the same scope won the uniqueness
		// race. Resolve by reading the now-active record instead of
		// retrying.
		if errors.Is(txErr, domain.ErrDuplicateActiveSubscription) {
			r.log.Warn().Str("user_id", ev.UserID).Str("scope", string(scope)).
				Msg("concurrent reconciliation detected, re-reading active record")
			return r.subs.FindActive(ctx, repository.NoTX, ev.UserID, scope)
		}
		return nil, txErr
	}

	r.log.Info().Str("user_id", ev.UserID).Str("scope", string(scope)).
		Str("tier", string(created.PlanType)).Int64("amount", ev.AmountPaid).
		Msg("payment applied")
	return created, nil
}

// consumePathSlot records a saved-path purchase against the user's global
// subscription allowance, when one exists.
func (r *paymentReconciler) consumePathSlot(ctx context.Context, tx repository.Tx, userID string, now time.Time) error {
	global, err := r.subs.FindActive(ctx, tx, userID, model.ScopeGlobal)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if global == nil || global.LearningPathsSaved >= global.MaxLearningPaths {
		return nil
	}
	global.LearningPathsSaved++
	global.UpdatedAt = now
	return r.subs.Save(ctx, tx, global)
}

func (r *paymentReconciler) RepairMismatch(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	if sub == nil || sub.ID == "" {
		return nil, domain.ErrInvalidArgument
	}
	changed, err := sub.RepairFromAmount()
	if err != nil {
		return nil, err
	}
	if !changed {
		return sub, nil
	}
	sub.UpdatedAt = r.nowFn()
	if err := r.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	r.log.Warn().Str("subscription_id", sub.ID).Int64("amount", sub.PlanAmount).
		Str("tier", string(sub.PlanType)).Msg("tier/amount mismatch repaired")
	return sub, nil
}

func (r *paymentReconciler) ReplayUnapplied(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-r.staleAfter)
	pending, err := r.events.ListUnapplied(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		return 0, err
	}
	applied := 0
	for _, ev := range pending {
		if _, err := r.ApplyCompletedPayment(ctx, ev); err != nil {
			r.log.Error().Err(err).Str("event_id", ev.ID).
				Str("external_payment_id", ev.ExternalPaymentID).Msg("replay failed")
			continue
		}
		applied++
	}
	return applied, nil
}
