package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
)

// Compile-time check
var _ EntitlementGate = (*entitlementGate)(nil)

// EntitlementGate is the single entry point for content-consumption
// authorization. Checks run in a fixed order and short-circuit on the
// first failure: subscription, then unlock state, then quota. The counter
// is only touched in the last step, so a denied request never consumes
// quota.
type EntitlementGate interface {
	Authorize(ctx context.Context, userID, pathID, chapterID string, action model.ActionKind) (model.Decision, error)
}

type entitlementGate struct {
	store      SubscriptionStore
	unlock     UnlockResolver
	ledger     UsageLedger
	reconciler PaymentReconciler
	progress   repository.ProgressRepository
	nowFn      func() time.Time
	log        *zerolog.Logger
}

func NewEntitlementGate(
	store SubscriptionStore,
	unlock UnlockResolver,
	ledger UsageLedger,
	reconciler PaymentReconciler,
	progress repository.ProgressRepository,
	logger *zerolog.Logger,
) *entitlementGate {
	l := logger.With().Str("component", "EntitlementGate").Logger()
	return &entitlementGate{
		store:      store,
		unlock:     unlock,
		ledger:     ledger,
		reconciler: reconciler,
		progress:   progress,
		nowFn:      time.Now,
		log:        &l,
	}
}

func (g *entitlementGate) Authorize(ctx context.Context, userID, pathID, chapterID string, action model.ActionKind) (model.Decision, error) {
	if userID == "" || pathID == "" || chapterID == "" || !action.Valid() {
		return model.Decision{}, domain.ErrInvalidArgument
	}
	now := g.nowFn()

	// 1. Effective limits. No active subscription is a deny, while a
	// storage fault propagates as "unable to decide".
	sub, err := g.store.ResolveEffectiveLimits(ctx, userID, pathID, now)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSubscription) {
			return model.Deny(model.ReasonNoActiveSubscription), nil
		}
		return model.Decision{}, err
	}
	// A stored tier label that drifted from the paid amount is recovered
	// inline; the amount is the source of truth for the ceilings used
	// below.
	if repaired, rerr := g.reconciler.RepairMismatch(ctx, sub); rerr == nil {
		sub = repaired
	} else {
		g.log.Warn().Err(rerr).Str("subscription_id", sub.ID).Msg("tier repair skipped")
	}

	// 2. The target chapter must be reachable through the prefix-unlock
	// policy.
	path, err := g.progress.FindPath(ctx, repository.NoTX, pathID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return model.Deny(model.ReasonPathNotFound), nil
		}
		return model.Decision{}, err
	}
	moduleIdx, chapterIdx, ok := path.Locate(chapterID)
	if !ok {
		return model.Deny(model.ReasonChapterNotInPath), nil
	}
	access, err := g.unlock.ChapterAccess(ctx, userID, pathID, moduleIdx, chapterIdx)
	if err != nil {
		return model.Decision{}, err
	}
	if !access.HasAccess {
		return model.Deny(access.Reason), nil
	}

	// 3. Quota, consuming on success.
	var res model.QuotaResult
	switch action {
	case model.ActionDailyChat:
		res, err = g.ledger.CheckAndConsumeDailyChat(ctx, userID, chapterID, sub.DailyChatLimit, now)
	case model.ActionMonthlyMCQ:
		res, err = g.ledger.CheckAndConsumeMonthlyMCQ(ctx, userID, chapterID, sub.MonthlyMCQLimit, now)
	}
	if err != nil {
		return model.Decision{}, err
	}
	if !res.Allowed {
		return model.Deny(model.ReasonQuotaExhausted), nil
	}
	return model.Allow(res.Remaining), nil
}
