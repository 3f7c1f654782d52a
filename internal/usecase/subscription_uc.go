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
var _ SubscriptionStore = (*subscriptionStore)(nil)

// SubscriptionStore answers "what is this user entitled to" from the
// subscription records. Policy for the no-subscription case belongs to the
// entitlement gate, not here.
type SubscriptionStore interface {
	FindActive(ctx context.Context, userID string, scope model.SubscriptionScope) (*model.Subscription, error)
	// ResolveEffectiveLimits prefers a path-scoped active subscription over
	// the global one; returns domain.ErrNoActiveSubscription when neither
	// exists or both have lapsed.
	ResolveEffectiveLimits(ctx context.Context, userID, pathID string, now time.Time) (*model.Subscription, error)
	// DeactivateExpired is the scheduled sweep; returns rows flipped.
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)
	ActiveCountsByTier(ctx context.Context) (map[model.PlanTier]int, error)
}

type subscriptionStore struct {
	subs repository.SubscriptionRepository
	log  *zerolog.Logger
}

func NewSubscriptionStore(subs repository.SubscriptionRepository, logger *zerolog.Logger) *subscriptionStore {
	l := logger.With().Str("component", "SubscriptionStore").Logger()
	return &subscriptionStore{subs: subs, log: &l}
}

func (s *subscriptionStore) FindActive(ctx context.Context, userID string, scope model.SubscriptionScope) (*model.Subscription, error) {
	if userID == "" || scope == "" {
		return nil, domain.ErrInvalidArgument
	}
	return s.subs.FindActive(ctx, repository.NoTX, userID, scope)
}

func (s *subscriptionStore) ResolveEffectiveLimits(ctx context.Context, userID, pathID string, now time.Time) (*model.Subscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}

	if pathID != "" {
		sub, err := s.subs.FindActive(ctx, repository.NoTX, userID, model.ScopeForPath(pathID))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		if sub != nil && !sub.ExpiredAt(now) {
			return sub, nil
		}
	}

	sub, err := s.subs.FindActive(ctx, repository.NoTX, userID, model.ScopeGlobal)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	// A record the expiry sweep has not reached yet still counts as absent.
	if sub == nil || sub.ExpiredAt(now) {
		return nil, domain.ErrNoActiveSubscription
	}
	return sub, nil
}

func (s *subscriptionStore) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	n, err := s.subs.DeactivateExpired(ctx, repository.NoTX, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("expired subscriptions deactivated")
	}
	return n, nil
}

func (s *subscriptionStore) ActiveCountsByTier(ctx context.Context) (map[model.PlanTier]int, error) {
	return s.subs.CountActiveByTier(ctx, repository.NoTX)
}
