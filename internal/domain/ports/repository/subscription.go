package repository

import (
	"context"
	"time"

	"learning-entitlement/internal/domain/model"
)

// SubscriptionRepository is the port for entitlement records. The storage
// layer enforces the one-active-record-per-(user, scope) invariant with a
// uniqueness constraint; Save surfaces a violation as
// domain.ErrDuplicateActiveSubscription.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Subscription) error
	FindActive(ctx context.Context, tx Tx, userID string, scope model.SubscriptionScope) (*model.Subscription, error)
	FindByExternalPaymentID(ctx context.Context, tx Tx, externalPaymentID string) (*model.Subscription, error)

	// DeactivateForScope flips is_active off for the current active record
	// of (userID, scope), if any. Used by reconciliation before activating
	// a replacement.
	DeactivateForScope(ctx context.Context, tx Tx, userID string, scope model.SubscriptionScope, now time.Time) error

	// DeactivateExpired flips is_active off for every record whose expiry
	// has passed, returning the number of rows changed. Idempotent.
	DeactivateExpired(ctx context.Context, tx Tx, now time.Time) (int, error)

	// CountActiveByTier powers the subscriptions gauge.
	CountActiveByTier(ctx context.Context, tx Tx) (map[model.PlanTier]int, error)
}
