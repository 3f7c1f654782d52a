package model

import (
	"time"

	"learning-entitlement/internal/domain"
)

type PaymentPurpose string

const (
	PurposeCareerAccess     PaymentPurpose = "career_access"
	PurposeLearningPathSave PaymentPurpose = "learning_path_save"
)

// PaymentEvent is a completed-payment notification from the payment
// collaborator. Events are delivered at least once; ExternalPaymentID is
// the dedupe key. Applied flips once the reconciler has produced the
// subscription mutation for this event.
type PaymentEvent struct {
	ID                string // ULID, assigned at intake
	ExternalPaymentID string
	UserID            string
	AmountPaid        int64
	Currency          string
	Purpose           PaymentPurpose
	PathID            *string // required for learning_path_save
	Applied           bool
	ReceivedAt        time.Time
}

// NewPaymentEvent validates collaborator input into an intake record.
// Amount-to-tier validation is the reconciler's job; this only rejects
// structurally broken events.
func NewPaymentEvent(id, externalPaymentID, userID string, amount int64, currency string, purpose PaymentPurpose, pathID *string, now time.Time) (*PaymentEvent, error) {
	if id == "" || externalPaymentID == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	switch purpose {
	case PurposeCareerAccess:
	case PurposeLearningPathSave:
		if pathID == nil || *pathID == "" {
			return nil, domain.ErrInvalidArgument
		}
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &PaymentEvent{
		ID:                id,
		ExternalPaymentID: externalPaymentID,
		UserID:            userID,
		AmountPaid:        amount,
		Currency:          currency,
		Purpose:           purpose,
		PathID:            pathID,
		ReceivedAt:        now,
	}, nil
}

// Scope resolves which (user, scope) pair this event's subscription
// mutation targets.
func (e *PaymentEvent) Scope() SubscriptionScope {
	if e.Purpose == PurposeLearningPathSave && e.PathID != nil {
		return ScopeForPath(*e.PathID)
	}
	return ScopeGlobal
}
