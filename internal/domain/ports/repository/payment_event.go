package repository

import (
	"context"
	"time"

	"learning-entitlement/internal/domain/model"
)

// PaymentEventRepository is the intake ledger for completed-payment
// notifications. Save dedupes on the external payment id (inserted=false
// on replay), which makes at-least-once delivery safe; rows left with
// applied=false are picked up by the replay worker.
type PaymentEventRepository interface {
	Save(ctx context.Context, tx Tx, e *model.PaymentEvent) (inserted bool, err error)
	FindByExternalID(ctx context.Context, tx Tx, externalPaymentID string) (*model.PaymentEvent, error)
	MarkApplied(ctx context.Context, tx Tx, id string) error
	ListUnapplied(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.PaymentEvent, error)
}
