package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
)

// Ensure paymentEventRepo implements repository.PaymentEventRepository
var _ repository.PaymentEventRepository = (*paymentEventRepo)(nil)

type paymentEventRepo struct {
	pool *pgxpool.Pool
}

func NewPaymentEventRepo(pool *pgxpool.Pool) *paymentEventRepo {
	return &paymentEventRepo{pool: pool}
}

const paymentEventColumns = `
id, external_payment_id, user_id, amount_paid, currency, purpose, path_id, applied, received_at`

// Save dedupes on external_payment_id; a replayed event inserts nothing.
func (r *paymentEventRepo) Save(ctx context.Context, tx repository.Tx, e *model.PaymentEvent) (bool, error) {
	const q = `
INSERT INTO payment_events (
  id, external_payment_id, user_id, amount_paid, currency, purpose, path_id, applied, received_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (external_payment_id) DO NOTHING;`
	tag, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.ExternalPaymentID, e.UserID, e.AmountPaid, e.Currency, e.Purpose, e.PathID, e.Applied, e.ReceivedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return false, err
		default:
			return false, domain.ErrOperationFailed
		}
	}
	return tag.RowsAffected() == 1, nil
}

func (r *paymentEventRepo) FindByExternalID(ctx context.Context, tx repository.Tx, externalPaymentID string) (*model.PaymentEvent, error) {
	const q = `
SELECT ` + paymentEventColumns + `
  FROM payment_events
 WHERE external_payment_id=$1;`
	row, err := queryRow(ctx, r.pool, tx, q, externalPaymentID)
	if err != nil {
		return nil, err
	}
	return scanPaymentEvent(row)
}

func (r *paymentEventRepo) MarkApplied(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE payment_events SET applied=TRUE WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *paymentEventRepo) ListUnapplied(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.PaymentEvent, error) {
	const q = `
SELECT ` + paymentEventColumns + `
  FROM payment_events
 WHERE NOT applied AND received_at <= $1
 ORDER BY received_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.PaymentEvent
	for rows.Next() {
		e, err := scanPaymentEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanPaymentEvent(row pgx.Row) (*model.PaymentEvent, error) {
	var e model.PaymentEvent
	err := row.Scan(&e.ID, &e.ExternalPaymentID, &e.UserID, &e.AmountPaid, &e.Currency,
		&e.Purpose, &e.PathID, &e.Applied, &e.ReceivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &e, nil
}
