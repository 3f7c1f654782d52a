package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `
id, user_id, plan_type, plan_amount, scope, daily_chat_limit, monthly_mcq_limit,
max_learning_paths, learning_paths_saved, start_date, expiry_date, is_active,
external_payment_id, created_at, updated_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (
  id, user_id, plan_type, plan_amount, scope, daily_chat_limit, monthly_mcq_limit,
  max_learning_paths, learning_paths_saved, start_date, expiry_date, is_active,
  external_payment_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (id) DO UPDATE SET
  plan_type=$3, plan_amount=$4, daily_chat_limit=$6, monthly_mcq_limit=$7,
  max_learning_paths=$8, learning_paths_saved=$9, expiry_date=$11, is_active=$12,
  updated_at=$15;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.PlanType, s.PlanAmount, s.Scope, s.DailyChatLimit, s.MonthlyMCQLimit,
		s.MaxLearningPaths, s.LearningPathsSaved, s.StartDate, s.ExpiryDate, s.IsActive,
		s.ExternalPaymentID, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return err
		default:
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				switch pgErr.ConstraintName {
				case "subscriptions_one_active_per_scope":
					return domain.ErrDuplicateActiveSubscription
				case "subscriptions_external_payment_id":
					return domain.ErrAlreadyExists
				}
			}
			return domain.ErrOperationFailed
		}
	}
	return nil
}

func (r *subscriptionRepo) FindActive(ctx context.Context, tx repository.Tx, userID string, scope model.SubscriptionScope) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE user_id=$1 AND scope=$2 AND is_active
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID, scope)
}

func (r *subscriptionRepo) FindByExternalPaymentID(ctx context.Context, tx repository.Tx, externalPaymentID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE external_payment_id=$1
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, externalPaymentID)
}

func (r *subscriptionRepo) DeactivateForScope(ctx context.Context, tx repository.Tx, userID string, scope model.SubscriptionScope, now time.Time) error {
	const q = `
UPDATE subscriptions
   SET is_active=FALSE, updated_at=$3
 WHERE user_id=$1 AND scope=$2 AND is_active;`
	_, err := execSQL(ctx, r.pool, tx, q, userID, scope, now)
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

func (r *subscriptionRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `
UPDATE subscriptions
   SET is_active=FALSE, updated_at=$1
 WHERE is_active AND expiry_date < $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, now)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
			return 0, err
		default:
			return 0, domain.ErrOperationFailed
		}
	}
	return int(tag.RowsAffected()), nil
}

func (r *subscriptionRepo) CountActiveByTier(ctx context.Context, tx repository.Tx) (map[model.PlanTier]int, error) {
	const q = `
SELECT plan_type, COUNT(*)
  FROM subscriptions
 WHERE is_active
 GROUP BY plan_type;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	out := make(map[model.PlanTier]int)
	for rows.Next() {
		var tier model.PlanTier
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out[tier] = n
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Subscription, error) {
	row, err := queryRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	s, err := scanSubscription(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.ID, &s.UserID, &s.PlanType, &s.PlanAmount, &s.Scope, &s.DailyChatLimit, &s.MonthlyMCQLimit,
		&s.MaxLearningPaths, &s.LearningPathsSaved, &s.StartDate, &s.ExpiryDate, &s.IsActive,
		&s.ExternalPaymentID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
