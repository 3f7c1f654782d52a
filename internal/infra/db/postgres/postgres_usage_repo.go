package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/ports/repository"
)

// Ensure usageRepo implements repository.UsageRepository
var _ repository.UsageRepository = (*usageRepo)(nil)

type usageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *usageRepo {
	return &usageRepo{pool: pool}
}

// ConsumeDailyChat is one conditional upsert: a stale day key resets the
// counter to 1, a current one increments while below the limit. No row
// back means the quota was already spent; nothing was written.
func (r *usageRepo) ConsumeDailyChat(ctx context.Context, tx repository.Tx, userID, chapterID, dayKey string, limit int) (int, bool, error) {
	const q = `
INSERT INTO usage_chat (user_id, chapter_id, day_key, count)
VALUES ($1, $2, $3, 1)
ON CONFLICT (user_id, chapter_id) DO UPDATE SET
  count   = CASE WHEN usage_chat.day_key <> EXCLUDED.day_key THEN 1 ELSE usage_chat.count + 1 END,
  day_key = EXCLUDED.day_key
WHERE usage_chat.day_key <> EXCLUDED.day_key OR usage_chat.count < $4
RETURNING count;`
	return r.consume(ctx, tx, q, userID, chapterID, dayKey, limit)
}

func (r *usageRepo) ConsumeMonthlyMCQ(ctx context.Context, tx repository.Tx, userID, chapterID string, year, month, limit int) (int, bool, error) {
	const q = `
INSERT INTO usage_mcq (user_id, chapter_id, year, month, count)
VALUES ($1, $2, $3, $4, 1)
ON CONFLICT (user_id, chapter_id) DO UPDATE SET
  count = CASE WHEN usage_mcq.year <> EXCLUDED.year OR usage_mcq.month <> EXCLUDED.month
               THEN 1 ELSE usage_mcq.count + 1 END,
  year  = EXCLUDED.year,
  month = EXCLUDED.month
WHERE usage_mcq.year <> EXCLUDED.year OR usage_mcq.month <> EXCLUDED.month OR usage_mcq.count < $5
RETURNING count;`
	return r.consume(ctx, tx, q, userID, chapterID, year, month, limit)
}

func (r *usageRepo) consume(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (int, bool, error) {
	row, err := queryRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return 0, false, err
	}
	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil // limit already reached for this period
		}
		return 0, false, domain.ErrReadDatabaseRow
	}
	return count, true, nil
}

func (r *usageRepo) PeekDailyChat(ctx context.Context, tx repository.Tx, userID, chapterID, dayKey string) (int, error) {
	const q = `
SELECT count, day_key
  FROM usage_chat
 WHERE user_id=$1 AND chapter_id=$2;`
	row, err := queryRow(ctx, r.pool, tx, q, userID, chapterID)
	if err != nil {
		return 0, err
	}
	var count int
	var stored string
	if err := row.Scan(&count, &stored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, domain.ErrReadDatabaseRow
	}
	if stored != dayKey {
		return 0, nil
	}
	return count, nil
}

func (r *usageRepo) PeekMonthlyMCQ(ctx context.Context, tx repository.Tx, userID, chapterID string, year, month int) (int, error) {
	const q = `
SELECT count, year, month
  FROM usage_mcq
 WHERE user_id=$1 AND chapter_id=$2;`
	row, err := queryRow(ctx, r.pool, tx, q, userID, chapterID)
	if err != nil {
		return 0, err
	}
	var count, storedYear, storedMonth int
	if err := row.Scan(&count, &storedYear, &storedMonth); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, domain.ErrReadDatabaseRow
	}
	if storedYear != year || storedMonth != month {
		return 0, nil
	}
	return count, nil
}
