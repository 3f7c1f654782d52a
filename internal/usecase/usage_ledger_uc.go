package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
)

// Compile-time check
var _ UsageLedger = (*usageLedger)(nil)

// UsageLedger owns rolling consumption counters. It never applies policy:
// the caller supplies the ceiling, the ledger only counts against it.
type UsageLedger interface {
	// CheckAndConsumeDailyChat consumes one daily chat turn for
	// (userID, chapterID) if the current-day counter is below limit.
	CheckAndConsumeDailyChat(ctx context.Context, userID, chapterID string, limit int, now time.Time) (model.QuotaResult, error)
	// CheckAndConsumeMonthlyMCQ is the (year, month)-keyed counterpart.
	CheckAndConsumeMonthlyMCQ(ctx context.Context, userID, chapterID string, limit int, now time.Time) (model.QuotaResult, error)
	// PeekUsage reads both counters with rollover-as-zero, without mutating.
	PeekUsage(ctx context.Context, userID, chapterID string, now time.Time) (model.UsageSnapshot, error)
}

type usageLedger struct {
	usage repository.UsageRepository
	clock model.PeriodClock
	log   *zerolog.Logger
}

func NewUsageLedger(usage repository.UsageRepository, clock model.PeriodClock, logger *zerolog.Logger) *usageLedger {
	l := logger.With().Str("component", "UsageLedger").Logger()
	return &usageLedger{usage: usage, clock: clock, log: &l}
}

func (u *usageLedger) CheckAndConsumeDailyChat(ctx context.Context, userID, chapterID string, limit int, now time.Time) (model.QuotaResult, error) {
	if userID == "" || chapterID == "" {
		return model.QuotaResult{}, domain.ErrInvalidArgument
	}
	// No ceiling means the gate failed to resolve limits first; refusing
	// here keeps a missing subscription from reading as unlimited.
	if limit <= 0 {
		return model.QuotaResult{}, domain.ErrInvalidArgument
	}

	dayKey := u.clock.DayKey(now)
	count, allowed, err := u.usage.ConsumeDailyChat(ctx, repository.NoTX, userID, chapterID, dayKey, limit)
	if err != nil {
		return model.QuotaResult{}, err
	}
	if !allowed {
		return model.QuotaResult{Allowed: false, Remaining: 0}, nil
	}
	u.log.Debug().Str("user_id", userID).Str("chapter_id", chapterID).
		Str("day_key", dayKey).Int("count", count).Msg("daily chat consumed")
	return model.QuotaResult{Allowed: true, Remaining: limit - count}, nil
}

func (u *usageLedger) CheckAndConsumeMonthlyMCQ(ctx context.Context, userID, chapterID string, limit int, now time.Time) (model.QuotaResult, error) {
	if userID == "" || chapterID == "" {
		return model.QuotaResult{}, domain.ErrInvalidArgument
	}
	if limit <= 0 {
		return model.QuotaResult{}, domain.ErrInvalidArgument
	}

	year, month := u.clock.MonthKey(now)
	count, allowed, err := u.usage.ConsumeMonthlyMCQ(ctx, repository.NoTX, userID, chapterID, year, month, limit)
	if err != nil {
		return model.QuotaResult{}, err
	}
	if !allowed {
		return model.QuotaResult{Allowed: false, Remaining: 0}, nil
	}
	u.log.Debug().Str("user_id", userID).Str("chapter_id", chapterID).
		Int("year", year).Int("month", month).Int("count", count).Msg("monthly mcq consumed")
	return model.QuotaResult{Allowed: true, Remaining: limit - count}, nil
}

func (u *usageLedger) PeekUsage(ctx context.Context, userID, chapterID string, now time.Time) (model.UsageSnapshot, error) {
	if userID == "" || chapterID == "" {
		return model.UsageSnapshot{}, domain.ErrInvalidArgument
	}

	daily, err := u.usage.PeekDailyChat(ctx, repository.NoTX, userID, chapterID, u.clock.DayKey(now))
	if err != nil {
		return model.UsageSnapshot{}, err
	}
	year, month := u.clock.MonthKey(now)
	monthly, err := u.usage.PeekMonthlyMCQ(ctx, repository.NoTX, userID, chapterID, year, month)
	if err != nil {
		return model.UsageSnapshot{}, err
	}
	return model.UsageSnapshot{DailyChatUsed: daily, MonthlyMCQUsed: monthly}, nil
}
