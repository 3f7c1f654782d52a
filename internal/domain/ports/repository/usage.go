package repository

import "context"

// UsageRepository owns the per-(user, chapter) counters. Consume calls are
// a single atomic conditional write: the counter is incremented (or reset
// to 1 on period rollover) only while below the limit, so two concurrent
// requests can never both take the last slot.
//
// The returned count is the counter value after a successful consume;
// allowed=false means the counter was already at the limit for the current
// period and nothing was written.
type UsageRepository interface {
	ConsumeDailyChat(ctx context.Context, tx Tx, userID, chapterID, dayKey string, limit int) (count int, allowed bool, err error)
	ConsumeMonthlyMCQ(ctx context.Context, tx Tx, userID, chapterID string, year, month, limit int) (count int, allowed bool, err error)

	// Peek variants apply the rollover-as-zero rule without mutating.
	PeekDailyChat(ctx context.Context, tx Tx, userID, chapterID, dayKey string) (int, error)
	PeekMonthlyMCQ(ctx context.Context, tx Tx, userID, chapterID string, year, month int) (int, error)
}
