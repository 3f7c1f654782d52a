package model

// DailyCounter is a per-(user, chapter) chat counter bound to one day key.
// A stored key that differs from the caller's current day key means the
// counter rolled over and reads as zero.
type DailyCounter struct {
	Count  int
	DayKey string
}

// MonthlyCounter is the per-(user, chapter) MCQ counter bound to one
// (year, month) pair.
type MonthlyCounter struct {
	Count int
	Year  int
	Month int
}

// UsageSnapshot is a read-only view of current-period consumption.
type UsageSnapshot struct {
	DailyChatUsed  int
	MonthlyMCQUsed int
}

// QuotaResult is the outcome of one check-and-consume call.
type QuotaResult struct {
	Allowed   bool
	Remaining int
}
