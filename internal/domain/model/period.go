package model

import "time"

// PeriodClock maps timestamps to rollover period keys in the platform's
// canonical timezone. Pure and total: every timestamp has exactly one day
// key and one month key.
type PeriodClock struct {
	loc *time.Location
}

// NewPeriodClock builds a clock for the given location. A nil location
// means UTC.
func NewPeriodClock(loc *time.Location) PeriodClock {
	if loc == nil {
		loc = time.UTC
	}
	return PeriodClock{loc: loc}
}

// DayKey returns the date-only key ("2006-01-02") for t.
func (c PeriodClock) DayKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// MonthKey returns the (year, month) pair for t.
func (c PeriodClock) MonthKey(t time.Time) (year int, month int) {
	tt := t.In(c.loc)
	return tt.Year(), int(tt.Month())
}
