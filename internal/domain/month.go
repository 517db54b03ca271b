package domain

import (
	"fmt"
	"time"
)

// Month identifies a calendar month (year + month). It is a small value
// type, safe to copy and to use as a map key, and is the unit every
// snapshot and reconstruction is keyed by.
type Month struct {
	Year  int
	Month time.Month
}

// NewMonth builds a Month from a year and a 1-12 month number.
func NewMonth(year, month int) Month {
	return Month{Year: year, Month: time.Month(month)}
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// AddMonths returns the month n months after m (n may be negative).
// Overflow is normalized, e.g. 2024-12 + 1 = 2025-01.
func (m Month) AddMonths(n int) Month {
	t := time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Month{Year: t.Year(), Month: t.Month()}
}

// Next returns the following month.
func (m Month) Next() Month { return m.AddMonths(1) }

// Prev returns the preceding month.
func (m Month) Prev() Month { return m.AddMonths(-1) }

// Compare returns -1, 0 or 1 comparing m to o chronologically.
func (m Month) Compare(o Month) int {
	switch {
	case m.Year != o.Year:
		if m.Year < o.Year {
			return -1
		}
		return 1
	case m.Month != o.Month:
		if m.Month < o.Month {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Before reports whether m is strictly before o.
func (m Month) Before(o Month) bool { return m.Compare(o) < 0 }

// After reports whether m is strictly after o.
func (m Month) After(o Month) bool { return m.Compare(o) > 0 }

// Equal reports whether m and o are the same month.
func (m Month) Equal(o Month) bool { return m.Compare(o) == 0 }

// Start returns the first instant of the month (day 1, 00:00:00 UTC).
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the month used for date comparisons:
// the last calendar day at 23:59:59.
func (m Month) End() time.Time {
	return m.Next().Start().Add(-time.Second)
}

// EndOrNow returns the month end, except for the month containing now,
// where "today" substitutes for the (not yet reached) month end.
func (m Month) EndOrNow(now time.Time) time.Time {
	if m.Equal(MonthOf(now)) {
		return now
	}
	return m.End()
}

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return MonthOf(t).Equal(m)
}

// MonthsUntil returns the number of months from m to o (negative when o
// is before m).
func (m Month) MonthsUntil(o Month) int {
	return (o.Year-m.Year)*12 + int(o.Month-m.Month)
}

// String formats the month as "2006-01".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MonthRange returns every month from first to last inclusive, in
// chronological order. An inverted range yields nil.
func MonthRange(first, last Month) []Month {
	if first.After(last) {
		return nil
	}
	months := make([]Month, 0, first.MonthsUntil(last)+1)
	for m := first; !m.After(last); m = m.Next() {
		months = append(months, m)
	}
	return months
}
