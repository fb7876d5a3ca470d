package utils

import (
	"fmt"
	"time"
)

// Period identifies one billing cycle of a credit card as a (month, year) pair.
type Period struct {
	Month time.Month
	Year  int
}

// PeriodOf returns the period containing the given date.
func PeriodOf(t time.Time) Period {
	return Period{Month: t.Month(), Year: t.Year()}
}

// Next returns the following calendar month's period.
func (p Period) Next() Period {
	return p.AddMonths(1)
}

// AddMonths returns the period n calendar months after p.
func (p Period) AddMonths(n int) Period {
	m := int(p.Month) - 1 + n
	y := p.Year + m/12
	m = m % 12
	if m < 0 {
		m += 12
		y--
	}
	return Period{Month: time.Month(m + 1), Year: y}
}

// Before reports whether p is chronologically before q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay clamps a day-of-month to the length of the given month.
func ClampDay(year int, month time.Month, day int) int {
	if last := DaysInMonth(year, month); day > last {
		return last
	}
	return day
}

// DateIn returns the given day of the period at UTC midnight, clamping the
// day to the month's length.
func (p Period) DateIn(day int) time.Time {
	return time.Date(p.Year, p.Month, ClampDay(p.Year, p.Month, day), 0, 0, 0, 0, time.UTC)
}

// Midnight truncates a time to its calendar day at UTC midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped advances an anchor date by n calendar months, preserving
// the anchor's day-of-month and clamping to the target month's last day.
// The anchor's own day is used each time, so stepping Jan 31 by 1, 2, 3
// months yields Feb 28/29, Mar 31, Apr 30; clamping never sticks.
func AddMonthsClamped(anchor time.Time, n int) time.Time {
	p := PeriodOf(anchor).AddMonths(n)
	return p.DateIn(anchor.Day())
}

// AddYearsClamped advances an anchor date by n years, preserving month and
// day and clamping Feb 29 to Feb 28 in non-leap years.
func AddYearsClamped(anchor time.Time, n int) time.Time {
	year := anchor.Year() + n
	return time.Date(year, anchor.Month(), ClampDay(year, anchor.Month(), anchor.Day()), 0, 0, 0, 0, time.UTC)
}
