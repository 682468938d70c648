/*
Package calendar resolves working days for the leave engine.

PURPOSE:
  Answers two questions for the rest of the system:
  1. Is a given date a working day? (weekend set + holiday list)
  2. How many working days does an inclusive date span contain?

DESIGN:
  The Calendar is an immutable snapshot: it is built once from a weekend
  set and a holiday list and then only read. The core never mutates it,
  which keeps working-day math a pure function of (span, calendar).

HALF DAYS:
  A single-day span flagged as half-day counts as 0.5 working days.
  Half-day is ignored for multi-day spans.

EDGE CASES:
  - end before start: WorkingDays returns 0 (callers must treat 0 as
    invalid for new requests)
  - span entirely on weekends/holidays: returns 0

USAGE:
  cal := calendar.New(calendar.DefaultWeekend(), holidays)
  days := cal.WorkingDays(start, end, false)

SEE ALSO:
  - leave/validate.go: Rejects requests starting on non-working days
  - leave/accrual.go: Uses the calendar year boundaries
*/
package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HOLIDAY
// =============================================================================

// Holiday is a single non-working date in the company calendar.
type Holiday struct {
	Date time.Time
	Name string
	Type string // e.g. "national", "regional", "company"
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar reports whether dates are working days. Pure lookup, no side
// effects. Safe for concurrent readers once constructed.
type Calendar struct {
	weekend  map[time.Weekday]bool
	holidays map[string]Holiday // keyed by YYYY-MM-DD
}

// DefaultWeekend returns the standard Saturday/Sunday weekend set.
func DefaultWeekend() []time.Weekday {
	return []time.Weekday{time.Saturday, time.Sunday}
}

// New builds a calendar from a weekend set and a holiday list.
func New(weekend []time.Weekday, holidays []Holiday) *Calendar {
	c := &Calendar{
		weekend:  make(map[time.Weekday]bool),
		holidays: make(map[string]Holiday),
	}
	for _, wd := range weekend {
		c.weekend[wd] = true
	}
	for _, h := range holidays {
		c.holidays[dayKey(h.Date)] = h
	}
	return c
}

// IsWeekend reports whether the date falls on a configured weekend day.
func (c *Calendar) IsWeekend(d time.Time) bool {
	return c.weekend[d.Weekday()]
}

// IsHoliday reports whether the date is a listed holiday.
func (c *Calendar) IsHoliday(d time.Time) (Holiday, bool) {
	h, ok := c.holidays[dayKey(d)]
	return h, ok
}

// IsWorkingDay reports whether the date is neither weekend nor holiday.
func (c *Calendar) IsWorkingDay(d time.Time) bool {
	if c.IsWeekend(d) {
		return false
	}
	_, holiday := c.IsHoliday(d)
	return !holiday
}

// Holidays returns all holidays in the given year, unordered.
func (c *Calendar) Holidays(year int) []Holiday {
	var out []Holiday
	for _, h := range c.holidays {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	return out
}

// =============================================================================
// WORKING-DAY CALCULATOR
// =============================================================================

var half = decimal.NewFromFloat(0.5)

// WorkingDays counts admissible leave days in the inclusive span
// [start, end]. Days on weekends or holidays do not count. A single-day
// half-day span counts as 0.5. Malformed spans (end before start)
// return 0 rather than an error; callers must treat 0 as invalid for
// new requests.
func (c *Calendar) WorkingDays(start, end time.Time, isHalfDay bool) decimal.Decimal {
	start = DateOnly(start)
	end = DateOnly(end)
	if end.Before(start) {
		return decimal.Zero
	}

	count := decimal.Zero
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsWorkingDay(d) {
			count = count.Add(decimal.NewFromInt(1))
		}
	}

	if isHalfDay && start.Equal(end) && count.IsPositive() {
		count = count.Sub(half)
	}
	return count
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DateOnly truncates a time to midnight UTC of the same calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the number of calendar days from a to b.
// Negative if b is before a.
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
