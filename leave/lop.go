/*
lop.go - Loss-of-Pay tracker

PURPOSE:
  Maintains the per-employee yearly and monthly LOP counters, applies
  the lazy reset policy, and records an auditable history entry for
  every conversion.

SINGLE WRITE PATH:
  AddLOPDays and ReverseLOPDays are the ONLY paths by which the lop
  balance or the counters change. Every conversion is attributable to a
  reason and (usually) a leave request.

LAZY RESET:
  Counters are not reset by a scheduled job. CheckLimits compares the
  last reset date with "now": crossing a month boundary resets the
  monthly counter; crossing a year boundary (or a month boundary, when
  lopResetPeriod is monthly) resets the yearly counter too.

THRESHOLDS:
  A counter within 2 days of its cap reports nearThreshold, so callers
  can warn before requests start bouncing.

SEE ALSO:
  - ledger.go: Routes deduction shortfalls here
  - accrual.go: Routes negative-balance auto-conversions here
*/
package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// nearThresholdMargin is how close to a cap counts as "near".
var nearThresholdMargin = decimal.NewFromInt(2)

// LOPStatus reports the current counters against the configured maxima.
type LOPStatus struct {
	YearlyLOP  decimal.Decimal
	MonthlyLOP decimal.Decimal
	MaxYearly  decimal.Decimal
	MaxMonthly decimal.Decimal

	AtYearlyLimit  bool
	AtMonthlyLimit bool
	NearThreshold  bool

	History []LOPEntry
}

// CheckLimits lazily resets the counters when the last reset date falls
// outside the configured period, then reports counters, maxima, and
// limit flags. Mutates emp's tracking in memory; persisting is the
// caller's responsibility.
func CheckLimits(emp *Employee, cfg PolicyConfig, now time.Time) LOPStatus {
	resetCounters(&emp.LOP, cfg.Settings.LOPResetPeriod, now)

	s := cfg.Settings
	status := LOPStatus{
		YearlyLOP:  emp.LOP.YearlyLOP,
		MonthlyLOP: emp.LOP.MonthlyLOP,
		MaxYearly:  s.MaxLOPDaysYearly,
		MaxMonthly: s.MaxLOPDaysPerMonth,
		History:    emp.LOP.History,
	}
	status.AtYearlyLimit = status.YearlyLOP.GreaterThanOrEqual(status.MaxYearly)
	status.AtMonthlyLimit = status.MonthlyLOP.GreaterThanOrEqual(status.MaxMonthly)
	status.NearThreshold = status.YearlyLOP.GreaterThanOrEqual(status.MaxYearly.Sub(nearThresholdMargin)) ||
		status.MonthlyLOP.GreaterThanOrEqual(status.MaxMonthly.Sub(nearThresholdMargin))
	return status
}

// resetCounters applies the lazy reset policy in place.
func resetCounters(t *LOPTracking, period ResetPeriod, now time.Time) {
	if t.LastResetDate.IsZero() {
		t.LastResetDate = now
		return
	}

	newMonth := t.LastResetDate.Year() != now.Year() || t.LastResetDate.Month() != now.Month()
	newYear := t.LastResetDate.Year() != now.Year()

	if !newMonth {
		return
	}

	t.MonthlyLOP = decimal.Zero
	if newYear || period == ResetMonthly {
		t.YearlyLOP = decimal.Zero
	}
	t.LastResetDate = now
}

// AddLOPDays increments both counters, increments the employee's lop
// balance, and appends a history entry. days must be positive.
func AddLOPDays(emp *Employee, days decimal.Decimal, reason, leaveRequestID string, now time.Time) {
	if !days.IsPositive() {
		return
	}
	emp.LOP.YearlyLOP = emp.LOP.YearlyLOP.Add(days)
	emp.LOP.MonthlyLOP = emp.LOP.MonthlyLOP.Add(days)
	emp.Balances.LOP = emp.Balances.LOP.Add(days)
	emp.LOP.History = append(emp.LOP.History, LOPEntry{
		ID:             uuid.NewString(),
		Date:           now,
		Days:           days,
		Reason:         reason,
		LeaveRequestID: leaveRequestID,
	})
}

// ReverseLOPDays undoes a previous attribution (cancellation of an
// approved request). Counters and the lop balance are decremented,
// floored at zero, and a negative history entry keeps the trail intact.
func ReverseLOPDays(emp *Employee, days decimal.Decimal, reason, leaveRequestID string, now time.Time) {
	if !days.IsPositive() {
		return
	}
	emp.LOP.YearlyLOP = floorZero(emp.LOP.YearlyLOP.Sub(days))
	emp.LOP.MonthlyLOP = floorZero(emp.LOP.MonthlyLOP.Sub(days))
	emp.Balances.LOP = floorZero(emp.Balances.LOP.Sub(days))
	emp.LOP.History = append(emp.LOP.History, LOPEntry{
		ID:             uuid.NewString(),
		Date:           now,
		Days:           days.Neg(),
		Reason:         reason,
		LeaveRequestID: leaveRequestID,
	})
}

func floorZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
