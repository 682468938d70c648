/*
accrual.go - Monthly accrual and year-end carry-forward

PURPOSE:
  The monthly batch step for a single employee. The first month of the
  year applies carry-forward: min(sick+casual+vacation, cap) is
  redistributed 40/30/30 into sick/casual/vacation as the new opening
  balance. Every other month credits the configured monthly accrual
  rate per bucket.

ROUNDING:
  Every touched bucket is rounded to one decimal place.

NEGATIVE BUCKETS:
  A bucket left negative is zeroed and its absolute value routed
  through the LOP tracker, subject to the same cap checks as request
  validation. When the caps leave no headroom the conversion is applied
  partially and the remainder recorded as a failure in the batch
  summary, never silently dropped.

CAPS:
  After crediting, each bucket is capped at the employment type's
  annual quota.

SEE ALSO:
  - service.go: RunAccrual iterates employees under their locks
  - lop.go: Auto-conversion write path
*/
package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Carry-forward redistribution shares.
var (
	shareSick     = decimal.NewFromFloat(0.4)
	shareCasual   = decimal.NewFromFloat(0.3)
	shareVacation = decimal.NewFromFloat(0.3)
)

// AccrualSummary is the result of one batch run.
type AccrualSummary struct {
	AsOf               time.Time
	EmployeesProcessed int
	EmployeesSkipped   int
	TotalCredited      decimal.Decimal
	CarryForwardRuns   int
	Failures           []AccrualFailure
	StartedAt          time.Time
	CompletedAt        time.Time
}

// AccrualFailure records a per-employee step that could not be fully
// applied. Failures are collected, not fatal to the run.
type AccrualFailure struct {
	EmployeeID string
	Reason     string
}

// JoinedInMonth reports whether the employee joined in asOf's calendar
// month. Such employees are skipped: proration already covered them.
func JoinedInMonth(emp *Employee, asOf time.Time) bool {
	return emp.JoiningDate.Year() == asOf.Year() && emp.JoiningDate.Month() == asOf.Month()
}

// AccrueEmployee applies one monthly accrual step to emp in memory.
// Returns the days credited and, when a negative-balance conversion hit
// the LOP caps, a failure record for the batch summary.
func AccrueEmployee(emp *Employee, cfg PolicyConfig, asOf time.Time) (decimal.Decimal, *AccrualFailure) {
	credited := decimal.Zero
	var failure *AccrualFailure

	if asOf.Month() == time.January {
		credited = applyCarryForward(emp, cfg)
	} else {
		rates := cfg.AccrualFor(emp.EmploymentType)
		for _, t := range AllTypes {
			if !t.Accrues() {
				continue
			}
			rate, err := rates.Get(t)
			if err != nil || !rate.IsPositive() {
				continue
			}
			current, _ := emp.Balances.Get(t)
			emp.Balances.Set(t, current.Add(rate).Round(1))
			credited = credited.Add(rate)
		}
	}

	// Resolve any negative bucket into LOP. The invariant is that no
	// balance is persisted negative.
	failure = convertNegatives(emp, cfg, asOf)

	// Cap each accruing bucket at the annual quota.
	quota := cfg.QuotaFor(emp.EmploymentType)
	for _, t := range AllTypes {
		if !t.Accrues() {
			continue
		}
		max, err := quota.Get(t)
		if err != nil {
			continue
		}
		current, _ := emp.Balances.Get(t)
		if current.GreaterThan(max) {
			emp.Balances.Set(t, max)
		}
	}

	return credited, failure
}

// applyCarryForward computes the year-boundary opening balances and
// returns the carried amount.
func applyCarryForward(emp *Employee, cfg PolicyConfig) decimal.Decimal {
	total := emp.Balances.Sick.Add(emp.Balances.Casual).Add(emp.Balances.Vacation)
	carry := decimal.Min(total, cfg.Settings.CarryForwardCap)
	if carry.IsNegative() {
		carry = decimal.Zero
	}

	emp.Balances.Sick = carry.Mul(shareSick).Round(1)
	emp.Balances.Casual = carry.Mul(shareCasual).Round(1)
	emp.Balances.Vacation = carry.Mul(shareVacation).Round(1)
	emp.CarryForwardDays = carry
	return carry
}

// convertNegatives zeroes negative buckets and routes their absolute
// value through the LOP tracker, honoring the configured caps.
func convertNegatives(emp *Employee, cfg PolicyConfig, asOf time.Time) *AccrualFailure {
	var failure *AccrualFailure

	for _, t := range AllTypes {
		if !t.Accrues() {
			continue
		}
		current, err := emp.Balances.Get(t)
		if err != nil || !current.IsNegative() {
			continue
		}

		owed := current.Neg()
		emp.Balances.Set(t, decimal.Zero)

		convertible := owed
		if cfg.Settings.RestrictLeaveAfterMaxLOP {
			status := CheckLimits(emp, cfg, asOf)
			headroom := decimal.Min(
				status.MaxYearly.Sub(status.YearlyLOP),
				status.MaxMonthly.Sub(status.MonthlyLOP),
			)
			if headroom.IsNegative() {
				headroom = decimal.Zero
			}
			convertible = decimal.Min(owed, headroom)
		}

		if convertible.IsPositive() {
			AddLOPDays(emp, convertible, fmt.Sprintf("auto-conversion of negative %s balance", t), "", asOf)
		}
		if convertible.LessThan(owed) {
			failure = &AccrualFailure{
				EmployeeID: emp.ID,
				Reason: fmt.Sprintf("LOP cap reached: %s of %s negative %s days not converted",
					owed.Sub(convertible), owed, t),
			}
		}
	}

	return failure
}

// ProratedBalances initializes a new joiner's buckets: each quota
// scaled by the months remaining in the year (joining month included),
// rounded to one decimal place.
func ProratedBalances(et EmploymentType, joining time.Time, cfg PolicyConfig) Balances {
	quota := cfg.QuotaFor(et)
	monthsLeft := decimal.NewFromInt(int64(13 - int(joining.Month())))
	twelve := decimal.NewFromInt(12)

	var b Balances
	for _, t := range AllTypes {
		if !t.Accrues() {
			continue
		}
		full, err := quota.Get(t)
		if err != nil {
			continue
		}
		b.Set(t, full.Mul(monthsLeft).Div(twelve).Round(1))
	}
	return b
}
