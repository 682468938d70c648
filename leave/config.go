/*
config.go - Policy configuration snapshot

PURPOSE:
  PolicyConfig carries every tunable the core needs: annual quotas and
  monthly accrual rates per employment type, and the system settings
  that drive validation, LOP caps, and carry-forward.

SNAPSHOT SEMANTICS:
  A PolicyConfig is an immutable value injected per operation. The core
  never holds a mutable global; validation and accrual are pure
  functions of (employee, request, snapshot). Reload-and-replace is the
  caller's job.

DEFAULTS:
  DefaultPolicy() returns a working configuration mirroring common HR
  practice (12 sick / 12 casual / 15 vacation for regular employees,
  LOP capped at 10/year and 3/month, 10-day carry-forward cap).

SEE ALSO:
  - factory/policy.go: JSON to PolicyConfig conversion
  - validate.go, lop.go, accrual.go: Consumers of these settings
*/
package leave

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICY CONFIG
// =============================================================================

// ResetPeriod selects how often the yearly LOP counter resets.
type ResetPeriod string

const (
	ResetMonthly ResetPeriod = "monthly"
	ResetYearly  ResetPeriod = "yearly"
)

// PolicyConfig is the full policy snapshot. Read-only to the core.
type PolicyConfig struct {
	// LeaveQuotas caps each bucket per employment type (annual).
	LeaveQuotas map[EmploymentType]Balances

	// AccrualRates is the monthly credit per employment type.
	AccrualRates map[EmploymentType]Balances

	Settings SystemSettings
}

// SystemSettings are the cross-cutting policy knobs.
type SystemSettings struct {
	MaxLOPDaysYearly   decimal.Decimal
	MaxLOPDaysPerMonth decimal.Decimal
	CarryForwardCap    decimal.Decimal

	// AdvanceNoticeDays is the minimum calendar-day lead time per leave
	// type. Types without an entry have no general notice rule.
	// Academic leave uses its own rule in AcademicLeaveSettings instead.
	AdvanceNoticeDays map[LeaveType]int

	// SickSameDayCutoff is the local wall-clock deadline ("15:04") for
	// submitting a sick leave that starts today.
	SickSameDayCutoff string

	LOPResetPeriod           ResetPeriod
	RestrictLeaveAfterMaxLOP bool

	Academic AcademicLeaveSettings
}

// AcademicLeaveSettings gate academic leave applications.
type AcademicLeaveSettings struct {
	RequireDocuments     bool
	MaxDocuments         int
	MinAdvanceNoticeDays int
	MaxConsecutiveDays   int
	MinReasonLength      int
}

// QuotaFor returns the annual quota bucket set for an employment type.
func (c PolicyConfig) QuotaFor(et EmploymentType) Balances {
	return c.LeaveQuotas[et]
}

// AccrualFor returns the monthly accrual rates for an employment type.
func (c PolicyConfig) AccrualFor(et EmploymentType) Balances {
	return c.AccrualRates[et]
}

// =============================================================================
// DEFAULT POLICY
// =============================================================================

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// DefaultPolicy returns a complete, sane configuration. Deployments
// typically load a JSON policy via the factory package instead.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		LeaveQuotas: map[EmploymentType]Balances{
			EmploymentRegular: {Sick: d(12), Casual: d(12), Vacation: d(15), Academic: d(10), CompOff: d(10)},
			EmploymentIntern:  {Sick: d(6), Casual: d(6), Vacation: d(0), Academic: d(15), CompOff: d(5)},
		},
		AccrualRates: map[EmploymentType]Balances{
			EmploymentRegular: {Sick: d(1), Casual: d(1), Vacation: d(1.25)},
			EmploymentIntern:  {Sick: d(0.5), Casual: d(0.5)},
		},
		Settings: SystemSettings{
			MaxLOPDaysYearly:   d(10),
			MaxLOPDaysPerMonth: d(3),
			CarryForwardCap:    d(10),
			AdvanceNoticeDays: map[LeaveType]int{
				TypeCasual:   3,
				TypeVacation: 7,
			},
			SickSameDayCutoff:        "10:00",
			LOPResetPeriod:           ResetYearly,
			RestrictLeaveAfterMaxLOP: true,
			Academic: AcademicLeaveSettings{
				RequireDocuments:     true,
				MaxDocuments:         3,
				MinAdvanceNoticeDays: 7,
				MaxConsecutiveDays:   10,
				MinReasonLength:      20,
			},
		},
	}
}
