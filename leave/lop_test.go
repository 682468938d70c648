package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// COUNTER TESTS
// =============================================================================

func TestAddLOPDays_IncrementsCountersAndHistory(t *testing.T) {
	emp := newTestEmployee()

	leave.AddLOPDays(emp, d(2), "insufficient casual balance", "req-1", testNow)
	leave.AddLOPDays(emp, d(1), "unpaid leave approved", "req-2", testNow)

	assert.Equal(t, "3", emp.LOP.YearlyLOP.String())
	assert.Equal(t, "3", emp.LOP.MonthlyLOP.String())
	assert.Equal(t, "3", emp.Balances.LOP.String())
	require.Len(t, emp.LOP.History, 2)
	assert.Equal(t, "req-1", emp.LOP.History[0].LeaveRequestID)
}

func TestAddLOPDays_IgnoresNonPositive(t *testing.T) {
	emp := newTestEmployee()

	leave.AddLOPDays(emp, d(0), "noop", "", testNow)
	leave.AddLOPDays(emp, d(-1), "noop", "", testNow)

	assert.True(t, emp.LOP.YearlyLOP.IsZero())
	assert.Empty(t, emp.LOP.History)
}

func TestReverseLOPDays_FlooredAtZero(t *testing.T) {
	// GIVEN: 1 accumulated LOP day
	// WHEN: Reversing 3 (stale double-cancel defense)
	// THEN: Counters floor at zero, trail records the reversal

	emp := newTestEmployee()
	leave.AddLOPDays(emp, d(1), "insufficient sick balance", "req-1", testNow)

	leave.ReverseLOPDays(emp, d(3), "leave cancelled", "req-1", testNow)

	assert.True(t, emp.LOP.YearlyLOP.IsZero())
	assert.True(t, emp.LOP.MonthlyLOP.IsZero())
	assert.True(t, emp.Balances.LOP.IsZero())
	require.Len(t, emp.LOP.History, 2)
	assert.Equal(t, "-3", emp.LOP.History[1].Days.String())
}

// =============================================================================
// LAZY RESET TESTS
// =============================================================================

func TestCheckLimits_MonthBoundaryResetsMonthlyOnly(t *testing.T) {
	// GIVEN: Counters last reset in July, yearly reset period
	// WHEN: Checking in August of the same year
	// THEN: Monthly resets, yearly survives

	emp := newTestEmployee()
	emp.LOP.YearlyLOP = d(6)
	emp.LOP.MonthlyLOP = d(2)
	emp.LOP.LastResetDate = date(2026, time.July, 15)

	status := leave.CheckLimits(emp, leave.DefaultPolicy(), testNow)

	assert.Equal(t, "6", status.YearlyLOP.String())
	assert.True(t, status.MonthlyLOP.IsZero())
	assert.Equal(t, testNow, emp.LOP.LastResetDate)
}

func TestCheckLimits_YearBoundaryResetsBoth(t *testing.T) {
	emp := newTestEmployee()
	emp.LOP.YearlyLOP = d(9)
	emp.LOP.MonthlyLOP = d(2)
	emp.LOP.LastResetDate = date(2025, time.December, 15)

	status := leave.CheckLimits(emp, leave.DefaultPolicy(), testNow)

	assert.True(t, status.YearlyLOP.IsZero())
	assert.True(t, status.MonthlyLOP.IsZero())
}

func TestCheckLimits_MonthlyResetPeriodClearsYearlyEachMonth(t *testing.T) {
	emp := newTestEmployee()
	emp.LOP.YearlyLOP = d(6)
	emp.LOP.MonthlyLOP = d(2)
	emp.LOP.LastResetDate = date(2026, time.July, 15)

	cfg := leave.DefaultPolicy()
	cfg.Settings.LOPResetPeriod = leave.ResetMonthly

	status := leave.CheckLimits(emp, cfg, testNow)

	assert.True(t, status.YearlyLOP.IsZero())
	assert.True(t, status.MonthlyLOP.IsZero())
}

func TestCheckLimits_SameMonthNoReset(t *testing.T) {
	emp := newTestEmployee()
	emp.LOP.YearlyLOP = d(4)
	emp.LOP.MonthlyLOP = d(2)
	emp.LOP.LastResetDate = date(2026, time.August, 2)

	status := leave.CheckLimits(emp, leave.DefaultPolicy(), testNow)

	assert.Equal(t, "4", status.YearlyLOP.String())
	assert.Equal(t, "2", status.MonthlyLOP.String())
}

func TestCheckLimits_ZeroResetDateInitializes(t *testing.T) {
	// GIVEN: A fresh employee with no reset date
	// WHEN: Checking limits
	// THEN: The reset date is stamped, counters untouched

	emp := newTestEmployee()
	emp.LOP.YearlyLOP = d(1)

	status := leave.CheckLimits(emp, leave.DefaultPolicy(), testNow)

	assert.Equal(t, "1", status.YearlyLOP.String())
	assert.Equal(t, testNow, emp.LOP.LastResetDate)
}

// =============================================================================
// THRESHOLD TESTS
// =============================================================================

func TestCheckLimits_Flags(t *testing.T) {
	cfg := leave.DefaultPolicy() // caps: 10 yearly, 3 monthly

	cases := []struct {
		name          string
		yearly        float64
		monthly       float64
		atYearly      bool
		atMonthly     bool
		nearThreshold bool
	}{
		{"far from caps", 2, 0, false, false, false},
		{"within 2 of yearly cap", 8, 0, false, false, true},
		{"at yearly cap", 10, 0, true, false, true},
		{"within 2 of monthly cap", 0, 1, false, false, true},
		{"at monthly cap", 0, 3, false, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			emp := newTestEmployee()
			emp.LOP.YearlyLOP = d(tc.yearly)
			emp.LOP.MonthlyLOP = d(tc.monthly)
			emp.LOP.LastResetDate = testNow

			status := leave.CheckLimits(emp, cfg, testNow)

			assert.Equal(t, tc.atYearly, status.AtYearlyLimit)
			assert.Equal(t, tc.atMonthly, status.AtMonthlyLimit)
			assert.Equal(t, tc.nearThreshold, status.NearThreshold)
		})
	}
}
