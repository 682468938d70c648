package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// MONTHLY ACCRUAL TESTS
// =============================================================================

func TestAccrueEmployee_MonthlyRates(t *testing.T) {
	// GIVEN: Regular rates sick 1 / casual 1 / vacation 1.25
	// WHEN: Running a March step
	// THEN: Each bucket is credited and rounded to one decimal place

	emp := newTestEmployee()
	emp.Balances = leave.Balances{Sick: d(5), Casual: d(5), Vacation: d(5)}

	credited, failure := leave.AccrueEmployee(emp, leave.DefaultPolicy(), date(2026, time.March, 1))

	assert.Nil(t, failure)
	assert.Equal(t, "3.25", credited.String())
	assert.Equal(t, "6", emp.Balances.Sick.String())
	assert.Equal(t, "6", emp.Balances.Casual.String())
	assert.Equal(t, "6.3", emp.Balances.Vacation.String())
}

func TestAccrueEmployee_InternRates(t *testing.T) {
	emp := newTestEmployee()
	emp.EmploymentType = leave.EmploymentIntern
	emp.Balances = leave.Balances{Sick: d(2), Casual: d(2)}

	credited, failure := leave.AccrueEmployee(emp, leave.DefaultPolicy(), date(2026, time.March, 1))

	assert.Nil(t, failure)
	assert.Equal(t, "1", credited.String())
	assert.Equal(t, "2.5", emp.Balances.Sick.String())
	assert.Equal(t, "2.5", emp.Balances.Casual.String())
	// Interns accrue no vacation.
	assert.True(t, emp.Balances.Vacation.IsZero())
}

func TestAccrueEmployee_CappedAtQuota(t *testing.T) {
	// GIVEN: Sick balance one credit short of the 12-day quota
	// WHEN: Accruing
	// THEN: The bucket caps at the quota instead of overflowing

	emp := newTestEmployee()
	emp.Balances = leave.Balances{Sick: d(11.8), Casual: d(3), Vacation: d(3)}

	_, failure := leave.AccrueEmployee(emp, leave.DefaultPolicy(), date(2026, time.March, 1))

	assert.Nil(t, failure)
	assert.Equal(t, "12", emp.Balances.Sick.String())
}

// =============================================================================
// CARRY-FORWARD TESTS
// =============================================================================

func TestAccrueEmployee_JanuaryCarryForward(t *testing.T) {
	// GIVEN: Year-end balances totalling 12 days against a 10-day cap
	// WHEN: Running the January step
	// THEN: 10 days carried, redistributed 40/30/30

	emp := newTestEmployee()
	emp.Balances = leave.Balances{Sick: d(4), Casual: d(4), Vacation: d(4)}

	credited, failure := leave.AccrueEmployee(emp, leave.DefaultPolicy(), date(2026, time.January, 1))

	assert.Nil(t, failure)
	assert.Equal(t, "10", credited.String())
	assert.Equal(t, "4", emp.Balances.Sick.String())
	assert.Equal(t, "3", emp.Balances.Casual.String())
	assert.Equal(t, "3", emp.Balances.Vacation.String())
	assert.Equal(t, "10", emp.CarryForwardDays.String())
}

func TestAccrueEmployee_CarryForwardUnderCap(t *testing.T) {
	emp := newTestEmployee()
	emp.Balances = leave.Balances{Sick: d(2), Casual: d(1), Vacation: d(2)}

	_, failure := leave.AccrueEmployee(emp, leave.DefaultPolicy(), date(2026, time.January, 1))

	assert.Nil(t, failure)
	assert.Equal(t, "2", emp.Balances.Sick.String())     // 5 * 0.4
	assert.Equal(t, "1.5", emp.Balances.Casual.String()) // 5 * 0.3
	assert.Equal(t, "1.5", emp.Balances.Vacation.String())
	assert.Equal(t, "5", emp.CarryForwardDays.String())
}

// =============================================================================
// NEGATIVE BALANCE CONVERSION TESTS
// =============================================================================

func TestAccrueEmployee_NegativeBucketConvertsToLOP(t *testing.T) {
	// GIVEN: A sick balance driven negative by an adjustment
	// WHEN: Accruing in March
	// THEN: The bucket zeroes through the credit and the remainder
	//       converts to LOP with a history entry

	emp := newTestEmployee()
	emp.Balances = leave.Balances{Sick: d(-3), Casual: d(3), Vacation: d(3)}
	emp.LOP.LastResetDate = date(2026, time.March, 1)

	_, failure := leave.AccrueEmployee(emp, leave.DefaultPolicy(), date(2026, time.March, 1))

	assert.Nil(t, failure)
	// -3 + 1 accrued = -2, zeroed with 2 days converted.
	assert.True(t, emp.Balances.Sick.IsZero())
	assert.Equal(t, "2", emp.Balances.LOP.String())
	assert.Equal(t, "2", emp.LOP.YearlyLOP.String())
	require.Len(t, emp.LOP.History, 1)
	assert.Contains(t, emp.LOP.History[0].Reason, "sick")
}

func TestAccrueEmployee_ConversionPartialWhenCapped(t *testing.T) {
	// GIVEN: 9 yearly LOP days against a 10-day cap and a 3-day shortfall
	// WHEN: Accruing
	// THEN: 1 day converts, the 2-day remainder is reported as a failure

	emp := newTestEmployee()
	emp.Balances = leave.Balances{Sick: d(-4), Casual: d(3), Vacation: d(3)}
	emp.LOP.YearlyLOP = d(9)
	emp.LOP.LastResetDate = date(2026, time.March, 1)

	_, failure := leave.AccrueEmployee(emp, leave.DefaultPolicy(), date(2026, time.March, 1))

	require.NotNil(t, failure)
	assert.Equal(t, emp.ID, failure.EmployeeID)
	assert.True(t, emp.Balances.Sick.IsZero())
	assert.Equal(t, "10", emp.LOP.YearlyLOP.String())
	assert.Equal(t, "1", emp.Balances.LOP.String())
}

// =============================================================================
// PRORATION TESTS
// =============================================================================

func TestProratedBalances_MidYearJoiner(t *testing.T) {
	// GIVEN: A regular employee joining in July
	// WHEN: Prorating
	// THEN: Each quota is scaled by 6/12

	b := leave.ProratedBalances(leave.EmploymentRegular, date(2026, time.July, 10), leave.DefaultPolicy())

	assert.Equal(t, "6", b.Sick.String())
	assert.Equal(t, "6", b.Casual.String())
	assert.Equal(t, "7.5", b.Vacation.String())
	assert.Equal(t, "5", b.Academic.String())
	assert.Equal(t, "5", b.CompOff.String())
}

func TestProratedBalances_JanuaryJoinerGetsFullQuota(t *testing.T) {
	b := leave.ProratedBalances(leave.EmploymentRegular, date(2026, time.January, 5), leave.DefaultPolicy())
	assert.Equal(t, "12", b.Sick.String())
	assert.Equal(t, "15", b.Vacation.String())
}

func TestProratedBalances_DecemberJoiner(t *testing.T) {
	b := leave.ProratedBalances(leave.EmploymentRegular, date(2026, time.December, 1), leave.DefaultPolicy())
	assert.Equal(t, "1", b.Sick.String())
	assert.Equal(t, "1.3", b.Vacation.String()) // 15/12 rounded
}

func TestJoinedInMonth(t *testing.T) {
	emp := newTestEmployee()
	emp.JoiningDate = date(2026, time.August, 3)

	assert.True(t, leave.JoinedInMonth(emp, date(2026, time.August, 31)))
	assert.False(t, leave.JoinedInMonth(emp, date(2026, time.September, 1)))
	assert.False(t, leave.JoinedInMonth(emp, date(2025, time.August, 15)))
}
