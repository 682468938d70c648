package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// DEDUCTION TESTS
// =============================================================================

func approvedRequest(t leave.LeaveType, workingDays float64) *leave.LeaveRequest {
	req := draft(t, date(2026, time.September, 7), date(2026, time.September, 11))
	req.Status = leave.StatusApproved
	req.WorkingDays = d(workingDays)
	return req
}

func TestDeduct_SufficientBalance(t *testing.T) {
	// GIVEN: 12 sick days
	// WHEN: Deducting a 3-day sick leave
	// THEN: 9 remain, no LOP

	emp := newTestEmployee()
	req := approvedRequest(leave.TypeSick, 3)

	require.NoError(t, leave.Deduct(emp, req, testNow))

	assert.Equal(t, "9", emp.Balances.Sick.String())
	assert.True(t, emp.Balances.LOP.IsZero())
	assert.True(t, req.LOPDaysAttributed.IsZero())
	assert.True(t, req.BalanceDeducted)
	assert.Empty(t, emp.LOP.History)
}

func TestDeduct_ShortfallConvertsToLOP(t *testing.T) {
	// GIVEN: 2 casual days
	// WHEN: Deducting a 5-day casual leave
	// THEN: Bucket zeroed, 3 days attributed as LOP with history

	emp := newTestEmployee()
	emp.Balances.Casual = d(2)
	req := approvedRequest(leave.TypeCasual, 5)

	require.NoError(t, leave.Deduct(emp, req, testNow))

	assert.True(t, emp.Balances.Casual.IsZero())
	assert.Equal(t, "3", emp.Balances.LOP.String())
	assert.Equal(t, "3", req.LOPDaysAttributed.String())
	assert.Equal(t, "3", emp.LOP.YearlyLOP.String())
	assert.Equal(t, "3", emp.LOP.MonthlyLOP.String())

	require.Len(t, emp.LOP.History, 1)
	assert.Equal(t, req.ID, emp.LOP.History[0].LeaveRequestID)
	assert.Equal(t, "3", emp.LOP.History[0].Days.String())
}

func TestDeduct_DirectLOPConvertsEntireSpan(t *testing.T) {
	emp := newTestEmployee()
	req := approvedRequest(leave.TypeLOP, 2)

	require.NoError(t, leave.Deduct(emp, req, testNow))

	assert.Equal(t, "2", req.LOPDaysAttributed.String())
	assert.Equal(t, "2", emp.Balances.LOP.String())
	assert.Equal(t, "2", emp.LOP.YearlyLOP.String())
	assert.True(t, req.BalanceDeducted)
	// Paid buckets untouched.
	assert.Equal(t, "12", emp.Balances.Sick.String())
}

func TestDeduct_WFHTakesNothing(t *testing.T) {
	emp := newTestEmployee()
	req := approvedRequest(leave.TypeWFH, 5)

	require.NoError(t, leave.Deduct(emp, req, testNow))

	assert.False(t, req.BalanceDeducted)
	assert.Equal(t, "12", emp.Balances.Sick.String())
	assert.True(t, emp.Balances.LOP.IsZero())
}

// =============================================================================
// RESTORATION TESTS
// =============================================================================

func TestRestore_InvertsSimpleDeduction(t *testing.T) {
	// GIVEN: A deducted 3-day sick leave
	// WHEN: Restoring
	// THEN: The balance returns to its prior value

	emp := newTestEmployee()
	req := approvedRequest(leave.TypeSick, 3)
	require.NoError(t, leave.Deduct(emp, req, testNow))

	require.NoError(t, leave.Restore(emp, req, testNow))

	assert.Equal(t, "12", emp.Balances.Sick.String())
	assert.False(t, req.BalanceDeducted)
}

func TestRestore_LOPPortionFirst(t *testing.T) {
	// GIVEN: A 5-day casual leave deducted against 2 days of balance
	// WHEN: Restoring
	// THEN: 3 LOP days reversed, 2 days back in the bucket, trail kept

	emp := newTestEmployee()
	emp.Balances.Casual = d(2)
	req := approvedRequest(leave.TypeCasual, 5)
	require.NoError(t, leave.Deduct(emp, req, testNow))

	require.NoError(t, leave.Restore(emp, req, testNow))

	assert.Equal(t, "2", emp.Balances.Casual.String())
	assert.True(t, emp.Balances.LOP.IsZero())
	assert.True(t, emp.LOP.YearlyLOP.IsZero())
	assert.True(t, emp.LOP.MonthlyLOP.IsZero())

	// Append-only: conversion plus reversal, never a rewrite.
	require.Len(t, emp.LOP.History, 2)
	assert.Equal(t, "3", emp.LOP.History[0].Days.String())
	assert.Equal(t, "-3", emp.LOP.History[1].Days.String())
}

func TestRestore_DirectLOPLeavesBucketsAlone(t *testing.T) {
	emp := newTestEmployee()
	req := approvedRequest(leave.TypeLOP, 2)
	require.NoError(t, leave.Deduct(emp, req, testNow))

	require.NoError(t, leave.Restore(emp, req, testNow))

	assert.True(t, emp.Balances.LOP.IsZero())
	assert.Equal(t, "12", emp.Balances.Sick.String())
	assert.Equal(t, "12", emp.Balances.Casual.String())
}

func TestRestore_NoOpWithoutDeduction(t *testing.T) {
	emp := newTestEmployee()
	req := approvedRequest(leave.TypeSick, 3)

	require.NoError(t, leave.Restore(emp, req, testNow))
	assert.Equal(t, "12", emp.Balances.Sick.String())
}
