package leave_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// testNow is a Thursday morning, before the sick cutoff.
var testNow = time.Date(2026, time.August, 20, 9, 0, 0, 0, time.UTC)

func newTestEmployee() *leave.Employee {
	return &leave.Employee{
		ID:             "emp-1",
		Name:           "Asha",
		Role:           leave.RoleEmployee,
		EmploymentType: leave.EmploymentRegular,
		JoiningDate:    date(2024, time.March, 1),
		Balances: leave.Balances{
			Sick: d(12), Casual: d(12), Vacation: d(15), Academic: d(10), CompOff: d(10),
		},
		Active: true,
	}
}

func newTestCalendar() *calendar.Calendar {
	return calendar.New(calendar.DefaultWeekend(), nil)
}

func draft(t leave.LeaveType, start, end time.Time) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:         "req-1",
		EmployeeID: "emp-1",
		Type:       t,
		StartDate:  start,
		EndDate:    end,
		Status:     leave.StatusPending,
		Reason:     "personal",
		CreatedAt:  testNow,
	}
}

func validate(emp *leave.Employee, req *leave.LeaveRequest, existing ...*leave.LeaveRequest) *leave.ValidationError {
	return leave.Validate(emp, req, leave.DefaultPolicy(), newTestCalendar(), existing, testNow)
}

// =============================================================================
// DATE SANITY
// =============================================================================

func TestValidate_UnknownType(t *testing.T) {
	emp := newTestEmployee()
	req := draft(leave.LeaveType("sabbatical"), date(2026, time.September, 7), date(2026, time.September, 7))

	verr := validate(emp, req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeInvalidType, verr.Code)
}

func TestValidate_EndBeforeStart(t *testing.T) {
	emp := newTestEmployee()
	req := draft(leave.TypeSick, date(2026, time.September, 11), date(2026, time.September, 7))

	verr := validate(emp, req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeInvalidDates, verr.Code)
}

// =============================================================================
// OVERLAP
// =============================================================================

func TestValidate_OverlapWithApprovedRequest(t *testing.T) {
	// GIVEN: An approved vacation Sep 7-11
	// WHEN: Applying for sick leave Sep 10-14
	// THEN: Rejected as overlapping

	emp := newTestEmployee()
	approved := draft(leave.TypeVacation, date(2026, time.September, 7), date(2026, time.September, 11))
	approved.ID = "req-0"
	approved.Status = leave.StatusApproved

	req := draft(leave.TypeSick, date(2026, time.September, 10), date(2026, time.September, 14))

	verr := validate(emp, req, approved)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeOverlap, verr.Code)
}

func TestValidate_RejectedRequestDoesNotBlock(t *testing.T) {
	// GIVEN: A rejected request over the same dates
	// WHEN: Applying again
	// THEN: Admissible

	emp := newTestEmployee()
	rejected := draft(leave.TypeSick, date(2026, time.September, 7), date(2026, time.September, 8))
	rejected.ID = "req-0"
	rejected.Status = leave.StatusRejected

	req := draft(leave.TypeSick, date(2026, time.September, 7), date(2026, time.September, 8))

	assert.Nil(t, validate(emp, req, rejected))
}

func TestValidate_AdjacentSpansDoNotOverlap(t *testing.T) {
	emp := newTestEmployee()
	existing := draft(leave.TypeSick, date(2026, time.September, 7), date(2026, time.September, 8))
	existing.ID = "req-0"

	req := draft(leave.TypeSick, date(2026, time.September, 9), date(2026, time.September, 10))
	assert.Nil(t, validate(emp, req, existing))
}

// =============================================================================
// NON-WORKING START
// =============================================================================

func TestValidate_WeekendStartRejected(t *testing.T) {
	// GIVEN: Sep 5, 2026 is a Saturday
	// WHEN: Applying for sick leave starting that day
	// THEN: Rejected

	emp := newTestEmployee()
	req := draft(leave.TypeSick, date(2026, time.September, 5), date(2026, time.September, 8))

	verr := validate(emp, req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeNonWorkingStart, verr.Code)
}

func TestValidate_HolidayStartRejected(t *testing.T) {
	emp := newTestEmployee()
	cal := calendar.New(calendar.DefaultWeekend(), []calendar.Holiday{
		{Date: date(2026, time.September, 7), Name: "Founders Day"},
	})
	req := draft(leave.TypeSick, date(2026, time.September, 7), date(2026, time.September, 8))

	verr := leave.Validate(emp, req, leave.DefaultPolicy(), cal, nil, testNow)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeNonWorkingStart, verr.Code)
}

func TestValidate_WFHMayStartOnWeekend(t *testing.T) {
	emp := newTestEmployee()
	req := draft(leave.TypeWFH, date(2026, time.September, 5), date(2026, time.September, 5))
	req.IsHalfDay = false

	// A weekend-only WFH span still has zero working days, so extend to Monday.
	req.EndDate = date(2026, time.September, 7)
	assert.Nil(t, validate(emp, req))
}

// =============================================================================
// ADVANCE NOTICE AND SICK CUTOFF
// =============================================================================

func TestValidate_CasualNoticeTooShort(t *testing.T) {
	// GIVEN: Casual leave requires 3 days notice
	// WHEN: Applying today for tomorrow
	// THEN: Rejected

	emp := newTestEmployee()
	req := draft(leave.TypeCasual, date(2026, time.August, 21), date(2026, time.August, 21))

	verr := validate(emp, req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeAdvanceNotice, verr.Code)
}

func TestValidate_SickNeedsNoNotice(t *testing.T) {
	emp := newTestEmployee()
	req := draft(leave.TypeSick, date(2026, time.August, 21), date(2026, time.August, 21))
	assert.Nil(t, validate(emp, req))
}

func TestValidate_SameDaySickBeforeCutoff(t *testing.T) {
	// GIVEN: The cutoff is 10:00 and it is 09:00
	// WHEN: Applying for sick leave starting today
	// THEN: Admissible

	emp := newTestEmployee()
	req := draft(leave.TypeSick, date(2026, time.August, 20), date(2026, time.August, 20))
	assert.Nil(t, validate(emp, req))
}

func TestValidate_SameDaySickAfterCutoff(t *testing.T) {
	emp := newTestEmployee()
	req := draft(leave.TypeSick, date(2026, time.August, 20), date(2026, time.August, 20))

	late := time.Date(2026, time.August, 20, 11, 30, 0, 0, time.UTC)
	verr := leave.Validate(emp, req, leave.DefaultPolicy(), newTestCalendar(), nil, late)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeSickCutoff, verr.Code)
}

func TestValidate_SameDaySickMalformedCutoffRejects(t *testing.T) {
	// GIVEN: A hand-built config whose cutoff is not an HH:MM time
	// WHEN: Applying for same-day sick leave
	// THEN: Rejected, never waved through with the rule disabled

	emp := newTestEmployee()
	req := draft(leave.TypeSick, date(2026, time.August, 20), date(2026, time.August, 20))

	cfg := leave.DefaultPolicy()
	cfg.Settings.SickSameDayCutoff = "ten o'clock"

	verr := leave.Validate(emp, req, cfg, newTestCalendar(), nil, testNow)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeSickCutoff, verr.Code)
}

// =============================================================================
// ACADEMIC LEAVE
// =============================================================================

func academicDraft() *leave.LeaveRequest {
	req := draft(leave.TypeAcademic, date(2026, time.September, 7), date(2026, time.September, 9))
	req.Reason = "certification exam preparation week"
	req.Documents = []string{"exam-registration.pdf"}
	return req
}

func TestValidate_AcademicAdmissible(t *testing.T) {
	assert.Nil(t, validate(newTestEmployee(), academicDraft()))
}

func TestValidate_AcademicRequiresDocuments(t *testing.T) {
	req := academicDraft()
	req.Documents = nil

	verr := validate(newTestEmployee(), req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeMissingDocuments, verr.Code)
}

func TestValidate_AcademicTooManyDocuments(t *testing.T) {
	req := academicDraft()
	req.Documents = []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"}

	verr := validate(newTestEmployee(), req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeExcessDocuments, verr.Code)
}

func TestValidate_AcademicSpanTooLong(t *testing.T) {
	req := academicDraft()
	req.EndDate = date(2026, time.September, 25) // 19 calendar days, max 10

	verr := validate(newTestEmployee(), req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeSpanTooLong, verr.Code)
}

func TestValidate_AcademicReasonTooShort(t *testing.T) {
	req := academicDraft()
	req.Reason = "exam"

	verr := validate(newTestEmployee(), req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeReasonTooShort, verr.Code)
}

func TestValidate_AcademicNoticeTooShort(t *testing.T) {
	// GIVEN: Academic leave requires 7 days notice
	// WHEN: Applying 4 days ahead
	// THEN: Rejected

	req := academicDraft()
	req.StartDate = date(2026, time.August, 24)
	req.EndDate = date(2026, time.August, 25)

	verr := validate(newTestEmployee(), req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeAdvanceNotice, verr.Code)
}

// =============================================================================
// WORKING DAYS AND LOP AFFORDABILITY
// =============================================================================

func TestValidate_ZeroWorkingDays(t *testing.T) {
	// GIVEN: A WFH span entirely on a weekend
	// WHEN: Validating
	// THEN: Rejected, zero working days

	emp := newTestEmployee()
	req := draft(leave.TypeWFH, date(2026, time.September, 5), date(2026, time.September, 6))

	verr := validate(emp, req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeZeroWorkingDays, verr.Code)
}

func TestValidate_FillsWorkingDays(t *testing.T) {
	emp := newTestEmployee()
	req := draft(leave.TypeSick, date(2026, time.September, 7), date(2026, time.September, 11))

	require.Nil(t, validate(emp, req))
	assert.Equal(t, "5", req.WorkingDays.String())
	assert.True(t, req.LOPDaysAttributed.IsZero())
}

func TestValidate_ShortfallBecomesProvisionalLOP(t *testing.T) {
	// GIVEN: 2 casual days left
	// WHEN: Requesting 5 working days of casual leave
	// THEN: Admissible with 3 provisional LOP days

	emp := newTestEmployee()
	emp.Balances.Casual = d(2)
	req := draft(leave.TypeCasual, date(2026, time.September, 7), date(2026, time.September, 11))

	require.Nil(t, validate(emp, req))
	assert.Equal(t, "3", req.LOPDaysAttributed.String())
}

func TestValidate_ShortfallOverMonthlyCapRejected(t *testing.T) {
	// GIVEN: Zero casual balance and a 3/month LOP cap
	// WHEN: Requesting 5 working days of casual leave
	// THEN: Rejected, 5 LOP days exceed the monthly cap

	emp := newTestEmployee()
	emp.Balances.Casual = d(0)
	req := draft(leave.TypeCasual, date(2026, time.September, 7), date(2026, time.September, 11))

	verr := validate(emp, req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeLOPCapExceeded, verr.Code)
}

func TestValidate_ShortfallAllowedWhenRestrictionOff(t *testing.T) {
	emp := newTestEmployee()
	emp.Balances.Casual = d(0)
	req := draft(leave.TypeCasual, date(2026, time.September, 7), date(2026, time.September, 11))

	cfg := leave.DefaultPolicy()
	cfg.Settings.RestrictLeaveAfterMaxLOP = false

	require.Nil(t, leave.Validate(emp, req, cfg, newTestCalendar(), nil, testNow))
	assert.Equal(t, "5", req.LOPDaysAttributed.String())
}

func TestValidate_DirectLOPAttributesFullSpan(t *testing.T) {
	// GIVEN: An explicit unpaid leave request for 2 working days
	// WHEN: Validating
	// THEN: The whole span is provisional LOP

	emp := newTestEmployee()
	req := draft(leave.TypeLOP, date(2026, time.September, 7), date(2026, time.September, 8))

	require.Nil(t, validate(emp, req))
	assert.Equal(t, "2", req.LOPDaysAttributed.String())
}

func TestValidate_YearlyCapCountsPriorConversions(t *testing.T) {
	// GIVEN: 9 yearly LOP days already accumulated this year
	// WHEN: A request would convert 2 more
	// THEN: Rejected against the 10-day yearly cap

	emp := newTestEmployee()
	emp.Balances.Casual = d(0)
	emp.LOP.YearlyLOP = d(9)
	emp.LOP.LastResetDate = testNow
	req := draft(leave.TypeCasual, date(2026, time.September, 7), date(2026, time.September, 8))

	verr := validate(emp, req)
	require.NotNil(t, verr)
	assert.Equal(t, leave.CodeLOPCapExceeded, verr.Code)
}
