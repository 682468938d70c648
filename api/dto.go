/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  Dates cross the wire as "2006-01-02" strings; timestamps as RFC3339.
  Day quantities are strings to preserve decimal precision ("1.5").

VALIDATION:
  Validation is done in handlers and the leave core, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: The domain model these project
*/
package api

import (
	"time"

	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Role             string      `json:"role"`
	EmploymentType   string      `json:"employment_type"`
	JoiningDate      string      `json:"joining_date"`
	Department       string      `json:"department,omitempty"`
	ManagerID        string      `json:"manager_id,omitempty"`
	Balances         BalancesDTO `json:"balances"`
	CarryForwardDays string      `json:"carry_forward_days"`
	Active           bool        `json:"active"`
}

// CreateEmployeeRequest is the request to register an employee.
type CreateEmployeeRequest struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	EmploymentType string `json:"employment_type"`
	JoiningDate    string `json:"joining_date"`
	Department     string `json:"department,omitempty"`
	ManagerID      string `json:"manager_id,omitempty"`
}

// BalancesDTO carries per-type day amounts as decimal strings.
type BalancesDTO struct {
	Sick     string `json:"sick"`
	Casual   string `json:"casual"`
	Vacation string `json:"vacation"`
	Academic string `json:"academic"`
	CompOff  string `json:"comp_off"`
	LOP      string `json:"lop"`
}

// BalanceReportDTO is the response for the balance endpoint.
type BalanceReportDTO struct {
	EmployeeID       string      `json:"employee_id"`
	Balances         BalancesDTO `json:"balances"`
	CarryForwardDays string      `json:"carry_forward_days"`
}

// CompOffCreditRequest credits earned comp-off days.
type CompOffCreditRequest struct {
	Days   float64 `json:"days"`
	Reason string  `json:"reason"`
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

// ApplyLeaveRequest is the request body to apply for leave.
type ApplyLeaveRequest struct {
	Type      string   `json:"type"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	IsHalfDay bool     `json:"is_half_day,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Documents []string `json:"documents,omitempty"`
}

// DecisionRequest carries the actor and optional reason for a
// transition (approve/reject/cancel).
type DecisionRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID                 string   `json:"id"`
	EmployeeID         string   `json:"employee_id"`
	Type               string   `json:"type"`
	StartDate          string   `json:"start_date"`
	EndDate            string   `json:"end_date"`
	IsHalfDay          bool     `json:"is_half_day"`
	Reason             string   `json:"reason,omitempty"`
	Status             string   `json:"status"`
	WorkingDays        string   `json:"working_days"`
	LOPDaysAttributed  string   `json:"lop_days_attributed"`
	Documents          []string `json:"documents,omitempty"`
	ApprovedBy         string   `json:"approved_by,omitempty"`
	ApprovedAt         string   `json:"approved_at,omitempty"`
	RejectedBy         string   `json:"rejected_by,omitempty"`
	RejectedAt         string   `json:"rejected_at,omitempty"`
	RejectionReason    string   `json:"rejection_reason,omitempty"`
	CancelledBy        string   `json:"cancelled_by,omitempty"`
	CancelledAt        string   `json:"cancelled_at,omitempty"`
	CancellationReason string   `json:"cancellation_reason,omitempty"`
	CreatedAt          string   `json:"created_at"`
}

// =============================================================================
// LOP
// =============================================================================

// LOPStatusDTO reports counters, caps, and threshold flags.
type LOPStatusDTO struct {
	EmployeeID     string        `json:"employee_id"`
	YearlyLOP      string        `json:"yearly_lop"`
	MonthlyLOP     string        `json:"monthly_lop"`
	MaxYearly      string        `json:"max_yearly"`
	MaxMonthly     string        `json:"max_monthly"`
	AtYearlyLimit  bool          `json:"at_yearly_limit"`
	AtMonthlyLimit bool          `json:"at_monthly_limit"`
	NearThreshold  bool          `json:"near_threshold"`
	History        []LOPEntryDTO `json:"history,omitempty"`
}

// LOPEntryDTO is one history line. Negative days mean restoration.
type LOPEntryDTO struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Days           string `json:"days"`
	Reason         string `json:"reason,omitempty"`
	LeaveRequestID string `json:"leave_request_id,omitempty"`
}

// =============================================================================
// HOLIDAYS AND ACCRUAL
// =============================================================================

// HolidayDTO represents a company holiday.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// AccrualRunRequest triggers an accrual batch for a month.
type AccrualRunRequest struct {
	AsOf string `json:"as_of,omitempty"` // "2006-01-02", defaults to today
}

// AccrualSummaryDTO is the batch run result.
type AccrualSummaryDTO struct {
	AsOf               string              `json:"as_of"`
	EmployeesProcessed int                 `json:"employees_processed"`
	EmployeesSkipped   int                 `json:"employees_skipped"`
	TotalCredited      string              `json:"total_credited"`
	CarryForwardRuns   int                 `json:"carry_forward_runs"`
	Failures           []AccrualFailureDTO `json:"failures,omitempty"`
	StartedAt          string              `json:"started_at"`
	CompletedAt        string              `json:"completed_at"`
}

// AccrualFailureDTO is one employee the batch could not fully process.
type AccrualFailureDTO struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func balancesDTO(b leave.Balances) BalancesDTO {
	return BalancesDTO{
		Sick:     b.Sick.String(),
		Casual:   b.Casual.String(),
		Vacation: b.Vacation.String(),
		Academic: b.Academic.String(),
		CompOff:  b.CompOff.String(),
		LOP:      b.LOP.String(),
	}
}

func employeeDTO(e *leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:               e.ID,
		Name:             e.Name,
		Role:             string(e.Role),
		EmploymentType:   string(e.EmploymentType),
		JoiningDate:      e.JoiningDate.Format("2006-01-02"),
		Department:       e.Department,
		ManagerID:        e.ManagerID,
		Balances:         balancesDTO(e.Balances),
		CarryForwardDays: e.CarryForwardDays.String(),
		Active:           e.Active,
	}
}

func requestDTO(r *leave.LeaveRequest) LeaveRequestDTO {
	return LeaveRequestDTO{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		Type:               string(r.Type),
		StartDate:          r.StartDate.Format("2006-01-02"),
		EndDate:            r.EndDate.Format("2006-01-02"),
		IsHalfDay:          r.IsHalfDay,
		Reason:             r.Reason,
		Status:             string(r.Status),
		WorkingDays:        r.WorkingDays.String(),
		LOPDaysAttributed:  r.LOPDaysAttributed.String(),
		Documents:          r.Documents,
		ApprovedBy:         r.ApprovedBy,
		ApprovedAt:         fmtTimePtr(r.ApprovedAt),
		RejectedBy:         r.RejectedBy,
		RejectedAt:         fmtTimePtr(r.RejectedAt),
		RejectionReason:    r.RejectionReason,
		CancelledBy:        r.CancelledBy,
		CancelledAt:        fmtTimePtr(r.CancelledAt),
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
}

func lopStatusDTO(employeeID string, s leave.LOPStatus) LOPStatusDTO {
	dto := LOPStatusDTO{
		EmployeeID:     employeeID,
		YearlyLOP:      s.YearlyLOP.String(),
		MonthlyLOP:     s.MonthlyLOP.String(),
		MaxYearly:      s.MaxYearly.String(),
		MaxMonthly:     s.MaxMonthly.String(),
		AtYearlyLimit:  s.AtYearlyLimit,
		AtMonthlyLimit: s.AtMonthlyLimit,
		NearThreshold:  s.NearThreshold,
	}
	for _, e := range s.History {
		dto.History = append(dto.History, LOPEntryDTO{
			ID:             e.ID,
			Date:           e.Date.Format("2006-01-02"),
			Days:           e.Days.String(),
			Reason:         e.Reason,
			LeaveRequestID: e.LeaveRequestID,
		})
	}
	return dto
}

func holidayDTO(h calendar.Holiday) HolidayDTO {
	return HolidayDTO{Date: h.Date.Format("2006-01-02"), Name: h.Name, Type: h.Type}
}

func accrualSummaryDTO(s leave.AccrualSummary) AccrualSummaryDTO {
	dto := AccrualSummaryDTO{
		AsOf:               s.AsOf.Format("2006-01-02"),
		EmployeesProcessed: s.EmployeesProcessed,
		EmployeesSkipped:   s.EmployeesSkipped,
		TotalCredited:      s.TotalCredited.String(),
		CarryForwardRuns:   s.CarryForwardRuns,
		StartedAt:          s.StartedAt.Format(time.RFC3339),
		CompletedAt:        s.CompletedAt.Format(time.RFC3339),
	}
	for _, f := range s.Failures {
		dto.Failures = append(dto.Failures, AccrualFailureDTO{EmployeeID: f.EmployeeID, Reason: f.Reason})
	}
	return dto
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
