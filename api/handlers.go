/*
handlers.go - HTTP API handlers for the leave management system

PURPOSE:
  Exposes the leave core via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the leave service.

ENDPOINTS:
  Employees:
    POST   /api/employees               Register employee (prorated balances)
    GET    /api/employees/{id}          Get employee details
    GET    /api/employees/{id}/balance  Balance report
    GET    /api/employees/{id}/lop      LOP counters, caps, history
    GET    /api/employees/{id}/requests List leave requests (?status=...)
    POST   /api/employees/{id}/comp-off Credit earned comp-off days

  Requests:
    POST   /api/employees/{id}/requests Apply for leave
    POST   /api/requests/{id}/approve   Approve a pending request
    POST   /api/requests/{id}/reject    Reject a pending request
    POST   /api/requests/{id}/cancel    Cancel before start date

  Holidays:
    GET    /api/holidays?year=2026      List holidays
    POST   /api/holidays                Add or replace a holiday

  Admin:
    POST   /api/admin/accrual           Run the monthly accrual batch
    GET    /api/policy                  Effective policy snapshot

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, bad dates
  - 404: Employee or request not found
  - 409: Already processed, cancel after start, concurrent write
  - 422: Business rule rejected the application
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware. The actor is taken from the request
  body; an identity layer in front of this API owns authorization.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/service.go: The orchestration these delegate to
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/factory"
	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Store   leave.Store
	Config  leave.PolicyConfig
}

// NewHandler creates a new handler over the leave service.
func NewHandler(svc *leave.Service, store leave.Store, cfg leave.PolicyConfig) *Handler {
	return &Handler{Service: svc, Store: store, Config: cfg}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// CreateEmployee registers a new employee with prorated balances.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	joining, err := parseDate(req.JoiningDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid joining_date: want YYYY-MM-DD", err)
		return
	}

	emp, err := h.Service.RegisterEmployee(r.Context(), leave.RegisterInput{
		ID:             req.ID,
		Name:           req.Name,
		Role:           leave.Role(req.Role),
		EmploymentType: leave.EmploymentType(req.EmploymentType),
		JoiningDate:    joining,
		Department:     req.Department,
		ManagerID:      req.ManagerID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, employeeDTO(emp))
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employeeDTO(emp))
}

// GetBalance returns the employee's current balance report.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := h.Service.GetBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceReportDTO{
		EmployeeID:       id,
		Balances:         balancesDTO(report.Balances),
		CarryForwardDays: report.CarryForwardDays.String(),
	})
}

// GetLOPStatus returns LOP counters, caps, flags, and history.
func (h *Handler) GetLOPStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, err := h.Service.GetLOPStatus(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lopStatusDTO(id, status))
}

// ListRequests returns the employee's leave requests, optionally
// filtered by ?status=pending,approved.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var statuses []leave.RequestStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				statuses = append(statuses, leave.RequestStatus(s))
			}
		}
	}

	requests, err := h.Store.ListRequests(r.Context(), id, statuses...)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = requestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddCompOffCredit credits comp-off days earned for extra work.
func (h *Handler) AddCompOffCredit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CompOffCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	balances, err := h.Service.AddCompOffCredit(r.Context(), id, decimal.NewFromFloat(req.Days), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balancesDTO(balances))
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// ApplyLeave submits a leave application on behalf of an employee.
func (h *Handler) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ApplyLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date: want YYYY-MM-DD", err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date: want YYYY-MM-DD", err)
		return
	}

	created, err := h.Service.ApplyLeave(r.Context(), leave.ApplyInput{
		EmployeeID: id,
		Type:       leave.LeaveType(req.Type),
		StartDate:  start,
		EndDate:    end,
		IsHalfDay:  req.IsHalfDay,
		Reason:     req.Reason,
		Documents:  req.Documents,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, requestDTO(created))
}

// ApproveRequest approves a pending request.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, leave.DecisionApprove)
}

// RejectRequest rejects a pending request.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, leave.DecisionReject)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, decision leave.Decision) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required", nil)
		return
	}

	updated, err := h.Service.TransitionStatus(r.Context(), id, decision, req.ActorID, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requestDTO(updated))
}

// CancelRequest cancels a pending or approved request before its start
// date, restoring any deducted balance.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ActorID == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required", nil)
		return
	}

	updated, err := h.Service.Cancel(r.Context(), id, req.ActorID, req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requestDTO(updated))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays for ?year= (default: current year).
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year", err)
			return
		}
		year = y
	}

	holidays, err := h.Store.ListHolidays(r.Context(), year)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = holidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds or replaces a holiday. The working calendar picks
// it up on the next service restart; requests already validated keep
// their computed working days.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: want YYYY-MM-DD", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	hol := calendar.Holiday{Date: date, Name: req.Name, Type: req.Type}
	if err := h.Store.SaveHoliday(r.Context(), hol); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, holidayDTO(hol))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunAccrual triggers the monthly accrual batch.
func (h *Handler) RunAccrual(w http.ResponseWriter, r *http.Request) {
	// The body is optional: an empty POST runs for today.
	var req AccrualRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	asOf := time.Now()
	if req.AsOf != "" {
		t, err := parseDate(req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of: want YYYY-MM-DD", err)
			return
		}
		asOf = t
	}

	summary, err := h.Service.RunAccrual(r.Context(), asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Accrual run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, accrualSummaryDTO(summary))
}

// GetPolicy returns the effective policy snapshot.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToJSON(h.Config))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the leave core's error taxonomy onto HTTP.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *leave.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error: verr.Message,
			Code:  string(verr.Code),
		})
		return
	}

	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, leave.ErrAlreadyProcessed),
		errors.Is(err, leave.ErrCancelAfterStart),
		errors.Is(err, leave.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "Conflict", err)
	case errors.Is(err, leave.ErrEmployeeInactive):
		writeError(w, http.StatusForbidden, "Employee is deactivated", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
