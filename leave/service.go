/*
service.go - The leave core's external interface

PURPOSE:
  Service is the single entry point collaborators drive: apply,
  approve/reject, cancel, balances, LOP status, comp-off credit, and
  the accrual batch. Collaborators (identity, persistence, documents,
  notification) inject their results as plain data; the core never
  calls out to them.

CONCURRENCY:
  - All mutations to one employee's balances and LOP counters happen
    under that employee's keyed mutex (deduct, restore, comp-off,
    accrual step). Two concurrent approvals, or an approval racing a
    cancellation, cannot interleave partial updates.
  - Request status transitions additionally go through the store's
    compare-and-set; the loser of a race observes ErrAlreadyProcessed.
  - Transitions with balance effects commit the request and the
    employee through the store's CommitTransition, so a storage
    failure can never leave an approved request whose deduction was
    not persisted (or a cancellation whose restoration was lost).
  - Approval re-validates LOP affordability at commit time, inside the
    lock, because state may have changed since validation.

EVENTS:
  Every successful transition emits (request, action) to the optional
  notifier hook. The hook runs synchronously; keep it cheap.

SEE ALSO:
  - validate.go, ledger.go, lop.go, accrual.go: The logic orchestrated here
  - store.go: Persistence contract
*/
package leave

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-ledger/calendar"
)

// =============================================================================
// EVENTS
// =============================================================================

// Action names what happened to a request.
type Action string

const (
	ActionApplied   Action = "applied"
	ActionApproved  Action = "approved"
	ActionRejected  Action = "rejected"
	ActionCancelled Action = "cancelled"
)

// Event carries the full updated request and the action taken. Suitable
// for a notification hook; no further format is mandated.
type Event struct {
	Request *LeaveRequest
	Action  Action
}

// Notifier receives transition events. Optional.
type Notifier func(Event)

// =============================================================================
// SERVICE
// =============================================================================

// Service wires the leave core together over a Store.
type Service struct {
	store    Store
	config   PolicyConfig
	calendar *calendar.Calendar
	notifier Notifier
	now      func() time.Time

	locks entityLocks
}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier installs a transition event hook.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the leave service. The PolicyConfig and Calendar
// are immutable snapshots; swap the Service to change policy.
func NewService(store Store, cfg PolicyConfig, cal *calendar.Calendar, opts ...Option) *Service {
	s := &Service{
		store:    store,
		config:   cfg,
		calendar: cal,
		now:      time.Now,
		locks:    entityLocks{m: make(map[string]*sync.Mutex)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) notify(e Event) {
	if s.notifier != nil {
		s.notifier(e)
	}
}

// =============================================================================
// APPLY
// =============================================================================

// ApplyInput is a candidate leave application.
type ApplyInput struct {
	EmployeeID string
	Type       LeaveType
	StartDate  time.Time
	EndDate    time.Time
	IsHalfDay  bool
	Reason     string
	Documents  []string
}

// ApplyLeave validates the application and persists a pending request
// (auto-approved for WFH). Returns the created request or the first
// failing rule's ValidationError.
func (s *Service) ApplyLeave(ctx context.Context, in ApplyInput) (*LeaveRequest, error) {
	unlock := s.locks.lock(in.EmployeeID)
	defer unlock()

	emp, err := s.store.GetEmployee(ctx, in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !emp.Active {
		return nil, ErrEmployeeInactive
	}

	existing, err := s.store.ListRequests(ctx, in.EmployeeID, StatusPending, StatusApproved)
	if err != nil {
		return nil, err
	}

	now := s.now()
	req := &LeaveRequest{
		ID:         uuid.NewString(),
		EmployeeID: in.EmployeeID,
		Type:       in.Type,
		StartDate:  calendar.DateOnly(in.StartDate),
		EndDate:    calendar.DateOnly(in.EndDate),
		IsHalfDay:  in.IsHalfDay,
		Reason:     in.Reason,
		Documents:  in.Documents,
		Status:     StatusPending,
		CreatedAt:  now,
	}

	if verr := Validate(emp, req, s.config, s.calendar, existing, now); verr != nil {
		return nil, verr
	}

	// WFH is auto-approved at creation and never deducts balance.
	if req.Type == TypeWFH {
		req.Status = StatusApproved
		req.ApprovedBy = in.EmployeeID
		req.ApprovedAt = &now
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.notify(Event{Request: req, Action: ActionApplied})
	if req.Status == StatusApproved {
		s.notify(Event{Request: req, Action: ActionApproved})
	}
	return req, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// TransitionStatus approves or rejects a pending request. The caller
// enforces who may transition; the core only records the actor.
func (s *Service) TransitionStatus(ctx context.Context, requestID string, decision Decision, actorID, reason string) (*LeaveRequest, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(req.EmployeeID)
	defer unlock()

	// Reload inside the lock; the compare-and-set below still decides.
	req, err = s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch decision {
	case DecisionApprove:
		return s.approve(ctx, req, actorID, now)
	case DecisionReject:
		if serr := markRejected(req, actorID, reason, now); serr != nil {
			return nil, serr
		}
		if err := s.store.SaveRequestIf(ctx, req, StatusPending); err != nil {
			return nil, s.wrapCASError(req, err)
		}
		s.notify(Event{Request: req, Action: ActionRejected})
		return req, nil
	default:
		return nil, &StateError{RequestID: requestID, Status: req.Status, Err: ErrAlreadyProcessed}
	}
}

func (s *Service) approve(ctx context.Context, req *LeaveRequest, actorID string, now time.Time) (*LeaveRequest, error) {
	if req.Status != StatusPending {
		return nil, &StateError{RequestID: req.ID, Status: req.Status, Err: ErrAlreadyProcessed}
	}

	emp, err := s.store.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}

	// Commit-time recheck: balances or counters may have moved since
	// validation (check-then-act race).
	if _, verr := lopShortfall(emp, req.Type, req.WorkingDays, s.config, now); verr != nil {
		return nil, verr
	}

	if serr := markApproved(req, actorID, now); serr != nil {
		return nil, serr
	}

	// WFH and other non-deducting types take no balance effect.
	var deductedFrom *Employee
	if req.Type.DeductsBalance() || req.Type == TypeLOP {
		if err := Deduct(emp, req, now); err != nil {
			return nil, err
		}
		deductedFrom = emp
	}

	// One atomic unit: the request claim and the deduction land
	// together or not at all.
	if err := s.store.CommitTransition(ctx, req, StatusPending, deductedFrom); err != nil {
		return nil, s.wrapCASError(req, err)
	}

	s.notify(Event{Request: req, Action: ActionApproved})
	return req, nil
}

// Cancel cancels a pending or approved request strictly before its
// start date, restoring balances if the approval had deducted them.
func (s *Service) Cancel(ctx context.Context, requestID, actorID, reason string) (*LeaveRequest, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(req.EmployeeID)
	defer unlock()

	req, err = s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	previous := req.Status
	wasDeducted := req.Status == StatusApproved && req.BalanceDeducted

	if serr := markCancelled(req, actorID, reason, now); serr != nil {
		return nil, serr
	}

	var emp *Employee
	if wasDeducted {
		emp, err = s.store.GetEmployee(ctx, req.EmployeeID)
		if err != nil {
			return nil, err
		}
		if err := Restore(emp, req, now); err != nil {
			return nil, err
		}
	}

	if err := s.store.CommitTransition(ctx, req, previous, emp); err != nil {
		return nil, s.wrapCASError(req, err)
	}

	s.notify(Event{Request: req, Action: ActionCancelled})
	return req, nil
}

func (s *Service) wrapCASError(req *LeaveRequest, err error) error {
	if errors.Is(err, ErrAlreadyProcessed) {
		return &StateError{RequestID: req.ID, Status: req.Status, Err: ErrAlreadyProcessed}
	}
	return err
}

// =============================================================================
// QUERIES AND CREDITS
// =============================================================================

// BalanceReport is the balance view returned to collaborators.
type BalanceReport struct {
	Balances         Balances
	CarryForwardDays decimal.Decimal
}

// GetBalance returns the employee's current balances.
func (s *Service) GetBalance(ctx context.Context, employeeID string) (BalanceReport, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return BalanceReport{}, err
	}
	return BalanceReport{Balances: emp.Balances, CarryForwardDays: emp.CarryForwardDays}, nil
}

// GetLOPStatus returns counters, maxima, threshold flags, and history.
// The lazy reset is applied to the in-memory view only; it is persisted
// by the next mutating operation.
func (s *Service) GetLOPStatus(ctx context.Context, employeeID string) (LOPStatus, error) {
	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return LOPStatus{}, err
	}
	return CheckLimits(emp, s.config, s.now()), nil
}

// AddCompOffCredit credits comp-off days earned for extra work, capped
// at the employment type's quota.
func (s *Service) AddCompOffCredit(ctx context.Context, employeeID string, days decimal.Decimal, reason string) (Balances, error) {
	if !days.IsPositive() {
		return Balances{}, newValidationError(CodeInvalidDates, "comp-off credit must be positive")
	}

	unlock := s.locks.lock(employeeID)
	defer unlock()

	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return Balances{}, err
	}

	credit := emp.Balances.CompOff.Add(days).Round(1)
	if quota := s.config.QuotaFor(emp.EmploymentType).CompOff; quota.IsPositive() && credit.GreaterThan(quota) {
		credit = quota
	}
	emp.Balances.CompOff = credit

	if err := s.store.SaveEmployee(ctx, emp); err != nil {
		return Balances{}, err
	}

	log.Printf("[CompOff] credited %s days to %s: %s", days, employeeID, reason)
	return emp.Balances, nil
}

// =============================================================================
// REGISTRATION
// =============================================================================

// RegisterInput describes a new employee.
type RegisterInput struct {
	ID             string
	Name           string
	Role           Role
	EmploymentType EmploymentType
	JoiningDate    time.Time
	Department     string
	ManagerID      string
}

// RegisterEmployee creates an employee with joining-date prorated
// balances.
func (s *Service) RegisterEmployee(ctx context.Context, in RegisterInput) (*Employee, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	emp := &Employee{
		ID:             id,
		Name:           in.Name,
		Role:           in.Role,
		EmploymentType: in.EmploymentType,
		JoiningDate:    calendar.DateOnly(in.JoiningDate),
		Department:     in.Department,
		ManagerID:      in.ManagerID,
		Balances:       ProratedBalances(in.EmploymentType, in.JoiningDate, s.config),
		Active:         true,
	}
	emp.LOP.LastResetDate = s.now()

	if err := s.store.CreateEmployee(ctx, emp); err != nil {
		return nil, err
	}
	return emp, nil
}

// =============================================================================
// ACCRUAL BATCH
// =============================================================================

// RunAccrual runs the monthly batch as of the given date. Each
// employee's step runs under that employee's lock, identical to the
// per-request case, so the batch can overlap normal traffic safely.
// Per-employee failures are collected into the summary, not fatal.
func (s *Service) RunAccrual(ctx context.Context, asOf time.Time) (AccrualSummary, error) {
	summary := AccrualSummary{AsOf: asOf, StartedAt: s.now(), TotalCredited: decimal.Zero}

	employees, err := s.store.ListActiveEmployees(ctx)
	if err != nil {
		return summary, err
	}

	for _, listed := range employees {
		if JoinedInMonth(listed, asOf) {
			summary.EmployeesSkipped++
			continue
		}

		err := func() error {
			unlock := s.locks.lock(listed.ID)
			defer unlock()

			emp, err := s.store.GetEmployee(ctx, listed.ID)
			if err != nil {
				return err
			}

			credited, failure := AccrueEmployee(emp, s.config, asOf)
			if failure != nil {
				summary.Failures = append(summary.Failures, *failure)
			}
			if err := s.store.SaveEmployee(ctx, emp); err != nil {
				return err
			}

			summary.TotalCredited = summary.TotalCredited.Add(credited)
			if asOf.Month() == time.January {
				summary.CarryForwardRuns++
			}
			return nil
		}()
		if err != nil {
			summary.Failures = append(summary.Failures, AccrualFailure{EmployeeID: listed.ID, Reason: err.Error()})
			continue
		}
		summary.EmployeesProcessed++
	}

	summary.CompletedAt = s.now()
	log.Printf("[Accrual] %s: processed=%d skipped=%d credited=%s failures=%d",
		asOf.Format("2006-01"), summary.EmployeesProcessed, summary.EmployeesSkipped,
		summary.TotalCredited, len(summary.Failures))
	return summary, nil
}

// =============================================================================
// PER-EMPLOYEE LOCKS
// =============================================================================

// entityLocks hands out one mutex per employee id.
type entityLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (l *entityLocks) lock(id string) func() {
	l.mu.Lock()
	mtx, ok := l.m[id]
	if !ok {
		mtx = &sync.Mutex{}
		l.m[id] = mtx
	}
	l.mu.Unlock()

	mtx.Lock()
	return mtx.Unlock
}
