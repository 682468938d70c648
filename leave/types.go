/*
Package leave implements the leave policy and balance ledger core.

PURPOSE:
  Decides whether a leave request is admissible, how many working days
  it consumes, how shortfalls become Loss-of-Pay (LOP), how LOP is
  capped and reset, and how monthly accrual and year-end carry-forward
  recompute balances.

KEY CONCEPTS IN THIS FILE (types.go):
  - LeaveType: Enumerated leave kinds with an exhaustive mapping to
    balance buckets (the compiler rejects forgotten types)
  - Balances: Per-type day amounts (also used for quotas/accrual rates)
  - Employee: Identity, balances, LOP tracking
  - LeaveRequest: A request and its lifecycle state

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for all day quantities, never float64
  2. Exhaustiveness: balance access goes through LeaveType switches,
     so wfh/lop can never be accidentally accrued or deducted
  3. Immutability of history: LOP history entries are append-only
  4. Snapshot config: PolicyConfig is an immutable value injected per
     operation, never a shared mutable global

SEE ALSO:
  - config.go: PolicyConfig snapshot
  - validate.go: Ordered admission rules
  - ledger.go: Deduction/restoration
  - lop.go: LOP counters and history
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEAVE TYPE - Enumerated, with exhaustive balance mapping
// =============================================================================

type LeaveType string

const (
	TypeSick     LeaveType = "sick"
	TypeCasual   LeaveType = "casual"
	TypeVacation LeaveType = "vacation"
	TypeCompOff  LeaveType = "compOff"
	TypeLOP      LeaveType = "lop"
	TypeWFH      LeaveType = "wfh"
	TypeAcademic LeaveType = "academic"
)

// AllTypes lists every request-able leave type.
var AllTypes = []LeaveType{
	TypeSick, TypeCasual, TypeVacation, TypeCompOff, TypeLOP, TypeWFH, TypeAcademic,
}

// Valid reports whether t is a known leave type.
func (t LeaveType) Valid() bool {
	switch t {
	case TypeSick, TypeCasual, TypeVacation, TypeCompOff, TypeLOP, TypeWFH, TypeAcademic:
		return true
	}
	return false
}

// DeductsBalance reports whether approving this type consumes a balance
// bucket. WFH never touches balance; LOP goes through the tracker, not
// a spendable bucket.
func (t LeaveType) DeductsBalance() bool {
	switch t {
	case TypeSick, TypeCasual, TypeVacation, TypeCompOff, TypeAcademic:
		return true
	case TypeLOP, TypeWFH:
		return false
	}
	return false
}

// Accrues reports whether this type participates in monthly accrual.
// WFH and LOP are excluded by construction; the configured rate decides
// the rest (a zero rate is a no-op credit).
func (t LeaveType) Accrues() bool {
	switch t {
	case TypeSick, TypeCasual, TypeVacation, TypeAcademic, TypeCompOff:
		return true
	case TypeLOP, TypeWFH:
		return false
	}
	return false
}

// =============================================================================
// BALANCES - Per-type day amounts
// =============================================================================

// Balances holds a day amount per leave type. It doubles as the shape
// for quotas and accrual rates in PolicyConfig. The LOP field is a
// counter of converted unpaid days, not a spendable balance.
type Balances struct {
	Sick     decimal.Decimal `json:"sick"`
	Casual   decimal.Decimal `json:"casual"`
	Vacation decimal.Decimal `json:"vacation"`
	Academic decimal.Decimal `json:"academic"`
	CompOff  decimal.Decimal `json:"compOff"`
	LOP      decimal.Decimal `json:"lop"`
}

// Get returns the bucket for t. WFH has no bucket and returns
// ErrNoBalanceBucket.
func (b *Balances) Get(t LeaveType) (decimal.Decimal, error) {
	switch t {
	case TypeSick:
		return b.Sick, nil
	case TypeCasual:
		return b.Casual, nil
	case TypeVacation:
		return b.Vacation, nil
	case TypeAcademic:
		return b.Academic, nil
	case TypeCompOff:
		return b.CompOff, nil
	case TypeLOP:
		return b.LOP, nil
	case TypeWFH:
		return decimal.Zero, ErrNoBalanceBucket
	}
	return decimal.Zero, ErrNoBalanceBucket
}

// Set writes the bucket for t. WFH has no bucket and returns
// ErrNoBalanceBucket.
func (b *Balances) Set(t LeaveType, v decimal.Decimal) error {
	switch t {
	case TypeSick:
		b.Sick = v
	case TypeCasual:
		b.Casual = v
	case TypeVacation:
		b.Vacation = v
	case TypeAcademic:
		b.Academic = v
	case TypeCompOff:
		b.CompOff = v
	case TypeLOP:
		b.LOP = v
	case TypeWFH:
		return ErrNoBalanceBucket
	default:
		return ErrNoBalanceBucket
	}
	return nil
}

// =============================================================================
// EMPLOYEE
// =============================================================================

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

type EmploymentType string

const (
	EmploymentRegular EmploymentType = "regular"
	EmploymentIntern  EmploymentType = "intern"
)

// Employee is the ledger's view of a person. Balances and LOP tracking
// are mutated only by the balance ledger and the accrual engine.
// Employees are never deleted, only deactivated.
type Employee struct {
	ID             string
	Name           string
	Role           Role
	EmploymentType EmploymentType
	JoiningDate    time.Time
	Department     string
	ManagerID      string

	Balances         Balances
	CarryForwardDays decimal.Decimal
	LOP              LOPTracking

	Active bool

	// Version supports optimistic concurrency at the store boundary.
	Version int
}

// LOPTracking holds the per-employee Loss-of-Pay counters and history.
type LOPTracking struct {
	YearlyLOP     decimal.Decimal
	MonthlyLOP    decimal.Decimal
	LastResetDate time.Time
	History       []LOPEntry
}

// LOPEntry is one attributable LOP conversion. Append-only.
type LOPEntry struct {
	ID             string
	Date           time.Time
	Days           decimal.Decimal // negative for restorations
	Reason         string
	LeaveRequestID string
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// LeaveRequest is a single application and its lifecycle state.
// Created by the validation engine, mutated only by the state machine,
// never deleted.
type LeaveRequest struct {
	ID         string
	EmployeeID string
	Type       LeaveType
	StartDate  time.Time
	EndDate    time.Time
	IsHalfDay  bool
	Reason     string
	Status     RequestStatus

	// Computed at validation, re-checked at approval.
	WorkingDays decimal.Decimal

	// Immutable once set at approval.
	LOPDaysAttributed decimal.Decimal
	BalanceDeducted   bool

	Documents []string

	ApprovedBy         string
	ApprovedAt         *time.Time
	RejectedBy         string
	RejectedAt         *time.Time
	RejectionReason    string
	CancelledBy        string
	CancelledAt        *time.Time
	CancellationReason string

	CreatedAt time.Time
}

// Terminal reports whether the request can no longer move forward.
// Approved requests are terminal for approve/reject but may still be
// cancelled before their start date.
func (r *LeaveRequest) Terminal() bool {
	return r.Status == StatusRejected || r.Status == StatusCancelled
}
