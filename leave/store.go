/*
store.go - Persistence interface for employees, requests, and holidays

PURPOSE:
  Defines the boundary between the leave core and storage. The core
  treats storage as an abstract repository; any failure from an
  implementation propagates unchanged to the caller (no silent retry).

CONCURRENCY CONTRACT:
  - SaveEmployee is an optimistic-concurrency write: it succeeds only
    if the stored Version matches the one the caller loaded, and bumps
    it. A mismatch returns ErrConcurrentModification.
  - SaveRequestIf is a compare-and-set on request status: it persists
    the request only if the stored status equals expect. The loser of a
    transition race observes ErrAlreadyProcessed.
  - CommitTransition couples the two: a status transition and the
    employee record it affects are persisted in one unit. Either both
    writes apply or neither does. A transition that deducts or restores
    balance must go through this; persisting the two records separately
    can leave an approved request whose deduction never happened.

IMPLEMENTATIONS:
  - store/memory.go: In-memory for tests and development
  - store/sqlite/sqlite.go: SQLite-backed

SEE ALSO:
  - service.go: The only consumer of this interface
*/
package leave

import (
	"context"

	"github.com/warp/leave-ledger/calendar"
)

// Store is the persistence boundary for the leave core.
type Store interface {
	// GetEmployee returns the employee or ErrEmployeeNotFound.
	GetEmployee(ctx context.Context, id string) (*Employee, error)

	// CreateEmployee persists a new employee record.
	CreateEmployee(ctx context.Context, emp *Employee) error

	// SaveEmployee persists emp if the stored Version matches
	// emp.Version, then increments it. Returns
	// ErrConcurrentModification on a stale write.
	SaveEmployee(ctx context.Context, emp *Employee) error

	// ListActiveEmployees returns all non-deactivated employees.
	ListActiveEmployees(ctx context.Context) ([]*Employee, error)

	// GetRequest returns the request or ErrRequestNotFound.
	GetRequest(ctx context.Context, id string) (*LeaveRequest, error)

	// CreateRequest persists a new leave request.
	CreateRequest(ctx context.Context, req *LeaveRequest) error

	// SaveRequestIf persists req only if the stored status equals
	// expect (compare-and-set). Returns ErrAlreadyProcessed when the
	// stored status has moved on.
	SaveRequestIf(ctx context.Context, req *LeaveRequest, expect RequestStatus) error

	// CommitTransition atomically claims the request transition (the
	// compare-and-set of SaveRequestIf) and, when emp is non-nil,
	// persists the employee under SaveEmployee's version check in the
	// same unit. On any failure neither record changes.
	CommitTransition(ctx context.Context, req *LeaveRequest, expect RequestStatus, emp *Employee) error

	// ListRequests returns an employee's requests, optionally filtered
	// by status, ordered by start date.
	ListRequests(ctx context.Context, employeeID string, statuses ...RequestStatus) ([]*LeaveRequest, error)

	// ListHolidays returns the holiday calendar for a year.
	ListHolidays(ctx context.Context, year int) ([]calendar.Holiday, error)

	// SaveHoliday adds a holiday to the calendar.
	SaveHoliday(ctx context.Context, h calendar.Holiday) error
}
