// Package store provides leave.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements leave.Store with maps behind a mutex. Records are
// deep-copied on the way in and out so callers never share state with
// the store.
type Memory struct {
	mu        sync.RWMutex
	employees map[string]*leave.Employee
	requests  map[string]*leave.LeaveRequest
	holidays  map[string]calendar.Holiday
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[string]*leave.Employee),
		requests:  make(map[string]*leave.LeaveRequest),
		holidays:  make(map[string]calendar.Holiday),
	}
}

var _ leave.Store = (*Memory)(nil)

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	emp, ok := m.employees[id]
	if !ok {
		return nil, leave.ErrEmployeeNotFound
	}
	return copyEmployee(emp), nil
}

func (m *Memory) CreateEmployee(_ context.Context, emp *leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.employees[emp.ID] = copyEmployee(emp)
	return nil
}

// SaveEmployee is an optimistic write: the stored version must match
// the caller's loaded version.
func (m *Memory) SaveEmployee(_ context.Context, emp *leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.employees[emp.ID]
	if !ok {
		return leave.ErrEmployeeNotFound
	}
	if stored.Version != emp.Version {
		return leave.ErrConcurrentModification
	}

	emp.Version++
	m.employees[emp.ID] = copyEmployee(emp)
	return nil
}

func (m *Memory) ListActiveEmployees(_ context.Context) ([]*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*leave.Employee
	for _, emp := range m.employees {
		if emp.Active {
			out = append(out, copyEmployee(emp))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (m *Memory) GetRequest(_ context.Context, id string) (*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	req, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	return copyRequest(req), nil
}

func (m *Memory) CreateRequest(_ context.Context, req *leave.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[req.ID] = copyRequest(req)
	return nil
}

// SaveRequestIf is the compare-and-set on status: only one of two
// racing transitions can observe the expected status.
func (m *Memory) SaveRequestIf(_ context.Context, req *leave.LeaveRequest, expect leave.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.requests[req.ID]
	if !ok {
		return leave.ErrRequestNotFound
	}
	if stored.Status != expect {
		return leave.ErrAlreadyProcessed
	}

	m.requests[req.ID] = copyRequest(req)
	return nil
}

// CommitTransition applies the request compare-and-set and the
// employee write under one lock acquisition. Both records are checked
// before either is touched, so a failed commit changes nothing.
func (m *Memory) CommitTransition(_ context.Context, req *leave.LeaveRequest, expect leave.RequestStatus, emp *leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	storedReq, ok := m.requests[req.ID]
	if !ok {
		return leave.ErrRequestNotFound
	}
	if storedReq.Status != expect {
		return leave.ErrAlreadyProcessed
	}
	if emp != nil {
		storedEmp, ok := m.employees[emp.ID]
		if !ok {
			return leave.ErrEmployeeNotFound
		}
		if storedEmp.Version != emp.Version {
			return leave.ErrConcurrentModification
		}
	}

	m.requests[req.ID] = copyRequest(req)
	if emp != nil {
		emp.Version++
		m.employees[emp.ID] = copyEmployee(emp)
	}
	return nil
}

func (m *Memory) ListRequests(_ context.Context, employeeID string, statuses ...leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*leave.LeaveRequest
	for _, req := range m.requests {
		if req.EmployeeID != employeeID {
			continue
		}
		if len(statuses) > 0 && !statusIn(req.Status, statuses) {
			continue
		}
		out = append(out, copyRequest(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) ListHolidays(_ context.Context, year int) ([]calendar.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []calendar.Holiday
	for _, h := range m.holidays {
		if h.Date.Year() == year {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) SaveHoliday(_ context.Context, h calendar.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.holidays[h.Date.Format("2006-01-02")] = h
	return nil
}

// =============================================================================
// COPY HELPERS
// =============================================================================

func copyEmployee(e *leave.Employee) *leave.Employee {
	out := *e
	out.LOP.History = append([]leave.LOPEntry(nil), e.LOP.History...)
	return &out
}

func copyRequest(r *leave.LeaveRequest) *leave.LeaveRequest {
	out := *r
	out.Documents = append([]string(nil), r.Documents...)
	return &out
}

func statusIn(s leave.RequestStatus, set []leave.RequestStatus) bool {
	for _, st := range set {
		if s == st {
			return true
		}
	}
	return false
}
