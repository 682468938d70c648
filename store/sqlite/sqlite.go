/*
Package sqlite provides a SQLite-backed implementation of leave.Store.

PURPOSE:
  Persists employees, leave requests, LOP history, and holidays. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

CONCURRENCY:
  - SaveEmployee is an optimistic write: UPDATE ... WHERE version = ?.
    A stale version touches zero rows and surfaces
    leave.ErrConcurrentModification.
  - SaveRequestIf is a compare-and-set: UPDATE ... WHERE status = ?.
    The loser of a transition race observes leave.ErrAlreadyProcessed,
    never a silent overwrite.
  - CommitTransition runs the request compare-and-set and the employee
    write inside one SQL transaction, so an approval's deduction (or a
    cancellation's restoration) lands with the status change or not at
    all.

LOP HISTORY:
  History entries are append-only. Writes use INSERT OR IGNORE keyed by
  entry id, so re-saving an employee never duplicates or rewrites
  history.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: Interface definition
  - store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/leave"
)

// Store implements leave.Store using SQLite.
type Store struct {
	db *sql.DB
}

// execQuerier is satisfied by *sql.DB and *sql.Tx, so the write
// helpers run against the pool or inside a transaction unchanged.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ leave.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		joining_date TEXT NOT NULL,
		department TEXT,
		manager_id TEXT,
		sick TEXT NOT NULL,
		casual TEXT NOT NULL,
		vacation TEXT NOT NULL,
		academic TEXT NOT NULL,
		comp_off TEXT NOT NULL,
		lop TEXT NOT NULL,
		carry_forward TEXT NOT NULL,
		yearly_lop TEXT NOT NULL,
		monthly_lop TEXT NOT NULL,
		last_reset_date TEXT,
		active INTEGER NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 0
	);

	-- Append-only LOP conversion history
	CREATE TABLE IF NOT EXISTS lop_history (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		days TEXT NOT NULL,
		reason TEXT,
		leave_request_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_lop_history_employee
		ON lop_history(employee_id, date);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		is_half_day INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		status TEXT NOT NULL,
		working_days TEXT NOT NULL,
		lop_days TEXT NOT NULL,
		balance_deducted INTEGER NOT NULL DEFAULT 0,
		documents_json TEXT,
		approved_by TEXT,
		approved_at TEXT,
		rejected_by TEXT,
		rejected_at TEXT,
		rejection_reason TEXT,
		cancelled_by TEXT,
		cancelled_at TEXT,
		cancellation_reason TEXT,
		created_at TEXT NOT NULL
	);

	-- Overlap checks scan an employee's open requests (hot path)
	CREATE INDEX IF NOT EXISTS idx_requests_employee_status
		ON leave_requests(employee_id, status);
	CREATE INDEX IF NOT EXISTS idx_requests_dates
		ON leave_requests(employee_id, start_date, end_date);

	CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, role, employment_type, joining_date, department, manager_id,
	sick, casual, vacation, academic, comp_off, lop, carry_forward,
	yearly_lop, monthly_lop, last_reset_date, active, version`

func (s *Store) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, leave.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}

	if emp.LOP.History, err = s.loadHistory(ctx, id); err != nil {
		return nil, err
	}
	return emp, nil
}

func (s *Store) CreateEmployee(ctx context.Context, emp *leave.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		emp.ID, emp.Name, string(emp.Role), string(emp.EmploymentType),
		fmtDate(emp.JoiningDate), emp.Department, emp.ManagerID,
		emp.Balances.Sick.String(), emp.Balances.Casual.String(), emp.Balances.Vacation.String(),
		emp.Balances.Academic.String(), emp.Balances.CompOff.String(), emp.Balances.LOP.String(),
		emp.CarryForwardDays.String(), emp.LOP.YearlyLOP.String(), emp.LOP.MonthlyLOP.String(),
		fmtTime(emp.LOP.LastResetDate), boolInt(emp.Active), emp.Version)
	if err != nil {
		return err
	}
	return appendHistory(ctx, s.db, emp)
}

func (s *Store) SaveEmployee(ctx context.Context, emp *leave.Employee) error {
	if err := saveEmployee(ctx, s.db, emp); err != nil {
		return err
	}
	if err := appendHistory(ctx, s.db, emp); err != nil {
		return err
	}
	emp.Version++
	return nil
}

// saveEmployee performs the optimistic UPDATE without touching the
// caller's Version field; callers bump it once the whole write (and,
// for CommitTransition, the transaction) has succeeded.
func saveEmployee(ctx context.Context, q execQuerier, emp *leave.Employee) error {
	res, err := q.ExecContext(ctx, `
		UPDATE employees SET
			name = ?, role = ?, employment_type = ?, joining_date = ?,
			department = ?, manager_id = ?,
			sick = ?, casual = ?, vacation = ?, academic = ?, comp_off = ?, lop = ?,
			carry_forward = ?, yearly_lop = ?, monthly_lop = ?, last_reset_date = ?,
			active = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		emp.Name, string(emp.Role), string(emp.EmploymentType), fmtDate(emp.JoiningDate),
		emp.Department, emp.ManagerID,
		emp.Balances.Sick.String(), emp.Balances.Casual.String(), emp.Balances.Vacation.String(),
		emp.Balances.Academic.String(), emp.Balances.CompOff.String(), emp.Balances.LOP.String(),
		emp.CarryForwardDays.String(), emp.LOP.YearlyLOP.String(), emp.LOP.MonthlyLOP.String(),
		fmtTime(emp.LOP.LastResetDate), boolInt(emp.Active),
		emp.ID, emp.Version)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the record is gone or someone else wrote first.
		var exists int
		if err := q.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM employees WHERE id = ?`, emp.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return leave.ErrEmployeeNotFound
		}
		return leave.ErrConcurrentModification
	}
	return nil
}

func (s *Store) ListActiveEmployees(ctx context.Context) ([]*leave.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leave.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, emp)
	}
	return out, rows.Err()
}

// appendHistory inserts any new history entries. Existing entries are
// untouched (append-only, keyed by entry id).
func appendHistory(ctx context.Context, q execQuerier, emp *leave.Employee) error {
	for _, e := range emp.LOP.History {
		_, err := q.ExecContext(ctx, `
			INSERT OR IGNORE INTO lop_history (id, employee_id, date, days, reason, leave_request_id)
			VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, emp.ID, fmtTime(e.Date), e.Days.String(), e.Reason, e.LeaveRequestID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) loadHistory(ctx context.Context, employeeID string) ([]leave.LOPEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, days, reason, leave_request_id
		FROM lop_history WHERE employee_id = ? ORDER BY date, id`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.LOPEntry
	for rows.Next() {
		var e leave.LOPEntry
		var date, days string
		if err := rows.Scan(&e.ID, &date, &days, &e.Reason, &e.LeaveRequestID); err != nil {
			return nil, err
		}
		e.Date = parseTime(date)
		e.Days = mustDecimal(days)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// REQUESTS
// =============================================================================

const requestColumns = `id, employee_id, leave_type, start_date, end_date, is_half_day, reason,
	status, working_days, lop_days, balance_deducted, documents_json,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	cancelled_by, cancelled_at, cancellation_reason, created_at`

func (s *Store) GetRequest(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, leave.ErrRequestNotFound
	}
	return req, err
}

func (s *Store) CreateRequest(ctx context.Context, req *leave.LeaveRequest) error {
	docs, _ := json.Marshal(req.Documents)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.EmployeeID, string(req.Type), fmtDate(req.StartDate), fmtDate(req.EndDate),
		boolInt(req.IsHalfDay), req.Reason, string(req.Status),
		req.WorkingDays.String(), req.LOPDaysAttributed.String(), boolInt(req.BalanceDeducted),
		string(docs), req.ApprovedBy, fmtTimePtr(req.ApprovedAt),
		req.RejectedBy, fmtTimePtr(req.RejectedAt), req.RejectionReason,
		req.CancelledBy, fmtTimePtr(req.CancelledAt), req.CancellationReason,
		fmtTime(req.CreatedAt))
	return err
}

func (s *Store) SaveRequestIf(ctx context.Context, req *leave.LeaveRequest, expect leave.RequestStatus) error {
	return saveRequestIf(ctx, s.db, req, expect)
}

func saveRequestIf(ctx context.Context, q execQuerier, req *leave.LeaveRequest, expect leave.RequestStatus) error {
	docs, _ := json.Marshal(req.Documents)
	res, err := q.ExecContext(ctx, `
		UPDATE leave_requests SET
			status = ?, working_days = ?, lop_days = ?, balance_deducted = ?, documents_json = ?,
			approved_by = ?, approved_at = ?,
			rejected_by = ?, rejected_at = ?, rejection_reason = ?,
			cancelled_by = ?, cancelled_at = ?, cancellation_reason = ?
		WHERE id = ? AND status = ?`,
		string(req.Status), req.WorkingDays.String(), req.LOPDaysAttributed.String(),
		boolInt(req.BalanceDeducted), string(docs),
		req.ApprovedBy, fmtTimePtr(req.ApprovedAt),
		req.RejectedBy, fmtTimePtr(req.RejectedAt), req.RejectionReason,
		req.CancelledBy, fmtTimePtr(req.CancelledAt), req.CancellationReason,
		req.ID, string(expect))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := q.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM leave_requests WHERE id = ?`, req.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return leave.ErrRequestNotFound
		}
		return leave.ErrAlreadyProcessed
	}
	return nil
}

// CommitTransition claims the status transition and writes the
// employee in one SQL transaction. The caller's Version is bumped only
// after the transaction commits.
func (s *Store) CommitTransition(ctx context.Context, req *leave.LeaveRequest, expect leave.RequestStatus, emp *leave.Employee) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveRequestIf(ctx, tx, req, expect); err != nil {
		return err
	}
	if emp != nil {
		if err := saveEmployee(ctx, tx, emp); err != nil {
			return err
		}
		if err := appendHistory(ctx, tx, emp); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	if emp != nil {
		emp.Version++
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context, employeeID string, statuses ...leave.RequestStatus) ([]*leave.LeaveRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE employee_id = ?`
	args := []any{employeeID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(statuses)-1) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY start_date`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leave.LeaveRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) ListHolidays(ctx context.Context, year int) ([]calendar.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, name, type FROM holidays
		WHERE date >= ? AND date <= ? ORDER BY date`,
		fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []calendar.Holiday
	for rows.Next() {
		var h calendar.Holiday
		var date string
		if err := rows.Scan(&date, &h.Name, &h.Type); err != nil {
			return nil, err
		}
		h.Date = parseDate(date)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) SaveHoliday(ctx context.Context, h calendar.Holiday) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO holidays (date, name, type) VALUES (?, ?, ?)`,
		fmtDate(h.Date), h.Name, h.Type)
	return err
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*leave.Employee, error) {
	var emp leave.Employee
	var role, empType, joining string
	var sick, casual, vacation, academic, compOff, lop, carry, yearly, monthly string
	var lastReset sql.NullString
	var active int

	err := row.Scan(&emp.ID, &emp.Name, &role, &empType, &joining, &emp.Department, &emp.ManagerID,
		&sick, &casual, &vacation, &academic, &compOff, &lop, &carry,
		&yearly, &monthly, &lastReset, &active, &emp.Version)
	if err != nil {
		return nil, err
	}

	emp.Role = leave.Role(role)
	emp.EmploymentType = leave.EmploymentType(empType)
	emp.JoiningDate = parseDate(joining)
	emp.Balances = leave.Balances{
		Sick:     mustDecimal(sick),
		Casual:   mustDecimal(casual),
		Vacation: mustDecimal(vacation),
		Academic: mustDecimal(academic),
		CompOff:  mustDecimal(compOff),
		LOP:      mustDecimal(lop),
	}
	emp.CarryForwardDays = mustDecimal(carry)
	emp.LOP.YearlyLOP = mustDecimal(yearly)
	emp.LOP.MonthlyLOP = mustDecimal(monthly)
	if lastReset.Valid {
		emp.LOP.LastResetDate = parseTime(lastReset.String)
	}
	emp.Active = active != 0
	return &emp, nil
}

func scanRequest(row rowScanner) (*leave.LeaveRequest, error) {
	var req leave.LeaveRequest
	var leaveType, status, start, end, created string
	var working, lopDays string
	var halfDay, deducted int
	var docs sql.NullString
	var approvedAt, rejectedAt, cancelledAt sql.NullString

	err := row.Scan(&req.ID, &req.EmployeeID, &leaveType, &start, &end, &halfDay, &req.Reason,
		&status, &working, &lopDays, &deducted, &docs,
		&req.ApprovedBy, &approvedAt, &req.RejectedBy, &rejectedAt, &req.RejectionReason,
		&req.CancelledBy, &cancelledAt, &req.CancellationReason, &created)
	if err != nil {
		return nil, err
	}

	req.Type = leave.LeaveType(leaveType)
	req.Status = leave.RequestStatus(status)
	req.StartDate = parseDate(start)
	req.EndDate = parseDate(end)
	req.IsHalfDay = halfDay != 0
	req.WorkingDays = mustDecimal(working)
	req.LOPDaysAttributed = mustDecimal(lopDays)
	req.BalanceDeducted = deducted != 0
	req.CreatedAt = parseTime(created)
	if docs.Valid && docs.String != "" {
		json.Unmarshal([]byte(docs.String), &req.Documents)
	}
	req.ApprovedAt = parseTimePtr(approvedAt)
	req.RejectedAt = parseTimePtr(rejectedAt)
	req.CancelledAt = parseTimePtr(cancelledAt)
	return &req, nil
}

// =============================================================================
// VALUE HELPERS
// =============================================================================

func fmtDate(t time.Time) string { return t.Format("2006-01-02") }
func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
