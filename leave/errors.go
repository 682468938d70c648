/*
errors.go - Centralized error types for the leave core

PURPOSE:
  All error types in one place for consistency and discoverability.
  The taxonomy follows three lanes:

  1. ValidationError - a business rule rejected the request. Always a
     typed result with a human-readable reason, never control flow.
  2. StateError - a lifecycle operation was illegal (unknown id,
     already processed, cancellation after start date).
  3. Persistence errors - storage failures propagate unchanged; the
     core performs no silent retry.

USAGE:
  if leave.IsValidation(err) { ... 422 ... }
  if errors.Is(err, leave.ErrAlreadyProcessed) { ... 409 ... }

SEE ALSO:
  - validate.go: Produces ValidationError
  - service.go: Produces StateError
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRequestNotFound is returned when a referenced leave request doesn't exist.
	ErrRequestNotFound = errors.New("leave request not found")

	// ErrAlreadyProcessed is returned when a transition races another
	// actor or targets a terminal request. The compare-and-set loser
	// observes this, never a silent overwrite.
	ErrAlreadyProcessed = errors.New("leave request already processed")

	// ErrCancelAfterStart is returned when cancelling on or after the
	// request's start date.
	ErrCancelAfterStart = errors.New("cannot cancel on or after the leave start date")

	// ErrConcurrentModification is returned when optimistic locking
	// detects a conflicting write to an employee record.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrNoBalanceBucket is returned when reading or writing a balance
	// for a type that has none (wfh).
	ErrNoBalanceBucket = errors.New("leave type has no balance bucket")

	// ErrEmployeeInactive is returned when operating on a deactivated employee.
	ErrEmployeeInactive = errors.New("employee is deactivated")
)

// =============================================================================
// VALIDATION ERRORS
// =============================================================================

// ValidationCode identifies which admission rule failed.
type ValidationCode string

const (
	CodeInvalidDates     ValidationCode = "invalid_dates"
	CodeInvalidType      ValidationCode = "invalid_type"
	CodeOverlap          ValidationCode = "overlap"
	CodeNonWorkingStart  ValidationCode = "non_working_start"
	CodeAdvanceNotice    ValidationCode = "advance_notice"
	CodeSickCutoff       ValidationCode = "sick_cutoff"
	CodeMissingDocuments ValidationCode = "missing_documents"
	CodeExcessDocuments  ValidationCode = "excess_documents"
	CodeSpanTooLong      ValidationCode = "span_too_long"
	CodeReasonTooShort   ValidationCode = "reason_too_short"
	CodeZeroWorkingDays  ValidationCode = "zero_working_days"
	CodeLOPCapExceeded   ValidationCode = "lop_cap_exceeded"
)

// ValidationError is the typed result of a failed admission rule.
type ValidationError struct {
	Code    ValidationCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newValidationError(code ValidationCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// =============================================================================
// STATE ERRORS
// =============================================================================

// StateError wraps an illegal lifecycle operation with context.
type StateError struct {
	RequestID string
	Status    RequestStatus
	Err       error
}

func (e *StateError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("request %s (%s): %v", e.RequestID, e.Status, e.Err)
	}
	return fmt.Sprintf("request %s: %v", e.RequestID, e.Err)
}

func (e *StateError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is a business-rule rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsState reports whether err is a lifecycle error.
func IsState(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}

// IsNotFound reports whether err indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrRequestNotFound)
}
