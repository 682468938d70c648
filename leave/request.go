/*
request.go - Leave request state machine

PURPOSE:
  Owns the lifecycle transitions of a LeaveRequest:

    pending  -> approved | rejected
    pending  -> cancelled (before start date)
    approved -> cancelled (before start date)

  Status only moves forward. Re-processing a terminal request (outside
  the cancel path) is a state error, enforced here and again by the
  store's compare-and-set on status.

SIDE EFFECTS:
  These functions mutate only the request. Balance side effects
  (deduct on approval, restore on cancellation) are orchestrated by the
  service under the per-employee lock.

SEE ALSO:
  - service.go: Persistence, locking, and notification around these
  - ledger.go: The balance side effects
*/
package leave

import "time"

// Decision selects which forward transition to apply to a pending request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// markApproved transitions pending -> approved, recording the approver.
func markApproved(req *LeaveRequest, actorID string, now time.Time) *StateError {
	if req.Status != StatusPending {
		return &StateError{RequestID: req.ID, Status: req.Status, Err: ErrAlreadyProcessed}
	}
	req.Status = StatusApproved
	req.ApprovedBy = actorID
	req.ApprovedAt = &now
	return nil
}

// markRejected transitions pending -> rejected, recording the rejecter
// and reason. No balance effect.
func markRejected(req *LeaveRequest, actorID, reason string, now time.Time) *StateError {
	if req.Status != StatusPending {
		return &StateError{RequestID: req.ID, Status: req.Status, Err: ErrAlreadyProcessed}
	}
	req.Status = StatusRejected
	req.RejectedBy = actorID
	req.RejectedAt = &now
	req.RejectionReason = reason
	return nil
}

// markCancelled transitions pending|approved -> cancelled. Only
// permitted strictly before the leave starts.
func markCancelled(req *LeaveRequest, actorID, reason string, now time.Time) *StateError {
	if req.Status != StatusPending && req.Status != StatusApproved {
		return &StateError{RequestID: req.ID, Status: req.Status, Err: ErrAlreadyProcessed}
	}
	if !now.Before(dateOnly(req.StartDate)) {
		return &StateError{RequestID: req.ID, Status: req.Status, Err: ErrCancelAfterStart}
	}
	req.Status = StatusCancelled
	req.CancelledBy = actorID
	req.CancelledAt = &now
	req.CancellationReason = reason
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
