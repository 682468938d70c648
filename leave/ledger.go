/*
ledger.go - Balance deduction and restoration

PURPOSE:
  Applies the balance side effects of the request state machine. The
  ordering contract matters: deduction takes balance first and spills
  the shortfall into LOP; restoration returns the LOP portion first and
  then the original bucket. Symmetric ordering makes repeated
  deduct/restore cycles idempotent to rounding.

INVARIANT:
  No balance field is ever persisted negative. A shortfall is resolved
  into LOP within the same deduction, never left as a negative bucket.

SEE ALSO:
  - lop.go: The only write path for LOP counters
  - service.go: Calls Deduct/Restore under the per-employee lock
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deduct consumes req.WorkingDays from the employee's bucket for the
// request's type. If the balance is insufficient the bucket is zeroed
// and the shortfall is routed through the LOP tracker, recording the
// attributed LOP on the request. Direct lop-type requests convert
// entirely. The caller re-validates caps before calling.
func Deduct(emp *Employee, req *LeaveRequest, now time.Time) error {
	if req.Type == TypeLOP {
		req.LOPDaysAttributed = req.WorkingDays
		AddLOPDays(emp, req.WorkingDays, "unpaid leave approved", req.ID, now)
		req.BalanceDeducted = true
		return nil
	}
	if !req.Type.DeductsBalance() {
		return nil
	}

	available, err := emp.Balances.Get(req.Type)
	if err != nil {
		return err
	}

	if req.WorkingDays.LessThanOrEqual(available) {
		if err := emp.Balances.Set(req.Type, available.Sub(req.WorkingDays)); err != nil {
			return err
		}
		req.LOPDaysAttributed = decimal.Zero
	} else {
		shortfall := req.WorkingDays.Sub(available)
		if err := emp.Balances.Set(req.Type, decimal.Zero); err != nil {
			return err
		}
		req.LOPDaysAttributed = shortfall
		AddLOPDays(emp, shortfall, "insufficient "+string(req.Type)+" balance", req.ID, now)
	}

	req.BalanceDeducted = true
	return nil
}

// Restore is the inverse of Deduct, invoked on cancellation of an
// approved request. The attributed LOP is returned first, then any
// remaining working days go back to the original bucket.
func Restore(emp *Employee, req *LeaveRequest, now time.Time) error {
	if !req.BalanceDeducted {
		return nil
	}

	if req.LOPDaysAttributed.IsPositive() {
		ReverseLOPDays(emp, req.LOPDaysAttributed, "leave cancelled", req.ID, now)
	}

	remaining := req.WorkingDays.Sub(req.LOPDaysAttributed)
	if remaining.IsPositive() && req.Type != TypeLOP {
		current, err := emp.Balances.Get(req.Type)
		if err != nil {
			return err
		}
		if err := emp.Balances.Set(req.Type, current.Add(remaining)); err != nil {
			return err
		}
	}

	req.BalanceDeducted = false
	return nil
}
