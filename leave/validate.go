/*
validate.go - Ordered business-rule checks for a candidate leave request

PURPOSE:
  Runs the admission rules for a leave application, in order, short-
  circuiting on the first failure. On success the draft request carries
  its computed working days and a provisional LOP attribution for the
  state machine to apply (and re-check) at approval.

RULE ORDER:
  1. Date sanity (start <= end, both resolvable, known type)
  2. Overlap with existing pending/approved requests (full interval)
  3. Non-WFH requests must not start on a weekend or holiday
  4. Advance notice for configured types (casual, vacation)
  5. Same-day sick leave must beat the cutoff time
  6. Academic leave: documents, span, reason length, its own notice
  7. LOP affordability: shortfall becomes provisional LOP, rejected if
     caps would be exceeded and restrictLeaveAfterMaxLOP is set

PURITY:
  Validation is a function of (employee, request, config, calendar,
  existing requests, now). It reads committed state; the state machine
  re-validates affordability at commit time because state may change
  between validation and approval.

SEE ALSO:
  - ledger.go: Applies the deduction validated here
  - lop.go: Counter reset and cap reporting
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-ledger/calendar"
)

// Validate runs the ordered admission rules for req against emp's
// current state. On success it fills req.WorkingDays and a provisional
// req.LOPDaysAttributed and returns nil; otherwise it returns the first
// failing rule's ValidationError.
func Validate(emp *Employee, req *LeaveRequest, cfg PolicyConfig, cal *calendar.Calendar, existing []*LeaveRequest, now time.Time) *ValidationError {
	// 1. Date sanity.
	if !req.Type.Valid() {
		return newValidationError(CodeInvalidType, "unknown leave type %q", req.Type)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return newValidationError(CodeInvalidDates, "start and end dates are required")
	}
	if req.EndDate.Before(req.StartDate) {
		return newValidationError(CodeInvalidDates, "end date %s is before start date %s",
			req.EndDate.Format("2006-01-02"), req.StartDate.Format("2006-01-02"))
	}

	// 2. Overlap against the full interval of open requests.
	for _, other := range existing {
		if other.ID == req.ID {
			continue
		}
		if other.Status != StatusPending && other.Status != StatusApproved {
			continue
		}
		if overlaps(req.StartDate, req.EndDate, other.StartDate, other.EndDate) {
			return newValidationError(CodeOverlap,
				"overlaps existing %s leave from %s to %s",
				other.Status, other.StartDate.Format("2006-01-02"), other.EndDate.Format("2006-01-02"))
		}
	}

	// 3. Non-WFH requests cannot start on a non-working day.
	if req.Type != TypeWFH {
		if cal.IsWeekend(req.StartDate) {
			return newValidationError(CodeNonWorkingStart,
				"start date %s falls on a weekend", req.StartDate.Format("2006-01-02"))
		}
		if h, ok := cal.IsHoliday(req.StartDate); ok {
			return newValidationError(CodeNonWorkingStart,
				"start date %s falls on a holiday (%s)", req.StartDate.Format("2006-01-02"), h.Name)
		}
	}

	// 4. Advance notice for configured types. Academic leave has its
	// own rule in step 6, which replaces the general one.
	if req.Type != TypeAcademic {
		if notice, ok := cfg.Settings.AdvanceNoticeDays[req.Type]; ok {
			if calendar.DaysBetween(now, req.StartDate) < notice {
				return newValidationError(CodeAdvanceNotice,
					"%s leave requires %d days advance notice", req.Type, notice)
			}
		}
	}

	// 5. Same-day sick leave must be submitted before the cutoff. A
	// cutoff that does not parse rejects the application rather than
	// waving it through; the factory validates file-loaded configs, but
	// a hand-built PolicyConfig reaches here unchecked.
	if req.Type == TypeSick && calendar.SameDay(req.StartDate, now) {
		cutoff, err := time.Parse("15:04", cfg.Settings.SickSameDayCutoff)
		if err != nil {
			return newValidationError(CodeSickCutoff,
				"same-day sick leave unavailable: cutoff %q is not an HH:MM time", cfg.Settings.SickSameDayCutoff)
		}
		clock := now.Hour()*60 + now.Minute()
		limit := cutoff.Hour()*60 + cutoff.Minute()
		if clock >= limit {
			return newValidationError(CodeSickCutoff,
				"same-day sick leave must be submitted before %s", cfg.Settings.SickSameDayCutoff)
		}
	}

	// 6. Academic leave gates.
	if req.Type == TypeAcademic {
		ac := cfg.Settings.Academic
		if ac.RequireDocuments && len(req.Documents) == 0 {
			return newValidationError(CodeMissingDocuments,
				"academic leave requires at least one supporting document")
		}
		if ac.MaxDocuments > 0 && len(req.Documents) > ac.MaxDocuments {
			return newValidationError(CodeExcessDocuments,
				"academic leave allows at most %d documents", ac.MaxDocuments)
		}
		if span := calendar.DaysBetween(req.StartDate, req.EndDate) + 1; ac.MaxConsecutiveDays > 0 && span > ac.MaxConsecutiveDays {
			return newValidationError(CodeSpanTooLong,
				"academic leave spans %d days, maximum is %d", span, ac.MaxConsecutiveDays)
		}
		if len(req.Reason) < ac.MinReasonLength {
			return newValidationError(CodeReasonTooShort,
				"academic leave reason must be at least %d characters", ac.MinReasonLength)
		}
		if calendar.DaysBetween(now, req.StartDate) < ac.MinAdvanceNoticeDays {
			return newValidationError(CodeAdvanceNotice,
				"academic leave requires %d days advance notice", ac.MinAdvanceNoticeDays)
		}
	}

	// 7. Working days and LOP affordability.
	workingDays := cal.WorkingDays(req.StartDate, req.EndDate, req.IsHalfDay)
	if !workingDays.IsPositive() {
		return newValidationError(CodeZeroWorkingDays,
			"the span contains no working days")
	}
	req.WorkingDays = workingDays

	shortfall, verr := lopShortfall(emp, req.Type, workingDays, cfg, now)
	if verr != nil {
		return verr
	}
	req.LOPDaysAttributed = shortfall

	return nil
}

// lopShortfall computes how many of the requested days would convert to
// LOP and rejects the request when the conversion would breach the
// configured caps. Shared between validation and the commit-time
// re-check in the state machine.
func lopShortfall(emp *Employee, t LeaveType, workingDays decimal.Decimal, cfg PolicyConfig, now time.Time) (decimal.Decimal, *ValidationError) {
	var shortfall decimal.Decimal
	switch {
	case t == TypeLOP:
		// Direct unpaid leave: the whole span is LOP.
		shortfall = workingDays
	case t.DeductsBalance():
		available, err := emp.Balances.Get(t)
		if err != nil {
			return decimal.Zero, newValidationError(CodeInvalidType, "no balance for type %q", t)
		}
		if workingDays.GreaterThan(available) {
			shortfall = workingDays.Sub(available)
		}
	default:
		// WFH consumes nothing.
		return decimal.Zero, nil
	}

	if !shortfall.IsPositive() {
		return decimal.Zero, nil
	}

	status := CheckLimits(emp, cfg, now)
	if cfg.Settings.RestrictLeaveAfterMaxLOP {
		if status.YearlyLOP.Add(shortfall).GreaterThan(status.MaxYearly) {
			return decimal.Zero, newValidationError(CodeLOPCapExceeded,
				"would exceed yearly LOP cap of %s days", status.MaxYearly)
		}
		if status.MonthlyLOP.Add(shortfall).GreaterThan(status.MaxMonthly) {
			return decimal.Zero, newValidationError(CodeLOPCapExceeded,
				"would exceed monthly LOP cap of %s days", status.MaxMonthly)
		}
	}
	return shortfall, nil
}

// overlaps reports whether [aStart,aEnd] intersects [bStart,bEnd].
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}
