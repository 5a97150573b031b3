package payroll

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

// transitions lists every allowed status change. Completed is terminal and
// there is no reopen.
var transitions = map[payroll.CycleStatus][]payroll.CycleStatus{
	payroll.CycleStatusActive: {payroll.CycleStatusCompleted},
}

// CanTransition reports whether a cycle may move from one status to another.
func CanTransition(from, to payroll.CycleStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckFinalizable evaluates the finalize preconditions against a freshly built summary.
func CheckFinalizable(cycle payroll.PayrollCycle, summary payroll.CycleSummary) error {
	if cycle.Status == payroll.CycleStatusCompleted {
		return payroll.ErrAlreadyFinalized
	}
	if !CanTransition(cycle.Status, payroll.CycleStatusCompleted) {
		return payroll.ErrInvalidTransition
	}
	if !summary.Validation.CanFinalize {
		issues := make([]payroll.ValidationIssue, len(summary.Validation.Issues))
		copy(issues, summary.Validation.Issues)
		return &payroll.ValidationFailedError{Issues: issues}
	}
	return nil
}
