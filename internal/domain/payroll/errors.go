package payroll

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

var (
	ErrCycleNotFound          = errors.New("payroll cycle not found")
	ErrDetailNotFound         = errors.New("payroll detail not found")
	ErrAuditNotFound          = errors.New("finalization record not found")
	ErrInvalidDateRange       = errors.New("invalid payroll cycle date range")
	ErrFinalizedCycle         = errors.New("payroll cycle is finalized and locked")
	ErrAlreadyFinalized       = errors.New("payroll cycle already finalized")
	ErrConcurrentModification = errors.New("payroll record was modified concurrently")
	ErrInvalidTransition      = errors.New("invalid payroll cycle status transition")
	ErrActorRequired          = errors.New("actor identity is required to finalize")
)

// ValidationError reports the single field at fault in an adjustment.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Fields converts the error into the shared validator form so transports can render it.
func (e *ValidationError) Fields() validator.ValidationErrors {
	return validator.ValidationErrors{{Field: e.Field, Message: e.Message}}
}

// ValidationFailedError is returned by finalize when the summary still has issues.
type ValidationFailedError struct {
	Issues []ValidationIssue
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("payroll cycle cannot be finalized: %d validation issue(s)", len(e.Issues))
}
