package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// ErrUnauthorized is returned by the auth middleware when no usable access token is present.
var ErrUnauthorized = errors.New("missing or invalid access token")

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var fieldErr *payroll.ValidationError
	if errors.As(err, &fieldErr) {
		ValidationError(w, fieldErr.Fields().ToMap())
		return
	}

	var failed *payroll.ValidationFailedError
	if errors.As(err, &failed) {
		UnprocessableWithIssues(w, "VALIDATION_FAILED", "Payroll cycle has unresolved issues", failed.Issues)
		return
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		Unauthorized(w, err.Error())

	// Payroll domain errors
	case errors.Is(err, payroll.ErrCycleNotFound):
		NotFound(w, "Payroll cycle not found")
	case errors.Is(err, payroll.ErrDetailNotFound):
		NotFound(w, "Payroll detail not found")
	case errors.Is(err, payroll.ErrAuditNotFound):
		NotFound(w, "Payroll cycle has not been finalized")
	case errors.Is(err, payroll.ErrFinalizedCycle):
		Locked(w, "Payroll cycle is finalized and locked")
	case errors.Is(err, payroll.ErrAlreadyFinalized):
		Conflict(w, "Payroll cycle already finalized")
	case errors.Is(err, payroll.ErrConcurrentModification):
		Conflict(w, "Payroll record was modified by another request, reload and retry")
	case errors.Is(err, payroll.ErrInvalidTransition):
		Conflict(w, "Payroll cycle cannot move to the requested status")
	case errors.Is(err, payroll.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrActorRequired):
		Unauthorized(w, "Actor identity is required")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
