package payroll

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== CYCLE DTOs ==========

type CreateCycleRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Validate checks the request and returns the parsed dates.
func (r *CreateCycleRequest) Validate() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	if okStart && okEnd {
		if msg := dateRangeProblem(start, end); msg != "" {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: msg})
		}
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	return start, end, nil
}

// ValidateDateRange enforces start < end and a span of at most one year.
func ValidateDateRange(start, end time.Time) error {
	if msg := dateRangeProblem(start, end); msg != "" {
		return fmt.Errorf("%w: %s", ErrInvalidDateRange, msg)
	}
	return nil
}

func dateRangeProblem(start, end time.Time) string {
	if !start.Before(end) {
		return "start date must be before end date"
	}
	if end.Sub(start) > MaxCycleLength {
		return "cycle cannot span more than 365 days"
	}
	return ""
}

type CycleFilter struct {
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

type CycleResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Status      string  `json:"status"`
	FinalizedAt *string `json:"finalized_at,omitempty"`
	FinalizedBy *string `json:"finalized_by,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type ListCycleResponse struct {
	Data       []CycleResponse `json:"data"`
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

// ========== CALCULATION DTOs ==========

type DayCalculationResponse struct {
	Date   string          `json:"date"`
	Hours  decimal.Decimal `json:"hours"`
	Method string          `json:"method"`
	Pay    decimal.Decimal `json:"pay"`
}

type EmployeeCalculationResponse struct {
	DetailID          string                   `json:"detail_id"`
	EmployeeID        string                   `json:"employee_id"`
	BranchID          string                   `json:"branch_id"`
	TotalHours        decimal.Decimal          `json:"total_hours"`
	TotalDaysWorked   int                      `json:"total_days_worked"`
	BasePay           decimal.Decimal          `json:"base_pay"`
	CalculationMethod string                   `json:"calculation_method"`
	Days              []DayCalculationResponse `json:"days"`
}

type CalculationResponse struct {
	CycleID   string                        `json:"cycle_id"`
	Employees []EmployeeCalculationResponse `json:"employees"`
	Totals    CycleTotals                   `json:"totals"`
}

// ========== DETAIL DTOs ==========

type DetailResponse struct {
	ID                string          `json:"id"`
	CycleID           string          `json:"cycle_id"`
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      *string         `json:"employee_name,omitempty"`
	BranchID          string          `json:"branch_id"`
	BasePay           decimal.Decimal `json:"base_pay"`
	OvertimePay       decimal.Decimal `json:"overtime_pay"`
	Bonus             decimal.Decimal `json:"bonus"`
	BonusReason       string          `json:"bonus_reason,omitempty"`
	Deduction         decimal.Decimal `json:"deduction"`
	DeductionReason   string          `json:"deduction_reason,omitempty"`
	NetPay            decimal.Decimal `json:"net_pay"`
	TotalHours        decimal.Decimal `json:"total_hours"`
	TotalDaysWorked   int             `json:"total_days_worked"`
	CalculationMethod string          `json:"calculation_method"`
	Version           int             `json:"version"`
}

// ========== ADJUSTMENT DTOs ==========

// AdjustmentKind selects the field an adjustment targets.
type AdjustmentKind string

const (
	AdjustmentBonus     AdjustmentKind = "bonus"
	AdjustmentDeduction AdjustmentKind = "deduction"
)

type AdjustmentRequest struct {
	DetailID string
	Amount   decimal.Decimal
	Reason   string
}

type PreviewRequest struct {
	DetailID string
	Kind     AdjustmentKind
	Amount   decimal.Decimal
	Reason   string
}

type PreviewResponse struct {
	DetailID       string          `json:"detail_id"`
	Kind           string          `json:"kind"`
	CurrentNetPay  decimal.Decimal `json:"current_net_pay"`
	ProposedNetPay decimal.Decimal `json:"proposed_net_pay"`
}

// maxAmountInputLength bounds the raw text handed to the decimal parser.
const maxAmountInputLength = 64

// ParseAmount parses a user supplied amount. Non-numeric and non-finite input is
// rejected as a ValidationError on "amount".
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.Trim(strings.TrimSpace(raw), `"`)
	if raw == "" || raw == "null" {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "is required"}
	}
	if len(raw) > maxAmountInputLength {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "is too long"}
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "must be a finite number"}
	}
	return amount, nil
}

// ========== FINALIZATION DTOs ==========

type FinalizationResponse struct {
	ID              string           `json:"id"`
	CycleID         string           `json:"cycle_id"`
	FinalizedBy     string           `json:"finalized_by"`
	FinalizedAt     string           `json:"finalized_at"`
	Totals          CycleTotals      `json:"totals"`
	BranchBreakdown []BranchSubtotal `json:"branch_breakdown"`
}
