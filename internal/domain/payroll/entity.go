package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// CycleStatus enum
type CycleStatus string

const (
	CycleStatusActive    CycleStatus = "active"
	CycleStatusCompleted CycleStatus = "completed"
)

// CalculationMethod describes which pay rule applied to a day or a cycle.
type CalculationMethod string

const (
	MethodHourly CalculationMethod = "hourly"
	MethodDaily  CalculationMethod = "daily"
	MethodMixed  CalculationMethod = "mixed"
)

// IssueType enum
type IssueType string

const (
	IssueNegativeNetPay IssueType = "negative_net_pay"
	IssueMissingData    IssueType = "missing_data"
)

// MaxCycleLength is the longest span allowed between a cycle's start and end date.
const MaxCycleLength = 365 * 24 * time.Hour

// MaxReasonLength is the maximum length of a bonus or deduction reason, in characters.
const MaxReasonLength = 500

// MaxAmountDigits is the number of integer digits a stored amount can hold (NUMERIC(14,2)).
const MaxAmountDigits = 12

// TimeEntry - Closed attendance record consumed from the attendance subsystem
type TimeEntry struct {
	ID         string
	EmployeeID string
	BranchID   string
	CheckIn    time.Time
	CheckOut   *time.Time
}

// IsClosed reports whether the entry has both timestamps.
func (e TimeEntry) IsClosed() bool {
	return !e.CheckIn.IsZero() && e.CheckOut != nil && !e.CheckOut.IsZero()
}

// EmployeeRates - Rate snapshot taken at calculation time
type EmployeeRates struct {
	EmployeeID   string
	EmployeeName *string
	BranchID     string
	HourlyRate   decimal.Decimal
	DailyRate    decimal.Decimal
}

// DayCalculation - Transient result for one employee on one calendar day
type DayCalculation struct {
	Date   string
	Hours  decimal.Decimal
	Method CalculationMethod
	Pay    decimal.Decimal
}

// EmployeeCalculation - Aggregated result for one employee across a cycle
type EmployeeCalculation struct {
	EmployeeID      string
	BranchID        string
	TotalHours      decimal.Decimal
	TotalDaysWorked int
	BasePay         decimal.Decimal
	Method          CalculationMethod
	Days            []DayCalculation
}

// PayrollCycle - Payroll period holding per-employee records
type PayrollCycle struct {
	ID          string
	Name        string
	StartDate   time.Time
	EndDate     time.Time
	Status      CycleStatus
	FinalizedAt *time.Time
	FinalizedBy *string
	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsEditable reports whether details of the cycle may still change.
func (c PayrollCycle) IsEditable() bool {
	return c.Status == CycleStatusActive
}

// PayrollDetail - One employee's payroll record within a cycle
type PayrollDetail struct {
	ID                string
	CycleID           string
	EmployeeID        string
	BranchID          string
	BasePay           decimal.Decimal
	OvertimePay       decimal.Decimal
	Bonus             decimal.Decimal
	BonusReason       string
	Deduction         decimal.Decimal
	DeductionReason   string
	TotalHours        decimal.Decimal
	TotalDaysWorked   int
	CalculationMethod CalculationMethod
	Version           int
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Joined fields
	EmployeeName *string
}

// NetPay is always derived from its inputs and never stored on its own.
func (d PayrollDetail) NetPay() decimal.Decimal {
	return d.BasePay.Add(d.OvertimePay).Add(d.Bonus).Sub(d.Deduction)
}

// ValidationIssue - Soft failure reported by the summary builder
type ValidationIssue struct {
	EmployeeID string    `json:"employee_id"`
	DetailID   string    `json:"detail_id,omitempty"`
	Type       IssueType `json:"type"`
	Message    string    `json:"message"`
}

// CycleTotals - Aggregated money figures of a cycle
type CycleTotals struct {
	TotalEmployees int             `json:"total_employees"`
	TotalBasePay   decimal.Decimal `json:"total_base_pay"`
	TotalOvertime  decimal.Decimal `json:"total_overtime_pay"`
	TotalBonus     decimal.Decimal `json:"total_bonus"`
	TotalDeduction decimal.Decimal `json:"total_deduction"`
	TotalNetPay    decimal.Decimal `json:"total_net_pay"`
	AverageNetPay  decimal.Decimal `json:"average_net_pay"`
}

// CycleValidation - Finalization readiness of a cycle
type CycleValidation struct {
	CanFinalize bool              `json:"can_finalize"`
	Issues      []ValidationIssue `json:"issues"`
}

// BranchSubtotal - Per-branch slice of the cycle totals
type BranchSubtotal struct {
	BranchID       string          `json:"branch_id"`
	TotalEmployees int             `json:"total_employees"`
	TotalBasePay   decimal.Decimal `json:"total_base_pay"`
	TotalOvertime  decimal.Decimal `json:"total_overtime_pay"`
	TotalBonus     decimal.Decimal `json:"total_bonus"`
	TotalDeduction decimal.Decimal `json:"total_deduction"`
	TotalNetPay    decimal.Decimal `json:"total_net_pay"`
}

// CycleSummary is derived on demand and is never a source of truth.
type CycleSummary struct {
	CycleID         string           `json:"cycle_id"`
	CycleName       string           `json:"cycle_name"`
	Status          CycleStatus      `json:"status"`
	Totals          CycleTotals      `json:"totals"`
	Validation      CycleValidation  `json:"validation"`
	BranchBreakdown []BranchSubtotal `json:"branch_breakdown"`
	Frozen          bool             `json:"frozen"`
}

// FinalizationAudit - Immutable record written when a cycle is locked
type FinalizationAudit struct {
	ID              string
	CycleID         string
	FinalizedBy     string
	FinalizedAt     time.Time
	Totals          CycleTotals
	BranchBreakdown []BranchSubtotal
	CreatedAt       time.Time
}
