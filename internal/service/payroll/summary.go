package payroll

import (
	"sort"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/money"
	"github.com/shopspring/decimal"
)

// SummaryContext carries what the builder needs beyond the details themselves.
type SummaryContext struct {
	// ExpectedEmployees have qualifying time entries inside the cycle range.
	ExpectedEmployees []string
	// UnratedEmployees have qualifying time entries but no active employee record
	// to price them with.
	UnratedEmployees []string
	// KnownEmployees is the employee set of the rates collaborator. A nil map
	// disables the dangling-reference check.
	KnownEmployees map[string]bool
}

// BuildSummary aggregates a cycle's details into totals, a branch breakdown and
// a validation report. It never fails and never mutates its inputs; problems are
// reported as issues.
func BuildSummary(cycle payroll.PayrollCycle, details []payroll.PayrollDetail, sc SummaryContext) payroll.CycleSummary {
	sorted := make([]payroll.PayrollDetail, len(details))
	copy(sorted, details)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EmployeeID < sorted[j].EmployeeID })

	issues := make([]payroll.ValidationIssue, 0)
	totals := zeroTotals()
	branches := make(map[string]*payroll.BranchSubtotal)
	covered := make(map[string]bool, len(sorted))

	for _, d := range sorted {
		covered[d.EmployeeID] = true

		if sc.KnownEmployees != nil && !sc.KnownEmployees[d.EmployeeID] {
			issues = append(issues, payroll.ValidationIssue{
				EmployeeID: d.EmployeeID,
				DetailID:   d.ID,
				Type:       payroll.IssueMissingData,
				Message:    "payroll detail references an unknown employee",
			})
			continue
		}

		net := d.NetPay()
		if net.IsNegative() {
			issues = append(issues, payroll.ValidationIssue{
				EmployeeID: d.EmployeeID,
				DetailID:   d.ID,
				Type:       payroll.IssueNegativeNetPay,
				Message:    "net pay is negative: " + net.StringFixed(money.Places),
			})
		}
		if d.BasePay.IsZero() && d.TotalDaysWorked == 0 {
			issues = append(issues, payroll.ValidationIssue{
				EmployeeID: d.EmployeeID,
				DetailID:   d.ID,
				Type:       payroll.IssueMissingData,
				Message:    "no base pay and no worked days",
			})
		}

		totals.TotalEmployees++
		totals.TotalBasePay = totals.TotalBasePay.Add(d.BasePay)
		totals.TotalOvertime = totals.TotalOvertime.Add(d.OvertimePay)
		totals.TotalBonus = totals.TotalBonus.Add(d.Bonus)
		totals.TotalDeduction = totals.TotalDeduction.Add(d.Deduction)
		totals.TotalNetPay = totals.TotalNetPay.Add(net)

		b, ok := branches[d.BranchID]
		if !ok {
			b = &payroll.BranchSubtotal{
				BranchID:       d.BranchID,
				TotalBasePay:   decimal.Zero,
				TotalOvertime:  decimal.Zero,
				TotalBonus:     decimal.Zero,
				TotalDeduction: decimal.Zero,
				TotalNetPay:    decimal.Zero,
			}
			branches[d.BranchID] = b
		}
		b.TotalEmployees++
		b.TotalBasePay = b.TotalBasePay.Add(d.BasePay)
		b.TotalOvertime = b.TotalOvertime.Add(d.OvertimePay)
		b.TotalBonus = b.TotalBonus.Add(d.Bonus)
		b.TotalDeduction = b.TotalDeduction.Add(d.Deduction)
		b.TotalNetPay = b.TotalNetPay.Add(net)
	}

	if cycle.Status == payroll.CycleStatusActive {
		expected := make([]string, len(sc.ExpectedEmployees))
		copy(expected, sc.ExpectedEmployees)
		sort.Strings(expected)
		for _, employeeID := range expected {
			if covered[employeeID] {
				continue
			}
			covered[employeeID] = true
			issues = append(issues, payroll.ValidationIssue{
				EmployeeID: employeeID,
				Type:       payroll.IssueMissingData,
				Message:    "employee has time entries but no payroll detail",
			})
		}
	}

	if cycle.Status == payroll.CycleStatusActive {
		unrated := make([]string, len(sc.UnratedEmployees))
		copy(unrated, sc.UnratedEmployees)
		sort.Strings(unrated)
		for _, employeeID := range unrated {
			if covered[employeeID] {
				continue
			}
			covered[employeeID] = true
			issues = append(issues, payroll.ValidationIssue{
				EmployeeID: employeeID,
				Type:       payroll.IssueMissingData,
				Message:    "employee has time entries but no active employee record",
			})
		}
	}

	totals.AverageNetPay = money.Average(totals.TotalNetPay, totals.TotalEmployees)

	breakdown := make([]payroll.BranchSubtotal, 0, len(branches))
	for _, b := range branches {
		breakdown = append(breakdown, *b)
	}
	sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].BranchID < breakdown[j].BranchID })

	return payroll.CycleSummary{
		CycleID:   cycle.ID,
		CycleName: cycle.Name,
		Status:    cycle.Status,
		Totals:    totals,
		Validation: payroll.CycleValidation{
			CanFinalize: cycle.Status == payroll.CycleStatusActive && len(issues) == 0 && totals.TotalEmployees > 0,
			Issues:      issues,
		},
		BranchBreakdown: breakdown,
	}
}

// FrozenSummary rebuilds the summary of a completed cycle from its audit snapshot.
func FrozenSummary(cycle payroll.PayrollCycle, audit payroll.FinalizationAudit) payroll.CycleSummary {
	breakdown := audit.BranchBreakdown
	if breakdown == nil {
		breakdown = []payroll.BranchSubtotal{}
	}
	return payroll.CycleSummary{
		CycleID:   cycle.ID,
		CycleName: cycle.Name,
		Status:    cycle.Status,
		Totals:    audit.Totals,
		Validation: payroll.CycleValidation{
			CanFinalize: false,
			Issues:      []payroll.ValidationIssue{},
		},
		BranchBreakdown: breakdown,
		Frozen:          true,
	}
}

func zeroTotals() payroll.CycleTotals {
	return payroll.CycleTotals{
		TotalBasePay:   decimal.Zero,
		TotalOvertime:  decimal.Zero,
		TotalBonus:     decimal.Zero,
		TotalDeduction: decimal.Zero,
		TotalNetPay:    decimal.Zero,
		AverageNetPay:  decimal.Zero,
	}
}
