package payroll

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/money"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// inRange reports whether the entry's local check-in date lies within
// [start, end]. The end date is inclusive up to the end of that day.
func inRange(entry payroll.TimeEntry, startDate, endDate string) bool {
	date := entry.CheckIn.Format(dateLayout)
	return date >= startDate && date <= endDate
}

// qualifies reports whether an entry is closed, positive and dated inside the range.
func qualifies(entry payroll.TimeEntry, startDate, endDate string) bool {
	return entry.IsClosed() && entry.CheckOut.After(entry.CheckIn) && inRange(entry, startDate, endDate)
}

// AggregateEmployee groups one employee's entries by local check-in date, prices
// every day and sums the cycle totals.
func AggregateEmployee(entries []payroll.TimeEntry, rates payroll.EmployeeRates, start, end time.Time, policy RatePolicy) payroll.EmployeeCalculation {
	startDate := start.Format(dateLayout)
	endDate := end.Format(dateLayout)

	byDate := make(map[string][]payroll.TimeEntry)
	for _, entry := range entries {
		if !entry.IsClosed() || !inRange(entry, startDate, endDate) {
			continue
		}
		date := entry.CheckIn.Format(dateLayout)
		byDate[date] = append(byDate[date], entry)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	result := payroll.EmployeeCalculation{
		EmployeeID: rates.EmployeeID,
		BranchID:   rates.BranchID,
		TotalHours: decimal.Zero,
		BasePay:    decimal.Zero,
		Days:       make([]payroll.DayCalculation, 0, len(dates)),
	}

	hourly, daily := 0, 0
	for _, date := range dates {
		day, ok := CalculateDay(date, byDate[date], rates, policy)
		if !ok {
			continue
		}
		result.Days = append(result.Days, day)
		result.TotalHours = money.Sum(result.TotalHours, day.Hours)
		result.BasePay = money.Sum(result.BasePay, day.Pay)
		switch day.Method {
		case payroll.MethodDaily:
			daily++
		default:
			hourly++
		}
	}
	result.TotalDaysWorked = len(result.Days)
	result.Method = classify(hourly, daily)

	return result
}

func classify(hourlyDays, dailyDays int) payroll.CalculationMethod {
	switch {
	case dailyDays == 0:
		return payroll.MethodHourly
	case hourlyDays == 0:
		return payroll.MethodDaily
	default:
		return payroll.MethodMixed
	}
}

// CycleCalculation is the outcome of aggregating every employee of a cycle.
type CycleCalculation struct {
	// Employees with at least one worked day, ordered by employee id.
	Employees []payroll.EmployeeCalculation
	// Employees with rates but no qualifying day in the range.
	Idle []string
	// Employees with qualifying entries in the range but no active rates record.
	Unknown []string
}

// AggregateCycle runs AggregateEmployee for every employee concurrently. Employees
// share no mutable state so the only bound is the worker limit.
func AggregateCycle(ctx context.Context, entries []payroll.TimeEntry, rates []payroll.EmployeeRates, start, end time.Time, policy RatePolicy, workers int) (CycleCalculation, error) {
	byEmployee := make(map[string][]payroll.TimeEntry)
	for _, entry := range entries {
		byEmployee[entry.EmployeeID] = append(byEmployee[entry.EmployeeID], entry)
	}

	sorted := make([]payroll.EmployeeRates, len(rates))
	copy(sorted, rates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].EmployeeID < sorted[j].EmployeeID })

	results := make([]payroll.EmployeeCalculation, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, r := range sorted {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = AggregateEmployee(byEmployee[r.EmployeeID], r, start, end, policy)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return CycleCalculation{}, err
	}

	var out CycleCalculation
	known := make(map[string]bool, len(sorted))
	for _, res := range results {
		known[res.EmployeeID] = true
		if res.TotalDaysWorked == 0 {
			out.Idle = append(out.Idle, res.EmployeeID)
			continue
		}
		out.Employees = append(out.Employees, res)
	}
	startDate := start.Format(dateLayout)
	endDate := end.Format(dateLayout)
	for employeeID, employeeEntries := range byEmployee {
		if known[employeeID] {
			continue
		}
		for _, e := range employeeEntries {
			if qualifies(e, startDate, endDate) {
				out.Unknown = append(out.Unknown, employeeID)
				break
			}
		}
	}
	sort.Strings(out.Unknown)

	return out, nil
}
