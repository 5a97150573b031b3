package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/money"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var hourNanos = decimal.NewFromInt(int64(time.Hour))

// RatePolicy prices one day's worked hours for an employee.
type RatePolicy interface {
	Price(hours decimal.Decimal, rates payroll.EmployeeRates) (payroll.CalculationMethod, decimal.Decimal)
}

// RatePolicyFunc adapts a plain function to RatePolicy.
type RatePolicyFunc func(hours decimal.Decimal, rates payroll.EmployeeRates) (payroll.CalculationMethod, decimal.Decimal)

func (f RatePolicyFunc) Price(hours decimal.Decimal, rates payroll.EmployeeRates) (payroll.CalculationMethod, decimal.Decimal) {
	return f(hours, rates)
}

// LongShiftPolicy pays the flat daily rate for any day strictly longer than
// Threshold hours and the hourly rate otherwise. A 13 hour and a 20 hour day cost the same.
type LongShiftPolicy struct {
	Threshold decimal.Decimal
}

// DefaultRatePolicy is the 12 hour long-shift rule.
func DefaultRatePolicy() LongShiftPolicy {
	return LongShiftPolicy{Threshold: decimal.NewFromInt(12)}
}

func (p LongShiftPolicy) Price(hours decimal.Decimal, rates payroll.EmployeeRates) (payroll.CalculationMethod, decimal.Decimal) {
	if hours.GreaterThan(p.Threshold) {
		return payroll.MethodDaily, rates.DailyRate
	}
	return payroll.MethodHourly, money.Round2(hours.Mul(rates.HourlyRate))
}

// pairHours returns the unrounded hours between check-in and check-out, or false
// when the pair cannot contribute (open entry, zero timestamp, non-positive span).
func pairHours(entry payroll.TimeEntry) (decimal.Decimal, bool) {
	if !entry.IsClosed() {
		return decimal.Zero, false
	}
	span := entry.CheckOut.Sub(entry.CheckIn)
	if span <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(int64(span)).Div(hourNanos), true
}

// CalculateDay prices all of one employee's entries sharing a calendar day.
// It returns false when none of the entries qualify, in which case the day is
// not part of the output at all.
func CalculateDay(date string, entries []payroll.TimeEntry, rates payroll.EmployeeRates, policy RatePolicy) (payroll.DayCalculation, bool) {
	total := decimal.Zero
	qualifying := 0
	for _, entry := range entries {
		hours, ok := pairHours(entry)
		if !ok {
			continue
		}
		total = total.Add(hours)
		qualifying++
	}
	if qualifying == 0 {
		return payroll.DayCalculation{}, false
	}

	hours := money.Round2(total)
	method, pay := policy.Price(hours, rates)

	return payroll.DayCalculation{
		Date:   date,
		Hours:  hours,
		Method: method,
		Pay:    pay,
	}, true
}
