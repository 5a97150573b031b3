package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(date string, hour, minute int) time.Time {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func entry(employeeID string, checkIn time.Time, span time.Duration) payroll.TimeEntry {
	out := checkIn.Add(span)
	return payroll.TimeEntry{
		ID:         employeeID + "-" + checkIn.Format(time.RFC3339),
		EmployeeID: employeeID,
		BranchID:   "branch-1",
		CheckIn:    checkIn,
		CheckOut:   &out,
	}
}

func testRates(employeeID string) payroll.EmployeeRates {
	return payroll.EmployeeRates{
		EmployeeID: employeeID,
		BranchID:   "branch-1",
		HourlyRate: dec("50"),
		DailyRate:  dec("800"),
	}
}

func TestCalculateDay_SameDayEntriesAreSummed(t *testing.T) {
	entries := []payroll.TimeEntry{
		entry("emp-1", at("2025-01-06", 8, 0), 2*time.Hour),
		entry("emp-1", at("2025-01-06", 11, 0), 2*time.Hour),
		entry("emp-1", at("2025-01-06", 14, 0), 90*time.Minute),
	}

	day, ok := CalculateDay("2025-01-06", entries, testRates("emp-1"), DefaultRatePolicy())

	require.True(t, ok)
	assert.Equal(t, "2025-01-06", day.Date)
	assert.True(t, day.Hours.Equal(dec("5.5")), "hours = %s", day.Hours)
	assert.Equal(t, payroll.MethodHourly, day.Method)
	assert.True(t, day.Pay.Equal(dec("275.00")), "pay = %s", day.Pay)
}

func TestCalculateDay_LongShiftPaysDailyRate(t *testing.T) {
	entries := []payroll.TimeEntry{entry("emp-1", at("2025-01-06", 6, 0), 13*time.Hour)}

	day, ok := CalculateDay("2025-01-06", entries, testRates("emp-1"), DefaultRatePolicy())

	require.True(t, ok)
	assert.True(t, day.Hours.Equal(dec("13")))
	assert.Equal(t, payroll.MethodDaily, day.Method)
	assert.True(t, day.Pay.Equal(dec("800")), "pay = %s", day.Pay)
}

func TestCalculateDay_TwelveHoursStaysHourly(t *testing.T) {
	entries := []payroll.TimeEntry{entry("emp-1", at("2025-01-06", 6, 0), 12*time.Hour)}

	day, ok := CalculateDay("2025-01-06", entries, testRates("emp-1"), DefaultRatePolicy())

	require.True(t, ok)
	assert.Equal(t, payroll.MethodHourly, day.Method)
	assert.True(t, day.Pay.Equal(dec("600")), "pay = %s", day.Pay)
}

func TestCalculateDay_DailyPayDoesNotGrowWithHours(t *testing.T) {
	policy := DefaultRatePolicy()
	rates := testRates("emp-1")

	short, ok := CalculateDay("2025-01-06", []payroll.TimeEntry{entry("emp-1", at("2025-01-06", 6, 0), 13*time.Hour)}, rates, policy)
	require.True(t, ok)
	long, ok := CalculateDay("2025-01-06", []payroll.TimeEntry{entry("emp-1", at("2025-01-06", 1, 0), 20*time.Hour)}, rates, policy)
	require.True(t, ok)

	assert.True(t, short.Pay.Equal(long.Pay))
}

func TestCalculateDay_SkipsUnusablePairs(t *testing.T) {
	open := payroll.TimeEntry{EmployeeID: "emp-1", CheckIn: at("2025-01-06", 8, 0)}
	reversed := entry("emp-1", at("2025-01-06", 12, 0), -time.Hour)
	zero := entry("emp-1", at("2025-01-06", 13, 0), 0)
	good := entry("emp-1", at("2025-01-06", 14, 0), 3*time.Hour)

	day, ok := CalculateDay("2025-01-06", []payroll.TimeEntry{open, reversed, zero, good}, testRates("emp-1"), DefaultRatePolicy())

	require.True(t, ok)
	assert.True(t, day.Hours.Equal(dec("3")))
	assert.True(t, day.Pay.Equal(dec("150")))
}

func TestCalculateDay_NoQualifyingEntries(t *testing.T) {
	open := payroll.TimeEntry{EmployeeID: "emp-1", CheckIn: at("2025-01-06", 8, 0)}

	_, ok := CalculateDay("2025-01-06", []payroll.TimeEntry{open}, testRates("emp-1"), DefaultRatePolicy())

	assert.False(t, ok)
}

func TestCalculateDay_HoursRoundedBeforePricing(t *testing.T) {
	// 20 minutes is 0.333... hours, rounded to 0.33 before the rate applies.
	entries := []payroll.TimeEntry{entry("emp-1", at("2025-01-06", 8, 0), 20*time.Minute)}

	day, ok := CalculateDay("2025-01-06", entries, testRates("emp-1"), DefaultRatePolicy())

	require.True(t, ok)
	assert.True(t, day.Hours.Equal(dec("0.33")))
	assert.True(t, day.Pay.Equal(dec("16.5")), "pay = %s", day.Pay)
}

func TestLongShiftPolicy_CustomThreshold(t *testing.T) {
	policy := LongShiftPolicy{Threshold: dec("8")}

	method, pay := policy.Price(dec("9"), testRates("emp-1"))

	assert.Equal(t, payroll.MethodDaily, method)
	assert.True(t, pay.Equal(dec("800")))
}

func TestRatePolicyFunc(t *testing.T) {
	flat := RatePolicyFunc(func(hours decimal.Decimal, rates payroll.EmployeeRates) (payroll.CalculationMethod, decimal.Decimal) {
		return payroll.MethodDaily, rates.DailyRate
	})
	entries := []payroll.TimeEntry{entry("emp-1", at("2025-01-06", 8, 0), time.Hour)}

	day, ok := CalculateDay("2025-01-06", entries, testRates("emp-1"), flat)

	require.True(t, ok)
	assert.Equal(t, payroll.MethodDaily, day.Method)
	assert.True(t, day.Pay.Equal(dec("800")))
}
