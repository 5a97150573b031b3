// Package money holds the fixed-point rounding rules shared by pay figures.
package money

import "github.com/shopspring/decimal"

// Places is the number of fractional digits kept for amounts and hours.
const Places = 2

// Round2 rounds half away from zero to two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Sum adds values and rounds the result to two decimal places.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return Round2(total)
}

// Average returns total / count rounded to two places, or zero when count is 0.
func Average(total decimal.Decimal, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return Round2(total.Div(decimal.NewFromInt(int64(count))))
}
