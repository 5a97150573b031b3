package payroll

import (
	"strings"
	"unicode/utf8"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/money"
	"github.com/shopspring/decimal"
)

// validateAdjustment checks amount and reason and returns the amount and reason to store.
func validateAdjustment(amount decimal.Decimal, reason string) (decimal.Decimal, string, error) {
	if amount.IsZero() {
		return decimal.Zero, "", nil
	}
	if amount.IsNegative() {
		return amount, "", &payroll.ValidationError{Field: "amount", Message: "must be a non-negative number"}
	}
	if err := checkAmountRange(amount); err != nil {
		return amount, "", err
	}
	if !money.Round2(amount).Equal(amount) {
		return amount, "", &payroll.ValidationError{Field: "amount", Message: "must have at most 2 decimal places"}
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return amount, "", &payroll.ValidationError{Field: "reason", Message: "is required when amount is greater than zero"}
	}
	if utf8.RuneCountInString(reason) > payroll.MaxReasonLength {
		return amount, "", &payroll.ValidationError{Field: "reason", Message: "must be at most 500 characters"}
	}
	return amount, reason, nil
}

// maxAmountScale bounds the fractional digits accepted before rounding is attempted.
const maxAmountScale = 18

// checkAmountRange rejects amounts the detail columns cannot hold. It works on
// the exponent and digit count only, so absurd input such as 1e1000000000 is
// refused before anything is rescaled.
func checkAmountRange(amount decimal.Decimal) error {
	exp := amount.Exponent()
	if exp < -maxAmountScale {
		return &payroll.ValidationError{Field: "amount", Message: "must have at most 2 decimal places"}
	}
	if exp >= payroll.MaxAmountDigits || int(exp)+amount.NumDigits() > payroll.MaxAmountDigits {
		return &payroll.ValidationError{Field: "amount", Message: "must be less than 1000000000000"}
	}
	return nil
}

// SetBonus returns a copy of detail with the bonus replaced. The input is never modified.
func SetBonus(detail payroll.PayrollDetail, amount decimal.Decimal, reason string) (payroll.PayrollDetail, error) {
	amount, stored, err := validateAdjustment(amount, reason)
	if err != nil {
		return detail, err
	}
	detail.Bonus = amount
	detail.BonusReason = stored
	return detail, nil
}

// SetDeduction returns a copy of detail with the deduction replaced.
func SetDeduction(detail payroll.PayrollDetail, amount decimal.Decimal, reason string) (payroll.PayrollDetail, error) {
	amount, stored, err := validateAdjustment(amount, reason)
	if err != nil {
		return detail, err
	}
	detail.Deduction = amount
	detail.DeductionReason = stored
	return detail, nil
}

func ClearBonus(detail payroll.PayrollDetail) payroll.PayrollDetail {
	detail.Bonus = decimal.Zero
	detail.BonusReason = ""
	return detail
}

func ClearDeduction(detail payroll.PayrollDetail) payroll.PayrollDetail {
	detail.Deduction = decimal.Zero
	detail.DeductionReason = ""
	return detail
}

// ApplyAdjustment dispatches on kind.
func ApplyAdjustment(detail payroll.PayrollDetail, kind payroll.AdjustmentKind, amount decimal.Decimal, reason string) (payroll.PayrollDetail, error) {
	switch kind {
	case payroll.AdjustmentBonus:
		return SetBonus(detail, amount, reason)
	case payroll.AdjustmentDeduction:
		return SetDeduction(detail, amount, reason)
	default:
		return detail, &payroll.ValidationError{Field: "kind", Message: "must be 'bonus' or 'deduction'"}
	}
}

// PreviewNetPay returns the net pay detail would have after the adjustment,
// without committing anything.
func PreviewNetPay(detail payroll.PayrollDetail, kind payroll.AdjustmentKind, amount decimal.Decimal, reason string) (decimal.Decimal, error) {
	next, err := ApplyAdjustment(detail, kind, amount, reason)
	if err != nil {
		return decimal.Zero, err
	}
	return next.NetPay(), nil
}
