// Package payments provides the closed-form installment formulas shared by
// the schedule engine. All functions are pure.
package payments

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidTerm is returned when an installment is requested for a
// non-positive term.
var ErrInvalidTerm = errors.New("term must be positive")

var one = decimal.NewFromInt(1)

// AnnuityInstallment returns the equal monthly installment for the given
// principal, monthly fractional rate and term in months:
//
//	payment = P * i * (1+i)^n / ((1+i)^n - 1)
//
// When the rate is zero the payment simplifies to P/n. Divisions are
// performed at the supplied precision.
func AnnuityInstallment(principal, monthlyRate decimal.Decimal, term int, precision int32) (decimal.Decimal, error) {
	if term <= 0 {
		return decimal.Zero, ErrInvalidTerm
	}
	n := decimal.NewFromInt(int64(term))
	if monthlyRate.IsZero() {
		return principal.DivRound(n, precision), nil
	}
	factor := one.Add(monthlyRate).Pow(n)
	numerator := principal.Mul(monthlyRate).Mul(factor)
	return numerator.DivRound(factor.Sub(one), precision), nil
}

// DecreasingComponents returns the fixed per-period principal component and
// the current-period total payment for an equal-principal loan. The payment
// is the component plus one month of interest on the full principal.
func DecreasingComponents(principal, monthlyRate decimal.Decimal, term int, precision int32) (component, payment decimal.Decimal, err error) {
	if term <= 0 {
		return decimal.Zero, decimal.Zero, ErrInvalidTerm
	}
	component = principal.DivRound(decimal.NewFromInt(int64(term)), precision)
	payment = component.Add(principal.Mul(monthlyRate))
	return component, payment, nil
}

// Interest returns one month of simple interest on a balance.
func Interest(balance, monthlyRate decimal.Decimal) decimal.Decimal {
	return balance.Mul(monthlyRate)
}
