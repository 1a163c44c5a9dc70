// Package decmath provides decimal arithmetic helpers for currency values.
package decmath

import (
	"github.com/shopspring/decimal"

	"github.com/loantools/loancalc/pkg/constants"
)

var (
	// BalanceEpsilon is the remaining-balance threshold below which a loan
	// counts as paid off.
	BalanceEpsilon = decimal.RequireFromString(constants.BalanceEpsilon)

	// DustThreshold is the half-cent magnitude below which a post-payment
	// balance is snapped to exactly zero.
	DustThreshold = decimal.RequireFromString(constants.DustThreshold)
)

// RoundCents rounds a value to two decimals, i.e. to represent real currency.
// Used for display and for logical comparisons, never inside the simulation
// arithmetic itself.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsDust reports whether the magnitude of a value is below the half-cent
// threshold.
func IsDust(d decimal.Decimal) bool {
	return d.Abs().LessThan(DustThreshold)
}

// AbovePayoffEpsilon reports whether a balance is still large enough to owe.
func AbovePayoffEpsilon(d decimal.Decimal) bool {
	return d.GreaterThan(BalanceEpsilon)
}

// MonthlyRate converts an annual nominal percentage rate (e.g. 3.5 meaning
// 3.5%) to a monthly fractional rate, dividing at the given precision.
func MonthlyRate(annualPercent decimal.Decimal, precision int32) decimal.Decimal {
	divisor := decimal.NewFromInt(constants.PercentageMultiplier * constants.MonthsPerYear)
	return annualPercent.DivRound(divisor, precision)
}

// Max returns the larger of two decimals.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
