// Package engine implements the amortization schedule engine: it consumes an
// immutable loan Config and produces the ordered schedule entries together
// with the aggregated summary.
package engine

import (
	"github.com/shopspring/decimal"

	"github.com/loantools/loancalc/pkg/constants"
)

// OverpaymentKind selects how an extra principal payment reshapes the
// schedule.
type OverpaymentKind string

const (
	// KindTerm keeps the installment unchanged and shortens the remaining
	// term.
	KindTerm OverpaymentKind = constants.OverpaymentTerm

	// KindInstallment re-amortizes the remaining balance and lowers future
	// installments.
	KindInstallment OverpaymentKind = constants.OverpaymentInstallment
)

// Tranche is a scheduled partial disbursement of loan principal, expressed
// as the cumulative fraction of the financed principal released by Month.
type Tranche struct {
	Month             string // YYYY-MM
	CumulativePercent decimal.Decimal
}

// Overpayment is an extra principal payment applied in a given month.
// Multiple overpayments may share a month; they sum.
type Overpayment struct {
	Month  string // YYYY-MM
	Amount decimal.Decimal
	Kind   OverpaymentKind
}

// Config describes one loan scenario. It is constructed once by a
// collaborator and never mutated by the engine.
type Config struct {
	Name          string
	Principal     decimal.Decimal
	DownPayment   decimal.Decimal
	Rate          decimal.Decimal // annual nominal rate in percent
	Term          int             // months
	StartMonth    string          // YYYY-MM, first payment month
	LoanType      string          // annuity or decreasing
	Tranches      []Tranche
	Overpayments  []Overpayment
	Holidays      []string // YYYY-MM payment-free months
	TargetPayment *decimal.Decimal
}

// FinancedPrincipal is the principal net of the down payment, the unit
// against which tranche percentages apply.
func (c Config) FinancedPrincipal() decimal.Decimal {
	return c.Principal.Sub(c.DownPayment)
}

// ScheduleEntry is one simulated month. Entries are append-only outputs of
// the engine and are never revised after being emitted.
type ScheduleEntry struct {
	Period           int
	Month            string // YYYY-MM
	StartingBalance  decimal.Decimal
	Payment          decimal.Decimal
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	Overpayment      decimal.Decimal
	EndingBalance    decimal.Decimal
	TrancheDisbursed decimal.Decimal
	Holiday          bool
}

// Summary holds the headline metrics derived from a full schedule. The JSON
// key set is the stable boundary that all export and rendering collaborators
// depend on.
type Summary struct {
	PrincipalFinanced decimal.Decimal `json:"principal_financed"`
	TotalInterest     decimal.Decimal `json:"total_interest"`
	TotalOverpayment  decimal.Decimal `json:"total_overpayment"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	APR               decimal.Decimal `json:"apr"`
	TermMonths        int             `json:"term_months"`
	OriginalEndDate   string          `json:"original_end_date"`
	NewEndDate        string          `json:"new_end_date"`
	PaymentsMade      int             `json:"payments_made"`
	MaxPayment        decimal.Decimal `json:"max_payment"`
}

// Result is the immutable output of one engine invocation.
type Result struct {
	Entries []ScheduleEntry
	Summary Summary
}
