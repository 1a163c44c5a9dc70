package engine

import (
	"github.com/shopspring/decimal"

	"github.com/loantools/loancalc/pkg/constants"
	"github.com/loantools/loancalc/pkg/datetime"
)

// summarize reduces a finished entry sequence to the headline metrics.
func (e *Engine) summarize(cfg Config, financed, monthlyRate decimal.Decimal, entries []ScheduleEntry, totalInterest, totalOverpayment decimal.Decimal) (Summary, error) {
	originalEnd, err := datetime.OffsetMonth(cfg.StartMonth, cfg.Term-1)
	if err != nil {
		return Summary{}, err
	}

	newEnd := cfg.StartMonth
	if len(entries) > 0 {
		newEnd = entries[len(entries)-1].Month
	}

	paymentsMade := 0
	maxPayment := decimal.Zero
	for _, entry := range entries {
		if !entry.Holiday && entry.Payment.IsPositive() {
			paymentsMade++
		}
		// Holidays have zero payment and zero overpayment, so they never
		// affect the maximum outflow.
		outflow := entry.Payment.Add(entry.Overpayment)
		if outflow.GreaterThan(maxPayment) {
			maxPayment = outflow
		}
	}

	one := decimal.NewFromInt(1)
	apr := one.Add(monthlyRate).Pow(decimal.NewFromInt(constants.MonthsPerYear)).Sub(one)

	return Summary{
		PrincipalFinanced: financed,
		TotalInterest:     totalInterest,
		TotalOverpayment:  totalOverpayment,
		TotalCost:         financed.Add(totalInterest),
		APR:               apr,
		TermMonths:        cfg.Term,
		OriginalEndDate:   originalEnd,
		NewEndDate:        newEnd,
		PaymentsMade:      paymentsMade,
		MaxPayment:        maxPayment,
	}, nil
}
