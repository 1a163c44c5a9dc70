package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/loantools/loancalc/internal/engine"
	"github.com/loantools/loancalc/pkg/constants"
	"github.com/loantools/loancalc/pkg/datetime"
)

// ParseAmount parses a monetary string. Comma separators are ignored and the
// shorthand suffixes k and m scale by a thousand and a million, so "500k"
// parses as 500000 and "1.5m" as 1500000.
func ParseAmount(value string) (decimal.Decimal, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, ",", "")
	factor := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(v, "k"):
		factor = decimal.NewFromInt(1_000)
		v = strings.TrimSuffix(v, "k")
	case strings.HasSuffix(v, "m"):
		factor = decimal.NewFromInt(1_000_000)
		v = strings.TrimSuffix(v, "m")
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return d.Mul(factor), nil
}

// ParsePercent parses a percentage string into a fraction. "80", "80%" and
// "0.8" all parse to 0.8; values greater than 1 are treated as percent
// points.
func ParsePercent(value string) (decimal.Decimal, error) {
	v := strings.TrimSpace(value)
	v = strings.TrimSuffix(v, "%")
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid percentage %q: %w", value, err)
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		d = d.Shift(-2)
	}
	return d, nil
}

// ParseTranche parses a "YYYY-MM:PERCENT" pair into a Tranche.
func ParseTranche(value string) (engine.Tranche, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return engine.Tranche{}, fmt.Errorf("tranche must be in YYYY-MM:PERCENT format, got %q", value)
	}
	if _, err := datetime.ParseMonth(parts[0]); err != nil {
		return engine.Tranche{}, fmt.Errorf("tranche %q: %w", value, err)
	}
	percent, err := ParsePercent(parts[1])
	if err != nil {
		return engine.Tranche{}, fmt.Errorf("tranche %q: %w", value, err)
	}
	return engine.Tranche{Month: parts[0], CumulativePercent: percent}, nil
}

// ParseOverpayment parses a "YYYY-MM:AMOUNT:KIND" triple into an
// Overpayment. Kind is either "term" or "installment".
func ParseOverpayment(value string) (engine.Overpayment, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return engine.Overpayment{}, fmt.Errorf("overpayment must be in YYYY-MM:AMOUNT:KIND format, got %q", value)
	}
	if _, err := datetime.ParseMonth(parts[0]); err != nil {
		return engine.Overpayment{}, fmt.Errorf("overpayment %q: %w", value, err)
	}
	amount, err := ParseAmount(parts[1])
	if err != nil {
		return engine.Overpayment{}, fmt.Errorf("overpayment %q: %w", value, err)
	}
	kind, err := parseOverpaymentKind(parts[2])
	if err != nil {
		return engine.Overpayment{}, fmt.Errorf("overpayment %q: %w", value, err)
	}
	return engine.Overpayment{Month: parts[0], Amount: amount, Kind: kind}, nil
}

// ParseHoliday validates a bare YYYY-MM holiday month.
func ParseHoliday(value string) (string, error) {
	v := strings.TrimSpace(value)
	if _, err := datetime.ParseMonth(v); err != nil {
		return "", fmt.Errorf("holiday %q: %w", value, err)
	}
	return v, nil
}

func parseOverpaymentKind(value string) (engine.OverpaymentKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case constants.OverpaymentTerm:
		return engine.KindTerm, nil
	case constants.OverpaymentInstallment:
		return engine.KindInstallment, nil
	default:
		return "", fmt.Errorf("overpayment kind must be %q or %q, got %q",
			constants.OverpaymentTerm, constants.OverpaymentInstallment, value)
	}
}

// expandMonthlyOverpayment turns an "AMOUNT:KIND" recurring overpayment into
// one overpayment per month across the whole term starting at startMonth.
func expandMonthlyOverpayment(value, startMonth string, term int) ([]engine.Overpayment, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("monthly overpayment must be in AMOUNT:KIND format, got %q", value)
	}
	amount, err := ParseAmount(parts[0])
	if err != nil {
		return nil, fmt.Errorf("monthly overpayment %q: %w", value, err)
	}
	kind, err := parseOverpaymentKind(parts[1])
	if err != nil {
		return nil, fmt.Errorf("monthly overpayment %q: %w", value, err)
	}
	overpayments := make([]engine.Overpayment, 0, term)
	for i := 0; i < term; i++ {
		month, err := datetime.OffsetMonth(startMonth, i)
		if err != nil {
			return nil, err
		}
		overpayments = append(overpayments, engine.Overpayment{Month: month, Amount: amount, Kind: kind})
	}
	return overpayments, nil
}
