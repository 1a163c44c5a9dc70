package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ConfigError reports an invalid Config detected before simulation starts.
// Nothing is computed when one is returned.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid loan configuration: %s: %s", e.Field, e.Reason)
}

// DivergenceError reports that the simulation safety bound was reached while
// the balance remained positive. A truncated schedule is never returned;
// callers must be able to distinguish "paid off" from "did not converge".
type DivergenceError struct {
	Period  int
	Balance decimal.Decimal
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("simulation did not converge: balance %s still outstanding at period %d",
		e.Balance.StringFixed(2), e.Period)
}
