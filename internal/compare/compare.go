// Package compare evaluates multiple loan scenarios and derives the summary
// deltas used when presenting them side by side.
package compare

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loantools/loancalc/internal/config"
	"github.com/loantools/loancalc/internal/engine"
)

// ScenarioResult pairs a scenario name with its computed schedule.
type ScenarioResult struct {
	Name   string
	Result *engine.Result
}

// Results evaluates all active scenarios and returns their results in input
// order. The engine is a pure computation with no shared mutable state, so
// scenarios are evaluated concurrently, one goroutine each.
func Results(logger *zap.Logger, eng *engine.Engine, scenarios []config.Scenario) ([]ScenarioResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	active := make([]config.Scenario, 0, len(scenarios))
	for _, scenario := range scenarios {
		if !scenario.Active {
			logger.Debug(fmt.Sprintf("skipping scenario %s because it is inactive", scenario.Name),
				zap.String("op", "compare.Results"),
			)
			continue
		}
		active = append(active, scenario)
	}

	results := make([]ScenarioResult, len(active))
	errs := make([]error, len(active))
	var wg sync.WaitGroup
	for i, scenario := range active {
		wg.Add(1)
		go func(i int, scenario config.Scenario) {
			defer wg.Done()
			cfg, err := scenario.Build()
			if err != nil {
				errs[i] = fmt.Errorf("scenario %q: %w", scenario.Name, err)
				return
			}
			result, err := eng.ComputeSchedule(cfg)
			if err != nil {
				errs[i] = fmt.Errorf("scenario %q: %w", scenario.Name, err)
				return
			}
			results[i] = ScenarioResult{Name: scenario.Name, Result: result}
		}(i, scenario)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Delta captures how the second scenario's summary differs from the first.
type Delta struct {
	TotalInterest decimal.Decimal
	TotalCost     decimal.Decimal
	MaxPayment    decimal.Decimal
	PaymentsMade  int
	EndDateA      string
	EndDateB      string
}

// Diff computes the summary differences between two results (b minus a).
func Diff(a, b engine.Summary) Delta {
	return Delta{
		TotalInterest: b.TotalInterest.Sub(a.TotalInterest),
		TotalCost:     b.TotalCost.Sub(a.TotalCost),
		MaxPayment:    b.MaxPayment.Sub(a.MaxPayment),
		PaymentsMade:  b.PaymentsMade - a.PaymentsMade,
		EndDateA:      a.NewEndDate,
		EndDateB:      b.NewEndDate,
	}
}
