package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/loantools/loancalc/pkg/constants"
	"github.com/loantools/loancalc/pkg/datetime"
	"github.com/loantools/loancalc/pkg/decmath"
	"github.com/loantools/loancalc/pkg/payments"
)

// Engine computes amortization schedules. One Engine may be shared across
// goroutines: ComputeSchedule is a pure function of its Config and every
// invocation owns its own simulation state.
type Engine struct {
	logger    *zap.Logger
	precision int32
}

// New creates an Engine with the default decimal precision.
func New(logger *zap.Logger) *Engine {
	return NewWithPrecision(logger, constants.DefaultPrecision)
}

// NewWithPrecision creates an Engine that performs divisions at the given
// decimal precision. Precision is scoped to the engine rather than being a
// process-wide setting.
func NewWithPrecision(logger *zap.Logger, precision int32) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if precision <= 0 {
		precision = constants.DefaultPrecision
	}
	return &Engine{logger: logger, precision: precision}
}

// simulationState carries the loop variables of one schedule computation.
// Keeping them in one explicit structure avoids branch-dependent ambient
// variables.
type simulationState struct {
	balance           decimal.Decimal
	currentPercent    decimal.Decimal
	disbursed         decimal.Decimal
	remainingTerm     int
	installment       decimal.Decimal
	constantPrincipal decimal.Decimal // decreasing loans only
}

// ComputeSchedule simulates the loan month by month and returns the ordered
// schedule entries and the derived summary. It returns a *ConfigError for
// invalid input and a *DivergenceError when the safety bound is reached with
// a positive balance.
func (e *Engine) ComputeSchedule(cfg Config) (*Result, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	financed := cfg.FinancedPrincipal()
	monthlyRate := decmath.MonthlyRate(cfg.Rate, e.precision)

	tranches := sortedTranches(cfg.Tranches)
	trancheByMonth := make(map[string]decimal.Decimal, len(tranches))
	maxPercent := decimal.Zero
	for _, t := range tranches {
		trancheByMonth[t.Month] = t.CumulativePercent
		maxPercent = decmath.Max(maxPercent, t.CumulativePercent)
	}

	overpaymentsByMonth := make(map[string][]Overpayment, len(cfg.Overpayments))
	for _, op := range cfg.Overpayments {
		overpaymentsByMonth[op.Month] = append(overpaymentsByMonth[op.Month], op)
	}

	holidays := make(map[string]bool, len(cfg.Holidays))
	for _, h := range cfg.Holidays {
		holidays[h] = true
	}

	st := simulationState{remainingTerm: cfg.Term}
	if len(tranches) == 0 {
		// The whole financed principal counts as disbursed at the start
		// month; there is no pre-start phase.
		st.balance = financed
		st.disbursed = financed
		st.currentPercent = decimal.NewFromInt(1)
		maxPercent = st.currentPercent
	} else if err := e.runPreStart(&st, cfg, financed, monthlyRate, trancheByMonth); err != nil {
		return nil, err
	}

	if err := e.reamortize(&st, cfg.LoanType, monthlyRate); err != nil {
		return nil, err
	}

	var (
		entries          []ScheduleEntry
		totalInterest    = decimal.Zero
		totalOverpayment = decimal.Zero
	)

	month := cfg.StartMonth
	period := 1
	bound := constants.SafetyBoundMultiplier * cfg.Term

	for period <= bound && (decmath.AbovePayoffEpsilon(st.balance) || st.currentPercent.LessThan(maxPercent)) {
		startingBalance := st.balance
		trancheDisbursed := decimal.Zero

		// Tranche disbursement happens at the beginning of the month. The
		// installment is recomputed against the new balance and the current
		// remaining term so the released principal amortizes within the
		// original horizon instead of ballooning at the end.
		if percent, ok := trancheByMonth[month]; ok && percent.GreaterThan(st.currentPercent) {
			additional := financed.Mul(percent.Sub(st.currentPercent))
			st.balance = st.balance.Add(additional)
			st.disbursed = st.disbursed.Add(additional)
			st.currentPercent = percent
			trancheDisbursed = additional
			e.logger.Debug(fmt.Sprintf("%s: disbursing tranche %s for loan %s", month, additional.StringFixed(2), cfg.Name),
				zap.String("op", "engine.ComputeSchedule"),
			)
			if st.remainingTerm > 0 {
				if err := e.reamortize(&st, cfg.LoanType, monthlyRate); err != nil {
					return nil, err
				}
			}
		}

		// Payment holidays capitalize one month of interest and extend the
		// schedule without consuming a term slot.
		if holidays[month] {
			interest := payments.Interest(st.balance, monthlyRate)
			st.balance = st.balance.Add(interest)
			totalInterest = totalInterest.Add(interest)
			e.logger.Debug(fmt.Sprintf("%s: payment holiday capitalizes %s for loan %s", month, interest.StringFixed(2), cfg.Name),
				zap.String("op", "engine.ComputeSchedule"),
			)
			entries = append(entries, ScheduleEntry{
				Period:           period,
				Month:            month,
				StartingBalance:  startingBalance,
				Payment:          decimal.Zero,
				Principal:        decimal.Zero,
				Interest:         interest,
				Overpayment:      decimal.Zero,
				EndingBalance:    st.balance,
				TrancheDisbursed: trancheDisbursed,
				Holiday:          true,
			})
			next, err := datetime.OffsetMonth(month, 1)
			if err != nil {
				return nil, err
			}
			month = next
			period++
			continue
		}

		interest := payments.Interest(st.balance, monthlyRate)
		var basePayment, principalPayment decimal.Decimal
		if cfg.LoanType == constants.LoanTypeDecreasing {
			basePayment = st.constantPrincipal.Add(interest)
			principalPayment = st.constantPrincipal
		} else {
			basePayment = st.installment
			principalPayment = basePayment.Sub(interest)
		}

		overpayment := decimal.Zero
		reamortizeAfterPayment := false
		for _, op := range overpaymentsByMonth[month] {
			overpayment = overpayment.Add(op.Amount)
			if op.Kind == KindInstallment {
				reamortizeAfterPayment = true
			}
		}
		if overpayment.IsPositive() {
			principalPayment = principalPayment.Add(overpayment)
			totalOverpayment = totalOverpayment.Add(overpayment)
			e.logger.Debug(fmt.Sprintf("%s: applying overpayment %s for loan %s", month, overpayment.StringFixed(2), cfg.Name),
				zap.String("op", "engine.ComputeSchedule"),
			)
		}

		// A configured target payment turns any slack between the budget and
		// the scheduled outflow into an automatic overpayment that always
		// re-amortizes.
		if cfg.TargetPayment != nil {
			diff := cfg.TargetPayment.Sub(basePayment.Add(overpayment))
			if diff.IsPositive() {
				principalPayment = principalPayment.Add(diff)
				overpayment = overpayment.Add(diff)
				totalOverpayment = totalOverpayment.Add(diff)
				reamortizeAfterPayment = true
			}
		}

		st.balance = st.balance.Sub(principalPayment)
		totalInterest = totalInterest.Add(interest)

		// Snap residual dust to exactly zero so decimal crumbs never add a
		// phantom period.
		if decmath.IsDust(st.balance) {
			st.balance = decimal.Zero
		}

		if reamortizeAfterPayment && st.balance.IsPositive() && st.remainingTerm > 1 {
			st.remainingTerm--
			if err := e.reamortize(&st, cfg.LoanType, monthlyRate); err != nil {
				return nil, err
			}
			e.logger.Debug(fmt.Sprintf("%s: re-amortized over %d remaining periods for loan %s", month, st.remainingTerm, cfg.Name),
				zap.String("op", "engine.ComputeSchedule"),
			)
		} else {
			st.remainingTerm--
		}

		// Final-payment overshoot: land the balance exactly at zero and
		// report the reduced payment.
		if st.balance.IsNegative() {
			adjustment := st.balance.Neg()
			principalPayment = principalPayment.Sub(adjustment)
			basePayment = basePayment.Sub(adjustment)
			st.balance = decimal.Zero
		}

		if basePayment.IsNegative() {
			basePayment = decimal.Zero
		}
		entries = append(entries, ScheduleEntry{
			Period:           period,
			Month:            month,
			StartingBalance:  startingBalance,
			Payment:          basePayment,
			Principal:        principalPayment,
			Interest:         interest,
			Overpayment:      overpayment,
			EndingBalance:    st.balance,
			TrancheDisbursed: trancheDisbursed,
			Holiday:          false,
		})

		next, err := datetime.OffsetMonth(month, 1)
		if err != nil {
			return nil, err
		}
		month = next
		period++

		// Term exhausted with principal outstanding: clear the remainder in
		// one lump payment rather than iterating past the horizon.
		if st.remainingTerm <= 0 && st.balance.IsPositive() {
			finalInterest := payments.Interest(st.balance, monthlyRate)
			totalInterest = totalInterest.Add(finalInterest)
			e.logger.Debug(fmt.Sprintf("%s: forced payoff of %s for loan %s", month, st.balance.StringFixed(2), cfg.Name),
				zap.String("op", "engine.ComputeSchedule"),
			)
			entries = append(entries, ScheduleEntry{
				Period:           period,
				Month:            month,
				StartingBalance:  st.balance,
				Payment:          st.balance.Add(finalInterest),
				Principal:        st.balance,
				Interest:         finalInterest,
				Overpayment:      decimal.Zero,
				EndingBalance:    decimal.Zero,
				TrancheDisbursed: decimal.Zero,
				Holiday:          false,
			})
			st.balance = decimal.Zero
			period++
			break
		}
	}

	if decmath.AbovePayoffEpsilon(st.balance) {
		return nil, &DivergenceError{Period: period, Balance: st.balance}
	}

	summary, err := e.summarize(cfg, financed, monthlyRate, entries, totalInterest, totalOverpayment)
	if err != nil {
		return nil, err
	}
	return &Result{Entries: entries, Summary: summary}, nil
}

// runPreStart walks month by month from the earliest tranche date up to
// (excluding) the start month, releasing tranches and capitalizing interest
// on the disbursed principal. No payment is ever made in this phase.
func (e *Engine) runPreStart(st *simulationState, cfg Config, financed, monthlyRate decimal.Decimal, trancheByMonth map[string]decimal.Decimal) error {
	earliest := cfg.StartMonth
	for month := range trancheByMonth {
		if month < earliest {
			earliest = month
		}
	}

	capitalized := decimal.Zero
	for month := earliest; month < cfg.StartMonth; {
		if percent, ok := trancheByMonth[month]; ok && percent.GreaterThan(st.currentPercent) {
			st.disbursed = st.disbursed.Add(financed.Mul(percent.Sub(st.currentPercent)))
			st.currentPercent = percent
			e.logger.Debug(fmt.Sprintf("%s: pre-start tranche brings disbursed principal to %s for loan %s",
				month, st.disbursed.StringFixed(2), cfg.Name),
				zap.String("op", "engine.runPreStart"),
			)
		}
		capitalized = capitalized.Add(payments.Interest(st.disbursed, monthlyRate))
		next, err := datetime.OffsetMonth(month, 1)
		if err != nil {
			return err
		}
		month = next
	}

	st.balance = st.disbursed.Add(capitalized)
	return nil
}

// reamortize recomputes the installment (annuity) or the fixed per-period
// principal component (decreasing) from the state's balance and remaining
// term.
func (e *Engine) reamortize(st *simulationState, loanType string, monthlyRate decimal.Decimal) error {
	if loanType == constants.LoanTypeDecreasing {
		component, payment, err := payments.DecreasingComponents(st.balance, monthlyRate, st.remainingTerm, e.precision)
		if err != nil {
			return err
		}
		st.constantPrincipal = component
		st.installment = payment
		return nil
	}
	installment, err := payments.AnnuityInstallment(st.balance, monthlyRate, st.remainingTerm, e.precision)
	if err != nil {
		return err
	}
	st.installment = installment
	return nil
}

func validate(cfg Config) error {
	if !cfg.FinancedPrincipal().IsPositive() {
		return &ConfigError{Field: "principal", Reason: "financed principal must be positive after down payment"}
	}
	if cfg.Term <= 0 {
		return &ConfigError{Field: "term", Reason: "must be a positive number of months"}
	}
	if cfg.Rate.IsNegative() {
		return &ConfigError{Field: "rate", Reason: "must not be negative"}
	}
	if cfg.LoanType != constants.LoanTypeAnnuity && cfg.LoanType != constants.LoanTypeDecreasing {
		return &ConfigError{Field: "type", Reason: fmt.Sprintf("must be %q or %q", constants.LoanTypeAnnuity, constants.LoanTypeDecreasing)}
	}
	if _, err := datetime.ParseMonth(cfg.StartMonth); err != nil {
		return &ConfigError{Field: "startMonth", Reason: err.Error()}
	}
	one := decimal.NewFromInt(1)
	for _, t := range cfg.Tranches {
		if _, err := datetime.ParseMonth(t.Month); err != nil {
			return &ConfigError{Field: "tranches", Reason: err.Error()}
		}
		if t.CumulativePercent.IsNegative() || t.CumulativePercent.GreaterThan(one) {
			return &ConfigError{Field: "tranches", Reason: fmt.Sprintf("cumulative percent %s outside [0,1]", t.CumulativePercent)}
		}
	}
	for _, op := range cfg.Overpayments {
		if _, err := datetime.ParseMonth(op.Month); err != nil {
			return &ConfigError{Field: "overpayments", Reason: err.Error()}
		}
		if !op.Amount.IsPositive() {
			return &ConfigError{Field: "overpayments", Reason: "amount must be positive"}
		}
		if op.Kind != KindTerm && op.Kind != KindInstallment {
			return &ConfigError{Field: "overpayments", Reason: fmt.Sprintf("unknown kind %q", op.Kind)}
		}
	}
	for _, h := range cfg.Holidays {
		if _, err := datetime.ParseMonth(h); err != nil {
			return &ConfigError{Field: "holidays", Reason: err.Error()}
		}
	}
	return nil
}

func sortedTranches(tranches []Tranche) []Tranche {
	sorted := make([]Tranche, len(tranches))
	copy(sorted, tranches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Month < sorted[j].Month })
	return sorted
}
