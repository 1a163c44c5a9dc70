// Package constants provides shared constants for the loan-calc application.
package constants

// MonthLayout is the format expected for all dates in configuration input and
// is also the output date format.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// DefaultPrecision is the number of decimal digits carried through
	// divisions inside the engine
	DefaultPrecision = 28

	// BalanceEpsilon is the remaining-balance threshold below which a loan
	// is considered paid off (avoids decimal dust extending the schedule)
	BalanceEpsilon = "0.01"

	// DustThreshold is half a cent; balances with a smaller magnitude after
	// a payment are snapped to exactly zero
	DustThreshold = "0.005"

	// SafetyBoundMultiplier caps the simulation at this multiple of the
	// configured term before reporting divergence
	SafetyBoundMultiplier = 2
)

// Loan type constants
const (
	// LoanTypeAnnuity is the equal-installment loan type
	LoanTypeAnnuity = "annuity"

	// LoanTypeDecreasing is the equal-principal loan type
	LoanTypeDecreasing = "decreasing"
)

// Overpayment kind constants
const (
	// OverpaymentTerm keeps the installment fixed and shortens the term
	OverpaymentTerm = "term"

	// OverpaymentInstallment re-amortizes and lowers future installments
	OverpaymentInstallment = "installment"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Display constants
const (
	// MaxDisplayRows limits how many schedule rows terminal and web
	// renderings show before truncating
	MaxDisplayRows = 120
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8710"

	// DefaultMaxBodyBytes is the default maximum request body size (256 KB)
	DefaultMaxBodyBytes int64 = 256 * 1024

	// MaxSavedComparisons is the per-user cap on stored comparison scenarios
	MaxSavedComparisons = 10
)
