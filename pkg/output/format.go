// Package output provides utilities for formatting and exporting schedule
// results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/loantools/loancalc/internal/compare"
	"github.com/loantools/loancalc/internal/engine"
	"github.com/loantools/loancalc/pkg/constants"
	"github.com/loantools/loancalc/pkg/decmath"
)

// ScheduleRow is the JSON shape of one schedule entry. The field names are
// part of the stable output contract shared by the JSON export and the web
// API.
type ScheduleRow struct {
	Period           int         `json:"period"`
	Date             string      `json:"date"`
	StartingBalance  json.Number `json:"starting_balance"`
	Payment          json.Number `json:"payment"`
	Principal        json.Number `json:"principal"`
	Interest         json.Number `json:"interest"`
	Overpayment      json.Number `json:"overpayment"`
	EndingBalance    json.Number `json:"ending_balance"`
	TrancheDisbursed json.Number `json:"tranche_disbursed"`
	Holiday          bool        `json:"holiday"`
}

// ScheduleRows converts engine entries to their export shape, rounding money
// to cents.
func ScheduleRows(entries []engine.ScheduleEntry) []ScheduleRow {
	rows := make([]ScheduleRow, len(entries))
	for i, entry := range entries {
		rows[i] = ScheduleRow{
			Period:           entry.Period,
			Date:             entry.Month,
			StartingBalance:  cents(entry.StartingBalance),
			Payment:          cents(entry.Payment),
			Principal:        cents(entry.Principal),
			Interest:         cents(entry.Interest),
			Overpayment:      cents(entry.Overpayment),
			EndingBalance:    cents(entry.EndingBalance),
			TrancheDisbursed: cents(entry.TrancheDisbursed),
			Holiday:          entry.Holiday,
		}
	}
	return rows
}

// SummaryMap renders a summary with the stable key set every consumer
// depends on: principal_financed, total_interest, total_overpayment,
// total_cost, apr, term_months, original_end_date, new_end_date,
// payments_made, max_payment.
func SummaryMap(s engine.Summary) map[string]interface{} {
	return map[string]interface{}{
		"principal_financed": cents(s.PrincipalFinanced),
		"total_interest":     cents(s.TotalInterest),
		"total_overpayment":  cents(s.TotalOverpayment),
		"total_cost":         cents(s.TotalCost),
		"apr":                json.Number(s.APR.Round(8).String()),
		"term_months":        s.TermMonths,
		"original_end_date":  s.OriginalEndDate,
		"new_end_date":       s.NewEndDate,
		"payments_made":      s.PaymentsMade,
		"max_payment":        cents(s.MaxPayment),
	}
}

// JSONExport writes the summary and full schedule as one indented JSON
// document.
func JSONExport(w io.Writer, result *engine.Result) error {
	doc := map[string]interface{}{
		"summary":  SummaryMap(result.Summary),
		"schedule": ScheduleRows(result.Entries),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// CSVSchedule writes the schedule in comma-separated value format.
func CSVSchedule(w io.Writer, entries []engine.ScheduleEntry) error {
	writer := csv.NewWriter(w)
	header := []string{"Period", "Date", "Starting_Balance", "Payment", "Principal",
		"Interest", "Overpayment", "Ending_Balance", "Tranche_Disbursed", "Holiday"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, entry := range entries {
		record := []string{
			strconv.Itoa(entry.Period),
			entry.Month,
			entry.StartingBalance.StringFixed(2),
			entry.Payment.StringFixed(2),
			entry.Principal.StringFixed(2),
			entry.Interest.StringFixed(2),
			entry.Overpayment.StringFixed(2),
			entry.EndingBalance.StringFixed(2),
			entry.TrancheDisbursed.StringFixed(2),
			strconv.FormatBool(entry.Holiday),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// PrettySummary outputs a human-readable summary table.
func PrettySummary(w io.Writer, s engine.Summary) {
	p := message.NewPrinter(language.English)
	_, _ = p.Fprintf(w, "Principal financed : %.2f\n", s.PrincipalFinanced.InexactFloat64())
	_, _ = p.Fprintf(w, "Total interest     : %.2f\n", s.TotalInterest.InexactFloat64())
	if s.TotalOverpayment.IsPositive() {
		_, _ = p.Fprintf(w, "Total overpayment  : %.2f\n", s.TotalOverpayment.InexactFloat64())
	}
	_, _ = p.Fprintf(w, "Total cost         : %.2f\n", s.TotalCost.InexactFloat64())
	_, _ = p.Fprintf(w, "APR (approx)       : %.2f %%\n", s.APR.Mul(decimal.NewFromInt(constants.PercentageMultiplier)).InexactFloat64())
	_, _ = fmt.Fprintf(w, "Original end date  : %s\n", s.OriginalEndDate)
	_, _ = fmt.Fprintf(w, "New end date       : %s\n", s.NewEndDate)
	_, _ = fmt.Fprintf(w, "Payments made      : %d\n", s.PaymentsMade)
	_, _ = p.Fprintf(w, "Highest payment    : %.2f\n", s.MaxPayment.InexactFloat64())
}

// PrettySchedule outputs a human-readable schedule table, truncated after
// the display cap to avoid flooding the terminal.
func PrettySchedule(w io.Writer, entries []engine.ScheduleEntry) {
	p := message.NewPrinter(language.English)
	_, _ = fmt.Fprintf(w, "Period | Date    | Start Bal     | Payment      | Principal    | Interest    | Overpay      | End Bal       | Holiday\n")
	_, _ = fmt.Fprintf(w, "______ | ____    | _________     | _______      | _________    | ________    | _______      | _______       | _______\n")
	shown := entries
	truncated := 0
	if len(entries) > constants.MaxDisplayRows {
		shown = entries[:constants.MaxDisplayRows]
		truncated = len(entries) - constants.MaxDisplayRows
	}
	for _, entry := range shown {
		holiday := "no"
		if entry.Holiday {
			holiday = "yes"
		}
		_, _ = p.Fprintf(w, "%6d | %s | %13.2f | %12.2f | %12.2f | %11.2f | %12.2f | %13.2f | %s\n",
			entry.Period, entry.Month,
			entry.StartingBalance.InexactFloat64(),
			entry.Payment.InexactFloat64(),
			entry.Principal.InexactFloat64(),
			entry.Interest.InexactFloat64(),
			entry.Overpayment.InexactFloat64(),
			entry.EndingBalance.InexactFloat64(),
			holiday)
	}
	if truncated > 0 {
		_, _ = fmt.Fprintf(w, "... %d more rows truncated (showing first %d)\n", truncated, constants.MaxDisplayRows)
	}
}

// PrettyComparison outputs side-by-side summaries for all scenarios plus the
// deltas of each scenario against the first.
func PrettyComparison(w io.Writer, results []compare.ScenarioResult) {
	p := message.NewPrinter(language.English)
	for _, result := range results {
		_, _ = fmt.Fprintf(w, "--- Scenario %s ---\n", result.Name)
		PrettySummary(w, result.Result.Summary)
		_, _ = fmt.Fprintf(w, "\n")
	}
	if len(results) < 2 {
		return
	}
	base := results[0]
	for _, result := range results[1:] {
		delta := compare.Diff(base.Result.Summary, result.Result.Summary)
		_, _ = fmt.Fprintf(w, "--- %s vs %s ---\n", result.Name, base.Name)
		_, _ = p.Fprintf(w, "Total interest delta : %+.2f\n", delta.TotalInterest.InexactFloat64())
		_, _ = p.Fprintf(w, "Total cost delta     : %+.2f\n", delta.TotalCost.InexactFloat64())
		_, _ = p.Fprintf(w, "Highest payment delta: %+.2f\n", delta.MaxPayment.InexactFloat64())
		_, _ = fmt.Fprintf(w, "Payments made delta  : %+d\n", delta.PaymentsMade)
		_, _ = fmt.Fprintf(w, "End dates            : %s -> %s\n", delta.EndDateA, delta.EndDateB)
		_, _ = fmt.Fprintf(w, "\n")
	}
}

func cents(d decimal.Decimal) json.Number {
	return json.Number(decmath.RoundCents(d).String())
}
