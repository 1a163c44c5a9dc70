// Package datetime provides month-granularity date utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/loantools/loancalc/pkg/constants"
)

// MonthLayout is the format expected for all configuration dates and is also
// the output date format.
const MonthLayout = constants.MonthLayout

// ParseMonth parses a YYYY-MM string into a time.Time normalized to the first
// day of the month.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year-month %q: %w", month, err)
	}
	return t, nil
}

// MustParseMonth parses a YYYY-MM string and panics on error. This is
// intended for use in tests where the date string is known to be valid.
func MustParseMonth(month string) time.Time {
	t, err := ParseMonth(month)
	if err != nil {
		panic(err)
	}
	return t
}

// AddMonths returns the date advanced by the given number of calendar months
// with the day-of-month clamped to the last valid day of the target month,
// e.g. Jan 31 + 1 month is Feb 28 (or 29 in leap years).
func AddMonths(t time.Time, months int) time.Time {
	total := int(t.Month()) - 1 + months
	year := t.Year() + total/12
	month := total%12 + 1
	if month < 1 {
		month += 12
		year--
	}
	day := t.Day()
	if last := daysIn(year, time.Month(month)); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// OffsetMonth returns the string-formatted month offset by the given number
// of months relative to the given YYYY-MM month.
func OffsetMonth(month string, months int) (string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return month, err
	}
	return AddMonths(t, months).Format(MonthLayout), nil
}

// MonthBefore returns true if first is strictly before second. Both values
// must be YYYY-MM strings.
func MonthBefore(first, second string) (bool, error) {
	firstT, err := ParseMonth(first)
	if err != nil {
		return false, err
	}
	secondT, err := ParseMonth(second)
	if err != nil {
		return false, err
	}
	return firstT.Before(secondT), nil
}
