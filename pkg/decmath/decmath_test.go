package decmath

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundCents(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1.005", "1.01"},
		{"1.004", "1.00"},
		{"-1.005", "-1.01"},
		{"100", "100.00"},
	}

	for _, tt := range tests {
		got := RoundCents(decimal.RequireFromString(tt.input))
		if got.StringFixed(2) != tt.expected {
			t.Errorf("RoundCents(%s) = %s, expected %s", tt.input, got.StringFixed(2), tt.expected)
		}
	}
}

func TestIsDust(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"0", true},
		{"0.004", true},
		{"-0.004", true},
		{"0.005", false},
		{"0.01", false},
		{"-1", false},
	}

	for _, tt := range tests {
		if got := IsDust(decimal.RequireFromString(tt.input)); got != tt.expected {
			t.Errorf("IsDust(%s) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestAbovePayoffEpsilon(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"0.011", true},
		{"0.01", false},
		{"0", false},
		{"-5", false},
		{"100", true},
	}

	for _, tt := range tests {
		if got := AbovePayoffEpsilon(decimal.RequireFromString(tt.input)); got != tt.expected {
			t.Errorf("AbovePayoffEpsilon(%s) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestMonthlyRate(t *testing.T) {
	got := MonthlyRate(decimal.NewFromInt(6), 28)
	if !got.Equal(decimal.RequireFromString("0.005")) {
		t.Errorf("MonthlyRate(6) = %s, expected 0.005", got)
	}

	got = MonthlyRate(decimal.NewFromFloat(3.5), 28)
	diff := got.Sub(decimal.RequireFromString("0.0029166666666666666666666667")).Abs()
	if diff.GreaterThan(decimal.New(1, -27)) {
		t.Errorf("MonthlyRate(3.5) = %s, expected ~0.00291666...", got)
	}

	if !MonthlyRate(decimal.Zero, 28).IsZero() {
		t.Error("MonthlyRate(0) expected 0")
	}
}

func TestMax(t *testing.T) {
	a := decimal.NewFromInt(3)
	b := decimal.NewFromInt(7)
	if !Max(a, b).Equal(b) {
		t.Errorf("Max(3, 7) = %s, expected 7", Max(a, b))
	}
	if !Max(b, a).Equal(b) {
		t.Errorf("Max(7, 3) = %s, expected 7", Max(b, a))
	}
	if !Max(a, a).Equal(a) {
		t.Errorf("Max(3, 3) = %s, expected 3", Max(a, a))
	}
}
