// Package config defines the scenario-file data structures and the parsing
// that turns user input into engine configurations.
package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/loantools/loancalc/internal/engine"
	"github.com/loantools/loancalc/pkg/constants"
	"github.com/loantools/loancalc/pkg/datetime"
)

// File holds everything a loan-calc scenario file can declare.
type File struct {
	Scenarios []Scenario    `yaml:"scenarios"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// Scenario is the string-typed description of one loan as it appears in a
// scenario file or an API payload. Build converts it into a typed
// engine.Config.
type Scenario struct {
	Name               string   `json:"name" yaml:"name"`
	Active             bool     `json:"active" yaml:"active"`
	Principal          string   `json:"principal" yaml:"principal"`
	DownPayment        string   `json:"downPayment" yaml:"downPayment,omitempty"`
	Rate               float64  `json:"rate" yaml:"rate"`
	Term               int      `json:"term" yaml:"term"`
	Type               string   `json:"type" yaml:"type,omitempty"`
	StartMonth         string   `json:"startMonth" yaml:"startMonth"`
	Tranches           []string `json:"tranches" yaml:"tranches,omitempty"`
	Overpayments       []string `json:"overpayments" yaml:"overpayments,omitempty"`
	Holidays           []string `json:"holidays" yaml:"holidays,omitempty"`
	MonthlyOverpayment string   `json:"monthlyOverpayment" yaml:"monthlyOverpayment,omitempty"`
	TargetPayment      string   `json:"targetPayment" yaml:"targetPayment,omitempty"`
}

// YAML serializes the file so a scenario assembled from flags or an API
// payload can be written back out as a reusable scenario file.
func (f *File) YAML() ([]byte, error) {
	raw, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize scenario file: %w", err)
	}
	return raw, nil
}

// LoadFile reads a YAML-formatted scenario file from the given path.
func LoadFile(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading scenario file: %w", err)
	}

	var file File
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("unable to decode scenario file: %w", err)
	}

	return &file, nil
}

// Build converts the scenario into an engine.Config, parsing every
// string-typed field. Parse failures name the offending field.
func (s Scenario) Build() (engine.Config, error) {
	cfg := engine.Config{
		Name:       s.Name,
		Term:       s.Term,
		StartMonth: strings.TrimSpace(s.StartMonth),
		LoanType:   strings.ToLower(strings.TrimSpace(s.Type)),
	}
	if cfg.LoanType == "" {
		cfg.LoanType = constants.LoanTypeAnnuity
	}

	principal, err := ParseAmount(s.Principal)
	if err != nil {
		return engine.Config{}, fmt.Errorf("principal: %w", err)
	}
	cfg.Principal = principal
	cfg.Rate = decimal.NewFromFloat(s.Rate)

	if strings.TrimSpace(s.DownPayment) != "" {
		down, err := ParseAmount(s.DownPayment)
		if err != nil {
			return engine.Config{}, fmt.Errorf("downPayment: %w", err)
		}
		cfg.DownPayment = down
	}

	if _, err := datetime.ParseMonth(cfg.StartMonth); err != nil {
		return engine.Config{}, fmt.Errorf("startMonth: %w", err)
	}

	for _, raw := range s.Tranches {
		tranche, err := ParseTranche(raw)
		if err != nil {
			return engine.Config{}, err
		}
		cfg.Tranches = append(cfg.Tranches, tranche)
	}

	for _, raw := range s.Overpayments {
		overpayment, err := ParseOverpayment(raw)
		if err != nil {
			return engine.Config{}, err
		}
		cfg.Overpayments = append(cfg.Overpayments, overpayment)
	}

	for _, raw := range s.Holidays {
		holiday, err := ParseHoliday(raw)
		if err != nil {
			return engine.Config{}, err
		}
		cfg.Holidays = append(cfg.Holidays, holiday)
	}

	if strings.TrimSpace(s.MonthlyOverpayment) != "" {
		recurring, err := expandMonthlyOverpayment(s.MonthlyOverpayment, cfg.StartMonth, cfg.Term)
		if err != nil {
			return engine.Config{}, err
		}
		cfg.Overpayments = append(cfg.Overpayments, recurring...)
	}

	if strings.TrimSpace(s.TargetPayment) != "" {
		target, err := ParseAmount(s.TargetPayment)
		if err != nil {
			return engine.Config{}, fmt.Errorf("targetPayment: %w", err)
		}
		cfg.TargetPayment = &target
	}

	return cfg, nil
}

// Warnings performs non-fatal validation of the file and returns
// human-readable warnings.
func (f *File) Warnings() []string {
	var warnings []string
	for _, scenario := range f.Scenarios {
		if !scenario.Active {
			warnings = append(warnings, fmt.Sprintf("scenario %q is inactive and will be skipped", scenario.Name))
			continue
		}
		cfg, err := scenario.Build()
		if err != nil {
			continue // Build errors surface when the scenario is evaluated.
		}
		for _, op := range cfg.Overpayments {
			if op.Month < cfg.StartMonth {
				warnings = append(warnings, fmt.Sprintf("scenario %q: overpayment dated %s before start month %s has no effect",
					scenario.Name, op.Month, cfg.StartMonth))
			}
		}
		for _, h := range cfg.Holidays {
			if h < cfg.StartMonth {
				warnings = append(warnings, fmt.Sprintf("scenario %q: holiday %s before start month %s has no effect",
					scenario.Name, h, cfg.StartMonth))
			}
		}
		for i := 1; i < len(cfg.Tranches); i++ {
			if cfg.Tranches[i].Month > cfg.Tranches[i-1].Month &&
				cfg.Tranches[i].CumulativePercent.LessThan(cfg.Tranches[i-1].CumulativePercent) {
				warnings = append(warnings, fmt.Sprintf("scenario %q: tranche percents decrease at %s; the decrease is ignored",
					scenario.Name, cfg.Tranches[i].Month))
			}
		}
	}
	return warnings
}
