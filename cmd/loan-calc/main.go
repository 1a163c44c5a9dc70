package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/loantools/loancalc/internal/compare"
	"github.com/loantools/loancalc/internal/config"
	"github.com/loantools/loancalc/internal/engine"
	"github.com/loantools/loancalc/pkg/output"
)

// multiFlag collects repeatable string flags.
type multiFlag []string

func (f *multiFlag) String() string { return strings.Join(*f, ",") }

func (f *multiFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "console"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	var tranches, overpayments, holidays multiFlag

	configLocation := flag.String("config", "", "path to a YAML scenario file (overrides the direct loan flags)")
	principal := flag.String("principal", "", "total loan amount, e.g. 500000 or 500k")
	downPayment := flag.String("down-payment", "", "down payment amount")
	rate := flag.Float64("rate", 0, "annual interest rate in percent, e.g. 3.5")
	term := flag.Int("term", 0, "loan term in months")
	loanType := flag.String("type", "annuity", "installment type: annuity or decreasing")
	start := flag.String("start", "", "first payment month (YYYY-MM)")
	flag.Var(&tranches, "tranche", "tranche in YYYY-MM:PERCENT format (repeatable)")
	flag.Var(&overpayments, "overpayment", "overpayment in YYYY-MM:AMOUNT:KIND format (repeatable)")
	flag.Var(&holidays, "holiday", "payment holiday month YYYY-MM (repeatable)")
	monthlyOverpayment := flag.String("monthly-overpayment", "", "recurring overpayment in AMOUNT:KIND format applied every month")
	targetPayment := flag.String("target-payment", "", "fixed monthly budget; slack above the installment becomes an automatic overpayment")
	outputPath := flag.String("output", "", "export file path (.json or .csv)")
	saveScenario := flag.String("save-scenario", "", "write the effective scenarios to a reusable YAML file")
	summaryOnly := flag.Bool("summary-only", false, "print only the summary metrics")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	var (
		file      *config.File
		scenarios []config.Scenario
	)
	if *configLocation != "" {
		loaded, err := config.LoadFile(*configLocation)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load scenario file %s: %v\n", *configLocation, err)
			os.Exit(1)
		}
		file = loaded
		scenarios = loaded.Scenarios
	} else {
		file = &config.File{}
		scenarios = []config.Scenario{{
			Name:               "loan",
			Active:             true,
			Principal:          *principal,
			DownPayment:        *downPayment,
			Rate:               *rate,
			Term:               *term,
			Type:               *loanType,
			StartMonth:         *start,
			Tranches:           tranches,
			Overpayments:       overpayments,
			Holidays:           holidays,
			MonthlyOverpayment: *monthlyOverpayment,
			TargetPayment:      *targetPayment,
		}}
	}

	logger, err := initializeLogger(file.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	for _, warning := range file.Warnings() {
		logger.Warn("Scenario warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *saveScenario != "" {
		raw, err := (&config.File{Scenarios: scenarios}).YAML()
		if err != nil {
			logger.Fatal("failed to serialize scenarios",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if err := os.WriteFile(*saveScenario, raw, 0644); err != nil {
			logger.Fatal("failed to write scenario file",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		fmt.Printf("Scenarios written to %s\n", *saveScenario)
	}

	eng := engine.New(logger)
	results, err := compare.Results(logger, eng, scenarios)
	if err != nil {
		logger.Fatal("failed to compute schedule",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if len(results) == 0 {
		logger.Fatal("no active scenarios to compute",
			zap.String("op", "main"),
		)
	}

	if *outputPath != "" {
		if err := exportResult(*outputPath, results[0].Result); err != nil {
			logger.Fatal("failed to export schedule",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		fmt.Printf("Schedule exported to %s\n", *outputPath)
		return
	}

	if len(results) > 1 {
		output.PrettyComparison(os.Stdout, results)
		return
	}

	output.PrettySummary(os.Stdout, results[0].Result.Summary)
	if !*summaryOnly {
		fmt.Println()
		output.PrettySchedule(os.Stdout, results[0].Result.Entries)
	}
}

func exportResult(path string, result *engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return output.JSONExport(f, result)
	case ".csv":
		return output.CSVSchedule(f, result.Entries)
	default:
		return fmt.Errorf("unsupported export format %q; use .json or .csv", filepath.Ext(path))
	}
}
