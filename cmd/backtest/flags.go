package main

import (
	"flag"
	"fmt"

	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

// BacktestFlags holds all command line flags for the backtest command
type BacktestFlags struct {
	// Configuration
	ConfigFile *string
	EnvFile    *string

	// Input panels
	WeightsFile     *string
	PricesFile      *string
	OpenFile        *string
	DividendsFile   *string
	PointValuesFile *string

	// Account settings
	InitialAUM  *float64
	Compounding *bool
	Frequency   *string

	// Leverage settings
	LeverageBundle   *string
	MaxGrossLeverage *float64
	MaxNetLeverage   *float64
	MaxPosLeverage   *float64
	ConstantExposure *bool

	// Analysis options
	Name        *string
	StartDate   *string
	CompareMode *bool

	// Output options
	OutputDir   *string
	ConsoleOnly *bool
	MetricsAddr *string

	// Misc
	ShowVersion *bool
	ShowHelp    *bool

	flagSet *flag.FlagSet
}

// NewBacktestFlags creates and registers all command line flags
func NewBacktestFlags() *BacktestFlags {
	return NewBacktestFlagsWithFlagSet(flag.CommandLine)
}

// NewBacktestFlagsWithFlagSet registers all flags on the given flag set
func NewBacktestFlagsWithFlagSet(fs *flag.FlagSet) *BacktestFlags {
	return &BacktestFlags{
		ConfigFile: fs.String("config", "", "Path to JSON configuration file"),
		EnvFile:    fs.String("env", "", "Path to .env file (default: .env in working dir)"),

		WeightsFile:     fs.String("weights", "", "Path to trading weights CSV (wide format)"),
		PricesFile:      fs.String("prices", "", "Path to close prices CSV (wide format)"),
		OpenFile:        fs.String("open", "", "Path to open prices CSV (defaults to shifted close)"),
		DividendsFile:   fs.String("dividends", "", "Path to dividends CSV (defaults to zero)"),
		PointValuesFile: fs.String("point-values", "", "Path to point values CSV (defaults to one)"),

		InitialAUM:  fs.Float64("aum", DefaultInitialAUM, "Initial AUM"),
		Compounding: fs.Bool("compounding", true, "Size positions off current NAV instead of initial AUM"),
		Frequency:   fs.String("frequency", string(backtest.FreqBusinessDaily), "Sampling frequency code (B, D, H, min, S)"),

		LeverageBundle:   fs.String("leverage-bundle", "", "Named leverage bundle"),
		MaxGrossLeverage: fs.Float64("max-gross", 0, "Max gross leverage (0 = default)"),
		MaxNetLeverage:   fs.Float64("max-net", 0, "Max net leverage (0 = default)"),
		MaxPosLeverage:   fs.Float64("max-pos", 0, "Max per-position leverage (0 = default)"),
		ConstantExposure: fs.Bool("constant-exposure", false, "Normalize long/short books to fixed targets"),

		Name:        fs.String("name", "", "Strategy name for reports"),
		StartDate:   fs.String("start", "", "Truncate analytics to this start date (YYYY-MM-DD)"),
		CompareMode: fs.Bool("compare-modes", false, "Run compounding and non-compounding side by side"),

		OutputDir:   fs.String("output", "", "Output directory for file reports"),
		ConsoleOnly: fs.Bool("console-only", false, "Skip file outputs"),
		MetricsAddr: fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)"),

		ShowVersion: fs.Bool("version", false, "Show version information"),
		ShowHelp:    fs.Bool("h", false, "Show help information"),

		flagSet: fs,
	}
}

// Changed reports whether the named flag was explicitly set on the command
// line. Config-file values are only overridden by flags the user actually
// passed, never by flag defaults.
func (f *BacktestFlags) Changed(name string) bool {
	set := false
	f.flagSet.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// ValidateBacktestFlags validates flag combinations before running
func ValidateBacktestFlags(flags *BacktestFlags) error {
	if *flags.ShowVersion || *flags.ShowHelp {
		return nil
	}
	if *flags.ConfigFile == "" {
		if *flags.WeightsFile == "" {
			return fmt.Errorf("either -config or -weights is required")
		}
		if *flags.PricesFile == "" {
			return fmt.Errorf("either -config or -prices is required")
		}
	}
	if *flags.InitialAUM <= 0 {
		return fmt.Errorf("initial AUM must be positive, got %v", *flags.InitialAUM)
	}
	if *flags.Frequency != "" {
		if _, err := backtest.ParseFrequency(*flags.Frequency); err != nil {
			return err
		}
	}
	return nil
}
