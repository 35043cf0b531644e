package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ducminhle1904/portfolio-backtest/internal/analytics"
	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
	"github.com/ducminhle1904/portfolio-backtest/internal/monitoring"
	"github.com/ducminhle1904/portfolio-backtest/pkg/config"
	datamanager "github.com/ducminhle1904/portfolio-backtest/pkg/data"
	"github.com/ducminhle1904/portfolio-backtest/pkg/reporting"
)

const (
	AppName    = "Portfolio Backtest"
	AppVersion = "1.0.0"

	DefaultInitialAUM = 100.0
)

func main() {
	flags := NewBacktestFlags()
	flag.Parse()

	if err := ValidateBacktestFlags(flags); err != nil {
		log.Fatalf("❌ Flag validation error: %v", err)
	}

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}
	if *flags.ShowHelp {
		flag.Usage()
		return
	}

	loadEnvironment(*flags.EnvFile)

	cfg, err := buildConfiguration(flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if *flags.MetricsAddr != "" {
		go serveMetrics(*flags.MetricsAddr)
	}

	if *flags.CompareMode {
		runModeComparison(cfg)
		return
	}
	runSingleBacktest(cfg, flags)
}

// buildConfiguration merges the config file (if any) with flag overrides.
func buildConfiguration(flags *BacktestFlags) (*config.Config, error) {
	var cfg *config.Config
	if *flags.ConfigFile != "" {
		loaded, err := config.Load(*flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.NewDefaultConfig()
		cfg.WeightsFile = *flags.WeightsFile
		cfg.PricesFile = *flags.PricesFile
	}

	if *flags.OpenFile != "" {
		cfg.OpenFile = *flags.OpenFile
	}
	if *flags.DividendsFile != "" {
		cfg.DividendsFile = *flags.DividendsFile
	}
	if *flags.PointValuesFile != "" {
		cfg.PointValuesFile = *flags.PointValuesFile
	}
	if flags.Changed("aum") {
		cfg.InitialAUM = *flags.InitialAUM
	}
	if flags.Changed("frequency") {
		cfg.Frequency = *flags.Frequency
	}
	if flags.Changed("compounding") {
		cfg.Compounding = *flags.Compounding
	}
	if *flags.Name != "" {
		cfg.Name = *flags.Name
	}
	if *flags.LeverageBundle != "" {
		cfg.Leverage.Bundle = *flags.LeverageBundle
	}
	if *flags.MaxGrossLeverage != 0 {
		cfg.Leverage.MaxGrossLeverage = *flags.MaxGrossLeverage
	}
	if *flags.MaxNetLeverage != 0 {
		cfg.Leverage.MaxNetLeverage = *flags.MaxNetLeverage
	}
	if *flags.MaxPosLeverage != 0 {
		cfg.Leverage.MaxPosLeverage = *flags.MaxPosLeverage
	}
	if *flags.ConstantExposure {
		cfg.Leverage.ConstantExposure = true
	}
	if *flags.OutputDir != "" {
		cfg.Output.Directory = *flags.OutputDir
	}
	if *flags.ConsoleOnly {
		cfg.Output.ConsoleOnly = true
	}
	return cfg, cfg.Validate()
}

// loadPanels materializes the engine inputs from the configured CSV files.
func loadPanels(cfg *config.Config) (weights, closes *backtest.Panel, opts backtest.Options, err error) {
	provider := datamanager.NewCSVPanelProvider()

	weights, err = provider.LoadPanel(cfg.WeightsFile)
	if err != nil {
		return nil, nil, opts, fmt.Errorf("weights: %w", err)
	}
	closes, err = provider.LoadPanel(cfg.PricesFile)
	if err != nil {
		return nil, nil, opts, fmt.Errorf("prices: %w", err)
	}
	if cfg.OpenFile != "" {
		if opts.Open, err = provider.LoadPanel(cfg.OpenFile); err != nil {
			return nil, nil, opts, fmt.Errorf("open prices: %w", err)
		}
	}
	if cfg.DividendsFile != "" {
		if opts.Dividends, err = provider.LoadPanel(cfg.DividendsFile); err != nil {
			return nil, nil, opts, fmt.Errorf("dividends: %w", err)
		}
	}
	if cfg.PointValuesFile != "" {
		if opts.PointValues, err = provider.LoadPanel(cfg.PointValuesFile); err != nil {
			return nil, nil, opts, fmt.Errorf("point values: %w", err)
		}
	}

	opts.Leverage, err = cfg.LeverageConfig()
	if err != nil {
		return nil, nil, opts, err
	}
	opts.Frequency = backtest.Frequency(cfg.Frequency)
	opts.Mode = cfg.Mode()
	return weights, closes, opts, nil
}

func runSingleBacktest(cfg *config.Config, flags *BacktestFlags) {
	weights, closes, opts, err := loadPanels(cfg)
	if err != nil {
		monitoring.RecordError("data")
		log.Fatalf("❌ Data error: %v", err)
	}

	log.Printf("🚀 Running %s (%s, AUM %.2f, %d instruments, %d trading dates)",
		cfg.Name, opts.Mode, cfg.InitialAUM, len(weights.Instruments()), weights.Len())

	start := time.Now()
	engine, err := backtest.NewEngine(weights, closes, cfg.InitialAUM, opts)
	if err != nil {
		monitoring.RecordError("config")
		log.Fatalf("❌ Engine error: %v", err)
	}
	result, err := engine.Run()
	if err != nil {
		monitoring.RecordError("run")
		log.Fatalf("❌ Backtest failed: %v", err)
	}
	elapsed := time.Since(start)

	results := analytics.NewPortfolioResults(cfg.Name, result)
	if startDate, ok := parseStartDate(*flags.StartDate); ok {
		results = results.Truncate(startDate)
	}
	overview, err := results.Summary()
	if err != nil {
		monitoring.RecordError("analytics")
		log.Fatalf("❌ Analytics error: %v", err)
	}

	_, finalNAV := result.NAV.At(result.NAV.Len() - 1)
	monitoring.RecordRun(cfg.Name, opts.Mode.String(), elapsed, finalNAV)

	console := reporting.NewDefaultConsoleReporter()
	console.OutputSummary(overview)

	if !cfg.Output.ConsoleOnly {
		writeFileReports(cfg, result, overview)
	}
}

func runModeComparison(cfg *config.Config) {
	weights, closes, opts, err := loadPanels(cfg)
	if err != nil {
		monitoring.RecordError("data")
		log.Fatalf("❌ Data error: %v", err)
	}

	compounding := opts
	compounding.Mode = backtest.Compounding
	noCompounding := opts
	noCompounding.Mode = backtest.NoCompounding

	jobs := []backtest.Job{
		{Name: cfg.Name + " (compounding)", Weights: weights, Close: closes, AUM: cfg.InitialAUM, Options: compounding},
		{Name: cfg.Name + " (no compounding)", Weights: weights, Close: closes, AUM: cfg.InitialAUM, Options: noCompounding},
	}

	start := time.Now()
	batch := backtest.RunBatch(jobs, len(jobs))
	elapsed := time.Since(start)

	comparison := analytics.NewComparison()
	for _, job := range jobs {
		res := batch[job.Name]
		if res.Err != nil {
			monitoring.RecordError("run")
			log.Fatalf("❌ Backtest %q failed: %v", job.Name, res.Err)
		}
		_, finalNAV := res.Result.NAV.At(res.Result.NAV.Len() - 1)
		monitoring.RecordRun(job.Name, job.Options.Mode.String(), res.Duration, finalNAV)
		comparison.Add(analytics.NewPortfolioResults(job.Name, res.Result))
	}

	ranked, err := comparison.Rank()
	if err != nil {
		monitoring.RecordError("analytics")
		log.Fatalf("❌ Analytics error: %v", err)
	}

	log.Printf("✅ Compared %d runs in %s", len(jobs), elapsed.Round(time.Millisecond))
	console := reporting.NewDefaultConsoleReporter()
	console.OutputComparison(ranked)
}

func writeFileReports(cfg *config.Config, result *backtest.Result, overview analytics.Overview) {
	paths := reporting.NewDefaultPathManager(cfg.Output.Directory)
	dir := paths.GetDefaultOutputDir(cfg.Name)
	if err := paths.EnsureDirectoryExists(dir); err != nil {
		log.Printf("⚠️ %v", err)
		return
	}

	csvReporter := reporting.NewDefaultCSVReporter()
	if err := csvReporter.WriteNAVCSV(result, filepath.Join(dir, "nav.csv")); err != nil {
		log.Printf("⚠️ NAV CSV: %v", err)
	}
	if err := csvReporter.WriteHoldingsCSV(result, filepath.Join(dir, "holdings.csv")); err != nil {
		log.Printf("⚠️ Holdings CSV: %v", err)
	}
	if err := csvReporter.WriteAttributionCSV(result, filepath.Join(dir, "pnl_attribution.csv")); err != nil {
		log.Printf("⚠️ Attribution CSV: %v", err)
	}
	if err := csvReporter.WriteSummaryCSV(overview, filepath.Join(dir, "summary.csv")); err != nil {
		log.Printf("⚠️ Summary CSV: %v", err)
	}

	excel := reporting.NewDefaultExcelReporter()
	if err := excel.WriteWorkbook(result, overview, filepath.Join(dir, "backtest.xlsx")); err != nil {
		log.Printf("⚠️ Excel workbook: %v", err)
	}
	log.Printf("💾 Reports written to %s", dir)
}

func loadEnvironment(envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			log.Printf("⚠️ Could not load env file %s: %v", envFile, err)
		}
		return
	}
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("⚠️ Could not load .env: %v", err)
		}
	}
}

func parseStartDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		log.Fatalf("❌ Invalid start date %q (use YYYY-MM-DD)", value)
	}
	return t, true
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.NewMetricsHandler())
	mux.Handle("/health", monitoring.NewHealthHandler())
	log.Printf("📡 Serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("⚠️ Metrics server stopped: %v", err)
	}
}
