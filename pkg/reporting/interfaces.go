package reporting

import (
	"github.com/ducminhle1904/portfolio-backtest/internal/analytics"
	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

// ConsoleReporter defines console output of summaries and comparisons.
type ConsoleReporter interface {
	OutputSummary(overview analytics.Overview)
	OutputComparison(overviews []analytics.Overview)
}

// CSVReporter defines CSV file output of a completed run.
type CSVReporter interface {
	WriteNAVCSV(result *backtest.Result, path string) error
	WriteHoldingsCSV(result *backtest.Result, path string) error
	WriteAttributionCSV(result *backtest.Result, path string) error
	WriteSummaryCSV(overview analytics.Overview, path string) error
}

// ExcelReporter defines workbook output of a completed run.
type ExcelReporter interface {
	WriteWorkbook(result *backtest.Result, overview analytics.Overview, path string) error
}

// PathManager defines output path management.
type PathManager interface {
	GetDefaultOutputDir(strategyName string) string
	EnsureDirectoryExists(path string) error
}

// Reporter combines all reporting interfaces.
type Reporter interface {
	ConsoleReporter
	CSVReporter
	ExcelReporter
	PathManager
}
