package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/ducminhle1904/portfolio-backtest/internal/analytics"
	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

const csvDateFormat = "2006-01-02 15:04:05"

// DefaultCSVReporter writes run output as CSV files.
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a CSV reporter.
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

// WriteNAVCSV writes the NAV series as date,nav rows.
func (r *DefaultCSVReporter) WriteNAVCSV(result *backtest.Result, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create NAV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"date", "nav"}); err != nil {
		return err
	}
	nav := result.NAV
	for i := 0; i < nav.Len(); i++ {
		dt, v := nav.At(i)
		if err := w.Write([]string{dt.Format(csvDateFormat), strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteHoldingsCSV writes the holdings panel as a wide CSV.
func (r *DefaultCSVReporter) WriteHoldingsCSV(result *backtest.Result, path string) error {
	return writePanelCSV(result.Holdings, path)
}

// WriteAttributionCSV writes the cumulative P&L attribution panel.
func (r *DefaultCSVReporter) WriteAttributionCSV(result *backtest.Result, path string) error {
	return writePanelCSV(result.PnLAttribution, path)
}

func writePanelCSV(panel *backtest.Panel, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create panel file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := append([]string{"date"}, panel.Instruments()...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := 0; i < panel.Len(); i++ {
		row := make([]string, 0, len(header))
		row = append(row, panel.DateAt(i).Format(csvDateFormat))
		for _, v := range panel.RowAt(i) {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

// WriteSummaryCSV writes the fixed-key overview record as key,value rows.
func (r *DefaultCSVReporter) WriteSummaryCSV(overview analytics.Overview, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create summary file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	rows := [][]string{
		{"name", overview.Name},
		{"mean_ann_return", formatFloat(overview.MeanAnnReturn)},
		{"ann_vol", formatFloat(overview.AnnVol)},
		{"sharpe", formatFloat(overview.Sharpe)},
		{"avg_daily_turnover", formatFloat(overview.AvgDailyTurnover)},
		{"max_dd", formatFloat(overview.MaxDrawdown)},
		{"max_dd_date", overview.MaxDrawdownDate.Format(csvDateFormat)},
		{"max_tuw", overview.MaxTimeUnderWater.String()},
		{"avg_gross_exposure", formatFloat(overview.AvgGrossExposure)},
		{"avg_net_exposure", formatFloat(overview.AvgNetExposure)},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
