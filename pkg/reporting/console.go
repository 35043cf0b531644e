package reporting

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ducminhle1904/portfolio-backtest/internal/analytics"
)

// DefaultConsoleReporter renders summaries and comparisons as tables.
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a console reporter.
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputSummary prints one strategy's overview.
func (r *DefaultConsoleReporter) OutputSummary(overview analytics.Overview) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("📊 %s", overview.Name)
	t.AppendRows([]table.Row{
		{"Mean Ann. Return", formatPercent(overview.MeanAnnReturn)},
		{"Ann. Volatility", formatPercent(overview.AnnVol)},
		{"Sharpe Ratio", formatRatio(overview.Sharpe)},
		{"Avg Daily Turnover", fmt.Sprintf("%.2f", overview.AvgDailyTurnover)},
		{"Max Drawdown", fmt.Sprintf("%s (%s)", formatPercent(overview.MaxDrawdown), overview.MaxDrawdownDate.Format("2006-01-02"))},
		{"Max Time Under Water", formatDuration(overview.MaxTimeUnderWater)},
		{"Avg Gross Exposure", fmt.Sprintf("%.2f", overview.AvgGrossExposure)},
		{"Avg Net Exposure", fmt.Sprintf("%.2f", overview.AvgNetExposure)},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

// OutputComparison prints a ranked multi-strategy comparison table. The
// caller supplies overviews already ranked by Sharpe.
func (r *DefaultConsoleReporter) OutputComparison(overviews []analytics.Overview) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("🏆 Strategy Comparison")
	t.AppendHeader(table.Row{"#", "Strategy", "Ann. Return", "Ann. Vol", "Sharpe", "Turnover", "Max DD", "Max TUW", "Gross", "Net"})
	for i, ov := range overviews {
		t.AppendRow(table.Row{
			i + 1,
			ov.Name,
			formatPercent(ov.MeanAnnReturn),
			formatPercent(ov.AnnVol),
			formatRatio(ov.Sharpe),
			fmt.Sprintf("%.2f", ov.AvgDailyTurnover),
			formatPercent(ov.MaxDrawdown),
			formatDuration(ov.MaxTimeUnderWater),
			fmt.Sprintf("%.2f", ov.AvgGrossExposure),
			fmt.Sprintf("%.2f", ov.AvgNetExposure),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}

func formatPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func formatRatio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0d"
	}
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return d.String()
}
