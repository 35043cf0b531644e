package data

import (
	"time"

	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

// PanelProvider loads date-by-instrument panels from an external source. The
// engine itself never touches I/O; providers are the boundary adapters that
// materialize its inputs.
type PanelProvider interface {
	// LoadPanel loads a panel from the given source.
	LoadPanel(source string) (*backtest.Panel, error)

	// GetName returns the name of the provider.
	GetName() string
}

// PanelFilter narrows a panel to a date window.
type PanelFilter interface {
	// FilterByPeriod keeps only the trailing period of the panel.
	FilterByPeriod(p *backtest.Panel, period time.Duration) *backtest.Panel

	// FilterByDateRange keeps only rows within [start, end].
	FilterByDateRange(p *backtest.Panel, start, end time.Time) *backtest.Panel
}
