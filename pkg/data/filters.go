package data

import (
	"time"

	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

// DefaultPanelFilter implements date-window filtering on panels.
type DefaultPanelFilter struct{}

// NewPanelFilter creates a panel filter.
func NewPanelFilter() *DefaultPanelFilter {
	return &DefaultPanelFilter{}
}

// FilterByPeriod keeps the trailing period of the panel, measured back from
// its last date.
func (f *DefaultPanelFilter) FilterByPeriod(p *backtest.Panel, period time.Duration) *backtest.Panel {
	if p.Len() == 0 || period <= 0 {
		return p
	}
	cutoff := p.LastDate().Add(-period)
	return f.FilterByDateRange(p, cutoff, p.LastDate())
}

// FilterByDateRange keeps only rows within [start, end], inclusive. Zero
// bounds are open.
func (f *DefaultPanelFilter) FilterByDateRange(p *backtest.Panel, start, end time.Time) *backtest.Panel {
	out := backtest.NewPanel(p.Instruments())
	for i := 0; i < p.Len(); i++ {
		dt := p.DateAt(i)
		if !start.IsZero() && dt.Before(start) {
			continue
		}
		if !end.IsZero() && dt.After(end) {
			continue
		}
		_ = out.AddRow(dt, p.RowAt(i))
	}
	return out
}
