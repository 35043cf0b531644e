package backtest

import (
	"fmt"
	"math"
	"time"
)

// Panel is a date-by-instrument table of float64 values. Rows are stored in
// chronological order and every row is aligned to the panel's instrument list.
type Panel struct {
	instruments []string
	dates       []time.Time
	rows        [][]float64
	index       map[int64]int // unix-nano -> row position
}

// NewPanel creates an empty panel for the given instrument columns.
func NewPanel(instruments []string) *Panel {
	cols := make([]string, len(instruments))
	copy(cols, instruments)
	return &Panel{
		instruments: cols,
		index:       make(map[int64]int),
	}
}

// ConstantPanel creates a panel with the given dates and instruments where
// every cell holds the same value. Used for defaulted dividend, trading-cost
// and point-value inputs.
func ConstantPanel(dates []time.Time, instruments []string, value float64) *Panel {
	p := NewPanel(instruments)
	row := make([]float64, len(instruments))
	for i := range row {
		row[i] = value
	}
	for _, dt := range dates {
		_ = p.AddRow(dt, row)
	}
	return p
}

// AddRow appends a row for the given date. Rows must be added in strictly
// increasing date order and match the panel's column count.
func (p *Panel) AddRow(date time.Time, values []float64) error {
	if len(values) != len(p.instruments) {
		return fmt.Errorf("panel row for %s has %d values, want %d", date.Format(time.RFC3339), len(values), len(p.instruments))
	}
	if n := len(p.dates); n > 0 && !p.dates[n-1].Before(date) {
		return fmt.Errorf("panel row for %s is not after previous date %s", date.Format(time.RFC3339), p.dates[n-1].Format(time.RFC3339))
	}
	row := make([]float64, len(values))
	copy(row, values)
	p.index[date.UnixNano()] = len(p.dates)
	p.dates = append(p.dates, date)
	p.rows = append(p.rows, row)
	return nil
}

// Instruments returns the panel's column order.
func (p *Panel) Instruments() []string { return p.instruments }

// Dates returns the panel's chronological date axis.
func (p *Panel) Dates() []time.Time { return p.dates }

// Len returns the number of rows.
func (p *Panel) Len() int { return len(p.dates) }

// HasDate reports whether the panel holds a row for the given date.
func (p *Panel) HasDate(date time.Time) bool {
	_, ok := p.index[date.UnixNano()]
	return ok
}

// Row returns the value row for the given date.
func (p *Panel) Row(date time.Time) ([]float64, bool) {
	i, ok := p.index[date.UnixNano()]
	if !ok {
		return nil, false
	}
	return p.rows[i], true
}

// RowAt returns the row at position i.
func (p *Panel) RowAt(i int) []float64 { return p.rows[i] }

// DateAt returns the date at position i.
func (p *Panel) DateAt(i int) time.Time { return p.dates[i] }

// FirstDate returns the earliest date in the panel.
func (p *Panel) FirstDate() time.Time {
	if len(p.dates) == 0 {
		return time.Time{}
	}
	return p.dates[0]
}

// LastDate returns the latest date in the panel.
func (p *Panel) LastDate() time.Time {
	if len(p.dates) == 0 {
		return time.Time{}
	}
	return p.dates[len(p.dates)-1]
}

// Select returns a new panel holding the given instrument columns, in the
// given order, for all dates. Instruments missing from the panel produce an
// error.
func (p *Panel) Select(instruments []string) (*Panel, error) {
	cols := make([]int, len(instruments))
	for i, name := range instruments {
		idx := -1
		for j, have := range p.instruments {
			if have == name {
				idx = j
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("instrument %q not present in panel", name)
		}
		cols[i] = idx
	}
	out := NewPanel(instruments)
	for i, dt := range p.dates {
		row := make([]float64, len(cols))
		for j, c := range cols {
			row[j] = p.rows[i][c]
		}
		if err := out.AddRow(dt, row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ShiftForward returns a panel where the row for each date holds the values
// of the preceding date. The first date's row is filled with NaN. This is the
// default open-price panel: an open equal to the prior period's close.
func (p *Panel) ShiftForward() *Panel {
	out := NewPanel(p.instruments)
	for i, dt := range p.dates {
		row := make([]float64, len(p.instruments))
		if i == 0 {
			for j := range row {
				row[j] = math.NaN()
			}
		} else {
			copy(row, p.rows[i-1])
		}
		_ = out.AddRow(dt, row)
	}
	return out
}

// Series is an ordered date-to-scalar sequence.
type Series struct {
	dates  []time.Time
	values []float64
	index  map[int64]int
}

// NewSeries creates an empty series.
func NewSeries() *Series {
	return &Series{index: make(map[int64]int)}
}

// Add appends a point. Dates must be strictly increasing.
func (s *Series) Add(date time.Time, value float64) error {
	if n := len(s.dates); n > 0 && !s.dates[n-1].Before(date) {
		return fmt.Errorf("series point for %s is not after previous date %s", date.Format(time.RFC3339), s.dates[n-1].Format(time.RFC3339))
	}
	s.index[date.UnixNano()] = len(s.dates)
	s.dates = append(s.dates, date)
	s.values = append(s.values, value)
	return nil
}

// Len returns the number of points.
func (s *Series) Len() int { return len(s.dates) }

// Dates returns the chronological date axis.
func (s *Series) Dates() []time.Time { return s.dates }

// Values returns the values in date order.
func (s *Series) Values() []float64 { return s.values }

// At returns the i-th point.
func (s *Series) At(i int) (time.Time, float64) { return s.dates[i], s.values[i] }

// Value returns the value for the given date.
func (s *Series) Value(date time.Time) (float64, bool) {
	i, ok := s.index[date.UnixNano()]
	if !ok {
		return 0, false
	}
	return s.values[i], true
}

// ResampleLast collapses the series to one observation per sampling period,
// keeping the last observation of each period.
func (s *Series) ResampleLast(freq Frequency) (*Series, error) {
	out := NewSeries()
	var lastKey time.Time
	var lastDate time.Time
	var lastValue float64
	have := false
	for i, dt := range s.dates {
		key, err := periodKey(dt, freq)
		if err != nil {
			return nil, err
		}
		if have && !key.Equal(lastKey) {
			if err := out.Add(lastDate, lastValue); err != nil {
				return nil, err
			}
		}
		lastKey, lastDate, lastValue = key, dt, s.values[i]
		have = true
	}
	if have {
		if err := out.Add(lastDate, lastValue); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// periodKey truncates a date to the start of its sampling period.
func periodKey(t time.Time, freq Frequency) (time.Time, error) {
	switch freq {
	case FreqBusinessDaily, FreqCalendarDaily:
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), nil
	case FreqHourly:
		return t.Truncate(time.Hour), nil
	case FreqMinute:
		return t.Truncate(time.Minute), nil
	case FreqSecond:
		return t.Truncate(time.Second), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, freq)
	}
}
