package backtest

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Frequency identifies the sampling frequency of a price panel.
type Frequency string

const (
	FreqBusinessDaily Frequency = "B"
	FreqCalendarDaily Frequency = "D"
	FreqHourly        Frequency = "H"
	FreqMinute        Frequency = "min"
	FreqSecond        Frequency = "S"
)

// ErrUnsupportedFrequency is returned for frequency codes the engine does not
// know how to do date arithmetic for.
var ErrUnsupportedFrequency = errors.New("unsupported sampling frequency")

// ParseFrequency converts a frequency code string into a Frequency.
func ParseFrequency(code string) (Frequency, error) {
	switch Frequency(code) {
	case FreqBusinessDaily, FreqCalendarDaily, FreqHourly, FreqMinute, FreqSecond:
		return Frequency(code), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFrequency, code)
	}
}

// DateTriple holds, for one simulated date, the previous date, the date
// itself and the next date. Next is the zero time for the final date.
type DateTriple struct {
	Prev time.Time
	Now  time.Time
	Next time.Time
}

// DateIndex is the simulation's chronological date axis. Dates starts at the
// initialization date; Triples covers every date after it, in order.
type DateIndex struct {
	Dates   []time.Time
	Triples []DateTriple
}

// InitDate returns the initialization date that seeds NAV and holdings.
func (d *DateIndex) InitDate() time.Time { return d.Dates[0] }

// BuildDateIndex builds the simulation date axis from the price and weight
// date axes. If prices start before the first weight date, the axis starts at
// the price date immediately preceding it; otherwise a synthetic
// initialization date is created one sampling period before the first price
// date.
func BuildDateIndex(priceDates, weightDates []time.Time, freq Frequency) (*DateIndex, error) {
	if len(priceDates) == 0 {
		return nil, errors.New("price date axis is empty")
	}
	if len(weightDates) == 0 {
		return nil, errors.New("weight date axis is empty")
	}

	firstWeight := weightDates[0]
	var dates []time.Time
	if priceDates[0].Before(firstWeight) {
		// Index lookup of the price date immediately preceding the first
		// weight date.
		pos := sort.Search(len(priceDates), func(i int) bool {
			return !priceDates[i].Before(firstWeight)
		})
		dates = append(dates, priceDates[pos-1:]...)
	} else {
		init, err := previousPeriod(priceDates[0], freq)
		if err != nil {
			return nil, err
		}
		dates = append(dates, init)
		dates = append(dates, priceDates...)
	}

	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			return nil, fmt.Errorf("simulation date axis not strictly increasing at %s", dates[i].Format(time.RFC3339))
		}
	}

	// The initialization date seeds the recurrences and gets no triple.
	triples := make([]DateTriple, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		tr := DateTriple{Prev: dates[i-1], Now: dates[i]}
		if i+1 < len(dates) {
			tr.Next = dates[i+1]
		}
		triples = append(triples, tr)
	}
	return &DateIndex{Dates: dates, Triples: triples}, nil
}

// previousPeriod subtracts exactly one sampling period from t.
func previousPeriod(t time.Time, freq Frequency) (time.Time, error) {
	switch freq {
	case FreqBusinessDaily:
		prev := t.AddDate(0, 0, -1)
		for prev.Weekday() == time.Saturday || prev.Weekday() == time.Sunday {
			prev = prev.AddDate(0, 0, -1)
		}
		return prev, nil
	case FreqCalendarDaily:
		return t.AddDate(0, 0, -1), nil
	case FreqHourly:
		return t.Add(-time.Hour), nil
	case FreqMinute:
		return t.Add(-time.Minute), nil
	case FreqSecond:
		return t.Add(-time.Second), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, freq)
	}
}
