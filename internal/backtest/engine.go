package backtest

import (
	"errors"
	"fmt"
	"math"
)

// Mode selects the capital base that sizes new positions.
type Mode int

const (
	// Compounding sizes each rebalance off the just-computed NAV, so
	// position sizes grow and shrink with realized performance.
	Compounding Mode = iota
	// NoCompounding always sizes off the initial AUM.
	NoCompounding
)

func (m Mode) String() string {
	switch m {
	case Compounding:
		return "compounding"
	case NoCompounding:
		return "no-compounding"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Options carries the optional inputs of a backtest. Absent panels default to
// the close panel shifted forward (open), zero (dividends, trading costs) and
// one (point values).
type Options struct {
	Open         *Panel
	Dividends    *Panel
	TradingCosts *Panel
	PointValues  *Panel

	Leverage  LeverageConfig
	Frequency Frequency
	Mode      Mode

	// ScalingWorkers bounds the goroutines used for the per-date weight
	// scaling pass. Zero means one per CPU.
	ScalingWorkers int
}

// Result is the frozen output of a completed backtest run. The NAV series is
// resampled to the panel's native frequency; the holdings panel has no row
// for the final simulation date.
type Result struct {
	Holdings       *Panel
	NAV            *Series
	PnLAttribution *Panel

	// ScaledWeights and Close are retained for downstream analytics
	// (turnover and exposure need them alongside the holdings).
	ScaledWeights *Panel
	Close         *Panel
	Frequency     Frequency
}

// Engine walks a weight panel forward through a price panel, producing
// holdings, NAV and per-instrument P&L attribution. All inputs are
// materialized in memory before Run starts; a run either completes or fails
// as a whole.
type Engine struct {
	weights      *Panel
	scaled       *Panel
	close        *Panel
	open         *Panel
	dividends    *Panel
	tradingCosts *Panel
	pointValues  *Panel

	dates        *DateIndex
	tradingDates map[int64]bool

	aum  float64
	mode Mode
	freq Frequency
}

// NewEngine validates and aligns the inputs and prepares the simulation date
// axis. Price-side panels are aligned to the weight panel's instrument order;
// a weight instrument missing from the close panel is an error.
func NewEngine(weights, closePanel *Panel, aum float64, opts Options) (*Engine, error) {
	if weights == nil || weights.Len() == 0 {
		return nil, errors.New("weight panel is empty")
	}
	if closePanel == nil || closePanel.Len() == 0 {
		return nil, errors.New("close price panel is empty")
	}
	if aum <= 0 {
		return nil, fmt.Errorf("initial AUM must be positive, got %v", aum)
	}
	if err := opts.Leverage.Validate(); err != nil {
		return nil, fmt.Errorf("leverage config: %w", err)
	}
	freq := opts.Frequency
	if freq == "" {
		// Compatibility shim for inputs without frequency metadata, matching
		// the analytics fallback; not a general default. Unknown codes still
		// fail below.
		freq = FreqBusinessDaily
	}
	if _, err := ParseFrequency(string(freq)); err != nil {
		return nil, err
	}

	instruments := weights.Instruments()
	closeAligned, err := closePanel.Select(instruments)
	if err != nil {
		return nil, fmt.Errorf("close panel: %w", err)
	}

	open := opts.Open
	if open == nil {
		open = closeAligned.ShiftForward()
	} else if open, err = open.Select(instruments); err != nil {
		return nil, fmt.Errorf("open panel: %w", err)
	}

	dividends := opts.Dividends
	if dividends == nil {
		dividends = ConstantPanel(closeAligned.Dates(), instruments, 0)
	} else if dividends, err = dividends.Select(instruments); err != nil {
		return nil, fmt.Errorf("dividend panel: %w", err)
	}

	tradingCosts := opts.TradingCosts
	if tradingCosts == nil {
		tradingCosts = ConstantPanel(closeAligned.Dates(), instruments, 0)
	} else if tradingCosts, err = tradingCosts.Select(instruments); err != nil {
		return nil, fmt.Errorf("trading cost panel: %w", err)
	}

	pointValues := opts.PointValues
	if pointValues == nil {
		pointValues = ConstantPanel(closeAligned.Dates(), instruments, 1)
	} else if pointValues, err = pointValues.Select(instruments); err != nil {
		return nil, fmt.Errorf("point value panel: %w", err)
	}

	dates, err := BuildDateIndex(closeAligned.Dates(), weights.Dates(), freq)
	if err != nil {
		return nil, err
	}

	tradingDates := make(map[int64]bool, weights.Len())
	for _, dt := range weights.Dates() {
		tradingDates[dt.UnixNano()] = true
	}

	return &Engine{
		weights:      weights,
		scaled:       ScalePanel(weights, opts.Leverage, opts.ScalingWorkers),
		close:        closeAligned,
		open:         open,
		dividends:    dividends,
		tradingCosts: tradingCosts,
		pointValues:  pointValues,
		dates:        dates,
		tradingDates: tradingDates,
		aum:          aum,
		mode:         opts.Mode,
		freq:         freq,
	}, nil
}

// ScaledWeights exposes the leverage-constrained weight panel.
func (e *Engine) ScaledWeights() *Panel { return e.scaled }

// DateIndex exposes the simulation date axis.
func (e *Engine) DateIndex() *DateIndex { return e.dates }

// Run executes the walk-forward recurrence and packages the frozen Result.
// The loop is strictly sequential: holdings and NAV at each date depend on
// the previous date's values.
func (e *Engine) Run() (*Result, error) {
	instruments := e.weights.Instruments()
	n := len(instruments)

	nav := NewSeries()
	if err := nav.Add(e.dates.InitDate(), e.aum); err != nil {
		return nil, err
	}
	holdings := NewPanel(instruments)
	if err := holdings.AddRow(e.dates.InitDate(), make([]float64, n)); err != nil {
		return nil, err
	}
	attribution := NewPanel(instruments)
	if err := attribution.AddRow(e.dates.InitDate(), make([]float64, n)); err != nil {
		return nil, err
	}

	prevNAV := e.aum
	prevHoldings := make([]float64, n)
	attrSum := make([]float64, n)

	for i, tr := range e.dates.Triples {
		pnl, err := periodPnL(tr, e.close, e.open, e.dividends, e.tradingDates)
		if err != nil {
			return nil, err
		}

		pvNow, ok := e.pointValues.Row(tr.Now)
		if !ok {
			return nil, &AlignmentError{Panel: "point value", Date: tr.Now}
		}
		divNow, ok := e.dividends.Row(tr.Now)
		if !ok {
			return nil, &AlignmentError{Panel: "dividend", Date: tr.Now}
		}

		navNow := prevNAV
		for j := 0; j < n; j++ {
			if prevHoldings[j] == 0 {
				continue
			}
			if math.IsNaN(pnl[j]) {
				return nil, &AlignmentError{Panel: "close price", Date: tr.Prev}
			}
			navNow += prevHoldings[j] * pvNow[j] * (pnl[j] + divNow[j])
		}
		if err := nav.Add(tr.Now, navNow); err != nil {
			return nil, err
		}

		// The final date has no next-period open to size against, so its
		// holdings row is never written.
		if i == len(e.dates.Triples)-1 {
			break
		}

		capital := navNow
		if e.mode == NoCompounding {
			capital = e.aum
		}
		hNow, err := e.nextHoldings(tr, prevHoldings, pvNow, capital)
		if err != nil {
			return nil, err
		}
		if err := holdings.AddRow(tr.Now, hNow); err != nil {
			return nil, err
		}
		for j := 0; j < n; j++ {
			if hNow[j] != 0 && !math.IsNaN(pnl[j]) {
				attrSum[j] += hNow[j] * pnl[j]
			}
		}
		attrRow := make([]float64, n)
		copy(attrRow, attrSum)
		if err := attribution.AddRow(tr.Now, attrRow); err != nil {
			return nil, err
		}

		prevNAV = navNow
		prevHoldings = hNow
	}

	resampled, err := nav.ResampleLast(e.freq)
	if err != nil {
		return nil, err
	}

	return &Result{
		Holdings:       holdings,
		NAV:            resampled,
		PnLAttribution: attribution,
		ScaledWeights:  e.scaled,
		Close:          e.close,
		Frequency:      e.freq,
	}, nil
}

// nextHoldings computes the holdings row for tr.Now.
func (e *Engine) nextHoldings(tr DateTriple, prevHoldings, pvNow []float64, capital float64) ([]float64, error) {
	n := len(prevHoldings)

	// No rebalancing between trading dates: carry the position forward.
	if !e.tradingDates[tr.Now.UnixNano()] {
		h := make([]float64, n)
		copy(h, prevHoldings)
		return h, nil
	}

	row, ok := e.scaled.Row(tr.Now)
	if !ok {
		return nil, &AlignmentError{Panel: "scaled weight", Date: tr.Now}
	}
	sum := 0.0
	for _, w := range row {
		sum += w
	}
	// A zero-sum weight row liquidates the book.
	if sum == 0 {
		return make([]float64, n), nil
	}

	openNext, ok := e.open.Row(tr.Next)
	if !ok {
		return nil, &AlignmentError{Panel: "open price", Date: tr.Next}
	}
	h := make([]float64, n)
	for j := 0; j < n; j++ {
		if row[j] == 0 {
			continue
		}
		denom := openNext[j] * pvNow[j]
		if denom == 0 || math.IsNaN(denom) {
			return nil, &AlignmentError{Panel: "open price", Date: tr.Next}
		}
		h[j] = row[j] * capital / denom
	}
	return h, nil
}
