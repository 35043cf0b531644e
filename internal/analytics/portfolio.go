package analytics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

// turnoverUnitScale divides the previous holdings' market value when
// comparing against target weights. Kept at its historical value for
// compatibility with existing track records.
const turnoverUnitScale = 100.0

// ErrUnsupportedFrequency mirrors the engine's configuration error for
// annualization scaling.
var ErrUnsupportedFrequency = backtest.ErrUnsupportedFrequency

// PortfolioResults derives performance and exposure statistics from a
// completed backtest result. It holds a read-only reference to the result;
// nothing here mutates it.
type PortfolioResults struct {
	name     string
	nav      *backtest.Series
	holdings *backtest.Panel
	prices   *backtest.Panel
	weights  *backtest.Panel
	freq     backtest.Frequency
}

// NewPortfolioResults wraps a backtest result for analysis under the given
// strategy name.
func NewPortfolioResults(name string, res *backtest.Result) *PortfolioResults {
	return &PortfolioResults{
		name:     name,
		nav:      res.NAV,
		holdings: res.Holdings,
		prices:   res.Close,
		weights:  res.ScaledWeights,
		freq:     res.Frequency,
	}
}

// Name returns the strategy name.
func (p *PortfolioResults) Name() string { return p.name }

// NAV returns the analyzed NAV series.
func (p *PortfolioResults) NAV() *backtest.Series { return p.nav }

// Truncate returns a view of the results starting at the given date. Points
// before it are dropped from every series and panel.
func (p *PortfolioResults) Truncate(start time.Time) *PortfolioResults {
	return &PortfolioResults{
		name:     p.name,
		nav:      truncateSeries(p.nav, start),
		holdings: truncatePanel(p.holdings, start),
		prices:   truncatePanel(p.prices, start),
		weights:  truncatePanel(p.weights, start),
		freq:     p.freq,
	}
}

func truncateSeries(s *backtest.Series, start time.Time) *backtest.Series {
	out := backtest.NewSeries()
	for i := 0; i < s.Len(); i++ {
		dt, v := s.At(i)
		if dt.Before(start) {
			continue
		}
		_ = out.Add(dt, v)
	}
	return out
}

func truncatePanel(p *backtest.Panel, start time.Time) *backtest.Panel {
	out := backtest.NewPanel(p.Instruments())
	for i := 0; i < p.Len(); i++ {
		dt := p.DateAt(i)
		if dt.Before(start) {
			continue
		}
		_ = out.AddRow(dt, p.RowAt(i))
	}
	return out
}

// Returns computes the log-return series of the NAV, dropping the first
// undefined value.
func (p *PortfolioResults) Returns() []float64 {
	values := p.nav.Values()
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		returns = append(returns, math.Log(values[i])-math.Log(values[i-1]))
	}
	return returns
}

// AnnualizationFactor maps the sampling frequency to the number of periods
// per year. An absent frequency falls back to business-daily scaling; this is
// a compatibility shim for inputs without frequency metadata, not a general
// default. Any other unrecognized code is a configuration error.
func (p *PortfolioResults) AnnualizationFactor() (float64, error) {
	switch p.freq {
	case backtest.FreqCalendarDaily:
		return 365, nil
	case backtest.FreqBusinessDaily:
		return 260, nil
	case backtest.FreqHourly:
		return 24 * 365, nil
	case "":
		return 260, nil
	default:
		return 0, fmt.Errorf("%w: %q has no annualization scaling", ErrUnsupportedFrequency, p.freq)
	}
}

// MeanAnnReturn is the mean log return scaled to one year.
func (p *PortfolioResults) MeanAnnReturn() (float64, error) {
	scaling, err := p.AnnualizationFactor()
	if err != nil {
		return 0, err
	}
	return mean(p.Returns()) * scaling, nil
}

// AnnVol is the sample standard deviation of returns scaled to one year.
func (p *PortfolioResults) AnnVol() (float64, error) {
	scaling, err := p.AnnualizationFactor()
	if err != nil {
		return 0, err
	}
	return stdDev(p.Returns()) * math.Sqrt(scaling), nil
}

// Sharpe is the annualized return over annualized volatility. Zero
// volatility yields NaN rather than an error.
func (p *PortfolioResults) Sharpe() (float64, error) {
	annRet, err := p.MeanAnnReturn()
	if err != nil {
		return 0, err
	}
	annVol, err := p.AnnVol()
	if err != nil {
		return 0, err
	}
	if annVol == 0 {
		return math.NaN(), nil
	}
	return annRet / annVol, nil
}

// DrawdownSeries is the pointwise relative decline of the NAV from its
// running maximum; every value is <= 0.
func (p *PortfolioResults) DrawdownSeries() *backtest.Series {
	out := backtest.NewSeries()
	runningMax := math.Inf(-1)
	for i := 0; i < p.nav.Len(); i++ {
		dt, v := p.nav.At(i)
		if v > runningMax {
			runningMax = v
		}
		_ = out.Add(dt, (v-runningMax)/runningMax)
	}
	return out
}

// MaxDrawdown returns the deepest drawdown and the date it occurred.
func (p *PortfolioResults) MaxDrawdown() (time.Time, float64) {
	dd := p.DrawdownSeries()
	minVal := 0.0
	var minDate time.Time
	for i := 0; i < dd.Len(); i++ {
		dt, v := dd.At(i)
		if i == 0 || v < minVal {
			minVal = v
			minDate = dt
		}
	}
	return minDate, minVal
}

// MaxTimeUnderWater returns the longest stretch between a drawdown's onset
// and the recovery to the prior peak. A NAV that never leaves its running
// maximum has zero time under water.
func (p *PortfolioResults) MaxTimeUnderWater() time.Duration {
	dd := p.DrawdownSeries()
	var maxGap time.Duration
	var lastPeak time.Time
	inDrawdown := false
	for i := 0; i < dd.Len(); i++ {
		dt, v := dd.At(i)
		if v == 0 {
			if inDrawdown && !lastPeak.IsZero() {
				if gap := dt.Sub(lastPeak); gap > maxGap {
					maxGap = gap
				}
				inDrawdown = false
			}
			lastPeak = dt
		} else {
			inDrawdown = true
		}
	}
	return maxGap
}

// TurnoverSeries computes, per trading date, the magnitude of position
// change needed to reach the target weights from the previously implied
// holdings. Both panels are date-sorted, so one forward cursor over the
// holdings tracks the row immediately before each weight date.
func (p *PortfolioResults) TurnoverSeries() *backtest.Series {
	out := backtest.NewSeries()
	cursor := 0
	var prev []float64
	for i := 0; i < p.weights.Len(); i++ {
		dt := p.weights.DateAt(i)
		for cursor < p.holdings.Len() && p.holdings.DateAt(cursor).Before(dt) {
			prev = p.holdings.RowAt(cursor)
			cursor++
		}
		wRow := p.weights.RowAt(i)
		price, ok := p.prices.Row(dt)
		turnover := 0.0
		for j, w := range wRow {
			implied := 0.0
			if prev != nil && ok {
				implied = prev[j] * price[j] / turnoverUnitScale
			}
			turnover += math.Abs(w - implied)
		}
		_ = out.Add(dt, turnover)
	}
	return out
}

// AvgDailyTurnover is the mean of the turnover series.
func (p *PortfolioResults) AvgDailyTurnover() float64 {
	return mean(p.TurnoverSeries().Values())
}

// GrossExposureSeries is the per-date sum of absolute weights.
func (p *PortfolioResults) GrossExposureSeries() *backtest.Series {
	out := backtest.NewSeries()
	for i := 0; i < p.weights.Len(); i++ {
		sum := 0.0
		for _, w := range p.weights.RowAt(i) {
			sum += math.Abs(w)
		}
		_ = out.Add(p.weights.DateAt(i), sum)
	}
	return out
}

// NetExposureSeries is the per-date signed sum of weights.
func (p *PortfolioResults) NetExposureSeries() *backtest.Series {
	out := backtest.NewSeries()
	for i := 0; i < p.weights.Len(); i++ {
		sum := 0.0
		for _, w := range p.weights.RowAt(i) {
			sum += w
		}
		_ = out.Add(p.weights.DateAt(i), sum)
	}
	return out
}

// AvgGrossExposure is the sample mean of the gross exposure series.
func (p *PortfolioResults) AvgGrossExposure() float64 {
	return mean(p.GrossExposureSeries().Values())
}

// AvgNetExposure is the sample mean of the net exposure series.
func (p *PortfolioResults) AvgNetExposure() float64 {
	return mean(p.NetExposureSeries().Values())
}

// Overview is the fixed-key summary record of one strategy's performance.
type Overview struct {
	Name              string
	MeanAnnReturn     float64
	AnnVol            float64
	Sharpe            float64
	AvgDailyTurnover  float64
	MaxDrawdown       float64
	MaxDrawdownDate   time.Time
	MaxTimeUnderWater time.Duration
	AvgGrossExposure  float64
	AvgNetExposure    float64
}

// Summary assembles the overview record.
func (p *PortfolioResults) Summary() (Overview, error) {
	if p.nav.Len() == 0 {
		return Overview{}, errors.New("empty NAV series")
	}
	annRet, err := p.MeanAnnReturn()
	if err != nil {
		return Overview{}, err
	}
	annVol, err := p.AnnVol()
	if err != nil {
		return Overview{}, err
	}
	sharpe, err := p.Sharpe()
	if err != nil {
		return Overview{}, err
	}
	ddDate, dd := p.MaxDrawdown()
	return Overview{
		Name:              p.name,
		MeanAnnReturn:     annRet,
		AnnVol:            annVol,
		Sharpe:            sharpe,
		AvgDailyTurnover:  p.AvgDailyTurnover(),
		MaxDrawdown:       dd,
		MaxDrawdownDate:   ddDate,
		MaxTimeUnderWater: p.MaxTimeUnderWater(),
		AvgGrossExposure:  p.AvgGrossExposure(),
		AvgNetExposure:    p.AvgNetExposure(),
	}, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	avg := mean(values)
	sumSquares := 0.0
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}
