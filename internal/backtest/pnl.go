package backtest

import (
	"fmt"
	"math"
	"time"
)

// AlignmentError reports a panel entry that the simulation required but could
// not find. It is fatal: the orchestrator never synthesizes missing data.
type AlignmentError struct {
	Panel string
	Date  time.Time
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("missing %s entry for %s", e.Panel, e.Date.Format(time.RFC3339))
}

// periodPnL computes the per-instrument P&L for the interval ending at
// tr.Now.
//
// When the previous date was a trading date the position was (re)opened at
// the open of Now, so the interval earns the open-to-close move of Now. On
// any other date the position was simply carried overnight and accrues
// close-to-close. A missing previous close is reported as NaN; the caller
// decides whether that matters (it does not while holdings are zero).
func periodPnL(tr DateTriple, close, open, dividends *Panel, tradingDates map[int64]bool) ([]float64, error) {
	closeNow, ok := close.Row(tr.Now)
	if !ok {
		return nil, &AlignmentError{Panel: "close price", Date: tr.Now}
	}
	divNow, ok := dividends.Row(tr.Now)
	if !ok {
		return nil, &AlignmentError{Panel: "dividend", Date: tr.Now}
	}

	pnl := make([]float64, len(closeNow))
	if tradingDates[tr.Prev.UnixNano()] {
		openNow, ok := open.Row(tr.Now)
		if !ok {
			return nil, &AlignmentError{Panel: "open price", Date: tr.Now}
		}
		for i := range pnl {
			pnl[i] = closeNow[i] - openNow[i] + divNow[i]
		}
		return pnl, nil
	}

	closePrev, ok := close.Row(tr.Prev)
	if !ok {
		// Only legitimate at the very first step, against a synthetic
		// initialization date that has no price row.
		for i := range pnl {
			pnl[i] = math.NaN()
		}
		return pnl, nil
	}
	for i := range pnl {
		pnl[i] = closeNow[i] - closePrev[i] + divNow[i]
	}
	return pnl, nil
}
