package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPeriodPnL_AfterTradingDate checks the open-to-close branch used when
// the position was rebalanced on the previous date.
func TestPeriodPnL_AfterTradingDate(t *testing.T) {
	days := businessDays(2)
	instruments := []string{"A"}

	closes := mustPanel(t, instruments, days, [][]float64{{100}, {104}})
	opens := mustPanel(t, instruments, days, [][]float64{{99}, {101}})
	divs := mustPanel(t, instruments, days, [][]float64{{0}, {0.5}})

	tradingDates := map[int64]bool{days[0].UnixNano(): true}
	tr := DateTriple{Prev: days[0], Now: days[1]}

	pnl, err := periodPnL(tr, closes, opens, divs, tradingDates)
	require.NoError(t, err)
	assert.InDelta(t, 104-101+0.5, pnl[0], 1e-12)
}

// TestPeriodPnL_CarriedPosition checks the close-to-close branch used when
// the previous date was not a trading date.
func TestPeriodPnL_CarriedPosition(t *testing.T) {
	days := businessDays(2)
	instruments := []string{"A"}

	closes := mustPanel(t, instruments, days, [][]float64{{100}, {104}})
	opens := mustPanel(t, instruments, days, [][]float64{{99}, {101}})
	divs := mustPanel(t, instruments, days, [][]float64{{0}, {0.5}})

	tr := DateTriple{Prev: days[0], Now: days[1]}

	pnl, err := periodPnL(tr, closes, opens, divs, map[int64]bool{})
	require.NoError(t, err)
	assert.InDelta(t, 104-100+0.5, pnl[0], 1e-12)
}

// TestPeriodPnL_MissingPreviousClose checks that a previous date absent from
// the close panel yields NaN rather than an error.
func TestPeriodPnL_MissingPreviousClose(t *testing.T) {
	days := businessDays(3)
	instruments := []string{"A"}

	// No row for days[0]: plays the synthetic initialization date.
	closes := mustPanel(t, instruments, days[1:], [][]float64{{100}, {104}})
	divs := ConstantPanel(days[1:], instruments, 0)

	tr := DateTriple{Prev: days[0], Now: days[1]}
	pnl, err := periodPnL(tr, closes, closes, divs, map[int64]bool{})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(pnl[0]))
}

// TestPeriodPnL_MissingCurrentClose checks that a missing row for the current
// date is a hard alignment error.
func TestPeriodPnL_MissingCurrentClose(t *testing.T) {
	days := businessDays(3)
	instruments := []string{"A"}

	closes := mustPanel(t, instruments, days[:2], [][]float64{{100}, {101}})
	divs := ConstantPanel(days[:2], instruments, 0)

	tr := DateTriple{Prev: days[1], Now: days[2]}
	_, err := periodPnL(tr, closes, closes, divs, map[int64]bool{})

	var alignErr *AlignmentError
	require.ErrorAs(t, err, &alignErr)
	assert.Equal(t, "close price", alignErr.Panel)
	assert.Equal(t, days[2], alignErr.Date)
}
