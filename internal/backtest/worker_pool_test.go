package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunBatch_MatchesSequentialRuns checks that batched jobs produce the
// same NAVs as running each engine directly.
func TestRunBatch_MatchesSequentialRuns(t *testing.T) {
	days := businessDays(5)
	instruments := []string{"A"}
	weights := mustPanel(t, instruments, days, [][]float64{
		{1}, {0.5}, {0.8}, {0.2}, {1},
	})
	closes := mustPanel(t, instruments, days, [][]float64{
		{100}, {103}, {101}, {106}, {104},
	})

	jobs := []Job{
		{Name: "compounding", Weights: weights, Close: closes, AUM: 100, Options: Options{Mode: Compounding}},
		{Name: "flat", Weights: weights, Close: closes, AUM: 100, Options: Options{Mode: NoCompounding}},
	}

	batch := RunBatch(jobs, 2)
	require.Len(t, batch, 2)

	for _, job := range jobs {
		res, ok := batch[job.Name]
		require.True(t, ok, "missing result for %q", job.Name)
		require.NoError(t, res.Err)
		require.NotNil(t, res.Result)

		engine, err := NewEngine(job.Weights, job.Close, job.AUM, job.Options)
		require.NoError(t, err)
		want, err := engine.Run()
		require.NoError(t, err)

		require.Equal(t, want.NAV.Len(), res.Result.NAV.Len())
		for i := 0; i < want.NAV.Len(); i++ {
			_, a := want.NAV.At(i)
			_, b := res.Result.NAV.At(i)
			assert.Equal(t, a, b, "%s NAV at index %d", job.Name, i)
		}
	}
}

// TestRunBatch_FailedJobKeepsError checks that a bad job surfaces its error
// without poisoning the other results.
func TestRunBatch_FailedJobKeepsError(t *testing.T) {
	days := businessDays(3)
	instruments := []string{"A"}
	weights := mustPanel(t, instruments, days, [][]float64{{1}, {1}, {1}})
	closes := mustPanel(t, instruments, days, [][]float64{{100}, {101}, {102}})

	jobs := []Job{
		{Name: "ok", Weights: weights, Close: closes, AUM: 100},
		{Name: "bad", Weights: weights, Close: closes, AUM: -1},
	}

	batch := RunBatch(jobs, 2)
	require.Len(t, batch, 2)

	assert.NoError(t, batch["ok"].Err)
	assert.NotNil(t, batch["ok"].Result)
	assert.Error(t, batch["bad"].Err)
	assert.Nil(t, batch["bad"].Result)
}
