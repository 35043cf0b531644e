package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panel.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadPanel_WideCSV checks header parsing, date parsing and row values.
func TestLoadPanel_WideCSV(t *testing.T) {
	path := writeTempCSV(t, `date,AAPL,MSFT
2024-01-01,100.5,200.25
2024-01-02,101.0,201.0
`)

	provider := NewCSVPanelProvider()
	panel, err := provider.LoadPanel(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, panel.Instruments())
	require.Equal(t, 2, panel.Len())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), panel.DateAt(0))
	assert.Equal(t, []float64{100.5, 200.25}, panel.RowAt(0))
	assert.Equal(t, []float64{101.0, 201.0}, panel.RowAt(1))
}

// TestLoadPanel_TimestampDates checks the datetime format used by intraday
// panels.
func TestLoadPanel_TimestampDates(t *testing.T) {
	path := writeTempCSV(t, `date,BTCUSDT
2024-01-01 09:00:00,42000.5
2024-01-01 10:00:00,42100.0
`)

	panel, err := NewCSVPanelProvider().LoadPanel(path)
	require.NoError(t, err)
	require.Equal(t, 2, panel.Len())
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), panel.DateAt(0))
}

// TestLoadPanel_SkipsBadRows checks that unparseable rows are skipped rather
// than failing the load.
func TestLoadPanel_SkipsBadRows(t *testing.T) {
	path := writeTempCSV(t, `date,AAPL
2024-01-01,100
not-a-date,101
2024-01-03,abc
2024-01-04,103
`)

	panel, err := NewCSVPanelProvider().LoadPanel(path)
	require.NoError(t, err)
	require.Equal(t, 2, panel.Len())
	assert.Equal(t, []float64{100}, panel.RowAt(0))
	assert.Equal(t, []float64{103}, panel.RowAt(1))
}

// TestLoadPanel_Errors checks the hard failure modes.
func TestLoadPanel_Errors(t *testing.T) {
	provider := NewCSVPanelProvider()

	_, err := provider.LoadPanel(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	// Out-of-order dates are a data error, not something to silently reorder.
	_, err = provider.LoadPanel(writeTempCSV(t, `date,AAPL
2024-01-02,100
2024-01-01,101
`))
	assert.ErrorContains(t, err, "chronological")

	// Only bad rows leaves nothing to simulate on.
	_, err = provider.LoadPanel(writeTempCSV(t, `date,AAPL
bad,worse
`))
	assert.ErrorContains(t, err, "no usable rows")

	// A lone date column has no instruments.
	_, err = provider.LoadPanel(writeTempCSV(t, "date\n2024-01-01\n"))
	assert.Error(t, err)
}

// TestFilterByDateRange checks inclusive bounds and open ends.
func TestFilterByDateRange(t *testing.T) {
	path := writeTempCSV(t, `date,AAPL
2024-01-01,100
2024-01-02,101
2024-01-03,102
2024-01-04,103
`)
	panel, err := NewCSVPanelProvider().LoadPanel(path)
	require.NoError(t, err)

	filter := NewPanelFilter()
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	out := filter.FilterByDateRange(panel, start, end)
	require.Equal(t, 2, out.Len())
	assert.Equal(t, start, out.DateAt(0))
	assert.Equal(t, end, out.DateAt(1))

	// Open start keeps everything up to the end bound.
	out = filter.FilterByDateRange(panel, time.Time{}, end)
	assert.Equal(t, 3, out.Len())
}

// TestFilterByPeriod checks the trailing-window filter.
func TestFilterByPeriod(t *testing.T) {
	path := writeTempCSV(t, `date,AAPL
2024-01-01,100
2024-01-02,101
2024-01-03,102
2024-01-04,103
`)
	panel, err := NewCSVPanelProvider().LoadPanel(path)
	require.NoError(t, err)

	out := NewPanelFilter().FilterByPeriod(panel, 48*time.Hour)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), out.DateAt(0))
}
