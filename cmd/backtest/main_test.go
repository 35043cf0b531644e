package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

func parseFlags(t *testing.T, args ...string) *BacktestFlags {
	t.Helper()
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	flags := NewBacktestFlagsWithFlagSet(fs)
	require.NoError(t, fs.Parse(args))
	return flags
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestBuildConfiguration_ConfigFileValuesSurvive checks that config-file
// settings are not clobbered by flag defaults the user never passed.
func TestBuildConfiguration_ConfigFileValuesSurvive(t *testing.T) {
	path := writeConfigFile(t, `{
		"weights_file": "w.csv",
		"prices_file": "p.csv",
		"initial_aum": 250,
		"frequency": "D",
		"compounding": false
	}`)

	flags := parseFlags(t, "-config", path)
	cfg, err := buildConfiguration(flags)
	require.NoError(t, err)

	assert.False(t, cfg.Compounding)
	assert.Equal(t, backtest.NoCompounding, cfg.Mode())
	assert.Equal(t, "D", cfg.Frequency)
	assert.Equal(t, 250.0, cfg.InitialAUM)
}

// TestBuildConfiguration_ExplicitFlagsOverrideConfig checks that flags the
// user did pass win over the config file.
func TestBuildConfiguration_ExplicitFlagsOverrideConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"weights_file": "w.csv",
		"prices_file": "p.csv",
		"initial_aum": 250,
		"frequency": "D",
		"compounding": false
	}`)

	flags := parseFlags(t, "-config", path, "-compounding=true", "-frequency", "B", "-aum", "500")
	cfg, err := buildConfiguration(flags)
	require.NoError(t, err)

	assert.True(t, cfg.Compounding)
	assert.Equal(t, backtest.Compounding, cfg.Mode())
	assert.Equal(t, "B", cfg.Frequency)
	assert.Equal(t, 500.0, cfg.InitialAUM)
}

// TestBuildConfiguration_FlagsOnly checks the no-config-file path.
func TestBuildConfiguration_FlagsOnly(t *testing.T) {
	flags := parseFlags(t, "-weights", "w.csv", "-prices", "p.csv", "-compounding=false")
	cfg, err := buildConfiguration(flags)
	require.NoError(t, err)

	assert.Equal(t, "w.csv", cfg.WeightsFile)
	assert.Equal(t, "p.csv", cfg.PricesFile)
	assert.Equal(t, backtest.NoCompounding, cfg.Mode())
	assert.Equal(t, DefaultInitialAUM, cfg.InitialAUM)
}

// TestChanged checks set-flag detection against defaults.
func TestChanged(t *testing.T) {
	flags := parseFlags(t, "-aum", "100")
	assert.True(t, flags.Changed("aum"), "explicitly passed, even at the default value")
	assert.False(t, flags.Changed("compounding"))
	assert.False(t, flags.Changed("frequency"))
}
