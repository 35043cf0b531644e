package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoad_ValidConfig checks parsing, defaults and overrides.
func TestLoad_ValidConfig(t *testing.T) {
	path := writeTempConfig(t, `{
		"name": "momentum",
		"weights_file": "weights.csv",
		"prices_file": "prices.csv",
		"initial_aum": 5000,
		"frequency": "D",
		"compounding": true,
		"leverage": {"bundle": "gross-2x"},
		"output": {"directory": "out", "console_only": true}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "momentum", cfg.Name)
	assert.Equal(t, 5000.0, cfg.InitialAUM)
	assert.Equal(t, "D", cfg.Frequency)
	assert.Equal(t, backtest.Compounding, cfg.Mode())
	assert.True(t, cfg.Output.ConsoleOnly)

	lev, err := cfg.LeverageConfig()
	require.NoError(t, err)
	assert.Equal(t, 2.0, lev.MaxGrossLeverage)
	assert.Equal(t, 1.0, lev.MaxNetLeverage)
}

// TestLoad_Errors checks missing files and invalid contents.
func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = Load(writeTempConfig(t, "{not json"))
	assert.Error(t, err)

	// Missing required fields.
	_, err = Load(writeTempConfig(t, `{"prices_file": "p.csv", "initial_aum": 100}`))
	assert.Error(t, err)
	_, err = Load(writeTempConfig(t, `{"weights_file": "w.csv", "initial_aum": 100}`))
	assert.Error(t, err)
}

// TestConfig_Validate checks field-level validation.
func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.WeightsFile = "w.csv"
		cfg.PricesFile = "p.csv"
		return cfg
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.InitialAUM = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Frequency = "W"
	assert.ErrorIs(t, cfg.Validate(), backtest.ErrUnsupportedFrequency)

	cfg = valid()
	cfg.Leverage.Bundle = "no-such-bundle"
	assert.Error(t, cfg.Validate())
}

// TestLeverageConfig_FieldOverrides checks that explicit fields win over the
// bundle's values.
func TestLeverageConfig_FieldOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.WeightsFile = "w.csv"
	cfg.PricesFile = "p.csv"
	cfg.Leverage = LeverageSettings{
		Bundle:         "gross-2x",
		MaxNetLeverage: 0.5,
	}

	lev, err := cfg.LeverageConfig()
	require.NoError(t, err)
	assert.Equal(t, 2.0, lev.MaxGrossLeverage, "from bundle")
	assert.Equal(t, 0.5, lev.MaxNetLeverage, "explicit override")
}

// TestLeverageConfig_ConstantExposure checks the flag fills the book targets.
func TestLeverageConfig_ConstantExposure(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Leverage.ConstantExposure = true

	lev, err := cfg.LeverageConfig()
	require.NoError(t, err)
	assert.True(t, lev.ConstantExposure)
	assert.Equal(t, 1.0, lev.ConstantLong)
	assert.Equal(t, -1.0, lev.ConstantShort)
}

// TestLeverageBundle checks lookup and the listing of available names.
func TestLeverageBundle(t *testing.T) {
	_, err := LeverageBundle("default")
	assert.NoError(t, err)

	_, err = LeverageBundle("nope")
	assert.Error(t, err)

	assert.Contains(t, BundleNames(), "gross-2x")
	assert.Contains(t, BundleNames(), "constant-exposure")
}
