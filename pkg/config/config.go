package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/ducminhle1904/portfolio-backtest/internal/backtest"
)

// LeverageSettings is the file representation of a leverage configuration.
// Either name a bundle or set the individual fields; explicit fields override
// the bundle's values.
type LeverageSettings struct {
	Bundle           string  `json:"bundle,omitempty"`
	MaxGrossLeverage float64 `json:"max_gross_leverage,omitempty"`
	MaxNetLeverage   float64 `json:"max_net_leverage,omitempty"`
	MaxPosLeverage   float64 `json:"max_pos_leverage,omitempty"`
	ConstantExposure bool    `json:"constant_exposure,omitempty"`
}

// OutputSettings controls which reports a run produces.
type OutputSettings struct {
	Directory   string `json:"directory,omitempty"`
	Excel       bool   `json:"excel,omitempty"`
	CSV         bool   `json:"csv,omitempty"`
	ConsoleOnly bool   `json:"console_only,omitempty"`
}

// Config is a full backtest run configuration.
type Config struct {
	Name string `json:"name,omitempty"`

	WeightsFile     string `json:"weights_file"`
	PricesFile      string `json:"prices_file"`
	OpenFile        string `json:"open_file,omitempty"`
	DividendsFile   string `json:"dividends_file,omitempty"`
	PointValuesFile string `json:"point_values_file,omitempty"`

	InitialAUM  float64 `json:"initial_aum"`
	Frequency   string  `json:"frequency,omitempty"`
	Compounding bool    `json:"compounding"`

	Leverage LeverageSettings `json:"leverage,omitempty"`
	Output   OutputSettings   `json:"output,omitempty"`
}

// leverageBundles are the named leverage configurations constructible by
// name instead of individual fields.
var leverageBundles = map[string]backtest.LeverageConfig{
	"default": backtest.DefaultLeverageConfig(),
	"gross-2x": {
		MaxGrossLeverage: 2,
		MaxNetLeverage:   1,
		MaxPosLeverage:   1,
	},
	"constant-exposure": {
		ConstantExposure: true,
		ConstantLong:     1,
		ConstantShort:    -1,
	},
}

// BundleNames lists the available leverage bundles, sorted.
func BundleNames() []string {
	names := make([]string, 0, len(leverageBundles))
	for name := range leverageBundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LeverageBundle looks up a named leverage configuration.
func LeverageBundle(name string) (backtest.LeverageConfig, error) {
	cfg, ok := leverageBundles[name]
	if !ok {
		return backtest.LeverageConfig{}, fmt.Errorf("unknown leverage bundle %q (available: %v)", name, BundleNames())
	}
	return cfg, nil
}

// Load reads and validates a configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg := NewDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// NewDefaultConfig returns a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Name:        "default_strategy",
		InitialAUM:  100,
		Frequency:   string(backtest.FreqBusinessDaily),
		Compounding: true,
		Output:      OutputSettings{Directory: "results"},
	}
}

// Validate checks the configuration at load time.
func (c *Config) Validate() error {
	if c.WeightsFile == "" {
		return fmt.Errorf("weights_file is required")
	}
	if c.PricesFile == "" {
		return fmt.Errorf("prices_file is required")
	}
	if c.InitialAUM <= 0 {
		return fmt.Errorf("initial_aum must be positive, got %v", c.InitialAUM)
	}
	if c.Frequency != "" {
		if _, err := backtest.ParseFrequency(c.Frequency); err != nil {
			return err
		}
	}
	lev, err := c.LeverageConfig()
	if err != nil {
		return err
	}
	return lev.Validate()
}

// LeverageConfig resolves the leverage settings into the engine's typed
// configuration, applying the bundle first and explicit fields on top.
func (c *Config) LeverageConfig() (backtest.LeverageConfig, error) {
	lev := backtest.DefaultLeverageConfig()
	if c.Leverage.Bundle != "" {
		bundle, err := LeverageBundle(c.Leverage.Bundle)
		if err != nil {
			return backtest.LeverageConfig{}, err
		}
		lev = bundle
	}
	if c.Leverage.MaxGrossLeverage != 0 {
		lev.MaxGrossLeverage = c.Leverage.MaxGrossLeverage
	}
	if c.Leverage.MaxNetLeverage != 0 {
		lev.MaxNetLeverage = c.Leverage.MaxNetLeverage
	}
	if c.Leverage.MaxPosLeverage != 0 {
		lev.MaxPosLeverage = c.Leverage.MaxPosLeverage
	}
	if c.Leverage.ConstantExposure {
		lev.ConstantExposure = true
		if lev.ConstantLong == 0 {
			lev.ConstantLong = 1
		}
		if lev.ConstantShort == 0 {
			lev.ConstantShort = -1
		}
	}
	return lev, nil
}

// Mode resolves the compounding flag into the engine mode.
func (c *Config) Mode() backtest.Mode {
	if c.Compounding {
		return backtest.Compounding
	}
	return backtest.NoCompounding
}
