package backtest

import (
	"fmt"
	"math"
	"runtime"
	"sync"
)

// LeverageConfig constrains how raw weight rows are projected into tradable
// exposures. Zero values for the caps mean "use the default of 1".
type LeverageConfig struct {
	MaxGrossLeverage float64
	MaxNetLeverage   float64
	MaxPosLeverage   float64

	// ConstantExposure switches from leverage capping to fixed book targets:
	// the long book is renormalized to ConstantLong and the short book to
	// ConstantShort.
	ConstantExposure bool
	ConstantLong     float64
	ConstantShort    float64
}

// DefaultLeverageConfig returns the unit-leverage configuration.
func DefaultLeverageConfig() LeverageConfig {
	return LeverageConfig{
		MaxGrossLeverage: 1,
		MaxNetLeverage:   1,
		MaxPosLeverage:   1,
		ConstantLong:     1,
		ConstantShort:    -1,
	}
}

// withDefaults fills unset fields with their defaults.
func (c LeverageConfig) withDefaults() LeverageConfig {
	if c.MaxGrossLeverage == 0 {
		c.MaxGrossLeverage = 1
	}
	if c.MaxNetLeverage == 0 {
		c.MaxNetLeverage = 1
	}
	if c.MaxPosLeverage == 0 {
		c.MaxPosLeverage = 1
	}
	if c.ConstantLong == 0 {
		c.ConstantLong = 1
	}
	if c.ConstantShort == 0 {
		c.ConstantShort = -1
	}
	return c
}

// Validate checks the configuration at construction time.
func (c LeverageConfig) Validate() error {
	if c.MaxGrossLeverage < 0 {
		return fmt.Errorf("max gross leverage must be positive, got %v", c.MaxGrossLeverage)
	}
	if c.MaxNetLeverage < 0 {
		return fmt.Errorf("max net leverage must be positive, got %v", c.MaxNetLeverage)
	}
	if c.MaxPosLeverage < 0 {
		return fmt.Errorf("max position leverage must be positive, got %v", c.MaxPosLeverage)
	}
	if c.ConstantExposure {
		if c.ConstantLong < 0 {
			return fmt.Errorf("constant long target must be positive, got %v", c.ConstantLong)
		}
		if c.ConstantShort > 0 {
			return fmt.Errorf("constant short target must be negative, got %v", c.ConstantShort)
		}
	}
	return nil
}

// ScaleRow projects one raw weight row onto the leverage- and position-limit
// constrained row. The instrument ordering of the input is preserved. Weights
// >= 0 form the long book, weights < 0 the short book.
func ScaleRow(weights []float64, cfg LeverageConfig) []float64 {
	cfg = cfg.withDefaults()
	out := make([]float64, len(weights))
	copy(out, weights)

	if cfg.ConstantExposure {
		scaleConstantExposure(out, cfg)
		return out
	}

	// Step 1: per-position clip.
	for i, w := range out {
		if w > cfg.MaxPosLeverage {
			out[i] = cfg.MaxPosLeverage
		} else if w < -cfg.MaxPosLeverage {
			out[i] = -cfg.MaxPosLeverage
		}
	}

	longSum, shortSum := bookSums(out)

	// Step 2: gross cap, pro rata on both books.
	gross := longSum - shortSum
	if gross > cfg.MaxGrossLeverage && gross > 0 {
		ratio := gross / cfg.MaxGrossLeverage
		for i := range out {
			out[i] /= ratio
		}
		longSum, shortSum = bookSums(out)
	}

	// Step 3: net cap, pro rata on the binding book only.
	net := longSum + shortSum
	if math.Abs(net) > cfg.MaxNetLeverage {
		if net-cfg.MaxNetLeverage > 0 {
			// Long book drives the excess: shrink it so the signed sum lands
			// exactly on the cap.
			maxSide := -shortSum + cfg.MaxNetLeverage
			if longSum != 0 {
				ratio := longSum / maxSide
				for i, w := range out {
					if w >= 0 {
						out[i] = w / ratio
					}
				}
			}
		} else {
			minSide := -(cfg.MaxNetLeverage + longSum)
			if shortSum != 0 {
				ratio := shortSum / minSide
				for i, w := range out {
					if w < 0 {
						out[i] = w / ratio
					}
				}
			}
		}
	}
	return out
}

// scaleConstantExposure renormalizes the long book to ConstantLong and the
// short book to ConstantShort. A book with zero sum is left untouched.
func scaleConstantExposure(weights []float64, cfg LeverageConfig) {
	longSum, shortSum := bookSums(weights)
	if longSum != 0 {
		ratio := longSum / cfg.ConstantLong
		for i, w := range weights {
			if w >= 0 {
				weights[i] = w / ratio
			}
		}
	}
	if shortSum != 0 {
		ratio := shortSum / cfg.ConstantShort
		for i, w := range weights {
			if w < 0 {
				weights[i] = w / ratio
			}
		}
	}
}

// bookSums returns the signed sums of the long and short books.
func bookSums(weights []float64) (longSum, shortSum float64) {
	for _, w := range weights {
		if w >= 0 {
			longSum += w
		} else {
			shortSum += w
		}
	}
	return longSum, shortSum
}

// ScalePanel applies ScaleRow to every row of the weight panel. Rows are
// independent, so the work is partitioned across workers before the
// sequential simulation loop starts.
func ScalePanel(weights *Panel, cfg LeverageConfig, workers int) *Panel {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	n := weights.Len()
	if workers > n {
		workers = n
	}

	scaled := make([][]float64, n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			scaled[i] = ScaleRow(weights.RowAt(i), cfg)
		}
	} else {
		var wg sync.WaitGroup
		chunk := (n + workers - 1) / workers
		for start := 0; start < n; start += chunk {
			end := start + chunk
			if end > n {
				end = n
			}
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					scaled[i] = ScaleRow(weights.RowAt(i), cfg)
				}
			}(start, end)
		}
		wg.Wait()
	}

	out := NewPanel(weights.Instruments())
	for i := 0; i < n; i++ {
		_ = out.AddRow(weights.DateAt(i), scaled[i])
	}
	return out
}
