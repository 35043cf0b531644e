package analytics

import (
	"math"
	"sort"
)

// Comparison collects named strategy results for side-by-side ranking. Each
// entry holds its own read-only result; computations per strategy are
// independent.
type Comparison struct {
	strategies []*PortfolioResults
}

// NewComparison creates a comparison over the given strategies.
func NewComparison(strategies ...*PortfolioResults) *Comparison {
	return &Comparison{strategies: strategies}
}

// Add registers another strategy.
func (c *Comparison) Add(results *PortfolioResults) {
	c.strategies = append(c.strategies, results)
}

// Rank computes every strategy's overview and sorts by Sharpe ratio,
// descending. Strategies with an undefined (NaN) Sharpe sort last.
func (c *Comparison) Rank() ([]Overview, error) {
	overviews := make([]Overview, 0, len(c.strategies))
	for _, s := range c.strategies {
		ov, err := s.Summary()
		if err != nil {
			return nil, err
		}
		overviews = append(overviews, ov)
	}
	sort.SliceStable(overviews, func(i, j int) bool {
		si, sj := overviews[i].Sharpe, overviews[j].Sharpe
		if math.IsNaN(si) {
			return false
		}
		if math.IsNaN(sj) {
			return true
		}
		return si > sj
	})
	return overviews, nil
}
