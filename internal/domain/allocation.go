package domain

import (
	"errors"
	"sort"
)

// Asset class identifiers used by the baseline assumptions and the default
// correlation table. Allocations may reference other asset classes; unknown
// classes simply fall outside the default correlation table.
const (
	AssetEquity = "equity"
	AssetDebt   = "debt"
	AssetGold   = "gold"
	AssetCash   = "cash"
)

// ErrZeroAllocation is returned when allocation weights sum to zero and
// cannot be normalized.
var ErrZeroAllocation = errors.New("allocation weights sum to zero")

// Allocation maps asset-class identifier to portfolio weight. Weights need
// not sum to 1 on input; the engine normalizes before use.
type Allocation map[string]float64

// Normalize returns a copy of the allocation scaled so weights sum to 1.
// Returns ErrZeroAllocation if the weights total zero: the caller supplied
// an allocation the engine cannot proceed with, and that is surfaced as an
// error rather than silently defaulted.
func (a Allocation) Normalize() (Allocation, error) {
	total := 0.0
	for _, w := range a {
		total += w
	}
	if total == 0 {
		return nil, ErrZeroAllocation
	}

	normalized := make(Allocation, len(a))
	for asset, w := range a {
		normalized[asset] = w / total
	}
	return normalized, nil
}

// Assets returns the asset classes in sorted order. Simulation code must
// iterate allocations in this order so that draws from a seeded generator
// are reproducible across calls.
func (a Allocation) Assets() []string {
	assets := make([]string, 0, len(a))
	for asset := range a {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

// AssetAssumption holds the annual return assumptions for one asset class,
// sourced from the parameter store by the caller before a simulation.
type AssetAssumption struct {
	ExpectedReturn float64 `json:"expectedReturn"` // annual, e.g. 0.12
	Volatility     float64 `json:"volatility"`     // annual stddev, e.g. 0.18
}
