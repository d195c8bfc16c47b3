// Package metrics aggregates per-run simulation outcomes into the risk
// figures reported on a SimulationResult.
package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"finplan-lab/internal/domain"
)

// RunStats captures the per-run measures tracked by the projection engine.
type RunStats struct {
	FinalBalance float64
	MaxDrawdown  float64
	Volatility   float64
	// Depleted marks a withdrawal-phase run whose balance reached zero
	// before the horizon.
	Depleted bool
}

// Options carries the aggregation inputs that are not per-run.
type Options struct {
	ConfidenceLevels []float64
	// TargetAmount is the deterministic shortfall yardstick.
	TargetAmount  float64
	InitialAmount float64
	// WithdrawalPhase enables success-rate reporting.
	WithdrawalPhase bool
}

// Summary is the aggregated view across all runs.
type Summary struct {
	Percentiles map[string]float64
	Risk        domain.RiskMetrics
	SuccessRate *float64
}

// Aggregate computes percentile, value-at-risk, shortfall and mean risk
// figures across runs. Stats must contain at least one run.
func Aggregate(stats []RunStats, opts Options) Summary {
	n := len(stats)

	finals := make([]float64, n)
	drawdowns := make([]float64, n)
	volatilities := make([]float64, n)
	depleted := 0
	for i, s := range stats {
		finals[i] = s.FinalBalance
		drawdowns[i] = s.MaxDrawdown
		volatilities[i] = s.Volatility
		if s.Depleted {
			depleted++
		}
	}

	sortedFinals := make([]float64, n)
	copy(sortedFinals, finals)
	sort.Float64s(sortedFinals)

	percentiles := make(map[string]float64, len(opts.ConfidenceLevels))
	for _, c := range opts.ConfidenceLevels {
		percentiles[domain.ConfidenceKey(c)] = sortedFinals[ConfidenceRank(n, c)]
	}

	valueAtRisk := make(map[string]float64, len(domain.ValueAtRiskLevels))
	for _, level := range domain.ValueAtRiskLevels {
		// Loss framing: how much of the initial amount is at risk at
		// this confidence, not the final-balance quantile itself.
		valueAtRisk[domain.ConfidenceKey(level)] = opts.InitialAmount - sortedFinals[ConfidenceRank(n, level)]
	}

	shortfalls := 0
	shortfallTotal := 0.0
	for _, f := range finals {
		if f < opts.TargetAmount {
			shortfalls++
			shortfallTotal += opts.TargetAmount - f
		}
	}
	expectedShortfall := 0.0
	if shortfalls > 0 {
		expectedShortfall = shortfallTotal / float64(shortfalls)
	}

	summary := Summary{
		Percentiles: percentiles,
		Risk: domain.RiskMetrics{
			MaxDrawdown:          stat.Mean(drawdowns, nil),
			Volatility:           stat.Mean(volatilities, nil),
			ShortfallProbability: float64(shortfalls) / float64(n),
			ExpectedShortfall:    expectedShortfall,
			ValueAtRisk:          valueAtRisk,
		},
	}

	if opts.WithdrawalPhase {
		rate := 1.0 - float64(depleted)/float64(n)
		summary.SuccessRate = &rate
	}

	return summary
}

// ConfidenceRank maps a confidence level to an index into the
// ascending-sorted final amounts: floor((1-c) * n), clamped to [0, n-1].
// Higher confidence yields a lower, more conservative rank.
func ConfidenceRank(n int, confidence float64) int {
	rank := int((1.0 - confidence) * float64(n))
	if rank < 0 {
		rank = 0
	}
	if rank > n-1 {
		rank = n - 1
	}
	return rank
}

// MedianRank is the sorted index whose run supplies the reported median
// path.
func MedianRank(n int) int {
	return n / 2
}
