// Package simulation implements the correlated return generator and the
// Monte Carlo projection engine that forecasts goal outcomes under
// uncertainty.
package simulation

import (
	"math"
	"math/rand"

	"finplan-lab/internal/domain"
)

// monthlyAssumption is one asset's per-month return figures, converted
// from the annual assumptions before the run loop starts.
type monthlyAssumption struct {
	mu    float64 // expected monthly return
	sigma float64 // monthly volatility
}

// Generator produces simulated single-month portfolio returns. All draws
// come from the one seeded source handed over at construction, so a whole
// simulation call consumes a single deterministic sequence.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator on top of a seeded random source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// PortfolioMonthlyReturn simulates one month's portfolio return.
//
// Without a correlation matrix, a single standard-normal variate is shared
// by the whole portfolio and the blended volatility is the allocation-
// weighted SUM of per-asset volatilities. That treats all assets as moving
// in lockstep; it is the explicit "no correlation supplied" fallback and is
// kept as-is rather than replaced by the quadratic-form portfolio variance,
// because changing it changes simulated risk outputs materially.
//
// With a matrix, each asset gets its own variate, blended with every other
// asset's variate weighted by the pairwise coefficient. This composite-
// variate blend approximates a multivariate draw; it is not a Cholesky
// factorization.
//
// Assets must be the sorted asset list and weights normalized; iterating in
// sorted order keeps draw consumption reproducible for a fixed seed.
func (g *Generator) PortfolioMonthlyReturn(assets []string, weights domain.Allocation, monthly map[string]monthlyAssumption, corr domain.CorrelationMatrix) float64 {
	if corr == nil {
		z := g.rng.NormFloat64()
		mu, sigma := 0.0, 0.0
		for _, asset := range assets {
			mu += weights[asset] * monthly[asset].mu
			sigma += weights[asset] * monthly[asset].sigma
		}
		return lognormalReturn(mu, sigma, z)
	}

	draws := make(map[string]float64, len(assets))
	for _, asset := range assets {
		draws[asset] = g.rng.NormFloat64()
	}

	portfolio := 0.0
	for _, asset := range assets {
		composite := 0.0
		for _, other := range assets {
			composite += corr.Coefficient(asset, other) * draws[other]
		}
		a := monthly[asset]
		portfolio += weights[asset] * lognormalReturn(a.mu, a.sigma, composite)
	}
	return portfolio
}

// lognormalReturn converts a normal shock into a multiplicative single-
// period return consistent with continuous compounding:
// exp(ln(1+mu) - sigma^2/2 + sigma*z) - 1.
func lognormalReturn(mu, sigma, z float64) float64 {
	return math.Exp(math.Log(1+mu)-0.5*sigma*sigma+sigma*z) - 1
}

// toMonthly converts annual assumptions to monthly figures:
// (1+r)^(1/12)-1 for the return, sigma/sqrt(12) for volatility.
func toMonthly(annual domain.AssetAssumption) monthlyAssumption {
	return monthlyAssumption{
		mu:    math.Pow(1+annual.ExpectedReturn, 1.0/12.0) - 1,
		sigma: annual.Volatility / math.Sqrt(12),
	}
}
