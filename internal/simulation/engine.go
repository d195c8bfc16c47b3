package simulation

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/metrics"
)

// sequenceRiskShare is the fraction of run indices (ordinal position, not
// randomly chosen) that receive the sequence-risk return adjustment in
// withdrawal-phase mode.
const sequenceRiskShare = 0.20

// Runner executes Monte Carlo projections. Asset assumptions are sourced
// from the parameter store by the caller before construction; the runner
// itself performs no I/O.
type Runner struct {
	assumptions map[string]domain.AssetAssumption
	seqRiskMax  float64
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	// Assumptions holds annual expected return and volatility per asset
	// class (see params.AssumptionsFromStore).
	Assumptions map[string]domain.AssetAssumption

	// SequenceRiskMaxAdjustment is the largest fractional shrink applied
	// to early withdrawal-phase runs' expected returns. Zero disables
	// the adjustment.
	SequenceRiskMaxAdjustment float64
}

// NewRunner creates a projection engine.
func NewRunner(opts RunnerOptions) *Runner {
	return &Runner{
		assumptions: opts.Assumptions,
		seqRiskMax:  opts.SequenceRiskMaxAdjustment,
	}
}

// Run executes one full simulation: cfg in, result out. The run loop is
// synchronous CPU-bound work with no cancellation point mid-run; ctx is
// only consulted between runs. Identical configs (including Seed) produce
// identical results because every run draws from the one generator
// sequence seeded per call.
func (r *Runner) Run(ctx context.Context, cfg domain.SimulationConfig) (*domain.SimulationResult, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	weights, err := cfg.Allocation.Normalize()
	if err != nil {
		// Unreachable after Validate, kept as the explicit contract.
		return nil, err
	}
	assets := weights.Assets()

	// Nominal portfolio expected annual return, for the deterministic
	// target baseline.
	annualReturn := 0.0
	for _, asset := range assets {
		annualReturn += weights[asset] * r.assumptions[asset].ExpectedReturn
	}

	monthly := make(map[string]monthlyAssumption, len(assets))
	for _, asset := range assets {
		monthly[asset] = toMonthly(r.assumptions[asset])
	}

	months := cfg.TimeHorizonYears * 12
	monthlyInflation := math.Pow(1+cfg.InflationRate, 1.0/12.0) - 1
	target := targetAmount(cfg.InitialAmount, accumulationContribution(cfg), months, annualReturn)

	gen := NewGenerator(rand.New(rand.NewSource(cfg.Seed)))

	seqBlock := int(sequenceRiskShare * float64(cfg.NumRuns))

	stats := make([]metrics.RunStats, cfg.NumRuns)
	paths := make([][]float64, cfg.NumRuns)

	for i := 0; i < cfg.NumRuns; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		runMonthly := monthly
		if cfg.WithdrawalPhase && i < seqBlock {
			runMonthly = shrinkExpectedReturns(monthly, r.sequenceRiskAdjustment(i, seqBlock))
		}

		stats[i], paths[i] = r.simulateRun(cfg, assets, weights, runMonthly, monthlyInflation, months, gen)
	}

	summary := metrics.Aggregate(stats, metrics.Options{
		ConfidenceLevels: cfg.ConfidenceLevels,
		TargetAmount:     target,
		InitialAmount:    cfg.InitialAmount,
		WithdrawalPhase:  cfg.WithdrawalPhase,
	})

	finals := make([]float64, cfg.NumRuns)
	for i, s := range stats {
		finals[i] = s.FinalBalance
	}

	result := &domain.SimulationResult{
		SimulationID: uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		FinalAmounts: finals,
		Percentiles:  summary.Percentiles,
		RiskMetrics:  summary.Risk,
		TargetAmount: target,
		MedianPath:   paths[medianRunIndex(finals)],
		SuccessRate:  summary.SuccessRate,
	}

	if cfg.StressTest {
		result.StressTestResults = r.runStressTests(cfg, assets, weights, monthlyInflation, months)
	}

	return result, nil
}

// simulateRun steps one trajectory month by month until the horizon, or
// until the balance depletes in withdrawal phase.
func (r *Runner) simulateRun(cfg domain.SimulationConfig, assets []string, weights domain.Allocation, monthly map[string]monthlyAssumption, monthlyInflation float64, months int, gen *Generator) (metrics.RunStats, []float64) {
	balance := cfg.InitialAmount
	peak := balance
	maxDrawdown := 0.0
	depleted := false

	path := make([]float64, 0, months)
	returns := make([]float64, 0, months)

	for m := 1; m <= months; m++ {
		ret := gen.PortfolioMonthlyReturn(assets, weights, monthly, cfg.CorrelationMatrix)
		returns = append(returns, ret)

		balance *= 1 + ret
		if cfg.InflationAdjust {
			balance /= 1 + monthlyInflation
		}

		// Contributions and withdrawals escalate with inflation over
		// the horizon so they keep their real value.
		escalation := math.Pow(1+monthlyInflation, float64(m-1))
		if cfg.WithdrawalPhase {
			balance -= cfg.WithdrawalAmount * escalation
		} else {
			balance += cfg.MonthlyContribution * escalation
		}

		if cfg.WithdrawalPhase && balance <= 0 {
			// Depleted: clamp, mark failed, stop stepping this run.
			balance = 0
			depleted = true
			path = append(path, balance)
			if peak > 0 {
				maxDrawdown = math.Max(maxDrawdown, (peak-balance)/peak)
			}
			break
		}

		if balance > peak {
			peak = balance
		}
		if peak > 0 {
			if dd := (peak - balance) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}

		path = append(path, balance)
	}

	return metrics.RunStats{
		FinalBalance: balance,
		MaxDrawdown:  maxDrawdown,
		Volatility:   stat.PopStdDev(returns, nil),
		Depleted:     depleted,
	}, path
}

// sequenceRiskAdjustment returns the fractional expected-return shrink for
// run index i within the bottom block: the maximum at index 0, decaying
// linearly to zero across the block. Poor early-retirement returns do
// outsized harm, so the worst block of runs models exactly that.
func (r *Runner) sequenceRiskAdjustment(i, block int) float64 {
	if block <= 0 {
		return 0
	}
	return r.seqRiskMax * float64(block-i) / float64(block)
}

// shrinkExpectedReturns scales every asset's expected monthly return down
// by the adjustment fraction, leaving volatilities untouched.
func shrinkExpectedReturns(monthly map[string]monthlyAssumption, adjustment float64) map[string]monthlyAssumption {
	if adjustment == 0 {
		return monthly
	}
	adjusted := make(map[string]monthlyAssumption, len(monthly))
	for asset, a := range monthly {
		adjusted[asset] = monthlyAssumption{mu: a.mu * (1 - adjustment), sigma: a.sigma}
	}
	return adjusted
}

// accumulationContribution is the regular contribution used for the
// deterministic target; withdrawal-phase configs contribute nothing.
func accumulationContribution(cfg domain.SimulationConfig) float64 {
	if cfg.WithdrawalPhase {
		return 0
	}
	return cfg.MonthlyContribution
}

// medianRunIndex picks the run whose final balance is the numerical
// median, so the reported path is one actual trajectory rather than a
// synthesized statistic.
func medianRunIndex(finals []float64) int {
	sorted := make([]float64, len(finals))
	copy(sorted, finals)
	sort.Float64s(sorted)

	median := sorted[metrics.MedianRank(len(sorted))]
	for i, f := range finals {
		if f == median {
			return i
		}
	}
	return 0
}
