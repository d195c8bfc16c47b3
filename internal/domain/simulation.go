package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
)

// Simulation defaults applied by WithDefaults when the caller leaves a
// field zero.
const (
	DefaultNumRuns       = 1000
	DefaultInflationRate = 0.05
	DefaultSeed          = 20240901
)

// DefaultConfidenceLevels are used when the caller supplies none.
var DefaultConfidenceLevels = []float64{0.50, 0.75, 0.90, 0.95}

var validate = validator.New()

// SimulationConfig is the engine's only input contract (besides the asset
// assumptions the caller reads from the parameter store). A config is
// validated in full before the simulation loop begins; nothing is bounds-
// checked mid-run.
type SimulationConfig struct {
	InitialAmount       float64    `json:"initialAmount" validate:"gte=0"`
	MonthlyContribution float64    `json:"monthlyContribution" validate:"gte=0"`
	TimeHorizonYears    int        `json:"timeHorizonYears" validate:"gte=1,lte=100"`
	Allocation          Allocation `json:"allocation" validate:"required,min=1"`

	WithdrawalPhase  bool    `json:"withdrawalPhase"`
	WithdrawalAmount float64 `json:"withdrawalAmount" validate:"gte=0"`

	NumRuns         int     `json:"numRuns" validate:"gte=1,lte=100000"`
	InflationAdjust bool    `json:"inflationAdjust"`
	InflationRate   float64 `json:"inflationRate" validate:"gte=0,lte=1"` // annual

	StressTest       bool      `json:"stressTest"`
	ConfidenceLevels []float64 `json:"confidenceLevels" validate:"dive,gt=0,lt=1"`

	// CorrelationMatrix is optional. When nil the generator uses the
	// single-variate lockstep fallback.
	CorrelationMatrix CorrelationMatrix `json:"correlationMatrix,omitempty"`

	// Seed fixes the random sequence for the whole call. Identical
	// configs produce identical results.
	Seed int64 `json:"seed,omitempty"`
}

// WithDefaults returns a copy with zero-valued tunables replaced by
// defaults. ConfidenceLevels are sorted ascending and de-duplicated so the
// result behaves as an ordered set.
func (c SimulationConfig) WithDefaults() SimulationConfig {
	if c.NumRuns == 0 {
		c.NumRuns = DefaultNumRuns
	}
	if c.InflationRate == 0 {
		c.InflationRate = DefaultInflationRate
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
	if len(c.ConfidenceLevels) == 0 {
		c.ConfidenceLevels = append([]float64(nil), DefaultConfidenceLevels...)
	} else {
		levels := append([]float64(nil), c.ConfidenceLevels...)
		sort.Float64s(levels)
		deduped := levels[:0]
		for i, l := range levels {
			if i == 0 || l != levels[i-1] {
				deduped = append(deduped, l)
			}
		}
		c.ConfidenceLevels = deduped
	}
	return c
}

// Validate rejects configs the engine cannot run: out-of-bounds numeric
// fields and allocations that cannot be normalized. Lookup-style problems
// (missing correlation pairs, unknown asset classes) are not errors here;
// they degrade to defaults inside the generator.
func (c SimulationConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("simulation config: %w", err)
	}
	if _, err := c.Allocation.Normalize(); err != nil {
		return fmt.Errorf("simulation config: %w", err)
	}
	if c.WithdrawalPhase && c.WithdrawalAmount <= 0 {
		return fmt.Errorf("simulation config: withdrawal phase requires a positive withdrawal amount")
	}
	return nil
}

// VaR confidence levels reported in every result.
var ValueAtRiskLevels = []float64{0.95, 0.99}

// ConfidenceKey formats a confidence level as a stable map key ("0.95").
func ConfidenceKey(level float64) string {
	return fmt.Sprintf("%.2f", level)
}

// RiskMetrics aggregates per-run risk measures across a simulation.
type RiskMetrics struct {
	// MaxDrawdown and Volatility are arithmetic means of the per-run
	// metrics, not worst cases.
	MaxDrawdown          float64            `json:"maxDrawdown"`
	Volatility           float64            `json:"volatility"`
	ShortfallProbability float64            `json:"shortfallProbability"`
	ExpectedShortfall    float64            `json:"expectedShortfall"`
	ValueAtRisk          map[string]float64 `json:"valueAtRisk"` // keyed by ConfidenceKey
}

// SimulationResult is the engine's complete output for one config.
type SimulationResult struct {
	SimulationID string    `json:"simulationId"`
	GeneratedAt  time.Time `json:"generatedAt"`

	FinalAmounts []float64          `json:"finalAmounts"`
	Percentiles  map[string]float64 `json:"percentiles"` // keyed by ConfidenceKey
	RiskMetrics  RiskMetrics        `json:"riskMetrics"`

	// TargetAmount is the deterministic compound-growth baseline used as
	// the shortfall yardstick. It is never randomized.
	TargetAmount float64 `json:"targetAmount"`

	// MedianPath is the complete monthly trajectory of the single run
	// whose final balance is the numerical median.
	MedianPath []float64 `json:"medianPath"`

	// SuccessRate is set only for withdrawal-phase simulations: the
	// fraction of runs whose balance never reached zero.
	SuccessRate *float64 `json:"successRate,omitempty"`

	StressTestResults map[string]StressTestResult `json:"stressTestResults,omitempty"`
}
