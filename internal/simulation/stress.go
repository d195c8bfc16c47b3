package simulation

import (
	"math"

	"finplan-lab/internal/domain"
)

// stressShockMonths is the length of the shock window at the start of
// every stress path.
const stressShockMonths = 12

// runStressTests evaluates every scenario in the fixed catalog. Stress
// paths are deterministic: no randomness, independent of NumRuns.
func (r *Runner) runStressTests(cfg domain.SimulationConfig, assets []string, weights domain.Allocation, monthlyInflation float64, months int) map[string]domain.StressTestResult {
	results := make(map[string]domain.StressTestResult, len(domain.BuiltinStressScenarios))
	for _, scenario := range domain.BuiltinStressScenarios {
		results[scenario.ScenarioID] = r.runStressScenario(scenario, cfg, assets, weights, monthlyInflation, months)
	}
	return results
}

// runStressScenario applies the scenario's fixed annual shocks (converted
// to a monthly compounding rate) to the first twelve months, then resumes
// at nominal expected returns for the remainder of the horizon.
func (r *Runner) runStressScenario(scenario domain.StressScenario, cfg domain.SimulationConfig, assets []string, weights domain.Allocation, monthlyInflation float64, months int) domain.StressTestResult {
	nominal := make(map[string]float64, len(assets))
	shocked := make(map[string]float64, len(assets))
	for _, asset := range assets {
		nominal[asset] = math.Pow(1+r.assumptions[asset].ExpectedReturn, 1.0/12.0) - 1
		if shock, ok := scenario.Shocks[asset]; ok {
			shocked[asset] = math.Pow(1+shock, 1.0/12.0) - 1
		} else {
			shocked[asset] = nominal[asset]
		}
	}

	balance := cfg.InitialAmount
	peak := balance
	maxDrawdown := 0.0
	depleted := false
	dipped := false
	recoveredMonth := 0

	for m := 1; m <= months; m++ {
		rates := nominal
		if m <= stressShockMonths {
			rates = shocked
		}

		ret := 0.0
		for _, asset := range assets {
			ret += weights[asset] * rates[asset]
		}

		balance *= 1 + ret
		if cfg.InflationAdjust {
			balance /= 1 + monthlyInflation
		}

		escalation := math.Pow(1+monthlyInflation, float64(m-1))
		if cfg.WithdrawalPhase {
			balance -= cfg.WithdrawalAmount * escalation
		} else {
			balance += cfg.MonthlyContribution * escalation
		}

		if cfg.WithdrawalPhase && balance <= 0 {
			balance = 0
			depleted = true
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

		if balance < cfg.InitialAmount {
			dipped = true
		} else if dipped && recoveredMonth == 0 {
			recoveredMonth = m
		}
	}

	success := balance > 0
	if cfg.WithdrawalPhase {
		success = !depleted
	}

	yearsToRecover := 0.0
	if dipped && recoveredMonth > 0 {
		yearsToRecover = float64(recoveredMonth) / 12.0
	}

	return domain.StressTestResult{
		ScenarioID:     scenario.ScenarioID,
		FinalBalance:   balance,
		Success:        success,
		MaxDrawdown:    maxDrawdown,
		YearsToRecover: yearsToRecover,
	}
}
