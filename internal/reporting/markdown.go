package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a simulation report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Projection Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Simulation: %s | Runs: %d | Horizon: %d years\n\n",
		r.Result.SimulationID, len(r.Result.FinalAmounts), r.Config.TimeHorizonYears))

	phase := "accumulation"
	if r.Config.WithdrawalPhase {
		phase = "withdrawal"
	}
	sb.WriteString("## Configuration\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Phase | %s |\n", phase))
	sb.WriteString(fmt.Sprintf("| Initial Amount | %.2f |\n", r.Config.InitialAmount))
	if r.Config.WithdrawalPhase {
		sb.WriteString(fmt.Sprintf("| Monthly Withdrawal | %.2f |\n", r.Config.WithdrawalAmount))
	} else {
		sb.WriteString(fmt.Sprintf("| Monthly Contribution | %.2f |\n", r.Config.MonthlyContribution))
	}
	sb.WriteString(fmt.Sprintf("| Inflation Rate | %.4f |\n", r.Config.InflationRate))
	sb.WriteString(fmt.Sprintf("| Inflation Adjusted | %t |\n", r.Config.InflationAdjust))
	for _, asset := range r.Config.Allocation.Assets() {
		sb.WriteString(fmt.Sprintf("| Allocation: %s | %.4f |\n", asset, r.Config.Allocation[asset]))
	}
	sb.WriteString("\n")

	sb.WriteString("## Outcome Percentiles\n\n")
	sb.WriteString(fmt.Sprintf("Deterministic target: %.2f\n\n", r.Result.TargetAmount))
	sb.WriteString("| Confidence | Final Amount |\n")
	sb.WriteString("|------------|--------------|\n")
	for _, level := range sortedKeys(r.Result.Percentiles) {
		sb.WriteString(fmt.Sprintf("| %s | %.2f |\n", level, r.Result.Percentiles[level]))
	}
	sb.WriteString("\n")

	sb.WriteString("## Risk Metrics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Max Drawdown (mean) | %.4f |\n", r.Result.RiskMetrics.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Volatility (mean, monthly) | %.4f |\n", r.Result.RiskMetrics.Volatility))
	sb.WriteString(fmt.Sprintf("| Shortfall Probability | %.4f |\n", r.Result.RiskMetrics.ShortfallProbability))
	sb.WriteString(fmt.Sprintf("| Expected Shortfall | %.2f |\n", r.Result.RiskMetrics.ExpectedShortfall))
	for _, level := range sortedKeys(r.Result.RiskMetrics.ValueAtRisk) {
		sb.WriteString(fmt.Sprintf("| VaR %s | %.2f |\n", level, r.Result.RiskMetrics.ValueAtRisk[level]))
	}
	if r.Result.SuccessRate != nil {
		sb.WriteString(fmt.Sprintf("| Success Rate | %.4f |\n", *r.Result.SuccessRate))
	}
	sb.WriteString("\n")

	if len(r.Result.StressTestResults) > 0 {
		sb.WriteString("## Stress Scenarios\n\n")
		sb.WriteString("| Scenario | Final Balance | Success | Max Drawdown | Years To Recover |\n")
		sb.WriteString("|----------|---------------|---------|--------------|------------------|\n")
		for _, id := range sortedKeys(r.Result.StressTestResults) {
			s := r.Result.StressTestResults[id]
			status := "FAIL"
			if s.Success {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %s | %.4f | %.2f |\n",
				s.ScenarioID, s.FinalBalance, status, s.MaxDrawdown, s.YearsToRecover))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
