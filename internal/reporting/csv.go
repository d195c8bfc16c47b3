package reporting

import (
	"fmt"
	"strings"
)

// RenderPercentilesCSV renders the outcome distribution as CSV string.
func RenderPercentilesCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("confidence,final_amount\n")
	for _, level := range sortedKeys(r.Result.Percentiles) {
		sb.WriteString(fmt.Sprintf("%s,%.6f\n", level, r.Result.Percentiles[level]))
	}
	return sb.String()
}

// RenderStressCSV renders stress scenario outcomes as CSV string.
func RenderStressCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("scenario_id,final_balance,success,max_drawdown,years_to_recover\n")
	for _, id := range sortedKeys(r.Result.StressTestResults) {
		s := r.Result.StressTestResults[id]
		sb.WriteString(fmt.Sprintf("%s,%.6f,%t,%.6f,%.6f\n",
			s.ScenarioID, s.FinalBalance, s.Success, s.MaxDrawdown, s.YearsToRecover))
	}
	return sb.String()
}

// RenderMedianPathCSV renders the median run's monthly trajectory.
func RenderMedianPathCSV(r *Report) string {
	var sb strings.Builder

	sb.WriteString("month,balance\n")
	for i, balance := range r.Result.MedianPath {
		sb.WriteString(fmt.Sprintf("%d,%.6f\n", i+1, balance))
	}
	return sb.String()
}
