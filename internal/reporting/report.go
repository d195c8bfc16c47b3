// Package reporting renders simulation results for humans and
// spreadsheets. The engine's contract stays config-in/result-out; these
// renderers only read the result.
package reporting

import (
	"sort"
	"time"

	"finplan-lab/internal/domain"
)

// Report is the render-ready view of one simulation.
type Report struct {
	GeneratedAt time.Time
	Config      domain.SimulationConfig
	Result      *domain.SimulationResult
}

// NewReport pairs a config with its result.
func NewReport(cfg domain.SimulationConfig, result *domain.SimulationResult) *Report {
	return &Report{
		GeneratedAt: result.GeneratedAt,
		Config:      cfg,
		Result:      result,
	}
}

// sortedKeys returns map keys in ascending order for stable rendering.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
