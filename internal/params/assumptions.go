package params

import (
	"strings"

	"finplan-lab/internal/domain"
)

// Parameter paths consumed by the simulation layer.
const (
	returnsPrefix              = "market.returns."
	pathInflationAnnual        = "economy.inflation.annual"
	pathSequenceRiskMaxAdjust  = "simulation.sequence_risk.max_adjustment"
	expectedReturnSuffix       = ".expected"
	volatilitySuffix           = ".volatility"
	fallbackInflation          = 0.05
	fallbackSequenceRiskMaxAdj = 0.30
)

// AssumptionsFromStore reads per-asset expected return and volatility from
// the store's market.returns branch. Assets with only one of the two
// figures present keep zero for the other; callers treat missing assets as
// zero-return, zero-volatility.
func AssumptionsFromStore(s *Store) map[string]domain.AssetAssumption {
	assumptions := make(map[string]domain.AssetAssumption)

	for path, value := range s.Values() {
		if !strings.HasPrefix(path, returnsPrefix) {
			continue
		}
		rest := strings.TrimPrefix(path, returnsPrefix)

		var asset string
		var isExpected bool
		switch {
		case strings.HasSuffix(rest, expectedReturnSuffix):
			asset = strings.TrimSuffix(rest, expectedReturnSuffix)
			isExpected = true
		case strings.HasSuffix(rest, volatilitySuffix):
			asset = strings.TrimSuffix(rest, volatilitySuffix)
		default:
			continue
		}
		if asset == "" || strings.Contains(asset, ".") {
			continue
		}

		f, ok := toFloat(value)
		if !ok {
			continue
		}

		a := assumptions[asset]
		if isExpected {
			a.ExpectedReturn = f
		} else {
			a.Volatility = f
		}
		assumptions[asset] = a
	}

	return assumptions
}

// InflationFromStore reads the annual inflation assumption.
func InflationFromStore(s *Store) float64 {
	return s.GetFloat(pathInflationAnnual, fallbackInflation)
}

// SequenceRiskMaxAdjustment reads the maximum sequence-risk return
// adjustment applied to early withdrawal-phase runs.
func SequenceRiskMaxAdjustment(s *Store) float64 {
	return s.GetFloat(pathSequenceRiskMaxAdjust, fallbackSequenceRiskMaxAdj)
}
