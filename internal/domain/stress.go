package domain

// StressScenario applies fixed annual return shocks to every asset class
// for the first twelve months of one deterministic path, after which the
// path resumes at nominal expected returns. Assets absent from Shocks keep
// their nominal expected return during the shock window.
type StressScenario struct {
	ScenarioID  string             `json:"scenarioId"`
	Description string             `json:"description"`
	Shocks      map[string]float64 `json:"shocks"` // asset class -> annual return during shock year
}

// Stress scenario ID constants.
const (
	StressMarketCrash = "market_crash"
	StressStagflation = "stagflation"
	StressRateShock   = "rate_shock"
	StressLostDecade  = "lost_decade"
)

// Predefined stress scenarios. Shock magnitudes follow the historical
// episodes each scenario is named for.
var (
	StressScenarioMarketCrash = StressScenario{
		ScenarioID:  StressMarketCrash,
		Description: "2008-style equity crash with flight to quality",
		Shocks: map[string]float64{
			AssetEquity: -0.40,
			AssetDebt:   0.05,
			AssetGold:   0.25,
			AssetCash:   0.04,
		},
	}

	StressScenarioStagflation = StressScenario{
		ScenarioID:  StressStagflation,
		Description: "1970s-style stagflation: equities and bonds both fall, gold rallies",
		Shocks: map[string]float64{
			AssetEquity: -0.15,
			AssetDebt:   -0.10,
			AssetGold:   0.30,
			AssetCash:   0.06,
		},
	}

	StressScenarioRateShock = StressScenario{
		ScenarioID:  StressRateShock,
		Description: "sharp rate rise: bond drawdown, mild equity correction",
		Shocks: map[string]float64{
			AssetEquity: -0.10,
			AssetDebt:   -0.15,
			AssetGold:   0.00,
			AssetCash:   0.07,
		},
	}

	StressScenarioLostDecade = StressScenario{
		ScenarioID:  StressLostDecade,
		Description: "prolonged stagnation: flat-to-negative first year across risk assets",
		Shocks: map[string]float64{
			AssetEquity: -0.05,
			AssetDebt:   0.02,
			AssetGold:   0.01,
			AssetCash:   0.03,
		},
	}
)

// BuiltinStressScenarios is the fixed catalog evaluated when a config sets
// StressTest.
var BuiltinStressScenarios = []StressScenario{
	StressScenarioMarketCrash,
	StressScenarioStagflation,
	StressScenarioRateShock,
	StressScenarioLostDecade,
}

// StressTestResult is the outcome of one deterministic stress path.
type StressTestResult struct {
	ScenarioID   string  `json:"scenarioId"`
	FinalBalance float64 `json:"finalBalance"`
	// Success means balance > 0 at the horizon for accumulation, or the
	// balance never hitting zero for withdrawal phase.
	Success     bool    `json:"success"`
	MaxDrawdown float64 `json:"maxDrawdown"`
	// YearsToRecover is the time until the balance first returns to the
	// initial amount after the shock. Zero when the balance never
	// recovers, or when recovery is not applicable because the path
	// never fell below the initial amount.
	YearsToRecover float64 `json:"yearsToRecover"`
}
