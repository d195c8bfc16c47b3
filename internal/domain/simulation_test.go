package domain

import "testing"

func validConfig() SimulationConfig {
	return SimulationConfig{
		InitialAmount:       100000,
		MonthlyContribution: 1000,
		TimeHorizonYears:    10,
		Allocation:          Allocation{AssetEquity: 0.6, AssetDebt: 0.4},
	}
}

func TestSimulationConfig_WithDefaults(t *testing.T) {
	cfg := validConfig().WithDefaults()

	if cfg.NumRuns != DefaultNumRuns {
		t.Errorf("NumRuns = %d, want %d", cfg.NumRuns, DefaultNumRuns)
	}
	if cfg.InflationRate != DefaultInflationRate {
		t.Errorf("InflationRate = %f, want %f", cfg.InflationRate, DefaultInflationRate)
	}
	if cfg.Seed != DefaultSeed {
		t.Errorf("Seed = %d, want %d", cfg.Seed, DefaultSeed)
	}
	if len(cfg.ConfidenceLevels) != len(DefaultConfidenceLevels) {
		t.Errorf("ConfidenceLevels = %v, want defaults", cfg.ConfidenceLevels)
	}
}

func TestSimulationConfig_WithDefaultsSortsAndDedupes(t *testing.T) {
	cfg := validConfig()
	cfg.ConfidenceLevels = []float64{0.90, 0.50, 0.90, 0.75}

	got := cfg.WithDefaults().ConfidenceLevels
	want := []float64{0.50, 0.75, 0.90}
	if len(got) != len(want) {
		t.Fatalf("ConfidenceLevels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ConfidenceLevels[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSimulationConfig_Validate(t *testing.T) {
	if err := validConfig().WithDefaults().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestSimulationConfig_ValidateRejectsBadHorizon(t *testing.T) {
	cfg := validConfig().WithDefaults()
	cfg.TimeHorizonYears = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero horizon")
	}

	cfg.TimeHorizonYears = 101
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for horizon over 100 years")
	}
}

func TestSimulationConfig_ValidateRejectsZeroAllocation(t *testing.T) {
	cfg := validConfig().WithDefaults()
	cfg.Allocation = Allocation{AssetEquity: 0}

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero-sum allocation")
	}
}

func TestSimulationConfig_ValidateRejectsWithdrawalWithoutAmount(t *testing.T) {
	cfg := validConfig().WithDefaults()
	cfg.WithdrawalPhase = true
	cfg.WithdrawalAmount = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for withdrawal phase without amount")
	}
}

func TestConfidenceKey(t *testing.T) {
	if got := ConfidenceKey(0.95); got != "0.95" {
		t.Errorf("ConfidenceKey(0.95) = %s, want 0.95", got)
	}
	if got := ConfidenceKey(0.5); got != "0.50" {
		t.Errorf("ConfidenceKey(0.5) = %s, want 0.50", got)
	}
}
