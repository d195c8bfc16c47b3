package domain

import (
	"errors"
	"math"
	"testing"
)

func TestAllocation_Normalize(t *testing.T) {
	a := Allocation{AssetEquity: 60, AssetDebt: 30, AssetGold: 10}

	normalized, err := a.Normalize()
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	total := 0.0
	for _, w := range normalized {
		total += w
	}
	if math.Abs(total-1.0) > 1e-12 {
		t.Errorf("normalized weights sum to %f, want 1.0", total)
	}
	if math.Abs(normalized[AssetEquity]-0.6) > 1e-12 {
		t.Errorf("equity weight = %f, want 0.6", normalized[AssetEquity])
	}

	// Original must be untouched.
	if a[AssetEquity] != 60 {
		t.Errorf("Normalize mutated input: equity = %f", a[AssetEquity])
	}
}

func TestAllocation_NormalizeZeroSum(t *testing.T) {
	a := Allocation{AssetEquity: 0, AssetDebt: 0}

	_, err := a.Normalize()
	if !errors.Is(err, ErrZeroAllocation) {
		t.Errorf("expected ErrZeroAllocation, got %v", err)
	}
}

func TestAllocation_AssetsSorted(t *testing.T) {
	a := Allocation{AssetGold: 0.1, AssetEquity: 0.6, AssetCash: 0.05, AssetDebt: 0.25}

	assets := a.Assets()
	want := []string{AssetCash, AssetDebt, AssetEquity, AssetGold}
	if len(assets) != len(want) {
		t.Fatalf("expected %d assets, got %d", len(want), len(assets))
	}
	for i, asset := range want {
		if assets[i] != asset {
			t.Errorf("assets[%d] = %s, want %s", i, assets[i], asset)
		}
	}
}
