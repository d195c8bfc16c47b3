package domain

import "testing"

func TestSourcePriority_Overrides(t *testing.T) {
	cases := []struct {
		name     string
		writer   SourcePriority
		existing SourcePriority
		want     bool
	}{
		{"user override beats baseline", SourceUserOverride, SourceBaseline, true},
		{"user override beats advisor", SourceUserOverride, SourceAdvisor, true},
		{"baseline never beats user override", SourceBaseline, SourceUserOverride, false},
		{"market data never beats profile", SourceMarketData, SourceProfile, false},
		{"equal priority always wins", SourceProfile, SourceProfile, true},
		{"advisor beats profile", SourceAdvisor, SourceProfile, true},
		{"profile never beats advisor", SourceProfile, SourceAdvisor, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.writer.Overrides(tc.existing); got != tc.want {
				t.Errorf("Overrides(%d over %d) = %v, want %v", tc.writer, tc.existing, got, tc.want)
			}
		})
	}
}

func TestSourcePriority_String(t *testing.T) {
	if got := SourceUserOverride.String(); got != "user_override" {
		t.Errorf("expected user_override, got %s", got)
	}
	if got := SourceBaseline.String(); got != "baseline" {
		t.Errorf("expected baseline, got %s", got)
	}
	if got := SourcePriority(99).String(); got != "unknown" {
		t.Errorf("expected unknown, got %s", got)
	}
}
