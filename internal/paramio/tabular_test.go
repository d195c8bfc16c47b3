package paramio

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"finplan-lab/internal/domain"
)

func TestCSV_RoundTrip(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	records := []domain.ParameterRecord{
		{
			Path:            "market.returns.equity.expected",
			Value:           0.12,
			SourcePriority:  domain.SourceBaseline,
			UserOverridable: true,
			LastUpdated:     now,
		},
		{
			Path:            "simulation.default_runs",
			Value:           1000,
			SourcePriority:  domain.SourceProfile,
			UserOverridable: true,
			LastUpdated:     now,
		},
		{
			Path:            "profile.risk_label",
			Value:           "aggressive",
			SourcePriority:  domain.SourceUserOverride,
			UserOverridable: false,
			LastUpdated:     now,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("round-tripped %d records, want %d", len(got), len(records))
	}

	if got[0].Value != 0.12 {
		t.Errorf("float value = %v (%T), want 0.12", got[0].Value, got[0].Value)
	}
	if got[1].Value != 1000 {
		t.Errorf("int value = %v (%T), want 1000", got[1].Value, got[1].Value)
	}
	if got[2].Value != "aggressive" {
		t.Errorf("string value = %v, want aggressive", got[2].Value)
	}

	for i := range records {
		if got[i].Path != records[i].Path {
			t.Errorf("path[%d] = %s, want %s", i, got[i].Path, records[i].Path)
		}
		if got[i].SourcePriority != records[i].SourcePriority {
			t.Errorf("priority[%d] = %v, want %v", i, got[i].SourcePriority, records[i].SourcePriority)
		}
		if !got[i].LastUpdated.Equal(records[i].LastUpdated) {
			t.Errorf("timestamp[%d] = %v, want %v", i, got[i].LastUpdated, records[i].LastUpdated)
		}
	}
}

func TestWriteCSV_ExactDecimalText(t *testing.T) {
	records := []domain.ParameterRecord{{
		Path:           "p",
		Value:          0.1,
		SourcePriority: domain.SourceBaseline,
		LastUpdated:    time.Now().UTC(),
	}}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	// 0.1 must serialize as the short decimal, not a binary expansion.
	if !strings.Contains(buf.String(), ",0.1,") {
		t.Errorf("csv does not contain exact decimal: %s", buf.String())
	}
}

func TestReadCSV_RejectsBadHeader(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("wrong,header\n")); err == nil {
		t.Error("expected error for unexpected header")
	}
}

func TestReadCSV_RejectsBadPriority(t *testing.T) {
	csv := "path,value,source_priority,last_updated\np,1,notanumber,2026-01-01T00:00:00Z\n"
	if _, err := ReadCSV(strings.NewReader(csv)); err == nil {
		t.Error("expected error for unparseable priority")
	}
}

func TestReadCSV_UserOverridableDerived(t *testing.T) {
	csv := "path,value,source_priority,last_updated\n" +
		"a,1,1,2026-01-01T00:00:00Z\n" +
		"b,2,3,2026-01-01T00:00:00Z\n"

	got, err := ReadCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	// User-override rows are locked; everything else stays overridable.
	if got[0].UserOverridable {
		t.Error("user-override row marked overridable")
	}
	if !got[1].UserOverridable {
		t.Error("profile row not overridable")
	}
}
