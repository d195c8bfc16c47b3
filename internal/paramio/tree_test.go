package paramio

import (
	"bytes"
	"testing"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/params"
)

func TestTree_RoundTrip(t *testing.T) {
	store := params.NewBaselineStore()

	var buf bytes.Buffer
	if err := WriteTree(&buf, store); err != nil {
		t.Fatalf("WriteTree failed: %v", err)
	}

	tree, err := ReadTree(&buf)
	if err != nil {
		t.Fatalf("ReadTree failed: %v", err)
	}

	restored := params.NewStore(params.StoreOptions{})
	ImportTree(restored, tree, domain.SourceBaseline)

	if restored.Len() != store.Len() {
		t.Fatalf("restored %d parameters, want %d", restored.Len(), store.Len())
	}
	for path, want := range store.Values() {
		got := restored.Get(path, nil)
		// JSON numbers come back as float64.
		if wf, ok := toComparable(want); ok {
			gf, _ := toComparable(got)
			if wf != gf {
				t.Errorf("%s = %v, want %v", path, got, want)
			}
		}
	}
}

func TestImportTree_BypassesPriorityGate(t *testing.T) {
	store := params.NewStore(params.StoreOptions{})
	store.Set("p", 1, domain.SourceUserOverride, "user")

	ImportTree(store, map[string]any{"p": 2}, domain.SourceBaseline)

	if got := store.Get("p", nil); got != 2 {
		t.Errorf("import did not win: %v", got)
	}
}

func TestReadTree_RejectsMalformed(t *testing.T) {
	if _, err := ReadTree(bytes.NewBufferString("not json")); err == nil {
		t.Error("expected error for malformed tree")
	}
}

// toComparable normalizes numeric values for comparison across the JSON
// boundary.
func toComparable(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
