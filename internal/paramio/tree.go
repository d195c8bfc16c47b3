// Package paramio moves parameters across the persistence boundary: a
// nested language-neutral JSON tree (one leaf per resolved path) and a
// flat tabular CSV record set. Import always uses the store's
// priority-bypass bulk path; export flattens current-state values only.
// History is a separate feed and never travels with either format.
package paramio

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/params"
)

// ExportTree unflattens the store's current values into a nested tree.
func ExportTree(s *params.Store) map[string]any {
	return params.Unflatten(s.Values())
}

// WriteTree writes the store's current values as an indented JSON tree.
func WriteTree(w io.Writer, s *params.Store) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ExportTree(s)); err != nil {
		return fmt.Errorf("encode parameter tree: %w", err)
	}
	return nil
}

// ReadTree parses a nested JSON parameter tree.
func ReadTree(r io.Reader) (map[string]any, error) {
	var tree map[string]any
	if err := json.NewDecoder(r).Decode(&tree); err != nil {
		return nil, fmt.Errorf("decode parameter tree: %w", err)
	}
	return tree, nil
}

// ImportTree flattens a nested tree and bulk-loads it into the store at
// the given source priority, bypassing the priority gate (import always
// wins).
func ImportTree(s *params.Store, tree map[string]any, priority domain.SourcePriority) {
	flat := params.Flatten(tree)
	now := time.Now().UTC()

	records := make([]domain.ParameterRecord, 0, len(flat))
	for path, value := range flat {
		records = append(records, domain.ParameterRecord{
			Path:            path,
			Value:           value,
			SourcePriority:  priority,
			UserOverridable: priority != domain.SourceUserOverride,
			LastUpdated:     now,
		})
	}
	s.LoadRecords(records)
}
