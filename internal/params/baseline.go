package params

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed baseline.yaml
var baselineYAML []byte

// Baseline parses the embedded baseline parameter table into an
// un-flattened tree.
func Baseline() (map[string]any, error) {
	var tree map[string]any
	if err := yaml.Unmarshal(baselineYAML, &tree); err != nil {
		return nil, fmt.Errorf("parse embedded baseline table: %w", err)
	}
	return tree, nil
}

// MustBaseline is Baseline for process startup, where a malformed embedded
// table is unrecoverable.
func MustBaseline() map[string]any {
	tree, err := Baseline()
	if err != nil {
		panic(err)
	}
	return tree
}
