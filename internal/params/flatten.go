package params

import "strings"

// LeafMarker is the reserved key that stops flattening. A sub-mapping whose
// own key set contains this marker is treated as a single leaf value rather
// than a branch. The heuristic is intentionally loose: any other key set,
// including triples like {value, growth, blend} describing one
// sub-asset-class, is still a branch. Callers that need leaf-mapping
// semantics must include the marker themselves.
const LeafMarker = "__leaf"

// Flatten converts a nested mapping into a flat map keyed by dot-delimited
// paths. Flatten and Unflatten round-trip for any pure-tree input whose
// sub-mappings contain no LeafMarker key.
func Flatten(tree map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, "", tree)
	return flat
}

func flattenInto(flat map[string]any, prefix string, tree map[string]any) {
	for key, value := range tree {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if sub, ok := value.(map[string]any); ok && !isLeafMapping(sub) {
			flattenInto(flat, path, sub)
			continue
		}
		flat[path] = value
	}
}

func isLeafMapping(m map[string]any) bool {
	_, ok := m[LeafMarker]
	return ok
}

// Unflatten is the inverse of Flatten: it rebuilds a nested mapping from
// dot-delimited paths. When a path is both a leaf and a prefix of deeper
// paths, the deeper structure wins.
func Unflatten(flat map[string]any) map[string]any {
	tree := make(map[string]any)
	for path, value := range flat {
		segments := strings.Split(path, ".")
		node := tree
		for _, seg := range segments[:len(segments)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
		last := segments[len(segments)-1]
		if _, exists := node[last].(map[string]any); !exists {
			node[last] = value
		}
	}
	return tree
}
