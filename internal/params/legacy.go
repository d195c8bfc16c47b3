package params

import "sync"

// LegacyAliases maps flat legacy keys (pre-hierarchical naming) to
// canonical dot-delimited paths. It is a plain bidirectional lookup table
// with usage counters so stale callers can be found and migrated; it is
// deliberately not part of the store's priority or history invariants.
type LegacyAliases struct {
	mu      sync.Mutex
	forward map[string]string
	reverse map[string]string
	hits    map[string]int
}

// NewLegacyAliases builds the alias table from legacy-key -> canonical-path
// pairs.
func NewLegacyAliases(aliases map[string]string) *LegacyAliases {
	l := &LegacyAliases{
		forward: make(map[string]string, len(aliases)),
		reverse: make(map[string]string, len(aliases)),
		hits:    make(map[string]int),
	}
	for legacy, canonical := range aliases {
		l.forward[legacy] = canonical
		l.reverse[canonical] = legacy
	}
	return l
}

// Resolve maps a legacy key to its canonical path, counting the hit.
func (l *LegacyAliases) Resolve(legacy string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	canonical, ok := l.forward[legacy]
	if ok {
		l.hits[legacy]++
	}
	return canonical, ok
}

// LegacyKey maps a canonical path back to its legacy key, if one exists.
func (l *LegacyAliases) LegacyKey(canonical string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	legacy, ok := l.reverse[canonical]
	return legacy, ok
}

// Hits returns a copy of the per-legacy-key usage counters.
func (l *LegacyAliases) Hits() map[string]int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]int, len(l.hits))
	for k, v := range l.hits {
		out[k] = v
	}
	return out
}
