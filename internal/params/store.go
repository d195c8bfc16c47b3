package params

import (
	"sort"
	"strings"
	"sync"
	"time"

	"finplan-lab/internal/domain"
)

// Store is an override-aware registry of flattened hierarchical parameters.
// A store is built once per process or request context from a baseline
// table, then layered with override sources of increasing specificity. It
// is an explicit handle: callers receive it via injection, there is no
// package-level instance.
//
// Concurrency: Get is safe under concurrent readers; Set serializes the
// read-priority/compare/write sequence behind the lock because it is not
// atomic otherwise.
type Store struct {
	mu     sync.RWMutex
	params map[string]*domain.Parameter
	// order preserves creation order for prefix scans and exports.
	// Callers must not depend on which match a prefix scan returns when
	// several parameters share the prefix.
	order []string

	// baseline keeps the un-flattened baseline tree for the
	// segment-walk fallback in Get.
	baseline map[string]any

	aliases *LegacyAliases
}

// StoreOptions configures a new Store.
type StoreOptions struct {
	// Baseline is the un-flattened baseline parameter tree. Its leaves
	// are loaded at SourceBaseline priority.
	Baseline map[string]any

	// Aliases optionally maps legacy flat keys to canonical paths.
	Aliases *LegacyAliases
}

// NewStore creates a store populated with the baseline table.
func NewStore(opts StoreOptions) *Store {
	s := &Store{
		params:   make(map[string]*domain.Parameter),
		baseline: opts.Baseline,
		aliases:  opts.Aliases,
	}
	if opts.Baseline != nil {
		now := time.Now().UTC()
		flat := Flatten(opts.Baseline)
		paths := make([]string, 0, len(flat))
		for path := range flat {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			s.create(path, flat[path], domain.SourceBaseline, now)
		}
	}
	return s
}

// NewBaselineStore creates a store from the embedded baseline table.
func NewBaselineStore() *Store {
	return NewStore(StoreOptions{Baseline: MustBaseline()})
}

// Get returns the current value at path, or def when nothing resolves.
// Resolution order: exact match on the flattened path, then a legacy-alias
// exact match, then a segment walk of the un-flattened baseline tree
// (returning whatever substructure is reached), then the first stored
// parameter whose path extends `path + "."`. Get never fails; a miss
// degrades to def.
func (s *Store) Get(path string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.params[path]; ok {
		return p.Value
	}

	if s.aliases != nil {
		if canonical, ok := s.aliases.Resolve(path); ok {
			if p, ok := s.params[canonical]; ok {
				return p.Value
			}
		}
	}

	if sub, ok := s.walkBaseline(path); ok {
		return sub
	}

	prefix := path + "."
	for _, stored := range s.order {
		if strings.HasPrefix(stored, prefix) {
			return s.params[stored].Value
		}
	}

	return def
}

// GetFloat returns the value at path coerced to float64, or def when the
// path misses or holds a non-numeric value.
func (s *Store) GetFloat(path string, def float64) float64 {
	if v, ok := toFloat(s.Get(path, nil)); ok {
		return v
	}
	return def
}

// Lookup returns a copy of the full parameter at path, including metadata.
// Unlike Get it performs only an exact match.
func (s *Store) Lookup(path string) (domain.Parameter, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.params[path]
	if !ok {
		return domain.Parameter{}, false
	}
	return copyParameter(p), true
}

// Set writes value at path on behalf of the given source. A parameter that
// does not exist is created at that priority. An existing parameter is
// overwritten only when the source passes the Overrides gate: no
// lower-priority write ever clobbers a higher-priority value, while
// equal-priority writes always succeed. On acceptance exactly one history
// entry is appended before the value changes. Set never fails; the return
// value reports whether the write was applied.
func (s *Store) Set(path string, value any, priority domain.SourcePriority, reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	p, ok := s.params[path]
	if !ok {
		s.create(path, value, priority, now)
		return true
	}

	if !priority.Overrides(p.Metadata.SourcePriority) {
		return false
	}

	p.Metadata.History = append(p.Metadata.History, domain.HistoryEntry{
		PreviousValue: p.Value,
		Timestamp:     now,
		Reason:        reason,
	})
	p.Value = value
	p.Metadata.SourcePriority = priority
	p.Metadata.LastUpdated = now
	return true
}

// LoadRecords bulk-imports persisted records, writing directly into the
// store and BYPASSING the priority gate: import always wins, regardless of
// what source currently owns a path. This asymmetry with Set is
// intentional and load-bearing; downstream population code relies on
// imports being authoritative. Existing in-memory history is preserved
// (history is never truncated) but no entry is appended for the import
// itself.
func (s *Store) LoadRecords(records []domain.ParameterRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		p, ok := s.params[r.Path]
		if !ok {
			s.create(r.Path, r.Value, r.SourcePriority, r.LastUpdated)
			p = s.params[r.Path]
		} else {
			p.Value = r.Value
			p.Metadata.SourcePriority = r.SourcePriority
			p.Metadata.LastUpdated = r.LastUpdated
		}
		p.Metadata.UserOverridable = r.UserOverridable
		p.Metadata.Volatility = r.Volatility
		p.Metadata.Confidence = r.Confidence
	}
}

// ExportRecords flattens the store's current state into persistence
// records, sorted by path. History is a separate feed; see ExportHistory.
func (s *Store) ExportRecords() []domain.ParameterRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.params))
	for path := range s.params {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	records := make([]domain.ParameterRecord, 0, len(paths))
	for _, path := range paths {
		p := s.params[path]
		records = append(records, domain.ParameterRecord{
			Path:            p.Path,
			Value:           p.Value,
			SourcePriority:  p.Metadata.SourcePriority,
			UserOverridable: p.Metadata.UserOverridable,
			Volatility:      p.Metadata.Volatility,
			Confidence:      p.Metadata.Confidence,
			LastUpdated:     p.Metadata.LastUpdated,
		})
	}
	return records
}

// ExportHistory flattens every parameter's append-only history into feed
// records ordered by path, then entry order. The entry's owning source is
// not tracked per-entry in metadata, so exported rows carry the
// parameter's current source; write-through persistence (which knows the
// writing source at Set time) should be preferred where exactness matters.
func (s *Store) ExportHistory() []domain.ParameterHistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paths := make([]string, 0, len(s.params))
	for path := range s.params {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var records []domain.ParameterHistoryRecord
	for _, path := range paths {
		p := s.params[path]
		for _, h := range p.Metadata.History {
			records = append(records, domain.ParameterHistoryRecord{
				Path:      p.Path,
				Value:     h.PreviousValue,
				Source:    p.Metadata.SourcePriority,
				Reason:    h.Reason,
				Timestamp: h.Timestamp,
			})
		}
	}
	return records
}

// Values returns a copy of the flattened current-state values.
func (s *Store) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := make(map[string]any, len(s.params))
	for path, p := range s.params {
		values[path] = p.Value
	}
	return values
}

// Len returns the number of stored parameters.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.params)
}

// create inserts a new parameter. Caller must hold the write lock (or be
// constructing the store).
func (s *Store) create(path string, value any, priority domain.SourcePriority, now time.Time) {
	s.params[path] = &domain.Parameter{
		Path:  path,
		Value: value,
		Metadata: domain.ParameterMetadata{
			SourcePriority:  priority,
			UserOverridable: priority != domain.SourceUserOverride,
			Confidence:      defaultConfidence(priority),
			LastUpdated:     now,
		},
	}
	s.order = append(s.order, path)
}

// walkBaseline resolves path segment-by-segment against the un-flattened
// baseline tree, returning whatever substructure is reached when every
// segment resolves.
func (s *Store) walkBaseline(path string) (any, bool) {
	if s.baseline == nil {
		return nil, false
	}

	var node any = s.baseline
	for _, seg := range strings.Split(path, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// defaultConfidence assigns the initial confidence hint per source: more
// authoritative sources start with higher confidence.
func defaultConfidence(priority domain.SourcePriority) float64 {
	switch priority {
	case domain.SourceUserOverride:
		return 1.0
	case domain.SourceAdvisor:
		return 0.9
	case domain.SourceProfile:
		return 0.7
	case domain.SourceMarketData:
		return 0.6
	default:
		return 0.5
	}
}

func copyParameter(p *domain.Parameter) domain.Parameter {
	out := *p
	out.Metadata.History = append([]domain.HistoryEntry(nil), p.Metadata.History...)
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
