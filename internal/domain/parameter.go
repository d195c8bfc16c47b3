package domain

import "time"

// SourcePriority identifies the authority of a parameter source.
// Lower values are MORE authoritative: a user's explicit override beats an
// advisor suggestion, which beats a profile-derived value, and so on down to
// the shipped baseline table. All override decisions must go through
// Overrides; never compare priorities numerically elsewhere.
type SourcePriority int

// Parameter sources, ordered by authority.
const (
	SourceUserOverride SourcePriority = 1
	SourceAdvisor      SourcePriority = 2
	SourceProfile      SourcePriority = 3
	SourceMarketData   SourcePriority = 4
	SourceBaseline     SourcePriority = 5
)

// Overrides reports whether a write from source p may replace a value owned
// by source existing. Equal-priority writes always succeed (repeated profile
// re-derivation overwrites its own earlier value); a less-authoritative
// source never clobbers a more-authoritative one.
func (p SourcePriority) Overrides(existing SourcePriority) bool {
	return p <= existing
}

// String returns the source name for logs and exports.
func (p SourcePriority) String() string {
	switch p {
	case SourceUserOverride:
		return "user_override"
	case SourceAdvisor:
		return "advisor"
	case SourceProfile:
		return "profile"
	case SourceMarketData:
		return "market_data"
	case SourceBaseline:
		return "baseline"
	default:
		return "unknown"
	}
}

// HistoryEntry records one accepted overwrite of a parameter value.
type HistoryEntry struct {
	PreviousValue any       `json:"previousValue"`
	Timestamp     time.Time `json:"timestamp"`
	Reason        string    `json:"reason"`
}

// ParameterMetadata describes the provenance and stability of a parameter.
type ParameterMetadata struct {
	SourcePriority  SourcePriority `json:"sourcePriority"`
	UserOverridable bool           `json:"userOverridable"`
	// Volatility and Confidence are [0,1] hints consumed by the
	// recommendation layer; the store carries them opaquely.
	Volatility  float64   `json:"volatility"`
	Confidence  float64   `json:"confidence"`
	LastUpdated time.Time `json:"lastUpdated"`
	// History is append-only: every accepted write appends exactly one
	// entry before the value changes. It is never truncated.
	History []HistoryEntry `json:"history,omitempty"`
}

// Parameter is one resolved entry of the hierarchical registry. Path is a
// dot-delimited key ("market.returns.equity.expected") and is unique within
// a store. Value is a scalar, an ordered sequence, or a nested mapping of
// the same.
type Parameter struct {
	Path     string            `json:"path"`
	Value    any               `json:"value"`
	Metadata ParameterMetadata `json:"metadata"`
}

// ParameterRecord is the versioned persistence/export schema for the
// current state of one parameter. It is an explicit tagged struct: export
// paths marshal this shape and nothing else.
type ParameterRecord struct {
	Path            string         `json:"path"`
	Value           any            `json:"value"`
	SourcePriority  SourcePriority `json:"sourcePriority"`
	UserOverridable bool           `json:"userOverridable"`
	Volatility      float64        `json:"volatility"`
	Confidence      float64        `json:"confidence"`
	LastUpdated     time.Time      `json:"lastUpdated"`
}

// ParameterHistoryRecord is one row of the append-only version-history
// feed. It is a separate feed from current-state records: exporting state
// never rewrites history.
type ParameterHistoryRecord struct {
	RecordID  string         `json:"recordId"`
	Path      string         `json:"path"`
	Value     any            `json:"value"`
	Source    SourcePriority `json:"source"`
	Reason    string         `json:"reason"`
	Timestamp time.Time      `json:"timestamp"`
}
