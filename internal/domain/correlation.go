package domain

// CorrelationMatrix maps asset-class pairs to correlation coefficients in
// [-1, 1]. It may be sparse and supplied in either key order; use
// Coefficient for lookups.
type CorrelationMatrix map[string]map[string]float64

// pairKey is an order-independent key into the default correlation table.
type pairKey struct{ a, b string }

// defaultCorrelations is the fixed fallback table used whenever a specific
// pair is absent from a supplied matrix (or the supplied coefficient is out
// of range). Keys are stored in lexical order; see defaultCorrelation.
var defaultCorrelations = map[pairKey]float64{
	{AssetDebt, AssetEquity}: -0.10,
	{AssetEquity, AssetGold}: -0.20,
	{AssetCash, AssetEquity}: 0.00,
	{AssetDebt, AssetGold}:   0.10,
	{AssetCash, AssetDebt}:   0.30,
	{AssetCash, AssetGold}:   0.00,
}

// defaultCorrelation returns the fixed-table coefficient for a pair.
// Self-pairs are 1.0; pairs not covered by the table are 0.0.
func defaultCorrelation(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a > b {
		a, b = b, a
	}
	return defaultCorrelations[pairKey{a, b}]
}

// Coefficient resolves the correlation between two asset classes. The
// lookup is pair-order-independent. A supplied coefficient outside [-1, 1]
// is treated as malformed and replaced by the fixed default table rather
// than failing the run.
func (m CorrelationMatrix) Coefficient(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if m != nil {
		if v, ok := m.supplied(a, b); ok && v >= -1.0 && v <= 1.0 {
			return v
		}
	}
	return defaultCorrelation(a, b)
}

// supplied looks up a pair in either key order.
func (m CorrelationMatrix) supplied(a, b string) (float64, bool) {
	if row, ok := m[a]; ok {
		if v, ok := row[b]; ok {
			return v, true
		}
	}
	if row, ok := m[b]; ok {
		if v, ok := row[a]; ok {
			return v, true
		}
	}
	return 0, false
}
