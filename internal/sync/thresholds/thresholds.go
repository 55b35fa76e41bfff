// internal/sync/thresholds/thresholds.go

// Package thresholds holds the fixed strictness catalog for fuzzy matching.
// A level's value is the maximum accepted distance: 0 accepts only identical
// strings, 1 accepts every candidate.
package thresholds

// Level is one strictness setting of the catalog.
type Level struct {
	ID          int     `json:"id"`
	Value       float64 `json:"value"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

var catalog = []Level{
	{ID: 1, Value: 0, Name: "Exact Match", Description: "Identical strings only"},
	{ID: 2, Value: 0.05, Name: "Extremely Strict", Description: "Near-identical strings, minor typos only"},
	{ID: 3, Value: 0.1, Name: "Very Strict", Description: "Small spelling variations"},
	{ID: 4, Value: 0.2, Name: "Strict", Description: "Minor word differences"},
	{ID: 5, Value: 0.3, Name: "Moderately Strict", Description: "Some reordering and abbreviation"},
	{ID: 6, Value: 0.4, Name: "Balanced", Description: "Balanced precision and recall"},
	{ID: 7, Value: 0.5, Name: "Moderate", Description: "Tolerates partial overlaps"},
	{ID: 8, Value: 0.6, Name: "Lenient", Description: "Loose word-level matching"},
	{ID: 9, Value: 0.7, Name: "Very Lenient", Description: "Accepts most plausible variants"},
	{ID: 10, Value: 0.8, Name: "Loose", Description: "Weak similarity accepted"},
	{ID: 11, Value: 0.9, Name: "Very Loose", Description: "Almost any overlap accepted"},
	{ID: 12, Value: 1, Name: "Maximum Fuzziness", Description: "Accepts every candidate"},
}

// Levels returns the full ordered catalog. The returned slice is a copy;
// callers may not mutate the catalog.
func Levels() []Level {
	out := make([]Level, len(catalog))
	copy(out, catalog)
	return out
}

// ByName looks up a level by its display name.
func ByName(name string) (Level, bool) {
	for _, l := range catalog {
		if l.Name == name {
			return l, true
		}
	}
	return Level{}, false
}

// ByValue looks up a level by its exact value.
func ByValue(v float64) (Level, bool) {
	for _, l := range catalog {
		if l.Value == v {
			return l, true
		}
	}
	return Level{}, false
}
