// internal/models/place.go
package models

// PlaceQuery is a noisy third-party place record to be matched against the
// establishment corpus.
type PlaceQuery struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formattedAddress"`
	Postcode         string `json:"postcode"`
}

// MatchResult merges a place query with its matched establishment.
type MatchResult struct {
	PlaceID          string        `json:"placeId"`
	PlaceName        string        `json:"placeName"`
	FormattedAddress string        `json:"formattedAddress"`
	Postcode         string        `json:"postcode"`
	Establishment    Establishment `json:"establishment"`
	Distance         float64       `json:"distance"`
}

// MatchStats summarizes a match batch.
type MatchStats struct {
	PlacesSearched    int     `json:"placesSearched"`
	MatchesFound      int     `json:"matchesFound"`
	PercentageMatch   float64 `json:"percentageMatch"`
	AverageStrictness float64 `json:"averageStrictness"`
}
