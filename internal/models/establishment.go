// internal/models/establishment.go
package models

import "time"

// Establishment is a food-hygiene establishment row keyed by its FHRS id.
// Nullable columns are pointers; a nil rating pair with a nil status id means
// the source rating token was unrecognized.
type Establishment struct {
	FHRSID                   int        `json:"fhrsId"`
	LocalAuthorityBusinessID string     `json:"localAuthorityBusinessId"`
	BusinessName             string     `json:"businessName"`
	BusinessType             string     `json:"businessType"`
	BusinessTypeID           int        `json:"businessTypeId"`
	AddressLine1             string     `json:"addressLine1"`
	AddressLine2             string     `json:"addressLine2"`
	AddressLine4             string     `json:"addressLine4"`
	PostCode                 string     `json:"postCode"`
	RatingValueStr           *string    `json:"ratingValueStr"`
	RatingValueNum           *int       `json:"ratingValueNum"`
	RatingStatusID           *int       `json:"ratingStatusId"`
	RatingKey                string     `json:"ratingKey"`
	RatingDate               *time.Time `json:"ratingDate"`
	LocalAuthorityCode       string     `json:"localAuthorityCode"`
	LocalAuthorityName       string     `json:"localAuthorityName"`
	LocalAuthorityWebsite    string     `json:"localAuthorityWebsite"`
	LocalAuthorityEmail      string     `json:"localAuthorityEmail"`
	ScoreHygiene             *int       `json:"scoreHygiene"`
	ScoreStructural          *int       `json:"scoreStructural"`
	ScoreConfidence          *int       `json:"scoreConfidence"`
	SchemeType               string     `json:"schemeType"`
	NewRatingPending         bool       `json:"newRatingPending"`
	Longitude                *float64   `json:"longitude"`
	Latitude                 *float64   `json:"latitude"`
}

// Address joins the populated address lines into a single display string.
func (e *Establishment) Address() string {
	out := ""
	for _, line := range []string{e.AddressLine1, e.AddressLine2, e.AddressLine4} {
		if line == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += line
	}
	return out
}
