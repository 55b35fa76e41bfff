// internal/models/fhrs.go
package models

// FHRS open-data export document shapes. The exports are XML-derived JSON,
// so numeric leaf values arrive as strings.

type FHRSDocument struct {
	FHRSEstablishment FHRSEstablishment `json:"FHRSEstablishment"`
}

type FHRSEstablishment struct {
	Header                  FHRSHeader              `json:"Header"`
	EstablishmentCollection EstablishmentCollection `json:"EstablishmentCollection"`
}

type FHRSHeader struct {
	ExtractDate        string `json:"ExtractDate"`
	ItemCount          string `json:"ItemCount"`
	ReturnCode         string `json:"ReturnCode"`
	LocalAuthorityName string `json:"LocalAuthorityName"`
}

type EstablishmentCollection struct {
	EstablishmentDetail []EstablishmentDetail `json:"EstablishmentDetail"`
}

type EstablishmentDetail struct {
	FHRSID                   string      `json:"FHRSID"`
	LocalAuthorityBusinessID string      `json:"LocalAuthorityBusinessID"`
	BusinessName             string      `json:"BusinessName"`
	BusinessType             string      `json:"BusinessType"`
	BusinessTypeID           string      `json:"BusinessTypeID"`
	AddressLine1             string      `json:"AddressLine1"`
	AddressLine2             string      `json:"AddressLine2"`
	AddressLine4             string      `json:"AddressLine4"`
	PostCode                 string      `json:"PostCode"`
	RatingValue              string      `json:"RatingValue"`
	RatingKey                string      `json:"RatingKey"`
	RatingDate               string      `json:"RatingDate"`
	LocalAuthorityCode       string      `json:"LocalAuthorityCode"`
	LocalAuthorityName       string      `json:"LocalAuthorityName"`
	LocalAuthorityWebSite    string      `json:"LocalAuthorityWebSite"`
	LocalAuthorityEmail      string      `json:"LocalAuthorityEmailAddress"`
	Scores                   *FHRSScores `json:"Scores"`
	SchemeType               string      `json:"SchemeType"`
	NewRatingPending         string      `json:"NewRatingPending"`
	Geocode                  *FHRSGeo    `json:"Geocode"`
}

type FHRSScores struct {
	Hygiene                string `json:"Hygiene"`
	Structural             string `json:"Structural"`
	ConfidenceInManagement string `json:"ConfidenceInManagement"`
}

type FHRSGeo struct {
	Longitude string `json:"Longitude"`
	Latitude  string `json:"Latitude"`
}
