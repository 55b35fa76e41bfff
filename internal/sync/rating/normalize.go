// internal/sync/rating/normalize.go
package rating

import (
	"strings"
	"time"
)

// Rating status ids for non-numeric FHRS rating tokens.
const (
	StatusExempt            = 1
	StatusAwaitingInspection = 2
)

// Rating is the canonical three-field form of a raw FHRS rating token.
// Exactly one of Num and StatusID is set for recognized tokens; all three
// fields are nil for unrecognized tokens.
type Rating struct {
	Str      *string
	Num      *int
	StatusID *int
}

// Normalize maps a raw FHRS rating token to its canonical form.
//
//	"1".."5"               -> numeric rating, no status
//	"Exempt"               -> status 1, no numeric value
//	"Awaiting Inspection"  -> status 2, no numeric value
//	"AwaitingInspection"   -> status 2, no numeric value
//	anything else          -> all nil
//
// Recognized tokens keep the raw string verbatim in Str.
func Normalize(raw string) Rating {
	switch raw {
	case "Exempt":
		return Rating{Str: ptrStr(raw), StatusID: ptrInt(StatusExempt)}
	case "Awaiting Inspection", "AwaitingInspection":
		return Rating{Str: ptrStr(raw), StatusID: ptrInt(StatusAwaitingInspection)}
	}

	if len(raw) == 1 && raw[0] >= '1' && raw[0] <= '5' {
		return Rating{Str: ptrStr(raw), Num: ptrInt(int(raw[0] - '0'))}
	}

	return Rating{}
}

// ParseRatingDate parses an FHRS rating date. Blank or unparseable values
// map to nil rather than an error; source files routinely omit the date for
// unrated establishments.
func ParseRatingDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func ptrStr(s string) *string { return &s }
func ptrInt(n int) *int       { return &n }
