// internal/sync/ingest/schema.go
package ingest

// recordSchema gates which source records are worth storing. Records missing
// any of these fields are skipped, never treated as file errors.
const recordSchema = `{
	"type": "object",
	"required": ["FHRSID", "BusinessName", "AddressLine1", "PostCode"],
	"properties": {
		"FHRSID":       {"type": "string", "minLength": 1, "pattern": "^[0-9]+$"},
		"BusinessName": {"type": "string", "minLength": 1},
		"AddressLine1": {"type": "string", "minLength": 1},
		"PostCode":     {"type": "string", "minLength": 1}
	}
}`
