// internal/sync/store/establishments.go

// Package store holds the PostgreSQL persistence for establishments and the
// processed-files ledger.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/models"

	"github.com/lib/pq"
)

var ErrUpsertFailed = fmt.Errorf("DATABASE_UPSERT_FAILED")

// EstablishmentStore persists establishment rows keyed by fhrs_id.
type EstablishmentStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewEstablishmentStore(db *sql.DB, log logger.Logger) *EstablishmentStore {
	return &EstablishmentStore{db: db, logger: log}
}

// Last-write-wins on conflict: every column maps to itself.
const upsertEstablishmentSQL = `
INSERT INTO establishments (
	fhrs_id, local_authority_business_id, business_name, business_type,
	business_type_id, address_line1, address_line2, address_line4, post_code,
	rating_value_str, rating_value_num, rating_status_id, rating_key,
	rating_date, local_authority_code, local_authority_name,
	local_authority_website, local_authority_email, score_hygiene,
	score_structural, score_confidence, scheme_type, new_rating_pending,
	longitude, latitude
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
	$17, $18, $19, $20, $21, $22, $23, $24, $25
)
ON CONFLICT (fhrs_id) DO UPDATE SET
	local_authority_business_id = EXCLUDED.local_authority_business_id,
	business_name = EXCLUDED.business_name,
	business_type = EXCLUDED.business_type,
	business_type_id = EXCLUDED.business_type_id,
	address_line1 = EXCLUDED.address_line1,
	address_line2 = EXCLUDED.address_line2,
	address_line4 = EXCLUDED.address_line4,
	post_code = EXCLUDED.post_code,
	rating_value_str = EXCLUDED.rating_value_str,
	rating_value_num = EXCLUDED.rating_value_num,
	rating_status_id = EXCLUDED.rating_status_id,
	rating_key = EXCLUDED.rating_key,
	rating_date = EXCLUDED.rating_date,
	local_authority_code = EXCLUDED.local_authority_code,
	local_authority_name = EXCLUDED.local_authority_name,
	local_authority_website = EXCLUDED.local_authority_website,
	local_authority_email = EXCLUDED.local_authority_email,
	score_hygiene = EXCLUDED.score_hygiene,
	score_structural = EXCLUDED.score_structural,
	score_confidence = EXCLUDED.score_confidence,
	scheme_type = EXCLUDED.scheme_type,
	new_rating_pending = EXCLUDED.new_rating_pending,
	longitude = EXCLUDED.longitude,
	latitude = EXCLUDED.latitude`

// Upsert inserts or fully refreshes one establishment row.
func (s *EstablishmentStore) Upsert(ctx context.Context, e *models.Establishment) error {
	_, err := s.db.ExecContext(ctx, upsertEstablishmentSQL,
		e.FHRSID,
		e.LocalAuthorityBusinessID,
		e.BusinessName,
		e.BusinessType,
		e.BusinessTypeID,
		e.AddressLine1,
		e.AddressLine2,
		e.AddressLine4,
		e.PostCode,
		e.RatingValueStr,
		e.RatingValueNum,
		e.RatingStatusID,
		e.RatingKey,
		e.RatingDate,
		e.LocalAuthorityCode,
		e.LocalAuthorityName,
		e.LocalAuthorityWebsite,
		e.LocalAuthorityEmail,
		e.ScoreHygiene,
		e.ScoreStructural,
		e.ScoreConfidence,
		e.SchemeType,
		e.NewRatingPending,
		e.Longitude,
		e.Latitude,
	)
	if err != nil {
		return fmt.Errorf("%w: fhrs_id %d: %v", ErrUpsertFailed, e.FHRSID, err)
	}
	return nil
}

const selectByPostcodeSQL = `
SELECT fhrs_id, local_authority_business_id, business_name, business_type,
	business_type_id, address_line1, address_line2, address_line4, post_code,
	rating_value_str, rating_value_num, rating_status_id, rating_key,
	rating_date, local_authority_code, local_authority_name,
	local_authority_website, local_authority_email, score_hygiene,
	score_structural, score_confidence, scheme_type, new_rating_pending,
	longitude, latitude
FROM establishments
WHERE upper(replace(post_code, ' ', '')) = ANY($1)
ORDER BY fhrs_id`

// FindByPostcodes returns establishments whose normalized postcode is in the
// given set. Postcodes are normalized to upper case with interior whitespace
// removed before comparison.
func (s *EstablishmentStore) FindByPostcodes(ctx context.Context, postcodes []string) ([]models.Establishment, error) {
	if len(postcodes) == 0 {
		return nil, nil
	}

	normalized := make([]string, 0, len(postcodes))
	for _, pc := range postcodes {
		if n := NormalizePostcode(pc); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, selectByPostcodeSQL, pq.Array(normalized))
	if err != nil {
		return nil, fmt.Errorf("postcode lookup failed: %w", err)
	}
	defer rows.Close()

	var out []models.Establishment
	for rows.Next() {
		var e models.Establishment
		if err := rows.Scan(
			&e.FHRSID,
			&e.LocalAuthorityBusinessID,
			&e.BusinessName,
			&e.BusinessType,
			&e.BusinessTypeID,
			&e.AddressLine1,
			&e.AddressLine2,
			&e.AddressLine4,
			&e.PostCode,
			&e.RatingValueStr,
			&e.RatingValueNum,
			&e.RatingStatusID,
			&e.RatingKey,
			&e.RatingDate,
			&e.LocalAuthorityCode,
			&e.LocalAuthorityName,
			&e.LocalAuthorityWebsite,
			&e.LocalAuthorityEmail,
			&e.ScoreHygiene,
			&e.ScoreStructural,
			&e.ScoreConfidence,
			&e.SchemeType,
			&e.NewRatingPending,
			&e.Longitude,
			&e.Latitude,
		); err != nil {
			return nil, fmt.Errorf("postcode lookup scan failed: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postcode lookup rows failed: %w", err)
	}

	return out, nil
}

// NormalizePostcode upper-cases a postcode and strips all whitespace.
func NormalizePostcode(pc string) string {
	return strings.ToUpper(strings.Join(strings.Fields(pc), ""))
}
