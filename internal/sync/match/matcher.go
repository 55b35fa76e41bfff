// internal/sync/match/matcher.go
package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/common/metrics"
	"fhrs-sync/internal/models"
	"fhrs-sync/internal/sync/thresholds"
)

var (
	ErrUnknownThreshold = errors.New("UNKNOWN_THRESHOLD")
	ErrMatchTimeout     = errors.New("MATCH_TIMEOUT")
)

// Config selects the matcher's strictness levels by catalog name and bounds
// a single Match call. The postcode level does not filter candidates (the
// finder already narrows by exact normalized postcode); it only contributes
// to the reported strictness.
type Config struct {
	NameAddressThreshold string
	PostcodeThreshold    string
	QueryTimeout         time.Duration
}

// FuzzyMatcher matches noisy place queries against postcode-narrowed
// establishment candidates.
type FuzzyMatcher struct {
	finder       CandidateFinder
	nameAddr     thresholds.Level
	postcode     thresholds.Level
	queryTimeout time.Duration
	logger       logger.Logger
}

func NewFuzzyMatcher(finder CandidateFinder, cfg Config, log logger.Logger) (*FuzzyMatcher, error) {
	nameAddr, ok := thresholds.ByName(cfg.NameAddressThreshold)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownThreshold, cfg.NameAddressThreshold)
	}
	postcode, ok := thresholds.ByName(cfg.PostcodeThreshold)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownThreshold, cfg.PostcodeThreshold)
	}

	return &FuzzyMatcher{
		finder:       finder,
		nameAddr:     nameAddr,
		postcode:     postcode,
		queryTimeout: cfg.QueryTimeout,
		logger: log.WithFields(map[string]interface{}{
			"nameAddressThreshold": nameAddr.Name,
			"postcodeThreshold":    postcode.Name,
		}),
	}, nil
}

// Match resolves each place query to its best candidate within the
// configured strictness. Places with no acceptable candidate are simply
// absent from the results; only candidate lookup failures are errors.
func (m *FuzzyMatcher) Match(ctx context.Context, places []models.PlaceQuery) ([]models.MatchResult, models.MatchStats, error) {
	stats := models.MatchStats{
		PlacesSearched:    len(places),
		AverageStrictness: (m.nameAddr.Value + m.postcode.Value) / 2,
	}
	if len(places) == 0 {
		return nil, stats, nil
	}

	if m.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.queryTimeout)
		defer cancel()
	}

	start := time.Now()

	candidates, err := m.finder.FindByPostcode(ctx, places)
	if err != nil {
		metrics.MatchQueries.WithLabelValues("error").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, stats, fmt.Errorf("%w: candidate lookup: %v", ErrMatchTimeout, err)
		}
		return nil, stats, err
	}

	pool := make([]models.Establishment, 0, len(candidates))
	for _, c := range candidates {
		if c.Address() == "" {
			m.logger.Debug("Skipping candidate without address", map[string]interface{}{
				"fhrsId":       c.FHRSID,
				"businessName": c.BusinessName,
			})
			continue
		}
		pool = append(pool, c)
	}

	if len(pool) == 0 {
		m.logger.Info("No candidates for place batch", map[string]interface{}{
			"places": len(places),
		})
		metrics.MatchQueries.WithLabelValues("no_candidates").Inc()
		return nil, stats, nil
	}

	var results []models.MatchResult
	for _, place := range places {
		if ctx.Err() != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return nil, stats, ErrMatchTimeout
			}
			return nil, stats, ctx.Err()
		}

		if hit, dist, ok := m.bestMatch(place, pool); ok {
			results = append(results, models.MatchResult{
				PlaceID:          place.ID,
				PlaceName:        place.Name,
				FormattedAddress: place.FormattedAddress,
				Postcode:         place.Postcode,
				Establishment:    *hit,
				Distance:         dist,
			})

			rating := ""
			if hit.RatingValueStr != nil {
				rating = *hit.RatingValueStr
			}
			m.logger.Debug("Place matched", map[string]interface{}{
				"placeName":    place.Name,
				"matchedName":  hit.BusinessName,
				"matchedFhrs":  hit.FHRSID,
				"rating":       rating,
				"distance":     dist,
			})
		}
	}

	stats.MatchesFound = len(results)
	stats.PercentageMatch = 100 * float64(len(results)) / float64(len(places))

	metrics.MatchQueries.WithLabelValues("success").Inc()
	metrics.MatchDuration.WithLabelValues(m.nameAddr.Name).Observe(time.Since(start).Seconds())

	m.logger.Info("Match batch complete", map[string]interface{}{
		"places":          len(places),
		"matches":         len(results),
		"percentageMatch": stats.PercentageMatch,
		"durationMs":      time.Since(start).Milliseconds(),
	})

	return results, stats, nil
}

// bestMatch scans the pool in order and keeps the strictly lowest distance,
// so equal-distance candidates resolve to the earliest one. The pool arrives
// ordered by FHRS id from the finder.
func (m *FuzzyMatcher) bestMatch(place models.PlaceQuery, pool []models.Establishment) (*models.Establishment, float64, bool) {
	var best *models.Establishment
	bestDist := 0.0

	for i := range pool {
		cand := &pool[i]

		var dist float64
		switch {
		case m.nameAddr.Value == 0:
			// Exact Match compares the raw strings untouched.
			if place.Name != cand.BusinessName || place.FormattedAddress != cand.Address() {
				continue
			}
			dist = 0
		default:
			dist = combinedDistance(place.Name, place.FormattedAddress, cand.BusinessName, cand.Address())
			if m.nameAddr.Value < 1 && dist > m.nameAddr.Value {
				continue
			}
		}

		if best == nil || dist < bestDist {
			best = cand
			bestDist = dist
		}
	}

	return best, bestDist, best != nil
}
