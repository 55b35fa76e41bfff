// internal/sync/match/finder.go
package match

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/common/metrics"
	"fhrs-sync/internal/models"
	"fhrs-sync/internal/sync/store"

	"github.com/redis/go-redis/v9"
)

var ErrCandidateLookup = fmt.Errorf("CANDIDATE_LOOKUP_FAILED")

// CandidateFinder narrows the establishment corpus to the postcodes of the
// given place queries. An empty result is a legitimate no-match outcome, not
// an error.
type CandidateFinder interface {
	FindByPostcode(ctx context.Context, places []models.PlaceQuery) ([]models.Establishment, error)
}

// postcodeSet extracts the distinct normalized postcodes of the queries,
// sorted for deterministic lookups and cache keys.
func postcodeSet(places []models.PlaceQuery) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range places {
		n := store.NormalizePostcode(p.Postcode)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// PostgresCandidateFinder looks candidates up in the establishment store.
type PostgresCandidateFinder struct {
	store  PostcodeSearcher
	logger logger.Logger
}

// PostcodeSearcher is the slice of the establishment store the finder uses.
type PostcodeSearcher interface {
	FindByPostcodes(ctx context.Context, postcodes []string) ([]models.Establishment, error)
}

func NewPostgresCandidateFinder(s PostcodeSearcher, log logger.Logger) *PostgresCandidateFinder {
	return &PostgresCandidateFinder{store: s, logger: log}
}

func (f *PostgresCandidateFinder) FindByPostcode(ctx context.Context, places []models.PlaceQuery) ([]models.Establishment, error) {
	postcodes := postcodeSet(places)
	if len(postcodes) == 0 {
		return nil, nil
	}

	candidates, err := f.store.FindByPostcodes(ctx, postcodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCandidateLookup, err)
	}

	f.logger.Debug("Postcode candidates loaded", map[string]interface{}{
		"postcodes":  len(postcodes),
		"candidates": len(candidates),
	})
	return candidates, nil
}

// CachedCandidateFinder is a Redis read-through decorator over another
// finder. Entries are cached per normalized postcode under a TTL; cache
// failures degrade to the inner finder.
type CachedCandidateFinder struct {
	inner  CandidateFinder
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedCandidateFinder(inner CandidateFinder, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedCandidateFinder {
	return &CachedCandidateFinder{inner: inner, client: client, ttl: ttl, logger: log}
}

func cacheKey(postcode string) string {
	return "candidates:postcode:" + postcode
}

func (f *CachedCandidateFinder) FindByPostcode(ctx context.Context, places []models.PlaceQuery) ([]models.Establishment, error) {
	postcodes := postcodeSet(places)
	if len(postcodes) == 0 {
		return nil, nil
	}

	var out []models.Establishment
	var missed []string

	for _, pc := range postcodes {
		raw, err := f.client.Get(ctx, cacheKey(pc)).Result()
		if err != nil {
			if err != redis.Nil {
				f.logger.WithError(err).Warn("Candidate cache read failed", map[string]interface{}{
					"postcode": pc,
				})
			}
			metrics.CandidateCacheHits.WithLabelValues("miss").Inc()
			missed = append(missed, pc)
			continue
		}

		var cached []models.Establishment
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			metrics.CandidateCacheHits.WithLabelValues("miss").Inc()
			missed = append(missed, pc)
			continue
		}
		metrics.CandidateCacheHits.WithLabelValues("hit").Inc()
		out = append(out, cached...)
	}

	if len(missed) == 0 {
		return out, nil
	}

	queries := make([]models.PlaceQuery, len(missed))
	for i, pc := range missed {
		queries[i] = models.PlaceQuery{Postcode: pc}
	}

	fetched, err := f.inner.FindByPostcode(ctx, queries)
	if err != nil {
		return nil, err
	}

	byPostcode := make(map[string][]models.Establishment)
	for _, e := range fetched {
		n := store.NormalizePostcode(e.PostCode)
		byPostcode[n] = append(byPostcode[n], e)
	}
	for _, pc := range missed {
		entries := byPostcode[pc] // empty slices are cached too
		raw, err := json.Marshal(entries)
		if err != nil {
			continue
		}
		if err := f.client.Set(ctx, cacheKey(pc), raw, f.ttl).Err(); err != nil {
			f.logger.WithError(err).Warn("Candidate cache write failed", map[string]interface{}{
				"postcode": pc,
			})
		}
	}

	return append(out, fetched...), nil
}
