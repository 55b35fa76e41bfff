// internal/sync/match/matcher_test.go
package match

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubFinder struct {
	candidates []models.Establishment
	err        error
	calls      int
}

func (s *stubFinder) FindByPostcode(ctx context.Context, places []models.PlaceQuery) ([]models.Establishment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.candidates, nil
}

func establishment(fhrsID int, name, line1, line2, line4, postcode string, rating int) models.Establishment {
	ratingStr := fmt.Sprintf("%d", rating)
	return models.Establishment{
		FHRSID:         fhrsID,
		BusinessName:   name,
		AddressLine1:   line1,
		AddressLine2:   line2,
		AddressLine4:   line4,
		PostCode:       postcode,
		RatingValueStr: &ratingStr,
		RatingValueNum: &rating,
	}
}

// corpusFixture is a postcode-narrowed candidate pool, ordered by FHRS id
// the way the finder delivers it.
func corpusFixture() []models.Establishment {
	return []models.Establishment{
		establishment(100, "Mc Donald's", "10 High Street", "Camden", "London", "NW1 8QL", 5),
		establishment(101, "Thai-Metro", "22 Upper Street", "Islington", "London", "N1 0PQ", 4),
		establishment(102, "The Old Thai House", "5 Market Lane", "Hackney", "London", "E8 1AA", 3),
		establishment(103, "Pret A Manger", "1 Station Road", "", "London", "NW1 8QL", 5),
		establishment(104, "Bella Italia", "14 Green Street", "", "London", "N1 0PQ", 4),
		establishment(105, "Nando's", "3 Broadway", "", "London", "E8 1AA", 5),
		establishment(106, "The King's Arms", "9 Church Walk", "", "London", "NW1 8QL", 3),
		establishment(107, "Subway", "7 Mill Road", "", "London", "N1 0PQ", 4),
	}
}

// placesFixture holds noisy third-party renderings of the corpus entries.
func placesFixture() []models.PlaceQuery {
	return []models.PlaceQuery{
		{ID: "p1", Name: "McDonald's", FormattedAddress: "10 High St, Camden, London", Postcode: "NW1 8QL"},
		{ID: "p2", Name: "Thai Metro", FormattedAddress: "22 Upper St, Islington, London", Postcode: "N1 0PQ"},
		{ID: "p3", Name: "Old Thai House", FormattedAddress: "5 Market Lane, Hackney, London", Postcode: "E8 1AA"},
		{ID: "p4", Name: "Pret-a-Manger", FormattedAddress: "1 Station Rd, London", Postcode: "NW1 8QL"},
		{ID: "p5", Name: "Bella Italia Restaurant", FormattedAddress: "14 Green Street, London", Postcode: "N1 0PQ"},
		{ID: "p6", Name: "Nandos", FormattedAddress: "3 Broadway, London", Postcode: "E8 1AA"},
		{ID: "p7", Name: "Kings Arms", FormattedAddress: "9 Church Walk, London", Postcode: "NW1 8QL"},
		{ID: "p8", Name: "Subway Sandwiches", FormattedAddress: "7 Mill Road, London", Postcode: "N1 0PQ"},
	}
}

func newMatcher(t *testing.T, finder CandidateFinder, nameAddr, postcode string) *FuzzyMatcher {
	t.Helper()
	m, err := NewFuzzyMatcher(finder, Config{
		NameAddressThreshold: nameAddr,
		PostcodeThreshold:    postcode,
		QueryTimeout:         5 * time.Second,
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	return m
}

// ==========================
// Constructor Tests
// ==========================

func TestNewFuzzyMatcherUnknownThreshold(t *testing.T) {
	_, err := NewFuzzyMatcher(&stubFinder{}, Config{
		NameAddressThreshold: "Somewhat Fuzzy",
		PostcodeThreshold:    "Exact Match",
	}, logger.NewNoOpLogger())
	assert.ErrorIs(t, err, ErrUnknownThreshold)

	_, err = NewFuzzyMatcher(&stubFinder{}, Config{
		NameAddressThreshold: "Very Lenient",
		PostcodeThreshold:    "nope",
	}, logger.NewNoOpLogger())
	assert.ErrorIs(t, err, ErrUnknownThreshold)
}

// ==========================
// Matching Tests
// ==========================

func TestMatchFullBatchVeryLenient(t *testing.T) {
	finder := &stubFinder{candidates: corpusFixture()}
	m := newMatcher(t, finder, "Very Lenient", "Exact Match")

	results, stats, err := m.Match(context.Background(), placesFixture())
	require.NoError(t, err)
	require.Len(t, results, 8)

	wantFHRS := []int{100, 101, 102, 103, 104, 105, 106, 107}
	wantRating := []int{5, 4, 3, 5, 4, 5, 3, 4}
	for i, r := range results {
		assert.Equal(t, wantFHRS[i], r.Establishment.FHRSID, "place %s", r.PlaceID)
		require.NotNil(t, r.Establishment.RatingValueNum)
		assert.Equal(t, wantRating[i], *r.Establishment.RatingValueNum)
		assert.Less(t, r.Distance, 0.7)
	}

	assert.Equal(t, 8, stats.PlacesSearched)
	assert.Equal(t, 8, stats.MatchesFound)
	assert.Equal(t, 100.0, stats.PercentageMatch)
	assert.InDelta(t, 0.35, stats.AverageStrictness, 0.0001)
}

func TestMatchExtremelyStrictFiltersNearMisses(t *testing.T) {
	finder := &stubFinder{candidates: corpusFixture()}
	m := newMatcher(t, finder, "Extremely Strict", "Exact Match")

	results, stats, err := m.Match(context.Background(), placesFixture())
	require.NoError(t, err)

	// Only the near-identical renderings survive a 0.05 distance cap.
	require.Len(t, results, 2)
	assert.Equal(t, "p2", results[0].PlaceID)
	assert.Equal(t, 101, results[0].Establishment.FHRSID)
	assert.Equal(t, "p4", results[1].PlaceID)
	assert.Equal(t, 103, results[1].Establishment.FHRSID)

	assert.Equal(t, 2, stats.MatchesFound)
	assert.Equal(t, 25.0, stats.PercentageMatch)
}

func TestMatchExactThresholdComparesRawStrings(t *testing.T) {
	finder := &stubFinder{candidates: corpusFixture()}
	m := newMatcher(t, finder, "Exact Match", "Exact Match")

	places := []models.PlaceQuery{
		{ID: "identical", Name: "Mc Donald's", FormattedAddress: "10 High Street, Camden, London", Postcode: "NW1 8QL"},
		{ID: "near", Name: "McDonald's", FormattedAddress: "10 High Street, Camden, London", Postcode: "NW1 8QL"},
	}

	results, stats, err := m.Match(context.Background(), places)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "identical", results[0].PlaceID)
	assert.Equal(t, 100, results[0].Establishment.FHRSID)
	assert.Equal(t, 0.0, results[0].Distance)
	assert.Equal(t, 50.0, stats.PercentageMatch)
}

func TestMatchMaximumFuzzinessAcceptsBestCandidate(t *testing.T) {
	finder := &stubFinder{candidates: corpusFixture()}
	m := newMatcher(t, finder, "Maximum Fuzziness", "Exact Match")

	places := []models.PlaceQuery{
		{ID: "garbage", Name: "Zzzz Qqqq", FormattedAddress: "Nowhere At All", Postcode: "ZZ9 9ZZ"},
	}

	results, stats, err := m.Match(context.Background(), places)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 100.0, stats.PercentageMatch)
}

func TestMatchTieBreakKeepsEarliestCandidate(t *testing.T) {
	// Two identical establishments under different FHRS ids; the pool is
	// ordered by id, and an equal distance must not displace the first hit.
	finder := &stubFinder{candidates: []models.Establishment{
		establishment(100, "Subway", "7 Mill Road", "", "London", "N1 0PQ", 4),
		establishment(200, "Subway", "7 Mill Road", "", "London", "N1 0PQ", 4),
	}}
	m := newMatcher(t, finder, "Very Lenient", "Exact Match")

	results, _, err := m.Match(context.Background(), []models.PlaceQuery{
		{ID: "p1", Name: "Subway", FormattedAddress: "7 Mill Road, London", Postcode: "N1 0PQ"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 100, results[0].Establishment.FHRSID)
}

func TestMatchSkipsCandidatesWithoutAddress(t *testing.T) {
	finder := &stubFinder{candidates: []models.Establishment{
		establishment(100, "Subway", "", "", "", "N1 0PQ", 4),
	}}
	m := newMatcher(t, finder, "Maximum Fuzziness", "Exact Match")

	results, stats, err := m.Match(context.Background(), []models.PlaceQuery{
		{ID: "p1", Name: "Subway", FormattedAddress: "7 Mill Road, London", Postcode: "N1 0PQ"},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, stats.MatchesFound)
}

// ==========================
// Edge Case Tests
// ==========================

func TestMatchNoCandidatesIsNotAnError(t *testing.T) {
	finder := &stubFinder{}
	m := newMatcher(t, finder, "Very Lenient", "Exact Match")

	results, stats, err := m.Match(context.Background(), placesFixture())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 8, stats.PlacesSearched)
	assert.Equal(t, 0, stats.MatchesFound)
	assert.Equal(t, 0.0, stats.PercentageMatch)
}

func TestMatchEmptyPlaceBatch(t *testing.T) {
	finder := &stubFinder{candidates: corpusFixture()}
	m := newMatcher(t, finder, "Very Lenient", "Exact Match")

	results, stats, err := m.Match(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, stats.PlacesSearched)
	assert.Equal(t, 0, finder.calls)
}

func TestMatchFinderErrorPropagates(t *testing.T) {
	finder := &stubFinder{err: fmt.Errorf("%w: boom", ErrCandidateLookup)}
	m := newMatcher(t, finder, "Very Lenient", "Exact Match")

	results, _, err := m.Match(context.Background(), placesFixture())
	assert.ErrorIs(t, err, ErrCandidateLookup)
	assert.Empty(t, results)
}

func TestMatchCancelledContext(t *testing.T) {
	finder := &stubFinder{candidates: corpusFixture()}
	m := newMatcher(t, finder, "Very Lenient", "Exact Match")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Match(ctx, placesFixture())
	assert.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || errors.Is(err, ErrMatchTimeout))
}
