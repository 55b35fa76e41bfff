// internal/sync/search/index_test.go
package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

// newTestIndex points a real client at a stub server. The v8 client checks
// the product header, so every response must carry it.
func newTestIndex(t *testing.T, handler http.HandlerFunc) *EstablishmentIndex {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	return NewEstablishmentIndex(client, "fhrs-establishments", logger.NewTestLogger(t))
}

func ratingPtr(s string) *string { return &s }

// ==========================
// Index Tests
// ==========================

func TestIndexWritesDocumentKeyedByFHRSID(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}

	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	est := &models.Establishment{
		FHRSID:         100001,
		BusinessName:   "The Old Thai House",
		AddressLine1:   "5 Market Lane",
		PostCode:       "e8 1aa",
		RatingValueStr: ratingPtr("3"),
	}

	err := idx.Index(context.Background(), est)
	require.NoError(t, err)

	assert.Equal(t, "/fhrs-establishments/_doc/100001", gotPath)
	assert.Equal(t, "The Old Thai House", gotBody["businessName"])
	assert.Equal(t, "E81AA", gotBody["postCodeNormalized"])
}

func TestIndexServerError(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"unavailable"}`))
	})

	err := idx.Index(context.Background(), &models.Establishment{FHRSID: 1, BusinessName: "x"})
	assert.ErrorIs(t, err, ErrIndexWriteFailed)
}

// ==========================
// Postcode Search Tests
// ==========================

func TestFindByPostcodesParsesHits(t *testing.T) {
	var gotQuery map[string]interface{}

	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotQuery)
		w.Write([]byte(`{
			"hits": {
				"total": {"value": 2},
				"hits": [
					{"_source": {"fhrsId": 100001, "businessName": "The Old Thai House", "postCode": "E8 1AA", "postCodeNormalized": "E81AA"}},
					{"_source": {"fhrsId": 100005, "businessName": "Nando's", "postCode": "E8 1AA", "postCodeNormalized": "E81AA"}}
				]
			}
		}`))
	})

	got, err := idx.FindByPostcodes(context.Background(), []string{"e8 1aa", "E8 1AA"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 100001, got[0].FHRSID)
	assert.Equal(t, "Nando's", got[1].BusinessName)

	terms := gotQuery["query"].(map[string]interface{})["terms"].(map[string]interface{})
	assert.Equal(t, []interface{}{"E81AA"}, terms["postCodeNormalized"], "duplicate postcodes must collapse")
}

func TestFindByPostcodesEmptyInput(t *testing.T) {
	called := false
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	got, err := idx.FindByPostcodes(context.Background(), []string{"", "   "})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, called)
}

func TestFindByPostcodesServerError(t *testing.T) {
	idx := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})

	_, err := idx.FindByPostcodes(context.Background(), []string{"E8 1AA"})
	assert.ErrorIs(t, err, ErrSearchQueryFailed)
}
