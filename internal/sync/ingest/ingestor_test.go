// internal/sync/ingest/ingestor_test.go
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Test Helper Functions
// ==========================

// memStore collects upserts and can fail selected fhrs ids.
type memStore struct {
	mu      sync.Mutex
	rows    map[int]models.Establishment
	failIDs map[int]bool
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int]models.Establishment), failIDs: make(map[int]bool)}
}

func (m *memStore) Upsert(ctx context.Context, e *models.Establishment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[e.FHRSID] {
		return errors.New("upsert rejected")
	}
	m.rows[e.FHRSID] = *e
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memStore) get(id int) (models.Establishment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[id]
	return e, ok
}

func record(fhrsID, name, addr1, postcode, ratingValue string) map[string]interface{} {
	return map[string]interface{}{
		"FHRSID":       fhrsID,
		"BusinessName": name,
		"AddressLine1": addr1,
		"PostCode":     postcode,
		"RatingValue":  ratingValue,
	}
}

func writeExport(t *testing.T, dir, fileName string, records []map[string]interface{}) {
	t.Helper()
	doc := map[string]interface{}{
		"FHRSEstablishment": map[string]interface{}{
			"EstablishmentCollection": map[string]interface{}{
				"EstablishmentDetail": records,
			},
		},
	}
	raw, err := json.Marshal(doc)
	assert.NoError(t, err)
	assert.NoError(t, os.WriteFile(filepath.Join(dir, fileName), raw, 0o644))
}

func newIngestor(t *testing.T, dir string, store Upserter) *FileIngestor {
	t.Helper()
	f, err := NewFileIngestor(dir, store, nil, 4, logger.NewTestLogger(t))
	assert.NoError(t, err)
	return f
}

// ==========================
// Core Functionality Tests
// ==========================

func TestIngestFile_Success(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "camden.json", []map[string]interface{}{
		record("101", "Old Thai House", "1-2 Whitfield Street", "W1T 4EX", "5"),
		record("102", "Thai Metro", "38 Charlotte Street", "W1T 2NN", "4"),
	})

	store := newMemStore()
	f := newIngestor(t, dir, store)

	report, err := f.IngestFile(context.Background(), "camden.json")

	assert.NoError(t, err)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 0, report.SkippedCount)
	assert.Equal(t, 0, report.ErrorCount)
	assert.Equal(t, 2, store.count())

	e, ok := store.get(101)
	assert.True(t, ok)
	assert.Equal(t, "Old Thai House", e.BusinessName)
	assert.NotNil(t, e.RatingValueNum)
	assert.Equal(t, 5, *e.RatingValueNum)
	assert.Nil(t, e.RatingStatusID)
}

func TestIngestFile_SkipsRecordMissingPostcode(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "camden.json", []map[string]interface{}{
		record("101", "Old Thai House", "1-2 Whitfield Street", "W1T 4EX", "5"),
		record("102", "No Postcode Cafe", "9 High Street", "", "3"),
	})

	store := newMemStore()
	f := newIngestor(t, dir, store)

	report, err := f.IngestFile(context.Background(), "camden.json")

	assert.NoError(t, err)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.SkippedCount)
	assert.Equal(t, 0, report.ErrorCount)

	// The skipped record must not touch the store.
	assert.Equal(t, 1, store.count())
	_, ok := store.get(102)
	assert.False(t, ok)
}

func TestIngestFile_SkipsNonNumericFHRSID(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "camden.json", []map[string]interface{}{
		record("abc", "Bad Id Diner", "4 Side Street", "N1 1AA", "3"),
	})

	store := newMemStore()
	f := newIngestor(t, dir, store)

	report, err := f.IngestFile(context.Background(), "camden.json")

	assert.NoError(t, err)
	assert.Equal(t, 0, report.SuccessCount)
	assert.Equal(t, 1, report.SkippedCount)
	assert.Equal(t, 0, store.count())
}

func TestIngestFile_UpsertFailureDoesNotAbortFile(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "camden.json", []map[string]interface{}{
		record("101", "Old Thai House", "1-2 Whitfield Street", "W1T 4EX", "5"),
		record("102", "Thai Metro", "38 Charlotte Street", "W1T 2NN", "4"),
		record("103", "Franco Manca", "98 Tottenham Court Road", "W1T 4TR", "5"),
	})

	store := newMemStore()
	store.failIDs[102] = true
	f := newIngestor(t, dir, store)

	report, err := f.IngestFile(context.Background(), "camden.json")

	assert.NoError(t, err)
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, 2, store.count())
}

func TestIngestFile_RatingStatusTokens(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "camden.json", []map[string]interface{}{
		record("201", "Exempt Kiosk", "1 Market Row", "E8 1AA", "Exempt"),
		record("202", "New Opening", "2 Market Row", "E8 1AA", "AwaitingInspection"),
		record("203", "Garbage Rating", "3 Market Row", "E8 1AA", "N/A"),
	})

	store := newMemStore()
	f := newIngestor(t, dir, store)

	report, err := f.IngestFile(context.Background(), "camden.json")
	assert.NoError(t, err)
	assert.Equal(t, 3, report.SuccessCount)

	exempt, _ := store.get(201)
	assert.Nil(t, exempt.RatingValueNum)
	assert.NotNil(t, exempt.RatingStatusID)
	assert.Equal(t, 1, *exempt.RatingStatusID)

	awaiting, _ := store.get(202)
	assert.NotNil(t, awaiting.RatingStatusID)
	assert.Equal(t, 2, *awaiting.RatingStatusID)
	assert.NotNil(t, awaiting.RatingValueStr)
	assert.Equal(t, "AwaitingInspection", *awaiting.RatingValueStr)

	garbage, _ := store.get(203)
	assert.Nil(t, garbage.RatingValueStr)
	assert.Nil(t, garbage.RatingValueNum)
	assert.Nil(t, garbage.RatingStatusID)
}

// ==========================
// Edge Cases
// ==========================

func TestIngestFile_AbsentCollectionPath(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`{"FHRSEstablishment":{}}`), 0o644))

	store := newMemStore()
	f := newIngestor(t, dir, store)

	report, err := f.IngestFile(context.Background(), "empty.json")

	assert.NoError(t, err)
	assert.Equal(t, Report{Duration: report.Duration}, report)
	assert.Equal(t, 0, store.count())
}

func TestIngestFile_UnreadableFile(t *testing.T) {
	store := newMemStore()
	f := newIngestor(t, t.TempDir(), store)

	_, err := f.IngestFile(context.Background(), "missing.json")

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileUnreadable))
}

func TestIngestFile_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{not json`), 0o644))

	store := newMemStore()
	f := newIngestor(t, dir, store)

	_, err := f.IngestFile(context.Background(), "broken.json")

	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileMalformed))
}

func TestIngestFile_LargeFileExercisesPool(t *testing.T) {
	dir := t.TempDir()
	var records []map[string]interface{}
	for i := 0; i < 100; i++ {
		records = append(records, record(
			fmt.Sprintf("%d", 1000+i),
			fmt.Sprintf("Cafe %d", i),
			fmt.Sprintf("%d High Street", i),
			"SW1A 1AA",
			"4",
		))
	}
	writeExport(t, dir, "big.json", records)

	store := newMemStore()
	f := newIngestor(t, dir, store)

	report, err := f.IngestFile(context.Background(), "big.json")

	assert.NoError(t, err)
	assert.Equal(t, 100, report.SuccessCount)
	assert.Equal(t, 100, store.count())
}
