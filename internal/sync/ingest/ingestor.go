// internal/sync/ingest/ingestor.go

// Package ingest reads FHRS export files and drives their establishment
// records into the store.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/common/metrics"
	"fhrs-sync/internal/common/validation"
	"fhrs-sync/internal/models"
	"fhrs-sync/internal/sync/rating"
)

var (
	ErrFileUnreadable = fmt.Errorf("SOURCE_FILE_UNREADABLE")
	ErrFileMalformed  = fmt.Errorf("SOURCE_FILE_MALFORMED")
)

// Upserter persists one establishment row.
type Upserter interface {
	Upsert(ctx context.Context, e *models.Establishment) error
}

// Indexer mirrors successful upserts into a secondary search index.
type Indexer interface {
	Index(ctx context.Context, e *models.Establishment) error
}

// Report summarizes one file's ingestion.
type Report struct {
	SuccessCount int
	SkippedCount int
	ErrorCount   int
	Duration     time.Duration
}

// FileIngestor validates, normalizes, and upserts the records of one FHRS
// export file at a time. Upserts fan out through a bounded worker pool.
type FileIngestor struct {
	sourceDir string
	store     Upserter
	indexer   Indexer // nil when the search index is disabled
	validator *validation.Validator
	poolSize  int
	logger    logger.Logger
}

func NewFileIngestor(sourceDir string, store Upserter, indexer Indexer, poolSize int, log logger.Logger) (*FileIngestor, error) {
	if poolSize < 1 {
		poolSize = 8
	}
	validator, err := validation.NewValidator(recordSchema)
	if err != nil {
		return nil, err
	}
	return &FileIngestor{
		sourceDir: sourceDir,
		store:     store,
		indexer:   indexer,
		validator: validator,
		poolSize:  poolSize,
		logger:    log,
	}, nil
}

// IngestFile processes one export file. Invalid records are skipped, failed
// upserts are counted, and neither aborts the file; the returned error covers
// only file-level failures (unreadable or malformed document).
func (f *FileIngestor) IngestFile(ctx context.Context, fileName string) (Report, error) {
	start := time.Now()
	log := f.logger.WithFields(map[string]interface{}{"fileName": fileName})

	raw, err := os.ReadFile(filepath.Join(f.sourceDir, fileName))
	if err != nil {
		return Report{Duration: time.Since(start)}, fmt.Errorf("%w: %s: %v", ErrFileUnreadable, fileName, err)
	}

	var doc models.FHRSDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Report{Duration: time.Since(start)}, fmt.Errorf("%w: %s: %v", ErrFileMalformed, fileName, err)
	}

	details := doc.FHRSEstablishment.EstablishmentCollection.EstablishmentDetail
	log.Info("Ingesting source file", map[string]interface{}{
		"records": len(details),
	})

	var successCount, skippedCount, errorCount int64

	sem := make(chan struct{}, f.poolSize)
	var wg sync.WaitGroup

	for i := range details {
		detail := &details[i]

		result := f.validator.Validate(detail)
		if !result.Valid {
			skipped := atomic.AddInt64(&skippedCount, 1)
			metrics.RecordsIngested.WithLabelValues("skipped").Inc()
			log.Warn("Skipping invalid record", map[string]interface{}{
				"businessName": detail.BusinessName,
				"errors":       result.GetErrorMessages(),
				"skippedSoFar": skipped,
			})
			continue
		}

		est, err := toEstablishment(detail)
		if err != nil {
			skipped := atomic.AddInt64(&skippedCount, 1)
			metrics.RecordsIngested.WithLabelValues("skipped").Inc()
			log.Warn("Skipping unconvertible record", map[string]interface{}{
				"businessName": detail.BusinessName,
				"error":        err.Error(),
				"skippedSoFar": skipped,
			})
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(e *models.Establishment) {
			defer wg.Done()
			defer func() { <-sem }()

			metrics.UpsertsInFlight.Inc()
			defer metrics.UpsertsInFlight.Dec()

			if err := f.store.Upsert(ctx, e); err != nil {
				atomic.AddInt64(&errorCount, 1)
				metrics.RecordsIngested.WithLabelValues("error").Inc()
				log.WithError(err).Error("Establishment upsert failed", map[string]interface{}{
					"fhrsId":       e.FHRSID,
					"businessName": e.BusinessName,
				})
				return
			}

			atomic.AddInt64(&successCount, 1)
			metrics.RecordsIngested.WithLabelValues("success").Inc()

			if f.indexer != nil {
				if err := f.indexer.Index(ctx, e); err != nil {
					log.WithError(err).Error("Search index write failed", map[string]interface{}{
						"fhrsId": e.FHRSID,
					})
				}
			}
		}(est)
	}

	wg.Wait()

	report := Report{
		SuccessCount: int(successCount),
		SkippedCount: int(skippedCount),
		ErrorCount:   int(errorCount),
		Duration:     time.Since(start),
	}

	log.Info("Source file ingested", map[string]interface{}{
		"success":  report.SuccessCount,
		"skipped":  report.SkippedCount,
		"errors":   report.ErrorCount,
		"duration": report.Duration.String(),
	})

	return report, nil
}

// toEstablishment maps an export record to a store row. Optional fields
// default to null; the rating token goes through the normalizer.
func toEstablishment(d *models.EstablishmentDetail) (*models.Establishment, error) {
	fhrsID, err := strconv.Atoi(strings.TrimSpace(d.FHRSID))
	if err != nil {
		return nil, fmt.Errorf("non-numeric FHRSID %q", d.FHRSID)
	}

	r := rating.Normalize(d.RatingValue)

	e := &models.Establishment{
		FHRSID:                   fhrsID,
		LocalAuthorityBusinessID: d.LocalAuthorityBusinessID,
		BusinessName:             d.BusinessName,
		BusinessType:             d.BusinessType,
		BusinessTypeID:           parseOptionalInt(d.BusinessTypeID),
		AddressLine1:             d.AddressLine1,
		AddressLine2:             d.AddressLine2,
		AddressLine4:             d.AddressLine4,
		PostCode:                 d.PostCode,
		RatingValueStr:           r.Str,
		RatingValueNum:           r.Num,
		RatingStatusID:           r.StatusID,
		RatingKey:                d.RatingKey,
		RatingDate:               rating.ParseRatingDate(d.RatingDate),
		LocalAuthorityCode:       d.LocalAuthorityCode,
		LocalAuthorityName:       d.LocalAuthorityName,
		LocalAuthorityWebsite:    d.LocalAuthorityWebSite,
		LocalAuthorityEmail:      d.LocalAuthorityEmail,
		SchemeType:               d.SchemeType,
		NewRatingPending:         strings.EqualFold(d.NewRatingPending, "true"),
	}

	if d.Scores != nil {
		e.ScoreHygiene = parseOptionalIntPtr(d.Scores.Hygiene)
		e.ScoreStructural = parseOptionalIntPtr(d.Scores.Structural)
		e.ScoreConfidence = parseOptionalIntPtr(d.Scores.ConfidenceInManagement)
	}
	if d.Geocode != nil {
		e.Longitude = parseOptionalFloatPtr(d.Geocode.Longitude)
		e.Latitude = parseOptionalFloatPtr(d.Geocode.Latitude)
	}

	return e, nil
}

func parseOptionalInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

func parseOptionalIntPtr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func parseOptionalFloatPtr(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}
