// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_ingested_total",
			Help: "Total number of establishment records ingested, by outcome",
		},
		[]string{"outcome"}, // success, skipped, error
	)

	FilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_files_processed_total",
			Help: "Total number of source files processed, by outcome",
		},
		[]string{"outcome"}, // completed, failed
	)

	FileIngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "sync_file_ingest_duration_seconds",
			Help: "Duration of per-file ingestion in seconds",
		},
		[]string{"outcome"},
	)

	UpsertsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sync_upserts_in_flight",
			Help: "Number of establishment upserts currently in flight",
		},
	)

	MatchQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_queries_total",
			Help: "Total number of place queries matched, by outcome",
		},
		[]string{"outcome"}, // matched, unmatched
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "match_duration_seconds",
			Help: "Duration of fuzzy match batches in seconds",
		},
		[]string{"threshold"},
	)

	CandidateCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_candidate_cache_total",
			Help: "Candidate cache lookups, by result",
		},
		[]string{"result"}, // hit, miss
	)
)
