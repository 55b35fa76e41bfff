// cmd/sync-runner/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fhrs-sync/internal/common/aws"
	"fhrs-sync/internal/common/config"
	"fhrs-sync/internal/common/database"
	commonhttp "fhrs-sync/internal/common/http"
	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/common/observability"
	"fhrs-sync/internal/sync/download"
	"fhrs-sync/internal/sync/ingest"
	"fhrs-sync/internal/sync/match"
	"fhrs-sync/internal/sync/notify"
	"fhrs-sync/internal/sync/scheduler"
	"fhrs-sync/internal/sync/search"
	"fhrs-sync/internal/sync/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting sync runner...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("sync-runner")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry (optional) ---
	var esIndex *search.EstablishmentIndex
	if cfg.Search.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		esIndex = search.NewEstablishmentIndex(esClient.Client, cfg.Search.Index, log)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Redis with retry (optional, candidate cache) ---
	var redis *database.RedisClient
	if cfg.Match.CacheEnabled {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Download authority exports (optional) ---
	if cfg.Download.Enabled {
		httpClient := commonhttp.NewClient(config.GetDuration(cfg.Download.Timeout))
		dl := download.NewDownloader(httpClient, cfg.Download.BaseURL, cfg.Sync.SourceDir, cfg.Download.MaxRetries, log)
		if err := dl.FetchAll(ctx, cfg.Download.Authorities); err != nil {
			// Missing exports only shrink the batch; the run still proceeds.
			zapLog.Warn("some authority downloads failed", zap.Error(err))
		}
	}

	// --- Wire the ingestion pipeline ---
	estStore := store.NewEstablishmentStore(pg.DB, log)
	ledger := store.NewProcessedFilesLedger(pg.DB, config.GetDuration(cfg.Sync.ClaimTTL), log)
	batches := scheduler.New(cfg.Sync.SourceDir, cfg.Sync.BatchSize, ledger, log)

	var indexer ingest.Indexer
	if esIndex != nil {
		indexer = esIndex
	}

	ingestor, err := ingest.NewFileIngestor(cfg.Sync.SourceDir, estStore, indexer, cfg.Sync.WorkerPoolSize, log)
	if err != nil {
		zapLog.Fatal("failed to create ingestor", zap.Error(err))
	}

	var notifier ingest.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SES client", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("failed to create SNS client", zap.Error(err))
		}
		notifier = notify.NewRunSummaryNotifier(cfg.Notifications, sesClient, snsClient, log)
	}

	runner := ingest.NewRunner(batches, ingestor, ledger, notifier, obs, config.GetDuration(cfg.Sync.RunTimeout), log)

	// Warm the matcher configuration so a bad threshold name fails the
	// process at startup instead of at first query.
	if _, err := match.NewFuzzyMatcher(
		match.NewPostgresCandidateFinder(estStore, log),
		match.Config{
			NameAddressThreshold: cfg.Match.NameAddressThreshold,
			PostcodeThreshold:    cfg.Match.PostcodeThreshold,
			QueryTimeout:         config.GetDuration(cfg.Match.QueryTimeout),
		},
		log,
	); err != nil {
		zapLog.Fatal("invalid match configuration", zap.Error(err))
	}

	// --- Run ---
	summary, err := runner.Run(ctx)
	if err != nil {
		zapLog.Fatal("sync run failed", zap.Error(err))
	}

	zapLog.Info("Sync run finished",
		zap.String("runId", summary.RunID),
		zap.Int("filesCompleted", summary.FilesCompleted),
		zap.Int("filesFailed", summary.FilesFailed),
		zap.Int("recordsOk", summary.RecordsOK),
		zap.Int("recordsSkipped", summary.RecordsSkipped),
		zap.Int("recordsErrored", summary.RecordsErrored),
		zap.Duration("duration", summary.Duration),
	)

	if summary.FilesFailed > 0 {
		os.Exit(1)
	}
}
