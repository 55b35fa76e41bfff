// internal/sync/ingest/runner.go
package ingest

import (
	"context"
	"errors"
	"time"

	stderrors "fhrs-sync/internal/common/errors"
	"fhrs-sync/internal/common/logger"
	"fhrs-sync/internal/common/metrics"
	"fhrs-sync/internal/common/observability"

	"github.com/google/uuid"
)

// Scheduler forms claimed batches of unprocessed files.
type Scheduler interface {
	NextBatches(ctx context.Context) ([][]string, error)
}

// Committer records completion for a claimed file.
type Committer interface {
	MarkCompleted(ctx context.Context, fileName string) error
}

// Ingestor processes one file.
type Ingestor interface {
	IngestFile(ctx context.Context, fileName string) (Report, error)
}

// Notifier sends a run summary after the run finishes.
type Notifier interface {
	NotifyRunSummary(ctx context.Context, summary RunSummary) error
}

// RunSummary aggregates one ingestion run.
type RunSummary struct {
	RunID          string        `json:"runId"`
	FilesCompleted int           `json:"filesCompleted"`
	FilesFailed    int           `json:"filesFailed"`
	RecordsOK      int           `json:"recordsOk"`
	RecordsSkipped int           `json:"recordsSkipped"`
	RecordsErrored int           `json:"recordsErrored"`
	Duration       time.Duration `json:"duration"`
}

// Runner drives one full ingestion run: batches from the scheduler, files
// within a batch in order, file failures isolated. Files that ingest without
// a file-level error are committed in the ledger; failed files keep their
// claim and become eligible again after claim expiry. No retries, no
// rollback.
type Runner struct {
	scheduler  Scheduler
	ingestor   Ingestor
	ledger     Committer
	notifier   Notifier                       // nil when notifications are disabled
	obs        *observability.Observability   // nil in tests
	runTimeout time.Duration
	logger     logger.Logger
	errs       *stderrors.ErrorHandler
}

func NewRunner(s Scheduler, i Ingestor, ledger Committer, notifier Notifier, obs *observability.Observability, runTimeout time.Duration, log logger.Logger) *Runner {
	return &Runner{
		scheduler:  s,
		ingestor:   i,
		ledger:     ledger,
		notifier:   notifier,
		obs:        obs,
		runTimeout: runTimeout,
		logger:     log,
		errs:       stderrors.NewErrorHandler(log),
	}
}

// classifyFileError maps a file-level ingestion failure onto a standard
// error so failures log with a stable code and retry classification.
func classifyFileError(fileName string, err error) *stderrors.StandardError {
	switch {
	case errors.Is(err, ErrFileUnreadable):
		return stderrors.NewSourceFileUnreadableError(fileName, err)
	case errors.Is(err, ErrFileMalformed):
		return stderrors.NewSourceFileMalformedError(fileName, err)
	default:
		return stderrors.NewQueryExecutionFailedError("ingest "+fileName, err)
	}
}

// Run executes one ingestion run under the configured timeout.
func (r *Runner) Run(ctx context.Context) (RunSummary, error) {
	if r.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}

	start := time.Now()
	summary := RunSummary{RunID: uuid.NewString()}
	log := r.logger.WithFields(map[string]interface{}{"runId": summary.RunID})

	log.Info("Starting ingestion run", nil)

	batches, err := r.scheduler.NextBatches(ctx)
	if err != nil {
		summary.Duration = time.Since(start)
		r.recordRun(ctx, "failed", summary.Duration)
		return summary, err
	}

	for bi, batch := range batches {
		log.Info("Processing batch", map[string]interface{}{
			"batch": bi + 1,
			"files": len(batch),
		})

		for _, fileName := range batch {
			if err := ctx.Err(); err != nil {
				log.WithError(err).Warn("Run cancelled mid-batch", nil)
				summary.Duration = time.Since(start)
				r.recordRun(ctx, "cancelled", summary.Duration)
				r.notify(summary)
				return summary, err
			}

			report, err := r.ingestor.IngestFile(ctx, fileName)
			summary.RecordsOK += report.SuccessCount
			summary.RecordsSkipped += report.SkippedCount
			summary.RecordsErrored += report.ErrorCount

			if err != nil {
				summary.FilesFailed++
				metrics.FilesProcessed.WithLabelValues("failed").Inc()
				metrics.FileIngestDuration.WithLabelValues("failed").Observe(report.Duration.Seconds())
				r.errs.Handle("ingest "+fileName, classifyFileError(fileName, err))
				continue
			}

			if err := r.ledger.MarkCompleted(ctx, fileName); err != nil {
				summary.FilesFailed++
				metrics.FilesProcessed.WithLabelValues("failed").Inc()
				r.errs.Handle("commit "+fileName, stderrors.NewLedgerCommitFailedError(fileName, err))
				continue
			}

			summary.FilesCompleted++
			metrics.FilesProcessed.WithLabelValues("completed").Inc()
			metrics.FileIngestDuration.WithLabelValues("completed").Observe(report.Duration.Seconds())
		}
	}

	summary.Duration = time.Since(start)

	status := "completed"
	if summary.FilesFailed > 0 {
		status = "partial"
	}
	r.recordRun(ctx, status, summary.Duration)

	log.Info("Ingestion run finished", map[string]interface{}{
		"filesCompleted": summary.FilesCompleted,
		"filesFailed":    summary.FilesFailed,
		"recordsOk":      summary.RecordsOK,
		"recordsSkipped": summary.RecordsSkipped,
		"recordsErrored": summary.RecordsErrored,
		"duration":       summary.Duration.String(),
	})

	r.notify(summary)
	return summary, nil
}

func (r *Runner) recordRun(ctx context.Context, status string, d time.Duration) {
	if r.obs == nil {
		return
	}
	r.obs.RecordRun(ctx, status)
	r.obs.RecordRunDuration(ctx, d, status)
}

func (r *Runner) notify(summary RunSummary) {
	if r.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.notifier.NotifyRunSummary(ctx, summary); err != nil {
		r.logger.WithError(err).Warn("Run summary notification failed", map[string]interface{}{
			"runId": summary.RunID,
		})
	}
}
