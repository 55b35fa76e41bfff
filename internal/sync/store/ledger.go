// internal/sync/store/ledger.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fhrs-sync/internal/common/logger"
)

var (
	ErrLedgerClaimFailed  = fmt.Errorf("LEDGER_CLAIM_FAILED")
	ErrLedgerCommitFailed = fmt.Errorf("LEDGER_COMMIT_FAILED")
)

// ProcessedFilesLedger is the durable record of which source files have been
// claimed and which have completed ingestion. Claiming happens when a batch
// is formed; completion happens after the file ingests without error. Claims
// older than the TTL whose file never completed are eligible for re-claim.
type ProcessedFilesLedger struct {
	db       *sql.DB
	claimTTL time.Duration
	logger   logger.Logger
}

func NewProcessedFilesLedger(db *sql.DB, claimTTL time.Duration, log logger.Logger) *ProcessedFilesLedger {
	return &ProcessedFilesLedger{db: db, claimTTL: claimTTL, logger: log}
}

const selectUnavailableSQL = `
SELECT file_name FROM processed_files
WHERE completed_at IS NOT NULL OR claimed_at > $1`

// Unavailable returns the set of file names that must not be scheduled:
// completed files plus files under a live claim.
func (l *ProcessedFilesLedger) Unavailable(ctx context.Context) (map[string]bool, error) {
	cutoff := time.Now().UTC().Add(-l.claimTTL)

	rows, err := l.db.QueryContext(ctx, selectUnavailableSQL, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerClaimFailed, err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLedgerClaimFailed, err)
		}
		out[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerClaimFailed, err)
	}

	return out, nil
}

// Re-claiming an expired row refreshes claimed_at; completed rows never
// reach this statement because Unavailable filters them out.
const claimSQL = `
INSERT INTO processed_files (file_name, claimed_at, completed_at)
VALUES ($1, $2, NULL)
ON CONFLICT (file_name) DO UPDATE SET claimed_at = EXCLUDED.claimed_at
WHERE processed_files.completed_at IS NULL`

// Claim records a live claim for every given file.
func (l *ProcessedFilesLedger) Claim(ctx context.Context, fileNames []string) error {
	now := time.Now().UTC()
	for _, name := range fileNames {
		if _, err := l.db.ExecContext(ctx, claimSQL, name, now); err != nil {
			return fmt.Errorf("%w: file %s: %v", ErrLedgerClaimFailed, name, err)
		}
	}
	return nil
}

const commitSQL = `
UPDATE processed_files SET completed_at = $2 WHERE file_name = $1`

// MarkCompleted commits a claimed file after successful ingestion.
func (l *ProcessedFilesLedger) MarkCompleted(ctx context.Context, fileName string) error {
	res, err := l.db.ExecContext(ctx, commitSQL, fileName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%w: file %s: %v", ErrLedgerCommitFailed, fileName, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		l.logger.Warn("Completed file had no ledger claim", map[string]interface{}{
			"fileName": fileName,
		})
	}
	return nil
}
