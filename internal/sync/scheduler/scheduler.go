// internal/sync/scheduler/scheduler.go

// Package scheduler partitions unprocessed source files into batches and
// claims them in the processed-files ledger before handing them out.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fhrs-sync/internal/common/logger"
)

// Ledger is the durable claim/commit record the scheduler consults.
type Ledger interface {
	Unavailable(ctx context.Context) (map[string]bool, error)
	Claim(ctx context.Context, fileNames []string) error
}

// BatchScheduler forms disjoint batches of unprocessed *.json files.
type BatchScheduler struct {
	sourceDir string
	batchSize int
	ledger    Ledger
	logger    logger.Logger
}

func New(sourceDir string, batchSize int, ledger Ledger, log logger.Logger) *BatchScheduler {
	if batchSize < 1 {
		batchSize = 20
	}
	return &BatchScheduler{
		sourceDir: sourceDir,
		batchSize: batchSize,
		ledger:    ledger,
		logger:    log,
	}
}

// NextBatches enumerates the source directory, drops files that are
// completed or under a live claim, partitions the rest into consecutive
// groups of the batch size, and claims every returned file before
// returning. Successive calls over an unchanged directory therefore yield
// disjoint batches while claims stay live.
func (s *BatchScheduler) NextBatches(ctx context.Context) ([][]string, error) {
	entries, err := os.ReadDir(s.sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source dir %s: %w", s.sourceDir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	unavailable, err := s.ledger.Unavailable(ctx)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, name := range names {
		if !unavailable[name] {
			pending = append(pending, name)
		}
	}

	if len(pending) == 0 {
		s.logger.Info("No unprocessed source files", map[string]interface{}{
			"sourceDir": s.sourceDir,
		})
		return nil, nil
	}

	if err := s.ledger.Claim(ctx, pending); err != nil {
		return nil, err
	}

	var batches [][]string
	for start := 0; start < len(pending); start += s.batchSize {
		end := start + s.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batches = append(batches, pending[start:end])
	}

	s.logger.Info("Formed ingestion batches", map[string]interface{}{
		"files":     len(pending),
		"batches":   len(batches),
		"batchSize": s.batchSize,
	})

	return batches, nil
}
