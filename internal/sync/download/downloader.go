// internal/sync/download/downloader.go

// Package download fetches authority export files into the source directory
// ahead of a sync run.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"fhrs-sync/internal/common/logger"
)

var ErrDownloadFailed = errors.New("DOWNLOAD_FAILED")

// Fetcher is the slice of the HTTP client the downloader uses.
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Downloader pulls per-authority establishment exports over HTTP and writes
// them into the source directory. Files already present are left untouched;
// re-downloading is the ledger's concern, not the downloader's.
type Downloader struct {
	client     Fetcher
	baseURL    string
	sourceDir  string
	maxRetries int
	retryDelay time.Duration
	logger     logger.Logger
}

func NewDownloader(client Fetcher, baseURL, sourceDir string, maxRetries int, log logger.Logger) *Downloader {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Downloader{
		client:     client,
		baseURL:    baseURL,
		sourceDir:  sourceDir,
		maxRetries: maxRetries,
		retryDelay: time.Second,
		logger:     log,
	}
}

// exportFileName is the well-known export naming scheme of the ratings API.
func exportFileName(authority string) string {
	return fmt.Sprintf("FHRS%sen-GB.json", authority)
}

// FetchAll downloads the export file of every authority. A failed authority
// is logged and skipped; the error reports how many failed.
func (d *Downloader) FetchAll(ctx context.Context, authorities []string) error {
	if err := os.MkdirAll(d.sourceDir, 0o755); err != nil {
		return fmt.Errorf("%w: create source dir: %v", ErrDownloadFailed, err)
	}

	failed := 0
	for _, authority := range authorities {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := d.fetchAuthority(ctx, authority); err != nil {
			d.logger.WithError(err).Error("Authority download failed", map[string]interface{}{
				"authority": authority,
			})
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d authorities failed", ErrDownloadFailed, failed, len(authorities))
	}
	return nil
}

func (d *Downloader) fetchAuthority(ctx context.Context, authority string) error {
	name := exportFileName(authority)
	dest := filepath.Join(d.sourceDir, name)

	if _, err := os.Stat(dest); err == nil {
		d.logger.Debug("Export already present, skipping download", map[string]interface{}{
			"file": name,
		})
		return nil
	}

	url := d.baseURL + "/" + name

	var lastErr error
	delay := d.retryDelay
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			d.logger.Warn("Retrying download", map[string]interface{}{
				"authority": authority,
				"attempt":   attempt,
				"delay":     delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		if lastErr = d.fetchOnce(ctx, url, dest); lastErr == nil {
			d.logger.Info("Export downloaded", map[string]interface{}{
				"authority": authority,
				"file":      name,
			})
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return lastErr
}

// fetchOnce streams one export to a temp file and renames it into place so a
// partial download never appears as a source file.
func (d *Downloader) fetchOnce(ctx context.Context, url, dest string) error {
	res, err := d.client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		io.Copy(io.Discard, res.Body)
		return fmt.Errorf("%w: unexpected status %d for %s", ErrDownloadFailed, res.StatusCode, url)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrDownloadFailed, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, res.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write body: %v", ErrDownloadFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp file: %v", ErrDownloadFailed, err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("%w: move into place: %v", ErrDownloadFailed, err)
	}
	return nil
}
