package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/sio/issyours/internal/storage"
)

// DefaultDownloadTimeout limits a single attachment, avatar or patch download
const DefaultDownloadTimeout = 60 * time.Second

// NewDownloadClient creates an HTTP client that refuses to connect to
// private, loopback and link-local addresses. Download URLs come from
// user-authored issue text.
func NewDownloadClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// download streams url into path atomically
func (f *Fetcher) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.downloads.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", url, resp.Status)
	}
	return storage.SafeWrite(path, resp.Body)
}

// bestEffort downloads a file whose absence must not fail the run. With
// skipExisting set, a file already on disk is left alone. It reports whether
// a file was written.
func (f *Fetcher) bestEffort(ctx context.Context, kind, url, path string, skipExisting bool) bool {
	if skipExisting {
		exists, err := storage.Exists(path)
		if err == nil && exists {
			return false
		}
	}

	if err := f.download(ctx, url, path); err != nil {
		f.logger.Warn("Download failed, skipping", "kind", kind, "url", url, "error", err)
		f.metrics.RecordFailure(kind)
		return false
	}
	f.metrics.RecordWrite(kind)
	f.logger.Debug("Downloaded file", "kind", kind, "url", url, "path", path)
	return true
}
