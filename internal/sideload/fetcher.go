package sideload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// TempFilePrefix names every temporary artifact so stale ones can be swept
const TempFilePrefix = "sideload-"

// DefaultFetchTimeout bounds a download when no timeout is configured
const DefaultFetchTimeout = 300 * time.Second

// TemporaryArtifact is a downloaded file owned by one pipeline invocation
type TemporaryArtifact struct {
	LocalPath    string
	Size         int64
	DeclaredMime string
	Filename     string
	SourceURL    string
}

// Fetcher downloads remote resources into uniquely named temporary files
type Fetcher struct {
	Client    *http.Client
	TempDir   string
	Timeout   time.Duration
	UserAgent string
}

// NewFetcher creates a fetcher writing into tempDir ("" for the OS default).
// Downloads from loopback, private and link-local addresses are refused
// unless allowPrivate is set.
func NewFetcher(tempDir string, timeout time.Duration, userAgent string, allowPrivate bool) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Fetcher{
		Client:    newDownloadClient(allowPrivate),
		TempDir:   tempDir,
		Timeout:   timeout,
		UserAgent: userAgent,
	}
}

// Fetch streams the candidate URL to a temporary file. On failure no file is
// left behind; on success the caller owns the artifact and must remove it.
func (f *Fetcher) Fetch(ctx context.Context, c *Candidate) (*TemporaryArtifact, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL.String(), nil)
	if err != nil {
		return nil, newError(KindDownloadFailed, "Could not create download request.", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, newError(KindDownloadFailed, "Download timed out.", err)
		}
		return nil, newError(KindDownloadFailed, "Could not download file.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindDownloadFailed, http.StatusText(resp.StatusCode),
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	tmp, err := os.CreateTemp(f.TempDir, TempFilePrefix+"*")
	if err != nil {
		return nil, newError(KindDownloadFailed, "Could not create temporary file.", err)
	}
	tmpPath := tmp.Name()

	size, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()

	if copyErr == nil && closeErr == nil && size > 0 {
		return &TemporaryArtifact{
			LocalPath:    tmpPath,
			Size:         size,
			DeclaredMime: c.DeclaredMime,
			Filename:     c.Filename,
			SourceURL:    c.URL.String(),
		}, nil
	}

	os.Remove(tmpPath)

	switch {
	case errors.Is(copyErr, context.DeadlineExceeded):
		return nil, newError(KindDownloadFailed, "Download timed out.", copyErr)
	case copyErr != nil:
		return nil, newError(KindDownloadFailed, "Could not read downloaded file.", copyErr)
	case closeErr != nil:
		return nil, newError(KindDownloadFailed, "Could not write temporary file.", closeErr)
	default:
		return nil, newError(KindDownloadFailed, "Downloaded file is empty.", nil)
	}
}
