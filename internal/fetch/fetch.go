// Package fetch downloads release archives and unpacks them into a staging
// directory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/feed"
	"github.com/conn-castle/m/internal/messages"
)

const (
	maxAttempts      = 3
	initialRetryWait = 500 * time.Millisecond
	// DefaultMaxBytes caps a single archive download.
	DefaultMaxBytes = int64(1 << 30)
)

// Fetcher materializes releases.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
	// Progress receives one line per download and extraction; nil is silent.
	Progress  io.Writer
	Log       *log.Logger
	RetryWait time.Duration
}

// New returns a Fetcher limited to maxBytes per archive.
func New(maxBytes int64, progress io.Writer, logger *log.Logger) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		Client:   &http.Client{Timeout: 30 * time.Minute},
		MaxBytes: maxBytes,
		Progress: progress,
		Log:      logger,
	}
}

// Materialize downloads rel and unpacks it into destDir, dropping the
// archive's single top-level directory. On failure destDir is removed.
func (f *Fetcher) Materialize(ctx context.Context, rel feed.Release, destDir string) (err error) {
	defer func() {
		if err != nil {
			_ = os.RemoveAll(destDir)
		}
	}()
	if strings.TrimSpace(rel.URL) == "" {
		return fmt.Errorf(messages.FetchMissingURLFmt, failure.ErrTransport, messages.FetchURLRequired)
	}
	format, err := detectFormat(rel.URL)
	if err != nil {
		return err
	}

	archive, err := os.CreateTemp("", "m-download-*")
	if err != nil {
		return fmt.Errorf(messages.FetchCreateTempFmt, err)
	}
	archivePath := archive.Name()
	_ = archive.Close()
	defer func() { _ = os.Remove(archivePath) }()

	f.progress(messages.FetchDownloadingFmt, rel.URL)
	if err := f.download(ctx, rel.URL, archivePath); err != nil {
		return err
	}
	f.progress(messages.FetchExtractingFmt, path.Base(urlPath(rel.URL)))
	return extract(format, archivePath, destDir)
}

func (f *Fetcher) progress(format string, args ...any) {
	if f.Progress != nil {
		_, _ = fmt.Fprintf(f.Progress, format, args...)
	}
}

// download streams rawURL into dest, retrying network errors and 5xx responses.
func (f *Fetcher) download(ctx context.Context, rawURL string, dest string) error {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	wait := f.RetryWait
	if wait <= 0 {
		wait = initialRetryWait
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = wait
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, maxAttempts-1), ctx)

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf(messages.FetchDownloadFmt, failure.ErrTransport, rawURL, err))
		}
		resp, err := client.Do(req)
		if err != nil {
			wrapped := fmt.Errorf(messages.FetchDownloadFmt, failure.ErrTransport, rawURL, err)
			if retryable(err) {
				return wrapped
			}
			return backoff.Permanent(wrapped)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(fmt.Errorf(messages.FetchDownload404Fmt, failure.ErrTransport, rawURL))
		case resp.StatusCode >= 500 && resp.StatusCode <= 599:
			return fmt.Errorf(messages.FetchUnexpectedStatusFmt, failure.ErrTransport, rawURL, resp.Status)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf(messages.FetchUnexpectedStatusFmt, failure.ErrTransport, rawURL, resp.Status))
		}
		if resp.ContentLength > limit {
			return backoff.Permanent(fmt.Errorf(messages.FetchTooLargeFmt, failure.ErrTransport, rawURL, resp.ContentLength, limit))
		}

		out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
		if err != nil {
			return backoff.Permanent(fmt.Errorf(messages.FetchWriteFmt, failure.ErrTransport, dest, err))
		}
		n, copyErr := io.Copy(out, io.LimitReader(resp.Body, limit+1))
		closeErr := out.Close()
		if copyErr != nil {
			wrapped := fmt.Errorf(messages.FetchDownloadFmt, failure.ErrTransport, rawURL, copyErr)
			if retryable(copyErr) {
				return wrapped
			}
			return backoff.Permanent(wrapped)
		}
		if n > limit {
			return backoff.Permanent(fmt.Errorf(messages.FetchTooLargeFmt, failure.ErrTransport, rawURL, n, limit))
		}
		if closeErr != nil {
			return backoff.Permanent(fmt.Errorf(messages.FetchWriteFmt, failure.ErrTransport, dest, closeErr))
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		if f.Log != nil {
			f.Log.Debug(messages.FetchRetrying, "url", rawURL, "err", err, "wait", next)
		}
	}
	return backoff.RetryNotify(op, retry, notify)
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func urlPath(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil {
		return parsed.Path
	}
	return rawURL
}
