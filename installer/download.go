package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// DefaultHTTPTimeout bounds a whole archive transfer.
const DefaultHTTPTimeout = 30 * time.Minute

const downloadChunkSize = 32 * 1024

// HTTPDownloader downloads archives over HTTP(S).
type HTTPDownloader struct {
	Client *http.Client
	Log    *Logger
}

// NewHTTPDownloader creates a downloader whose client gives up after timeout.
func NewHTTPDownloader(timeout time.Duration, logger *Logger) *HTTPDownloader {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}
	return &HTTPDownloader{
		Client: &http.Client{Timeout: timeout},
		Log:    logger,
	}
}

// Download implements Downloader. It writes the response body to dest and
// reports bytes received against Content-Length (or -1 when unknown).
func (d *HTTPDownloader) Download(ctx context.Context, url, dest string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{Op: "get", URL: url, Err: err}
	}

	resp, err := d.client().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Op: "get", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &NetworkError{Op: "get", URL: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return &ArchiveError{Op: "write", Path: dest, Err: err}
	}

	total := resp.ContentLength
	done, err := copyWithProgress(ctx, f, resp.Body, total, progress)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = &ArchiveError{Op: "write", Path: dest, Err: closeErr}
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var archiveErr *ArchiveError
		if errors.As(err, &archiveErr) {
			archiveErr.Path = dest
			return archiveErr
		}
		return &NetworkError{Op: "read", URL: url, Err: err}
	}

	if total > 0 && done != total {
		return &NetworkError{Op: "read", URL: url, Err: fmt.Errorf("%w: got %d of %d bytes", ErrTruncated, done, total)}
	}

	d.Log.Info("Downloaded %s (%s)", url, humanize.Bytes(uint64(done)))
	return nil
}

func (d *HTTPDownloader) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

// copyWithProgress copies src to dst in chunks, checking ctx between chunks.
// Write failures come back as *ArchiveError.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress ProgressFunc) (int64, error) {
	buf := make([]byte, downloadChunkSize)
	var done int64
	for {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return done, &ArchiveError{Op: "write", Err: err}
			}
			done += int64(n)
			if progress != nil {
				progress(done, total)
			}
		}
		if readErr == io.EOF {
			return done, nil
		}
		if readErr != nil {
			return done, readErr
		}
	}
}

// VerifyChecksum verifies the SHA256 checksum of a file.
func VerifyChecksum(path, expected string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return err
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, actual)
	}
	return nil
}
