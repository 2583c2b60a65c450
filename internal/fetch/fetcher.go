// Package fetch downloads installer artifacts and computes their integrity
// digest while the bytes stream to disk.
package fetch

import (
	"context"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	digest "github.com/opencontainers/go-digest"

	"workbench/pkg/logging"
)

// MaxRedirects bounds how many 3xx hops a single download may follow.
const MaxRedirects = 5

// UnknownTotal is passed to a ProgressFunc when the server sent no content length.
const UnknownTotal int64 = -1

// ProgressFunc is called as bytes arrive. total is UnknownTotal when the size
// is indeterminate.
type ProgressFunc func(received, total int64)

// Artifact is a downloaded file and the digest of exactly the bytes written.
type Artifact struct {
	Path   string
	Digest digest.Digest
	Size   int64
}

// Hex returns the lowercase hex encoding of the digest.
func (a Artifact) Hex() string {
	return a.Digest.Encoded()
}

// Fetcher performs downloads over HTTP.
type Fetcher struct {
	client       *http.Client
	maxRedirects int
}

// New returns a Fetcher with a default client.
func New() *Fetcher {
	return NewWithClient(&http.Client{})
}

// NewWithClient returns a Fetcher that uses a copy of c. Redirects are always
// handled by the Fetcher itself so the partial file can be discarded between hops.
func NewWithClient(c *http.Client) *Fetcher {
	cp := *c
	cp.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &Fetcher{client: &cp, maxRedirects: MaxRedirects}
}

// Download fetches url into dest, following redirects and hashing the body as
// it is written.
func (f *Fetcher) Download(ctx context.Context, url, dest string, onProgress ProgressFunc) (Artifact, error) {
	current := url
	for hop := 0; ; hop++ {
		resp, err := f.get(ctx, current)
		if err != nil {
			return Artifact{}, &TransferError{URL: current, Err: err}
		}

		if isRedirect(resp.StatusCode) {
			loc, locErr := resp.Location()
			drain(resp)
			if locErr != nil {
				return Artifact{}, &TransferError{URL: current, Err: fmt.Errorf("redirect without usable location: %w", locErr)}
			}
			if hop >= f.maxRedirects {
				return Artifact{}, &TransferError{URL: url, Err: ErrTooManyRedirects}
			}
			if err := removePartial(dest); err != nil {
				return Artifact{}, &StorageError{Path: dest, Err: err}
			}
			logging.Debug("Fetch", "Following redirect %d from %s to %s", hop+1, current, loc)
			current = loc.String()
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			drain(resp)
			return Artifact{}, &RejectedError{URL: current, StatusCode: resp.StatusCode}
		}

		return f.store(resp, current, dest, onProgress)
	}
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return f.client.Do(req)
}

func (f *Fetcher) store(resp *http.Response, url, dest string, onProgress ProgressFunc) (Artifact, error) {
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Artifact{}, &StorageError{Path: dest, Err: err}
	}
	file, err := os.Create(dest)
	if err != nil {
		return Artifact{}, &StorageError{Path: dest, Err: err}
	}

	total := resp.ContentLength
	if total < 0 {
		total = UnknownTotal
	}

	digester := digest.Canonical.Digester()
	fw := &fileWriter{f: file}
	pw := &progressWriter{total: total, fn: onProgress}
	n, copyErr := io.Copy(io.MultiWriter(fw, digester.Hash(), pw), resp.Body)
	closeErr := file.Close()

	switch {
	case fw.err != nil:
		return Artifact{}, &StorageError{Path: dest, Err: fw.err}
	case copyErr != nil:
		return Artifact{}, &TransferError{URL: url, Err: copyErr}
	case closeErr != nil:
		return Artifact{}, &StorageError{Path: dest, Err: closeErr}
	case total != UnknownTotal && n != total:
		return Artifact{}, &TransferError{URL: url, Err: fmt.Errorf("received %d of %d bytes: %w", n, total, io.ErrUnexpectedEOF)}
	}

	a := Artifact{Path: dest, Digest: digester.Digest(), Size: n}
	logging.Info("Fetch", "Downloaded %s (%d bytes, %s)", dest, n, a.Digest)
	return a, nil
}

// Verify recomputes the digest of the file at path.
func Verify(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &StorageError{Path: path, Err: err}
	}
	defer f.Close()

	d, err := digest.Canonical.FromReader(f)
	if err != nil {
		return "", &StorageError{Path: path, Err: err}
	}
	return d, nil
}

// SidecarPath returns where the digest of the artifact at path is recorded.
func SidecarPath(path string) string {
	return path + ".sha256"
}

// WriteSidecar records the artifact digest next to it in the common
// "<hex>  <name>" checksum format.
func WriteSidecar(a Artifact) (string, error) {
	p := SidecarPath(a.Path)
	line := fmt.Sprintf("%s  %s\n", a.Hex(), filepath.Base(a.Path))
	if err := os.WriteFile(p, []byte(line), 0o644); err != nil {
		return "", &StorageError{Path: p, Err: err}
	}
	return p, nil
}

// ReadSidecar returns the digest recorded next to the artifact at path.
func ReadSidecar(path string) (digest.Digest, error) {
	data, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		return "", &StorageError{Path: SidecarPath(path), Err: err}
	}
	var hex string
	if _, err := fmt.Sscanf(string(data), "%s", &hex); err != nil {
		return "", fmt.Errorf("malformed digest file %s: %w", SidecarPath(path), err)
	}
	d := digest.NewDigestFromEncoded(digest.Canonical, hex)
	if err := d.Validate(); err != nil {
		return "", fmt.Errorf("malformed digest file %s: %w", SidecarPath(path), err)
	}
	return d, nil
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func removePartial(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	resp.Body.Close()
}

type fileWriter struct {
	f   *os.File
	err error
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		w.err = err
	}
	return n, err
}

type progressWriter struct {
	received int64
	total    int64
	fn       ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.received += int64(len(p))
	if w.fn != nil {
		w.fn(w.received, w.total)
	}
	return len(p), nil
}

// Throttle wraps fn so it fires at most once per interval, plus whenever the
// transfer reaches its known total.
func Throttle(fn ProgressFunc, interval time.Duration) ProgressFunc {
	if fn == nil {
		return nil
	}
	var last time.Time
	return func(received, total int64) {
		now := time.Now()
		if total != UnknownTotal && received >= total {
			fn(received, total)
			last = now
			return
		}
		if now.Sub(last) < interval {
			return
		}
		last = now
		fn(received, total)
	}
}
