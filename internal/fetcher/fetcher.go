// Package fetcher downloads photo bytes from remote and local sources.
//
// A Resolver dispatches on the reference scheme: http and https URLs go
// through a rate-limited retrying HTTP client, ftp URLs through an FTP
// session (anonymous unless the URL carries credentials), and everything
// else is read from the local filesystem. Every path enforces a size cap
// so one oversized reference cannot exhaust memory during a batch run.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
)

// DefaultMaxBytes caps how much image data a single fetch may return.
const DefaultMaxBytes = 20 << 20

// Fetcher downloads the photo bytes behind a single reference.
type Fetcher interface {
	// Fetch resolves ref and returns the raw image bytes.
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Options configures a Resolver and the fetchers behind it.
type Options struct {
	HTTP     HTTPOptions
	FTP      FTPOptions
	MaxBytes int64 // per-photo cap, DefaultMaxBytes when zero
}

// Resolver routes photo references to the fetcher that can serve them.
type Resolver struct {
	http     *HTTPFetcher
	ftp      *FTPFetcher
	maxBytes int64
}

// NewResolver creates a Resolver with the given options. The resolver-level
// size cap is pushed down to the HTTP and FTP fetchers unless they carry
// their own.
func NewResolver(opts Options) *Resolver {
	if opts.MaxBytes == 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.HTTP.MaxBytes == 0 {
		opts.HTTP.MaxBytes = opts.MaxBytes
	}
	if opts.FTP.MaxBytes == 0 {
		opts.FTP.MaxBytes = opts.MaxBytes
	}
	return &Resolver{
		http:     NewHTTPFetcher(opts.HTTP),
		ftp:      NewFTPFetcher(opts.FTP),
		maxBytes: opts.MaxBytes,
	}
}

// Fetch dispatches ref by scheme. Bare paths and file URLs read from the
// local filesystem.
func (r *Resolver) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return nil, eris.Wrapf(err, "parse reference %s", ref)
	}

	switch u.Scheme {
	case "http", "https":
		return r.http.Fetch(ctx, ref)
	case "ftp":
		return r.ftp.Fetch(ctx, ref)
	case "file":
		return r.readFile(u.Path)
	default:
		return r.readFile(ref)
	}
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "stat %s", path)
	}
	if info.Size() > r.maxBytes {
		return nil, eris.Errorf("%s is %d bytes, cap is %d", path, info.Size(), r.maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return data, nil
}

// readCapped reads r in full, failing once more than limit bytes arrive.
func readCapped(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	if int64(len(data)) > limit {
		return nil, eris.Errorf("body exceeds %d byte cap", limit)
	}
	return data, nil
}
