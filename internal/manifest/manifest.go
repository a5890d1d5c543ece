// Package manifest loads batch-run manifests listing photo references.
//
// A manifest is a CSV or XLSX file with one photo reference per row: a
// local path, an http(s) URL, or an ftp URL. When the first row names a
// reference column (ref, reference, url, path, image, photo or file) it
// is treated as a header and that column is read; otherwise the first
// column is used.
package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Entry is one photo reference from a manifest.
type Entry struct {
	Ref  string
	Line int // 1-based position in the manifest, for error reporting
}

// imageExtensions are the file suffixes FromDir picks up.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Load reads the manifest at path, dispatching on the file extension.
// XLSX manifests need the .xlsx suffix; anything else parses as CSV,
// which also covers plain ref-per-line lists.
func Load(ctx context.Context, path string) ([]Entry, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, XLSXOptions{})
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: open")
	}
	defer f.Close() //nolint:errcheck

	return collect(StreamCSV(ctx, f, CSVOptions{}))
}

// FromDir lists the image files directly under dir as entries.
func FromDir(dir string) ([]Entry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: read dir")
	}

	var entries []Entry
	for _, de := range dirents {
		if de.IsDir() {
			continue
		}
		if !imageExtensions[strings.ToLower(filepath.Ext(de.Name()))] {
			continue
		}
		entries = append(entries, Entry{
			Ref:  filepath.Join(dir, de.Name()),
			Line: len(entries) + 1,
		})
	}
	return entries, nil
}

// collect drains a streaming parse into a slice.
func collect(entryCh <-chan Entry, errCh <-chan error) ([]Entry, error) {
	var entries []Entry
	for e := range entryCh {
		entries = append(entries, e)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return entries, nil
}

// refColumn returns the index of the reference column when row looks
// like a header, or -1.
func refColumn(row []string) int {
	for i, cell := range row {
		switch strings.ToLower(strings.TrimSpace(cell)) {
		case "ref", "reference", "url", "path", "image", "photo", "file":
			return i
		}
	}
	return -1
}
