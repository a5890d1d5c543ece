package manifest

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV manifest parser.
type CSVOptions struct {
	Delimiter rune // default ','
	Comment   rune // default '#'
}

// StreamCSV parses r as a manifest and sends entries to a channel.
// Caller must consume the entry channel. Both channels are closed when
// parsing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan Entry, <-chan error) {
	entryCh := make(chan Entry, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(entryCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.Comment = '#'
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.FieldsPerRecord = -1 // allow variable fields

		col := 0
		line := 0
		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "manifest: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "manifest: read row")
				return
			}
			line++

			if first {
				first = false
				if c := refColumn(record); c >= 0 {
					col = c
					continue
				}
			}

			if col >= len(record) {
				continue
			}
			ref := strings.TrimSpace(record[col])
			if ref == "" {
				continue
			}

			select {
			case entryCh <- Entry{Ref: ref, Line: line}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "manifest: context cancelled")
				return
			}
		}
	}()

	return entryCh, errCh
}
