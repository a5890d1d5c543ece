package manifest

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX manifest parser.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads an XLSX manifest and returns its entries.
func ReadXLSX(path string, opts XLSXOptions) ([]Entry, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "manifest: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	col := 0
	var entries []Entry
	for i, row := range sheet.Rows {
		cells := rowToStrings(row)

		if i == 0 {
			if c := refColumn(cells); c >= 0 {
				col = c
				continue
			}
		}

		if col >= len(cells) {
			continue
		}
		ref := strings.TrimSpace(cells[col])
		if ref == "" || strings.HasPrefix(ref, "#") {
			continue
		}

		entries = append(entries, Entry{Ref: ref, Line: i + 1})
	}

	return entries, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("manifest: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("manifest: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
