// Package fetcher reads the raw observation workbook, either from the local
// input directory or downloaded over FTP.
package fetcher

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Record is one data row keyed by its column header. Index is the 1-based
// workbook row number (the header is row 1, so data starts at 2).
type Record struct {
	Cells map[string]string
	Index int
}

// ReadWorkbook reads the named sheet and returns all data rows keyed by the
// header row. Cell values are kept as raw text; type coercion happens later.
func ReadWorkbook(path, sheetName string) ([]Record, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, ok := f.Sheet[sheetName]
	if !ok {
		return nil, eris.Errorf("xlsx: sheet %q not found", sheetName)
	}

	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("xlsx: sheet %q is empty", sheetName)
	}

	header := make([]string, len(sheet.Rows[0].Cells))
	for j, cell := range sheet.Rows[0].Cells {
		header[j] = strings.TrimSpace(cell.String())
	}

	records := make([]Record, 0, len(sheet.Rows)-1)
	for i, row := range sheet.Rows[1:] {
		cells := make(map[string]string, len(header))
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(row.Cells) {
				cells[name] = row.Cells[j].String()
			} else {
				cells[name] = ""
			}
		}
		records = append(records, Record{Cells: cells, Index: i + 2})
	}

	return records, nil
}

// FindInputFile globs dir for exactly one xlsx and returns its path.
func FindInputFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return "", eris.Wrap(err, "fetcher: glob input dir")
	}
	if len(matches) != 1 {
		return "", eris.Errorf("fetcher: expected exactly 1 xlsx in %s, found %d: %v", dir, len(matches), matches)
	}
	return matches[0], nil
}
