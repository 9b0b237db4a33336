package census

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FormatError reports an upload that cannot be treated as a census at all.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "census format: " + e.Reason }

// Pipeline-level failures.
var (
	ErrMissingGroupColumn  = &FormatError{Reason: "the group column is missing"}
	ErrEmptyAfterExclusion = &FormatError{Reason: "no animals remain after excluding out-of-scope groups"}
)

var zipMagic = []byte("PK\x03\x04")

// ReadTable parses a CSV or XLSX upload. The format is taken from the file
// extension, falling back to content sniffing.
func ReadTable(filename string, content []byte) (Table, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return Table{}, &FormatError{Reason: "the file is empty"}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readXLSX(content)
	case ".csv", ".txt":
		return readCSV(content)
	}
	if bytes.HasPrefix(content, zipMagic) {
		return readXLSX(content)
	}
	return readCSV(content)
}

func readCSV(content []byte) (Table, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = sniffDelimiter(content)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, &FormatError{Reason: fmt.Sprintf("malformed CSV: %v", err)}
		}
		records = append(records, rec)
	}
	return tableFromRecords(records)
}

// sniffDelimiter picks ';' when the first line has more semicolons than
// commas, which is how spreadsheet tools in comma-decimal locales export CSV.
func sniffDelimiter(content []byte) rune {
	line := content
	if i := bytes.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func readXLSX(content []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return Table{}, &FormatError{Reason: fmt.Sprintf("unreadable spreadsheet: %v", err)}
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, &FormatError{Reason: "the workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, &FormatError{Reason: fmt.Sprintf("unreadable sheet %q: %v", sheets[0], err)}
	}
	return tableFromRecords(rows)
}

// tableFromRecords treats the first non-blank record as the header. Blank
// data records are dropped but still consume a position.
func tableFromRecords(records [][]string) (Table, error) {
	start := -1
	for i, rec := range records {
		if !isBlank(rec) {
			start = i
			break
		}
	}
	if start < 0 {
		return Table{}, &FormatError{Reason: "no header row found"}
	}

	header := make([]string, len(records[start]))
	for i, h := range records[start] {
		header[i] = strings.TrimSpace(h)
	}

	t := Table{Header: header}
	for i, rec := range records[start+1:] {
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, Row{Position: i + 1, Cells: rec})
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
