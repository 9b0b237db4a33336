// Package census turns raw herd-census exports into validated animal records.
//
// The pipeline is a chain of pure stages over Table values:
// raw -> ExcludeGroups -> Project -> Impute -> Validate. Each stage returns a
// new Table and never mutates its input.
package census

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Row is one data line of a census. Position is the 1-based index of the
// line among the data rows of the original upload and survives every stage.
type Row struct {
	Position int
	Cells    []string
}

// Get returns the cell at column i, or "" when the row is short.
func (r Row) Get(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return r.Cells[i]
}

// Table is a header-driven tabular dataset.
type Table struct {
	Header []string
	Rows   []Row
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// Column returns the index of the first column whose trimmed header equals
// name, or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Record returns the row's cells keyed by header, for rejection reports.
func (t Table) Record(r Row) map[string]string {
	out := make(map[string]string, len(t.Header))
	for i, h := range t.Header {
		out[h] = r.Get(i)
	}
	return out
}

// FromMaps builds a table from records keyed by canonical field names, as
// sent by API clients. Known keys come first in canonical order; unknown keys
// follow alphabetically and are dropped later by Project.
func FromMaps(records []map[string]any) Table {
	keys := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			keys[k] = true
		}
	}
	var header []string
	for _, f := range DefaultProfile().Fields {
		if keys[f.Key] {
			header = append(header, f.Key)
			delete(keys, f.Key)
		}
	}
	extra := make([]string, 0, len(keys))
	for k := range keys {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	header = append(header, extra...)

	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		cells := make([]string, len(header))
		for j, h := range header {
			cells[j] = formatCell(rec[h])
		}
		rows = append(rows, Row{Position: i + 1, Cells: cells})
	}
	return Table{Header: header, Rows: rows}
}

func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
