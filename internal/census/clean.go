package census

import "strings"

// Clean runs the full cleaning pipeline. Only a missing group column or an
// empty table after exclusion fail; every other irregularity is tolerated.
func Clean(t Table, p Profile) (Table, error) {
	excluded, err := ExcludeGroups(t, p)
	if err != nil {
		return Table{}, err
	}
	if excluded.Len() == 0 {
		return Table{}, ErrEmptyAfterExclusion
	}
	return Impute(Project(excluded, p), p), nil
}

// ExcludeGroups drops every row whose trimmed group equals one of the
// profile's excluded groups.
func ExcludeGroups(t Table, p Profile) (Table, error) {
	groupField, ok := p.field(FieldGroupName)
	if !ok {
		return Table{}, ErrMissingGroupColumn
	}
	col := p.columnFor(t, groupField)
	if col < 0 {
		return Table{}, ErrMissingGroupColumn
	}

	out := Table{Header: t.Header, Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		if p.isExcluded(strings.TrimSpace(r.Get(col))) {
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, nil
}

// Project keeps the recognized columns in profile order and renames them to
// their canonical keys. Fields absent from the source are skipped.
func Project(t Table, p Profile) Table {
	var header []string
	var cols []int
	for _, f := range p.Fields {
		if i := p.columnFor(t, f); i >= 0 {
			header = append(header, f.Key)
			cols = append(cols, i)
		}
	}

	out := Table{Header: header, Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		cells := make([]string, len(cols))
		for j, i := range cols {
			cells[j] = r.Get(i)
		}
		out.Rows = append(out.Rows, Row{Position: r.Position, Cells: cells})
	}
	return out
}

// Impute replaces blank cells with the zero-equivalent of their column:
// "0" for numbers, "" for text. It expects a projected table.
func Impute(t Table, p Profile) Table {
	kinds := make([]FieldKind, len(t.Header))
	for i, h := range t.Header {
		if f, ok := p.field(h); ok {
			kinds[i] = f.Kind
		}
	}

	out := Table{Header: t.Header, Rows: make([]Row, 0, len(t.Rows))}
	for _, r := range t.Rows {
		cells := make([]string, len(t.Header))
		for i := range cells {
			v := r.Get(i)
			if strings.TrimSpace(v) == "" {
				if kinds[i] == KindNumber {
					v = "0"
				} else {
					v = ""
				}
			}
			cells[i] = v
		}
		out.Rows = append(out.Rows, Row{Position: r.Position, Cells: cells})
	}
	return out
}
