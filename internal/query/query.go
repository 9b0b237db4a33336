// Package query describes read-side listing requests as data. Services build
// a Spec from caller filters; Page turns it into one COUNT and one page fetch.
package query

import (
	"strings"

	"gorm.io/gorm"

	"herdsnap/internal/pagination"
	"herdsnap/internal/textfold"
)

// Predicate is one WHERE fragment with its bind arguments.
type Predicate struct {
	Clause string
	Args   []any
}

// Where builds a Predicate.
func Where(clause string, args ...any) Predicate {
	return Predicate{Clause: clause, Args: args}
}

// Sort is a resolved ORDER BY column and direction.
type Sort struct {
	Column string
	Desc   bool
}

func (s Sort) String() string {
	if s.Desc {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// Spec is a complete listing request.
type Spec struct {
	Predicates []Predicate
	Sort       Sort
	Page       pagination.PageRequest
}

// Filter appends p to the spec.
func (s *Spec) Filter(p Predicate) {
	s.Predicates = append(s.Predicates, p)
}

// SortKeys whitelists user-facing sort keys. Unknown keys fall back to
// Default so user input never reaches ORDER BY unchecked.
type SortKeys struct {
	Columns map[string]string
	Default Sort
}

// Resolve maps a sort key and order ("asc" or "desc", default asc) to a Sort.
func (k SortKeys) Resolve(sortBy, sortOrder string) Sort {
	col, ok := k.Columns[strings.TrimSpace(sortBy)]
	if !ok {
		return k.Default
	}
	return Sort{Column: col, Desc: strings.EqualFold(strings.TrimSpace(sortOrder), "desc")}
}

// Contains returns a case-insensitive substring predicate over columns,
// OR-ed together. The columns must hold textfold-ed values. LIKE wildcards in term
// are matched literally.
func Contains(term string, columns ...string) (Predicate, bool) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return Predicate{}, false
	}
	pattern := "%" + escapeLike(textfold.Fold(term)) + "%"
	parts := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		parts[i] = c + ` LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return Predicate{Clause: "(" + strings.Join(parts, " OR ") + ")", Args: args}, true
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// Page counts the rows matching spec and fetches the requested page, ordered
// by the spec's sort with id as a stable tie-breaker.
func Page[T any](db *gorm.DB, spec Spec) (pagination.PageResponse[T], error) {
	spec.Page.Defaults()

	filtered := func() *gorm.DB {
		q := db.Model(new(T))
		for _, p := range spec.Predicates {
			q = q.Where(p.Clause, p.Args...)
		}
		return q
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return pagination.PageResponse[T]{}, err
	}

	var items []T
	if total > int64(spec.Page.Offset()) {
		q := filtered()
		if spec.Sort.Column != "" {
			q = q.Order(spec.Sort.String())
		}
		if spec.Sort.Column != "id" {
			q = q.Order("id ASC")
		}
		if err := q.Scopes(pagination.Paginate(spec.Page)).Find(&items).Error; err != nil {
			return pagination.PageResponse[T]{}, err
		}
	}
	return pagination.NewPageResponse(items, spec.Page.Page, spec.Page.PageSize, total), nil
}
