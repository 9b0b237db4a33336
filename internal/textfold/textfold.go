// Package textfold normalizes text for case-insensitive search.
//
// Searchable columns are stored folded and search terms are folded the same
// way before matching. Nothing relies on the database's LOWER, which SQLite
// only applies to ASCII letters.
package textfold

import (
	"strings"

	"golang.org/x/text/cases"
)

// Separator joins several fields into one search column. It cannot be typed
// into a search box, so a term never matches across a field boundary.
const Separator = "\x1f"

// Fold returns s in its search form, using full Unicode case folding.
// A Caser is not safe for concurrent use, so each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Key folds fields into a single search column value.
func Key(fields ...string) string {
	return Fold(strings.Join(fields, Separator))
}
