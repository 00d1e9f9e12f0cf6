// Package header compares a file's first-row headers against the catalog's
// expected column list. The comparison is positional up to the longer of
// the two sides; a position present on only one side compares its value
// against the empty string, so length mismatches surface as ordinary
// mismatches. Every position is reported, not only mismatches, so the
// resulting report is always a complete audit trail.
package header

import "strings"

// Comparison is one positional header check. Position is 1-based.
type Comparison struct {
	Position  int
	CSVHeader string
	DBHeader  string
	Exact     bool
}

// Compare checks csvHeaders against dbHeaders position by position.
// Surrounding quote characters are stripped from both sides before
// comparison.
func Compare(csvHeaders, dbHeaders []string) []Comparison {
	n := len(csvHeaders)
	if len(dbHeaders) > n {
		n = len(dbHeaders)
	}

	out := make([]Comparison, 0, n)
	for i := 0; i < n; i++ {
		var c, d string
		if i < len(csvHeaders) {
			c = strings.Trim(csvHeaders[i], `"`)
		}
		if i < len(dbHeaders) {
			d = strings.Trim(dbHeaders[i], `"`)
		}
		out = append(out, Comparison{Position: i + 1, CSVHeader: c, DBHeader: d, Exact: c == d})
	}
	return out
}

// AnyMismatch reports whether at least one position failed the exact check.
// A single mismatch marks the whole file invalid.
func AnyMismatch(results []Comparison) bool {
	for _, r := range results {
		if !r.Exact {
			return true
		}
	}
	return false
}
