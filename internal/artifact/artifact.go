// Package artifact renders the error and validation reports the pipeline
// leaves next to a quarantined file. Tabular reports are CSV; there is no
// spreadsheet dependency, and downstream tooling only needs the audit
// columns. Message reports are plain text.
package artifact

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"conversionloader/internal/header"
	"conversionloader/internal/tags"
)

// IdentityKeys are the tag keys every tag report lists, in order.
var IdentityKeys = []string{tags.KeyPillar, tags.KeyDataEntity, tags.KeyMockNumber, tags.KeySource}

// TagReport renders a message followed by a Tag Key / Tag Value table for
// the given keys. Missing tags render as "N/A".
func TagReport(message string, set tags.Set, keys []string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{message})
	_ = w.Write([]string{})
	_ = w.Write([]string{"Tag Key", "Tag Value"})
	for _, k := range keys {
		v, ok := set[k]
		if !ok || v == "" {
			v = "N/A"
		}
		_ = w.Write([]string{k, v})
	}
	w.Flush()
	return buf.Bytes()
}

// HeaderReport renders the full positional header comparison, one row per
// position, mismatches and matches alike.
func HeaderReport(results []header.Comparison) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Order Number", "CSV Header", "Database Header", "Exact Match"})
	for _, r := range results {
		exact := "False"
		if r.Exact {
			exact = "True"
		}
		_ = w.Write([]string{strconv.Itoa(r.Position), r.CSVHeader, r.DBHeader, exact})
	}
	w.Flush()
	return buf.Bytes()
}

// Message renders a plain-text artifact body.
func Message(text string) []byte {
	return []byte(text)
}
