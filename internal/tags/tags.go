// Package tags models the object-store tag set that serves as the only
// durable processing ledger for a file. There is no separate job-status
// store: every component that can fail appends to the "Errors and Warnings"
// tag, and the relocation boundary inspects it to pick a destination.
package tags

import (
	"sort"
	"strings"
	"unicode/utf8"

	"conversionloader/internal/domain"
)

// Canonical tag keys.
const (
	KeyPillar         = "Pillar"
	KeyDataEntity     = "Data Entity"
	KeyMockNumber     = "Mock Number"
	KeySource         = "Source"
	KeyFileName       = "File Name"
	KeyTableName      = "Table Name"
	KeyFileCategory   = "File Category"
	KeyCreated        = "Created Date-Time"
	KeyErrors         = "Errors and Warnings"
	KeyParentFileName = "Parent File Name"
	KeyParentFile     = "Parent File"
	KeyBU             = "BU"
)

// warningSeparator joins successive ledger entries. The ledger is
// append-only within a file's processing lifetime: entries are concatenated,
// never replaced.
const warningSeparator = " - "

// maxTagValue is the object store's per-value limit; longer values are
// truncated with a trailing ellipsis marker.
const maxTagValue = 256

// Set is a file's tag set. Plain map semantics; callers copy with Clone
// before diverging (artifact tags vs. parent-file tags).
type Set map[string]string

// FromMetadata builds the canonical tag set written back to an uploaded
// file once its name has been parsed. Empty fields are omitted so a failed
// parse contributes no identity keys at all.
func FromMetadata(m domain.FileMetadata) Set {
	s := Set{}
	setIf := func(k, v string) {
		if v != "" {
			s[k] = v
		}
	}
	setIf(KeyPillar, m.Pillar)
	setIf(KeyDataEntity, m.DataEntity)
	setIf(KeyMockNumber, m.MockNumber)
	setIf(KeySource, m.Source)
	setIf(KeyFileName, m.FileNameStem)
	setIf(KeyCreated, m.CreatedDisplay())
	setIf(KeyFileCategory, string(m.Category))
	return s
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// AppendWarning appends phrase to the Errors and Warnings ledger, creating
// the tag when absent and concatenating with the separator otherwise.
func (s Set) AppendWarning(phrase string) {
	if cur := s[KeyErrors]; cur != "" {
		s[KeyErrors] = cur + warningSeparator + phrase
	} else {
		s[KeyErrors] = phrase
	}
}

// HasFailure reports whether the ledger records at least one failed step.
// Pass markers ("File Expected Validation: Pass") do not count.
func (s Set) HasFailure() bool {
	return strings.Contains(s[KeyErrors], "Fail")
}

// Clamped returns a copy with every value truncated to the store's tag
// value limit. Applied at the store boundary only, so in-process values
// keep their full text.
func (s Set) Clamped() Set {
	out := make(Set, len(s))
	for k, v := range s {
		if len(v) > maxTagValue {
			cut := maxTagValue - 3
			// Back up to a rune boundary so the cut never yields invalid UTF-8.
			for cut > 0 && !utf8.RuneStart(v[cut]) {
				cut--
			}
			v = v[:cut] + "..."
		}
		out[k] = v
	}
	return out
}

// SortedKeys returns the tag keys in lexical order for deterministic
// artifact rendering and logging.
func (s Set) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
