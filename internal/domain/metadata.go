package domain

import (
	"strings"
	"time"
)

// Category classifies a reference-load script by its trailing name token.
type Category string

const (
	CategoryLoad       Category = "Load"
	CategoryValidation Category = "Validation"
	CategoryRecon      Category = "Recon"
	CategoryConversion Category = "Conversion"
)

// FileMetadata is the canonical identity of an uploaded file, derived
// entirely from its name. Immutable once produced by the filename parser.
type FileMetadata struct {
	Pillar          string
	DataEntity      string
	MockNumber      string
	Source          string
	FileNameStem    string // name minus trailing timestamp/category tokens; doubles as table name
	CreatedDateTime time.Time
	Category        Category // reference-load scripts only
}

// IsZero reports whether the metadata carries no parsed identity at all.
func (m FileMetadata) IsZero() bool {
	return m.Pillar == "" && m.DataEntity == "" && m.MockNumber == "" && m.Source == ""
}

// TableName returns the catalog table the file maps onto.
func (m FileMetadata) TableName() string { return m.FileNameStem }

// CreatedDisplay renders the parsed timestamp the way the tag ledger
// records it: MM/DD/YYYY hh:mm am.
func (m FileMetadata) CreatedDisplay() string {
	if m.CreatedDateTime.IsZero() {
		return ""
	}
	return strings.ToLower(m.CreatedDateTime.Format("01/02/2006 03:04 PM"))
}

// ValidationResult is the outcome of a reference-catalog lookup: the first
// matching row's fields keyed by column name, or empty when nothing matched.
type ValidationResult map[string]string

// Found reports whether the lookup matched a catalog row.
func (v ValidationResult) Found() bool { return len(v) > 0 }

// Field returns a column value with case-insensitive key lookup; catalog
// drivers disagree on identifier casing.
func (v ValidationResult) Field(name string) string {
	if s, ok := v[name]; ok {
		return s
	}
	for k, s := range v {
		if strings.EqualFold(k, name) {
			return s
		}
	}
	return ""
}
