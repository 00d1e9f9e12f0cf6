// Package filename tokenizes upload file names into canonical metadata.
// Two naming conventions exist:
//
//	data file:   {Pillar}_{DataEntity...}_{MockNumber}_{Source}_{YYYYMMDD}_{HHMM}.{ext}
//	load script: {Pillar}_{DataEntity...}_{MOCKn}_{Source}_{Category}.sql
//
// DataEntity may itself contain the underscore delimiter, so it is always
// recovered as "everything between Pillar and the trailing fixed tokens".
// Both parsers are total: any malformed input yields (zero, false), never a
// partially populated result.
package filename

import (
	"strings"
	"time"

	"conversionloader/internal/domain"
)

const (
	delimiter    = "_"
	scriptSuffix = ".sql"
	mockPrefix   = "MOCK"
)

// categories maps the upper-cased trailing token of a load script to its
// canonical category. Any other value is a parse failure.
var categories = map[string]domain.Category{
	"LOAD":       domain.CategoryLoad,
	"VALIDATION": domain.CategoryValidation,
	"RECON":      domain.CategoryRecon,
	"CONVERSION": domain.CategoryConversion,
}

// Parse tokenizes a data-file name. The four trailing tokens are mock
// number, source, date and time; DataEntity is everything in between,
// rejoined with the delimiter.
func Parse(name string) (domain.FileMetadata, bool) {
	stem := trimExt(name)
	parts := strings.Split(stem, delimiter)
	if len(parts) < 6 {
		return domain.FileMetadata{}, false
	}

	dateStr := parts[len(parts)-2]
	timeStr := parts[len(parts)-1]
	if len(dateStr) != 8 || len(timeStr) != 4 {
		return domain.FileMetadata{}, false
	}
	created, err := time.Parse("20060102 1504", dateStr+" "+timeStr)
	if err != nil {
		return domain.FileMetadata{}, false
	}

	return domain.FileMetadata{
		Pillar:          parts[0],
		DataEntity:      strings.Join(parts[1:len(parts)-4], delimiter),
		MockNumber:      parts[len(parts)-4],
		Source:          parts[len(parts)-3],
		FileNameStem:    strings.Join(parts[:len(parts)-2], delimiter),
		CreatedDateTime: created,
	}, true
}

// ParseScript tokenizes a reference-load script name. The trailing token is
// the category; the mock number is found by scanning backward from the
// category for a token with the MOCK prefix, and the source is the token
// immediately after it.
func ParseScript(name string) (domain.FileMetadata, bool) {
	if !strings.HasSuffix(name, scriptSuffix) {
		return domain.FileMetadata{}, false
	}
	stem := trimExt(name)
	parts := strings.Split(stem, delimiter)
	if len(parts) < 4 {
		return domain.FileMetadata{}, false
	}

	category, ok := categories[strings.ToUpper(parts[len(parts)-1])]
	if !ok {
		return domain.FileMetadata{}, false
	}

	mockIdx := len(parts) - 2
	for mockIdx >= 0 && !strings.HasPrefix(strings.ToUpper(parts[mockIdx]), mockPrefix) {
		mockIdx--
	}
	if mockIdx < 0 {
		return domain.FileMetadata{}, false
	}

	source := ""
	if mockIdx+1 < len(parts)-1 {
		source = parts[mockIdx+1]
	}

	return domain.FileMetadata{
		Pillar:       parts[0],
		DataEntity:   strings.Join(parts[1:mockIdx], delimiter),
		MockNumber:   strings.ToUpper(parts[mockIdx]),
		Source:       source,
		FileNameStem: strings.Join(parts[:len(parts)-1], delimiter),
		Category:     category,
	}, true
}

// trimExt drops the final extension only; dots earlier in the name are kept.
func trimExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
