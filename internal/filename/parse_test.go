package filename

import (
	"testing"
	"time"

	"conversionloader/internal/domain"
)

// TestParse_DataFile covers the canonical convention plus a multi-token
// data entity, which must be rejoined with the delimiter.
func TestParse_DataFile(t *testing.T) {
	t.Parallel()

	type tc struct {
		name   string
		in     string
		ok     bool
		pillar string
		entity string
		mock   string
		source string
		stem   string
	}
	cases := []tc{
		{
			name: "simple", in: "FIN_AP_MOCK1_SAP_20240115_0930.csv", ok: true,
			pillar: "FIN", entity: "AP", mock: "MOCK1", source: "SAP",
			stem: "FIN_AP_MOCK1_SAP",
		},
		{
			name: "multi token entity", in: "HR_JOB_CODES_MOCK2_WD_20231201_1745.csv", ok: true,
			pillar: "HR", entity: "JOB_CODES", mock: "MOCK2", source: "WD",
			stem: "HR_JOB_CODES_MOCK2_WD",
		},
		{name: "too few tokens", in: "FIN_AP_MOCK1_SAP_20240115.csv"},
		{name: "bad date length", in: "FIN_AP_MOCK1_SAP_2024011_0930.csv"},
		{name: "bad time length", in: "FIN_AP_MOCK1_SAP_20240115_093.csv"},
		{name: "month out of range", in: "FIN_AP_MOCK1_SAP_20241315_0930.csv"},
		{name: "non numeric time", in: "FIN_AP_MOCK1_SAP_20240115_09xx.csv"},
		{name: "empty", in: ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			meta, ok := Parse(c.in)
			if ok != c.ok {
				t.Fatalf("Parse(%q) ok = %v, want %v", c.in, ok, c.ok)
			}
			if !c.ok {
				if !meta.IsZero() {
					t.Fatalf("failed parse must yield zero metadata, got %+v", meta)
				}
				return
			}
			if meta.Pillar != c.pillar || meta.DataEntity != c.entity || meta.MockNumber != c.mock || meta.Source != c.source {
				t.Fatalf("Parse(%q) = %+v", c.in, meta)
			}
			if meta.FileNameStem != c.stem {
				t.Fatalf("stem = %q, want %q", meta.FileNameStem, c.stem)
			}
		})
	}
}

// TestParse_CreatedDateTime pins the date/time token interpretation.
func TestParse_CreatedDateTime(t *testing.T) {
	t.Parallel()

	meta, ok := Parse("FIN_AP_MOCK1_SAP_20240115_0930.csv")
	if !ok {
		t.Fatal("parse failed")
	}
	want := time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC)
	if !meta.CreatedDateTime.Equal(want) {
		t.Fatalf("created = %v, want %v", meta.CreatedDateTime, want)
	}
}

// TestParseScript walks the script convention: trailing category token,
// backward scan for the MOCK token, source immediately after it.
func TestParseScript(t *testing.T) {
	t.Parallel()

	type tc struct {
		name     string
		in       string
		ok       bool
		entity   string
		mock     string
		source   string
		category domain.Category
		stem     string
	}
	cases := []tc{
		{
			name: "load script", in: "FIN_AP_MOCK1_SAP_Load.sql", ok: true,
			entity: "AP", mock: "MOCK1", source: "SAP",
			category: domain.CategoryLoad, stem: "FIN_AP_MOCK1_SAP",
		},
		{
			name: "lowercase mock and category", in: "FIN_AP_mock3_SAP_validation.sql", ok: true,
			entity: "AP", mock: "MOCK3", source: "SAP",
			category: domain.CategoryValidation, stem: "FIN_AP_mock3_SAP",
		},
		{
			name: "no source between mock and category", in: "FIN_AP_MOCK1_Recon.sql", ok: true,
			entity: "AP", mock: "MOCK1", source: "",
			category: domain.CategoryRecon, stem: "FIN_AP_MOCK1",
		},
		{
			name: "multi token entity", in: "HR_JOB_CODES_MOCK2_WD_Conversion.sql", ok: true,
			entity: "JOB_CODES", mock: "MOCK2", source: "WD",
			category: domain.CategoryConversion, stem: "HR_JOB_CODES_MOCK2_WD",
		},
		{name: "not sql", in: "FIN_AP_MOCK1_SAP_Load.csv"},
		{name: "unknown category", in: "FIN_AP_MOCK1_SAP_Cleanup.sql"},
		{name: "no mock token", in: "FIN_AP_SAP_Load.sql"},
		{name: "too few tokens", in: "FIN_AP_Load.sql"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			meta, ok := ParseScript(c.in)
			if ok != c.ok {
				t.Fatalf("ParseScript(%q) ok = %v, want %v", c.in, ok, c.ok)
			}
			if !c.ok {
				return
			}
			if meta.DataEntity != c.entity || meta.MockNumber != c.mock || meta.Source != c.source {
				t.Fatalf("ParseScript(%q) = %+v", c.in, meta)
			}
			if meta.Category != c.category {
				t.Fatalf("category = %q, want %q", meta.Category, c.category)
			}
			if meta.FileNameStem != c.stem {
				t.Fatalf("stem = %q, want %q", meta.FileNameStem, c.stem)
			}
		})
	}
}
