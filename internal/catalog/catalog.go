// Package catalog is the typed query layer over the reference-catalog
// database. The catalog is one SETUP_CONVERSION_PLAN_{mock} table per mock
// cycle plus a SETUP_FILE_COLUMN_NAMES_{mock} table of expected headers.
//
// Table names are interpolated from the mock number, so the mock number is
// validated against a strict identifier allow-list before it ever reaches
// query text; every other dynamic value is a bound parameter. The catalog
// is read-only from the pipeline's perspective except for MarkFileLoaded,
// the single write-back.
package catalog

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"conversionloader/internal/db"
	"conversionloader/internal/domain"
)

// Dialect selects engine-specific query forms. The production catalog is
// SQL Server; Postgres serves environments without it.
type Dialect string

const (
	DialectMSSQL    Dialect = "mssql"
	DialectPostgres Dialect = "postgres"
)

// Catalog field names surfaced to the pipeline.
const (
	FieldTableName       = "Table_Name"
	FieldSubEntity       = "SubEntity"
	FieldEntityStructure = "EntityOnFileStructure"
	FieldFileExpected    = "File_Expected"
)

// mockNumberRe is the identifier allow-list for table-name interpolation.
var mockNumberRe = regexp.MustCompile(`^(?i)MOCK[0-9]+$`)

// ErrBadMockNumber is returned when a mock number fails the allow-list and
// therefore cannot be interpolated into a table name.
var ErrBadMockNumber = fmt.Errorf("mock number not in MOCK<n> form")

// Catalog issues reference-catalog queries through a db.DB.
type Catalog struct {
	db      db.DB
	dialect Dialect
}

// New wraps database. An unknown dialect falls back to the SQL Server forms.
func New(database db.DB, dialect Dialect) *Catalog {
	return &Catalog{db: database, dialect: dialect}
}

// planTable returns the per-mock conversion plan table name, enforcing the
// mock-number allow-list.
func planTable(mock string) (string, error) {
	if !mockNumberRe.MatchString(mock) {
		return "", fmt.Errorf("%w: %q", ErrBadMockNumber, mock)
	}
	return "SETUP_CONVERSION_PLAN_" + strings.ToUpper(mock), nil
}

// columnsTable returns the per-mock expected-columns table name.
func columnsTable(mock string) (string, error) {
	if !mockNumberRe.MatchString(mock) {
		return "", fmt.Errorf("%w: %q", ErrBadMockNumber, mock)
	}
	return "SETUP_FILE_COLUMN_NAMES_" + strings.ToUpper(mock), nil
}

// Validate looks up the catalog row matching the parsed metadata. Load
// category scripts match on table_name with a non-null entity-on-file
// marker; every other category (including data files, which carry none)
// matches on exact filename. Only the first row is used; the catalog
// defines no tie-break for ambiguous data.
func (c *Catalog) Validate(ctx context.Context, meta domain.FileMetadata) (domain.ValidationResult, error) {
	if meta.FileNameStem == "" {
		return nil, fmt.Errorf("metadata carries no file name stem")
	}
	table, err := planTable(meta.MockNumber)
	if err != nil {
		return nil, err
	}

	var q string
	if meta.Category == domain.CategoryLoad {
		q = fmt.Sprintf("SELECT * FROM %s WHERE table_name = ? AND EntityOnFileStructure IS NOT NULL", table)
	} else {
		q = fmt.Sprintf("SELECT * FROM %s WHERE filename = ?", table)
	}

	rows, err := c.db.Query(ctx, q, meta.FileNameStem)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	result := make(domain.ValidationResult, len(rows[0]))
	for k, v := range rows[0] {
		result[k] = v
	}
	return result, nil
}

// ExpectedColumns returns the ordered header list the catalog expects for
// table. The column titles are stored as one comma-joined line per table.
func (c *Catalog) ExpectedColumns(ctx context.Context, mock, table string) ([]string, error) {
	colTable, err := columnsTable(mock)
	if err != nil {
		return nil, err
	}

	var q string
	switch c.dialect {
	case DialectPostgres:
		q = fmt.Sprintf("SELECT unnest(string_to_array(columntitleline, ',')) AS columntitle FROM %s WHERE table_name = ?", colTable)
	default:
		q = fmt.Sprintf("SELECT value AS ColumnTitle FROM %s CROSS APPLY STRING_SPLIT(columntitleline, ',') WHERE Table_name = ?", colTable)
	}
	return c.db.QueryColumn(ctx, q, table)
}

// SplitField returns the configured BU split key column for table, or ""
// when no split key is configured (splitting is then skipped, not an error).
func (c *Catalog) SplitField(ctx context.Context, mock, table string) (string, error) {
	planTbl, err := planTable(mock)
	if err != nil {
		return "", err
	}

	var q string
	switch c.dialect {
	case DialectPostgres:
		q = fmt.Sprintf("SELECT extractefieldbu FROM %s WHERE table_name = ? LIMIT 1", planTbl)
	default:
		q = fmt.Sprintf("SELECT TOP 1 extractefieldbu FROM %s WHERE table_name = ?", planTbl)
	}
	vals, err := c.db.QueryColumn(ctx, q, table)
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", nil
	}
	return strings.TrimSpace(vals[0]), nil
}

// MarkFileLoaded flips the catalog's file_expected flag to "No" after a
// successful conversion load. This is the pipeline's only catalog write.
func (c *Catalog) MarkFileLoaded(ctx context.Context, mock, table string) error {
	planTbl, err := planTable(mock)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(ctx, fmt.Sprintf("UPDATE %s SET file_expected = 'No' WHERE table_name = ?", planTbl), table)
	return err
}
