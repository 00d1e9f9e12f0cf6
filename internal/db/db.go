// Package db provides database adapter implementations for SQL Server
// (database/sql + go-mssqldb) and Postgres (pgx) behind standardized DB and
// Tx interfaces. The pipeline's catalog queries and load statements are
// written with `?` ordinal placeholders; each adapter rewrites them to its
// engine's marker style before execution.
package db

import "context"

// Row is one result row keyed by column name. NULL columns are present with
// an empty value so callers never distinguish NULL from empty string.
type Row map[string]string

// DB is a connection capable of reads, writes, and starting transactions.
type DB interface {
	// Query runs a statement and returns every row as a column-name map.
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)
	// QueryColumn runs a statement and returns the first column of every
	// row, preserving result order.
	QueryColumn(ctx context.Context, sql string, args ...any) ([]string, error)
	// Exec runs a statement and returns the number of affected rows.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)
	BeginTx(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// Tx supports the pipeline's single bulk-load shape: one prepared statement
// executed once per row, committed or rolled back as a unit.
type Tx interface {
	// InsertAll prepares stmt and executes it for every row. It returns the
	// number of rows executed before the first error, if any.
	InsertAll(ctx context.Context, stmt string, rows [][]any) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// expandPlaceholders rewrites `?` ordinal markers to engine-specific ones
// produced by marker (1-based). The scan is deliberately naive about quoted
// literals: the placeholder count contract for load scripts counts every
// `?` in the statement text, and the rewrite must agree with that count.
func expandPlaceholders(stmt string, marker func(int) string) string {
	var sb []byte
	n := 0
	for i := 0; i < len(stmt); i++ {
		if stmt[i] == '?' {
			n++
			sb = append(sb, marker(n)...)
			continue
		}
		sb = append(sb, stmt[i])
	}
	return string(sb)
}
