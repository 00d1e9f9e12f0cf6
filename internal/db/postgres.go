// This file contains the Postgres adapter (pgx). The production catalog is
// SQL Server, but environments without it (local development, integration
// tests) run the same pipeline against Postgres; the catalog layer picks
// query forms per dialect. The adapter mirrors the SQL Server one and stays
// testable through the pgConnLike seam.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgConnLike defines the minimal subset of methods used from *pgx.Conn,
// allowing a test double in hermetic unit tests.
type pgConnLike interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

type pgDB struct{ conn pgConnLike }

// NewPostgres connects via pgx and wraps the connection. Callers are
// responsible for closing it via Close.
func NewPostgres(ctx context.Context, dsn string) (DB, error) {
	c, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &pgDB{conn: c}, nil
}

// pgMarker produces Postgres ordinal placeholders: $1, $2, ...
func pgMarker(i int) string { return fmt.Sprintf("$%d", i) }

// Query executes q and materializes every row as a Row map.
func (p *pgDB) Query(ctx context.Context, q string, args ...any) ([]Row, error) {
	rows, err := p.conn.Query(ctx, expandPlaceholders(q, pgMarker), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(vals))
		for i, fd := range rows.FieldDescriptions() {
			row[fd.Name] = stringifyPgValue(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// QueryColumn executes q and returns the first column of every row.
func (p *pgDB) QueryColumn(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := p.conn.Query(ctx, expandPlaceholders(q, pgMarker), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		if len(vals) == 0 {
			continue
		}
		out = append(out, stringifyPgValue(vals[0]))
	}
	return out, rows.Err()
}

// Exec executes q and returns the affected row count.
func (p *pgDB) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	tag, err := p.conn.Exec(ctx, expandPlaceholders(q, pgMarker), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// BeginTx starts a transaction and returns a pgTx wrapper.
func (p *pgDB) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

// Close closes the underlying connection.
func (p *pgDB) Close(ctx context.Context) error { return p.conn.Close(ctx) }

type pgTx struct{ tx pgx.Tx }

// InsertAll executes stmt (rewritten to $N markers) once per row inside the
// transaction. pgx prepares and caches the statement on first use.
func (t *pgTx) InsertAll(ctx context.Context, stmt string, rows [][]any) (int64, error) {
	expanded := expandPlaceholders(stmt, pgMarker)
	var inserted int64
	for _, row := range rows {
		if _, err := t.tx.Exec(ctx, expanded, row...); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// Commit commits the active transaction.
func (t *pgTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

// Rollback aborts the active transaction.
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// stringifyPgValue renders a pgx-decoded value the way the Row contract
// expects: NULL as "", bytes and strings verbatim, everything else via Sprint.
func stringifyPgValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// newPgDBForTest wraps a fake pgConnLike as a DB.
func newPgDBForTest(conn pgConnLike) *pgDB { return &pgDB{conn: conn} }
