// This file contains the SQL Server adapter, used in production against the
// reference-catalog database. It keeps the testability seams pattern: the
// adapter depends on small core interfaces (sqlDBCore, sqlTxCore, stmtCore,
// rowsCore) that *sql.DB / *sql.Tx / *sql.Stmt / *sql.Rows satisfy via thin
// wrappers, so unit tests can inject light fakes with no sockets.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver
)

//
// =======================
//  Testability-first seams
// =======================
//

// stmtCore is the minimal subset of *sql.Stmt we use.
type stmtCore interface {
	ExecContext(ctx context.Context, args ...any) (sql.Result, error)
	Close() error
}

// rowsCore is the minimal subset of *sql.Rows we use.
type rowsCore interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// sqlTxCore is the subset of a transaction that sqlTx uses.
type sqlTxCore interface {
	PrepareContext(ctx context.Context, query string) (stmtCore, error)
	Commit() error
	Rollback() error
}

// sqlDBCore is the minimal subset of *sql.DB we use.
type sqlDBCore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (rowsCore, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (sqlTxCore, error)
	Close() error
}

//
// ============================
//  Real wrappers for production
// ============================
//

type realStmt struct{ s *sql.Stmt }

func (r realStmt) ExecContext(ctx context.Context, args ...any) (sql.Result, error) {
	return r.s.ExecContext(ctx, args...)
}
func (r realStmt) Close() error { return r.s.Close() }

type realSQLTx struct{ tx *sql.Tx }

func (r realSQLTx) PrepareContext(ctx context.Context, q string) (stmtCore, error) {
	st, err := r.tx.PrepareContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return realStmt{st}, nil
}
func (r realSQLTx) Commit() error   { return r.tx.Commit() }
func (r realSQLTx) Rollback() error { return r.tx.Rollback() }

type realSQLDB struct{ db *sql.DB }

func (r realSQLDB) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return r.db.ExecContext(ctx, q, args...)
}
func (r realSQLDB) QueryContext(ctx context.Context, q string, args ...any) (rowsCore, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
func (r realSQLDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (sqlTxCore, error) {
	tx, err := r.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return realSQLTx{tx: tx}, nil
}
func (r realSQLDB) Close() error { return r.db.Close() }

//
// ===================
//  sqlDB (DB adapter)
// ===================
//

type sqlDB struct{ db sqlDBCore }

// NewMSSQL opens a SQL Server connection with the "sqlserver" driver and
// pings to confirm connectivity.
func NewMSSQL(dsn string) (DB, error) {
	d, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return &sqlDB{db: realSQLDB{db: d}}, nil
}

// mssqlMarker produces SQL Server ordinal parameter names: @p1, @p2, ...
func mssqlMarker(i int) string { return fmt.Sprintf("@p%d", i) }

// Query executes q and materializes every row as a Row map. Values are
// scanned as nullable strings; NULL becomes the empty string.
func (s *sqlDB) Query(ctx context.Context, q string, args ...any) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, expandPlaceholders(q, mssqlMarker), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			row[c] = vals[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// QueryColumn executes q and returns the first column of every row.
func (s *sqlDB) QueryColumn(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, expandPlaceholders(q, mssqlMarker), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, vals[0].String)
	}
	return out, rows.Err()
}

// Exec forwards a statement to the underlying database.
func (s *sqlDB) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, expandPlaceholders(q, mssqlMarker), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report affected rows; the count is advisory.
		return 0, nil
	}
	return n, nil
}

// BeginTx starts a transaction and returns a Tx adapter.
func (s *sqlDB) BeginTx(ctx context.Context) (Tx, error) {
	core, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: core}, nil
}

// Close closes the underlying database connection.
func (s *sqlDB) Close(ctx context.Context) error { return s.db.Close() }

//
// ==================
//  sqlTx (Tx adapter)
// ==================
//

type sqlTx struct{ tx sqlTxCore }

// InsertAll prepares stmt once (rewriting `?` markers to @pN) and executes
// it for each row. The first row error aborts the loop; the caller decides
// whether to roll back.
func (t *sqlTx) InsertAll(ctx context.Context, stmt string, rows [][]any) (int64, error) {
	prepared, err := t.tx.PrepareContext(ctx, expandPlaceholders(stmt, mssqlMarker))
	if err != nil {
		return 0, err
	}
	defer prepared.Close()

	var inserted int64
	for _, row := range rows {
		if _, err := prepared.ExecContext(ctx, row...); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

// Commit commits the active transaction.
func (t *sqlTx) Commit(ctx context.Context) error { return t.tx.Commit() }

// Rollback aborts the active transaction.
func (t *sqlTx) Rollback(ctx context.Context) error { return t.tx.Rollback() }

//
// =======================
//  Test-only constructors
// =======================
//

// newSQLTxForTest wraps a fake sqlTxCore as a Tx.
func newSQLTxForTest(core sqlTxCore) *sqlTx { return &sqlTx{tx: core} }

// newSQLDBForTest wraps a fake sqlDBCore as a DB.
func newSQLDBForTest(core sqlDBCore) *sqlDB { return &sqlDB{db: core} }
