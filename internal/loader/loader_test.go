package loader

import (
	"context"
	"errors"
	"testing"

	"conversionloader/internal/db"
)

// fakeTx records the bulk-load calls the loader makes.
type fakeTx struct {
	stmt       string
	rows       [][]any
	insertErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) InsertAll(_ context.Context, stmt string, rows [][]any) (int64, error) {
	t.stmt = stmt
	t.rows = rows
	if t.insertErr != nil {
		return 0, t.insertErr
	}
	return int64(len(rows)), nil
}
func (t *fakeTx) Commit(context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(context.Context) error { t.rolledBack = true; return nil }

// fakeDB hands out a single fakeTx and counts BeginTx calls.
type fakeDB struct {
	tx     *fakeTx
	begins int
}

func (d *fakeDB) Query(context.Context, string, ...any) ([]db.Row, error) { return nil, nil }
func (d *fakeDB) QueryColumn(context.Context, string, ...any) ([]string, error) {
	return nil, nil
}
func (d *fakeDB) Exec(context.Context, string, ...any) (int64, error) { return 0, nil }
func (d *fakeDB) BeginTx(context.Context) (db.Tx, error)              { d.begins++; return d.tx, nil }
func (d *fakeDB) Close(context.Context) error                         { return nil }

func TestCountPlaceholders(t *testing.T) {
	t.Parallel()

	if got := CountPlaceholders("INSERT INTO t VALUES (?, ?, ?)"); got != 3 {
		t.Fatalf("got %d, want 3", got)
	}
	if got := CountPlaceholders("SELECT 1"); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	// Literal counting is the contract, even inside quotes.
	if got := CountPlaceholders("INSERT INTO t VALUES ('?', ?)"); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
}

// TestLoad_Success commits one transaction carrying every row.
func TestLoad_Success(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	database := &fakeDB{tx: tx}
	rows := [][]string{{"1", "Alpha"}, {"2", "Beta"}}

	if err := Load(context.Background(), database, "INSERT INTO t VALUES (?, ?)", rows); err != nil {
		t.Fatal(err)
	}
	if database.begins != 1 || !tx.committed || tx.rolledBack {
		t.Fatalf("begins=%d committed=%v rolledBack=%v", database.begins, tx.committed, tx.rolledBack)
	}
	if len(tx.rows) != 2 || tx.rows[1][1] != "Beta" {
		t.Fatalf("rows = %v", tx.rows)
	}
}

// TestLoad_ParamCountMismatch must fail before any transaction starts.
func TestLoad_ParamCountMismatch(t *testing.T) {
	t.Parallel()

	database := &fakeDB{tx: &fakeTx{}}
	err := Load(context.Background(), database, "INSERT INTO t VALUES (?, ?)", [][]string{{"1", "2", "3"}})

	var pce *ParamCountError
	if !errors.As(err, &pce) {
		t.Fatalf("want ParamCountError, got %v", err)
	}
	if pce.Expected != 2 || pce.Provided != 3 {
		t.Fatalf("counts = %+v", pce)
	}
	if database.begins != 0 {
		t.Fatal("no transaction may start on a parameter mismatch")
	}
}

// TestLoad_InsertErrorRollsBack preserves the driver error and rolls back.
func TestLoad_InsertErrorRollsBack(t *testing.T) {
	t.Parallel()

	driverErr := errors.New("Violation of PRIMARY KEY constraint")
	tx := &fakeTx{insertErr: driverErr}
	database := &fakeDB{tx: tx}

	err := Load(context.Background(), database, "INSERT INTO t VALUES (?)", [][]string{{"1"}})
	if !errors.Is(err, driverErr) {
		t.Fatalf("driver error must flow through intact, got %v", err)
	}
	if !tx.rolledBack || tx.committed {
		t.Fatalf("rolledBack=%v committed=%v", tx.rolledBack, tx.committed)
	}
}

// TestLoad_EmptyRowsNoOp performs no database work at all.
func TestLoad_EmptyRowsNoOp(t *testing.T) {
	t.Parallel()

	database := &fakeDB{tx: &fakeTx{}}
	if err := Load(context.Background(), database, "INSERT INTO t VALUES (?)", nil); err != nil {
		t.Fatal(err)
	}
	if database.begins != 0 {
		t.Fatal("empty row set must not open a transaction")
	}
}
