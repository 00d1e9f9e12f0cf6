// Package loader executes a reference-load statement against the full row
// set of a conversion file. The statement's `?` placeholder count must
// agree with the first row's field count before any insert is attempted; a
// mismatch is fatal and non-retryable for that file. The insert itself is
// all-or-nothing: one transaction, committed only when every row executed.
package loader

import (
	"context"
	"fmt"
	"strings"

	"conversionloader/internal/db"
)

// ParamCountError reports a placeholder/field-count disagreement. It is
// detected before the first insert call.
type ParamCountError struct {
	Expected int // placeholders in the load statement
	Provided int // fields in the first row
}

func (e *ParamCountError) Error() string {
	return fmt.Sprintf("load statement expects %d parameters, file rows carry %d", e.Expected, e.Provided)
}

// CountPlaceholders counts `?` ordinal markers in a load statement. The
// count is deliberately literal (no quote awareness) because the adapter
// placeholder rewrite uses the same rule.
func CountPlaceholders(stmt string) int {
	return strings.Count(stmt, "?")
}

// Load runs stmt once per row inside a single transaction. Rows are string
// fields straight from the CSV reader; the database drivers handle
// conversion. An empty row set is a no-op. Any execution error rolls the
// transaction back and is returned with the driver's text intact so the
// quarantine artifact can embed it.
func Load(ctx context.Context, database db.DB, stmt string, rows [][]string) error {
	stmt = strings.TrimSpace(stmt)
	if len(rows) == 0 {
		return nil
	}

	expected := CountPlaceholders(stmt)
	provided := len(rows[0])
	if expected != provided {
		return &ParamCountError{Expected: expected, Provided: provided}
	}

	tx, err := database.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin load transaction: %w", err)
	}

	args := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, f := range row {
			vals[j] = f
		}
		args[i] = vals
	}

	if _, err := tx.InsertAll(ctx, stmt, args); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	return nil
}
