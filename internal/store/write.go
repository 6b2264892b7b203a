package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wavefn/internal/ir"
)

// sqlTx is the SQLite Tx.
type sqlTx struct {
	tx   *sql.Tx
	done bool
}

// Get returns the record at id as seen inside the transaction.
func (t *sqlTx) Get(ctx context.Context, id ir.RecordID) (ir.WaveFunction, error) {
	if t.done {
		return ir.WaveFunction{}, ErrTxDone
	}
	row := t.tx.QueryRowContext(ctx, `
		SELECT function, author FROM wave_functions WHERE id = ?
	`, id.String())
	return scanRecordRow(row)
}

// Insert stores rec at id.
// Uses ON CONFLICT(id) DO UPDATE: an existing entry is replaced, never rejected.
func (t *sqlTx) Insert(ctx context.Context, id ir.RecordID, rec ir.WaveFunction) error {
	if t.done {
		return ErrTxDone
	}
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO wave_functions (id, function, author)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			function = excluded.function,
			author = excluded.author
	`,
		id.String(),
		nonNil(rec.Function),
		rec.Author.String(),
	)
	if err != nil {
		return fmt.Errorf("insert wave function: %w", err)
	}
	return nil
}

// AppendEvent journals ev. The seq is the row's AUTOINCREMENT key.
func (t *sqlTx) AppendEvent(ctx context.Context, ev ir.Event) (int64, error) {
	if t.done {
		return 0, ErrTxDone
	}
	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO events (call_id, name, record_id, author, function)
		VALUES (?, ?, ?, ?, ?)
	`,
		ev.CallID,
		ev.Name,
		ev.ID.String(),
		ev.Author.String(),
		nonNil(ev.Function),
	)
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append event: last insert id: %w", err)
	}
	return seq, nil
}

// Commit commits the transaction.
func (t *sqlTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. No-op after Commit.
func (t *sqlTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// nonNil maps a nil payload to an empty one; the columns are NOT NULL.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
