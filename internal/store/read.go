package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wavefn/internal/ir"
)

// Get retrieves a committed record by id.
// Returns ErrNotFound if no record is stored at id.
func (s *Store) Get(ctx context.Context, id ir.RecordID) (ir.WaveFunction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT function, author FROM wave_functions WHERE id = ?
	`, id.String())
	return scanRecordRow(row)
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM wave_functions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wave functions: %w", err)
	}
	return n, nil
}

// ReadEvents returns journaled events with seq > afterSeq, ordered by seq ASC.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadEvents(ctx context.Context, afterSeq int64) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, call_id, name, record_id, author, function
		FROM events
		WHERE seq > ?
		ORDER BY seq ASC
	`, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []ir.Event{}
	for rows.Next() {
		var (
			ev                 ir.Event
			recordID, authorID string
		)
		if err := rows.Scan(&ev.Seq, &ev.CallID, &ev.Name, &recordID, &authorID, &ev.Function); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.ID, err = ir.ParseRecordID(recordID); err != nil {
			return nil, fmt.Errorf("event %d: %w", ev.Seq, err)
		}
		if ev.Author, err = ir.ParseAccountID(authorID); err != nil {
			return nil, fmt.Errorf("event %d: %w", ev.Seq, err)
		}
		ev.Function = nonNil(ev.Function)
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// ForEachRecord calls fn for every stored record, ordered by id ASC.
//
// Rows are buffered before fn runs so fn may query the store.
func (s *Store) ForEachRecord(ctx context.Context, fn func(id ir.RecordID, rec ir.WaveFunction) error) error {
	type entry struct {
		id  ir.RecordID
		rec ir.WaveFunction
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, function, author FROM wave_functions ORDER BY id ASC
	`)
	if err != nil {
		return fmt.Errorf("query wave functions: %w", err)
	}

	var entries []entry
	for rows.Next() {
		var (
			idHex, authorHex string
			e                entry
		)
		if err := rows.Scan(&idHex, &e.rec.Function, &authorHex); err != nil {
			rows.Close()
			return fmt.Errorf("scan wave function: %w", err)
		}
		if e.id, err = ir.ParseRecordID(idHex); err != nil {
			rows.Close()
			return err
		}
		if e.rec.Author, err = ir.ParseAccountID(authorHex); err != nil {
			rows.Close()
			return fmt.Errorf("record %s: %w", idHex, err)
		}
		e.rec.Function = nonNil(e.rec.Function)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate wave functions: %w", err)
	}
	rows.Close()

	for _, e := range entries {
		if err := fn(e.id, e.rec); err != nil {
			return err
		}
	}
	return nil
}

// scanRecordRow scans a (function, author) row.
func scanRecordRow(row *sql.Row) (ir.WaveFunction, error) {
	var (
		rec       ir.WaveFunction
		authorHex string
	)
	if err := row.Scan(&rec.Function, &authorHex); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.WaveFunction{}, ErrNotFound
		}
		return ir.WaveFunction{}, fmt.Errorf("scan wave function: %w", err)
	}

	author, err := ir.ParseAccountID(authorHex)
	if err != nil {
		return ir.WaveFunction{}, err
	}
	rec.Author = author
	rec.Function = nonNil(rec.Function)
	return rec, nil
}
