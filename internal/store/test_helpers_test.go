package store

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wavefn/internal/ir"
)

var (
	authorA = ir.AccountID(bytes.Repeat([]byte{0xaa}, ir.IDSize))
	authorB = ir.AccountID(bytes.Repeat([]byte{0xbb}, ir.IDSize))
)

// createTestStore creates a new file-backed SQLite store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err, "Open() failed")
	t.Cleanup(func() { s.Close() })
	return s
}

// backends returns every Backend implementation, fresh, for table-driven tests.
func backends(t *testing.T) map[string]Backend {
	t.Helper()

	pure, err := OpenWithDriver(DriverPureGo, filepath.Join(t.TempDir(), "pure.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pure.Close() })

	return map[string]Backend{
		"sqlite3": createTestStore(t),
		"sqlite":  pure,
		"memory":  NewMemStore(),
	}
}

// record builds a WaveFunction and its blake2b-256 id.
func record(fn string, author ir.AccountID) (ir.RecordID, ir.WaveFunction) {
	rec := ir.WaveFunction{Function: []byte(fn), Author: author}
	return ir.MustRecordID(ir.Blake2b256, rec), rec
}

// eventFor builds the journal entry for a stored record.
func eventFor(callID string, id ir.RecordID, rec ir.WaveFunction) ir.Event {
	return ir.NewWaveFunctionAddedEvent(callID, ir.WaveFunctionAdded{
		Function: rec.Function,
		Author:   rec.Author,
		ID:       id,
	})
}
