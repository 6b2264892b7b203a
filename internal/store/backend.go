package store

import (
	"context"
	"errors"

	"github.com/roach88/wavefn/internal/ir"
)

// ErrNotFound is returned when no record is stored at the requested id.
var ErrNotFound = errors.New("record not found")

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction already committed or rolled back")

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("store closed")

// Backend is a record map plus event journal.
type Backend interface {
	// Begin opens the single write transaction. It blocks while another
	// transaction is open, or until ctx is done.
	Begin(ctx context.Context) (Tx, error)

	// Get returns the committed record at id, or ErrNotFound.
	Get(ctx context.Context, id ir.RecordID) (ir.WaveFunction, error)

	// Count returns the number of committed records.
	Count(ctx context.Context) (int, error)

	// ReadEvents returns committed events with seq > afterSeq, ordered by seq.
	ReadEvents(ctx context.Context, afterSeq int64) ([]ir.Event, error)

	// ForEachRecord calls fn for every committed record, ordered by id.
	// Iteration stops at the first error fn returns.
	ForEachRecord(ctx context.Context, fn func(id ir.RecordID, rec ir.WaveFunction) error) error

	// Close releases the backend.
	Close() error
}

// Tx is one atomic unit of writes.
// Tx satisfies registry.Records.
type Tx interface {
	// Get returns the record at id as seen by this transaction.
	Get(ctx context.Context, id ir.RecordID) (ir.WaveFunction, error)

	// Insert stores rec at id, replacing any existing entry.
	Insert(ctx context.Context, id ir.RecordID, rec ir.WaveFunction) error

	// AppendEvent journals ev and returns its assigned seq.
	// The event's own Seq field is ignored.
	AppendEvent(ctx context.Context, ev ir.Event) (int64, error)

	// Commit makes every write of the transaction visible.
	Commit() error

	// Rollback discards every write. It is a no-op after Commit.
	Rollback() error
}
