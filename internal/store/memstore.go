package store

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/wavefn/internal/ir"
)

// MemStore is an in-memory Backend with the same semantics as Store.
// Transactions stage their writes and apply them under one lock on Commit.
// All reads return copies, so callers never alias stored payloads.
type MemStore struct {
	writer chan struct{} // one open Tx at a time

	mu      sync.RWMutex
	records map[ir.RecordID]ir.WaveFunction
	events  []ir.Event
	closed  bool
}

var _ Backend = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		writer:  make(chan struct{}, 1),
		records: make(map[ir.RecordID]ir.WaveFunction),
	}
}

// Begin opens the write transaction, waiting for any open one to finish.
func (m *MemStore) Begin(ctx context.Context) (Tx, error) {
	// A free writer slot and a done ctx can both be ready; ctx wins.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	select {
	case m.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	m.mu.RLock()
	closed := m.closed
	base := int64(len(m.events))
	m.mu.RUnlock()
	if closed {
		<-m.writer
		return nil, ErrClosed
	}

	return &memTx{
		store:   m,
		staged:  make(map[ir.RecordID]ir.WaveFunction),
		baseSeq: base,
	}, nil
}

// Get returns a copy of the committed record at id.
func (m *MemStore) Get(_ context.Context, id ir.RecordID) (ir.WaveFunction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ir.WaveFunction{}, ErrClosed
	}
	rec, ok := m.records[id]
	if !ok {
		return ir.WaveFunction{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// Count returns the number of committed records.
func (m *MemStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrClosed
	}
	return len(m.records), nil
}

// ReadEvents returns copies of committed events with seq > afterSeq.
func (m *MemStore) ReadEvents(_ context.Context, afterSeq int64) ([]ir.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	events := []ir.Event{}
	for _, ev := range m.events {
		if ev.Seq > afterSeq {
			events = append(events, copyEvent(ev))
		}
	}
	return events, nil
}

// ForEachRecord calls fn for every committed record, ordered by id.
// fn sees a snapshot taken before the first call.
func (m *MemStore) ForEachRecord(_ context.Context, fn func(id ir.RecordID, rec ir.WaveFunction) error) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrClosed
	}
	ids := make([]ir.RecordID, 0, len(m.records))
	snapshot := make(map[ir.RecordID]ir.WaveFunction, len(m.records))
	for id, rec := range m.records {
		ids = append(ids, id)
		snapshot[id] = rec.Clone()
	}
	m.mu.RUnlock()

	// Hex strings of equal width sort the same as the raw bytes.
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	for _, id := range ids {
		if err := fn(id, snapshot[id]); err != nil {
			return err
		}
	}
	return nil
}

// Close marks the store closed. Later calls return ErrClosed.
func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// memTx is the MemStore Tx.
type memTx struct {
	store   *MemStore
	staged  map[ir.RecordID]ir.WaveFunction
	events  []ir.Event
	baseSeq int64
	done    bool
}

func (t *memTx) Get(ctx context.Context, id ir.RecordID) (ir.WaveFunction, error) {
	if t.done {
		return ir.WaveFunction{}, ErrTxDone
	}
	if rec, ok := t.staged[id]; ok {
		return rec.Clone(), nil
	}
	return t.store.Get(ctx, id)
}

func (t *memTx) Insert(_ context.Context, id ir.RecordID, rec ir.WaveFunction) error {
	if t.done {
		return ErrTxDone
	}
	t.staged[id] = rec.Clone()
	return nil
}

func (t *memTx) AppendEvent(_ context.Context, ev ir.Event) (int64, error) {
	if t.done {
		return 0, ErrTxDone
	}
	ev = copyEvent(ev)
	ev.Seq = t.baseSeq + int64(len(t.events)) + 1
	t.events = append(t.events, ev)
	return ev.Seq, nil
}

func (t *memTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer func() { <-t.store.writer }()

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.store.closed {
		return ErrClosed
	}
	for id, rec := range t.staged {
		t.store.records[id] = rec
	}
	t.store.events = append(t.store.events, t.events...)
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	<-t.store.writer
	return nil
}

func copyEvent(ev ir.Event) ir.Event {
	fn := make([]byte, len(ev.Function))
	copy(fn, ev.Function)
	ev.Function = fn
	return ev
}
