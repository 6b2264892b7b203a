package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavefn/internal/ir"
)

var (
	authorA = ir.AccountID(bytes.Repeat([]byte{0xaa}, ir.IDSize))
	authorB = ir.AccountID(bytes.Repeat([]byte{0xbb}, ir.IDSize))
)

// mapRecords is a minimal Records backed by a map.
type mapRecords struct {
	m         map[ir.RecordID]ir.WaveFunction
	insertErr error
	inserts   int
}

func newMapRecords() *mapRecords {
	return &mapRecords{m: make(map[ir.RecordID]ir.WaveFunction)}
}

func (r *mapRecords) Get(_ context.Context, id ir.RecordID) (ir.WaveFunction, error) {
	rec, ok := r.m[id]
	if !ok {
		return ir.WaveFunction{}, errors.New("not found")
	}
	return rec.Clone(), nil
}

func (r *mapRecords) Insert(_ context.Context, id ir.RecordID, rec ir.WaveFunction) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserts++
	r.m[id] = rec
	return nil
}

// recordingSink captures deposits and checks the record is already stored.
type recordingSink struct {
	records *mapRecords
	events  []ir.WaveFunctionAdded
	err     error
	missing int
}

func (s *recordingSink) Deposit(_ context.Context, ev ir.WaveFunctionAdded) error {
	if s.err != nil {
		return s.err
	}
	if s.records != nil {
		if _, ok := s.records.m[ev.ID]; !ok {
			s.missing++
		}
	}
	s.events = append(s.events, ev)
	return nil
}

func newTestRegistry(t *testing.T, maxBytes uint32) (*Registry, *mapRecords, *recordingSink) {
	t.Helper()
	recs := newMapRecords()
	reg := New(recs,
		WithMaxBytes(maxBytes),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return reg, recs, &recordingSink{records: recs}
}

func TestNew_Defaults(t *testing.T) {
	reg := New(newMapRecords())
	assert.Equal(t, DefaultMaxBytes, reg.MaxBytes())
	assert.Equal(t, ir.DefaultHasher, reg.Hasher())
}

func TestNew_NilLoggerDiscards(t *testing.T) {
	reg := New(newMapRecords(), WithLogger(nil))
	_, err := reg.Submit(context.Background(), authorA, []byte("x"), &recordingSink{})
	require.NoError(t, err)
}

func TestSubmit_ConcreteScenario(t *testing.T) {
	ctx := context.Background()
	reg, recs, sink := newTestRegistry(t, 1024)

	id1, err := reg.Submit(ctx, authorA, make([]byte, 500), sink)
	require.NoError(t, err)

	stored, err := recs.Get(ctx, id1)
	require.NoError(t, err)
	assert.True(t, stored.Equal(ir.WaveFunction{Function: make([]byte, 500), Author: authorA}))
	require.Len(t, sink.events, 1)
	assert.Equal(t, ir.WaveFunctionAdded{Function: make([]byte, 500), Author: authorA, ID: id1}, sink.events[0])

	_, err = reg.Submit(ctx, authorA, make([]byte, 2000), sink)
	require.Error(t, err)
	assert.True(t, IsPayloadTooLarge(err))
	assert.Len(t, recs.m, 1)
	assert.Len(t, sink.events, 1)

	id2, err := reg.Submit(ctx, authorB, make([]byte, 500), sink)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.Len(t, recs.m, 2)
	assert.Equal(t, 0, sink.missing, "event deposited before record was stored")
}

func TestSubmit_SizeBound(t *testing.T) {
	const maxBytes = 64
	ctx := context.Background()
	reg, recs, sink := newTestRegistry(t, maxBytes)

	for n := 0; n <= maxBytes; n++ {
		fn := bytes.Repeat([]byte{byte(n)}, n)
		id, err := reg.Submit(ctx, authorA, fn, sink)
		require.NoError(t, err, "size %d", n)

		stored, err := recs.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, stored.Equal(ir.WaveFunction{Function: fn, Author: authorA}), "size %d", n)
	}
	assert.Len(t, sink.events, maxBytes+1)
}

func TestSubmit_SizeRejection(t *testing.T) {
	const maxBytes = 16
	ctx := context.Background()
	reg, recs, sink := newTestRegistry(t, maxBytes)

	_, err := reg.Submit(ctx, authorA, []byte("seed"), sink)
	require.NoError(t, err)

	for _, n := range []int{maxBytes + 1, maxBytes + 2, 4 * maxBytes, 1 << 16} {
		_, err := reg.Submit(ctx, authorA, make([]byte, n), sink)
		require.Error(t, err, "size %d", n)

		var re *Error
		require.True(t, errors.As(err, &re))
		assert.Equal(t, ErrCodePayloadTooLarge, re.Code)
		assert.Equal(t, fmt.Sprintf("%d", n), re.Details["size"])
		assert.Equal(t, "16", re.Details["max_bytes"])
	}

	assert.Len(t, recs.m, 1)
	assert.Equal(t, 1, recs.inserts)
	assert.Len(t, sink.events, 1)
}

func TestSubmit_ZeroMaxBytes(t *testing.T) {
	reg, _, sink := newTestRegistry(t, 0)

	_, err := reg.Submit(context.Background(), authorA, nil, sink)
	require.NoError(t, err)

	_, err = reg.Submit(context.Background(), authorA, []byte{0}, sink)
	assert.True(t, IsPayloadTooLarge(err))
}

func TestSubmit_Deterministic(t *testing.T) {
	ctx := context.Background()
	reg, recs, sink := newTestRegistry(t, 1024)

	fn := []byte("wave")
	id1, err := reg.Submit(ctx, authorA, fn, sink)
	require.NoError(t, err)
	id2, err := reg.Submit(ctx, authorA, fn, sink)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)

	derived, err := reg.RecordID(authorA, fn)
	require.NoError(t, err)
	assert.Equal(t, id1, derived)
	assert.Equal(t, ir.MustRecordID(ir.DefaultHasher, ir.WaveFunction{Function: fn, Author: authorA}), id1)

	// Overwrite keeps one entry but deposits a fresh event each time.
	assert.Len(t, recs.m, 1)
	assert.Equal(t, 2, recs.inserts)
	require.Len(t, sink.events, 2)
	assert.Equal(t, sink.events[0], sink.events[1])
}

func TestSubmit_AuthorSensitivity(t *testing.T) {
	ctx := context.Background()
	reg, recs, sink := newTestRegistry(t, 1024)

	idA, err := reg.Submit(ctx, authorA, []byte("shared"), sink)
	require.NoError(t, err)
	idB, err := reg.Submit(ctx, authorB, []byte("shared"), sink)
	require.NoError(t, err)

	assert.NotEqual(t, idA, idB)
	assert.Len(t, recs.m, 2)
}

func TestSubmit_HasherSelectsIDs(t *testing.T) {
	fn := []byte("hello")
	blake := New(newMapRecords(), WithHasher(ir.Blake2b256))
	sha := New(newMapRecords(), WithHasher(ir.SHA256))

	idBlake, err := blake.Submit(context.Background(), authorA, fn, &recordingSink{})
	require.NoError(t, err)
	idSHA, err := sha.Submit(context.Background(), authorA, fn, &recordingSink{})
	require.NoError(t, err)

	assert.Equal(t, "0x494123d17e2e545d843f583db7bcd37dc64c0b7ed333aef602f256c3502aced3", idBlake.String())
	assert.Equal(t, "0x4833decc795a7331f7478fa401e18243c5c43b329489f9a6e85409d8e4725ab4", idSHA.String())
}

func TestSubmit_ClonesPayload(t *testing.T) {
	ctx := context.Background()
	reg, recs, sink := newTestRegistry(t, 1024)

	fn := []byte("original")
	id, err := reg.Submit(ctx, authorA, fn, sink)
	require.NoError(t, err)

	copy(fn, "mutated!")

	stored, err := recs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), stored.Function)
	assert.Equal(t, []byte("original"), sink.events[0].Function)
}

func TestSubmit_InsertFailureSkipsDeposit(t *testing.T) {
	reg, recs, sink := newTestRegistry(t, 1024)
	recs.insertErr = errors.New("disk full")

	_, err := reg.Submit(context.Background(), authorA, []byte("x"), sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, sink.events)
}

func TestSubmit_DepositFailureReturnsError(t *testing.T) {
	reg, _, sink := newTestRegistry(t, 1024)
	sink.err = errors.New("journal closed")

	_, err := reg.Submit(context.Background(), authorA, []byte("x"), sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "journal closed")
}

func TestSubmit_NilSink(t *testing.T) {
	reg, recs, _ := newTestRegistry(t, 1024)

	_, err := reg.Submit(context.Background(), authorA, []byte("x"), nil)
	require.Error(t, err)
	assert.Empty(t, recs.m)
}

func TestSubmit_SinkFunc(t *testing.T) {
	reg, _, _ := newTestRegistry(t, 1024)

	var got []ir.RecordID
	sink := SinkFunc(func(_ context.Context, ev ir.WaveFunctionAdded) error {
		got = append(got, ev.ID)
		return nil
	})

	id, err := reg.Submit(context.Background(), authorA, []byte("x"), sink)
	require.NoError(t, err)
	assert.Equal(t, []ir.RecordID{id}, got)
}
