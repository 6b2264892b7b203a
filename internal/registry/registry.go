package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/wavefn/internal/ir"
)

// DefaultMaxBytes is the payload limit used when none is configured.
const DefaultMaxBytes uint32 = 1024

// Records is the persistent map the registry writes to.
// Implemented by store transactions and by in-memory substitutes in tests.
type Records interface {
	// Get returns the record stored at id.
	Get(ctx context.Context, id ir.RecordID) (ir.WaveFunction, error)

	// Insert stores rec at id, replacing any existing entry.
	Insert(ctx context.Context, id ir.RecordID, rec ir.WaveFunction) error
}

// EventSink receives the registry's notifications.
type EventSink interface {
	Deposit(ctx context.Context, ev ir.WaveFunctionAdded) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(ctx context.Context, ev ir.WaveFunctionAdded) error

// Deposit calls f.
func (f SinkFunc) Deposit(ctx context.Context, ev ir.WaveFunctionAdded) error {
	return f(ctx, ev)
}

// Registry is the wave-function registry.
//
// A Registry holds no mutable state of its own; the record map is the
// injected Records. It is cheap to construct, so hosts typically build one
// per transaction over that transaction's view of the store.
type Registry struct {
	records  Records
	maxBytes uint32
	hasher   ir.Hasher
	logger   *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithMaxBytes sets the payload limit. Read-only after construction.
func WithMaxBytes(n uint32) Option {
	return func(r *Registry) {
		r.maxBytes = n
	}
}

// WithHasher sets the hash algorithm for record ids.
func WithHasher(h ir.Hasher) Option {
	return func(r *Registry) {
		r.hasher = h
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New creates a Registry over records.
func New(records Records, opts ...Option) *Registry {
	r := &Registry{
		records:  records,
		maxBytes: DefaultMaxBytes,
		hasher:   ir.DefaultHasher,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r.logger = r.logger.With("component", "registry")
	return r
}

// MaxBytes returns the configured payload limit.
func (r *Registry) MaxBytes() uint32 {
	return r.maxBytes
}

// Hasher returns the configured hash algorithm.
func (r *Registry) Hasher() ir.Hasher {
	return r.hasher
}

// RecordID derives the id a submission of (author, function) would be stored at.
// Pure: it reads no state and writes nothing.
func (r *Registry) RecordID(author ir.AccountID, function []byte) (ir.RecordID, error) {
	return ir.RecordIDOf(r.hasher, ir.WaveFunction{Function: function, Author: author})
}

// Submit registers function under author and returns its record id.
//
// Steps, each a precondition for the next:
//  1. reject len(function) > max bytes with ErrPayloadTooLarge
//  2. clone payload and author into a candidate record
//  3. derive the id from the candidate's full content
//  4. insert the candidate at id, overwriting any equal record
//  5. deposit WaveFunctionAdded(function, author, id) to sink
//
// Steps 1-3 are pure. Re-submitting an identical pair yields the same id,
// rewrites the same value, and deposits a fresh notification.
func (r *Registry) Submit(ctx context.Context, author ir.AccountID, function []byte, sink EventSink) (ir.RecordID, error) {
	if sink == nil {
		return ir.RecordID{}, errors.New("submit: nil event sink")
	}

	if uint64(len(function)) > uint64(r.maxBytes) {
		r.logger.Debug("wave function rejected",
			"author", author,
			"size", len(function),
			"max_bytes", r.maxBytes,
		)
		return ir.RecordID{}, NewPayloadTooLargeError(len(function), r.maxBytes)
	}

	candidate := ir.WaveFunction{Function: function, Author: author}.Clone()

	id, err := ir.RecordIDOf(r.hasher, candidate)
	if err != nil {
		return ir.RecordID{}, fmt.Errorf("submit: derive record id: %w", err)
	}

	if err := r.records.Insert(ctx, id, candidate); err != nil {
		return ir.RecordID{}, fmt.Errorf("submit: insert %s: %w", id, err)
	}

	ev := ir.WaveFunctionAdded{
		Function: candidate.Clone().Function,
		Author:   author,
		ID:       id,
	}
	if err := sink.Deposit(ctx, ev); err != nil {
		return ir.RecordID{}, fmt.Errorf("submit: deposit event for %s: %w", id, err)
	}

	r.logger.Debug("wave function added",
		"id", id,
		"author", author,
		"size", len(function),
	)

	return id, nil
}
