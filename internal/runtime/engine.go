package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/registry"
	"github.com/roach88/wavefn/internal/store"
)

// Publisher receives committed events.
// Implemented by eventbus.Bus.
type Publisher interface {
	Publish(events ...ir.Event)
}

// Engine is the host state-transition engine around the registry.
//
// Thread-safety model:
//   - Execute, AddWaveFunction: safe from any goroutine; calls serialize
//   - Enqueue: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	backend store.Backend
	clock   *Clock
	queue   *callQueue
	callIDs CallIDGenerator
	bus     Publisher
	logger  *slog.Logger
	base    *slog.Logger // handed to the registry

	maxBytes uint32
	hasher   ir.Hasher

	mu sync.Mutex // single writer
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxBytes sets the registry payload limit.
func WithMaxBytes(n uint32) Option {
	return func(e *Engine) {
		e.maxBytes = n
	}
}

// WithHasher sets the hash algorithm for record ids.
func WithHasher(h ir.Hasher) Option {
	return func(e *Engine) {
		e.hasher = h
	}
}

// WithBus sets where committed events are published.
func WithBus(p Publisher) Option {
	return func(e *Engine) {
		e.bus = p
	}
}

// WithCallIDs sets the generator for calls submitted without an id.
func WithCallIDs(g CallIDGenerator) Option {
	return func(e *Engine) {
		e.callIDs = g
	}
}

// WithClock sets the logical clock, e.g. to start numbering at a known value.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over backend.
func New(backend store.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend:  backend,
		clock:    NewClock(),
		queue:    newCallQueue(),
		callIDs:  UUIDv7Generator{},
		logger:   slog.Default(),
		maxBytes: registry.DefaultMaxBytes,
		hasher:   ir.DefaultHasher,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	e.base = e.logger
	e.logger = e.logger.With("component", "runtime")
	return e
}

// MaxBytes returns the configured payload limit.
func (e *Engine) MaxBytes() uint32 {
	return e.maxBytes
}

// Hasher returns the configured hash algorithm.
func (e *Engine) Hasher() ir.Hasher {
	return e.hasher
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// QueueLen returns the number of calls waiting for the Run loop.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// AddWaveFunction executes add_wavefunction for origin.
func (e *Engine) AddWaveFunction(ctx context.Context, origin Origin, function []byte) Receipt {
	return e.Execute(ctx, NewAddWaveFunction(origin, function))
}

// Execute applies call in its own transaction and returns the outcome.
//
// On success the record and its events are committed together, then the
// events are published. On any error nothing is committed or published.
func (e *Engine) Execute(ctx context.Context, call Call) Receipt {
	e.mu.Lock()
	defer e.mu.Unlock()

	if call.ID == "" {
		call.ID = e.callIDs.Generate()
	}
	receipt := Receipt{CallID: call.ID, Seq: e.clock.Next()}

	log := e.logger.With("call_id", call.ID, "seq", receipt.Seq)
	log.Debug("executing call",
		"call", call.Name,
		"origin", call.Origin.String(),
		"size", len(call.Function),
	)

	id, events, err := e.apply(ctx, call)
	if err != nil {
		receipt.Err = err
		if code := ErrorCode(err); code == CodeInternal {
			log.Error("call failed", "call", call.Name, "error", err)
		} else {
			log.Info("call rejected", "call", call.Name, "code", code, "error", err)
		}
		return receipt
	}

	receipt.RecordID = id
	receipt.Events = events

	log.Info("wave function added",
		"id", id.String(),
		"author", call.Origin.String(),
		"size", len(call.Function),
		"events", len(events),
	)

	if e.bus != nil {
		e.bus.Publish(events...)
	}

	return receipt
}

// apply dispatches call inside a transaction.
// Called only with e.mu held.
func (e *Engine) apply(ctx context.Context, call Call) (ir.RecordID, []ir.Event, error) {
	if _, err := call.Info(); err != nil {
		return ir.RecordID{}, nil, err
	}

	author, err := EnsureSigned(call.Origin)
	if err != nil {
		return ir.RecordID{}, nil, err
	}

	tx, err := e.backend.Begin(ctx)
	if err != nil {
		return ir.RecordID{}, nil, fmt.Errorf("begin: %w", err)
	}
	// No-op once committed.
	defer tx.Rollback()

	j := &journal{tx: tx, callID: call.ID}
	reg := registry.New(tx,
		registry.WithMaxBytes(e.maxBytes),
		registry.WithHasher(e.hasher),
		registry.WithLogger(e.base),
	)

	id, err := reg.Submit(ctx, author, call.Function, j)
	if err != nil {
		return ir.RecordID{}, nil, err
	}

	if err := tx.Commit(); err != nil {
		return ir.RecordID{}, nil, fmt.Errorf("commit call %s: %w", call.ID, err)
	}

	return id, j.events, nil
}

// journal is the EventSink that appends notifications to the call's
// transaction, so they commit or roll back with the record.
type journal struct {
	tx     store.Tx
	callID string
	events []ir.Event
}

func (j *journal) Deposit(ctx context.Context, n ir.WaveFunctionAdded) error {
	ev := ir.NewWaveFunctionAddedEvent(j.callID, n)
	seq, err := j.tx.AppendEvent(ctx, ev)
	if err != nil {
		return err
	}
	ev.Seq = seq
	j.events = append(j.events, ev)
	return nil
}

// Enqueue submits call to the Run loop and returns the channel its Receipt
// will arrive on. Returns false if the engine has been stopped.
func (e *Engine) Enqueue(call Call) (<-chan Receipt, bool) {
	reply := make(chan Receipt, 1)
	if !e.queue.Enqueue(pending{call: call, reply: reply}) {
		return nil, false
	}
	return reply, true
}

// Run starts the single-writer loop.
// Blocks until ctx is cancelled or Stop is called and the queue is drained.
//
// Calls are executed strictly in enqueue order. A failing call is reported
// on its receipt and the loop moves on; there are no retries.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")

	for {
		// Once ctx ends nothing more is applied; queued calls get ENGINE_STOPPED.
		if err := ctx.Err(); err != nil {
			e.logger.Info("engine stopping: context cancelled")
			e.abandon()
			return err
		}

		if p, ok := e.queue.TryDequeue(); ok {
			p.reply <- e.Execute(ctx, p.call)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.abandon()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed by Stop, so this fires
			// immediately once stopped.
			if e.queue.Closed() && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run finishes the calls already queued, then returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// abandon answers every call still queued when Run exits early.
func (e *Engine) abandon() {
	for _, p := range e.queue.Drain() {
		id := p.call.ID
		p.reply <- Receipt{
			CallID: id,
			Err: &DispatchError{
				Code:    ErrCodeEngineStopped,
				Message: "engine stopped before the call ran",
				CallID:  id,
				Call:    p.call.Name,
			},
		}
	}
}
