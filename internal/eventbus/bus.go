// Package eventbus fans committed registry events out to live subscribers.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/wavefn/internal/ir"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Bus is an in-memory pub/sub for committed events.
//
// Publish never blocks: a subscriber whose buffer is full misses the event,
// and the journal remains the durable record of what happened.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan ir.Event // subID -> ch
	closed      bool
	logger      *slog.Logger
}

// New creates a Bus. Pass nil logger for default.
func New(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string]chan ir.Event),
		logger:      logger.With("component", "eventbus"),
	}
}

// Subscribe registers a subscriber. Returns a channel that receives events
// and a subscription ID for Unsubscribe. The subscription ends, and the
// channel closes, when ctx is cancelled.
//
// Subscribing to a closed Bus returns an already-closed channel.
func (b *Bus) Subscribe(ctx context.Context) (<-chan ir.Event, string) {
	subID := uuid.New().String()
	ch := make(chan ir.Event, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish sends events, in order, to every subscriber.
// Each subscriber receives its own copy of the payload.
func (b *Bus) Publish(events ...ir.Event) {
	// Sends are non-blocking, so holding the read lock keeps Unsubscribe
	// from closing a channel mid-send without stalling anyone.
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed || len(b.subscribers) == 0 {
		return
	}

	for subID, ch := range b.subscribers {
		for _, ev := range events {
			select {
			case ch <- cloneEvent(ev):
			default:
				b.logger.Warn("dropped event for slow subscriber",
					"sub_id", subID,
					"seq", ev.Seq,
					"id", ev.ID.String(),
				)
			}
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
// Unknown ids are ignored.
func (b *Bus) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}

	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber channel. Later Publish calls are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}

	b.logger.Debug("bus closed")
}

func cloneEvent(ev ir.Event) ir.Event {
	fn := make([]byte, len(ev.Function))
	copy(fn, ev.Function)
	ev.Function = fn
	return ev
}
