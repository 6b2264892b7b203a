package runtime

import "sync"

// pending is a queued call and where to send its receipt.
type pending struct {
	call  Call
	reply chan Receipt
}

// callQueue is a thread-safe unbounded FIFO of pending calls.
//
// Producers (Enqueue) may run on any goroutine; the Run loop is the only
// consumer. A buffered signal channel lets the loop wait with select so it
// also observes context cancellation.
type callQueue struct {
	mu      sync.Mutex
	pending []pending
	closed  bool
	signal  chan struct{} // buffered, size 1
}

func newCallQueue() *callQueue {
	return &callQueue{
		pending: make([]pending, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue appends p. Returns false if the queue is closed.
func (q *callQueue) Enqueue(p pending) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.pending = append(q.pending, p)

	// Buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front entry without blocking.
func (q *callQueue) TryDequeue() (pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return pending{}, false
	}

	p := q.pending[0]

	// Clear the slot so the payload can be collected.
	q.pending[0] = pending{}

	if len(q.pending) == 1 {
		q.pending = q.pending[:0]
	} else {
		q.pending = q.pending[1:]
	}

	return p, true
}

// Wait returns a channel that signals when entries may be available.
// It is closed by Close, so waiters wake immediately afterwards.
func (q *callQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued entries.
func (q *callQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Close stops further Enqueue calls. Entries already queued stay queued.
func (q *callQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}

// Closed reports whether Close has been called.
func (q *callQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Drain closes the queue and removes every remaining entry.
func (q *callQueue) Drain() []pending {
	q.Close()

	q.mu.Lock()
	defer q.mu.Unlock()

	rest := q.pending
	q.pending = nil
	return rest
}
