package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string) pending {
	return pending{call: Call{ID: id, Name: CallAddWaveFunction}, reply: make(chan Receipt, 1)}
}

func TestCallQueue_FIFO(t *testing.T) {
	q := newCallQueue()

	for _, id := range []string{"A", "B", "C"} {
		require.True(t, q.Enqueue(entry(id)))
	}
	assert.Equal(t, 3, q.Len())

	for _, want := range []string{"A", "B", "C"} {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.call.ID)
	}

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestCallQueue_SignalsAvailability(t *testing.T) {
	q := newCallQueue()
	q.Enqueue(entry("A"))
	q.Enqueue(entry("B"))

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a signal after enqueue")
	}

	// Signals coalesce.
	select {
	case <-q.Wait():
		t.Fatal("expected a single coalesced signal")
	default:
	}
}

func TestCallQueue_Close(t *testing.T) {
	q := newCallQueue()
	q.Enqueue(entry("A"))
	q.Close()
	q.Close()

	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(entry("B")), "enqueue after close should fail")

	got, ok := q.TryDequeue()
	require.True(t, ok, "queued entries survive close")
	assert.Equal(t, "A", got.call.ID)

	// The signal buffered by Enqueue is delivered first, then the close.
	_, open := <-q.Wait()
	assert.True(t, open, "buffered signal survives close")
	_, open = <-q.Wait()
	assert.False(t, open, "signal channel is closed")
}

func TestCallQueue_Drain(t *testing.T) {
	q := newCallQueue()
	q.Enqueue(entry("A"))
	q.Enqueue(entry("B"))

	rest := q.Drain()
	require.Len(t, rest, 2)
	assert.Equal(t, "A", rest[0].call.ID)
	assert.Equal(t, 0, q.Len())
	assert.True(t, q.Closed())
}

func TestCallQueue_ConcurrentEnqueue(t *testing.T) {
	q := newCallQueue()
	const producers = 10
	const perProducer = 100

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				q.Enqueue(entry("x"))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
