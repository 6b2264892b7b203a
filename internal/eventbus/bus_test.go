package eventbus

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavefn/internal/ir"
)

var authorA = ir.AccountID(bytes.Repeat([]byte{0xaa}, ir.IDSize))

func makeEvent(seq int64, fn string) ir.Event {
	rec := ir.WaveFunction{Function: []byte(fn), Author: authorA}
	ev := ir.NewWaveFunctionAddedEvent("call-1", ir.WaveFunctionAdded{
		Function: rec.Function,
		Author:   rec.Author,
		ID:       ir.MustRecordID(ir.Blake2b256, rec),
	})
	ev.Seq = seq
	return ev
}

func receive(t *testing.T, ch <-chan ir.Event) ir.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ir.Event{}
	}
}

func TestBus_SingleSubscriberReceivesEvent(t *testing.T) {
	b := New(nil)
	defer b.Close()

	ch, _ := b.Subscribe(testContext(t))
	b.Publish(makeEvent(1, "hello"))

	got := receive(t, ch)
	assert.Equal(t, int64(1), got.Seq)
	assert.Equal(t, []byte("hello"), got.Function)
}

func TestBus_MultipleSubscribersReceiveSameEvents(t *testing.T) {
	b := New(nil)
	defer b.Close()

	ch1, _ := b.Subscribe(testContext(t))
	ch2, _ := b.Subscribe(testContext(t))

	b.Publish(makeEvent(1, "a"), makeEvent(2, "b"))

	for i, ch := range []<-chan ir.Event{ch1, ch2} {
		assert.Equal(t, int64(1), receive(t, ch).Seq, "subscriber %d", i)
		assert.Equal(t, int64(2), receive(t, ch).Seq, "subscriber %d", i)
	}
}

func TestBus_SubscribersGetIndependentCopies(t *testing.T) {
	b := New(nil)
	defer b.Close()

	ch1, _ := b.Subscribe(testContext(t))
	ch2, _ := b.Subscribe(testContext(t))

	ev := makeEvent(1, "shared")
	b.Publish(ev)

	got1 := receive(t, ch1)
	got1.Function[0] = 'X'
	ev.Function[1] = 'Y'

	got2 := receive(t, ch2)
	assert.Equal(t, []byte("shared"), got2.Function)
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New(nil)
	defer b.Close()

	ch, id := b.Subscribe(testContext(t))
	b.Unsubscribe(id)
	b.Unsubscribe(id) // idempotent

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
	assert.Equal(t, 0, b.Len())

	b.Publish(makeEvent(1, "after"))
}

func TestBus_ContextCancellationUnsubscribes(t *testing.T) {
	b := New(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription did not end with its context")
	}
	assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New(nil)
	defer b.Close()

	slow, _ := b.Subscribe(testContext(t))
	fast, _ := b.Subscribe(testContext(t))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= subscriberBufferSize+10; i++ {
			b.Publish(makeEvent(int64(i), "x"))
			<-fast
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on slow subscriber")
	}

	assert.Len(t, slow, subscriberBufferSize)
	assert.Equal(t, int64(1), receive(t, slow).Seq)
}

func TestBus_Close(t *testing.T) {
	b := New(nil)

	ch, _ := b.Subscribe(testContext(t))
	b.Close()
	b.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := b.Subscribe(testContext(t))
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed bus yields a closed channel")

	b.Publish(makeEvent(1, "ignored"))
}

func TestBus_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	b := New(nil)
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		ch, id := b.Subscribe(testContext(t))
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Publish(makeEvent(int64(j), "c"))
			}
		}()
		go func() {
			defer wg.Done()
			b.Unsubscribe(id)
			for range ch {
			}
		}()
	}
	wg.Wait()
}
