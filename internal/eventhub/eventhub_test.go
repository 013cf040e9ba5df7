package eventhub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tickEvent struct{ N int }
type otherEvent struct{ Msg string }

func TestPublishDeliversToMatchingTypeOnly(t *testing.T) {
	h := New()
	ticks := Subscribe[tickEvent](h)
	defer ticks.Close()
	others := Subscribe[otherEvent](h)
	defer others.Close()

	Publish(h, tickEvent{N: 1})

	v, ok := ticks.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 1, v.N)

	_, ok = others.TryRecv()
	assert.False(t, ok)
}

func TestPublishWithNoSubscribersIsNoOp(t *testing.T) {
	h := New()
	assert.NotPanics(t, func() { Publish(h, tickEvent{N: 1}) })
}

func TestSubscribeFilteredSuppressesNonMatching(t *testing.T) {
	h := New()
	sub := SubscribeFiltered(h, func(e tickEvent) bool { return e.N > 1 })
	defer sub.Close()

	Publish(h, tickEvent{N: 1})
	Publish(h, tickEvent{N: 2})

	var got []int
	sub.Drain(func(e tickEvent) { got = append(got, e.N) })
	assert.Equal(t, []int{2}, got)
}

func TestDropNewestDropsOnFullChannelAndCounts(t *testing.T) {
	h := New()
	sub := SubscribeWith[tickEvent](h, 1, DropNewest, nil)
	defer sub.Close()

	Publish(h, tickEvent{N: 1})
	Publish(h, tickEvent{N: 2}) // channel already full, should be dropped

	assert.Equal(t, uint64(1), sub.Dropped())

	v, ok := sub.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 1, v.N)
}

func TestBlockPolicyDeliversAfterRoomFrees(t *testing.T) {
	h := New()
	sub := SubscribeWith[tickEvent](h, 1, Block, nil)
	defer sub.Close()

	Publish(h, tickEvent{N: 1})

	done := make(chan struct{})
	go func() {
		Publish(h, tickEvent{N: 2})
		close(done)
	}()

	first := (<-sub.Recv()).(tickEvent)
	assert.Equal(t, 1, first.N)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("blocking publish did not unblock after room freed")
	}

	second, ok := sub.TryRecv()
	require.True(t, ok)
	assert.Equal(t, 2, second.N)
}

func TestCloseUnregistersSubscriber(t *testing.T) {
	h := New()
	sub := Subscribe[tickEvent](h)
	sub.Close()

	assert.NotPanics(t, func() { Publish(h, tickEvent{N: 1}) })

	_, ok := sub.TryRecv()
	assert.False(t, ok)
}

func TestDrainReturnsCountAndFIFOOrder(t *testing.T) {
	h := New()
	sub := Subscribe[tickEvent](h)
	defer sub.Close()

	Publish(h, tickEvent{N: 1})
	Publish(h, tickEvent{N: 2})
	Publish(h, tickEvent{N: 3})

	var got []int
	n := sub.Drain(func(e tickEvent) { got = append(got, e.N) })

	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, got)
}
