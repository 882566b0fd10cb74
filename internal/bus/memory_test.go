package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvWithin(t *testing.T, ch <-chan []byte, d time.Duration) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(d):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := m.Subscribe(ctx, "ticker")
	require.NoError(t, err)
	b, err := m.Subscribe(ctx, "ticker")
	require.NoError(t, err)

	require.NoError(t, m.Publish(ctx, "ticker", []byte("hello")))

	assert.Equal(t, []byte("hello"), recvWithin(t, a, time.Second))
	assert.Equal(t, []byte("hello"), recvWithin(t, b, time.Second))
}

func TestChannelsAreIsolated(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker, err := m.Subscribe(ctx, "ticker")
	require.NoError(t, err)
	arb, err := m.Subscribe(ctx, "arbitrage")
	require.NoError(t, err)

	require.NoError(t, m.Publish(ctx, "arbitrage", []byte("opp")))

	assert.Equal(t, []byte("opp"), recvWithin(t, arb, time.Second))
	select {
	case msg := <-ticker:
		t.Fatalf("unexpected message on ticker channel: %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	m := NewMemory()
	assert.NoError(t, m.Publish(context.Background(), "ticker", []byte("x")))
}

func TestSubscribeClosedOnCancel(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := m.Subscribe(ctx, "ticker")
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed, not delivering")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing afterwards must not panic or deliver.
	assert.NoError(t, m.Publish(context.Background(), "ticker", []byte("late")))
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := m.Subscribe(ctx, "ticker")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			_ = m.Publish(ctx, "ticker", []byte("tick"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
