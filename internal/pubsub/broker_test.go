package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBrokerSubscribe(t *testing.T) {
	t.Parallel()

	t.Run("with cancellable context", func(t *testing.T) {
		t.Parallel()
		broker := NewBroker[string]()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch := broker.Subscribe(ctx)
		assert.NotNil(t, ch)
		assert.Equal(t, 1, broker.SubscriberCount())

		// Cancelling the context removes the subscription.
		cancel()
		time.Sleep(10 * time.Millisecond)
		assert.Equal(t, 0, broker.SubscriberCount())
	})

	t.Run("after shutdown", func(t *testing.T) {
		t.Parallel()
		broker := NewBroker[string]()
		broker.Shutdown()

		ch := broker.Subscribe(context.Background())
		_, ok := <-ch
		assert.False(t, ok, "subscription on a closed broker should yield a closed channel")
	})
}

func TestBrokerPublish(t *testing.T) {
	t.Parallel()
	broker := NewBroker[string]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := broker.Subscribe(ctx)

	broker.Publish(EventTypeCreated, "test message")

	select {
	case event := <-ch:
		assert.Equal(t, EventTypeCreated, event.Type)
		assert.Equal(t, "test message", event.Payload)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestBrokerShutdown(t *testing.T) {
	t.Parallel()
	broker := NewBroker[string]()

	ch1 := broker.Subscribe(context.Background())
	ch2 := broker.Subscribe(context.Background())
	assert.Equal(t, 2, broker.SubscriberCount())

	broker.Shutdown()

	_, ok1 := <-ch1
	_, ok2 := <-ch2
	assert.False(t, ok1, "channel 1 should be closed")
	assert.False(t, ok2, "channel 2 should be closed")
	assert.Equal(t, 0, broker.SubscriberCount())
}
