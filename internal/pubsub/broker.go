package pubsub

import (
	"context"
	"sync"
)

const subscriberBufferSize = 64

// Broker fans events out to all current subscribers. Subscriptions are
// removed when their context is cancelled or the broker shuts down.
type Broker[T any] struct {
	mu       sync.RWMutex
	subs     map[chan Event[T]]context.CancelFunc
	isClosed bool
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]context.CancelFunc),
	}
}

func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed {
		closed := make(chan Event[T])
		close(closed)
		return closed
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan Event[T], subscriberBufferSize)
	b.subs[ch] = cancel

	go func() {
		<-subCtx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			close(ch)
			delete(b.subs, ch)
		}
	}()

	return ch
}

func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.isClosed {
		return
	}

	event := Event[T]{Type: eventType, Payload: payload}
	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			// A full subscriber never blocks the publisher; the event is
			// dropped. Logging here would feed back into the log broker.
		}
	}
}

func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed {
		return
	}
	b.isClosed = true

	for ch, cancel := range b.subs {
		cancel()
		close(ch)
		delete(b.subs, ch)
	}
}

func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
