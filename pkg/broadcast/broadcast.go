// Package broadcast implements non-blocking in-process publish/subscribe.
//
// A slow subscriber whose buffer is full loses the message and is detached;
// the broadcaster never blocks on a consumer.
package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the message channel. It is closed when the subscriber
	// is detached or the broadcaster is closed.
	Receive() <-chan Message[T]
	// Close detaches the subscriber. It is idempotent.
	Close() error
}

// Broadcaster sends messages to every attached subscriber.
type Broadcaster[T any] interface {
	// Subscribe attaches a subscriber for the lifetime of ctx.
	Subscribe(ctx context.Context) Subscriber[T]
	// Broadcast returns the number of subscribers that accepted msg.
	Broadcast(ctx context.Context, msg Message[T]) int
	// Len returns the number of attached subscribers.
	Len() int
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	mu     sync.RWMutex
	closed bool
	detach func()
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	if s.detach != nil {
		s.detach()
	}
	s.shut()
	return nil
}

func (s *subscriber[T]) shut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *subscriber[T]) trySend(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
