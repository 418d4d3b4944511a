package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster is an in-process Broadcaster. All methods are safe for
// concurrent use.
type MemoryBroadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	closed      bool
	onEmpty     func()
}

// Option configures a MemoryBroadcaster.
type Option[T any] func(*MemoryBroadcaster[T])

// WithOnEmpty registers a callback run after the last subscriber detaches.
func WithOnEmpty[T any](fn func()) Option[T] {
	return func(b *MemoryBroadcaster[T]) { b.onEmpty = fn }
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers buffer up to
// bufferSize messages (minimum 1).
func NewMemoryBroadcaster[T any](bufferSize int, opts ...Option[T]) *MemoryBroadcaster[T] {
	b := &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe attaches a subscriber that detaches itself when ctx is done.
// After Close it returns an already-closed subscriber.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := &subscriber[T]{ch: make(chan Message[T], b.bufferSize)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.shut()
		return sub
	}
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	sub.detach = func() { once.Do(func() { b.remove(sub) }) }

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			_ = sub.Close()
		}()
	}
	return sub
}

// Broadcast delivers msg to every subscriber with buffer space. Subscribers
// that cannot accept it are detached.
func (b *MemoryBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) int {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return 0
	}
	delivered := 0
	var slow []*subscriber[T]
	for sub := range b.subscribers {
		if sub.trySend(msg) {
			delivered++
		} else {
			slow = append(slow, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range slow {
		_ = sub.Close()
	}
	return delivered
}

// Len returns the number of attached subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close detaches and closes every subscriber. It is idempotent.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subscribers
	b.subscribers = make(map[*subscriber[T]]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.shut()
	}
	return nil
}

func (b *MemoryBroadcaster[T]) remove(sub *subscriber[T]) {
	b.mu.Lock()
	_, ok := b.subscribers[sub]
	delete(b.subscribers, sub)
	empty := ok && len(b.subscribers) == 0 && !b.closed
	b.mu.Unlock()

	if empty && b.onEmpty != nil {
		b.onEmpty()
	}
}
