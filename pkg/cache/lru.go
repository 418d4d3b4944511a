// Package cache provides a bounded, concurrency-safe LRU map.
package cache

import (
	"container/list"
	"sync"
)

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// LRU evicts the least recently used entry once capacity is exceeded.
// The optional eviction callback runs with the cache lock held and must not
// call back into the cache.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List
	onEvict  func(K, V)
}

// NewLRU creates a cache holding at most capacity entries. It panics when
// capacity is not positive.
func NewLRU[K comparable, V any](capacity int, onEvict func(K, V)) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: LRU capacity must be positive")
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		onEvict:  onEvict,
	}
}

// Get returns the value for key and marks it recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// GetOrAdd returns the existing value for key or stores the result of create.
func (c *LRU[K, V]) GetOrAdd(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		return el.Value.(*lruEntry[K, V]).value
	}

	v := create()
	c.items[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: v})
	if c.order.Len() > c.capacity {
		c.remove(c.order.Back(), true)
	}
	return v
}

// RemoveIf deletes key when drop reports true for its value. The eviction
// callback is not invoked. It reports whether the entry was removed.
func (c *LRU[K, V]) RemoveIf(key K, drop func(V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok || !drop(el.Value.(*lruEntry[K, V]).value) {
		return false
	}
	c.remove(el, false)
	return true
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear removes every entry, invoking the eviction callback for each.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.order.Len() > 0 {
		c.remove(c.order.Back(), true)
	}
}

func (c *LRU[K, V]) remove(el *list.Element, notify bool) {
	entry := c.order.Remove(el).(*lruEntry[K, V])
	delete(c.items, entry.key)
	if notify && c.onEvict != nil {
		c.onEvict(entry.key, entry.value)
	}
}
