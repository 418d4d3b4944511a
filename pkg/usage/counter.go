package usage

import (
	"context"
	"sync"
)

// Counter stores daily counts.
type Counter interface {
	Get(ctx context.Context, userID string, day Day) (int, error)
	// Increment atomically adds one and returns the new count, creating the
	// counter on first use.
	Increment(ctx context.Context, userID string, day Day) (int, error)
	// Reset sets the count for day back to zero.
	Reset(ctx context.Context, userID string, day Day) error
}

type key struct {
	user string
	day  Day
}

// MemoryCounter is an in-process Counter.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[key]int
}

// NewMemoryCounter returns an empty process-local counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[key]int)}
}

// Get returns the count of userID on day.
func (c *MemoryCounter) Get(_ context.Context, userID string, day Day) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[key{userID, day}], nil
}

// Increment adds one to the count of userID on day and returns the new
// count.
func (c *MemoryCounter) Increment(_ context.Context, userID string, day Day) (int, error) {
	if userID == "" {
		return 0, ErrEmptyUserID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key{userID, day}
	c.counts[k]++
	return c.counts[k], nil
}

// Reset zeroes the count of userID on day.
func (c *MemoryCounter) Reset(_ context.Context, userID string, day Day) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, key{userID, day})
	return nil
}
