package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/subsync/pkg/cache"
)

func TestLRU(t *testing.T) {
	t.Parallel()

	t.Run("evicts least recently used", func(t *testing.T) {
		t.Parallel()

		var evicted []string
		c := cache.NewLRU[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })

		c.GetOrAdd("a", func() int { return 1 })
		c.GetOrAdd("b", func() int { return 2 })
		_, _ = c.Get("a")
		c.GetOrAdd("c", func() int { return 3 })

		assert.Equal(t, []string{"b"}, evicted)
		_, ok := c.Get("b")
		assert.False(t, ok)
		v, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, v)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get or add keeps existing", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[string, int](4, nil)
		assert.Equal(t, 1, c.GetOrAdd("k", func() int { return 1 }))
		assert.Equal(t, 1, c.GetOrAdd("k", func() int { return 2 }))
	})

	t.Run("remove if", func(t *testing.T) {
		t.Parallel()

		calls := 0
		c := cache.NewLRU[string, int](4, func(string, int) { calls++ })
		c.GetOrAdd("k", func() int { return 5 })

		assert.False(t, c.RemoveIf("k", func(v int) bool { return v != 5 }))
		assert.True(t, c.RemoveIf("k", func(v int) bool { return v == 5 }))
		assert.False(t, c.RemoveIf("missing", func(int) bool { return true }))
		assert.Zero(t, calls)
		assert.Zero(t, c.Len())
	})

	t.Run("clear notifies", func(t *testing.T) {
		t.Parallel()

		calls := 0
		c := cache.NewLRU[int, int](4, func(int, int) { calls++ })
		for i := range 3 {
			c.GetOrAdd(i, func() int { return i })
		}
		c.Clear()
		assert.Equal(t, 3, calls)
		assert.Zero(t, c.Len())
	})

	t.Run("concurrent access", func(t *testing.T) {
		t.Parallel()

		c := cache.NewLRU[int, int](8, nil)
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c.GetOrAdd(i%10, func() int { return i })
				_, _ = c.Get(i % 10)
			}()
		}
		wg.Wait()
		assert.LessOrEqual(t, c.Len(), 8)
	})

	t.Run("invalid capacity panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { cache.NewLRU[int, int](0, nil) })
	})
}
