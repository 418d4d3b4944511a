package reconcile

import (
	"context"
	"sync"
	"time"
)

// Locker guards an event id against concurrent processing.
type Locker interface {
	// TryLock acquires key for ttl. acquired is false when another holder
	// owns it. release must be called once processing is over.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(), acquired bool, err error)
}

// MemoryLocker is an in-process Locker.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]lease
	now   func() time.Time
	token uint64
}

type lease struct {
	token   uint64
	expires time.Time
}

// NewMemoryLocker returns a Locker for a single process. Leases expire
// after their ttl even if never released.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]lease), now: time.Now}
}

// TryLock takes key for ttl. It reports false without error while another
// holder has an unexpired lease.
func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return func() {}, false, nil
	}
	l.token++
	token := l.token
	l.held[key] = lease{token: token, expires: now.Add(ttl)}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.token == token {
			delete(l.held, key)
		}
	}, true, nil
}
