package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/subsync/pkg/usage"
)

// Counter is a usage.Counter on plain redis keys. Keys expire after the
// retention window, by which time the day they count is long over.
type Counter struct {
	db        redis.UniversalClient
	prefix    string
	retention time.Duration
}

var _ usage.Counter = (*Counter)(nil)

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithCounterPrefix sets the key prefix. Default "usage:images".
func WithCounterPrefix(p string) CounterOption {
	return func(c *Counter) {
		if p != "" {
			c.prefix = p
		}
	}
}

// WithRetention sets how long a day's counter is kept. Default 48h.
func WithRetention(d time.Duration) CounterOption {
	return func(c *Counter) {
		if d > 0 {
			c.retention = d
		}
	}
}

// NewCounter returns a counter on db.
func NewCounter(db redis.UniversalClient, opts ...CounterOption) *Counter {
	c := &Counter{db: db, prefix: "usage:images", retention: 48 * time.Hour}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key returns the redis key of userID's counter for day.
func (c *Counter) Key(userID string, day usage.Day) string {
	return c.prefix + ":" + day.String() + ":" + userID
}

// Get returns the count of userID on day, zero for a missing key.
func (c *Counter) Get(ctx context.Context, userID string, day usage.Day) (int, error) {
	n, err := c.db.Get(ctx, c.Key(userID, day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(ErrCounter, err)
	}
	return n, nil
}

// Increment adds one and refreshes the key expiry in one transaction.
func (c *Counter) Increment(ctx context.Context, userID string, day usage.Day) (int, error) {
	key := c.Key(userID, day)
	var incr *redis.IntCmd
	_, err := c.db.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, c.retention)
		return nil
	})
	if err != nil {
		return 0, errors.Join(ErrCounter, err)
	}
	return int(incr.Val()), nil
}

// Reset deletes the key of userID and day.
func (c *Counter) Reset(ctx context.Context, userID string, day usage.Day) error {
	if err := c.db.Del(ctx, c.Key(userID, day)).Err(); err != nil {
		return errors.Join(ErrCounter, err)
	}
	return nil
}
