package redisstore

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/subsync/pkg/logger"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a reconcile.Locker on SET NX PX.
type Locker struct {
	db     redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewLocker returns a locker on db. Keys are prefixed with "lock:event:".
func NewLocker(db redis.UniversalClient, log *slog.Logger) *Locker {
	if log == nil {
		log = slog.Default()
	}
	return &Locker{db: db, prefix: "lock:event:", logger: log}
}

// TryLock sets key with ttl if absent. The release func deletes it only
// while it still holds this call's token.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	key = l.prefix + key
	token := uuid.NewString()

	ok, err := l.db.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return func() {}, false, errors.Join(ErrLock, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	return func() {
		// The request context may already be canceled by the time we release.
		ctx := context.WithoutCancel(ctx)
		if err := releaseScript.Run(ctx, l.db, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			l.logger.LogAttrs(ctx, slog.LevelWarn, "failed to release event lock",
				logger.Component("redisstore"),
				slog.String("key", key),
				logger.Error(err),
			)
		}
	}, true, nil
}
