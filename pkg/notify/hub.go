package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/subsync/pkg/broadcast"
	"github.com/dmitrymomot/subsync/pkg/cache"
	"github.com/dmitrymomot/subsync/pkg/logger"
)

type userBroadcaster = *broadcast.MemoryBroadcaster[Message]

// Hub is the in-process registry of live connections.
type Hub struct {
	mu           sync.Mutex
	broadcasters *cache.LRU[string, userBroadcaster]
	bufferSize   int
	maxUsers     int
	logger       *slog.Logger
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBufferSize sets the per-connection message buffer.
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithMaxUsers bounds the number of users with tracked connections. The
// least recently used user's connections are closed beyond it.
func WithMaxUsers(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.maxUsers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		bufferSize: 8,
		maxUsers:   10000,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.broadcasters = cache.NewLRU(h.maxUsers, func(userID string, b userBroadcaster) {
		if err := b.Close(); err != nil {
			h.logger.LogAttrs(context.Background(), slog.LevelError, "failed to close evicted broadcaster",
				logger.Component("notify"),
				logger.UserID(userID),
				logger.Error(err),
			)
		}
	})
	return h
}

// Subscribe opens a connection for userID that lives until ctx is done or
// the subscriber is closed.
func (h *Hub) Subscribe(ctx context.Context, userID string) broadcast.Subscriber[Message] {
	h.mu.Lock()
	defer h.mu.Unlock()

	b := h.broadcasters.GetOrAdd(userID, func() userBroadcaster { return h.newBroadcaster(userID) })
	return b.Subscribe(ctx)
}

// Notify delivers msg to every open connection of userID. Without
// connections the message is dropped.
func (h *Hub) Notify(ctx context.Context, userID string, msg Message) error {
	b, ok := h.broadcasters.Get(userID)
	if !ok {
		h.logger.LogAttrs(ctx, slog.LevelDebug, "no live connections, message dropped",
			logger.Component("notify"),
			logger.UserID(userID),
		)
		return nil
	}

	n := b.Broadcast(ctx, broadcast.Message[Message]{Data: msg})
	h.logger.LogAttrs(ctx, slog.LevelDebug, "subscription change pushed",
		logger.Component("notify"),
		logger.UserID(userID),
		slog.Int("connections", n),
	)
	return nil
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID string) int {
	b, ok := h.broadcasters.Get(userID)
	if !ok {
		return 0
	}
	return b.Len()
}

// Users returns the number of users with a tracked broadcaster.
func (h *Hub) Users() int { return h.broadcasters.Len() }

// Close closes every connection.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasters.Clear()
	return nil
}

func (h *Hub) newBroadcaster(userID string) userBroadcaster {
	var b userBroadcaster
	b = broadcast.NewMemoryBroadcaster(h.bufferSize, broadcast.WithOnEmpty[Message](func() {
		h.release(userID, b)
	}))
	return b
}

// release forgets the broadcaster of userID once its last connection is
// gone, unless a new connection raced in.
func (h *Hub) release(userID string, b userBroadcaster) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.broadcasters.RemoveIf(userID, func(cur userBroadcaster) bool {
		return cur == b && cur.Len() == 0
	})
}
