package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/subsync/pkg/logger"
)

type relayEnvelope struct {
	UserID  string  `json:"user_id"`
	Message Message `json:"message"`
}

// RedisRelay publishes messages on a redis channel and delivers the ones it
// receives to a local Notifier. Every instance runs a relay, so a change
// committed on one instance reaches connections held by the others.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	local   Notifier
	logger  *slog.Logger
}

// NewRedisRelay creates a relay. Run must be started to receive messages.
func NewRedisRelay(client redis.UniversalClient, channel string, local Notifier, log *slog.Logger) *RedisRelay {
	if log == nil {
		log = slog.Default()
	}
	return &RedisRelay{client: client, channel: channel, local: local, logger: log}
}

// Notify publishes msg for userID.
func (r *RedisRelay) Notify(ctx context.Context, userID string, msg Message) error {
	payload, err := json.Marshal(relayEnvelope{UserID: userID, Message: msg})
	if err != nil {
		return errors.Join(ErrPublish, err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return errors.Join(ErrPublish, err)
	}
	return nil
}

// Run subscribes to the channel and forwards messages until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			if err := r.deliver(ctx, m.Payload); err != nil {
				r.logger.LogAttrs(ctx, slog.LevelWarn, "dropping relay message",
					logger.Component("notify"),
					logger.Error(err),
				)
			}
		}
	}
}

func (r *RedisRelay) deliver(ctx context.Context, payload string) error {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return errors.Join(ErrRelayMessage, err)
	}
	if env.UserID == "" {
		return ErrRelayMessage
	}
	return r.local.Notify(ctx, env.UserID, env.Message)
}
