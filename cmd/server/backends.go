package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/subsync/pkg/anomaly"
	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/config"
	"github.com/dmitrymomot/subsync/pkg/httpserver"
	"github.com/dmitrymomot/subsync/pkg/ledger"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/mongo"
	"github.com/dmitrymomot/subsync/pkg/mongostore"
	"github.com/dmitrymomot/subsync/pkg/pg"
	"github.com/dmitrymomot/subsync/pkg/pgstore"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/provider/paddle"
	"github.com/dmitrymomot/subsync/pkg/provider/stripe"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/redis"
	"github.com/dmitrymomot/subsync/pkg/redisstore"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

var errUnknownBackend = errors.New("unknown backend")

// backends holds the connections opened for the selected stores. Each one
// is opened at most once and shared by every store that needs it.
type backends struct {
	log *slog.Logger

	pool          *pgxpool.Pool
	redis         *goredis.Client
	mongo         *mongodriver.Client
	mongoDatabase string

	checks  []httpserver.Check
	closers []func(context.Context)
}

func (b *backends) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	if b.pool != nil {
		return b.pool, nil
	}
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations(), b.log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	b.pool = pool
	b.checks = append(b.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})
	b.closers = append(b.closers, func(context.Context) { pool.Close() })
	return pool, nil
}

func (b *backends) redisClient(ctx context.Context) (*goredis.Client, error) {
	if b.redis != nil {
		return b.redis, nil
	}
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	b.redis = client
	b.checks = append(b.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	b.closers = append(b.closers, func(context.Context) { _ = client.Close() })
	return client, nil
}

func (b *backends) mongoDB(ctx context.Context) (*mongodriver.Database, error) {
	if b.mongo == nil {
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		b.mongo = client
		b.mongoDatabase = cfg.Database
		b.checks = append(b.checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(client)})
		b.closers = append(b.closers, func(ctx context.Context) { _ = client.Disconnect(ctx) })
	}
	return b.mongo.Database(b.mongoDatabase), nil
}

// close releases connections in reverse opening order.
func (b *backends) close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i](ctx)
	}
}

func (b *backends) records(ctx context.Context, name string) (billing.Store, error) {
	switch name {
	case backendMemory:
		return billing.NewMemoryStore(), nil
	case backendPostgres:
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgstore.NewRecordStore(pool), nil
	}
	return nil, fmt.Errorf("%w: RECORDS_BACKEND=%q", errUnknownBackend, name)
}

func (b *backends) ledger(ctx context.Context, name string, cfg appConfig) (ledger.Store, error) {
	switch name {
	case backendMemory:
		return ledger.NewMemoryStore(), nil
	case backendPostgres:
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgstore.NewLedgerStore(pool), nil
	case backendMongo:
		db, err := b.mongoDB(ctx)
		if err != nil {
			return nil, err
		}
		store := mongostore.NewLedgerStore(db, mongostore.DefaultCollection, mongostore.WithRetention(cfg.LedgerRetention))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("%w: LEDGER_BACKEND=%q", errUnknownBackend, name)
}

func (b *backends) usage(ctx context.Context, name string) (usage.Counter, error) {
	switch name {
	case backendMemory:
		return usage.NewMemoryCounter(), nil
	case backendPostgres:
		pool, err := b.postgres(ctx)
		if err != nil {
			return nil, err
		}
		return pgstore.NewUsageCounter(pool), nil
	case backendRedis:
		client, err := b.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return redisstore.NewCounter(client), nil
	}
	return nil, fmt.Errorf("%w: USAGE_BACKEND=%q", errUnknownBackend, name)
}

func (b *backends) locker(ctx context.Context, name string) (reconcile.Locker, error) {
	switch name {
	case backendMemory:
		return reconcile.NewMemoryLocker(), nil
	case backendRedis:
		client, err := b.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return redisstore.NewLocker(client, b.log), nil
	}
	return nil, fmt.Errorf("%w: LOCK_BACKEND=%q", errUnknownBackend, name)
}

// billingAdapter builds the configured provider adapter. It serves both the
// webhook registration and the outbound checkout and cancel calls.
func billingAdapter(name string) (provider.Billing, error) {
	switch name {
	case stripe.Name:
		var cfg stripe.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		return stripe.New(cfg, stripe.NewAPI(cfg.SecretKey))
	case paddle.Name:
		var cfg paddle.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		api, err := paddle.NewAPI(cfg)
		if err != nil {
			return nil, err
		}
		return paddle.New(cfg, api)
	}
	return nil, fmt.Errorf("%w: BILLING_PROVIDER=%q", errUnknownBackend, name)
}

// anomalyReporter fans out to the log and to the optional S3 archive and
// alert mail.
func anomalyReporter(ctx context.Context, log *slog.Logger) (anomaly.Reporter, error) {
	var cfg anomaly.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	reporters := []anomaly.Reporter{anomaly.NewLogReporter(log)}
	if cfg.S3Bucket != "" {
		archive, err := anomaly.NewS3Archiver(ctx, cfg, nil)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, archive)
	}
	if cfg.AlertTo != "" {
		mailer, err := anomaly.NewMailer(cfg, nil)
		if err != nil {
			return nil, err
		}
		reporters = append(reporters, mailer)
	}
	log.LogAttrs(ctx, slog.LevelDebug, "anomaly reporters configured", slog.Int("count", len(reporters)))
	return anomaly.Multi(reporters...), nil
}

func logStartupError(ctx context.Context, log *slog.Logger, msg string, err error) {
	log.LogAttrs(ctx, slog.LevelError, msg, logger.Error(err))
}
