// Command server runs the subscription engine behind its HTTP surface.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	billingmodule "github.com/dmitrymomot/subsync/modules/billing"
	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/config"
	"github.com/dmitrymomot/subsync/pkg/httpserver"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/notify"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/requestid"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)

	log := logger.New(append(logger.FromConfig(logCfg),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)...)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		logStartupError(ctx, log, "server stopped with error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		app       appConfig
		policy    billing.Config
		quota     usage.Config
		hubCfg    notify.Config
		pipeline  reconcile.Config
		routes    billingmodule.Config
		serverCfg httpserver.Config
	)
	config.MustLoad(&app)
	config.MustLoad(&policy)
	config.MustLoad(&quota)
	config.MustLoad(&hubCfg)
	config.MustLoad(&pipeline)
	config.MustLoad(&routes)
	config.MustLoad(&serverCfg)

	b := &backends{log: log}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		b.close(closeCtx)
	}()

	records, err := b.records(ctx, app.RecordsBackend)
	if err != nil {
		return err
	}
	processed, err := b.ledger(ctx, app.LedgerBackend, app)
	if err != nil {
		return err
	}
	counter, err := b.usage(ctx, app.UsageBackend)
	if err != nil {
		return err
	}
	locker, err := b.locker(ctx, app.LockBackend)
	if err != nil {
		return err
	}
	tracker, err := usage.NewTracker(ctx, counter, quota)
	if err != nil {
		return err
	}

	adapter, err := billingAdapter(app.BillingProvider)
	if err != nil {
		return err
	}
	registry := provider.NewRegistry()
	token := app.WebhookRegistration
	if token == "" {
		token = adapter.Name()
	}
	if err := registry.Register(token, adapter); err != nil {
		return err
	}

	reporter, err := anomalyReporter(ctx, log)
	if err != nil {
		return err
	}

	hub := notify.NewHub(append(notify.FromConfig(hubCfg), notify.WithLogger(log))...)
	defer func() { _ = hub.Close() }()

	var notifier notify.Notifier = hub
	if app.NotifyRedisChannel != "" {
		client, err := b.redisClient(ctx)
		if err != nil {
			return err
		}
		relay := notify.NewRedisRelay(client, app.NotifyRedisChannel, hub, log)
		relayCtx, cancelRelay := context.WithCancel(ctx)
		defer cancelRelay()
		go func() {
			if err := relay.Run(relayCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.LogAttrs(relayCtx, slog.LevelError, "notify relay stopped",
					logger.Component("notify"),
					logger.Error(err),
				)
			}
		}()
		notifier = relay
	}

	deps := reconcile.Deps{
		Registry: registry,
		Records:  records,
		Ledger:   processed,
		Machine:  billing.NewMachine(policy),
	}
	engine, err := reconcile.New(deps,
		reconcile.WithLogger(log),
		reconcile.WithConfig(pipeline),
		reconcile.WithLocker(locker),
		reconcile.WithNotifier(notifier),
		reconcile.WithAnomalyReporter(reporter),
		reconcile.WithBillingProvider(adapter),
		reconcile.WithUsage(tracker),
	)
	if err != nil {
		return err
	}

	module := billingmodule.New(engine, hub, routes, billingmodule.WithLogger(log))

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, app.HealthTimeout, b.checks...))
	r.Mount("/", module.Router())

	log.LogAttrs(ctx, slog.LevelInfo, "subsync starting",
		logger.Provider(adapter.Name()),
		slog.String("records", app.RecordsBackend),
		slog.String("ledger", app.LedgerBackend),
		slog.String("usage", app.UsageBackend),
		slog.String("lock", app.LockBackend),
	)

	return httpserver.New(serverCfg, httpserver.WithLogger(log)).Run(ctx, r)
}
