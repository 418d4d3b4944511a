package reconcile

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/subsync/pkg/anomaly"
	"github.com/dmitrymomot/subsync/pkg/notify"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocker replaces the in-process event lock, e.g. with a redis lock
// shared by all instances.
func WithLocker(l Locker) Option {
	return func(e *Engine) {
		if l != nil {
			e.locker = l
		}
	}
}

// WithNotifier sets where committed changes are pushed.
func WithNotifier(n notify.Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithAnomalyReporter sets where unattributable events are reported. The
// default logs them.
func WithAnomalyReporter(r anomaly.Reporter) Option {
	return func(e *Engine) {
		if r != nil {
			e.anomalies = r
		}
	}
}

// WithBillingProvider enables Checkout and provider-side cancellation.
func WithBillingProvider(b provider.Billing) Option {
	return func(e *Engine) { e.provider = b }
}

// WithUsage enables the usage part of Status, ConsumeImage and the usage
// reset on renewal.
func WithUsage(t *usage.Tracker) Option {
	return func(e *Engine) { e.usage = t }
}

// WithConfig sets pipeline tuning.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		if cfg.InFlightTTL > 0 {
			e.lockTTL = cfg.InFlightTTL
		}
	}
}
