package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/subsync/pkg/anomaly"
	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/ledger"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/notify"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/resolver"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

// Outcome is how a delivery was acknowledged.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeRejected  Outcome = "rejected"
)

// Result describes an acknowledged delivery.
type Result struct {
	Provider  string  `json:"provider"`
	EventID   string  `json:"eventId"`
	EventType string  `json:"eventType"`
	Outcome   Outcome `json:"outcome"`
	UserID    string  `json:"userId,omitempty"`
	Changed   bool    `json:"changed"`
}

// Deps are the collaborators every engine needs.
type Deps struct {
	Registry *provider.Registry
	Records  billing.Store
	Ledger   ledger.Store
	Machine  *billing.Machine
}

// Engine reconciles provider events and serves user actions.
type Engine struct {
	registry  *provider.Registry
	records   billing.Store
	ledger    ledger.Store
	machine   *billing.Machine
	resolver  *resolver.Resolver
	locker    Locker
	notifier  notify.Notifier
	anomalies anomaly.Reporter
	provider  provider.Billing
	usage     *usage.Tracker
	lockTTL   time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// New builds an engine.
func New(deps Deps, opts ...Option) (*Engine, error) {
	switch {
	case deps.Registry == nil:
		return nil, fmt.Errorf("%w: registry", ErrMissingDependency)
	case deps.Records == nil:
		return nil, fmt.Errorf("%w: records store", ErrMissingDependency)
	case deps.Ledger == nil:
		return nil, fmt.Errorf("%w: ledger store", ErrMissingDependency)
	case deps.Machine == nil:
		return nil, fmt.Errorf("%w: state machine", ErrMissingDependency)
	}

	e := &Engine{
		registry: deps.Registry,
		records:  deps.Records,
		ledger:   deps.Ledger,
		machine:  deps.Machine,
		locker:   NewMemoryLocker(),
		notifier: notify.NotifierFunc(func(context.Context, string, notify.Message) error { return nil }),
		lockTTL:  30 * time.Second,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.anomalies == nil {
		e.anomalies = anomaly.NewLogReporter(e.logger)
	}
	e.resolver = resolver.New(e.records, resolver.WithLogger(e.logger))
	return e, nil
}

// Adapter returns the adapter registered under registration.
func (e *Engine) Adapter(registration string) (provider.Adapter, error) {
	return e.registry.Lookup(registration)
}

// HandleWebhook processes one raw delivery for the registration token.
// A nil error means the provider may consider the delivery handled.
func (e *Engine) HandleWebhook(ctx context.Context, registration string, payload []byte, signature string) (Result, error) {
	adapter, err := e.registry.Lookup(registration)
	if err != nil {
		return Result{}, err
	}
	res := Result{Provider: adapter.Name()}

	env, err := adapter.Verify(payload, signature)
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "webhook rejected",
			logger.Component("reconcile"),
			logger.Provider(adapter.Name()),
			logger.Error(err),
		)
		return res, err
	}
	res.EventID, res.EventType = env.ID, env.Type
	attrs := []slog.Attr{
		logger.Component("reconcile"),
		logger.Provider(adapter.Name()),
		logger.EventID(env.ID),
		logger.EventType(env.Type),
	}

	release, acquired, err := e.locker.TryLock(ctx, adapter.Name()+":"+env.ID, e.lockTTL)
	if err != nil {
		return res, fmt.Errorf("acquire event lock: %w", err)
	}
	if !acquired {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "event already in flight", attrs...)
		return res, ErrInFlight
	}
	defer release()

	seen, err := e.ledger.IsProcessed(ctx, env.ID)
	if err != nil {
		return res, fmt.Errorf("check ledger: %w", err)
	}
	if seen {
		res.Outcome = OutcomeDuplicate
		e.logger.LogAttrs(ctx, slog.LevelDebug, "duplicate delivery acknowledged", attrs...)
		return res, nil
	}

	tr, err := adapter.Translate(ctx, env)
	if err != nil {
		if errors.Is(err, provider.ErrMissingField) || errors.Is(err, provider.ErrMalformed) {
			return res, e.unresolved(ctx, anomaly.KindInvalidEvent, adapter, env, tr, err)
		}
		return res, fmt.Errorf("translate event: %w", err)
	}

	if tr.Ignored() {
		res.Outcome = OutcomeIgnored
		return res, e.mark(ctx, adapter, env, tr, "", ledger.OutcomeIgnored, attrs)
	}

	who, err := e.resolver.Resolve(ctx, tr.Identity)
	if err != nil {
		if resolver.IsResolutionFailure(err) {
			kind := anomaly.KindUnresolvedIdentity
			if errors.Is(err, resolver.ErrIdentityMismatch) {
				kind = anomaly.KindIdentityMismatch
			}
			return res, e.unresolved(ctx, kind, adapter, env, tr, err)
		}
		return res, fmt.Errorf("resolve user: %w", err)
	}
	res.UserID = who.UserID
	attrs = append(attrs, logger.UserID(who.UserID))

	out, err := e.machine.Commit(ctx, e.records, who.UserID, tr.Event, e.now())
	if err != nil {
		if billing.IsPolicyViolation(err) {
			res.Outcome = OutcomeRejected
			e.logger.LogAttrs(ctx, slog.LevelInfo, "event rejected by subscription policy", append(attrs, logger.Error(err))...)
			return res, e.mark(ctx, adapter, env, tr, who.UserID, ledger.OutcomeRejected, attrs)
		}
		e.logger.LogAttrs(ctx, slog.LevelError, "failed to apply event", append(attrs, logger.Error(err))...)
		return res, fmt.Errorf("apply event: %w", err)
	}

	if out.NewPeriod && e.usage != nil {
		if err := e.usage.ResetToday(ctx, who.UserID, e.now()); err != nil {
			return res, err
		}
	}
	if out.Changed {
		e.push(ctx, out.After)
	}

	res.Outcome = OutcomeApplied
	res.Changed = out.Changed
	e.logger.LogAttrs(ctx, slog.LevelInfo, "event applied", append(attrs,
		logger.Plan(string(out.After.Plan)),
		logger.Status(string(out.After.Status)),
		slog.Bool("changed", out.Changed),
		slog.Bool("bonus_granted", out.BonusGranted),
	)...)
	return res, e.mark(ctx, adapter, env, tr, who.UserID, ledger.OutcomeApplied, attrs)
}

func (e *Engine) mark(ctx context.Context, a provider.Adapter, env provider.Envelope, tr provider.Translation, userID string, outcome ledger.Outcome, attrs []slog.Attr) error {
	err := e.ledger.MarkProcessed(ctx, ledger.Entry{
		EventID:     env.ID,
		EventType:   env.Type,
		Provider:    a.Name(),
		SessionID:   tr.SessionID,
		UserID:      userID,
		Summary:     ledger.Summarize(tr.Summary),
		Outcome:     outcome,
		ProcessedAt: e.now(),
	})
	if err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "failed to mark event processed", append(attrs, logger.Error(err))...)
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

func (e *Engine) unresolved(ctx context.Context, kind anomaly.Kind, a provider.Adapter, env provider.Envelope, tr provider.Translation, cause error) error {
	an := anomaly.New(kind, cause, e.now())
	an.Provider = a.Name()
	an.EventID = env.ID
	an.EventType = env.Type
	an.Identity = tr.Identity
	// Only the redacted summary leaves the process; the raw body carries
	// customer contact data.
	an.Summary = ledger.Summarize(tr.Summary)

	if err := e.anomalies.Report(ctx, an); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelError, "failed to report anomaly",
			logger.Component("reconcile"),
			logger.EventID(env.ID),
			logger.Error(err),
		)
	}
	return errors.Join(ErrUnresolved, cause)
}

// push is best effort; the status query stays authoritative.
func (e *Engine) push(ctx context.Context, rec billing.Record) {
	if err := e.notifier.Notify(ctx, rec.UserID, notify.SubscriptionUpdated(rec)); err != nil {
		e.logger.LogAttrs(ctx, slog.LevelWarn, "failed to push subscription change",
			logger.Component("reconcile"),
			logger.UserID(rec.UserID),
			logger.Error(err),
		)
	}
}
