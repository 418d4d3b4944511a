// Package billing is the HTTP surface of the subscription engine: webhook
// ingress, the status query, user actions and the live event stream.
package billing

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/subsync/handler"
	domain "github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/broadcast"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/notify"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

// Engine is what the HTTP surface needs from reconcile.Engine.
type Engine interface {
	Adapter(registration string) (provider.Adapter, error)
	HandleWebhook(ctx context.Context, registration string, payload []byte, signature string) (reconcile.Result, error)
	Status(ctx context.Context, userID string) (reconcile.StatusView, error)
	StartTrial(ctx context.Context, userID string) (reconcile.StatusView, error)
	Cancel(ctx context.Context, userID string) (reconcile.StatusView, error)
	Checkout(ctx context.Context, userID string, opts reconcile.CheckoutOptions) (provider.CheckoutLink, error)
	ConsumeImage(ctx context.Context, userID string) (usage.Snapshot, error)
}

// Subscriptions opens live connections for a user.
type Subscriptions interface {
	Subscribe(ctx context.Context, userID string) broadcast.Subscriber[notify.Message]
}

var userIDKey = handler.NewContextKey("user_id")

// Module serves the billing routes.
type Module struct {
	engine  Engine
	streams Subscriptions
	cfg     Config
	logger  *slog.Logger
	errors  handler.ErrorHandler
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Module) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates the module. streams may be nil, which disables the event
// stream route.
func New(engine Engine, streams Subscriptions, cfg Config, opts ...Option) *Module {
	def := DefaultConfig()
	if cfg.UserHeader == "" {
		cfg.UserHeader = def.UserHeader
	}
	if cfg.MaxWebhookBytes <= 0 {
		cfg.MaxWebhookBytes = def.MaxWebhookBytes
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}

	m := &Module{engine: engine, streams: streams, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.errors = handler.NewErrorHandler(m.logger, classify)
	return m
}

// Router returns the module routes:
//
//	POST /webhooks/{registration}
//	GET  /subscription
//	POST /subscription/trial
//	POST /subscription/cancel
//	POST /subscription/checkout
//	POST /subscription/usage/images
//	GET  /subscription/events
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()

	// Webhook bodies are read raw; the signature covers the exact bytes.
	r.Post("/webhooks/{registration}", handler.Wrap(m.webhook,
		handler.WithBinder(m.bindWebhook),
		handler.WithErrorHandler(m.errors),
	))

	r.Route("/subscription", func(r chi.Router) {
		r.Use(middleware.NoCache)
		r.Use(m.requireUser)

		r.Get("/", m.wrap(m.status))
		r.Get("/events", m.wrap(m.events))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/trial", m.wrap(m.startTrial))
			r.Post("/cancel", m.wrap(m.cancel))
			r.Post("/usage/images", m.wrap(m.consumeImage))
			r.Post("/checkout", handler.Wrap(m.checkout,
				handler.WithBinder(handler.BindJSON()),
				handler.WithErrorHandler(m.errors),
			))
		})
	})

	return r
}

func (m *Module) wrap(h handler.HandlerFunc[struct{}]) http.HandlerFunc {
	return handler.Wrap(h, handler.WithErrorHandler(m.errors))
}

func (m *Module) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(m.cfg.UserHeader)
		if id == "" {
			m.errors(handler.NewContext(w, r), errMissingUser)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func userID(ctx context.Context) string {
	return handler.ContextValue[string](ctx, userIDKey)
}

type webhookRequest struct {
	Registration string
	Signature    string
	Payload      []byte
}

// bindWebhook rejects unknown registrations before reading the body.
func (m *Module) bindWebhook(r *http.Request, v any) error {
	req := v.(*webhookRequest)
	req.Registration = chi.URLParam(r, "registration")

	adapter, err := m.engine.Adapter(req.Registration)
	if err != nil {
		return err
	}
	req.Signature = r.Header.Get(adapter.SignatureHeader())

	body, err := io.ReadAll(io.LimitReader(r.Body, m.cfg.MaxWebhookBytes+1))
	if err != nil {
		return handler.ErrBadRequest.WithMessage("failed to read webhook body")
	}
	if int64(len(body)) > m.cfg.MaxWebhookBytes {
		return errPayloadTooLarge
	}
	req.Payload = body
	return nil
}

func (m *Module) webhook(ctx handler.Context, req webhookRequest) handler.Response {
	res, err := m.engine.HandleWebhook(ctx, req.Registration, req.Payload, req.Signature)
	if err != nil {
		return m.fail(ctx, err)
	}
	return handler.JSON(res)
}

func (m *Module) status(ctx handler.Context, _ struct{}) handler.Response {
	view, err := m.engine.Status(ctx, userID(ctx))
	if err != nil {
		return m.fail(ctx, err)
	}
	return handler.JSON(view)
}

func (m *Module) startTrial(ctx handler.Context, _ struct{}) handler.Response {
	view, err := m.engine.StartTrial(ctx, userID(ctx))
	if err != nil {
		return m.fail(ctx, err)
	}
	return handler.JSON(view)
}

func (m *Module) cancel(ctx handler.Context, _ struct{}) handler.Response {
	view, err := m.engine.Cancel(ctx, userID(ctx))
	if err != nil {
		return m.fail(ctx, err)
	}
	return handler.JSON(view)
}

type checkoutRequest struct {
	Email      string `json:"email"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

func (m *Module) checkout(ctx handler.Context, req checkoutRequest) handler.Response {
	link, err := m.engine.Checkout(ctx, userID(ctx), reconcile.CheckoutOptions{
		Email:      req.Email,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return m.fail(ctx, err)
	}
	return handler.JSON(link, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) consumeImage(ctx handler.Context, _ struct{}) handler.Response {
	snap, err := m.engine.ConsumeImage(ctx, userID(ctx))
	if err != nil {
		return m.fail(ctx, err)
	}
	return handler.JSON(snap)
}

func (m *Module) events(ctx handler.Context, _ struct{}) handler.Response {
	if m.streams == nil {
		return m.fail(ctx, handler.ErrNotImplemented)
	}
	id := userID(ctx)

	return handler.SSE(func(stream handler.StreamContext) error {
		sub := m.streams.Subscribe(stream, id)
		defer sub.Close()

		view, err := m.engine.Status(stream, id)
		if err != nil {
			return err
		}
		if err := stream.SendSignals(initialMessage(view)); err != nil {
			return err
		}

		heartbeat := time.NewTicker(m.cfg.HeartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-stream.Done():
				return nil
			case <-heartbeat.C:
				if err := stream.SendSignals(map[string]int64{"heartbeat": time.Now().Unix()}); err != nil {
					return nil
				}
			case msg, ok := <-sub.Receive():
				if !ok {
					return nil
				}
				if err := stream.SendSignals(msg.Data); err != nil {
					m.logger.LogAttrs(stream, slog.LevelDebug, "event stream closed",
						logger.Component("billing_http"),
						logger.UserID(id),
						logger.Error(err),
					)
					return nil
				}
			}
		}
	})
}

func initialMessage(v reconcile.StatusView) notify.Message {
	expiry := v.Subscription.PaidUntil
	if v.Subscription.Plan == domain.PlanTrial {
		expiry = v.Subscription.TrialEndsAt
	}
	return notify.Message{Type: notify.TypeSubscriptionUpdated, Status: v.Subscription.Status, Expiry: expiry}
}

// fail renders err as a JSON error. Persistence and unknown failures are
// logged; client errors are expected traffic.
func (m *Module) fail(ctx context.Context, err error) handler.Response {
	he := handler.Classify(err, classify)
	if he.Code >= http.StatusInternalServerError {
		m.logger.LogAttrs(ctx, slog.LevelError, "billing request failed",
			logger.Component("billing_http"),
			logger.Error(err),
		)
	}
	return handler.JSONError(he)
}
