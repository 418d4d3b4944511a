package paddle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/resolver"
)

// Name is the provider name used in logs and ledger entries.
const Name = "paddle"

const signatureHeader = "Paddle-Signature"

var (
	ErrMissingWebhookSecret = errors.New("paddle: webhook secret is required")
	ErrMissingPrice         = errors.New("paddle: price id is required for checkout")
	ErrNoCheckoutURL        = errors.New("paddle: no checkout URL returned")
)

// Adapter implements provider.Billing for Paddle.
type Adapter struct {
	cfg      Config
	api      API
	verifier *paddle.WebhookVerifier
}

var _ provider.Billing = (*Adapter)(nil)

// New creates an adapter. A nil api builds the SDK client from cfg.
func New(cfg Config, api API) (*Adapter, error) {
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	if api == nil {
		var err error
		if api, err = NewAPI(cfg); err != nil {
			return nil, err
		}
	}
	return &Adapter{cfg: cfg, api: api, verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret)}, nil
}

func (a *Adapter) Name() string            { return Name }
func (a *Adapter) SignatureHeader() string { return signatureHeader }

func (a *Adapter) Verify(payload []byte, signature string) (provider.Envelope, error) {
	req, err := http.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return provider.Envelope{}, errors.Join(provider.ErrMalformed, err)
	}
	req.Header.Set(signatureHeader, signature)

	valid, err := a.verifier.Verify(req)
	if err != nil {
		return provider.Envelope{}, errors.Join(provider.ErrSignature, err)
	}
	if !valid {
		return provider.Envelope{}, provider.ErrSignature
	}

	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return provider.Envelope{}, errors.Join(provider.ErrMalformed, err)
	}
	if n.EventID == "" || n.EventType == "" || len(n.Data) == 0 {
		return provider.Envelope{}, fmt.Errorf("%w: notification without event id, type or data", provider.ErrMalformed)
	}
	return provider.Envelope{ID: n.EventID, Type: n.EventType, Created: n.OccurredAt.UTC(), Data: n.Data}, nil
}

func (a *Adapter) Translate(_ context.Context, env provider.Envelope) (provider.Translation, error) {
	switch env.Type {
	case "subscription.created":
		return translateSubscription(env, func(s subscription, ref billing.Reference) billing.Event {
			if !activeStatus(s.Status) {
				return nil
			}
			return billing.CheckoutCompleted{Reference: ref, PeriodEnd: s.periodEnd()}
		})
	case "subscription.activated", "subscription.updated", "subscription.resumed":
		return translateSubscription(env, func(s subscription, ref billing.Reference) billing.Event {
			switch s.Status {
			case "active", "trialing":
				return billing.SubscriptionActivated{Reference: ref, PeriodEnd: s.periodEnd(), CancelAtPeriodEnd: s.cancelScheduled()}
			case "past_due":
				return billing.PaymentFailed{Reference: ref}
			case "canceled":
				return billing.SubscriptionDeleted{Reference: ref}
			}
			return nil
		})
	case "subscription.canceled":
		return translateSubscription(env, func(_ subscription, ref billing.Reference) billing.Event {
			return billing.SubscriptionDeleted{Reference: ref}
		})
	case "subscription.past_due":
		return translateSubscription(env, func(_ subscription, ref billing.Reference) billing.Event {
			return billing.PaymentFailed{Reference: ref}
		})
	case "transaction.completed":
		return translateTransaction(env, func(t transaction, ref billing.Reference) billing.Event {
			return billing.PaymentSucceeded{Reference: ref, PeriodEnd: t.periodEnd()}
		})
	case "transaction.payment_failed":
		return translateTransaction(env, func(_ transaction, ref billing.Reference) billing.Event {
			return billing.PaymentFailed{Reference: ref}
		})
	default:
		return provider.Translation{}, nil
	}
}

func translateSubscription(env provider.Envelope, mapEvent func(subscription, billing.Reference) billing.Event) (provider.Translation, error) {
	var s subscription
	if err := json.Unmarshal(env.Data, &s); err != nil {
		return provider.Translation{}, fmt.Errorf("%w: decode %s: %w", provider.ErrMalformed, env.Type, err)
	}
	tr := provider.Translation{
		Identity:  resolver.Identity{CustomerID: s.CustomerID, MetadataUserID: s.CustomData.userID()},
		SessionID: s.TransactionID,
		Summary:   map[string]string{"customer": s.CustomerID, "subscription": s.ID, "status": s.Status},
	}
	if s.ID == "" {
		return tr, fmt.Errorf("%w: subscription id", provider.ErrMissingField)
	}
	tr.Event = mapEvent(s, billing.Reference{CustomerID: s.CustomerID, SubscriptionID: s.ID, OccurredAt: env.Created})
	return tr, requirePeriodEnd(tr.Event, s.ID)
}

func translateTransaction(env provider.Envelope, mapEvent func(transaction, billing.Reference) billing.Event) (provider.Translation, error) {
	var t transaction
	if err := json.Unmarshal(env.Data, &t); err != nil {
		return provider.Translation{}, fmt.Errorf("%w: decode %s: %w", provider.ErrMalformed, env.Type, err)
	}
	tr := provider.Translation{
		Identity:  resolver.Identity{CustomerID: t.CustomerID, MetadataUserID: t.CustomData.userID()},
		SessionID: t.ID,
		Summary:   map[string]string{"customer": t.CustomerID, "transaction": t.ID, "subscription": t.SubscriptionID, "status": t.Status},
	}
	if t.SubscriptionID == "" {
		return tr, nil
	}
	tr.Event = mapEvent(t, billing.Reference{CustomerID: t.CustomerID, SubscriptionID: t.SubscriptionID, OccurredAt: env.Created})
	return tr, requirePeriodEnd(tr.Event, t.ID)
}

func requirePeriodEnd(ev billing.Event, objectID string) error {
	var missing bool
	switch e := ev.(type) {
	case billing.CheckoutCompleted:
		missing = e.PeriodEnd.IsZero()
	case billing.SubscriptionActivated:
		missing = e.PeriodEnd.IsZero()
	case billing.PaymentSucceeded:
		missing = e.PeriodEnd.IsZero()
	}
	if missing {
		return fmt.Errorf("%w: %s has no billing period end", provider.ErrMissingField, objectID)
	}
	return nil
}

func activeStatus(s string) bool { return s == "active" || s == "trialing" }

func (a *Adapter) CreateCheckout(ctx context.Context, req provider.CheckoutRequest) (provider.CheckoutLink, error) {
	if a.cfg.PriceID == "" {
		return provider.CheckoutLink{}, ErrMissingPrice
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  a.cfg.PriceID,
		Quantity: 1,
	})
	txReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{customDataUserID: req.UserID},
	}
	if req.CustomerID != "" {
		txReq.CustomerID = paddle.PtrTo(req.CustomerID)
	}
	checkoutURL := req.SuccessURL
	if checkoutURL == "" {
		checkoutURL = a.cfg.CheckoutURL
	}
	if checkoutURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(checkoutURL)}
	}

	tx, err := a.api.CreateTransaction(ctx, txReq)
	if err != nil {
		return provider.CheckoutLink{}, err
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil {
		return provider.CheckoutLink{}, ErrNoCheckoutURL
	}
	return provider.CheckoutLink{URL: *tx.Checkout.URL, SessionID: tx.ID}, nil
}

func (a *Adapter) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	_, err := a.api.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionID,
		EffectiveFrom:  paddle.PtrTo(paddle.EffectiveFromNextBillingPeriod),
	})
	return err
}
