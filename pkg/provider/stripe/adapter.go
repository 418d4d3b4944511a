package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/resolver"
)

// Name is the provider name used in logs and ledger entries.
const Name = "stripe"

var (
	ErrMissingWebhookSecret = errors.New("stripe: webhook secret is required")
	ErrMissingPrice         = errors.New("stripe: price id is required for checkout")
)

// Adapter implements provider.Billing for Stripe.
type Adapter struct {
	cfg Config
	api API
}

var _ provider.Billing = (*Adapter)(nil)

// New creates an adapter. A nil api uses the official client with
// cfg.SecretKey.
func New(cfg Config, api API) (*Adapter, error) {
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = webhook.DefaultTolerance
	}
	if api == nil {
		api = NewAPI(cfg.SecretKey)
	}
	return &Adapter{cfg: cfg, api: api}, nil
}

func (a *Adapter) Name() string            { return Name }
func (a *Adapter) SignatureHeader() string { return "Stripe-Signature" }

func (a *Adapter) Verify(payload []byte, signature string) (provider.Envelope, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, a.cfg.WebhookSecret, webhook.ConstructEventOptions{
		Tolerance:                a.cfg.Tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return provider.Envelope{}, errors.Join(provider.ErrSignature, err)
		default:
			return provider.Envelope{}, errors.Join(provider.ErrMalformed, err)
		}
	}
	if ev.ID == "" || ev.Type == "" || ev.Data == nil || len(ev.Data.Raw) == 0 {
		return provider.Envelope{}, fmt.Errorf("%w: event without id, type or object", provider.ErrMalformed)
	}
	return provider.Envelope{
		ID:      ev.ID,
		Type:    string(ev.Type),
		Created: unix(ev.Created),
		Data:    ev.Data.Raw,
	}, nil
}

func (a *Adapter) Translate(ctx context.Context, env provider.Envelope) (provider.Translation, error) {
	switch env.Type {
	case "checkout.session.completed":
		return a.checkoutCompleted(ctx, env)
	case "customer.subscription.created", "customer.subscription.updated":
		return a.subscriptionChanged(env)
	case "customer.subscription.deleted":
		return a.subscriptionDeleted(env)
	case "invoice.payment_succeeded", "invoice.paid":
		return a.invoicePaid(ctx, env)
	case "invoice.payment_failed":
		return a.invoiceFailed(env)
	default:
		return provider.Translation{}, nil
	}
}

func (a *Adapter) checkoutCompleted(ctx context.Context, env provider.Envelope) (provider.Translation, error) {
	var s checkoutSession
	if err := decode(env, &s); err != nil {
		return provider.Translation{}, err
	}
	tr := provider.Translation{
		Identity:  resolver.Identity{CustomerID: string(s.Customer), MetadataUserID: s.userID()},
		SessionID: s.ID,
		Summary:   map[string]string{"mode": s.Mode, "customer": string(s.Customer), "subscription": string(s.Subscription)},
	}
	if s.Mode != string(stripe.CheckoutSessionModeSubscription) {
		return tr, nil
	}
	if s.Subscription == "" {
		return tr, fmt.Errorf("%w: checkout session %s has no subscription", provider.ErrMissingField, s.ID)
	}

	raw, err := a.api.Subscription(ctx, string(s.Subscription))
	if err != nil {
		return tr, err
	}
	var sub subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return tr, errors.Join(provider.ErrMalformed, err)
	}
	tr.Summary["status"] = sub.Status
	if !activeStatus(sub.Status) {
		return tr, nil
	}

	end := sub.periodEnd()
	if end.IsZero() {
		return tr, fmt.Errorf("%w: subscription %s has no period end", provider.ErrMissingField, sub.ID)
	}
	if tr.Identity.MetadataUserID == "" {
		tr.Identity.MetadataUserID = sub.Metadata[metadataUserID]
	}
	tr.Event = billing.CheckoutCompleted{Reference: reference(tr.Identity.CustomerID, sub.ID, env), PeriodEnd: end}
	return tr, nil
}

func (a *Adapter) subscriptionChanged(env provider.Envelope) (provider.Translation, error) {
	sub, tr, err := decodeSubscription(env)
	if err != nil {
		return tr, err
	}
	ref := reference(string(sub.Customer), sub.ID, env)

	switch sub.Status {
	case "active", "trialing":
		end := sub.periodEnd()
		if end.IsZero() {
			return tr, fmt.Errorf("%w: subscription %s has no period end", provider.ErrMissingField, sub.ID)
		}
		tr.Event = billing.SubscriptionActivated{Reference: ref, PeriodEnd: end, CancelAtPeriodEnd: sub.CancelAtPeriodEnd}
	case "past_due", "unpaid":
		tr.Event = billing.PaymentFailed{Reference: ref}
	case "canceled", "incomplete_expired":
		tr.Event = billing.SubscriptionDeleted{Reference: ref}
	}
	return tr, nil
}

func (a *Adapter) subscriptionDeleted(env provider.Envelope) (provider.Translation, error) {
	sub, tr, err := decodeSubscription(env)
	if err != nil {
		return tr, err
	}
	tr.Event = billing.SubscriptionDeleted{Reference: reference(string(sub.Customer), sub.ID, env)}
	return tr, nil
}

func (a *Adapter) invoicePaid(ctx context.Context, env provider.Envelope) (provider.Translation, error) {
	in, tr, err := decodeInvoice(env)
	if err != nil || tr.Summary["subscription"] == "" {
		return tr, err
	}
	subID := in.subscriptionID()

	end := in.periodEnd()
	if end.IsZero() {
		raw, err := a.api.Subscription(ctx, subID)
		if err != nil {
			return tr, err
		}
		var sub subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return tr, errors.Join(provider.ErrMalformed, err)
		}
		end = sub.periodEnd()
	}
	if end.IsZero() {
		return tr, fmt.Errorf("%w: invoice %s has no period end", provider.ErrMissingField, in.ID)
	}
	tr.Event = billing.PaymentSucceeded{Reference: reference(string(in.Customer), subID, env), PeriodEnd: end}
	return tr, nil
}

func (a *Adapter) invoiceFailed(env provider.Envelope) (provider.Translation, error) {
	in, tr, err := decodeInvoice(env)
	if err != nil || tr.Summary["subscription"] == "" {
		return tr, err
	}
	tr.Event = billing.PaymentFailed{Reference: reference(string(in.Customer), in.subscriptionID(), env)}
	return tr, nil
}

func (a *Adapter) CreateCheckout(ctx context.Context, req provider.CheckoutRequest) (provider.CheckoutLink, error) {
	if a.cfg.PriceID == "" {
		return provider.CheckoutLink{}, ErrMissingPrice
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(a.cfg.PriceID),
			Quantity: stripe.Int64(1),
		}},
		ClientReferenceID: stripe.String(req.UserID),
		Metadata:          map[string]string{metadataUserID: req.UserID},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{metadataUserID: req.UserID},
		},
	}
	if u := firstNonEmpty(req.SuccessURL, a.cfg.SuccessURL); u != "" {
		params.SuccessURL = stripe.String(u)
	}
	if u := firstNonEmpty(req.CancelURL, a.cfg.CancelURL); u != "" {
		params.CancelURL = stripe.String(u)
	}
	switch {
	case req.CustomerID != "":
		params.Customer = stripe.String(req.CustomerID)
	case req.Email != "":
		params.CustomerEmail = stripe.String(req.Email)
	}

	s, err := a.api.NewCheckoutSession(ctx, params)
	if err != nil {
		return provider.CheckoutLink{}, err
	}
	return provider.CheckoutLink{URL: s.URL, SessionID: s.ID}, nil
}

func (a *Adapter) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	return a.api.CancelAtPeriodEnd(ctx, subscriptionID)
}

func decode(env provider.Envelope, v any) error {
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", provider.ErrMalformed, env.Type, err)
	}
	return nil
}

func decodeSubscription(env provider.Envelope) (subscription, provider.Translation, error) {
	var sub subscription
	if err := decode(env, &sub); err != nil {
		return sub, provider.Translation{}, err
	}
	tr := provider.Translation{
		Identity: resolver.Identity{CustomerID: string(sub.Customer), MetadataUserID: sub.Metadata[metadataUserID]},
		Summary:  map[string]string{"customer": string(sub.Customer), "subscription": sub.ID, "status": sub.Status},
	}
	if sub.ID == "" {
		return sub, tr, fmt.Errorf("%w: subscription id", provider.ErrMissingField)
	}
	return sub, tr, nil
}

func decodeInvoice(env provider.Envelope) (invoice, provider.Translation, error) {
	var in invoice
	if err := decode(env, &in); err != nil {
		return in, provider.Translation{}, err
	}
	tr := provider.Translation{
		Identity: resolver.Identity{CustomerID: string(in.Customer), MetadataUserID: in.userID()},
		Summary:  map[string]string{"customer": string(in.Customer), "invoice": in.ID, "subscription": in.subscriptionID()},
	}
	return in, tr, nil
}

func reference(customerID, subscriptionID string, env provider.Envelope) billing.Reference {
	return billing.Reference{CustomerID: customerID, SubscriptionID: subscriptionID, OccurredAt: env.Created}
}

func activeStatus(s string) bool { return s == "active" || s == "trialing" }

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if s != "" {
			return s
		}
	}
	return ""
}
