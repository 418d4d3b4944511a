package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/resolver"
)

// Envelope is a verified provider event.
type Envelope struct {
	ID      string
	Type    string
	Created time.Time
	// Data is the event's object payload.
	Data json.RawMessage
}

// Translation is what an envelope means for the domain.
type Translation struct {
	// Event is nil when the envelope carries nothing to apply.
	Event     billing.Event
	Identity  resolver.Identity
	SessionID string
	Summary   map[string]string
}

// Ignored reports whether there is nothing to apply.
func (t Translation) Ignored() bool { return t.Event == nil }

// Adapter verifies and translates webhook deliveries of one provider.
type Adapter interface {
	Name() string
	// SignatureHeader is the HTTP header carrying the delivery signature.
	SignatureHeader() string
	// Verify authenticates payload and parses its envelope.
	Verify(payload []byte, signature string) (Envelope, error)
	// Translate maps env to a domain event. It may call the provider API
	// for objects the payload does not embed.
	Translate(ctx context.Context, env Envelope) (Translation, error)
}

// CheckoutRequest starts a hosted checkout for a user.
type CheckoutRequest struct {
	UserID     string
	CustomerID string
	Email      string
	SuccessURL string
	CancelURL  string
}

// CheckoutLink is a hosted checkout session.
type CheckoutLink struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

// Billing is an adapter that can also act on the provider.
type Billing interface {
	Adapter
	// CreateCheckout embeds req.UserID as correlation metadata.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (CheckoutLink, error)
	// CancelAtPeriodEnd asks the provider to end subscriptionID when the
	// current period is over.
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}
