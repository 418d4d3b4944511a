package stripe

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/dmitrymomot/subsync/pkg/provider"
)

// API is the part of the Stripe API the adapter calls.
type API interface {
	// Subscription returns the raw JSON of a subscription.
	Subscription(ctx context.Context, id string) (json.RawMessage, error)
	CancelAtPeriodEnd(ctx context.Context, id string) error
	NewCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type sdkAPI struct {
	c *client.API
}

// NewAPI returns an API backed by the official client.
func NewAPI(secretKey string) API {
	return &sdkAPI{c: client.New(secretKey, nil)}
}

func (a *sdkAPI) Subscription(ctx context.Context, id string) (json.RawMessage, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx
	sub, err := a.c.Subscriptions.Get(id, params)
	if err != nil {
		return nil, errors.Join(provider.ErrAPI, err)
	}
	if sub.LastResponse != nil && len(sub.LastResponse.RawJSON) > 0 {
		return sub.LastResponse.RawJSON, nil
	}
	raw, err := json.Marshal(sub)
	if err != nil {
		return nil, errors.Join(provider.ErrAPI, err)
	}
	return raw, nil
}

func (a *sdkAPI) CancelAtPeriodEnd(ctx context.Context, id string) error {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	if _, err := a.c.Subscriptions.Update(id, params); err != nil {
		return errors.Join(provider.ErrAPI, err)
	}
	return nil
}

func (a *sdkAPI) NewCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	s, err := a.c.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.Join(provider.ErrAPI, err)
	}
	return s, nil
}
