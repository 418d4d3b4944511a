package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/provider"
	"github.com/dmitrymomot/subsync/pkg/usage"
)

// Subscription is the subscription part of the status view.
type Subscription struct {
	Plan        billing.Plan   `json:"plan"`
	Status      billing.Status `json:"status"`
	IsActive    bool           `json:"isActive"`
	IsPremium   bool           `json:"isPremium"`
	TrialEndsAt *time.Time     `json:"trialEndsAt"`
	PaidUntil   *time.Time     `json:"paidUntil"`
	Credits     int            `json:"credits"`
}

// StatusView is what the client UI consumes.
type StatusView struct {
	Subscription Subscription    `json:"subscription"`
	Usage        *usage.Snapshot `json:"usage,omitempty"`
}

// StartTrial starts the free trial of userID.
func (e *Engine) StartTrial(ctx context.Context, userID string) (StatusView, error) {
	if _, err := e.ensure(ctx, userID); err != nil {
		return StatusView{}, err
	}
	out, err := e.act(ctx, userID, billing.StartTrial{})
	if err != nil {
		return StatusView{}, err
	}
	return e.view(ctx, out.After)
}

// Cancel ends the subscription of userID at the end of the current period.
// Paid subscriptions are canceled at the provider before the record changes.
func (e *Engine) Cancel(ctx context.Context, userID string) (StatusView, error) {
	rec, err := e.ensure(ctx, userID)
	if err != nil {
		return StatusView{}, err
	}

	// Reject early so the provider is never asked to cancel what the policy
	// would not allow.
	if _, err := e.machine.Apply(rec, billing.Cancel{}, e.now()); err != nil {
		return StatusView{}, err
	}

	if rec.Plan == billing.PlanPaid && rec.ExternalSubscriptionID != "" {
		if e.provider == nil {
			return StatusView{}, ErrNoBillingProvider
		}
		if err := e.provider.CancelAtPeriodEnd(ctx, rec.ExternalSubscriptionID); err != nil {
			e.logger.LogAttrs(ctx, slog.LevelError, "provider cancellation failed",
				logger.Component("reconcile"),
				logger.UserID(userID),
				logger.Provider(e.provider.Name()),
				logger.Error(err),
			)
			return StatusView{}, errors.Join(ErrProviderCancel, err)
		}
	}

	out, err := e.act(ctx, userID, billing.Cancel{})
	if err != nil {
		return StatusView{}, err
	}
	return e.view(ctx, out.After)
}

// Status returns the current view of userID. Records whose access has ended
// are moved back to the free plan first.
func (e *Engine) Status(ctx context.Context, userID string) (StatusView, error) {
	rec, err := e.ensure(ctx, userID)
	if err != nil {
		return StatusView{}, err
	}

	now := e.now()
	if rec.Plan != billing.PlanFree && !e.machine.IsActive(rec, now) {
		out, err := e.machine.Commit(ctx, e.records, userID, billing.Lapse{}, now)
		switch {
		case err == nil:
			rec = out.After
			if out.Changed {
				e.push(ctx, rec)
			}
		case billing.IsPolicyViolation(err):
			// Active subscriptions waiting for a renewal event stay as they are.
		default:
			return StatusView{}, fmt.Errorf("lapse subscription: %w", err)
		}
	}
	return e.view(ctx, rec)
}

// CheckoutOptions are the caller-supplied parts of a checkout.
type CheckoutOptions struct {
	Email      string
	SuccessURL string
	CancelURL  string
}

// Checkout creates a hosted checkout for userID at the billing provider.
func (e *Engine) Checkout(ctx context.Context, userID string, opts CheckoutOptions) (provider.CheckoutLink, error) {
	if e.provider == nil {
		return provider.CheckoutLink{}, ErrNoBillingProvider
	}
	rec, err := e.ensure(ctx, userID)
	if err != nil {
		return provider.CheckoutLink{}, err
	}
	if rec.Plan == billing.PlanPaid && rec.Status == billing.StatusActive && e.machine.IsActive(rec, e.now()) {
		return provider.CheckoutLink{}, ErrAlreadySubscribed
	}

	link, err := e.provider.CreateCheckout(ctx, provider.CheckoutRequest{
		UserID:     userID,
		CustomerID: rec.ExternalCustomerID,
		Email:      opts.Email,
		SuccessURL: opts.SuccessURL,
		CancelURL:  opts.CancelURL,
	})
	if err != nil {
		return provider.CheckoutLink{}, err
	}
	e.logger.LogAttrs(ctx, slog.LevelInfo, "checkout created",
		logger.Component("reconcile"),
		logger.UserID(userID),
		logger.Provider(e.provider.Name()),
		slog.String("session_id", link.SessionID),
	)
	return link, nil
}

// ConsumeImage counts one image against the daily quota of a free user.
func (e *Engine) ConsumeImage(ctx context.Context, userID string) (usage.Snapshot, error) {
	if e.usage == nil {
		return usage.Snapshot{}, ErrUsageNotConfigured
	}
	rec, err := e.ensure(ctx, userID)
	if err != nil {
		return usage.Snapshot{}, err
	}
	now := e.now()
	return e.usage.ConsumeImage(ctx, userID, usageTier(e.machine.Config().Access(rec, now)), now)
}

// usageTier is the plan whose limits apply: a lapsed trial or subscription
// counts as free.
func usageTier(acc billing.Access) billing.Plan {
	if acc.IsPremium {
		return acc.Plan
	}
	return billing.PlanFree
}

func (e *Engine) ensure(ctx context.Context, userID string) (billing.Record, error) {
	if userID == "" {
		return billing.Record{}, ErrInvalidUserID
	}
	return e.records.Create(ctx, userID)
}

func (e *Engine) act(ctx context.Context, userID string, ev billing.Event) (billing.Outcome, error) {
	out, err := e.machine.Commit(ctx, e.records, userID, ev, e.now())
	if err != nil {
		level := slog.LevelError
		if billing.IsPolicyViolation(err) {
			level = slog.LevelInfo
		}
		e.logger.LogAttrs(ctx, level, "user action failed",
			logger.Component("reconcile"),
			logger.UserID(userID),
			slog.String("action", string(ev.Kind())),
			logger.Error(err),
		)
		return out, err
	}
	if out.Changed {
		e.push(ctx, out.After)
	}
	return out, nil
}

func (e *Engine) view(ctx context.Context, rec billing.Record) (StatusView, error) {
	now := e.now()
	acc := e.machine.Config().Access(rec, now)
	v := StatusView{Subscription: Subscription{
		Plan:        acc.Plan,
		Status:      acc.Status,
		IsActive:    acc.IsActive,
		IsPremium:   acc.IsPremium,
		TrialEndsAt: acc.TrialEndsAt,
		PaidUntil:   acc.PaidUntil,
		Credits:     rec.Credits,
	}}
	if e.usage != nil {
		snap, err := e.usage.Snapshot(ctx, rec.UserID, usageTier(acc), now)
		if err != nil {
			return StatusView{}, err
		}
		v.Usage = &snap
	}
	return v, nil
}
