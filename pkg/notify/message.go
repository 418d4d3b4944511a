package notify

import (
	"context"
	"time"

	"github.com/dmitrymomot/subsync/pkg/billing"
)

// TypeSubscriptionUpdated is the message type sent after a committed change.
const TypeSubscriptionUpdated = "subscription.updated"

// Message is the payload sent to clients.
type Message struct {
	Type   string         `json:"type"`
	Status billing.Status `json:"subscription_status"`
	Expiry *time.Time     `json:"subscription_expiry"`
}

// SubscriptionUpdated builds the message for rec. Expiry is the trial end
// for trial plans and the paid period end otherwise.
func SubscriptionUpdated(rec billing.Record) Message {
	expiry := rec.PaidUntil
	if rec.Plan == billing.PlanTrial {
		expiry = rec.TrialEndsAt
	}
	return Message{Type: TypeSubscriptionUpdated, Status: rec.Status, Expiry: expiry}
}

// Notifier delivers a message to a user's connections.
type Notifier interface {
	Notify(ctx context.Context, userID string, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID string, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, userID string, msg Message) error {
	return f(ctx, userID, msg)
}
