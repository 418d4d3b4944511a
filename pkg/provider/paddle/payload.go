package paddle

import (
	"encoding/json"
	"time"
)

const customDataUserID = "user_id"

type notification struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type period struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type customData map[string]any

func (c customData) userID() string {
	s, _ := c[customDataUserID].(string)
	return s
}

type subscription struct {
	ID                   string     `json:"id"`
	Status               string     `json:"status"`
	CustomerID           string     `json:"customer_id"`
	TransactionID        string     `json:"transaction_id"`
	CustomData           customData `json:"custom_data"`
	CurrentBillingPeriod *period    `json:"current_billing_period"`
	ScheduledChange      *struct {
		Action      string    `json:"action"`
		EffectiveAt time.Time `json:"effective_at"`
	} `json:"scheduled_change"`
}

func (s subscription) periodEnd() time.Time {
	if s.CurrentBillingPeriod == nil {
		return time.Time{}
	}
	return s.CurrentBillingPeriod.EndsAt.UTC()
}

func (s subscription) cancelScheduled() bool {
	return s.ScheduledChange != nil && s.ScheduledChange.Action == "cancel"
}

type transaction struct {
	ID             string     `json:"id"`
	Status         string     `json:"status"`
	CustomerID     string     `json:"customer_id"`
	SubscriptionID string     `json:"subscription_id"`
	CustomData     customData `json:"custom_data"`
	BillingPeriod  *period    `json:"billing_period"`
}

func (t transaction) periodEnd() time.Time {
	if t.BillingPeriod == nil {
		return time.Time{}
	}
	return t.BillingPeriod.EndsAt.UTC()
}
