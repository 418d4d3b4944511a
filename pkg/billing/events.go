package billing

import "time"

// Kind names a domain event.
type Kind string

const (
	KindStartTrial            Kind = "start_trial"
	KindCancel                Kind = "cancel"
	KindLapse                 Kind = "lapse"
	KindCheckoutCompleted     Kind = "checkout_completed"
	KindSubscriptionActivated Kind = "subscription_activated"
	KindSubscriptionDeleted   Kind = "subscription_deleted"
	KindPaymentSucceeded      Kind = "payment_succeeded"
	KindPaymentFailed         Kind = "payment_failed"
)

// Event is one of the domain events below. The set is closed: only types in
// this package implement it.
type Event interface {
	Kind() Kind
	sealed()
}

// ProviderEvent is an Event that originated at the billing provider.
type ProviderEvent interface {
	Event
	Ref() Reference
}

// Reference identifies the provider objects an event refers to.
type Reference struct {
	CustomerID     string
	SubscriptionID string
	// OccurredAt is the provider's creation time of the event.
	OccurredAt time.Time
}

// Ref returns r.
func (r Reference) Ref() Reference { return r }

// StartTrial is the user action starting the free trial.
type StartTrial struct{}

// Cancel is the user action cancelling the subscription. Access continues
// until the paid period lapses.
type Cancel struct{}

// Lapse moves a record whose access has ended back to the free plan.
type Lapse struct{}

// CheckoutCompleted reports a finished subscription checkout whose
// subscription is active or trialing.
type CheckoutCompleted struct {
	Reference
	PeriodEnd time.Time
}

// SubscriptionActivated reports a subscription created or updated into an
// active or trialing status.
type SubscriptionActivated struct {
	Reference
	PeriodEnd time.Time
	// CancelAtPeriodEnd keeps a user-cancelled subscription in the canceled
	// status while the provider still reports it active.
	CancelAtPeriodEnd bool
}

// SubscriptionDeleted reports a subscription that has ended at the provider.
type SubscriptionDeleted struct {
	Reference
}

// PaymentSucceeded reports a paid invoice of a subscription; a new billing
// period has begun.
type PaymentSucceeded struct {
	Reference
	PeriodEnd time.Time
}

// PaymentFailed reports a failed invoice payment.
type PaymentFailed struct {
	Reference
}

func (StartTrial) Kind() Kind            { return KindStartTrial }
func (Cancel) Kind() Kind                { return KindCancel }
func (Lapse) Kind() Kind                 { return KindLapse }
func (CheckoutCompleted) Kind() Kind     { return KindCheckoutCompleted }
func (SubscriptionActivated) Kind() Kind { return KindSubscriptionActivated }
func (SubscriptionDeleted) Kind() Kind   { return KindSubscriptionDeleted }
func (PaymentSucceeded) Kind() Kind      { return KindPaymentSucceeded }
func (PaymentFailed) Kind() Kind         { return KindPaymentFailed }

func (StartTrial) sealed()            {}
func (Cancel) sealed()                {}
func (Lapse) sealed()                 {}
func (CheckoutCompleted) sealed()     {}
func (SubscriptionActivated) sealed() {}
func (SubscriptionDeleted) sealed()   {}
func (PaymentSucceeded) sealed()      {}
func (PaymentFailed) sealed()         {}
