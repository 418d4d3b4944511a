// Package stripe adapts Stripe webhooks and APIs to the provider boundary.
//
// Deliveries are verified with the Stripe-Signature header. Event objects are
// decoded into small local types that hold only what the subscription domain
// needs, covering both the current API shape (period end on subscription
// items, invoice parent details) and the legacy one. A checkout event embeds
// only the subscription id, so the subscription is fetched to learn its
// status and period end.
package stripe
