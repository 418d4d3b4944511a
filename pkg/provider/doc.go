// Package provider is the boundary between billing providers and the
// subscription domain.
//
// An Adapter verifies a webhook delivery, turns it into a typed Envelope and
// translates the envelope into one of the closed set of billing events plus
// the identity needed to attribute it. Provider wire formats never leave the
// adapter packages (provider/stripe, provider/paddle); the rest of the
// service only sees billing.Event values.
//
// # Translation
//
// Translate returns a Translation whose Event is nil for deliveries that
// carry nothing to apply; those are acknowledged and recorded as ignored. A
// delivery that lacks a field needed to apply it fails with ErrMissingField
// and is reported as an anomaly rather than half-applied. ErrAPI marks a
// failed call to the provider; such a delivery is left for the provider to
// retry.
//
//	env, err := adapter.Verify(body, r.Header.Get(adapter.SignatureHeader()))
//	if errors.Is(err, provider.ErrSignature) {
//	    // 400, nothing touched
//	}
//	tr, err := adapter.Translate(ctx, env)
//	if tr.Ignored() {
//	    // acknowledge
//	}
//
// Summary on a Translation is a small set of fields worth keeping in the
// ledger. It is redacted by ledger.Summarize before being stored.
//
// # Registry
//
// Registry maps the webhook registration token in the ingress URL
// (POST /webhooks/{registration}) to the adapter configured for it. Tokens
// are unique; an unknown token fails with ErrUnknownRegistration.
//
//	registry := provider.NewRegistry()
//	if err := registry.Register("stripe", adapter); err != nil {
//	    return err
//	}
//
// # Outbound calls
//
// Billing extends Adapter with the calls the service makes to the provider:
// a hosted checkout carrying the user id as correlation metadata, and
// cancellation at the end of the current period.
package provider
