// Package billing holds the authoritative subscription record of a user and
// the pure transition logic that moves it between plans and statuses.
//
// A Record is changed only through Machine.Apply, which maps (record, domain
// event, now) to a new record, and Machine.Commit, which persists the result
// with a single compare-and-set against the stored version. Every transition
// is safe to re-apply: replaying an event that was already applied leaves the
// record untouched and reports Outcome.Changed == false.
//
// Domain events form a closed set (see Event). Provider adapters translate
// billing-provider payloads into these events; nothing in this package knows
// about any provider's wire format.
//
// Policy violations, such as starting a second trial, are returned as
// *PolicyError. They are expected outcomes, not failures of the process:
//
//	out, err := machine.Commit(ctx, store, userID, billing.StartTrial{}, now)
//	if billing.IsPolicyViolation(err) {
//		// tell the caller why; nothing was written
//	}
package billing
