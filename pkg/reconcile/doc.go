// Package reconcile is the event ingestion gateway and the user-facing
// subscription actions.
//
// # Webhook pipeline
//
// HandleWebhook runs one delivery through the pipeline:
//
//	registry lookup -> verify -> in-flight lock -> ledger check -> translate
//	-> resolve user -> commit transition -> reset usage on renewal
//	-> push to live connections -> mark ledger
//
// The ledger is marked last. A failure at any earlier step returns an error
// and leaves the event unmarked so the provider's retry runs the pipeline
// again; every transition is safe to re-apply. Events that cannot be
// attributed to a user are reported as anomalies and never applied. The
// anomaly carries the redacted summary of the event, not its body.
//
// The in-flight lock keys on provider and event id. A second delivery of an
// event that is still being processed fails with ErrInFlight, which the HTTP
// layer answers with a retryable status. MemoryLocker serves one process;
// redisstore.Locker shares the lock between instances.
//
// Each Result names the outcome: applied, duplicate, ignored or rejected.
// Rejected events violated the subscription policy (a second trial, for
// example); they are marked so the provider stops retrying them.
//
// # Wiring
//
//	engine, err := reconcile.New(reconcile.Deps{
//	    Registry: registry,
//	    Records:  records,
//	    Ledger:   processed,
//	    Machine:  billing.NewMachine(policy),
//	},
//	    reconcile.WithLogger(log),
//	    reconcile.WithLocker(locker),
//	    reconcile.WithNotifier(hub),
//	    reconcile.WithAnomalyReporter(reporter),
//	    reconcile.WithBillingProvider(adapter),
//	    reconcile.WithUsage(tracker),
//	)
//
// Deps are required. Options default to a process-local lock, no pushes,
// log-only anomalies and no usage; Checkout and ConsumeImage fail with a
// typed error until their option is set.
//
// # User actions
//
// StartTrial, Cancel, Checkout, Status and ConsumeImage serve the client.
// They go through the same state machine as webhook events and push the
// change to live connections. Status lazily moves records whose access
// lapsed back to the free plan, and reports today's usage under the plan
// that currently applies.
package reconcile
