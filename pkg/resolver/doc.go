// Package resolver attributes external billing identities to internal users.
//
// An Identity carries what a provider event knows about its customer: the
// external customer id and, for checkout events, the user id embedded as
// correlation metadata when the checkout was created.
//
// Resolution looks up the user already linked to the external customer id
// and falls back to the metadata user id, linking the customer to that user
// for later lookups. It never guesses: when neither source yields a known
// user, or the two disagree, Resolve fails with ErrUnresolved or
// ErrIdentityMismatch and nothing is written.
//
//	r := resolver.New(records, resolver.WithLogger(log))
//	res, err := r.Resolve(ctx, resolver.Identity{
//	    CustomerID:     "cus_123",
//	    MetadataUserID: "user_42",
//	})
//	switch {
//	case resolver.IsResolutionFailure(err):
//	    // report an anomaly; do not apply the event
//	case err != nil:
//	    // store failure; let the provider retry
//	}
//
// Resolution.Linked reports whether this call created the customer link.
// Linking is idempotent, so a retried delivery links the same
// pair again without error.
package resolver
