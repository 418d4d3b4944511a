// Package mongostore implements ledger.Store on a MongoDB collection.
//
// The event id is the document _id, so a second insert of the same event
// fails with a duplicate key and is treated as already marked: MarkProcessed
// is idempotent without a read before the write.
//
// EnsureIndexes creates an index on the resolved user and processing time and, when a retention
// is configured, a TTL index on the processing time. Expired entries are
// removed by the server; an event older than the retention may then be
// applied again if the provider redelivers it, which every transition
// tolerates.
//
// # Usage
//
//	store := mongostore.NewLedgerStore(db, mongostore.DefaultCollection,
//	    mongostore.WithRetention(90*24*time.Hour),
//	)
//	if err := store.EnsureIndexes(ctx); err != nil {
//	    return err
//	}
//
//	seen, err := store.IsProcessed(ctx, "evt_1")
//
// Lookup returns the stored entry, which operators use when investigating a
// delivery.
package mongostore
