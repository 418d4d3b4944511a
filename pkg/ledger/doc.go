// Package ledger records which external billing events were fully
// processed.
//
// An entry is written only after every side effect of its event has been
// committed, so presence of an entry means the event can be acknowledged
// without running the pipeline again. MarkProcessed treats a concurrent
// insert of the same event id as success.
//
//	seen, err := store.IsProcessed(ctx, envelope.ID)
//	if seen {
//		return // duplicate delivery
//	}
//	// ... apply effects ...
//	err = store.MarkProcessed(ctx, ledger.Entry{EventID: envelope.ID, EventType: envelope.Type})
//
// MemoryStore serves tests and single-process deployments; pgstore and
// mongostore provide durable implementations.
package ledger
