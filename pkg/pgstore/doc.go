// Package pgstore implements billing.Store, ledger.Store and usage.Counter
// on PostgreSQL through pgx.
//
// Every store takes a DB, which *pgxpool.Pool and pgx.Tx both satisfy.
//
// # Tables
//
//	subscriptions     one row per user, unique partial index on the
//	                  external customer id
//	processed_events  the idempotency ledger, keyed by event id
//	usage_counters    one row per user and day
//
// Migrations are embedded and applied with pg.Migrate:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations(), log); err != nil {
//	    return err
//	}
//
//	records := pgstore.NewRecordStore(pool)
//	processed := pgstore.NewLedgerStore(pool)
//	counter := pgstore.NewUsageCounter(pool)
//
// # Records
//
// Create inserts the default free record and returns the stored one when
// the user already exists. Swap is a compare-and-set on the version column:
// the update only matches the row at prev.Version and bumps it, so two
// writers that read the same version cannot both succeed; the loser gets
// billing.ErrVersionConflict and re-reads. A customer id already linked to
// another user fails with billing.ErrCustomerConflict, for both
// LinkCustomer and Swap.
//
// # Ledger and usage
//
// The ledger insert is ON CONFLICT DO NOTHING, so marking an event twice is
// a no-op and the first outcome is kept. Usage increments are a single
// upsert that returns the new count, which keeps concurrent increments
// exact.
package pgstore
