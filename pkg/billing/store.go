package billing

import "context"

// Store persists subscription records.
type Store interface {
	// Create inserts the initial record for userID unless one exists and
	// returns the stored record either way.
	Create(ctx context.Context, userID string) (Record, error)
	// Get returns ErrRecordNotFound for unknown users.
	Get(ctx context.Context, userID string) (Record, error)
	// FindByCustomer returns the record linked to an external customer id,
	// or ErrRecordNotFound.
	FindByCustomer(ctx context.Context, customerID string) (Record, error)
	// LinkCustomer attaches customerID to userID. Re-linking the same pair is
	// a no-op; a different existing link on either side is ErrCustomerConflict.
	LinkCustomer(ctx context.Context, userID, customerID string) error
	// Swap stores next if the stored version still equals prev.Version and
	// returns it with the incremented version. Otherwise ErrVersionConflict.
	Swap(ctx context.Context, prev, next Record) (Record, error)
}
