package billing

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[string]Record
	customers map[string]string // customer id -> user id
	now       func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[string]Record),
		customers: make(map[string]string),
		now:       time.Now,
	}
}

// Create stores the default record for userID unless one exists and
// returns the stored record.
func (s *MemoryStore) Create(_ context.Context, userID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[userID]; ok {
		return r, nil
	}
	r := NewRecord(userID)
	r.Version = 1
	r.UpdatedAt = s.now()
	s.records[userID] = r
	return r, nil
}

// Get returns the record of userID or ErrRecordNotFound.
func (s *MemoryStore) Get(_ context.Context, userID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[userID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return r, nil
}

// FindByCustomer returns the record linked to customerID or
// ErrRecordNotFound.
func (s *MemoryStore) FindByCustomer(_ context.Context, customerID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.customers[customerID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return s.records[userID], nil
}

// LinkCustomer links customerID to userID. Relinking the same pair is a
// no-op; a customer or user already linked elsewhere fails with
// ErrCustomerConflict.
func (s *MemoryStore) LinkCustomer(_ context.Context, userID, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[userID]
	if !ok {
		return ErrRecordNotFound
	}
	if owner, linked := s.customers[customerID]; linked && owner != userID {
		return ErrCustomerConflict
	}
	switch r.ExternalCustomerID {
	case customerID:
		s.customers[customerID] = userID
		return nil
	case "":
	default:
		return ErrCustomerConflict
	}

	r.ExternalCustomerID = customerID
	r.Version++
	r.UpdatedAt = s.now()
	s.records[userID] = r
	s.customers[customerID] = userID
	return nil
}

// Swap replaces the record stored at prev.Version with next and bumps the
// version. A stale prev fails with ErrVersionConflict.
func (s *MemoryStore) Swap(_ context.Context, prev, next Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.records[prev.UserID]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	if cur.Version != prev.Version {
		return Record{}, ErrVersionConflict
	}
	if next.ExternalCustomerID != "" {
		if owner, linked := s.customers[next.ExternalCustomerID]; linked && owner != prev.UserID {
			return Record{}, ErrCustomerConflict
		}
	}

	next.UserID = prev.UserID
	next.Version = cur.Version + 1
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = s.now()
	}
	s.records[prev.UserID] = next
	if next.ExternalCustomerID != "" {
		s.customers[next.ExternalCustomerID] = prev.UserID
	}
	return next, nil
}
