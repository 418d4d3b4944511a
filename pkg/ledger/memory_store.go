package ledger

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty process-local ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// IsProcessed reports whether eventID was marked.
func (s *MemoryStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[eventID]
	return ok, nil
}

// MarkProcessed records e. Marking an event twice keeps the first entry.
func (s *MemoryStore) MarkProcessed(_ context.Context, e Entry) error {
	e, err := Prepare(e, time.Now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[e.EventID]; ok {
		return nil
	}
	e.Summary = maps.Clone(e.Summary)
	s.entries[e.EventID] = e
	return nil
}

// Entry returns the stored entry for eventID.
func (s *MemoryStore) Entry(eventID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[eventID]
	return e, ok
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
