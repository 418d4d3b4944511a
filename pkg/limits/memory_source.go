package limits

import (
	"context"
	"sync"
)

// Source loads the plan catalogue.
type Source interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

type inMemSource struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewInMemSource returns a Source holding a deep copy of plans.
func NewInMemSource(plans map[string]Plan) Source {
	cp := make(map[string]Plan, len(plans))
	for id, p := range plans {
		cp[id] = p.clone()
	}
	return &inMemSource{plans: cp}
}

// Load returns a deep copy of the plans.
func (s *inMemSource) Load(context.Context) (map[string]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make(map[string]Plan, len(s.plans))
	for id, p := range s.plans {
		cp[id] = p.clone()
	}
	return cp, nil
}
