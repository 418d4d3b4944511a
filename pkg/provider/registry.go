package provider

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps webhook registration tokens to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register binds token to a.
func (r *Registry) Register(token string, a Adapter) error {
	if token == "" {
		return ErrEmptyRegistration
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.adapters[token]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRegistration, token)
	}
	r.adapters[token] = a
	return nil
}

// Lookup returns the adapter bound to token.
func (r *Registry) Lookup(token string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[token]
	if !ok {
		return nil, ErrUnknownRegistration
	}
	return a, nil
}

// Tokens returns the registered tokens in sorted order.
func (r *Registry) Tokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for t := range r.adapters {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
