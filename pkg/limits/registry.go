package limits

import (
	"context"
	"fmt"
)

// CounterFunc returns the current usage of a resource for subjectID.
type CounterFunc func(ctx context.Context, subjectID string) (int64, error)

// CounterRegistry maps a Resource to its CounterFunc.
// Not safe for concurrent registration: register every counter at startup.
type CounterRegistry map[Resource]CounterFunc

// NewRegistry returns an empty CounterRegistry.
func NewRegistry() CounterRegistry {
	return make(CounterRegistry)
}

// Register sets or replaces the counter for res. It panics on a nil fn.
func (r CounterRegistry) Register(res Resource, fn CounterFunc) {
	if fn == nil {
		panic(fmt.Sprintf("limits: CounterFunc for resource %q cannot be nil", res))
	}
	r[res] = fn
}
