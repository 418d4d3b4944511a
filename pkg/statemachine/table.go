package statemachine

import "fmt"

// Guard decides whether a rule applies to data.
type Guard[S comparable, E comparable, D any] struct {
	Name  string
	Allow func(from S, event E, data D) bool
}

type rule[S comparable, E comparable, D any] struct {
	from   map[S]struct{}
	to     S
	guards []Guard[S, E, D]
}

// Table is an immutable-after-build set of transition rules.
// Build it once with Permit during initialisation; Next and Can are safe for
// concurrent use afterwards.
type Table[S comparable, E comparable, D any] struct {
	rules map[E][]rule[S, E, D]
}

// New returns an empty table.
func New[S comparable, E comparable, D any]() *Table[S, E, D] {
	return &Table[S, E, D]{rules: make(map[E][]rule[S, E, D])}
}

// Permit adds a rule moving any of from to `to` on event when all guards pass.
// Rules for the same event are tried in the order they were added.
func (t *Table[S, E, D]) Permit(event E, to S, from []S, guards ...Guard[S, E, D]) *Table[S, E, D] {
	if len(from) == 0 {
		panic(fmt.Sprintf("statemachine: rule for event %v has no source states", event))
	}
	set := make(map[S]struct{}, len(from))
	for _, s := range from {
		set[s] = struct{}{}
	}
	t.rules[event] = append(t.rules[event], rule[S, E, D]{from: set, to: to, guards: guards})
	return t
}

// Next resolves the target state for event fired in from.
func (t *Table[S, E, D]) Next(from S, event E, data D) (S, error) {
	var rejectedBy string
	matched := false

	for _, r := range t.rules[event] {
		if _, ok := r.from[from]; !ok {
			continue
		}
		matched = true
		if g, ok := r.firstFailing(from, event, data); !ok {
			rejectedBy = g
			continue
		}
		return r.to, nil
	}

	var zero S
	if !matched {
		return zero, &ErrNoTransitionAvailable{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}
	return zero, &ErrTransitionRejected{State: fmt.Sprint(from), Event: fmt.Sprint(event), Guard: rejectedBy}
}

// Can reports whether Next would succeed.
func (t *Table[S, E, D]) Can(from S, event E, data D) bool {
	_, err := t.Next(from, event, data)
	return err == nil
}

func (r rule[S, E, D]) firstFailing(from S, event E, data D) (string, bool) {
	for _, g := range r.guards {
		if g.Allow != nil && !g.Allow(from, event, data) {
			return g.Name, false
		}
	}
	return "", true
}
