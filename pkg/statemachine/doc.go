// Package statemachine implements a stateless, generic transition table.
//
// A Table maps (from state, event) to a target state. Each rule may carry
// named guards evaluated against caller-supplied data; the first rule whose
// guards all pass wins. Because the table holds no current state it can be
// shared by concurrent callers that each resolve their own transition:
//
//	table := statemachine.New[State, Kind, Input]().
//		Permit(KindStartTrial, trialing, []State{free}, neverTrialed)
//
//	next, err := table.Next(current, KindStartTrial, input)
//	switch {
//	case statemachine.IsNoTransitionAvailableError(err):
//	case statemachine.IsTransitionRejectedError(err):
//	}
package statemachine
