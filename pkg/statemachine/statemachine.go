package statemachine

import (
	"context"
	"fmt"
)

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action executes side effects during a transition. Returning an error aborts it.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass for transition to proceed
	Actions []Action[S, E] // Executed in order; the first error aborts
}

// Table is a transition table. It holds no current state: callers pass the
// state they loaded and persist the state Fire returns, which keeps the table
// shareable across goroutines once built.
type Table[S, E comparable] struct {
	transitions map[S]map[E][]Transition[S, E]
}

// Option configures a single transition with guards and actions.
type Option[S, E comparable] func(*Transition[S, E])

// WithGuard adds a guard to the transition.
func WithGuard[S, E comparable](g Guard[S, E]) Option[S, E] {
	return func(t *Transition[S, E]) {
		if g != nil {
			t.Guards = append(t.Guards, g)
		}
	}
}

// WithAction adds an action to the transition.
func WithAction[S, E comparable](a Action[S, E]) Option[S, E] {
	return func(t *Transition[S, E]) {
		if a != nil {
			t.Actions = append(t.Actions, a)
		}
	}
}

// New creates an empty transition table.
func New[S, E comparable]() *Table[S, E] {
	return &Table[S, E]{transitions: make(map[S]map[E][]Transition[S, E])}
}

// Add registers a transition. Must not be called once the table is in use.
// Several transitions for the same (from, event) are tried in registration
// order; the first whose guards pass wins.
func (t *Table[S, E]) Add(from, to S, event E, opts ...Option[S, E]) *Table[S, E] {
	tr := Transition[S, E]{From: from, To: to, Event: event}
	for _, opt := range opts {
		opt(&tr)
	}
	if _, ok := t.transitions[from]; !ok {
		t.transitions[from] = make(map[E][]Transition[S, E])
	}
	t.transitions[from][event] = append(t.transitions[from][event], tr)
	return t
}

// Fire resolves the transition for (from, event), runs its actions and returns the target state.
func (t *Table[S, E]) Fire(ctx context.Context, from S, event E, data any) (S, error) {
	tr, err := t.resolve(ctx, from, event, data)
	if err != nil {
		return from, err
	}

	for _, action := range tr.Actions {
		if err := action(ctx, from, tr.To, event, data); err != nil {
			return from, fmt.Errorf("action failed: %w", err)
		}
	}
	return tr.To, nil
}

// CanFire reports whether Fire would find a transition whose guards pass.
func (t *Table[S, E]) CanFire(ctx context.Context, from S, event E, data any) bool {
	_, err := t.resolve(ctx, from, event, data)
	return err == nil
}

// Events lists the events with at least one transition out of from.
func (t *Table[S, E]) Events(from S) []E {
	out := make([]E, 0, len(t.transitions[from]))
	for e := range t.transitions[from] {
		out = append(out, e)
	}
	return out
}

func (t *Table[S, E]) resolve(ctx context.Context, from S, event E, data any) (*Transition[S, E], error) {
	candidates := t.transitions[from][event]
	if len(candidates) == 0 {
		return nil, NewErrNoTransitionAvailable(from, event)
	}

	for i := range candidates {
		passed := true
		for _, guard := range candidates[i].Guards {
			if !guard(ctx, from, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return &candidates[i], nil
		}
	}
	return nil, NewErrTransitionRejected(from, event)
}
