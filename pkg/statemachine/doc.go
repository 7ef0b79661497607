// Package statemachine provides a small, typed finite state machine built as a
// transition table.
//
// A Table does not own a current state. Fire takes the state a caller loaded
// from storage, evaluates guards, runs actions and returns the next state,
// which the caller persists. This fits records whose state lives in a database
// row rather than in memory.
//
//	type status string
//	type event string
//
//	table := statemachine.New[status, event]().
//		Add("draft", "published", "publish",
//			statemachine.WithGuard(func(ctx context.Context, from status, e event, data any) bool {
//				return data.(*Post).Title != ""
//			}),
//		).
//		Add("published", "archived", "archive")
//
//	next, err := table.Fire(ctx, post.Status, "publish", post)
//	switch {
//	case statemachine.IsNoTransitionAvailableError(err):
//		// event not allowed from this state
//	case statemachine.IsTransitionRejectedError(err):
//		// a guard refused
//	}
//
// Transitions registered for the same (from, event) pair are tried in order, so
// guards can branch one event to different targets.
package statemachine
