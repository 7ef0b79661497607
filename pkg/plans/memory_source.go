package plans

import (
	"context"
	"sync"
)

type inMemSource struct {
	mu    sync.RWMutex
	plans map[ID]Plan
}

// NewInMemSource returns an in-memory Source with a deep copy of the given plans.
// Panics if no plans are provided so the catalog always has something to serve.
func NewInMemSource(plans ...Plan) Source {
	if len(plans) < 1 {
		panic("plans: at least one plan is required")
	}
	copied := make(map[ID]Plan, len(plans))
	for _, p := range plans {
		copied[p.ID] = p.clone()
	}
	return &inMemSource{plans: copied}
}

// Load returns a copy of all plans so callers cannot modify the source's state.
func (s *inMemSource) Load(ctx context.Context) (map[ID]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(map[ID]Plan, len(s.plans))
	for id, p := range s.plans {
		copied[id] = p.clone()
	}
	return copied, nil
}
