package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobbyai/planguard/pkg/plans"
)

// MemoryStore keeps usage in process memory. Suitable for tests and
// single-instance deployments; every operation holds one mutex, which makes
// IncrementIfBelow atomic.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
	credits map[string][]Credit
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		credits: make(map[string][]Credit),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[key.String()]; ok {
		return r.Count, nil
	}
	return 0, nil
}

func (s *MemoryStore) Increment(_ context.Context, key Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.incrementLocked(key), nil
}

func (s *MemoryStore) IncrementIfBelow(_ context.Context, key Key, limit int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if r, ok := s.records[key.String()]; ok {
		current = r.Count
	}
	if current >= limit {
		return current, false, nil
	}
	return s.incrementLocked(key), true, nil
}

func (s *MemoryStore) Credits(_ context.Context, key Key) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, c := range s.credits[key.String()] {
		total = addCapped(total, c.Units)
	}
	return total, nil
}

func (s *MemoryStore) AddCredit(_ context.Context, credit Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := credit.Key.String()
	s.credits[k] = append(s.credits[k], credit)
	return nil
}

func (s *MemoryStore) History(_ context.Context, userID string, feature plans.Feature) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0)
	for _, r := range s.records {
		if r.UserID == userID && r.Feature == feature {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PeriodStart.After(out[j].PeriodStart)
	})
	return out, nil
}

func (s *MemoryStore) incrementLocked(key Key) int64 {
	now := s.now().UTC()
	k := key.String()
	r, ok := s.records[k]
	if !ok {
		r = &Record{
			ID:          uuid.New(),
			UserID:      key.UserID,
			Feature:     key.Feature,
			PeriodStart: key.Period.Start,
			PeriodEnd:   key.Period.End,
			CreatedAt:   now,
		}
		s.records[k] = r
	}
	r.Count++
	r.UpdatedAt = now
	return r.Count
}
