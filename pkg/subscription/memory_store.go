package subscription

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps subscription versions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string][]Subscription
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string][]Subscription)}
}

func (s *MemoryStore) Current(_ context.Context, userID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.versions[userID]
	if len(rows) == 0 {
		return nil, ErrNoSubscription
	}
	sub := rows[len(rows)-1].clone()
	return &sub, nil
}

func (s *MemoryStore) Append(_ context.Context, sub Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.versions[sub.UserID]
	if sub.Version != len(rows)+1 {
		return fmt.Errorf("%w: version %d for user %s", ErrConcurrentUpdate, sub.Version, sub.UserID)
	}
	s.versions[sub.UserID] = append(rows, sub.clone())
	return nil
}

func (s *MemoryStore) History(_ context.Context, userID string) ([]Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.versions[userID]
	out := make([]Subscription, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].clone())
	}
	return out, nil
}

func (s *MemoryStore) UserByProviderSubID(_ context.Context, providerSubID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if providerSubID == "" {
		return "", ErrNoSubscription
	}
	for userID, rows := range s.versions {
		for _, r := range rows {
			if r.ProviderSubID == providerSubID {
				return userID, nil
			}
		}
	}
	return "", ErrNoSubscription
}
