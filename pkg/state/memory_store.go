package state

import (
	"context"
	"sync"

	params "github.com/goliatone/go-params"
)

// MemoryStore is an in-process params.Store. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]any
}

var _ ListingStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store seeded with initial.
func NewMemoryStore(initial map[string]any) *MemoryStore {
	s := &MemoryStore{values: make(map[string]any, len(initial))}
	for key, value := range initial {
		s.values[key] = value
	}
	return s
}

func (s *MemoryStore) Has(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok, nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return nil, params.ErrNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	return filterKeys(keys, prefix), nil
}
