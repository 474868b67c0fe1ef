package cache

import (
	"context"
	"order-fulfillment-service/internal/domain"
	"sync"
)

// MemoryGeocodeStore keeps entries in process memory. The first write for an
// address wins. Used for local runs and tests.
type MemoryGeocodeStore struct {
	mu sync.RWMutex
	m  map[string]domain.Coordinates
}

func NewMemoryGeocodeStore() *MemoryGeocodeStore {
	return &MemoryGeocodeStore{m: make(map[string]domain.Coordinates)}
}

func (s *MemoryGeocodeStore) GetMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]domain.Coordinates, len(addresses))
	for _, a := range addresses {
		if c, ok := s.m[a]; ok {
			out[a] = c
		}
	}
	return out, nil
}

func (s *MemoryGeocodeStore) PutMany(_ context.Context, entries map[string]domain.Coordinates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for a, c := range entries {
		if _, ok := s.m[a]; ok {
			continue
		}
		s.m[a] = c
	}
	return nil
}

func (s *MemoryGeocodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
