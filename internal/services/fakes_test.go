package services

import (
	"context"
	"errors"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"sync"
)

var errProviderDown = errors.New("provider down")

// countingGeocoder records provider calls per address. Addresses listed in
// failures fail until their remaining failure count reaches zero (-1 = always).
type countingGeocoder struct {
	mu       sync.Mutex
	entries  map[string]domain.Coordinates
	failures map[string]int
	calls    map[string]int

	// When set, Geocode signals started once and blocks until release is closed
	// or ctx is done.
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newCountingGeocoder(entries map[string]domain.Coordinates) *countingGeocoder {
	return &countingGeocoder{
		entries:  entries,
		failures: map[string]int{},
		calls:    map[string]int{},
	}
}

func (g *countingGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	g.mu.Lock()
	g.calls[address]++
	g.mu.Unlock()

	if g.release != nil {
		g.once.Do(func() { close(g.started) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return domain.Coordinates{}, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if n, ok := g.failures[address]; ok && n != 0 {
		if n > 0 {
			g.failures[address] = n - 1
		}
		return domain.Coordinates{}, errProviderDown
	}

	c, ok := g.entries[address]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("no match for %q", address)
	}
	return c, nil
}

func (g *countingGeocoder) Calls(address string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[address]
}

func (g *countingGeocoder) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.calls {
		n += c
	}
	return n
}

// failingStore fails every read and write.
type failingStore struct{}

func (failingStore) GetMany(context.Context, []string) (map[string]domain.Coordinates, error) {
	return nil, errors.New("store unavailable")
}

func (failingStore) PutMany(context.Context, map[string]domain.Coordinates) error {
	return errors.New("store unavailable")
}

// lateStore hides its entries from the first read, as when another instance
// writes the address between a lookup and the shared re-check.
type lateStore struct {
	mu    sync.Mutex
	reads int
	m     map[string]domain.Coordinates
}

func (s *lateStore) GetMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	out := make(map[string]domain.Coordinates)
	if s.reads == 1 {
		return out, nil
	}
	for _, a := range addresses {
		if c, ok := s.m[a]; ok {
			out[a] = c
		}
	}
	return out, nil
}

func (s *lateStore) PutMany(context.Context, map[string]domain.Coordinates) error { return nil }
