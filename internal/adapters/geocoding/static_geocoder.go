package geocoding

import (
	"context"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"strings"
)

// StaticGeocoder answers from a fixed address table. Used for offline runs
// and tests.
type StaticGeocoder struct {
	m map[string]domain.Coordinates
}

func NewStaticGeocoder(entries map[string]domain.Coordinates) *StaticGeocoder {
	m := make(map[string]domain.Coordinates, len(entries))
	for a, c := range entries {
		m[strings.Join(strings.Fields(a), " ")] = c
	}
	return &StaticGeocoder{m: m}
}

func (s *StaticGeocoder) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	c, ok := s.m[strings.Join(strings.Fields(address), " ")]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("static geocode %q: %w", address, ErrNoMatch)
	}
	return c, nil
}
