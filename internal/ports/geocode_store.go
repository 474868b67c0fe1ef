package ports

import (
	"context"
	"order-fulfillment-service/internal/domain"
)

// Persistent address -> coordinates storage behind the geocode cache.
// Keys are normalized addresses. Entries are append-only: PutMany must not
// overwrite an existing key.
type GeocodeStore interface {
	// Return the cached coordinates for the addresses that are present.
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	// Store entries whose address is not cached yet.
	PutMany(ctx context.Context, entries map[string]domain.Coordinates) error
}
