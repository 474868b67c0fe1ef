package ports

import (
	"context"
	"order-fulfillment-service/internal/domain"
)

// Contract for the external geocoding provider.
// Implementations are treated as slow and unreliable.
type Geocoder interface {
	// Return coordinates for a free-text address.
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
