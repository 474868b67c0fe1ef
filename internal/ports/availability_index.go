package ports

import "context"

// Read-only view over menu availability.
type AvailabilityIndex interface {
	// Return, ascending, the restaurants that currently stock every given product.
	// An empty product list fails with domain.ErrInvalidRequest.
	RestaurantsStocking(ctx context.Context, productIDs []int) ([]int, error)
}
