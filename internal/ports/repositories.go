package ports

import (
	"context"
	"order-fulfillment-service/internal/domain"
)

// Port: read access to orders owned by order intake.
type OrderRepository interface {
	// Retrieve all orders waiting to be processed.
	ListPendingOrders(ctx context.Context) ([]*domain.Order, error)
	// Retrieve a single order, or domain.ErrNotFound.
	GetOrder(ctx context.Context, orderID int) (*domain.Order, error)
}

// Port: read access to restaurants and their menus.
type RestaurantRepository interface {
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	ListAvailability(ctx context.Context) ([]domain.MenuAvailabilityRecord, error)
}
