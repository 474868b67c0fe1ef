package services

import (
	"context"
	"errors"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/ports"
)

// ResolveCandidates returns, ascending, the restaurants that stock every product
// referenced by the order. Quantities are ignored; only stock presence matters.
// An empty result is valid: nobody can fulfill the order.
func ResolveCandidates(
	ctx context.Context,
	order *domain.Order,
	index ports.AvailabilityIndex,
) ([]int, error) {
	if order == nil {
		return nil, errors.New("resolve candidates: order must be non-nil")
	}

	productIDs := order.ProductIDs()
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("resolve candidates: %w", &domain.OrderError{
			OrderID: order.OrderID,
			Err:     fmt.Errorf("%w: order has no items", domain.ErrInvalidRequest),
		})
	}

	ids, err := index.RestaurantsStocking(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve candidates: order %d: %w", order.OrderID, err)
	}

	return ids, nil
}
