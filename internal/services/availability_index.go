package services

import (
	"context"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"slices"
)

// SnapshotAvailabilityIndex answers stock queries from an in-memory copy of
// the menu availability records taken at construction time.
// It is read-only after construction and safe for concurrent use.
type SnapshotAvailabilityIndex struct {
	// product -> restaurants with the product available
	byProduct map[int]map[int]struct{}
}

// Build an index from availability records.
// A later record for the same (restaurant, product) pair replaces an earlier one.
func NewSnapshotAvailabilityIndex(records []domain.MenuAvailabilityRecord) *SnapshotAvailabilityIndex {
	type pair struct{ restaurant, product int }

	latest := make(map[pair]bool, len(records))
	for _, r := range records {
		latest[pair{r.RestaurantID, r.ProductID}] = r.Available
	}

	byProduct := make(map[int]map[int]struct{})
	for p, available := range latest {
		if !available {
			continue
		}
		set, ok := byProduct[p.product]
		if !ok {
			set = make(map[int]struct{})
			byProduct[p.product] = set
		}
		set[p.restaurant] = struct{}{}
	}

	return &SnapshotAvailabilityIndex{byProduct: byProduct}
}

// Return, ascending, the restaurants that stock every product in productIDs.
func (x *SnapshotAvailabilityIndex) RestaurantsStocking(_ context.Context, productIDs []int) ([]int, error) {
	if len(productIDs) == 0 {
		return nil, fmt.Errorf("restaurants stocking: %w: product list is empty", domain.ErrInvalidRequest)
	}

	products := slices.Clone(productIDs)
	slices.Sort(products)
	products = slices.Compact(products)

	// Start from the rarest product so the intersection shrinks fastest.
	slices.SortFunc(products, func(a, b int) int {
		return len(x.byProduct[a]) - len(x.byProduct[b])
	})

	out := make([]int, 0)
	for restaurantID := range x.byProduct[products[0]] {
		stocksAll := true
		for _, p := range products[1:] {
			if _, ok := x.byProduct[p][restaurantID]; !ok {
				stocksAll = false
				break
			}
		}
		if stocksAll {
			out = append(out, restaurantID)
		}
	}

	slices.Sort(out)
	return out, nil
}
