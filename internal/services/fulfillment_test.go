package services

import (
	"context"
	"errors"
	"fmt"
	"order-fulfillment-service/internal/adapters/cache"
	"order-fulfillment-service/internal/domain"
	"testing"
	"time"
)

const (
	orderAddr = "Tverskaya 1"
	addrA     = "Pokrovka 10"
	addrB     = "Lubyanka 5"
	addrC     = "Leninsky 60"
)

var testRestaurants = []domain.Restaurant{
	{RestaurantID: 1, Name: "A", Address: addrA},
	{RestaurantID: 2, Name: "B", Address: addrB},
	{RestaurantID: 3, Name: "C", Address: addrC},
}

func allStockRecords() []domain.MenuAvailabilityRecord {
	var out []domain.MenuAvailabilityRecord
	for _, r := range testRestaurants {
		out = append(out,
			domain.MenuAvailabilityRecord{RestaurantID: r.RestaurantID, ProductID: 1, Available: true},
			domain.MenuAvailabilityRecord{RestaurantID: r.RestaurantID, ProductID: 2, Available: true},
		)
	}
	return out
}

// Addresses for the order and restaurants A and C. B is not geocodable.
func testGeocoder() *countingGeocoder {
	return newCountingGeocoder(map[string]domain.Coordinates{
		orderAddr: {Lat: 55.75, Lon: 37.62},
		addrA:     {Lat: 55.76, Lon: 37.65},
		addrC:     {Lat: 55.70, Lon: 37.50},
	})
}

func newTestResolver(t *testing.T, provider *countingGeocoder, records []domain.MenuAvailabilityRecord) *FulfillmentResolver {
	t.Helper()
	c, err := NewGeocodeCache(cache.NewMemoryGeocodeStore(), provider)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return &FulfillmentResolver{
		Index:     NewSnapshotAvailabilityIndex(records),
		Addresses: c,
		Backoff:   time.Millisecond,
	}
}

func pendingOrder(id int, address string, products ...int) *domain.Order {
	o := &domain.Order{OrderID: id, Address: address, Status: domain.OrderPending}
	for _, p := range products {
		o.Items = append(o.Items, domain.LineItem{ProductID: p, Quantity: 1})
	}
	return o
}

func TestResolveAllDropsUngeocodableRestaurant(t *testing.T) {
	r := newTestResolver(t, testGeocoder(), allStockRecords())

	results, err := r.ResolveAll(context.Background(), []*domain.Order{pendingOrder(10, orderAddr, 1, 2)}, testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, ok := results[10]
	if !ok {
		t.Fatal("order 10 missing from results")
	}
	if res.Status() != domain.StatusRanked {
		t.Fatalf("status = %s, want ranked (err=%v)", res.Status(), res.Err)
	}
	if len(res.Candidates) != 2 || res.Candidates[0].RestaurantID != 1 || res.Candidates[1].RestaurantID != 3 {
		t.Fatalf("candidates = %+v, want restaurants 1 then 3", res.Candidates)
	}
	if len(res.Dropped) != 1 || res.Dropped[0].RestaurantID != 2 || res.Dropped[0].Address != addrB {
		t.Fatalf("dropped = %+v, want restaurant 2", res.Dropped)
	}
}

func TestResolveAllOrderAddressFailureIsContained(t *testing.T) {
	r := newTestResolver(t, testGeocoder(), allStockRecords())

	orders := []*domain.Order{
		pendingOrder(10, "Nowhere 404", 1),
		pendingOrder(11, orderAddr, 1),
	}
	results, err := r.ResolveAll(context.Background(), orders, testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := results[10]
	if bad.Status() != domain.StatusResolutionError {
		t.Fatalf("status = %s, want resolution_error", bad.Status())
	}
	if !errors.Is(bad.Err, domain.ErrResolution) || !errors.Is(bad.Err, domain.ErrGeocodeFailure) {
		t.Fatalf("err = %v, want ErrResolution wrapping ErrGeocodeFailure", bad.Err)
	}
	if len(bad.Candidates) != 0 {
		t.Fatalf("candidates = %+v, want none", bad.Candidates)
	}

	if good := results[11]; good.Status() != domain.StatusRanked {
		t.Fatalf("order 11 status = %s, want ranked", good.Status())
	}
}

func TestResolveAllNoCandidates(t *testing.T) {
	provider := testGeocoder()
	r := newTestResolver(t, provider, allStockRecords())

	results, err := r.ResolveAll(context.Background(), []*domain.Order{pendingOrder(10, orderAddr, 1, 99)}, testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := results[10]
	if res.Status() != domain.StatusNoCandidates || res.Err != nil {
		t.Fatalf("status = %s err = %v, want no_candidates without error", res.Status(), res.Err)
	}
	if n := provider.TotalCalls(); n != 0 {
		t.Fatalf("provider calls = %d, want 0 when nobody can fulfill", n)
	}
}

func TestResolveAllRejectsOrderWithoutItems(t *testing.T) {
	r := newTestResolver(t, testGeocoder(), allStockRecords())

	orders := []*domain.Order{pendingOrder(10, orderAddr, 1), pendingOrder(11, orderAddr)}
	_, err := r.ResolveAll(context.Background(), orders, testRestaurants)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	var oe *domain.OrderError
	if !errors.As(err, &oe) || oe.OrderID != 11 {
		t.Fatalf("err = %v, want OrderError for order 11", err)
	}
}

func TestResolveAllSkipsProcessedOrders(t *testing.T) {
	r := newTestResolver(t, testGeocoder(), allStockRecords())

	done := pendingOrder(10, orderAddr, 1)
	done.Status = domain.OrderProcessed
	// Processed orders are not validated either.
	empty := &domain.Order{OrderID: 12, Address: orderAddr, Status: domain.OrderProcessed}

	results, err := r.ResolveAll(context.Background(), []*domain.Order{done, pendingOrder(11, orderAddr, 1), empty, nil}, testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if _, ok := results[11]; !ok {
		t.Fatal("pending order 11 missing from results")
	}
}

func TestResolveAllRetriesTransientGeocodeFailures(t *testing.T) {
	provider := testGeocoder()
	provider.failures[addrC] = 2
	r := newTestResolver(t, provider, allStockRecords())
	r.Attempts = 3

	results, err := r.ResolveAll(context.Background(), []*domain.Order{pendingOrder(10, orderAddr, 1)}, testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := results[10]
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates = %+v, want restaurants 1 and 3", res.Candidates)
	}
	if n := provider.Calls(addrC); n != 3 {
		t.Fatalf("provider calls for C = %d, want 3", n)
	}
	// B never resolves, so it is retried and still dropped.
	if n := provider.Calls(addrB); n != 3 {
		t.Fatalf("provider calls for B = %d, want 3", n)
	}
}

func TestResolveAllWithoutRetriesDropsTransientFailure(t *testing.T) {
	provider := testGeocoder()
	provider.failures[addrC] = 1
	r := newTestResolver(t, provider, allStockRecords())

	results, err := r.ResolveAll(context.Background(), []*domain.Order{pendingOrder(10, orderAddr, 1)}, testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := results[10]
	if len(res.Candidates) != 1 || res.Candidates[0].RestaurantID != 1 {
		t.Fatalf("candidates = %+v, want only restaurant 1", res.Candidates)
	}
	if len(res.Dropped) != 2 {
		t.Fatalf("dropped = %+v, want restaurants 2 and 3", res.Dropped)
	}
}

func TestResolveAllSharesGeocodesAcrossOrders(t *testing.T) {
	provider := testGeocoder()
	r := newTestResolver(t, provider, allStockRecords())
	r.Workers = 8

	var orders []*domain.Order
	for i := 0; i < 50; i++ {
		orders = append(orders, pendingOrder(100+i, orderAddr, 1, 2))
	}

	results, err := r.ResolveAll(context.Background(), orders, testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(orders) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(orders))
	}

	for _, a := range []string{orderAddr, addrA, addrC} {
		if n := provider.Calls(a); n != 1 {
			t.Fatalf("provider calls for %q = %d, want 1", a, n)
		}
	}
}

func TestResolveAllCancelledContext(t *testing.T) {
	r := newTestResolver(t, testGeocoder(), allStockRecords())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orders := []*domain.Order{pendingOrder(10, orderAddr, 1), pendingOrder(11, orderAddr, 2)}
	results, err := r.ResolveAll(ctx, orders, testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, o := range orders {
		res := results[o.OrderID]
		if res.Status() != domain.StatusResolutionError {
			t.Fatalf("order %d status = %s, want resolution_error", o.OrderID, res.Status())
		}
		if !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("order %d err = %v, want Canceled", o.OrderID, res.Err)
		}
	}
}

func TestResolveOrderUnknownRestaurantIsDropped(t *testing.T) {
	records := append(allStockRecords(), domain.MenuAvailabilityRecord{RestaurantID: 99, ProductID: 1, Available: true})
	r := newTestResolver(t, testGeocoder(), records)

	res, err := r.ResolveOrder(context.Background(), pendingOrder(10, orderAddr, 1), testRestaurants)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, d := range res.Dropped {
		if d.RestaurantID == 99 {
			found = true
		}
	}
	if !found {
		t.Fatalf("dropped = %+v, want restaurant 99", res.Dropped)
	}
}

// badAddresses returns coordinates no geocode cache would accept.
type badAddresses struct{}

func (badAddresses) ResolveMany(_ context.Context, addresses []string) (map[string]domain.Coordinates, map[string]error) {
	out := make(map[string]domain.Coordinates, len(addresses))
	for i, a := range addresses {
		out[a] = domain.Coordinates{Lat: 100 + float64(i), Lon: 0}
	}
	return out, map[string]error{}
}

func TestResolveAllInvalidCoordinatesAbortPass(t *testing.T) {
	r := &FulfillmentResolver{
		Index:     NewSnapshotAvailabilityIndex(allStockRecords()),
		Addresses: badAddresses{},
	}

	_, err := r.ResolveAll(context.Background(), []*domain.Order{pendingOrder(10, orderAddr, 1)}, testRestaurants)
	if !errors.Is(err, domain.ErrInvalidCoordinates) {
		t.Fatalf("err = %v, want ErrInvalidCoordinates", err)
	}
}

type brokenIndex struct{}

func (brokenIndex) RestaurantsStocking(context.Context, []int) ([]int, error) {
	return nil, fmt.Errorf("index offline")
}

func TestResolveAllIndexErrorAbortsPass(t *testing.T) {
	r := &FulfillmentResolver{Index: brokenIndex{}, Addresses: badAddresses{}}

	if _, err := r.ResolveAll(context.Background(), []*domain.Order{pendingOrder(10, orderAddr, 1)}, testRestaurants); err == nil {
		t.Fatal("expected error from broken index")
	}
}

func TestFulfillmentResolverRequiresDependencies(t *testing.T) {
	r := &FulfillmentResolver{}
	if _, err := r.ResolveAll(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for resolver without dependencies")
	}
	if _, err := r.ResolveOrder(context.Background(), pendingOrder(1, orderAddr, 1), nil); err == nil {
		t.Fatal("expected error for resolver without dependencies")
	}
}
