package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/metrics"
	"order-fulfillment-service/internal/platform/obs"
	"order-fulfillment-service/internal/ports"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AddressResolver resolves a batch of addresses, reporting per-address failures.
// *GeocodeCache is the production implementation.
type AddressResolver interface {
	ResolveMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, map[string]error)
}

const (
	defaultResolverWorkers = 4
	defaultGeocodeBackoff  = 200 * time.Millisecond
)

// FulfillmentResolver finds, for each pending order, the restaurants that can
// fulfill it and ranks them nearest-first from the delivery address.
//
// It only reads orders and restaurants. Geocode failures are contained to the
// address (a dropped restaurant) or the order (a resolution error); caller
// defects such as an order without items or out-of-range coordinates abort
// the pass.
type FulfillmentResolver struct {
	Index     ports.AvailabilityIndex
	Addresses AddressResolver
	// Orders resolved concurrently. Defaults to 4.
	Workers int
	// Geocode attempts per address within one pass, including the first. Defaults to 1.
	Attempts int
	// Delay before the first geocode retry, doubled for each further retry. Defaults to 200ms.
	Backoff time.Duration
}

// ResolveAll resolves every pending order in orders. Orders in any other
// status are skipped and absent from the result.
//
// When ctx is cancelled, orders that had not started carry a resolution error;
// orders already resolved keep their results.
func (r *FulfillmentResolver) ResolveAll(
	ctx context.Context,
	orders []*domain.Order,
	restaurants []domain.Restaurant,
) (_ map[int]domain.OrderResolution, err error) {
	defer obs.Time(ctx, "fulfillment.ResolveAll")(&err)

	if err := r.validate(); err != nil {
		return nil, err
	}

	pending := make([]*domain.Order, 0, len(orders))
	for _, o := range orders {
		if o == nil || !o.IsPending() {
			continue
		}
		if len(o.Items) == 0 {
			return nil, fmt.Errorf("resolve all: %w", &domain.OrderError{
				OrderID: o.OrderID,
				Err:     fmt.Errorf("%w: order has no items", domain.ErrInvalidRequest),
			})
		}
		pending = append(pending, o)
	}

	byID := restaurantsByID(restaurants)

	results := make(map[int]domain.OrderResolution, len(pending))
	var mu sync.Mutex
	record := func(res domain.OrderResolution) {
		metrics.OrderResolutions.WithLabelValues(string(res.Status())).Inc()
		mu.Lock()
		results[res.OrderID] = res
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())

	for _, o := range pending {
		o := o
		g.Go(func() error {
			if cerr := gctx.Err(); cerr != nil {
				record(domain.OrderResolution{
					OrderID: o.OrderID,
					Err:     fmt.Errorf("%w: order %d not resolved: %w", domain.ErrResolution, o.OrderID, cerr),
				})
				return nil
			}

			res, err := r.resolveOrder(gctx, o, byID)
			if err != nil {
				return err
			}
			record(res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve all: %w", err)
	}

	return results, nil
}

// ResolveOrder resolves a single order regardless of its status.
func (r *FulfillmentResolver) ResolveOrder(
	ctx context.Context,
	order *domain.Order,
	restaurants []domain.Restaurant,
) (_ domain.OrderResolution, err error) {
	defer obs.Time(ctx, "fulfillment.ResolveOrder")(&err)

	if err := r.validate(); err != nil {
		return domain.OrderResolution{}, err
	}
	if order == nil {
		return domain.OrderResolution{}, errors.New("resolve order: order must be non-nil")
	}

	res, err := r.resolveOrder(ctx, order, restaurantsByID(restaurants))
	if err != nil {
		return domain.OrderResolution{}, err
	}
	metrics.OrderResolutions.WithLabelValues(string(res.Status())).Inc()
	return res, nil
}

func (r *FulfillmentResolver) resolveOrder(
	ctx context.Context,
	order *domain.Order,
	restaurants map[int]domain.Restaurant,
) (domain.OrderResolution, error) {
	res := domain.OrderResolution{
		OrderID:    order.OrderID,
		Candidates: []domain.FulfillmentCandidate{},
		Dropped:    []domain.DroppedCandidate{},
	}

	ids, err := ResolveCandidates(ctx, order, r.Index)
	if err != nil {
		return domain.OrderResolution{}, err
	}
	if len(ids) == 0 {
		return res, nil
	}

	eligible := make([]domain.Restaurant, 0, len(ids))
	for _, id := range ids {
		rest, ok := restaurants[id]
		if !ok {
			res.Dropped = append(res.Dropped, domain.DroppedCandidate{RestaurantID: id, Reason: "unknown restaurant"})
			continue
		}
		eligible = append(eligible, rest)
	}

	addresses := make([]string, 0, 1+len(eligible))
	addresses = append(addresses, order.Address)
	for _, rest := range eligible {
		addresses = append(addresses, rest.Address)
	}

	coords, failures := r.resolveAddresses(ctx, addresses)

	if gerr, ok := failures[order.Address]; ok {
		res.Candidates = nil
		res.Err = fmt.Errorf("%w: order %d delivery address: %w", domain.ErrResolution, order.OrderID, gerr)
		return res, nil
	}
	origin := coords[order.Address]

	positions := make(map[int]domain.Coordinates, len(eligible))
	for _, rest := range eligible {
		if gerr, ok := failures[rest.Address]; ok {
			log.Printf(
				"req_id=%s order_id=%d restaurant_id=%d dropped candidate: %v",
				obs.RequestID(ctx), order.OrderID, rest.RestaurantID, gerr,
			)
			metrics.DroppedCandidates.Inc()
			res.Dropped = append(res.Dropped, domain.DroppedCandidate{
				RestaurantID: rest.RestaurantID,
				Address:      rest.Address,
				Reason:       gerr.Error(),
			})
			continue
		}
		positions[rest.RestaurantID] = coords[rest.Address]
	}

	ranked, err := RankCandidates(origin, positions)
	if err != nil {
		return domain.OrderResolution{}, fmt.Errorf("resolve order %d: %w", order.OrderID, err)
	}
	res.Candidates = ranked

	return res, nil
}

// resolveAddresses geocodes addresses, retrying failed ones with exponential
// backoff while attempts remain and ctx is live.
func (r *FulfillmentResolver) resolveAddresses(
	ctx context.Context,
	addresses []string,
) (map[string]domain.Coordinates, map[string]error) {
	coords, failures := r.Addresses.ResolveMany(ctx, addresses)
	backoff := r.backoff()

	for attempt := 2; attempt <= r.attempts() && len(failures) > 0; attempt++ {
		retry := make([]string, 0, len(failures))
		for a := range failures {
			// Addresses that normalize to nothing will never geocode.
			if NormalizeAddress(a) != "" {
				retry = append(retry, a)
			}
		}
		if len(retry) == 0 {
			break
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return coords, failures
		case <-timer.C:
		}

		more, stillFailed := r.Addresses.ResolveMany(ctx, retry)
		for a, c := range more {
			coords[a] = c
			delete(failures, a)
		}
		for a, e := range stillFailed {
			failures[a] = e
		}

		backoff *= 2
	}

	return coords, failures
}

func (r *FulfillmentResolver) validate() error {
	if r.Index == nil {
		return errors.New("fulfillment resolver: availability index is nil")
	}
	if r.Addresses == nil {
		return errors.New("fulfillment resolver: address resolver is nil")
	}
	return nil
}

func (r *FulfillmentResolver) workers() int {
	if r.Workers <= 0 {
		return defaultResolverWorkers
	}
	return r.Workers
}

func (r *FulfillmentResolver) attempts() int {
	if r.Attempts <= 0 {
		return 1
	}
	return r.Attempts
}

func (r *FulfillmentResolver) backoff() time.Duration {
	if r.Backoff <= 0 {
		return defaultGeocodeBackoff
	}
	return r.Backoff
}

func restaurantsByID(restaurants []domain.Restaurant) map[int]domain.Restaurant {
	byID := make(map[int]domain.Restaurant, len(restaurants))
	for _, rest := range restaurants {
		byID[rest.RestaurantID] = rest
	}
	return byID
}
