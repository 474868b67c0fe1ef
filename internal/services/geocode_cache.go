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
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultGeocodeTimeout = 10 * time.Second
	defaultGeocodeFanout  = 4
)

// GeocodeCache resolves addresses to coordinates through a persistent store,
// calling the external provider only on a miss.
//
// Concurrent misses for the same normalized address share one provider call.
// Entries are never updated or evicted. The cache is safe for concurrent use
// and is meant to be constructed once and shared by all resolver workers.
type GeocodeCache struct {
	store    ports.GeocodeStore
	provider ports.Geocoder
	timeout  time.Duration
	fanout   int
	sf       singleflight.Group
}

type GeocodeCacheOption func(*GeocodeCache)

// Bound each provider call. Defaults to 10s.
func WithGeocodeTimeout(d time.Duration) GeocodeCacheOption {
	return func(c *GeocodeCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Limit concurrent misses resolved by one ResolveMany call. Defaults to 4.
func WithGeocodeFanout(n int) GeocodeCacheOption {
	return func(c *GeocodeCache) {
		if n > 0 {
			c.fanout = n
		}
	}
}

func NewGeocodeCache(store ports.GeocodeStore, provider ports.Geocoder, opts ...GeocodeCacheOption) (*GeocodeCache, error) {
	if store == nil {
		return nil, errors.New("geocode cache: store is nil")
	}
	if provider == nil {
		return nil, errors.New("geocode cache: provider is nil")
	}

	c := &GeocodeCache{
		store:    store,
		provider: provider,
		timeout:  defaultGeocodeTimeout,
		fanout:   defaultGeocodeFanout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeAddress trims and collapses whitespace. Case is preserved, so
// keys are case-sensitive for both reads and writes.
func NormalizeAddress(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Resolve returns the coordinates for address, geocoding and storing them on a miss.
// Failures wrap domain.ErrGeocodeFailure and are never cached.
func (c *GeocodeCache) Resolve(ctx context.Context, address string) (domain.Coordinates, error) {
	key := NormalizeAddress(address)
	if key == "" {
		return domain.Coordinates{}, fmt.Errorf("%w: address %q is empty after normalization", domain.ErrGeocodeFailure, address)
	}

	if coord, ok := c.lookup(ctx, []string{key})[key]; ok {
		metrics.GeocodeCacheLookups.WithLabelValues("hit").Inc()
		return coord, nil
	}

	return c.fetch(ctx, key)
}

// ResolveMany resolves several addresses with a single store read for the hits.
// Both returned maps are keyed by the addresses as given; every input address
// appears in exactly one of them.
func (c *GeocodeCache) ResolveMany(
	ctx context.Context,
	addresses []string,
) (map[string]domain.Coordinates, map[string]error) {
	var err error
	defer obs.Time(ctx, "geocode.cache.ResolveMany")(&err)

	coords := make(map[string]domain.Coordinates, len(addresses))
	failures := make(map[string]error)

	// normalized key -> raw addresses that map to it
	byKey := make(map[string][]string, len(addresses))
	keys := make([]string, 0, len(addresses))
	for _, a := range addresses {
		key := NormalizeAddress(a)
		if key == "" {
			failures[a] = fmt.Errorf("%w: address %q is empty after normalization", domain.ErrGeocodeFailure, a)
			continue
		}
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = append(byKey[key], a)
	}

	if len(keys) == 0 {
		return coords, failures
	}

	hits := c.lookup(ctx, keys)

	misses := make([]string, 0, len(keys))
	for _, key := range keys {
		coord, ok := hits[key]
		if !ok {
			misses = append(misses, key)
			continue
		}
		metrics.GeocodeCacheLookups.WithLabelValues("hit").Inc()
		for _, a := range byKey[key] {
			coords[a] = coord
		}
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, c.fanout)

	for _, key := range misses {
		wg.Add(1)
		go func(key string) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			coord, ferr := c.fetch(ctx, key)

			mu.Lock()
			defer mu.Unlock()
			for _, a := range byKey[key] {
				if ferr != nil {
					failures[a] = ferr
					continue
				}
				coords[a] = coord
			}
		}(key)
	}
	wg.Wait()

	if len(failures) > 0 {
		err = fmt.Errorf("%d of %d addresses failed", len(failures), len(addresses))
	}
	return coords, failures
}

// lookup reads the store. Read errors are logged and treated as misses.
func (c *GeocodeCache) lookup(ctx context.Context, keys []string) map[string]domain.Coordinates {
	hits, err := c.store.GetMany(ctx, keys)
	if err != nil {
		log.Printf("req_id=%s geocode cache read failed: %v", obs.RequestID(ctx), err)
		return map[string]domain.Coordinates{}
	}
	return hits
}

// fetch resolves a cache miss. Callers for the same key share one flight; the
// flight is detached from the caller's cancellation so its result still lands
// in the store, while a cancelled caller stops waiting for it.
func (c *GeocodeCache) fetch(ctx context.Context, key string) (domain.Coordinates, error) {
	ch := c.sf.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		// A previous flight may have stored the key after our lookup.
		if coord, ok := c.lookup(flightCtx, []string{key})[key]; ok {
			metrics.GeocodeCacheLookups.WithLabelValues("hit").Inc()
			return coord, nil
		}

		metrics.GeocodeCacheLookups.WithLabelValues("miss").Inc()
		coord, err := c.callProvider(flightCtx, key)
		if err != nil {
			return nil, err
		}

		if err := c.store.PutMany(flightCtx, map[string]domain.Coordinates{key: coord}); err != nil {
			log.Printf("req_id=%s geocode cache write failed address=%q: %v", obs.RequestID(ctx), key, err)
		}
		return coord, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.GeocodeCacheLookups.WithLabelValues("shared").Inc()
		}
		if res.Err != nil {
			return domain.Coordinates{}, fmt.Errorf("%w: %q: %w", domain.ErrGeocodeFailure, key, res.Err)
		}
		return res.Val.(domain.Coordinates), nil
	case <-ctx.Done():
		return domain.Coordinates{}, fmt.Errorf("%w: %q: %w", domain.ErrGeocodeFailure, key, ctx.Err())
	}
}

func (c *GeocodeCache) callProvider(ctx context.Context, key string) (domain.Coordinates, error) {
	start := time.Now()
	coord, err := c.provider.Geocode(ctx, key)
	metrics.GeocodeProviderDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		metrics.GeocodeProviderRequests.WithLabelValues(outcome).Inc()
		return domain.Coordinates{}, fmt.Errorf("provider: %w", err)
	}

	// Provider output is untrusted; reject it rather than cache garbage.
	if coord.Validate() != nil {
		metrics.GeocodeProviderRequests.WithLabelValues("invalid").Inc()
		return domain.Coordinates{}, fmt.Errorf("provider returned out-of-range coordinates lat=%v lon=%v", coord.Lat, coord.Lon)
	}

	metrics.GeocodeProviderRequests.WithLabelValues("ok").Inc()
	return coord, nil
}
