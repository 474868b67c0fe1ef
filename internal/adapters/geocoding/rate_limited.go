package geocoding

import (
	"context"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/ports"

	"golang.org/x/time/rate"
)

// RateLimitedGeocoder spaces out calls to a provider that throttles clients.
// Waiting counts against the caller's context deadline.
type RateLimitedGeocoder struct {
	next    ports.Geocoder
	limiter *rate.Limiter
}

func NewRateLimitedGeocoder(next ports.Geocoder, perSecond float64, burst int) *RateLimitedGeocoder {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGeocoder{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimitedGeocoder) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.Coordinates{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.Geocode(ctx, address)
}
