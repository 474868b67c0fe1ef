package services

import (
	"fmt"
	"math"
	"order-fulfillment-service/internal/domain"
	"slices"
)

// Mean Earth radius used for all distances, fixed for reproducibility.
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// Rounding can push h marginally above 1 for antipodal points.
	h = math.Min(1, h)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// RankCandidates orders candidates nearest-first from origin.
//
// Equal distances are ordered by restaurant id so the result is deterministic.
// Any out-of-range coordinate fails the whole call with domain.ErrInvalidCoordinates.
func RankCandidates(
	origin domain.Coordinates,
	candidates map[int]domain.Coordinates,
) ([]domain.FulfillmentCandidate, error) {
	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("rank candidates: origin: %w", err)
	}

	out := make([]domain.FulfillmentCandidate, 0, len(candidates))
	for id, c := range candidates {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("rank candidates: restaurant %d: %w", id, err)
		}
		out = append(out, domain.FulfillmentCandidate{
			RestaurantID: id,
			DistanceKm:   Haversine(origin, c),
		})
	}

	slices.SortFunc(out, func(a, b domain.FulfillmentCandidate) int {
		if a.DistanceKm < b.DistanceKm {
			return -1
		}
		if a.DistanceKm > b.DistanceKm {
			return 1
		}
		return a.RestaurantID - b.RestaurantID
	})

	return out, nil
}
