package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/obs"
	"time"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

type orsGeocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder implements the Geocoder port using OpenRouteService (/geocode/search).
// It is safe for concurrent use.
type ORSGeocoder struct {
	session *http.Client
	apiKey  string
	baseURL string
	country string
}

type ORSOption func(*ORSGeocoder)

func WithORSBaseURL(u string) ORSOption { return func(o *ORSGeocoder) { o.baseURL = u } }

// Restrict results to an ISO country code, e.g. "RU".
func WithORSCountry(c string) ORSOption { return func(o *ORSGeocoder) { o.country = c } }

func WithORSHTTPClient(c *http.Client) ORSOption { return func(o *ORSGeocoder) { o.session = c } }

func NewORSGeocoder(apiKey string, opts ...ORSOption) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	g := &ORSGeocoder{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: defaultORSBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Geocode resolves one address to its best match.
func (o *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	req, err := newRequest(ctx, o.baseURL+"/geocode/search")
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors geocode: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)

	q := req.URL.Query()
	q.Set("text", address)
	q.Set("size", "1")
	if o.country != "" {
		q.Set("boundary.country", o.country)
	}
	req.URL.RawQuery = q.Encode()

	var decoded orsGeocodeResponse
	if err := getJSON(o.session, req, &decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: %w", address, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: %w", address, ErrNoMatch)
	}

	// GeoJSON order is [lon, lat].
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("ors geocode %q: invalid coordinate format", address)
	}

	return domain.Coordinates{Lat: coords[1], Lon: coords[0]}, nil
}
