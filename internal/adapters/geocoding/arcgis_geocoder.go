package geocoding

import (
	"context"
	"fmt"
	"net/http"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/obs"
	"time"
)

const defaultArcGISBaseURL = "https://geocode.arcgis.com"

type arcgisResponse struct {
	Candidates []struct {
		Address  string  `json:"address"`
		Score    float64 `json:"score"`
		Location struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
	} `json:"candidates"`
	// ArcGIS reports some failures in a 200 body.
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ArcGISGeocoder implements the Geocoder port with the ArcGIS World
// geocoding service (findAddressCandidates). A token is optional for
// non-stored lookups.
type ArcGISGeocoder struct {
	session *http.Client
	baseURL string
	token   string
}

type ArcGISOption func(*ArcGISGeocoder)

func WithArcGISBaseURL(u string) ArcGISOption { return func(a *ArcGISGeocoder) { a.baseURL = u } }

func WithArcGISToken(t string) ArcGISOption { return func(a *ArcGISGeocoder) { a.token = t } }

func WithArcGISHTTPClient(c *http.Client) ArcGISOption {
	return func(a *ArcGISGeocoder) { a.session = c }
}

func NewArcGISGeocoder(opts ...ArcGISOption) *ArcGISGeocoder {
	g := &ArcGISGeocoder{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultArcGISBaseURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (a *ArcGISGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "arcgis.Geocode")(&err)

	req, err := newRequest(ctx, a.baseURL+"/arcgis/rest/services/World/GeocodeServer/findAddressCandidates")
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("arcgis geocode: %w", err)
	}

	q := req.URL.Query()
	q.Set("SingleLine", address)
	q.Set("f", "json")
	q.Set("maxLocations", "1")
	q.Set("outFields", "none")
	if a.token != "" {
		q.Set("token", a.token)
	}
	req.URL.RawQuery = q.Encode()

	var decoded arcgisResponse
	if err := getJSON(a.session, req, &decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("arcgis geocode %q: %w", address, err)
	}

	if decoded.Error != nil {
		return domain.Coordinates{}, fmt.Errorf("arcgis geocode %q: %w", address, &httpStatusError{
			Code: decoded.Error.Code,
			Body: decoded.Error.Message,
		})
	}

	if len(decoded.Candidates) == 0 {
		return domain.Coordinates{}, fmt.Errorf("arcgis geocode %q: %w", address, ErrNoMatch)
	}

	loc := decoded.Candidates[0].Location
	return domain.Coordinates{Lat: loc.Y, Lon: loc.X}, nil
}
