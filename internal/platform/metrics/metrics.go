package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// GeocodeCacheLookups counts cache lookups by result: hit, miss, shared.
	GeocodeCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "geocode_cache_lookups_total", Help: "Geocode cache lookups by result."},
		[]string{"result"},
	)
	// GeocodeProviderRequests counts external provider calls by outcome.
	GeocodeProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "geocode_provider_requests_total", Help: "External geocoding provider calls by outcome."},
		[]string{"outcome"},
	)
	// GeocodeProviderDuration records provider call latency in seconds.
	GeocodeProviderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "geocode_provider_duration_seconds", Help: "External geocoding provider latency in seconds.", Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10}},
	)
	// OrderResolutions counts resolved orders by status.
	OrderResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "order_resolutions_total", Help: "Resolved orders by status."},
		[]string{"status"},
	)
	// DroppedCandidates counts restaurants dropped from rankings.
	DroppedCandidates = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "dropped_candidates_total", Help: "Eligible restaurants dropped because their address could not be geocoded."},
	)
	// HTTPRequests counts requests by method, route, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "route", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route"},
	)
)

// RegisterDefault registers the collectors once on Registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(GeocodeCacheLookups)
		Registry.MustRegister(GeocodeProviderRequests)
		Registry.MustRegister(GeocodeProviderDuration)
		Registry.MustRegister(OrderResolutions)
		Registry.MustRegister(DroppedCandidates)
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
