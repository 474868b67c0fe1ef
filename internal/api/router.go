package api

import (
	"net/http"
	"order-fulfillment-service/internal/api/handlers"
	"order-fulfillment-service/internal/platform/metrics"
	"order-fulfillment-service/internal/ports"
	"order-fulfillment-service/internal/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	orders ports.OrderRepository,
	restaurants ports.RestaurantRepository,
	resolver *services.FulfillmentResolver,
) http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)

	restaurantHandler := &handlers.RestaurantHandler{Repo: restaurants}
	candidatesHandler := &handlers.CandidatesHandler{
		Orders:      orders,
		Restaurants: restaurants,
		Resolver:    resolver,
	}

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.HandleFunc("/restaurants", restaurantHandler.List).Methods(http.MethodGet)
	r.HandleFunc("/orders/candidates", candidatesHandler.ListPending).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}/candidates", candidatesHandler.ForOrder).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)
	r.NotFoundHandler = http.HandlerFunc(handlers.NotFound)

	return r
}
