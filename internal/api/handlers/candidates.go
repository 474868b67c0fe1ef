package handlers

import (
	"errors"
	"log"
	"math"
	"net/http"
	"order-fulfillment-service/internal/api/dto"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/obs"
	"order-fulfillment-service/internal/ports"
	"order-fulfillment-service/internal/services"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// CandidatesHandler serves ranked fulfillment candidates for the order review screen.
type CandidatesHandler struct {
	Orders      ports.OrderRepository
	Restaurants ports.RestaurantRepository
	// Resolver used for single orders; its Index reads live availability.
	Resolver *services.FulfillmentResolver
}

// ListPending resolves every pending order against one availability snapshot.
func (h *CandidatesHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orders, err := h.Orders.ListPendingOrders(ctx)
	if err != nil {
		h.internalError(w, r, "list pending orders", err)
		return
	}

	restaurants, err := h.Restaurants.ListRestaurants(ctx)
	if err != nil {
		h.internalError(w, r, "list restaurants", err)
		return
	}

	records, err := h.Restaurants.ListAvailability(ctx)
	if err != nil {
		h.internalError(w, r, "list availability", err)
		return
	}

	// Availability is read once per pass; brief staleness is acceptable.
	resolver := *h.Resolver
	resolver.Index = services.NewSnapshotAvailabilityIndex(records)

	results, err := resolver.ResolveAll(ctx, orders, restaurants)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			writeInvalidRequest(w, r, err)
			return
		}
		h.internalError(w, r, "resolve pending orders", err)
		return
	}

	byID := restaurantIndex(restaurants)
	res := dto.ListOrderCandidatesResponse{
		Orders: make([]dto.OrderCandidatesResponse, 0, len(results)),
	}
	for _, o := range orders {
		rr, ok := results[o.OrderID]
		if !ok {
			continue
		}
		res.Orders = append(res.Orders, toOrderCandidates(o, rr, byID))
	}

	writeJSON(w, r, http.StatusOK, res)
}

// ForOrder resolves one pending order by id.
func (h *CandidatesHandler) ForOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "order id must be a positive integer")
		return
	}

	order, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "order not found")
			return
		}
		h.internalError(w, r, "get order", err)
		return
	}

	if !order.IsPending() {
		writeError(w, r, http.StatusConflict, "order is not pending")
		return
	}

	restaurants, err := h.Restaurants.ListRestaurants(ctx)
	if err != nil {
		h.internalError(w, r, "list restaurants", err)
		return
	}

	rr, err := h.Resolver.ResolveOrder(ctx, order, restaurants)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			writeInvalidRequest(w, r, err)
			return
		}
		h.internalError(w, r, "resolve order", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toOrderCandidates(order, rr, restaurantIndex(restaurants)))
}

func (h *CandidatesHandler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.Printf("req_id=%s %s failed: %v", obs.RequestID(r.Context()), op, err)
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}

func restaurantIndex(restaurants []domain.Restaurant) map[int]domain.Restaurant {
	byID := make(map[int]domain.Restaurant, len(restaurants))
	for _, rest := range restaurants {
		byID[rest.RestaurantID] = rest
	}
	return byID
}

func toOrderCandidates(
	o *domain.Order,
	rr domain.OrderResolution,
	restaurants map[int]domain.Restaurant,
) dto.OrderCandidatesResponse {
	out := dto.OrderCandidatesResponse{
		OrderID:    o.OrderID,
		Address:    o.Address,
		Customer:   strings.TrimSpace(o.FirstName + " " + o.LastName),
		Comment:    o.Comment,
		Status:     string(rr.Status()),
		Candidates: make([]dto.CandidateResponse, 0, len(rr.Candidates)),
		Dropped:    make([]dto.DroppedCandidateResponse, 0, len(rr.Dropped)),
	}
	if rr.Err != nil {
		out.Error = rr.Err.Error()
	}

	for _, c := range rr.Candidates {
		rest := restaurants[c.RestaurantID]
		out.Candidates = append(out.Candidates, dto.CandidateResponse{
			RestaurantID: c.RestaurantID,
			Name:         rest.Name,
			Address:      rest.Address,
			ContactPhone: rest.ContactPhone,
			// Metre precision is plenty for the review screen.
			DistanceKm: math.Round(c.DistanceKm*1000) / 1000,
		})
	}

	for _, d := range rr.Dropped {
		out.Dropped = append(out.Dropped, dto.DroppedCandidateResponse{
			RestaurantID: d.RestaurantID,
			Address:      d.Address,
			Reason:       d.Reason,
		})
	}

	return out
}
