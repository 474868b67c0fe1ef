package handlers

import (
	"log"
	"net/http"
	"order-fulfillment-service/internal/api/dto"
	"order-fulfillment-service/internal/platform/obs"
	"order-fulfillment-service/internal/ports"
)

// RestaurantHandler exposes read-only restaurant retrieval endpoints.
type RestaurantHandler struct {
	Repo ports.RestaurantRepository
}

func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.Repo.ListRestaurants(r.Context())
	if err != nil {
		log.Printf("req_id=%s list restaurants failed: %v", obs.RequestID(r.Context()), err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListRestaurantsResponse{
		Restaurants: make([]dto.RestaurantResponse, 0, len(restaurants)),
	}
	for _, rest := range restaurants {
		res.Restaurants = append(res.Restaurants, dto.RestaurantResponse{
			RestaurantID: rest.RestaurantID,
			Name:         rest.Name,
			Address:      rest.Address,
			ContactPhone: rest.ContactPhone,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
