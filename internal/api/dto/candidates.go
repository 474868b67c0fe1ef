package dto

type CandidateResponse struct {
	RestaurantID int     `json:"restaurant_id"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	ContactPhone string  `json:"contact_phone,omitempty"`
	DistanceKm   float64 `json:"distance_km"`
}

type DroppedCandidateResponse struct {
	RestaurantID int    `json:"restaurant_id"`
	Address      string `json:"address,omitempty"`
	Reason       string `json:"reason"`
}

// Status is one of ranked, no_candidates, resolution_error.
type OrderCandidatesResponse struct {
	OrderID    int                        `json:"order_id"`
	Customer   string                     `json:"customer,omitempty"`
	Address    string                     `json:"address"`
	Comment    string                     `json:"comment,omitempty"`
	Status     string                     `json:"status"`
	Candidates []CandidateResponse        `json:"candidates"`
	Dropped    []DroppedCandidateResponse `json:"dropped"`
	Error      string                     `json:"error,omitempty"`
}

type ListOrderCandidatesResponse struct {
	Orders []OrderCandidatesResponse `json:"orders"`
}
