package domain

// A restaurant able to fulfill a whole order, with its great-circle
// distance from the delivery address. Derived per call, never stored.
type FulfillmentCandidate struct {
	RestaurantID int
	DistanceKm   float64
}

// An eligible restaurant removed from a ranking, with the reason.
type DroppedCandidate struct {
	RestaurantID int
	Address      string
	Reason       string
}

type ResolutionStatus string

const (
	StatusRanked          ResolutionStatus = "ranked"
	StatusNoCandidates    ResolutionStatus = "no_candidates"
	StatusResolutionError ResolutionStatus = "resolution_error"
)

// The outcome of resolving one order.
//
// Err is set only when the order itself could not be resolved (its delivery
// address failed to geocode, or the pass was cancelled before it ran).
// An order nobody can serve has no error and no candidates.
type OrderResolution struct {
	OrderID    int
	Candidates []FulfillmentCandidate
	Dropped    []DroppedCandidate
	Err        error
}

func (r OrderResolution) Status() ResolutionStatus {
	if r.Err != nil {
		return StatusResolutionError
	}
	if len(r.Candidates) == 0 {
		return StatusNoCandidates
	}
	return StatusRanked
}
