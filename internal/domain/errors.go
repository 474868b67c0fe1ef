package domain

import (
	"errors"
	"fmt"
)

var (
	// An address could not be normalized, or the provider failed or timed out.
	// Scoped to a single address and recoverable.
	ErrGeocodeFailure = errors.New("geocode failure")

	// Caller defect, e.g. an order without items.
	ErrInvalidRequest = errors.New("invalid request")

	// Latitude or longitude out of range. Caller defect.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// An order's own delivery address failed to geocode.
	ErrResolution = errors.New("resolution error")

	ErrNotFound = errors.New("not found")
)

// OrderError ties a failure to the order that caused it.
type OrderError struct {
	OrderID int
	Err     error
}

func (e *OrderError) Error() string { return fmt.Sprintf("order %d: %v", e.OrderID, e.Err) }

func (e *OrderError) Unwrap() error { return e.Err }
