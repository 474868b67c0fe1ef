package dto

// OrderID is set when the error concerns a specific order.
type ErrorResponse struct {
	Error   string `json:"error"`
	OrderID int    `json:"order_id,omitempty"`
}
