package domain

import "slices"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderProcessed OrderStatus = "processed"
)

// A single ordered product. Quantity does not affect eligibility.
type LineItem struct {
	ProductID int
	Quantity  int
}

// Represents a customer order as supplied by order intake.
// The resolver only reads orders; it never changes their status.
type Order struct {
	OrderID   int
	FirstName string
	LastName  string
	Address   string
	Items     []LineItem
	Status    OrderStatus
	Comment   string
}

// Return the distinct product ids referenced by the order, ascending.
func (o *Order) ProductIDs() []int {
	ids := make([]int, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func (o *Order) IsPending() bool { return o.Status == OrderPending }
