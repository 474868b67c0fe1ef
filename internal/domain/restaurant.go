package domain

type Restaurant struct {
	RestaurantID int
	Name         string
	Address      string
	ContactPhone string
}

// One (restaurant, product) availability flag.
// A missing record means the product is unavailable at that restaurant.
type MenuAvailabilityRecord struct {
	RestaurantID int
	ProductID    int
	Available    bool
}
