package dto

type RestaurantResponse struct {
	RestaurantID int    `json:"restaurant_id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	ContactPhone string `json:"contact_phone"`
}

type ListRestaurantsResponse struct {
	Restaurants []RestaurantResponse `json:"restaurants"`
}
