package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/db"
	"order-fulfillment-service/internal/platform/obs"
)

// SQL-backed implementation of the OrderRepository and RestaurantRepository ports.
// Read-only: orders and menus are owned by other subsystems.
type SQLStore struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLStore(conn *sql.DB, dialect db.Dialect) *SQLStore {
	return &SQLStore{DB: conn, Dialect: dialect}
}

const orderSelect = `
	SELECT
		o.order_id,
		o.first_name,
		o.last_name,
		o.address,
		o.status,
		o.comment,
		i.product_id,
		i.quantity
	FROM orders o
	LEFT JOIN order_items i ON i.order_id = o.order_id
`

// Return all pending orders with their line items, ordered by id.
func (s *SQLStore) ListPendingOrders(ctx context.Context) (_ []*domain.Order, err error) {
	defer obs.Time(ctx, "store.ListPendingOrders")(&err)

	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	query := orderSelect + `
	WHERE o.status = ?
	ORDER BY o.order_id, i.product_id;
	`
	orders, err := s.queryOrders(ctx, query, string(domain.OrderPending))
	if err != nil {
		return nil, fmt.Errorf("list pending orders: %w", err)
	}
	return orders, nil
}

// Return one order with its line items, or domain.ErrNotFound.
func (s *SQLStore) GetOrder(ctx context.Context, orderID int) (*domain.Order, error) {
	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	query := orderSelect + `
	WHERE o.order_id = ?
	ORDER BY i.product_id;
	`
	orders, err := s.queryOrders(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("get order %d: %w", orderID, domain.ErrNotFound)
	}
	return orders[0], nil
}

// queryOrders folds order x item join rows into orders, keeping row order.
func (s *SQLStore) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query orders table: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0, 16)
	byID := make(map[int]*domain.Order)
	for rows.Next() {
		var (
			id                  int
			firstName, lastName string
			address, status     string
			comment             string
			productID, amount   sql.NullInt64
		)
		if err := rows.Scan(&id, &firstName, &lastName, &address, &status, &comment, &productID, &amount); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		o, ok := byID[id]
		if !ok {
			o = &domain.Order{
				OrderID:   id,
				FirstName: firstName,
				LastName:  lastName,
				Address:   address,
				Status:    domain.OrderStatus(status),
				Comment:   comment,
			}
			byID[id] = o
			orders = append(orders, o)
		}

		// LEFT JOIN yields one NULL item row for an order without items.
		if productID.Valid {
			o.Items = append(o.Items, domain.LineItem{
				ProductID: int(productID.Int64),
				Quantity:  int(amount.Int64),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}

	return orders, nil
}

// Return all restaurants ordered by name.
func (s *SQLStore) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	query := `
	SELECT
		restaurant_id,
		name,
		address,
		contact_phone
	FROM restaurants
	ORDER BY name, restaurant_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: query restaurants table: %w", err)
	}
	defer rows.Close()

	restaurants := make([]domain.Restaurant, 0, 16)
	for rows.Next() {
		var r domain.Restaurant
		if err := rows.Scan(&r.RestaurantID, &r.Name, &r.Address, &r.ContactPhone); err != nil {
			return nil, fmt.Errorf("list restaurants: scan row: %w", err)
		}
		restaurants = append(restaurants, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list restaurants: row iteration: %w", err)
	}

	return restaurants, nil
}

// Return every menu availability record.
func (s *SQLStore) ListAvailability(ctx context.Context) (_ []domain.MenuAvailabilityRecord, err error) {
	defer obs.Time(ctx, "store.ListAvailability")(&err)

	if s.DB == nil {
		return nil, errors.New("sql store: DB is nil")
	}

	query := `
	SELECT
		restaurant_id,
		product_id,
		available
	FROM menu_items
	ORDER BY restaurant_id, product_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list availability: query menu_items table: %w", err)
	}
	defer rows.Close()

	records := make([]domain.MenuAvailabilityRecord, 0, 64)
	for rows.Next() {
		var r domain.MenuAvailabilityRecord
		if err := rows.Scan(&r.RestaurantID, &r.ProductID, &r.Available); err != nil {
			return nil, fmt.Errorf("list availability: scan row: %w", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list availability: row iteration: %w", err)
	}

	return records, nil
}
