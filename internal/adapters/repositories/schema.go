package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the database schema. Statements are valid for both SQLite and Postgres.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRestaurantsQuery := `
	CREATE TABLE IF NOT EXISTS restaurants (
		restaurant_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT ''
	);
	`

	createProductsQuery := `
	CREATE TABLE IF NOT EXISTS products (
		product_id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(8, 2) NOT NULL DEFAULT 0 CHECK (price >= 0)
	);
	`

	createMenuItemsQuery := `
	CREATE TABLE IF NOT EXISTS menu_items (
		restaurant_id INTEGER NOT NULL REFERENCES restaurants(restaurant_id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL REFERENCES products(product_id) ON DELETE CASCADE,
		available BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (restaurant_id, product_id)
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id INTEGER PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		comment TEXT NOT NULL DEFAULT ''
	);
	`

	createOrderItemsQuery := `
	CREATE TABLE IF NOT EXISTS order_items (
		order_id INTEGER NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL REFERENCES products(product_id) ON DELETE CASCADE,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (order_id, product_id)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL
	);
	`

	createMenuIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_menu_items_product_available
	ON menu_items(product_id, available);
	`

	createOrderStatusIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_status
	ON orders(status);
	`

	statements := []string{
		createRestaurantsQuery,
		createProductsQuery,
		createMenuItemsQuery,
		createOrdersQuery,
		createOrderItemsQuery,
		createGeocodeCacheQuery,
		createMenuIndexQuery,
		createOrderStatusIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
