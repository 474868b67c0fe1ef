package repositories

import (
	"database/sql"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/db"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type ProductSeed struct {
	ID    int     `yaml:"id"`
	Name  string  `yaml:"name"`
	Price float64 `yaml:"price"`
}

type MenuItemSeed struct {
	ProductID int  `yaml:"product_id"`
	Available bool `yaml:"available"`
}

type RestaurantSeed struct {
	ID           int            `yaml:"id"`
	Name         string         `yaml:"name"`
	Address      string         `yaml:"address"`
	ContactPhone string         `yaml:"contact_phone"`
	Menu         []MenuItemSeed `yaml:"menu"`
}

type OrderItemSeed struct {
	ProductID int `yaml:"product_id"`
	Quantity  int `yaml:"quantity"`
}

type OrderSeed struct {
	ID        int             `yaml:"id"`
	FirstName string          `yaml:"first_name"`
	LastName  string          `yaml:"last_name"`
	Address   string          `yaml:"address"`
	Status    string          `yaml:"status"`
	Comment   string          `yaml:"comment"`
	Items     []OrderItemSeed `yaml:"items"`
}

// Known coordinates for offline runs with the static geocoder.
// They are provider fixtures, not geocode cache rows.
type GeocodeSeed struct {
	Address string  `yaml:"address"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
}

// Catalog is the seed file layout.
type Catalog struct {
	Products    []ProductSeed    `yaml:"products"`
	Restaurants []RestaurantSeed `yaml:"restaurants"`
	Orders      []OrderSeed      `yaml:"orders"`
	Geocodes    []GeocodeSeed    `yaml:"geocodes"`
}

// GeocodeTable returns the catalog's fixed address coordinates.
func (c *Catalog) GeocodeTable() map[string]domain.Coordinates {
	out := make(map[string]domain.Coordinates, len(c.Geocodes))
	for _, g := range c.Geocodes {
		out[g.Address] = domain.Coordinates{Lat: g.Lat, Lon: g.Lon}
	}
	return out
}

// Read and validate a YAML catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: read %q: %w", path, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(bytes, &c); err != nil {
		return nil, fmt.Errorf("load catalog: parse yaml: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	products := make(map[int]struct{}, len(c.Products))
	for i, p := range c.Products {
		if p.ID <= 0 {
			return fmt.Errorf("invalid product id at index %d: %d", i+1, p.ID)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("product %d: name cannot be empty", p.ID)
		}
		if p.Price < 0 {
			return fmt.Errorf("product %d: price cannot be negative", p.ID)
		}
		products[p.ID] = struct{}{}
	}

	for i, r := range c.Restaurants {
		if r.ID <= 0 {
			return fmt.Errorf("invalid restaurant id at index %d: %d", i+1, r.ID)
		}
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("restaurant %d: name cannot be empty", r.ID)
		}
		seen := make(map[int]struct{}, len(r.Menu))
		for _, m := range r.Menu {
			if _, ok := products[m.ProductID]; !ok {
				return fmt.Errorf("restaurant %d: unknown product %d", r.ID, m.ProductID)
			}
			if _, dup := seen[m.ProductID]; dup {
				return fmt.Errorf("restaurant %d: duplicate menu item for product %d", r.ID, m.ProductID)
			}
			seen[m.ProductID] = struct{}{}
		}
	}

	for i, o := range c.Orders {
		if o.ID <= 0 {
			return fmt.Errorf("invalid order id at index %d: %d", i+1, o.ID)
		}
		if strings.TrimSpace(o.Address) == "" {
			return fmt.Errorf("order %d: address cannot be empty", o.ID)
		}
		switch domain.OrderStatus(o.Status) {
		case "", domain.OrderPending, domain.OrderProcessed:
		default:
			return fmt.Errorf("order %d: unknown status %q", o.ID, o.Status)
		}
		for _, it := range o.Items {
			if _, ok := products[it.ProductID]; !ok {
				return fmt.Errorf("order %d: unknown product %d", o.ID, it.ProductID)
			}
			if it.Quantity <= 0 {
				return fmt.Errorf("order %d: product %d: quantity must be positive", o.ID, it.ProductID)
			}
		}
	}

	for i, g := range c.Geocodes {
		if strings.TrimSpace(g.Address) == "" {
			return fmt.Errorf("geocode at index %d: address cannot be empty", i+1)
		}
		if err := (domain.Coordinates{Lat: g.Lat, Lon: g.Lon}).Validate(); err != nil {
			return fmt.Errorf("geocode %q: %w", g.Address, err)
		}
	}

	return nil
}

// Populate the database from a YAML catalog file. Existing rows are updated.
func SeedFromYAML(conn *sql.DB, dialect db.Dialect, path string) error {
	c, err := LoadCatalog(path)
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return Seed(conn, dialect, c)
}

// Seed writes a catalog in one transaction.
func Seed(conn *sql.DB, dialect db.Dialect, c *Catalog) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("seed catalog: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	exec := func(query string, args ...any) error {
		_, err := tx.Exec(dialect.Rebind(query), args...)
		return err
	}

	for _, p := range c.Products {
		if err := exec(`
		INSERT INTO products (product_id, name, price)
		VALUES (?, ?, ?)
		ON CONFLICT (product_id) DO UPDATE
		SET name = excluded.name,
			price = excluded.price;
		`, p.ID, strings.TrimSpace(p.Name), p.Price); err != nil {
			return fmt.Errorf("seed catalog: insert product_id=%d: %w", p.ID, err)
		}
	}

	for _, r := range c.Restaurants {
		if err := exec(`
		INSERT INTO restaurants (restaurant_id, name, address, contact_phone)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (restaurant_id) DO UPDATE
		SET name = excluded.name,
			address = excluded.address,
			contact_phone = excluded.contact_phone;
		`, r.ID, strings.TrimSpace(r.Name), strings.TrimSpace(r.Address), strings.TrimSpace(r.ContactPhone)); err != nil {
			return fmt.Errorf("seed catalog: insert restaurant_id=%d: %w", r.ID, err)
		}

		for _, m := range r.Menu {
			if err := exec(`
			INSERT INTO menu_items (restaurant_id, product_id, available)
			VALUES (?, ?, ?)
			ON CONFLICT (restaurant_id, product_id) DO UPDATE
			SET available = excluded.available;
			`, r.ID, m.ProductID, m.Available); err != nil {
				return fmt.Errorf("seed catalog: insert menu item restaurant_id=%d product_id=%d: %w", r.ID, m.ProductID, err)
			}
		}
	}

	for _, o := range c.Orders {
		status := o.Status
		if status == "" {
			status = string(domain.OrderPending)
		}

		if err := exec(`
		INSERT INTO orders (order_id, first_name, last_name, address, status, comment)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (order_id) DO UPDATE
		SET first_name = excluded.first_name,
			last_name = excluded.last_name,
			address = excluded.address,
			status = excluded.status,
			comment = excluded.comment;
		`, o.ID, strings.TrimSpace(o.FirstName), strings.TrimSpace(o.LastName),
			strings.TrimSpace(o.Address), status, o.Comment); err != nil {
			return fmt.Errorf("seed catalog: insert order_id=%d: %w", o.ID, err)
		}

		for _, it := range o.Items {
			if err := exec(`
			INSERT INTO order_items (order_id, product_id, quantity)
			VALUES (?, ?, ?)
			ON CONFLICT (order_id, product_id) DO UPDATE
			SET quantity = excluded.quantity;
			`, o.ID, it.ProductID, it.Quantity); err != nil {
				return fmt.Errorf("seed catalog: insert order item order_id=%d product_id=%d: %w", o.ID, it.ProductID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed catalog: commit tx: %w", err)
	}

	return nil
}
