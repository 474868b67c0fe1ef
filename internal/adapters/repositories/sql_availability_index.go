package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/db"
	"order-fulfillment-service/internal/platform/obs"
	"slices"
)

// SQLAvailabilityIndex answers stock queries directly against menu_items,
// reflecting the latest committed availability at call time.
type SQLAvailabilityIndex struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLAvailabilityIndex(conn *sql.DB, dialect db.Dialect) *SQLAvailabilityIndex {
	return &SQLAvailabilityIndex{DB: conn, Dialect: dialect}
}

// Return, ascending, the restaurants with every product in productIDs available.
func (x *SQLAvailabilityIndex) RestaurantsStocking(ctx context.Context, productIDs []int) (_ []int, err error) {
	defer obs.Time(ctx, "index.RestaurantsStocking")(&err)

	if x.DB == nil {
		return nil, errors.New("availability index: DB is nil")
	}

	if len(productIDs) == 0 {
		return nil, fmt.Errorf("restaurants stocking: %w: product list is empty", domain.ErrInvalidRequest)
	}

	products := slices.Clone(productIDs)
	slices.Sort(products)
	products = slices.Compact(products)

	args := make([]any, 0, len(products)+1)
	for _, p := range products {
		args = append(args, p)
	}
	args = append(args, len(products))

	// A restaurant qualifies only when every requested product has an available row.
	query := x.Dialect.Rebind(fmt.Sprintf(`
	SELECT restaurant_id
	FROM menu_items
	WHERE available = TRUE
		AND product_id IN (%s)
	GROUP BY restaurant_id
	HAVING COUNT(DISTINCT product_id) = ?
	ORDER BY restaurant_id;
	`, db.Placeholders(len(products))))

	rows, err := x.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("restaurants stocking: query menu_items table: %w", err)
	}
	defer rows.Close()

	out := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("restaurants stocking: scan row: %w", err)
		}
		out = append(out, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("restaurants stocking: row iteration: %w", err)
	}

	return out, nil
}
