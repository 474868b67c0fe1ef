package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"order-fulfillment-service/internal/domain"
	"order-fulfillment-service/internal/platform/db"
	"order-fulfillment-service/internal/platform/obs"
	"strings"
)

// SQLGeocodeStore is a SQL-backed, append-only store mapping normalized
// addresses to coordinates. It works against SQLite and Postgres.
// Address keys are expected to be normalized by the caller.
type SQLGeocodeStore struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLGeocodeStore(conn *sql.DB, dialect db.Dialect) *SQLGeocodeStore {
	return &SQLGeocodeStore{DB: conn, Dialect: dialect}
}

// Fetch cached coordinates for the given addresses.
func (s *SQLGeocodeStore) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.store.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode store: db is nil")
	}

	uniq := uniqueNonEmpty(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	args := make([]any, 0, len(uniq))
	for _, a := range uniq {
		args = append(args, a)
	}

	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := s.Dialect.Rebind(fmt.Sprintf(`
	SELECT address, lat, lon
	FROM geocode_cache
	WHERE address IN (%s);
	`, db.Placeholders(len(uniq))))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Coordinates, len(uniq))
	for rows.Next() {
		var addr string
		var lat, lon float64
		if err := rows.Scan(&addr, &lat, &lon); err != nil {
			return nil, fmt.Errorf("get geocode cache: scan rows: %w", err)
		}
		out[addr] = domain.Coordinates{Lat: lat, Lon: lon}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode cache: row iteration: %w", err)
	}

	return out, nil
}

// Store address -> coordinate mappings. Existing addresses are left untouched.
func (s *SQLGeocodeStore) PutMany(ctx context.Context, entries map[string]domain.Coordinates) error {
	if s.DB == nil {
		return errors.New("geocode store: db is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO geocode_cache (address, lat, lon)
	VALUES (?, ?, ?)
	ON CONFLICT (address) DO NOTHING;
	`))
	if err != nil {
		return fmt.Errorf("insert geocode cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for addr, c := range entries {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("insert geocode cache: empty address key")
		}

		if _, err := stmt.ExecContext(ctx, addr, c.Lat, c.Lon); err != nil {
			return fmt.Errorf("insert geocode cache address=%q: %w", addr, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode cache commit: %w", err)
	}

	return nil
}

func uniqueNonEmpty(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	uniq := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if strings.TrimSpace(a) == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		uniq = append(uniq, a)
	}
	return uniq
}
