package db

import (
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax for queries written with '?' markers.
type Dialect string

const (
	Sqlite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Rebind rewrites '?' markers to $1..$n for Postgres. Queries must not contain
// a literal '?' outside placeholders.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Placeholders returns n comma-separated '?' markers for an IN (...) list.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
