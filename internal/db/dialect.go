package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Dialect hides the differences between storage engines: placeholder
// syntax, boolean encoding, id retrieval after insert, constraint errors,
// pool sizing and connection setup. One Dialect is chosen at startup.
type Dialect interface {
	Name() Driver
	// DriverName is the database/sql driver registered for this engine.
	DriverName() string
	DefaultDSN() string
	Schema() string

	// Rebind rewrites '?' placeholders into the engine's native form.
	Rebind(query string) string
	// Bool encodes a boolean query argument.
	Bool(b bool) any
	// InsertID runs an INSERT (already rebound) and returns the new row id.
	InsertID(ctx context.Context, q rawQuerier, query string, args ...any) (int64, error)
	IsUniqueViolation(err error) bool
	// ForUpdate is the suffix that locks the selected rows until the
	// transaction ends, or "" when the engine serializes writers itself.
	ForUpdate() string

	Tune(db *sql.DB)
	Prepare(ctx context.Context, db *sql.DB) error
}

// rawQuerier is satisfied by both *sql.DB and *sql.Tx.
type rawQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DialectFor maps a configured driver name (with common aliases) to its Dialect.
func DialectFor(driver Driver) (Dialect, error) {
	switch Driver(strings.ToLower(strings.TrimSpace(string(driver)))) {
	case DriverSQLite, "sqlite3":
		return sqliteDialect{}, nil
	case DriverPostgres, "pg", "pgx", "postgresql":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
}

// rebindDollar converts '?' to $1..$n, leaving quoted literals alone.
func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
