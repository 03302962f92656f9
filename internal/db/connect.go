package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Runner is the query surface shared by DB and Tx, so repositories can run
// either on the pool or inside a transaction. Queries use '?' placeholders.
type Runner interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) *sql.Row
	InsertID(ctx context.Context, query string, args ...any) (int64, error)
	Dialect() Dialect
}

// DB is a pooled connection plus the dialect it was opened with.
type DB struct {
	SQL     *sql.DB
	dialect Dialect
}

// Open opens a DB, tunes the pool for the engine and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*DB, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		dsn = d.DefaultDSN()
	}

	sqldb, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}
	d.Tune(sqldb)

	if err := sqldb.PingContext(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	if err := d.Prepare(ctx, sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	db := &DB{SQL: sqldb, dialect: d}
	if err := db.ensureSchema(ctx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("db: schema: %w", err)
	}
	return db, nil
}

func (d *DB) ensureSchema(ctx context.Context) error {
	_, err := d.SQL.ExecContext(ctx, d.dialect.Schema())
	return err
}

// Close closes the underlying pool (safe to call multiple times).
func (d *DB) Close() error {
	if d == nil || d.SQL == nil {
		return nil
	}
	return d.SQL.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.SQL == nil {
		return errors.New("db: not open")
	}
	return d.SQL.PingContext(ctx)
}

func (d *DB) Dialect() Dialect { return d.dialect }

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.SQL.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.SQL.QueryContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.SQL.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	return d.dialect.InsertID(ctx, d.SQL, d.dialect.Rebind(query), args...)
}
