package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Tx is a transaction bound to the dialect of the DB that started it.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

func (t *Tx) Dialect() Dialect { return t.dialect }

func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, t.dialect.Rebind(query), args...)
}

func (t *Tx) InsertID(ctx context.Context, query string, args ...any) (int64, error) {
	return t.dialect.InsertID(ctx, t.tx, t.dialect.Rebind(query), args...)
}

// WithTx starts a transaction, runs fn, and commits if fn returns nil.
// If fn returns an error or panics, the transaction is rolled back.
// fn must only use the Tx it is given: on sqlite the pool has a single
// connection and a query through the DB would wait forever.
//
//	err := d.WithTx(ctx, func(tx *db.Tx) error {
//	    _, err := tx.Exec(ctx, `UPDATE ...`, ...)
//	    return err
//	})
func (d *DB) WithTx(ctx context.Context, fn func(*Tx) error) (err error) {
	if d == nil || d.SQL == nil {
		return errors.New("db: not open")
	}
	sqltx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db: begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqltx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = sqltx.Rollback()
			return
		}
		if e := sqltx.Commit(); e != nil {
			err = fmt.Errorf("db: commit: %w", e)
		}
	}()
	err = fn(&Tx{tx: sqltx, dialect: d.dialect})
	return
}
