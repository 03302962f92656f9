package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db/dbtest"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		in      db.Driver
		want    db.Driver
		wantErr bool
	}{
		{"sqlite", db.DriverSQLite, false},
		{"SQLite3", db.DriverSQLite, false},
		{"postgres", db.DriverPostgres, false},
		{"pgx", db.DriverPostgres, false},
		{"mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			d, err := db.DialectFor(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("DialectFor: %v", err)
			}
			if d.Name() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, d.Name())
			}
		})
	}
}

func TestRebind(t *testing.T) {
	pg, _ := db.DialectFor(db.DriverPostgres)
	lite, _ := db.DialectFor(db.DriverSQLite)

	q := `SELECT id FROM answers WHERE student_id = ? AND exam_id = ? AND answer_text <> '?'`
	if got := lite.Rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %q", got)
	}
	want := `SELECT id FROM answers WHERE student_id = $1 AND exam_id = $2 AND answer_text <> '?'`
	if got := pg.Rebind(q); got != want {
		t.Errorf("postgres rebind:\n got %q\nwant %q", got, want)
	}
}

func TestBoolEncoding(t *testing.T) {
	pg, _ := db.DialectFor(db.DriverPostgres)
	lite, _ := db.DialectFor(db.DriverSQLite)
	if lite.Bool(true) != 1 || lite.Bool(false) != 0 {
		t.Errorf("sqlite bools: %v %v", lite.Bool(true), lite.Bool(false))
	}
	if pg.Bool(true) != true {
		t.Errorf("postgres bool: %v", pg.Bool(true))
	}
}

func TestForUpdate(t *testing.T) {
	pg, _ := db.DialectFor(db.DriverPostgres)
	lite, _ := db.DialectFor(db.DriverSQLite)
	if got := pg.ForUpdate(); got != " FOR UPDATE" {
		t.Errorf("postgres row lock = %q", got)
	}
	if got := lite.ForUpdate(); got != "" {
		t.Errorf("sqlite row lock = %q, want empty", got)
	}

	// the suffix must leave a valid query on the engine it belongs to
	d := dbtest.Open(t)
	var n int
	if err := d.QueryRow(context.Background(), `SELECT COUNT(*) FROM users`+d.Dialect().ForUpdate()).Scan(&n); err != nil {
		t.Fatalf("locking select: %v", err)
	}
}

func TestInsertIDAndUniqueViolation(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()

	id, err := d.InsertID(ctx, `INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		"alice", "x", "student", 1)
	if err != nil {
		t.Fatalf("InsertID: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	_, err = d.Exec(ctx, `INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		"alice", "y", "student", 2)
	if err == nil {
		t.Fatal("expected duplicate username to fail")
	}
	if !d.Dialect().IsUniqueViolation(err) {
		t.Errorf("expected unique violation, got %v", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	d := dbtest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
			"bob", "x", "teacher", 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var n int
	if err := d.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected rollback to leave 0 users, got %d", n)
	}
}
