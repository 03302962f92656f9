package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
)

const pgUniqueViolation = "23505"

type postgresDialect struct{}

func (postgresDialect) Name() Driver       { return DriverPostgres }
func (postgresDialect) DriverName() string { return "pgx" }
func (postgresDialect) DefaultDSN() string {
	return "postgres://localhost:5432/voxiscribe?sslmode=disable"
}
func (postgresDialect) Schema() string { return schemaPostgres }

func (postgresDialect) Rebind(query string) string { return rebindDollar(query) }

func (postgresDialect) Bool(b bool) any { return b }

func (postgresDialect) InsertID(ctx context.Context, q rawQuerier, query string, args ...any) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
	return id, err
}

func (postgresDialect) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (postgresDialect) ForUpdate() string { return " FOR UPDATE" }

func (postgresDialect) Tune(db *sql.DB) {
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(45 * time.Minute)
	db.SetConnMaxIdleTime(15 * time.Minute)
}

func (postgresDialect) Prepare(context.Context, *sql.DB) error { return nil }

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id BIGSERIAL PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('student', 'teacher')),
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS exams (
  id BIGSERIAL PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  duration INTEGER NOT NULL,
  created_by BIGINT NOT NULL REFERENCES users(id),
  published BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS questions (
  id BIGSERIAL PRIMARY KEY,
  exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  question_text TEXT NOT NULL,
  question_type TEXT NOT NULL CHECK (question_type IN ('MCQ', 'Descriptive')),
  options TEXT,
  correct_answer TEXT
);

CREATE TABLE IF NOT EXISTS exam_attempts (
  id BIGSERIAL PRIMARY KEY,
  student_id BIGINT NOT NULL REFERENCES users(id),
  exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  status TEXT NOT NULL DEFAULT 'in_progress' CHECK (status IN ('in_progress', 'completed')),
  total_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  started_at BIGINT NOT NULL,
  submitted_at BIGINT,
  UNIQUE (student_id, exam_id)
);

CREATE INDEX IF NOT EXISTS idx_exam_attempts_exam ON exam_attempts(exam_id);

CREATE TABLE IF NOT EXISTS answers (
  id BIGSERIAL PRIMARY KEY,
  student_id BIGINT NOT NULL REFERENCES users(id),
  exam_id BIGINT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
  answer_text TEXT,
  selected_option TEXT,
  is_correct BOOLEAN,
  score DOUBLE PRECISION,
  updated_at BIGINT NOT NULL,
  UNIQUE (student_id, exam_id, question_id)
);

CREATE TABLE IF NOT EXISTS proctoring_logs (
  id BIGSERIAL PRIMARY KEY,
  attempt_id BIGINT NOT NULL REFERENCES exam_attempts(id) ON DELETE CASCADE,
  event_type TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_events (
  id BIGSERIAL PRIMARY KEY,
  event_name TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT '',
  related_id BIGINT,
  related_type TEXT NOT NULL DEFAULT '',
  details TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);
`
