// Package attempt stores exam attempts and the answers inside them.
//
// Every function takes a db.Runner so callers decide whether it runs on the
// pool or inside a transaction. Uniqueness of (student, exam) attempts and
// (student, exam, question) answers is enforced by the schema; writes are
// atomic upserts keyed on those constraints.
package attempt

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
)

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Attempt struct {
	ID          int64      `json:"id"`
	StudentID   int64      `json:"student_id"`
	ExamID      int64      `json:"exam_id"`
	Username    string     `json:"username,omitempty"`
	Status      Status     `json:"status"`
	TotalScore  float64    `json:"total_score"`
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

func (a Attempt) Completed() bool { return a.Status == StatusCompleted }

const attemptColumns = `a.id, a.student_id, a.exam_id, a.status, a.total_score, a.started_at, a.submitted_at`

// Ensure returns the id of the student's attempt at the exam, creating it
// in_progress if it does not exist yet. Concurrent callers converge on one row.
func Ensure(ctx context.Context, r db.Runner, studentID, examID int64, now time.Time) (int64, error) {
	if _, err := r.Exec(ctx,
		`INSERT INTO exam_attempts (student_id, exam_id, status, total_score, started_at)
		 VALUES (?, ?, ?, 0, ?)
		 ON CONFLICT (student_id, exam_id) DO NOTHING`,
		studentID, examID, string(StatusInProgress), now.UTC().Unix()); err != nil {
		return 0, fmt.Errorf("ensure attempt: %w", err)
	}
	var id int64
	if err := r.QueryRow(ctx,
		`SELECT id FROM exam_attempts WHERE student_id = ? AND exam_id = ?`,
		studentID, examID).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure attempt: select: %w", err)
	}
	return id, nil
}

// Lock ensures the attempt exists and holds its row lock until the
// transaction ends, so saves and submission of one attempt run one at a time.
func Lock(ctx context.Context, r db.Runner, studentID, examID int64, now time.Time) (Attempt, error) {
	if _, err := Ensure(ctx, r, studentID, examID, now); err != nil {
		return Attempt{}, err
	}
	var id int64
	if err := r.QueryRow(ctx,
		`SELECT id FROM exam_attempts WHERE student_id = ? AND exam_id = ?`+r.Dialect().ForUpdate(),
		studentID, examID).Scan(&id); err != nil {
		return Attempt{}, fmt.Errorf("lock attempt: %w", err)
	}
	return GetByID(ctx, r, id)
}

// Complete moves an in-progress attempt to completed and stamps submitted_at.
// It reports false without error if the attempt was already completed, in
// which case submitted_at is left as it was.
func Complete(ctx context.Context, r db.Runner, studentID, examID int64, at time.Time) (bool, error) {
	res, err := r.Exec(ctx,
		`UPDATE exam_attempts SET status = ?, submitted_at = ?
		 WHERE student_id = ? AND exam_id = ? AND status = ?`,
		string(StatusCompleted), at.UTC().Unix(), studentID, examID, string(StatusInProgress))
	if err != nil {
		return false, fmt.Errorf("complete attempt: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}
	if _, err := Get(ctx, r, studentID, examID); err != nil {
		return false, err
	}
	return false, nil
}

// SetTotal overwrites the cached total of an attempt.
func SetTotal(ctx context.Context, r db.Runner, studentID, examID int64, total float64) error {
	if _, err := r.Exec(ctx,
		`UPDATE exam_attempts SET total_score = ? WHERE student_id = ? AND exam_id = ?`,
		total, studentID, examID); err != nil {
		return fmt.Errorf("set total: %w", err)
	}
	return nil
}

func Get(ctx context.Context, r db.Runner, studentID, examID int64) (Attempt, error) {
	return scanAttempt(r.QueryRow(ctx,
		`SELECT `+attemptColumns+`, u.username FROM exam_attempts a JOIN users u ON u.id = a.student_id
		 WHERE a.student_id = ? AND a.exam_id = ?`, studentID, examID))
}

func GetByID(ctx context.Context, r db.Runner, attemptID int64) (Attempt, error) {
	return scanAttempt(r.QueryRow(ctx,
		`SELECT `+attemptColumns+`, u.username FROM exam_attempts a JOIN users u ON u.id = a.student_id
		 WHERE a.id = ?`, attemptID))
}

// ListByExam returns every attempt at an exam ordered by username.
func ListByExam(ctx context.Context, r db.Runner, examID int64) ([]Attempt, error) {
	rows, err := r.Query(ctx,
		`SELECT `+attemptColumns+`, u.username FROM exam_attempts a JOIN users u ON u.id = a.student_id
		 WHERE a.exam_id = ? ORDER BY u.username ASC, a.id ASC`, examID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(sc scanner) (Attempt, error) {
	var a Attempt
	var status string
	var started int64
	var submitted sql.NullInt64
	if err := sc.Scan(&a.ID, &a.StudentID, &a.ExamID, &status, &a.TotalScore, &started, &submitted, &a.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, fmt.Errorf("attempt: %w", apperr.ErrNotFound)
		}
		return Attempt{}, err
	}
	a.Status = Status(status)
	a.StartedAt = db.UnixTime(started)
	a.SubmittedAt = db.NullUnixTime(submitted)
	return a, nil
}
