package exam

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
)

// Store is the exam catalogue. The package-level functions take a db.Runner
// so the engine can use them inside its own transactions.
type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store { return &Store{db: d} }

const examColumns = `id, title, description, duration, created_by, published, created_at`

// Create validates and stores an exam with its questions as a draft.
func (s *Store) Create(ctx context.Context, teacherID int64, in NewExam) (Exam, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.Duration <= 0 {
		return Exam{}, fmt.Errorf("title and positive duration required: %w", apperr.ErrValidation)
	}
	if len(in.Questions) == 0 {
		return Exam{}, fmt.Errorf("at least one question required: %w", apperr.ErrValidation)
	}
	type row struct {
		text, correct string
		typ           QuestionType
		options       *string
	}
	rows := make([]row, 0, len(in.Questions))
	for i, q := range in.Questions {
		typ, ok := ParseQuestionType(q.Type)
		if !ok {
			return Exam{}, fmt.Errorf("question %d: unknown type %q: %w", i+1, q.Type, apperr.ErrValidation)
		}
		text := strings.TrimSpace(q.Text)
		if text == "" {
			return Exam{}, fmt.Errorf("question %d: text required: %w", i+1, apperr.ErrValidation)
		}
		r := row{text: text, typ: typ}
		if typ == TypeMCQ {
			opts, err := encodeOptions(q.Options)
			if err != nil {
				return Exam{}, fmt.Errorf("question %d: options: %w", i+1, err)
			}
			r.options = opts
			r.correct = strings.TrimSpace(q.CorrectAnswer)
		}
		rows = append(rows, r)
	}

	now := time.Now().UTC().Unix()
	e := Exam{
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Duration:    in.Duration,
		CreatedBy:   teacherID,
		CreatedAt:   db.UnixTime(now),
	}
	err := s.db.WithTx(ctx, func(tx *db.Tx) error {
		id, err := tx.InsertID(ctx,
			`INSERT INTO exams (title, description, duration, created_by, published, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			e.Title, e.Description, e.Duration, teacherID, tx.Dialect().Bool(false), now)
		if err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}
		e.ID = id
		for _, r := range rows {
			var correct any
			if r.correct != "" {
				correct = r.correct
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO questions (exam_id, question_text, question_type, options, correct_answer) VALUES (?, ?, ?, ?, ?)`,
				id, r.text, string(r.typ), r.options, correct); err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Exam{}, err
	}
	return e, nil
}

// Publish makes an owned exam visible to students. There is no unpublish.
func (s *Store) Publish(ctx context.Context, teacherID, examID int64) error {
	res, err := s.db.Exec(ctx, `UPDATE exams SET published = ? WHERE id = ? AND created_by = ?`,
		s.db.Dialect().Bool(true), examID, teacherID)
	if err != nil {
		return fmt.Errorf("publish exam: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("exam %d: %w", examID, apperr.ErrNotFound)
	}
	return nil
}

// Delete removes an owned exam with its answers, proctoring logs, attempts
// and questions, and returns the ids of the attempts it removed. A missing
// or foreign exam is NotFound and nothing changes.
func (s *Store) Delete(ctx context.Context, teacherID, examID int64) ([]int64, error) {
	var attemptIDs []int64
	err := s.db.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := GetOwned(ctx, tx, teacherID, examID); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `SELECT id FROM exam_attempts WHERE exam_id = ? ORDER BY id ASC`, examID)
		if err != nil {
			return fmt.Errorf("list exam %d attempts: %w", examID, err)
		}
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			attemptIDs = append(attemptIDs, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		stmts := []string{
			`DELETE FROM answers WHERE exam_id = ?`,
			`DELETE FROM proctoring_logs WHERE attempt_id IN (SELECT id FROM exam_attempts WHERE exam_id = ?)`,
			`DELETE FROM exam_attempts WHERE exam_id = ?`,
			`DELETE FROM questions WHERE exam_id = ?`,
			`DELETE FROM exams WHERE id = ?`,
		}
		for _, q := range stmts {
			if _, err := tx.Exec(ctx, q, examID); err != nil {
				return fmt.Errorf("delete exam %d: %w", examID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attemptIDs, nil
}

func (s *Store) Get(ctx context.Context, examID int64) (Exam, error) {
	return Get(ctx, s.db, examID)
}

func (s *Store) Questions(ctx context.Context, examID int64) ([]Question, error) {
	return ListQuestions(ctx, s.db, examID)
}

// ListByTeacher returns the exams a teacher owns, newest first.
func (s *Store) ListByTeacher(ctx context.Context, teacherID int64) ([]Exam, error) {
	return queryExams(ctx, s.db,
		`SELECT `+examColumns+` FROM exams WHERE created_by = ? ORDER BY id DESC`, teacherID)
}

// ListForStudent splits published exams into those the student has not
// started and those the student has completed.
func (s *Store) ListForStudent(ctx context.Context, studentID int64) (available, completed []Exam, err error) {
	pub := s.db.Dialect().Bool(true)
	available, err = queryExams(ctx, s.db,
		`SELECT `+examColumns+` FROM exams e WHERE e.published = ?
		 AND NOT EXISTS (SELECT 1 FROM exam_attempts a WHERE a.student_id = ? AND a.exam_id = e.id)
		 ORDER BY e.id DESC`, pub, studentID)
	if err != nil {
		return nil, nil, err
	}
	completed, err = queryExams(ctx, s.db,
		`SELECT `+examColumns+` FROM exams e WHERE e.published = ?
		 AND EXISTS (SELECT 1 FROM exam_attempts a WHERE a.student_id = ? AND a.exam_id = e.id AND a.status = 'completed')
		 ORDER BY e.id DESC`, pub, studentID)
	if err != nil {
		return nil, nil, err
	}
	return available, completed, nil
}

// Get loads an exam by id.
func Get(ctx context.Context, r db.Runner, examID int64) (Exam, error) {
	return scanExam(r.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = ?`, examID))
}

// GetPublished loads an exam only if students may see it.
func GetPublished(ctx context.Context, r db.Runner, examID int64) (Exam, error) {
	return scanExam(r.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = ? AND published = ?`,
		examID, r.Dialect().Bool(true)))
}

// GetOwned loads an exam only if teacherID created it.
func GetOwned(ctx context.Context, r db.Runner, teacherID, examID int64) (Exam, error) {
	return scanExam(r.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = ? AND created_by = ?`,
		examID, teacherID))
}

// ListQuestions returns an exam's questions in authoring order with options normalized.
func ListQuestions(ctx context.Context, r db.Runner, examID int64) ([]Question, error) {
	rows, err := r.Query(ctx,
		`SELECT id, exam_id, question_text, question_type, options, correct_answer
		 FROM questions WHERE exam_id = ? ORDER BY id ASC`, examID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// GetQuestion loads a question, which must belong to examID.
func GetQuestion(ctx context.Context, r db.Runner, examID, questionID int64) (Question, error) {
	row := r.QueryRow(ctx,
		`SELECT id, exam_id, question_text, question_type, options, correct_answer
		 FROM questions WHERE id = ? AND exam_id = ?`, questionID, examID)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, fmt.Errorf("question %d in exam %d: %w", questionID, examID, apperr.ErrNotFound)
	}
	return q, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(sc scanner) (Question, error) {
	var q Question
	var typ string
	var opts, correct sql.NullString
	if err := sc.Scan(&q.ID, &q.ExamID, &q.Text, &typ, &opts, &correct); err != nil {
		return Question{}, err
	}
	q.Type = QuestionType(typ)
	q.Options = ParseOptions(opts.String)
	q.CorrectAnswer = correct.String
	return q, nil
}

func scanExam(sc scanner) (Exam, error) {
	var e Exam
	var created int64
	if err := sc.Scan(&e.ID, &e.Title, &e.Description, &e.Duration, &e.CreatedBy, &e.Published, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, fmt.Errorf("exam: %w", apperr.ErrNotFound)
		}
		return Exam{}, err
	}
	e.CreatedAt = db.UnixTime(created)
	return e, nil
}

func queryExams(ctx context.Context, r db.Runner, query string, args ...any) ([]Exam, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
