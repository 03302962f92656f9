package attempt

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

type Answer struct {
	ID             int64     `json:"id"`
	StudentID      int64     `json:"student_id"`
	ExamID         int64     `json:"exam_id"`
	QuestionID     int64     `json:"question_id"`
	AnswerText     *string   `json:"answer_text"`
	SelectedOption *string   `json:"selected_option"`
	IsCorrect      *bool     `json:"is_correct"`
	Score          *float64  `json:"score"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Content is what a student has written for a question; it is the preload
// shape of the take-exam view.
type Content struct {
	AnswerText     *string `json:"answer_text"`
	SelectedOption *string `json:"selected_option"`
}

// Input is one autosaved answer as sent by a client. Absent fields are nil.
type Input struct {
	QuestionID     int64   `json:"question_id"`
	AnswerText     *string `json:"answer_text,omitempty"`
	SelectedOption *string `json:"selected_option,omitempty"`
}

// Normalize uppercases and trims the selected option, treating an empty one
// as absent. An input with neither field is a validation error.
func (in Input) Normalize() (Input, error) {
	if in.SelectedOption != nil {
		s := strings.ToUpper(strings.TrimSpace(*in.SelectedOption))
		if s == "" {
			in.SelectedOption = nil
		} else {
			in.SelectedOption = &s
		}
	}
	if in.QuestionID <= 0 {
		return in, fmt.Errorf("question_id required: %w", apperr.ErrValidation)
	}
	if in.AnswerText == nil && in.SelectedOption == nil {
		return in, fmt.Errorf("question %d: answer_text or selected_option required: %w", in.QuestionID, apperr.ErrValidation)
	}
	return in, nil
}

// Write is a fully resolved answer upsert. When Graded is false the stored
// is_correct and score are left untouched.
type Write struct {
	StudentID      int64
	ExamID         int64
	QuestionID     int64
	AnswerText     *string
	SelectedOption *string
	Graded         bool
	IsCorrect      *bool
	Score          *float64
}

// Save inserts or updates the answer for (student, exam, question). Absent
// text or option keep their stored values.
func Save(ctx context.Context, r db.Runner, w Write, now time.Time) error {
	var isCorrect any
	if w.IsCorrect != nil {
		isCorrect = r.Dialect().Bool(*w.IsCorrect)
	}
	var score any
	if w.Score != nil {
		score = *w.Score
	}

	set := `answer_text = COALESCE(excluded.answer_text, answers.answer_text),
		selected_option = COALESCE(excluded.selected_option, answers.selected_option),
		updated_at = excluded.updated_at`
	if w.Graded {
		set += `, is_correct = excluded.is_correct, score = excluded.score`
	}
	_, err := r.Exec(ctx,
		`INSERT INTO answers (student_id, exam_id, question_id, answer_text, selected_option, is_correct, score, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (student_id, exam_id, question_id) DO UPDATE SET `+set,
		w.StudentID, w.ExamID, w.QuestionID, w.AnswerText, w.SelectedOption, isCorrect, score, now.UTC().Unix())
	if err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

// SetGrade overwrites is_correct and score of an existing answer.
func SetGrade(ctx context.Context, r db.Runner, answerID int64, isCorrect *bool, score float64) error {
	var ic any
	if isCorrect != nil {
		ic = r.Dialect().Bool(*isCorrect)
	}
	if _, err := r.Exec(ctx, `UPDATE answers SET is_correct = ?, score = ? WHERE id = ?`, ic, score, answerID); err != nil {
		return fmt.Errorf("set grade: %w", err)
	}
	return nil
}

// SetScore upserts the score of the student's answer to a question. An
// unanswered question gets an answer row that carries only the score.
func SetScore(ctx context.Context, r db.Runner, studentID, examID, questionID int64, score float64, now time.Time) error {
	if _, err := r.Exec(ctx,
		`INSERT INTO answers (student_id, exam_id, question_id, score, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (student_id, exam_id, question_id) DO UPDATE SET
		   score = excluded.score, updated_at = excluded.updated_at`,
		studentID, examID, questionID, score, now.UTC().Unix()); err != nil {
		return fmt.Errorf("set score: %w", err)
	}
	return nil
}

const answerColumns = `id, student_id, exam_id, question_id, answer_text, selected_option, is_correct, score, updated_at`

// Find returns the stored answer, or ErrNotFound.
func Find(ctx context.Context, r db.Runner, studentID, examID, questionID int64) (Answer, error) {
	a, err := scanAnswer(r.QueryRow(ctx,
		`SELECT `+answerColumns+` FROM answers WHERE student_id = ? AND exam_id = ? AND question_id = ?`,
		studentID, examID, questionID))
	if errors.Is(err, sql.ErrNoRows) {
		return Answer{}, fmt.Errorf("answer: %w", apperr.ErrNotFound)
	}
	return a, err
}

// List returns a student's answers to an exam in question order.
func List(ctx context.Context, r db.Runner, studentID, examID int64) ([]Answer, error) {
	return queryAnswers(ctx, r,
		`SELECT `+answerColumns+` FROM answers WHERE student_id = ? AND exam_id = ? ORDER BY question_id ASC`,
		studentID, examID)
}

// ListAnswersByExam returns every student's answers to an exam.
func ListAnswersByExam(ctx context.Context, r db.Runner, examID int64) ([]Answer, error) {
	return queryAnswers(ctx, r,
		`SELECT `+answerColumns+` FROM answers WHERE exam_id = ? ORDER BY student_id ASC, question_id ASC`,
		examID)
}

// ListContent maps question id to what the student has entered so far.
func ListContent(ctx context.Context, r db.Runner, studentID, examID int64) (map[int64]Content, error) {
	answers, err := List(ctx, r, studentID, examID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]Content, len(answers))
	for _, a := range answers {
		out[a.QuestionID] = Content{AnswerText: a.AnswerText, SelectedOption: a.SelectedOption}
	}
	return out, nil
}

// SumScores adds up the scores of a student's answers, null as zero.
func SumScores(ctx context.Context, r db.Runner, studentID, examID int64) (float64, error) {
	var total sql.NullFloat64
	if err := r.QueryRow(ctx,
		`SELECT SUM(score) FROM answers WHERE student_id = ? AND exam_id = ?`,
		studentID, examID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum scores: %w", err)
	}
	return total.Float64, nil
}

func queryAnswers(ctx context.Context, r db.Runner, query string, args ...any) ([]Answer, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()
	out := []Answer{}
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAnswer(sc scanner) (Answer, error) {
	var a Answer
	var text, option sql.NullString
	var correct sql.NullBool
	var score sql.NullFloat64
	var updated int64
	if err := sc.Scan(&a.ID, &a.StudentID, &a.ExamID, &a.QuestionID, &text, &option, &correct, &score, &updated); err != nil {
		return Answer{}, err
	}
	if text.Valid {
		a.AnswerText = &text.String
	}
	if option.Valid {
		a.SelectedOption = &option.String
	}
	if correct.Valid {
		a.IsCorrect = &correct.Bool
	}
	if score.Valid {
		a.Score = &score.Float64
	}
	a.UpdatedAt = db.UnixTime(updated)
	return a, nil
}
