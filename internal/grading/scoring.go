package grading

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
)

// Scorer persists grades. Its methods take a db.Runner so they can join the
// caller's transaction.
type Scorer struct {
	grader Grader
}

func NewScorer(g Grader) *Scorer {
	if g == nil {
		g = NewDefaultGrader()
	}
	return &Scorer{grader: g}
}

func (s *Scorer) Grader() Grader { return s.grader }

type gradable struct {
	answerID int64
	q        Q
	resp     Response
}

// AutoGrade regrades every objective answer of a student's attempt and
// stores is_correct and score. Descriptive answers are not touched.
// It returns the number of answers graded.
func (s *Scorer) AutoGrade(ctx context.Context, r db.Runner, studentID, examID int64) (int, error) {
	rows, err := r.Query(ctx,
		`SELECT a.id, a.selected_option, a.answer_text, q.question_type, q.correct_answer
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE a.student_id = ? AND a.exam_id = ?
		 ORDER BY a.question_id ASC`, studentID, examID)
	if err != nil {
		return 0, fmt.Errorf("auto grade: %w", err)
	}
	var todo []gradable
	for rows.Next() {
		var g gradable
		var option, text, correct sql.NullString
		var typ string
		if err := rows.Scan(&g.answerID, &option, &text, &typ, &correct); err != nil {
			rows.Close()
			return 0, fmt.Errorf("auto grade: scan: %w", err)
		}
		g.q = Q{Type: exam.QuestionType(typ), CorrectAnswer: correct.String}
		if option.Valid {
			g.resp.SelectedOption = &option.String
		}
		if text.Valid {
			g.resp.AnswerText = &text.String
		}
		todo = append(todo, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	n := 0
	for _, g := range todo {
		res := s.grader.Grade(ctx, g.q, g.resp)
		if res.NeedsManual {
			continue
		}
		if err := attempt.SetGrade(ctx, r, g.answerID, res.IsCorrect, res.Score); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// SetManualScore upserts a teacher's score for a student's answer, creating
// the answer when the question was left blank. The student must have an
// attempt at the exam. Any value is accepted; questions carry no maximum.
func SetManualScore(ctx context.Context, r db.Runner, studentID, examID, questionID int64, score float64, now time.Time) error {
	if _, err := exam.GetQuestion(ctx, r, examID, questionID); err != nil {
		return err
	}
	if _, err := attempt.Get(ctx, r, studentID, examID); err != nil {
		return err
	}
	return attempt.SetScore(ctx, r, studentID, examID, questionID, score, now)
}

// RecalculateTotal sums the attempt's answer scores, writes the sum as the
// attempt total and returns it.
func RecalculateTotal(ctx context.Context, r db.Runner, studentID, examID int64) (float64, error) {
	total, err := attempt.SumScores(ctx, r, studentID, examID)
	if err != nil {
		return 0, err
	}
	if err := attempt.SetTotal(ctx, r, studentID, examID, total); err != nil {
		return 0, err
	}
	return total, nil
}
