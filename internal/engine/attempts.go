package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/audit"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/grading"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/metrics"
)

// TakeView is everything the take-exam screen needs.
type TakeView struct {
	Exam      exam.Exam                 `json:"exam"`
	Questions []exam.Question           `json:"questions"`
	Attempt   attempt.Attempt           `json:"attempt"`
	Answers   map[int64]attempt.Content `json:"answers"`
}

// TakeExam opens (or resumes) the student's attempt at a published exam.
func (s *Service) TakeExam(ctx context.Context, studentID, examID int64) (TakeView, error) {
	b, err := s.bundle(ctx, examID)
	if err != nil {
		return TakeView{}, err
	}
	v := TakeView{Exam: b.Exam, Questions: b.Questions}
	err = s.db.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := attempt.Ensure(ctx, tx, studentID, examID, s.now()); err != nil {
			return err
		}
		a, err := attempt.Get(ctx, tx, studentID, examID)
		if err != nil {
			return err
		}
		v.Attempt = studentView(a)
		v.Answers, err = attempt.ListContent(ctx, tx, studentID, examID)
		return err
	})
	if err != nil {
		return TakeView{}, err
	}
	return v, nil
}

// AutosaveResult reports a save. Total is the recomputed attempt total; it
// is not shown to students before submission.
type AutosaveResult struct {
	Saved int     `json:"saved"`
	Total float64 `json:"-"`
}

// Autosave upserts a batch of answers into the student's attempt and
// recomputes its total. Answers to objective questions are graded from the
// merged content on every save; descriptive scores are left alone.
// Saving into a completed attempt is a conflict.
func (s *Service) Autosave(ctx context.Context, studentID, examID int64, inputs []attempt.Input) (AutosaveResult, error) {
	normalized := make([]attempt.Input, 0, len(inputs))
	for _, in := range inputs {
		n, err := in.Normalize()
		if err != nil {
			return AutosaveResult{}, err
		}
		normalized = append(normalized, n)
	}

	var res AutosaveResult
	err := s.db.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := exam.GetPublished(ctx, tx, examID); err != nil {
			return err
		}
		a, err := attempt.Lock(ctx, tx, studentID, examID, s.now())
		if err != nil {
			return err
		}
		if a.Completed() {
			return fmt.Errorf("attempt %d already submitted: %w", a.ID, apperr.ErrConflict)
		}
		for _, in := range normalized {
			if err := s.saveAnswer(ctx, tx, studentID, examID, in); err != nil {
				return err
			}
			res.Saved++
		}
		res.Total, err = grading.RecalculateTotal(ctx, tx, studentID, examID)
		return err
	})
	if err != nil {
		return AutosaveResult{}, err
	}
	metrics.AnswersSaved.Add(float64(res.Saved))
	return res, nil
}

func (s *Service) saveAnswer(ctx context.Context, tx *db.Tx, studentID, examID int64, in attempt.Input) error {
	q, err := exam.GetQuestion(ctx, tx, examID, in.QuestionID)
	if err != nil {
		return err
	}
	merged := grading.Response{SelectedOption: in.SelectedOption, AnswerText: in.AnswerText}
	prev, err := attempt.Find(ctx, tx, studentID, examID, in.QuestionID)
	switch {
	case err == nil:
		if merged.SelectedOption == nil {
			merged.SelectedOption = prev.SelectedOption
		}
		if merged.AnswerText == nil {
			merged.AnswerText = prev.AnswerText
		}
	case !errors.Is(err, apperr.ErrNotFound):
		return err
	}

	w := attempt.Write{
		StudentID: studentID, ExamID: examID, QuestionID: in.QuestionID,
		AnswerText: in.AnswerText, SelectedOption: in.SelectedOption,
	}
	g := s.scorer.Grader().Grade(ctx, grading.Q{Type: q.Type, CorrectAnswer: q.CorrectAnswer}, merged)
	if !g.NeedsManual {
		w.Graded = true
		w.IsCorrect = g.IsCorrect
		w.Score = &g.Score
	}
	return attempt.Save(ctx, tx, w, s.now())
}

type SubmitResult struct {
	AttemptID        int64      `json:"attempt_id"`
	Status           string     `json:"status"`
	Total            float64    `json:"total"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
	AlreadySubmitted bool       `json:"already_submitted"`
}

// Submit grades every objective answer, recomputes the total and completes
// the attempt, in that order and in one transaction. Submitting again
// returns the stored result unchanged. Media assembly starts only after
// the commit and cannot affect the result.
func (s *Service) Submit(ctx context.Context, studentID, examID int64) (SubmitResult, error) {
	var res SubmitResult
	err := s.db.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := exam.GetPublished(ctx, tx, examID); err != nil {
			return err
		}
		a, err := attempt.Lock(ctx, tx, studentID, examID, s.now())
		if err != nil {
			return err
		}
		res.AlreadySubmitted = true
		if !a.Completed() {
			if _, err := s.scorer.AutoGrade(ctx, tx, studentID, examID); err != nil {
				return err
			}
			if _, err := grading.RecalculateTotal(ctx, tx, studentID, examID); err != nil {
				return err
			}
			changed, err := attempt.Complete(ctx, tx, studentID, examID, s.now())
			if err != nil {
				return err
			}
			res.AlreadySubmitted = !changed
			if a, err = attempt.Get(ctx, tx, studentID, examID); err != nil {
				return err
			}
		}
		res.AttemptID = a.ID
		res.Status = string(a.Status)
		res.Total = a.TotalScore
		res.SubmittedAt = a.SubmittedAt
		return nil
	})
	if err != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		return SubmitResult{}, err
	}
	if res.AlreadySubmitted {
		metrics.Submissions.WithLabelValues("repeat").Inc()
		return res, nil
	}

	metrics.Submissions.WithLabelValues("completed").Inc()
	s.audit.Record(ctx, audit.Event{
		Name: audit.EventExamSubmitted, Status: audit.StatusSuccess,
		RelatedID: res.AttemptID, RelatedType: audit.RelatedAttempt,
		Details: fmt.Sprintf("total %.2f", res.Total),
	})
	if s.media != nil {
		s.media.AssembleAsync(res.AttemptID)
	}
	s.log.Info("exam submitted", "attempt_id", res.AttemptID, "exam_id", examID, "student_id", studentID, "total", res.Total)
	return res, nil
}
