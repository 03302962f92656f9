package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/grading"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/metrics"
)

// GradeInput is a teacher's score for one student's answer. Scores are not
// bounded.
type GradeInput struct {
	StudentID  int64   `json:"student_id"`
	QuestionID int64   `json:"question_id"`
	Score      float64 `json:"score"`
}

type StudentTotal struct {
	StudentID int64   `json:"student_id"`
	Total     float64 `json:"total"`
}

// ApplyGrades writes a batch of manual scores to an exam the teacher owns
// and recomputes the total of every student touched.
func (s *Service) ApplyGrades(ctx context.Context, teacherID, examID int64, grades []GradeInput) ([]StudentTotal, error) {
	if len(grades) == 0 {
		return nil, fmt.Errorf("grades required: %w", apperr.ErrValidation)
	}
	for i, g := range grades {
		if g.StudentID <= 0 || g.QuestionID <= 0 {
			return nil, fmt.Errorf("grade %d: student_id and question_id required: %w", i+1, apperr.ErrValidation)
		}
	}

	var totals []StudentTotal
	err := s.db.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := exam.GetOwned(ctx, tx, teacherID, examID); err != nil {
			return err
		}
		students := map[int64]struct{}{}
		for _, g := range grades {
			if err := grading.SetManualScore(ctx, tx, g.StudentID, examID, g.QuestionID, g.Score, s.now()); err != nil {
				return err
			}
			students[g.StudentID] = struct{}{}
		}
		ids := make([]int64, 0, len(students))
		for id := range students {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			total, err := grading.RecalculateTotal(ctx, tx, id, examID)
			if err != nil {
				return err
			}
			totals = append(totals, StudentTotal{StudentID: id, Total: total})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.ManualGrades.Add(float64(len(grades)))
	s.log.Info("manual grades applied", "exam_id", examID, "teacher_id", teacherID, "count", len(grades))
	return totals, nil
}
