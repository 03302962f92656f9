package http

import (
	"fmt"
	"net/http"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/engine"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/rbac"
)

// GET /student/exams
func StudentExamsHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		available, completed, err := svc.Exams().ListForStudent(r.Context(), caller(r).UserID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"available": available, "completed": completed})
	}
}

// GET /exams/{examID}/take
func TakeExamHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		v, err := svc.TakeExam(r.Context(), caller(r).UserID, examID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{
			"exam":      v.Exam,
			"questions": v.Questions,
			"attempt":   v.Attempt,
			"answers":   v.Answers,
		})
	}
}

// POST /exams/{examID}/autosave
// Body: {"answers":[{question_id, answer_text?, selected_option?}]}. A single
// answer object without the wrapper is accepted too.
func AutosaveHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		var req struct {
			Answers []attempt.Input `json:"answers"`
			attempt.Input
		}
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteError(w, err)
			return
		}
		if len(req.Answers) == 0 && req.QuestionID != 0 {
			req.Answers = []attempt.Input{req.Input}
		}
		if len(req.Answers) == 0 {
			apperr.WriteError(w, fmt.Errorf("no answers: %w", apperr.ErrValidation))
			return
		}
		res, err := svc.Autosave(r.Context(), caller(r).UserID, examID, req.Answers)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"saved": res.Saved})
	}
}

// POST /exams/{examID}/submit
func SubmitHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		res, err := svc.Submit(r.Context(), caller(r).UserID, examID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		msg := "exam submitted"
		if res.AlreadySubmitted {
			msg = "exam already submitted"
		}
		writeOK(w, http.StatusOK, map[string]any{
			"message":           msg,
			"attempt_id":        res.AttemptID,
			"status":            res.Status,
			"total_score":       res.Total,
			"submitted_at":      res.SubmittedAt,
			"already_submitted": res.AlreadySubmitted,
		})
	}
}

// GET /exams/{examID}/results
// Students see their own per-question results; teachers see every attempt
// at an exam they own.
func ResultsHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		id := caller(r)
		if rbac.Allowed(r.Context(), rbac.PermResultsAll) {
			e, attempts, err := svc.ExamAttempts(r.Context(), id.UserID, examID)
			if err != nil {
				apperr.WriteError(w, err)
				return
			}
			writeOK(w, http.StatusOK, map[string]any{"exam": e, "attempts": attempts})
			return
		}
		res, err := svc.StudentResults(r.Context(), id.UserID, examID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"exam": res.Exam, "attempt": res.Attempt, "items": res.Items})
	}
}

