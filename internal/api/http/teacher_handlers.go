package http

import (
	"log/slog"
	"net/http"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/engine"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/report"
)

// POST /exams
func CreateExamHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in exam.NewExam
		if err := decodeJSON(w, r, &in); err != nil {
			apperr.WriteError(w, err)
			return
		}
		e, err := svc.Exams().Create(r.Context(), caller(r).UserID, in)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, map[string]any{"exam": e, "message": "exam created"})
	}
}

// GET /teacher/exams
func TeacherExamsHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Exams().ListByTeacher(r.Context(), caller(r).UserID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"exams": list})
	}
}

// POST /exams/{examID}/publish
func PublishExamHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		if err := svc.Exams().Publish(r.Context(), caller(r).UserID, examID); err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"message": "exam published"})
	}
}

// DELETE /exams/{examID}
func DeleteExamHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		if err := svc.DeleteExam(r.Context(), caller(r).UserID, examID); err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"message": "exam deleted"})
	}
}

// GET /exams/{examID}/attempts
func ExamAttemptsHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		e, list, err := svc.ExamAttempts(r.Context(), caller(r).UserID, examID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"exam": e, "attempts": list})
	}
}

// GET /exams/{examID}/evaluation
func EvaluationHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		ev, err := svc.Evaluation(r.Context(), caller(r).UserID, examID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"exam": ev.Exam, "students": ev.Students})
	}
}

// POST /exams/{examID}/grades
// Body: {"grades":[{student_id, question_id, score}]}
func GradesHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		var req struct {
			Grades []engine.GradeInput `json:"grades"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteError(w, err)
			return
		}
		totals, err := svc.ApplyGrades(r.Context(), caller(r).UserID, examID, req.Grades)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"message": "grades saved", "totals": totals})
	}
}

// GET /exams/{examID}/results.csv
func ResultsCSVHandler(svc *engine.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		_, list, err := svc.ExamAttempts(r.Context(), caller(r).UserID, examID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(examID)+`"`)
		if err := report.WriteCSV(w, list); err != nil {
			slog.ErrorContext(r.Context(), "write results csv", "exam_id", examID, "error", err)
		}
	}
}
