package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/auth"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/engine"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/metrics"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/proctoring"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/rbac"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/transcribe"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

// Deps are the collaborators the router hands to its handlers.
type Deps struct {
	DB          Pinger
	Users       *user.Store
	Auth        *auth.Service
	Engine      *engine.Service
	Proctoring  *proctoring.Service
	Transcriber transcribe.Transcriber
	Logger      *slog.Logger

	CORSOrigins    []string
	SecureCookies  bool
	RequestTimeout time.Duration
}

func NewRouter(d Deps) chi.Router {
	if d.Transcriber == nil {
		d.Transcriber = transcribe.Disabled{}
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if d.Logger != nil {
		r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(d.Logger.Handler(), slog.LevelInfo),
			NoColor: true,
		}))
	} else {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Range"},
		ExposedHeaders:   []string{"Content-Length", "Content-Range", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", HealthHandler())
	r.Get("/readyz", ReadyHandler(d.DB))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/register", RegisterHandler(d.Users))
		ar.Post("/login", LoginHandler(d.Users, d.Auth, d.SecureCookies))
		ar.Post("/logout", LogoutHandler(d.SecureCookies))
	})

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Middleware(d.Auth))

		// Student flow
		pr.With(rbac.Require(rbac.PermExamTake)).
			Get("/student/exams", StudentExamsHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermExamTake)).
			Get("/exams/{examID}/take", TakeExamHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermAttemptSave)).
			Post("/exams/{examID}/autosave", AutosaveHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermAttemptSubmit)).
			Post("/exams/{examID}/submit", SubmitHandler(d.Engine))
		pr.With(rbac.RequireAny(rbac.PermResultsOwn, rbac.PermResultsAll)).
			Get("/exams/{examID}/results", ResultsHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermProctorRecord)).
			Post("/exams/{examID}/proctoring/events", ProctoringEventHandler(d.Proctoring))
		pr.With(rbac.Require(rbac.PermProctorRecord)).
			Post("/exams/{examID}/proctoring/chunks", ChunkUploadHandler(d.Proctoring))

		// Teacher flow; ownership is checked by the engine
		pr.With(rbac.Require(rbac.PermExamCreate)).
			Post("/exams", CreateExamHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermExamList)).
			Get("/teacher/exams", TeacherExamsHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermExamPublish)).
			Post("/exams/{examID}/publish", PublishExamHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermExamDelete)).
			Delete("/exams/{examID}", DeleteExamHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermResultsAll)).
			Get("/exams/{examID}/attempts", ExamAttemptsHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermAttemptGrade)).
			Get("/exams/{examID}/evaluation", EvaluationHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermAttemptGrade)).
			Post("/exams/{examID}/grades", GradesHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermResultsExport)).
			Get("/exams/{examID}/results.csv", ResultsCSVHandler(d.Engine))
		pr.With(rbac.Require(rbac.PermProctorReview)).
			Get("/attempts/{attemptID}/proctoring", AttemptProctoringHandler(d.Proctoring))
		pr.With(rbac.Require(rbac.PermProctorReview)).
			Get("/attempts/{attemptID}/video", VideoHandler(d.Proctoring))

		pr.With(rbac.Require(rbac.PermTranscribe)).
			Post("/transcribe", TranscribeHandler(d.Transcriber))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apperr.WriteHTTP(w, http.StatusNotFound, "not found")
	})
	return r
}
