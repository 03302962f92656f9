// Package engine runs the attempt and scoring operations a web request
// maps to. Each operation is one transaction: autosave batches, the
// submission protocol and manual grade batches either commit entirely or
// leave nothing behind.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/audit"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/cache"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/grading"
)

// Media owns an attempt's recorded blobs: it starts post-submission
// processing and removes everything stored when the attempt goes away.
type Media interface {
	AssembleAsync(attemptID int64)
	Purge(ctx context.Context, attemptID int64) error
}

type Options struct {
	Logger *slog.Logger
	Grader grading.Grader
	Cache  cache.Exams
	Media  Media
	Audit  audit.Recorder
	Now    func() time.Time
}

type Service struct {
	db     *db.DB
	exams  *exam.Store
	scorer *grading.Scorer
	cache  cache.Exams
	media  Media
	audit  audit.Recorder
	log    *slog.Logger
	now    func() time.Time
}

func New(d *db.DB, opts Options) *Service {
	s := &Service{
		db:     d,
		exams:  exam.NewStore(d),
		scorer: grading.NewScorer(opts.Grader),
		cache:  opts.Cache,
		media:  opts.Media,
		audit:  opts.Audit,
		log:    opts.Logger,
		now:    opts.Now,
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.audit == nil {
		s.audit = audit.Nop{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Exams exposes the catalogue for authoring.
func (s *Service) Exams() *exam.Store { return s.exams }

// DeleteExam removes an owned exam with everything attached to it. Stored
// media of its attempts is purged after the rows are gone; a failed purge
// is logged and does not fail the delete.
func (s *Service) DeleteExam(ctx context.Context, teacherID, examID int64) error {
	attemptIDs, err := s.exams.Delete(ctx, teacherID, examID)
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, examID)
	if s.media != nil {
		for _, id := range attemptIDs {
			if err := s.media.Purge(ctx, id); err != nil {
				s.log.Warn("attempt media purge failed", "attempt_id", id, "exam_id", examID, "error", err)
			}
		}
	}
	s.log.Info("exam deleted", "exam_id", examID, "teacher_id", teacherID, "attempts", len(attemptIDs))
	return nil
}

// bundle loads a published exam with its questions, answer keys removed.
func (s *Service) bundle(ctx context.Context, examID int64) (cache.Bundle, error) {
	if b, ok := s.cache.Get(ctx, examID); ok {
		return b, nil
	}
	e, err := exam.GetPublished(ctx, s.db, examID)
	if err != nil {
		return cache.Bundle{}, err
	}
	qs, err := exam.ListQuestions(ctx, s.db, examID)
	if err != nil {
		return cache.Bundle{}, err
	}
	b := cache.Bundle{Exam: e, Questions: make([]exam.Question, 0, len(qs))}
	for _, q := range qs {
		b.Questions = append(b.Questions, q.Public())
	}
	s.cache.Put(ctx, b)
	return b, nil
}
