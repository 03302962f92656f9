// Package proctoring records what happens around an attempt: browser events
// (tab switches, focus loss) and the webcam recording, uploaded in ordered
// chunks and assembled into one file after submission. None of it affects
// scoring.
package proctoring

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/attempt"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/audit"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/exam"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/metrics"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/storage"
)

const maxEventType = 64

type LogEntry struct {
	ID        int64     `json:"id"`
	AttemptID int64     `json:"attempt_id"`
	EventType string    `json:"event_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is the teacher's view of one attempt's proctoring record.
type Report struct {
	AttemptID    int64         `json:"attempt_id"`
	ExamID       int64         `json:"exam_id"`
	ExamTitle    string        `json:"exam_title"`
	Username     string        `json:"student_username"`
	Status       string        `json:"status"`
	Logs         []LogEntry    `json:"logs"`
	Events       []audit.Event `json:"events"`
	HasRecording bool          `json:"has_recording"`
}

type Options struct {
	Logger *slog.Logger
	// AssemblyTimeout bounds one background assembly.
	AssemblyTimeout time.Duration
	Now             func() time.Time
}

type Service struct {
	db      *db.DB
	blobs   storage.BlobStore
	audit   *audit.Log
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time

	wg sync.WaitGroup
}

func NewService(d *db.DB, blobs storage.BlobStore, al *audit.Log, opts Options) *Service {
	s := &Service{
		db:      d,
		blobs:   blobs,
		audit:   al,
		log:     opts.Logger,
		timeout: opts.AssemblyTimeout,
		now:     opts.Now,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.timeout <= 0 {
		s.timeout = 5 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func attemptPrefix(attemptID int64) string { return fmt.Sprintf("attempts/%d/", attemptID) }

func chunkPrefix(attemptID int64) string { return fmt.Sprintf("attempts/%d/chunks/", attemptID) }

func chunkKey(attemptID int64, order int) string {
	return fmt.Sprintf("%s%010d.webm", chunkPrefix(attemptID), order)
}

func recordingKey(attemptID int64) string { return fmt.Sprintf("attempts/%d/recording.webm", attemptID) }

// attemptFor finds or creates the student's attempt at a published exam.
func (s *Service) attemptFor(ctx context.Context, studentID, examID int64) (int64, error) {
	if _, err := exam.GetPublished(ctx, s.db, examID); err != nil {
		return 0, err
	}
	return attempt.Ensure(ctx, s.db, studentID, examID, s.now())
}

// LogEvent appends a browser event to the student's attempt.
func (s *Service) LogEvent(ctx context.Context, studentID, examID int64, eventType string) (int64, error) {
	eventType = strings.TrimSpace(eventType)
	if eventType == "" || len(eventType) > maxEventType {
		return 0, fmt.Errorf("event_type required (max %d chars): %w", maxEventType, apperr.ErrValidation)
	}
	attemptID, err := s.attemptFor(ctx, studentID, examID)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO proctoring_logs (attempt_id, event_type, created_at) VALUES (?, ?, ?)`,
		attemptID, eventType, s.now().UTC().Unix()); err != nil {
		return 0, fmt.Errorf("log proctoring event: %w", err)
	}
	return attemptID, nil
}

// SaveChunk stores one ordered piece of the recording. Re-sending an order
// replaces the earlier piece.
func (s *Service) SaveChunk(ctx context.Context, studentID, examID int64, order int, r io.Reader, size int64) (int64, error) {
	if order < 0 {
		return 0, fmt.Errorf("chunk_order must be >= 0: %w", apperr.ErrValidation)
	}
	attemptID, err := s.attemptFor(ctx, studentID, examID)
	if err != nil {
		return 0, err
	}
	if _, err := s.blobs.Put(ctx, chunkKey(attemptID, order), r, size); err != nil {
		return 0, fmt.Errorf("save chunk: %w", err)
	}
	metrics.ChunksUploaded.Inc()
	s.audit.Record(ctx, audit.Event{
		Name: audit.EventVideoChunkUploaded, Status: audit.StatusSuccess,
		RelatedID: attemptID, RelatedType: audit.RelatedAttempt,
		Details: fmt.Sprintf("chunk %d saved", order),
	})
	return attemptID, nil
}

// Logs returns an attempt's events in the order they were recorded.
func (s *Service) Logs(ctx context.Context, attemptID int64) ([]LogEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, attempt_id, event_type, created_at FROM proctoring_logs
		 WHERE attempt_id = ? ORDER BY created_at ASC, id ASC`, attemptID)
	if err != nil {
		return nil, fmt.Errorf("proctoring logs: %w", err)
	}
	defer rows.Close()
	out := []LogEntry{}
	for rows.Next() {
		var e LogEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.AttemptID, &e.EventType, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = db.UnixTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Results builds the report for an attempt at an exam teacherID owns.
func (s *Service) Results(ctx context.Context, teacherID, attemptID int64) (Report, error) {
	a, e, err := s.ownedAttempt(ctx, teacherID, attemptID)
	if err != nil {
		return Report{}, err
	}
	logs, err := s.Logs(ctx, attemptID)
	if err != nil {
		return Report{}, err
	}
	events, err := s.audit.ListFor(ctx, audit.RelatedAttempt, attemptID)
	if err != nil {
		return Report{}, err
	}
	rep := Report{
		AttemptID: a.ID, ExamID: e.ID, ExamTitle: e.Title, Username: a.Username,
		Status: string(a.Status), Logs: logs, Events: events,
	}
	if obj, _, err := s.blobs.Open(ctx, recordingKey(attemptID)); err == nil {
		obj.Close()
		rep.HasRecording = true
	}
	return rep, nil
}

// OpenRecording opens the assembled video of an attempt at an exam
// teacherID owns.
func (s *Service) OpenRecording(ctx context.Context, teacherID, attemptID int64) (storage.Object, storage.Info, error) {
	if _, _, err := s.ownedAttempt(ctx, teacherID, attemptID); err != nil {
		return nil, storage.Info{}, err
	}
	return s.blobs.Open(ctx, recordingKey(attemptID))
}

func (s *Service) ownedAttempt(ctx context.Context, teacherID, attemptID int64) (attempt.Attempt, exam.Exam, error) {
	a, err := attempt.GetByID(ctx, s.db, attemptID)
	if err != nil {
		return attempt.Attempt{}, exam.Exam{}, err
	}
	e, err := exam.GetOwned(ctx, s.db, teacherID, a.ExamID)
	if err != nil {
		return attempt.Attempt{}, exam.Exam{}, fmt.Errorf("attempt %d: %w", attemptID, apperr.ErrNotFound)
	}
	return a, e, nil
}
