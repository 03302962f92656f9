// Package audit appends lifecycle events (submissions, media assembly,
// chunk uploads) to the audit_events table. Recording is best effort: a
// failed write is logged and never reaches the caller.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db"
)

const (
	EventExamSubmitted          = "exam_submitted"
	EventVideoChunkUploaded     = "video_chunk_uploaded"
	EventVideoAssemblyStarted   = "video_assembly_started"
	EventVideoAssemblyCompleted = "video_assembly_completed"
	EventVideoAssemblyFailed    = "video_assembly_failed"

	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusInfo    = "info"

	RelatedAttempt = "exam_attempt"
)

type Event struct {
	ID          int64     `json:"id"`
	Name        string    `json:"event_name"`
	Status      string    `json:"status"`
	RelatedID   int64     `json:"related_id,omitempty"`
	RelatedType string    `json:"related_type,omitempty"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Recorder is implemented by Log and by anything tests want to observe.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

type Log struct {
	db  *db.DB
	log *slog.Logger
}

func NewLog(d *db.DB, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{db: d, log: logger}
}

func (l *Log) Record(ctx context.Context, e Event) {
	if err := l.Append(ctx, e); err != nil {
		l.log.Warn("audit event not recorded", "event", e.Name, "related_id", e.RelatedID, "error", err)
	}
}

// Append writes the event and returns any storage error.
func (l *Log) Append(ctx context.Context, e Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	var related any
	if e.RelatedID != 0 {
		related = e.RelatedID
	}
	_, err := l.db.Exec(ctx,
		`INSERT INTO audit_events (event_name, status, related_id, related_type, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Name, e.Status, related, e.RelatedType, e.Details, e.CreatedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("audit: append %s: %w", e.Name, err)
	}
	return nil
}

// ListFor returns the events recorded against one entity, oldest first.
func (l *Log) ListFor(ctx context.Context, relatedType string, relatedID int64) ([]Event, error) {
	rows, err := l.db.Query(ctx,
		`SELECT id, event_name, status, related_id, related_type, details, created_at
		 FROM audit_events WHERE related_type = ? AND related_id = ? ORDER BY id ASC`,
		relatedType, relatedID)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		var related sql.NullInt64
		var created int64
		if err := rows.Scan(&e.ID, &e.Name, &e.Status, &related, &e.RelatedType, &e.Details, &created); err != nil {
			return nil, err
		}
		e.RelatedID = related.Int64
		e.CreatedAt = db.UnixTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, Event) {}
