package proctoring

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/audit"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/metrics"
)

// ErrNoChunks means an attempt has neither chunks nor an assembled recording.
var ErrNoChunks = errors.New("no video chunks found")

// AssembleAsync assembles the recording in the background. It is detached
// from any request: the submission that triggers it has already committed
// and its outcome only reaches the audit log.
func (s *Service) AssembleAsync(attemptID int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.Assemble(ctx, attemptID); err != nil {
			s.log.Warn("video assembly failed", "attempt_id", attemptID, "error", err)
		}
	}()
}

// Wait blocks until background assemblies finish.
func (s *Service) Wait() { s.wg.Wait() }

// Assemble concatenates an attempt's chunks in order into one recording
// and then removes the chunks. Running it again after success is a no-op;
// chunks arriving later are appended by re-assembling from the recording.
func (s *Service) Assemble(ctx context.Context, attemptID int64) error {
	s.record(ctx, attemptID, audit.EventVideoAssemblyStarted, audit.StatusInfo, "")

	chunks, err := s.blobs.List(ctx, chunkPrefix(attemptID))
	if err != nil {
		return s.fail(ctx, attemptID, err)
	}
	existing := false
	if obj, _, err := s.blobs.Open(ctx, recordingKey(attemptID)); err == nil {
		obj.Close()
		existing = true
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return s.fail(ctx, attemptID, err)
	}
	if len(chunks) == 0 {
		if existing {
			return nil
		}
		return s.fail(ctx, attemptID, ErrNoChunks)
	}

	parts := chunks
	if existing {
		parts = append([]string{recordingKey(attemptID)}, chunks...)
	}
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(s.concat(ctx, pw, parts))
	}()
	if _, err := s.blobs.Put(ctx, recordingKey(attemptID), pr, -1); err != nil {
		pr.CloseWithError(err)
		return s.fail(ctx, attemptID, err)
	}

	for _, k := range chunks {
		if err := s.blobs.Delete(ctx, k); err != nil {
			s.log.Warn("chunk cleanup failed", "attempt_id", attemptID, "key", k, "error", err)
		}
	}
	metrics.Assemblies.WithLabelValues(audit.StatusSuccess).Inc()
	s.record(ctx, attemptID, audit.EventVideoAssemblyCompleted, audit.StatusSuccess,
		fmt.Sprintf("%d chunks", len(chunks)))
	return nil
}

// Purge deletes every blob stored for an attempt, chunks and recording
// alike. It returns the first delete error after trying all keys.
func (s *Service) Purge(ctx context.Context, attemptID int64) error {
	keys, err := s.blobs.List(ctx, attemptPrefix(attemptID))
	if err != nil {
		return fmt.Errorf("list attempt %d blobs: %w", attemptID, err)
	}
	var first error
	for _, k := range keys {
		if err := s.blobs.Delete(ctx, k); err != nil && first == nil {
			first = fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return first
}

func (s *Service) concat(ctx context.Context, w io.Writer, keys []string) error {
	for _, k := range keys {
		rc, err := s.blobs.Get(ctx, k)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("copy %s: %w", k, err)
		}
	}
	return nil
}

func (s *Service) fail(ctx context.Context, attemptID int64, err error) error {
	metrics.Assemblies.WithLabelValues(audit.StatusFailure).Inc()
	s.record(ctx, attemptID, audit.EventVideoAssemblyFailed, audit.StatusFailure, err.Error())
	return err
}

func (s *Service) record(ctx context.Context, attemptID int64, name, status, details string) {
	s.audit.Record(ctx, audit.Event{
		Name: name, Status: status, RelatedID: attemptID,
		RelatedType: audit.RelatedAttempt, Details: details,
	})
}
