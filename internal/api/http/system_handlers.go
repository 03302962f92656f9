package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/transcribe"
)

const maxAudioBody = 25 << 20

// Pinger is satisfied by *db.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GET /healthz
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, map[string]any{"status": "ok"})
	}
}

// GET /readyz
func ReadyHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			apperr.WriteHTTP(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"status": "ready"})
	}
}

// POST /transcribe
// Multipart form: audio, language (optional, default en).
func TranscribeHandler(t transcribe.Transcriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxAudioBody)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			apperr.WriteError(w, fmt.Errorf("bad multipart form: %v: %w", err, apperr.ErrValidation))
			return
		}
		f, _, err := r.FormFile("audio")
		if err != nil {
			apperr.WriteError(w, fmt.Errorf("audio required: %w", apperr.ErrValidation))
			return
		}
		defer f.Close()

		text, err := t.Transcribe(r.Context(), f, strings.TrimSpace(r.FormValue("language")))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"text": text})
	}
}
