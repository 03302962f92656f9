package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/proctoring"
)

const maxChunkBody = 64 << 20

// POST /exams/{examID}/proctoring/events
func ProctoringEventHandler(p *proctoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		var req struct {
			EventType string `json:"event_type"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteError(w, err)
			return
		}
		id, err := p.LogEvent(r.Context(), caller(r).UserID, examID, req.EventType)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, map[string]any{"attempt_id": id})
	}
}

// POST /exams/{examID}/proctoring/chunks
// Multipart form: chunk_order, video_chunk.
func ChunkUploadHandler(p *proctoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID, err := pathID(r, "examID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxChunkBody)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			apperr.WriteError(w, fmt.Errorf("bad multipart form: %v: %w", err, apperr.ErrValidation))
			return
		}
		order, err := strconv.Atoi(strings.TrimSpace(r.FormValue("chunk_order")))
		if err != nil {
			apperr.WriteError(w, fmt.Errorf("chunk_order must be an integer: %w", apperr.ErrValidation))
			return
		}
		f, hdr, err := r.FormFile("video_chunk")
		if err != nil {
			apperr.WriteError(w, fmt.Errorf("video_chunk required: %w", apperr.ErrValidation))
			return
		}
		defer f.Close()

		attemptID, err := p.SaveChunk(r.Context(), caller(r).UserID, examID, order, f, hdr.Size)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusCreated, map[string]any{"attempt_id": attemptID, "chunk_order": order})
	}
}

// GET /attempts/{attemptID}/proctoring
func AttemptProctoringHandler(p *proctoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, err := pathID(r, "attemptID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		rep, err := p.Results(r.Context(), caller(r).UserID, attemptID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		writeOK(w, http.StatusOK, map[string]any{"report": rep})
	}
}

// GET /attempts/{attemptID}/video
// Serves the assembled recording with byte range support.
func VideoHandler(p *proctoring.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID, err := pathID(r, "attemptID")
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		obj, info, err := p.OpenRecording(r.Context(), caller(r).UserID, attemptID)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		defer obj.Close()
		w.Header().Set("Content-Type", "video/webm")
		http.ServeContent(w, r, fmt.Sprintf("attempt_%d.webm", attemptID), info.ModTime, obj)
	}
}
