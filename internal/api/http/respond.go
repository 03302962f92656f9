// Package http exposes the exam engine as a JSON API on a chi router.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/auth"
)

const maxJSONBody = 1 << 20

// writeOK writes {"success": true, ...fields}.
func writeOK(w http.ResponseWriter, status int, fields map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		return fmt.Errorf("bad json: %v: %w", err, apperr.ErrValidation)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer: %w", name, apperr.ErrValidation)
	}
	return id, nil
}

// caller returns the authenticated identity. Routes behind auth.Middleware
// always have one.
func caller(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
