package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/auth"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// POST /auth/register
func RegisterHandler(users *user.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteError(w, err)
			return
		}
		u, err := users.Create(r.Context(), req.Username, req.Password, user.Role(strings.ToLower(req.Role)))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		slog.InfoContext(r.Context(), "user registered", "user_id", u.ID, "role", u.Role)
		writeOK(w, http.StatusCreated, map[string]any{"user": u})
	}
}

// POST /auth/login
// The role is optional; when given the account must have it.
func LoginHandler(users *user.Store, a *auth.Service, secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentials
		if err := decodeJSON(w, r, &req); err != nil {
			apperr.WriteError(w, err)
			return
		}
		u, err := users.Authenticate(r.Context(), req.Username, req.Password, user.Role(strings.ToLower(req.Role)))
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		tok, exp, err := a.Issue(u)
		if err != nil {
			apperr.WriteError(w, err)
			return
		}
		auth.SetCookie(w, tok, exp, secureCookies)
		writeOK(w, http.StatusOK, map[string]any{
			"access_token": tok,
			"token_type":   "bearer",
			"expires_at":   exp,
			"user":         u,
		})
	}
}

// POST /auth/logout
func LogoutHandler(secureCookies bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.ClearCookie(w, secureCookies)
		writeOK(w, http.StatusOK, map[string]any{"message": "logged out"})
	}
}
