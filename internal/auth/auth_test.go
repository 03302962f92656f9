package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/rbac"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/user"
)

func TestIssueAndParse(t *testing.T) {
	a := NewService("secret", time.Hour)
	tok, exp, err := a.Issue(user.User{ID: 42, Username: "amy", Role: user.RoleStudent})
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("expiry too early: %v", exp)
	}
	id, err := a.Parse(tok)
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != 42 || id.Username != "amy" || id.Role != user.RoleStudent {
		t.Errorf("unexpected identity: %+v", id)
	}

	if _, err := NewService("other", time.Hour).Parse(tok); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("wrong secret: expected unauthorized, got %v", err)
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: "student",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: "1", Issuer: issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	s, err := expired.SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Parse(s); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("expired: expected unauthorized, got %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	a := NewService("secret", time.Hour)
	tok, _, err := a.Issue(user.User{ID: 7, Username: "tom", Role: user.RoleTeacher})
	if err != nil {
		t.Fatal(err)
	}
	var seen Identity
	var seenRole string
	h := Middleware(a)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		seenRole = rbac.RoleFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"bearer", "Bearer " + tok, "", http.StatusOK},
		{"cookie", "", tok, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && (seen.UserID != 7 || seenRole != "teacher") {
				t.Errorf("identity not attached: %+v role=%q", seen, seenRole)
			}
		})
	}
}
