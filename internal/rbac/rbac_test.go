package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker(t *testing.T) {
	c := NewChecker(map[string][]string{
		"student": {PermExamTake, "results:*"},
		"root":    {"*"},
	})
	tests := []struct {
		role, perm string
		want       bool
	}{
		{"student", PermExamTake, true},
		{"student", PermResultsOwn, true},
		{"student", PermExamCreate, false},
		{"root", PermAttemptGrade, true},
		{"nobody", PermExamTake, false},
	}
	for _, tt := range tests {
		if got := c.Has(tt.role, tt.perm); got != tt.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
	if !c.Any("student", PermExamCreate, PermExamTake) {
		t.Error("Any should match the second permission")
	}
	if c.All("student", PermExamCreate, PermExamTake) {
		t.Error("All should fail on the missing permission")
	}
}

func TestDefaultPolicySeparatesRoles(t *testing.T) {
	c := NewChecker(nil)
	if c.Has("student", PermAttemptGrade) || c.Has("teacher", PermAttemptSubmit) {
		t.Error("roles leak each other's permissions")
	}
	if !c.Has("teacher", PermTranscribe) || !c.Has("student", PermTranscribe) {
		t.Error("transcription should be open to both roles")
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermAttemptGrade)(ok)

	tests := []struct {
		role string
		want int
	}{
		{"teacher", http.StatusNoContent},
		{"student", http.StatusForbidden},
		{"", http.StatusForbidden},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if tt.role != "" {
			req = req.WithContext(WithRole(req.Context(), tt.role))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("role %q: status %d, want %d", tt.role, rec.Code, tt.want)
		}
	}
}

func TestAllowed(t *testing.T) {
	ctx := context.Background()
	if Allowed(ctx, PermExamTake) {
		t.Error("no role must not be allowed")
	}
	if !Allowed(WithRole(ctx, "teacher"), PermResultsAll) {
		t.Error("teacher should see all results")
	}
	if Allowed(WithRole(ctx, "student"), PermResultsAll) {
		t.Error("student must not see all results")
	}
}
