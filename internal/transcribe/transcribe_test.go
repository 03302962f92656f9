package transcribe_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/apperr"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/transcribe"
)

func TestWhisper(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		text    string
		want    string
		wantErr error
	}{
		{"ok", http.StatusOK, "  hello world \n", "hello world", nil},
		{"empty text", http.StatusOK, "   ", "", apperr.ErrUnavailable},
		{"server error", http.StatusInternalServerError, "", "", apperr.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLang string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasSuffix(r.URL.Path, "/audio/transcriptions") {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if err := r.ParseMultipartForm(1 << 20); err == nil {
					gotLang = r.FormValue("language")
				}
				if tt.status != http.StatusOK {
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, `{"error":{"message":"boom"}}`)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]string{"text": tt.text})
			}))
			defer srv.Close()

			w := transcribe.NewWhisper(srv.URL+"/v1", "test-key", "", nil)
			got, err := w.Transcribe(context.Background(), strings.NewReader("fake audio"), "de")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if gotLang != "de" {
				t.Errorf("language = %q, want de", gotLang)
			}
		})
	}
}

func TestDisabled(t *testing.T) {
	if _, err := (transcribe.Disabled{}).Transcribe(context.Background(), strings.NewReader("x"), ""); !errors.Is(err, apperr.ErrUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
}
