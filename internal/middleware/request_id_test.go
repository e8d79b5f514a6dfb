package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// TestRequestIDGenerated verifies a UUID is generated when absent.
func TestRequestIDGenerated(t *testing.T) {
	t.Parallel()

	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured == "" {
		t.Fatalf("expected request ID in context")
	}
	if _, err := uuid.Parse(captured); err != nil {
		t.Errorf("expected generated UUID, got '%s'", captured)
	}
	if rec.Header().Get("X-Request-ID") != captured {
		t.Errorf("expected response header to match context ID")
	}
}

// TestRequestIDPropagated verifies a valid inbound ID is kept.
func TestRequestIDPropagated(t *testing.T) {
	t.Parallel()

	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id.01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if captured != "client-supplied-id.01" {
		t.Errorf("expected client ID kept, got '%s'", captured)
	}
}

// TestRequestIDInvalidReplaced verifies unsafe inbound IDs are replaced.
func TestRequestIDInvalidReplaced(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
	}{
		{"injection characters", "bad\nid"},
		{"spaces", "has spaces"},
		{"too long", strings.Repeat("a", 129)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var captured string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", tt.id)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if captured == tt.id {
				t.Errorf("expected invalid ID to be replaced")
			}
			if _, err := uuid.Parse(captured); err != nil {
				t.Errorf("expected replacement UUID, got '%s'", captured)
			}
		})
	}
}

// TestGetRequestIDEmpty verifies the zero value for a bare context.
func TestGetRequestIDEmpty(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty ID, got '%s'", id)
	}
}
