package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// TestInitAndRecord verifies registration and counting end to end.
func TestInitAndRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Init(reg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	RecordRequest(http.MethodGet, "/agents", "OK")
	RecordRequestDuration(http.MethodGet, "/agents", "OK", 0.042)
	RecordAuthFailure("admin_secret")
	RecordRegistration("token_issued")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}

	for _, name := range []string{
		"fleet_manager_requests_total",
		"fleet_manager_request_duration_seconds",
		"fleet_manager_auth_failures_total",
		"fleet_manager_registrations_total",
	} {
		if !found[name] {
			t.Errorf("expected metric family %s to be registered", name)
		}
	}
}

// TestInitDuplicateRegistration verifies Init fails on a registry that
// already holds the collectors.
func TestInitDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Init(reg); err != nil {
		t.Fatalf("first Init failed: %v", err)
	}
	if err := Init(reg); err == nil {
		t.Errorf("expected error on duplicate registration")
	}
}

// TestHandler verifies the exposition endpoint serves text format.
func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Init(reg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	RecordRegistration("registered")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fleet_manager_registrations_total") {
		t.Errorf("expected registrations counter in exposition output")
	}
}

// TestNormalizePath verifies UUID segments collapse to :id.
func TestNormalizePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/agents", "/agents"},
		{"/agents/550e8400-e29b-41d4-a716-446655440000", "/agents/:id"},
		{"/agents/550e8400-e29b-41d4-a716-446655440000/metrics", "/agents/:id/metrics"},
		{"/configs/550e8400-e29b-41d4-a716-446655440000", "/configs/:id"},
		{"/health", "/health"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

// TestMiddlewareRecordsStatus verifies status capture through the wrapper.
func TestMiddlewareRecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Init(reg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/agents/550e8400-e29b-41d4-a716-446655440000", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 passed through, got %d", rec.Code)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	var counted bool
	for _, mf := range families {
		if mf.GetName() != "fleet_manager_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["path"] == "/agents/:id" && labels["status"] == http.StatusText(http.StatusNotFound) {
				counted = true
			}
		}
	}
	if !counted {
		t.Errorf("expected request counted with normalized path and status")
	}
}
