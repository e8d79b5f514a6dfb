package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fleetops/nginx-fleet-manager/internal/auth"
	"github.com/fleetops/nginx-fleet-manager/internal/registry"
	"github.com/fleetops/nginx-fleet-manager/internal/testutil/mockstore"
)

const testAdminKey = "test-admin-key"

// newTestRouter builds a full router over the mock store, with the real
// registry and guard in front of it.
func newTestRouter(store *mockstore.MockStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.NewService(store, logger)
	guard := auth.NewGuard(testAdminKey, store)
	h := NewHandler(store, reg, guard, logger, 24)
	return h.NewRouter(logger)
}

// doRequest performs a request against the router and returns the recorder.
func doRequest(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func asAdmin() map[string]string {
	return map[string]string{adminKeyHeader: testAdminKey}
}

func asAgent(apiKey string) map[string]string {
	return map[string]string{apiKeyHeader: apiKey}
}

// decodeBody unmarshals a JSON response body into v.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rec.Body.String(), err)
	}
}

// errorDetail extracts the detail field of an error response.
func errorDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e APIError
	decodeBody(t, rec, &e)
	return e.Detail
}
