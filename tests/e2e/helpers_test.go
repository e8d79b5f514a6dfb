package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetops/nginx-fleet-manager/internal/api"
	"github.com/fleetops/nginx-fleet-manager/internal/auth"
	"github.com/fleetops/nginx-fleet-manager/internal/registry"
	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

const adminKey = "e2e-admin-secret"

// env is a fully wired fleet manager over an in-memory database.
type env struct {
	server *httptest.Server
	store  *storage.SQLiteStorage
}

// setup starts the fleet manager against a fresh in-memory database.
func setup(t *testing.T) *env {
	t.Helper()

	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := registry.NewService(store, logger)
	guard := auth.NewGuard(adminKey, store)
	handler := api.NewHandler(store, reg, guard, logger, 24)

	server := httptest.NewServer(handler.NewRouter(logger))
	t.Cleanup(server.Close)

	return &env{server: server, store: store}
}

// request performs an HTTP request against the test server.
func (e *env) request(t *testing.T, method, path string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

// asAdmin returns the admin credential header.
func asAdmin() map[string]string {
	return map[string]string{"X-Admin-Key": adminKey}
}

// asAgent returns the agent credential header.
func asAgent(apiKey string) map[string]string {
	return map[string]string{"X-API-Key": apiKey}
}

// decode unmarshals a response body and closes it.
func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// issueToken mints a registration token through the API.
func (e *env) issueToken(t *testing.T, environment string) string {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/register/token",
		map[string]any{"environment": environment}, asAdmin())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var issued struct {
		Token string `json:"token"`
	}
	decode(t, resp, &issued)
	require.NotEmpty(t, issued.Token)
	return issued.Token
}

// registered is the response to a successful agent registration.
type registered struct {
	Agent struct {
		ID          string `json:"id"`
		Hostname    string `json:"hostname"`
		Environment string `json:"environment"`
		Status      string `json:"status"`
	} `json:"agent"`
	APIKey string `json:"api_key"`
}

// registerAgent redeems a token for a new agent identity.
func (e *env) registerAgent(t *testing.T, token, hostname string) registered {
	t.Helper()

	resp := e.request(t, http.MethodPost, "/register/agent", map[string]any{
		"registration_token": token,
		"hostname":           hostname,
		"ip_address":         "10.0.0.5",
		"version":            "1.24.0",
		"os_info":            map[string]any{"os": "linux"},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out registered
	decode(t, resp, &out)
	require.NotEmpty(t, out.Agent.ID)
	require.NotEmpty(t, out.APIKey)
	return out
}
