package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fleetops/nginx-fleet-manager/internal/storage"
	"github.com/fleetops/nginx-fleet-manager/internal/testutil/mockstore"
)

func testAgent(id string) *storage.Agent {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &storage.Agent{
		ID:          id,
		Hostname:    "web-01",
		IPAddress:   "10.0.0.5",
		Environment: "production",
		Version:     "1.24.0",
		OSInfo:      map[string]any{"os": "linux"},
		Status:      "active",
		LastSeen:    now,
		CreatedAt:   now,
	}
}

// keyedStore returns a mock store whose active key set for agentID
// verifies apiKey, alongside the given agent row.
func keyedStore(t *testing.T, agentID, apiKey string) *mockstore.MockStore {
	t.Helper()
	hash, err := storage.HashKey(apiKey)
	if err != nil {
		t.Fatalf("failed to hash key: %v", err)
	}
	return &mockstore.MockStore{
		ListActiveKeysFunc: func(ctx context.Context, id string) ([]*storage.AgentAPIKey, error) {
			if id != agentID {
				return []*storage.AgentAPIKey{}, nil
			}
			return []*storage.AgentAPIKey{{ID: "key-1", AgentID: id, KeyHash: hash}}, nil
		},
		GetAgentFunc: func(ctx context.Context, id string) (*storage.Agent, error) {
			if id != agentID {
				return nil, storage.ErrNotFound
			}
			return testAgent(id), nil
		},
	}
}

// TestHandleListAgents verifies the admin list with a status filter.
func TestHandleListAgents(t *testing.T) {
	t.Parallel()

	var gotFilter storage.AgentFilter
	store := &mockstore.MockStore{
		ListAgentsFunc: func(ctx context.Context, f storage.AgentFilter) ([]*storage.Agent, error) {
			gotFilter = f
			return []*storage.Agent{testAgent("agent-1")}, nil
		},
	}
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodGet, "/agents?status=active&skip=5&limit=10", nil, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if gotFilter.Status != "active" || gotFilter.Skip != 5 || gotFilter.Limit != 10 {
		t.Errorf("expected filter from query, got %+v", gotFilter)
	}

	var resp []AgentResponse
	decodeBody(t, rec, &resp)
	if len(resp) != 1 {
		t.Fatalf("expected 1 agent, got %d", len(resp))
	}
	if resp[0].ID != "agent-1" {
		t.Errorf("expected agent-1, got '%s'", resp[0].ID)
	}
}

// TestHandleGetAgentWithAPIKey verifies an agent can read itself.
func TestHandleGetAgentWithAPIKey(t *testing.T) {
	t.Parallel()

	store := keyedStore(t, "agent-1", "the-agent-key")
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodGet, "/agents/agent-1", nil, asAgent("the-agent-key"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AgentResponse
	decodeBody(t, rec, &resp)
	if resp.ID != "agent-1" {
		t.Errorf("expected agent-1, got '%s'", resp.ID)
	}
}

// TestHandleGetAgentAuthFailures verifies 401 for missing, wrong, and
// cross-agent keys.
func TestHandleGetAgentAuthFailures(t *testing.T) {
	t.Parallel()

	store := keyedStore(t, "agent-1", "the-agent-key")
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodGet, "/agents/agent-1", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/agents/agent-1", nil, asAgent("wrong-key"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong key, got %d", rec.Code)
	}

	// agent-1's key must not open agent-2's record
	rec = doRequest(t, router, http.MethodGet, "/agents/agent-2", nil, asAgent("the-agent-key"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for cross-agent key use, got %d", rec.Code)
	}
}

// TestHandleUpdateAgent verifies the allow-listed update path.
func TestHandleUpdateAgent(t *testing.T) {
	t.Parallel()

	var gotUpdate storage.AgentUpdate
	store := &mockstore.MockStore{
		UpdateAgentFunc: func(ctx context.Context, id string, u storage.AgentUpdate) (*storage.Agent, error) {
			gotUpdate = u
			a := testAgent(id)
			a.Hostname = *u.Hostname
			return a, nil
		},
	}
	router := newTestRouter(store)

	hostname := "web-01-renamed"
	rec := doRequest(t, router, http.MethodPut, "/agents/agent-1",
		UpdateAgentRequest{Hostname: &hostname}, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if gotUpdate.Hostname == nil || *gotUpdate.Hostname != "web-01-renamed" {
		t.Errorf("expected hostname update passed through")
	}
	if gotUpdate.Status != nil {
		t.Errorf("expected omitted fields to stay nil")
	}

	var resp AgentResponse
	decodeBody(t, rec, &resp)
	if resp.Hostname != "web-01-renamed" {
		t.Errorf("expected updated hostname in response, got '%s'", resp.Hostname)
	}
}

// TestHandleUpdateAgentValidation verifies empty required fields fail.
func TestHandleUpdateAgentValidation(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockstore.MockStore{})

	empty := ""
	rec := doRequest(t, router, http.MethodPut, "/agents/agent-1",
		UpdateAgentRequest{Hostname: &empty}, asAdmin())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty hostname, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodPut, "/agents/agent-1",
		UpdateAgentRequest{IPAddress: &empty}, asAdmin())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty ip_address, got %d", rec.Code)
	}
}

// TestHandleUpdateAgentNotFound verifies 404 mapping.
func TestHandleUpdateAgentNotFound(t *testing.T) {
	t.Parallel()

	store := &mockstore.MockStore{
		UpdateAgentFunc: func(ctx context.Context, id string, u storage.AgentUpdate) (*storage.Agent, error) {
			return nil, storage.ErrNotFound
		},
	}
	router := newTestRouter(store)

	hostname := "web-01"
	rec := doRequest(t, router, http.MethodPut, "/agents/no-such-agent",
		UpdateAgentRequest{Hostname: &hostname}, asAdmin())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if detail := errorDetail(t, rec); detail != "resource not found" {
		t.Errorf("unexpected detail: %q", detail)
	}
}

// TestHandleDeleteAgent verifies deletion and 404 for unknown agents.
func TestHandleDeleteAgent(t *testing.T) {
	t.Parallel()

	deleted := ""
	store := &mockstore.MockStore{
		DeleteAgentFunc: func(ctx context.Context, id string) error {
			if id == "agent-1" {
				deleted = id
				return nil
			}
			return storage.ErrNotFound
		},
	}
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodDelete, "/agents/agent-1", nil, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != "agent-1" {
		t.Errorf("expected delete call for agent-1")
	}

	rec = doRequest(t, router, http.MethodDelete, "/agents/no-such-agent", nil, asAdmin())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

// TestHandleRevokeKeys verifies the revocation count response.
func TestHandleRevokeKeys(t *testing.T) {
	t.Parallel()

	store := &mockstore.MockStore{
		RevokeAgentKeysFunc: func(ctx context.Context, agentID string, now time.Time) (int, error) {
			return 2, nil
		},
	}
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodPost, "/agents/agent-1/revoke", nil, asAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	decodeBody(t, rec, &resp)
	if resp["revoked"] != 2.0 {
		t.Errorf("expected revoked count 2, got %v", resp["revoked"])
	}
}

// TestAdminEndpointsRejectAgentKeys verifies an agent key opens no admin
// endpoint.
func TestAdminEndpointsRejectAgentKeys(t *testing.T) {
	t.Parallel()

	store := keyedStore(t, "agent-1", "the-agent-key")
	router := newTestRouter(store)

	rec := doRequest(t, router, http.MethodGet, "/agents", nil, asAgent("the-agent-key"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for agent key on admin endpoint, got %d", rec.Code)
	}
}
