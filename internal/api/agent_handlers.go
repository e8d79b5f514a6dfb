package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

// AgentResponse is the JSON shape of an agent.
type AgentResponse struct {
	ID          string         `json:"id"`
	Hostname    string         `json:"hostname"`
	IPAddress   string         `json:"ip_address"`
	Environment string         `json:"environment"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	OSInfo      map[string]any `json:"os_info"`
	Status      string         `json:"status"`
	LastSeen    time.Time      `json:"last_seen"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toAgentResponse(a *storage.Agent) AgentResponse {
	return AgentResponse{
		ID:          a.ID,
		Hostname:    a.Hostname,
		IPAddress:   a.IPAddress,
		Environment: a.Environment,
		Description: a.Description,
		Version:     a.Version,
		OSInfo:      a.OSInfo,
		Status:      a.Status,
		LastSeen:    a.LastSeen,
		CreatedAt:   a.CreatedAt,
	}
}

// HandleListAgents returns agents, optionally filtered by status.
// GET /agents?status=&skip=&limit= (admin)
func (h *Handler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	skip, _ := strconv.Atoi(q.Get("skip"))   //nolint:errcheck
	limit, _ := strconv.Atoi(q.Get("limit")) //nolint:errcheck

	agents, err := h.store.ListAgents(r.Context(), storage.AgentFilter{
		Status: q.Get("status"),
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	response := make([]AgentResponse, len(agents))
	for i, a := range agents {
		response[i] = toAgentResponse(a)
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleGetAgent returns a single agent.
// GET /agents/{id} (agent key)
func (h *Handler) HandleGetAgent(w http.ResponseWriter, r *http.Request) {
	agent, err := h.store.GetAgent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentResponse(agent))
}

// UpdateAgentRequest is the request body for PUT /agents/{id}. Only the
// fields listed here can be changed; id, environment, and created_at are
// immutable, and unknown fields are ignored rather than merged.
type UpdateAgentRequest struct {
	Hostname    *string        `json:"hostname,omitempty"`
	IPAddress   *string        `json:"ip_address,omitempty"`
	Description *string        `json:"description,omitempty"`
	Version     *string        `json:"version,omitempty"`
	OSInfo      map[string]any `json:"os_info,omitempty"`
	Status      *string        `json:"status,omitempty"`
}

// HandleUpdateAgent applies an allow-listed partial update.
// PUT /agents/{id} (admin)
func (h *Handler) HandleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	var req UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Hostname != nil && *req.Hostname == "" {
		WriteError(w, http.StatusBadRequest, "hostname cannot be empty")
		return
	}
	if req.IPAddress != nil && *req.IPAddress == "" {
		WriteError(w, http.StatusBadRequest, "ip_address cannot be empty")
		return
	}

	agent, err := h.store.UpdateAgent(r.Context(), chi.URLParam(r, "id"), storage.AgentUpdate{
		Hostname:    req.Hostname,
		IPAddress:   req.IPAddress,
		Description: req.Description,
		Version:     req.Version,
		OSInfo:      req.OSInfo,
		Status:      req.Status,
	})
	if err != nil {
		h.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAgentResponse(agent))
}

// HandleDeleteAgent removes an agent and all its owned records.
// DELETE /agents/{id} (admin)
func (h *Handler) HandleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteAgent(r.Context(), id); err != nil {
		h.writeMappedError(w, err)
		return
	}
	h.logger.Info("agent deleted", "agent_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "agent deleted"})
}

// HandleRevokeKeys revokes all live API keys for an agent.
// POST /agents/{id}/revoke (admin)
func (h *Handler) HandleRevokeKeys(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	revoked, err := h.store.RevokeAgentKeys(r.Context(), id, time.Now().UTC())
	if err != nil {
		h.writeMappedError(w, err)
		return
	}
	h.logger.Info("agent API keys revoked", "agent_id", id, "revoked", revoked)
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "revoked": revoked})
}
