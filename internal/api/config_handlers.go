package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

// ConfigRequest is the request body for creating or updating a config.
type ConfigRequest struct {
	Name       string         `json:"name"`
	ConfigType string         `json:"config_type"`
	Domain     string         `json:"domain,omitempty"`
	Config     map[string]any `json:"config"`
	IsActive   *bool          `json:"is_active,omitempty"`
}

// ConfigResponse is the JSON shape of an nginx config object.
type ConfigResponse struct {
	ID         string         `json:"id"`
	AgentID    string         `json:"agent_id"`
	Name       string         `json:"name"`
	ConfigType string         `json:"config_type"`
	Domain     string         `json:"domain"`
	Config     map[string]any `json:"config"`
	IsActive   bool           `json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toConfigResponse(c *storage.NginxConfig) ConfigResponse {
	return ConfigResponse{
		ID:         c.ID,
		AgentID:    c.AgentID,
		Name:       c.Name,
		ConfigType: c.ConfigType,
		Domain:     c.Domain,
		Config:     c.Config,
		IsActive:   c.IsActive,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// HandleCreateConfig creates a config object for an agent.
// POST /agents/{id}/configs (admin)
func (h *Handler) HandleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.ConfigType == "" {
		WriteError(w, http.StatusBadRequest, "name and config_type are required")
		return
	}

	now := time.Now().UTC()
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	cfg := &storage.NginxConfig{
		ID:         uuid.New().String(),
		AgentID:    chi.URLParam(r, "id"),
		Name:       req.Name,
		ConfigType: req.ConfigType,
		Domain:     req.Domain,
		Config:     req.Config,
		IsActive:   isActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.store.CreateConfig(r.Context(), cfg); err != nil {
		h.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConfigResponse(cfg))
}

// HandleListConfigs returns all config objects owned by an agent.
// GET /agents/{id}/configs (agent key or admin)
func (h *Handler) HandleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.store.ListConfigs(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	response := make([]ConfigResponse, len(configs))
	for i, c := range configs {
		response[i] = toConfigResponse(c)
	}
	writeJSON(w, http.StatusOK, response)
}

// HandleUpdateConfig replaces the mutable fields of a config object.
// PUT /configs/{id} (admin)
func (h *Handler) HandleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req ConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" || req.ConfigType == "" {
		WriteError(w, http.StatusBadRequest, "name and config_type are required")
		return
	}

	existing, err := h.store.GetConfig(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	existing.Name = req.Name
	existing.ConfigType = req.ConfigType
	existing.Domain = req.Domain
	existing.Config = req.Config
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	existing.UpdatedAt = time.Now().UTC()

	updated, err := h.store.UpdateConfig(r.Context(), existing)
	if err != nil {
		h.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConfigResponse(updated))
}

// HandleDeleteConfig removes a config object.
// DELETE /configs/{id} (admin)
func (h *Handler) HandleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteConfig(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "configuration deleted"})
}
