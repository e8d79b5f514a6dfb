package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetops/nginx-fleet-manager/internal/metrics"
	"github.com/fleetops/nginx-fleet-manager/internal/registry"
)

// IssueTokenRequest is the request body for POST /register/token.
type IssueTokenRequest struct {
	Environment string `json:"environment"`
	Description string `json:"description,omitempty"`
	ExpiryHours int    `json:"expiry_hours,omitempty"`
}

// IssueTokenResponse carries the plaintext token, shown exactly once.
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HandleIssueToken creates a single-use registration token.
// POST /register/token (admin)
func (h *Handler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ExpiryHours < 0 {
		WriteError(w, http.StatusBadRequest, "expiry_hours must be positive")
		return
	}
	if req.ExpiryHours == 0 {
		req.ExpiryHours = h.defaultExpiry
	}

	issued, err := h.registry.IssueToken(r.Context(), registry.IssueTokenParams{
		Environment: req.Environment,
		Description: req.Description,
		ExpiryHours: req.ExpiryHours,
	})
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	metrics.RecordRegistration("token_issued")
	writeJSON(w, http.StatusCreated, IssueTokenResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

// RegistrationTokenResponse is the audit view of a token. The token value
// is not stored and therefore can never appear here.
type RegistrationTokenResponse struct {
	ID          string     `json:"id"`
	Environment string     `json:"environment"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Used        bool       `json:"used"`
	UsedBy      *string    `json:"used_by,omitempty"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
}

// HandleListTokens returns all registration tokens for auditing.
// GET /register/tokens (admin)
func (h *Handler) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.store.ListRegistrationTokens(r.Context())
	if err != nil {
		h.writeMappedError(w, err)
		return
	}

	response := make([]RegistrationTokenResponse, len(tokens))
	for i, t := range tokens {
		response[i] = RegistrationTokenResponse{
			ID:          t.ID,
			Environment: t.Environment,
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
			ExpiresAt:   t.ExpiresAt,
			Used:        t.Used,
			UsedBy:      t.UsedBy,
			UsedAt:      t.UsedAt,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// RegisterAgentRequest is the request body for POST /register/agent.
type RegisterAgentRequest struct {
	RegistrationToken string         `json:"registration_token"`
	Hostname          string         `json:"hostname"`
	IPAddress         string         `json:"ip_address"`
	Version           string         `json:"version,omitempty"`
	Description       string         `json:"description,omitempty"`
	OSInfo            map[string]any `json:"os_info,omitempty"`
}

// RegisterAgentResponse carries the created agent and its plaintext API
// key. The key is returned only here; afterwards it can be revoked but
// never retrieved.
type RegisterAgentResponse struct {
	Agent  AgentResponse `json:"agent"`
	APIKey string        `json:"api_key"`
}

// HandleRegisterAgent redeems a registration token for an agent identity.
// POST /register/agent (the token is the credential)
func (h *Handler) HandleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	var req RegisterAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	agent, apiKey, err := h.registry.RegisterAgent(r.Context(), registry.RegisterParams{
		Token:       req.RegistrationToken,
		Hostname:    req.Hostname,
		IPAddress:   req.IPAddress,
		Version:     req.Version,
		Description: req.Description,
		OSInfo:      req.OSInfo,
	})
	if err != nil {
		metrics.RecordRegistration("rejected")
		h.writeMappedError(w, err)
		return
	}

	metrics.RecordRegistration("registered")
	writeJSON(w, http.StatusCreated, RegisterAgentResponse{
		Agent:  toAgentResponse(agent),
		APIKey: apiKey,
	})
}
