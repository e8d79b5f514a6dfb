package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fleetops/nginx-fleet-manager/internal/auth"
	"github.com/fleetops/nginx-fleet-manager/internal/metrics"
)

// Credential headers.
const (
	adminKeyHeader = "X-Admin-Key"
	apiKeyHeader   = "X-API-Key"
)

// AdminAuthMiddleware gates administrative endpoints on the X-Admin-Key
// header. The check runs before the handler; a rejected request has no
// side effects.
func (h *Handler) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := r.Header.Get(adminKeyHeader)
		if presented == "" {
			metrics.RecordAuthFailure("admin_secret")
			WriteError(w, http.StatusUnauthorized, "missing admin key")
			return
		}
		if !h.guard.IsAdmin(presented) {
			h.logger.Warn("invalid admin key attempt", "remote_addr", r.RemoteAddr)
			metrics.RecordAuthFailure("admin_secret")
			WriteError(w, http.StatusUnauthorized, "invalid admin key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AgentAuthMiddleware gates agent-scoped endpoints on the X-API-Key
// header. The key must validate for the agent named in the URL; keys for
// other agents are rejected. No validity result is cached across requests,
// so revocation takes effect on the next presentation.
func (h *Handler) AgentAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agentID := chi.URLParam(r, "id")
		presented := r.Header.Get(apiKeyHeader)
		if presented == "" {
			metrics.RecordAuthFailure("api_key")
			WriteError(w, http.StatusUnauthorized, "missing API key")
			return
		}
		if err := h.guard.ValidateAgentKey(r.Context(), agentID, presented); err != nil {
			if !errors.Is(err, auth.ErrInvalidCredential) && !errors.Is(err, auth.ErrMissingCredential) {
				h.logger.Error("failed to validate API key", "error", err)
				WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			h.logger.Warn("invalid API key attempt", "agent_id", agentID, "remote_addr", r.RemoteAddr)
			metrics.RecordAuthFailure("api_key")
			WriteError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AgentOrAdminAuthMiddleware accepts either a valid admin key or a valid
// API key for the agent in the URL. Used where both the agent itself and
// operators need read access.
func (h *Handler) AgentOrAdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.guard.IsAdmin(r.Header.Get(adminKeyHeader)) {
			next.ServeHTTP(w, r)
			return
		}

		agentID := chi.URLParam(r, "id")
		presented := r.Header.Get(apiKeyHeader)
		if presented != "" && h.guard.ValidateAgentKey(r.Context(), agentID, presented) == nil {
			next.ServeHTTP(w, r)
			return
		}

		metrics.RecordAuthFailure("api_key")
		WriteError(w, http.StatusUnauthorized, "invalid credentials")
	})
}
