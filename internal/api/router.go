package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fleetops/nginx-fleet-manager/internal/metrics"
	"github.com/fleetops/nginx-fleet-manager/internal/middleware"
)

// maxRequestBody caps request bodies at 1 MiB; log details and os_info
// payloads never legitimately approach this.
const maxRequestBody = 1 << 20

// NewRouter creates the fleet manager router with all routes and middleware.
func (h *Handler) NewRouter(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(middleware.RequestLogging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.MaxBodySize(maxRequestBody))

	// Public endpoints (no auth)
	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)

	// Registration workflow
	r.Route("/register", func(r chi.Router) {
		// The registration token is the credential for /register/agent
		r.Post("/agent", h.HandleRegisterAgent)

		r.Group(func(r chi.Router) {
			r.Use(h.AdminAuthMiddleware)
			r.Post("/token", h.HandleIssueToken)
			r.Get("/tokens", h.HandleListTokens)
		})
	})

	// Fleet administration
	r.Group(func(r chi.Router) {
		r.Use(h.AdminAuthMiddleware)
		r.Get("/agents", h.HandleListAgents)
		r.Put("/agents/{id}", h.HandleUpdateAgent)
		r.Delete("/agents/{id}", h.HandleDeleteAgent)
		r.Post("/agents/{id}/revoke", h.HandleRevokeKeys)
		r.Get("/agents/{id}/metrics", h.HandleListMetrics)
		r.Get("/agents/{id}/metrics/latest", h.HandleLatestMetric)
		r.Get("/agents/{id}/logs", h.HandleListLogs)
		r.Delete("/agents/{id}/logs", h.HandlePruneLogs)
		r.Get("/logs", h.HandleListAllLogs)
		r.Post("/agents/{id}/configs", h.HandleCreateConfig)
		r.Put("/configs/{id}", h.HandleUpdateConfig)
		r.Delete("/configs/{id}", h.HandleDeleteConfig)
	})

	// Agent-scoped endpoints (per-agent API key)
	r.Group(func(r chi.Router) {
		r.Use(h.AgentAuthMiddleware)
		r.Get("/agents/{id}", h.HandleGetAgent)
		r.Post("/agents/{id}/metrics", h.HandleCreateMetric)
		r.Post("/agents/{id}/logs", h.HandleCreateLog)
	})

	// Config reads are shared: the agent pulls its own configs, operators
	// inspect them
	r.Group(func(r chi.Router) {
		r.Use(h.AgentOrAdminAuthMiddleware)
		r.Get("/agents/{id}/configs", h.HandleListConfigs)
	})

	return r
}
