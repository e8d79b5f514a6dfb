// Package api provides the HTTP surface of the fleet manager.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/fleetops/nginx-fleet-manager/internal/auth"
	"github.com/fleetops/nginx-fleet-manager/internal/registry"
	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

// Store is the slice of storage the HTTP handlers need.
type Store interface {
	// Health check
	Ping(ctx context.Context) error

	// Registration token audit
	ListRegistrationTokens(ctx context.Context) ([]*storage.RegistrationToken, error)

	// Agents
	GetAgent(ctx context.Context, id string) (*storage.Agent, error)
	ListAgents(ctx context.Context, f storage.AgentFilter) ([]*storage.Agent, error)
	UpdateAgent(ctx context.Context, id string, u storage.AgentUpdate) (*storage.Agent, error)
	DeleteAgent(ctx context.Context, id string) error
	TouchAgent(ctx context.Context, id string, seen time.Time) error

	// API keys
	RevokeAgentKeys(ctx context.Context, agentID string, now time.Time) (int, error)

	// Metrics
	CreateMetric(ctx context.Context, m *storage.AgentMetric) error
	ListMetrics(ctx context.Context, agentID string, f storage.MetricFilter) ([]*storage.AgentMetric, error)
	LatestMetric(ctx context.Context, agentID, metricType string) (*storage.AgentMetric, error)

	// Logs
	CreateLog(ctx context.Context, l *storage.AgentLog) error
	ListLogs(ctx context.Context, agentID string, f storage.LogFilter) ([]*storage.AgentLog, error)
	ListAllLogs(ctx context.Context, f storage.LogFilter) ([]*storage.AgentLog, error)
	PruneLogs(ctx context.Context, agentID string, before time.Time) (int64, error)

	// Nginx configs
	CreateConfig(ctx context.Context, c *storage.NginxConfig) error
	GetConfig(ctx context.Context, id string) (*storage.NginxConfig, error)
	ListConfigs(ctx context.Context, agentID string) ([]*storage.NginxConfig, error)
	UpdateConfig(ctx context.Context, c *storage.NginxConfig) (*storage.NginxConfig, error)
	DeleteConfig(ctx context.Context, id string) error
}

// Handler provides the fleet manager endpoints.
type Handler struct {
	store         Store
	registry      *registry.Service
	guard         *auth.Guard
	logger        *slog.Logger
	defaultExpiry int // hours, for issue requests that omit expiry_hours
}

// NewHandler creates an API handler.
func NewHandler(store Store, reg *registry.Service, guard *auth.Guard, logger *slog.Logger, defaultExpiryHours int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultExpiryHours <= 0 {
		defaultExpiryHours = registry.DefaultExpiryHours
	}
	return &Handler{
		store:         store,
		registry:      reg,
		guard:         guard,
		logger:        logger,
		defaultExpiry: defaultExpiryHours,
	}
}
