// Package storage provides types and interfaces for SQLite persistence operations.
package storage

import (
	"context"
	"time"
)

// Storage defines the persistence operations for the fleet manager.
type Storage interface {
	// Registration tokens
	CreateRegistrationToken(ctx context.Context, t *RegistrationToken) error
	ListRegistrationTokens(ctx context.Context) ([]*RegistrationToken, error)

	// Atomic registration: token redemption + agent row + API key row in
	// one transaction. Returns ErrTokenSpent unless exactly this call
	// flipped the token from unused to used.
	RegisterAgent(ctx context.Context, p RegisterAgentParams) (*Agent, error)

	// Agents
	GetAgent(ctx context.Context, id string) (*Agent, error)
	ListAgents(ctx context.Context, f AgentFilter) ([]*Agent, error)
	UpdateAgent(ctx context.Context, id string, u AgentUpdate) (*Agent, error)
	DeleteAgent(ctx context.Context, id string) error
	TouchAgent(ctx context.Context, id string, seen time.Time) error

	// API keys
	ListActiveKeys(ctx context.Context, agentID string) ([]*AgentAPIKey, error)
	RevokeAgentKeys(ctx context.Context, agentID string, now time.Time) (int, error)

	// Metrics
	CreateMetric(ctx context.Context, m *AgentMetric) error
	ListMetrics(ctx context.Context, agentID string, f MetricFilter) ([]*AgentMetric, error)
	LatestMetric(ctx context.Context, agentID, metricType string) (*AgentMetric, error)

	// Logs
	CreateLog(ctx context.Context, l *AgentLog) error
	ListLogs(ctx context.Context, agentID string, f LogFilter) ([]*AgentLog, error)
	ListAllLogs(ctx context.Context, f LogFilter) ([]*AgentLog, error)
	PruneLogs(ctx context.Context, agentID string, before time.Time) (int64, error)

	// Nginx configs
	CreateConfig(ctx context.Context, c *NginxConfig) error
	GetConfig(ctx context.Context, id string) (*NginxConfig, error)
	ListConfigs(ctx context.Context, agentID string) ([]*NginxConfig, error)
	UpdateConfig(ctx context.Context, c *NginxConfig) (*NginxConfig, error)
	DeleteConfig(ctx context.Context, id string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
