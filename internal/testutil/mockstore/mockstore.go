// Package mockstore provides a function-field mock of the storage
// interfaces for handler and service tests.
package mockstore

import (
	"context"
	"time"

	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

// MockStore implements storage.Storage with overridable function fields.
// Methods whose field is nil return zero values.
type MockStore struct {
	CreateRegistrationTokenFunc func(ctx context.Context, t *storage.RegistrationToken) error
	ListRegistrationTokensFunc  func(ctx context.Context) ([]*storage.RegistrationToken, error)
	RegisterAgentFunc           func(ctx context.Context, p storage.RegisterAgentParams) (*storage.Agent, error)

	GetAgentFunc    func(ctx context.Context, id string) (*storage.Agent, error)
	ListAgentsFunc  func(ctx context.Context, f storage.AgentFilter) ([]*storage.Agent, error)
	UpdateAgentFunc func(ctx context.Context, id string, u storage.AgentUpdate) (*storage.Agent, error)
	DeleteAgentFunc func(ctx context.Context, id string) error
	TouchAgentFunc  func(ctx context.Context, id string, seen time.Time) error

	ListActiveKeysFunc  func(ctx context.Context, agentID string) ([]*storage.AgentAPIKey, error)
	RevokeAgentKeysFunc func(ctx context.Context, agentID string, now time.Time) (int, error)

	CreateMetricFunc func(ctx context.Context, m *storage.AgentMetric) error
	ListMetricsFunc  func(ctx context.Context, agentID string, f storage.MetricFilter) ([]*storage.AgentMetric, error)
	LatestMetricFunc func(ctx context.Context, agentID, metricType string) (*storage.AgentMetric, error)

	CreateLogFunc   func(ctx context.Context, l *storage.AgentLog) error
	ListLogsFunc    func(ctx context.Context, agentID string, f storage.LogFilter) ([]*storage.AgentLog, error)
	ListAllLogsFunc func(ctx context.Context, f storage.LogFilter) ([]*storage.AgentLog, error)
	PruneLogsFunc   func(ctx context.Context, agentID string, before time.Time) (int64, error)

	CreateConfigFunc func(ctx context.Context, c *storage.NginxConfig) error
	GetConfigFunc    func(ctx context.Context, id string) (*storage.NginxConfig, error)
	ListConfigsFunc  func(ctx context.Context, agentID string) ([]*storage.NginxConfig, error)
	UpdateConfigFunc func(ctx context.Context, c *storage.NginxConfig) (*storage.NginxConfig, error)
	DeleteConfigFunc func(ctx context.Context, id string) error

	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

func (m *MockStore) CreateRegistrationToken(ctx context.Context, t *storage.RegistrationToken) error {
	if m.CreateRegistrationTokenFunc != nil {
		return m.CreateRegistrationTokenFunc(ctx, t)
	}
	return nil
}

func (m *MockStore) ListRegistrationTokens(ctx context.Context) ([]*storage.RegistrationToken, error) {
	if m.ListRegistrationTokensFunc != nil {
		return m.ListRegistrationTokensFunc(ctx)
	}
	return []*storage.RegistrationToken{}, nil
}

func (m *MockStore) RegisterAgent(ctx context.Context, p storage.RegisterAgentParams) (*storage.Agent, error) {
	if m.RegisterAgentFunc != nil {
		return m.RegisterAgentFunc(ctx, p)
	}
	return nil, nil
}

func (m *MockStore) GetAgent(ctx context.Context, id string) (*storage.Agent, error) {
	if m.GetAgentFunc != nil {
		return m.GetAgentFunc(ctx, id)
	}
	return nil, storage.ErrNotFound
}

func (m *MockStore) ListAgents(ctx context.Context, f storage.AgentFilter) ([]*storage.Agent, error) {
	if m.ListAgentsFunc != nil {
		return m.ListAgentsFunc(ctx, f)
	}
	return []*storage.Agent{}, nil
}

func (m *MockStore) UpdateAgent(ctx context.Context, id string, u storage.AgentUpdate) (*storage.Agent, error) {
	if m.UpdateAgentFunc != nil {
		return m.UpdateAgentFunc(ctx, id, u)
	}
	return nil, storage.ErrNotFound
}

func (m *MockStore) DeleteAgent(ctx context.Context, id string) error {
	if m.DeleteAgentFunc != nil {
		return m.DeleteAgentFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) TouchAgent(ctx context.Context, id string, seen time.Time) error {
	if m.TouchAgentFunc != nil {
		return m.TouchAgentFunc(ctx, id, seen)
	}
	return nil
}

func (m *MockStore) ListActiveKeys(ctx context.Context, agentID string) ([]*storage.AgentAPIKey, error) {
	if m.ListActiveKeysFunc != nil {
		return m.ListActiveKeysFunc(ctx, agentID)
	}
	return []*storage.AgentAPIKey{}, nil
}

func (m *MockStore) RevokeAgentKeys(ctx context.Context, agentID string, now time.Time) (int, error) {
	if m.RevokeAgentKeysFunc != nil {
		return m.RevokeAgentKeysFunc(ctx, agentID, now)
	}
	return 0, nil
}

func (m *MockStore) CreateMetric(ctx context.Context, mm *storage.AgentMetric) error {
	if m.CreateMetricFunc != nil {
		return m.CreateMetricFunc(ctx, mm)
	}
	return nil
}

func (m *MockStore) ListMetrics(ctx context.Context, agentID string, f storage.MetricFilter) ([]*storage.AgentMetric, error) {
	if m.ListMetricsFunc != nil {
		return m.ListMetricsFunc(ctx, agentID, f)
	}
	return []*storage.AgentMetric{}, nil
}

func (m *MockStore) LatestMetric(ctx context.Context, agentID, metricType string) (*storage.AgentMetric, error) {
	if m.LatestMetricFunc != nil {
		return m.LatestMetricFunc(ctx, agentID, metricType)
	}
	return nil, storage.ErrNotFound
}

func (m *MockStore) CreateLog(ctx context.Context, l *storage.AgentLog) error {
	if m.CreateLogFunc != nil {
		return m.CreateLogFunc(ctx, l)
	}
	return nil
}

func (m *MockStore) ListLogs(ctx context.Context, agentID string, f storage.LogFilter) ([]*storage.AgentLog, error) {
	if m.ListLogsFunc != nil {
		return m.ListLogsFunc(ctx, agentID, f)
	}
	return []*storage.AgentLog{}, nil
}

func (m *MockStore) ListAllLogs(ctx context.Context, f storage.LogFilter) ([]*storage.AgentLog, error) {
	if m.ListAllLogsFunc != nil {
		return m.ListAllLogsFunc(ctx, f)
	}
	return []*storage.AgentLog{}, nil
}

func (m *MockStore) PruneLogs(ctx context.Context, agentID string, before time.Time) (int64, error) {
	if m.PruneLogsFunc != nil {
		return m.PruneLogsFunc(ctx, agentID, before)
	}
	return 0, nil
}

func (m *MockStore) CreateConfig(ctx context.Context, c *storage.NginxConfig) error {
	if m.CreateConfigFunc != nil {
		return m.CreateConfigFunc(ctx, c)
	}
	return nil
}

func (m *MockStore) GetConfig(ctx context.Context, id string) (*storage.NginxConfig, error) {
	if m.GetConfigFunc != nil {
		return m.GetConfigFunc(ctx, id)
	}
	return nil, storage.ErrNotFound
}

func (m *MockStore) ListConfigs(ctx context.Context, agentID string) ([]*storage.NginxConfig, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx, agentID)
	}
	return []*storage.NginxConfig{}, nil
}

func (m *MockStore) UpdateConfig(ctx context.Context, c *storage.NginxConfig) (*storage.NginxConfig, error) {
	if m.UpdateConfigFunc != nil {
		return m.UpdateConfigFunc(ctx, c)
	}
	return nil, storage.ErrNotFound
}

func (m *MockStore) DeleteConfig(ctx context.Context, id string) error {
	if m.DeleteConfigFunc != nil {
		return m.DeleteConfigFunc(ctx, id)
	}
	return nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockStore) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
