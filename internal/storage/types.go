package storage

import "time"

// RegistrationToken is a single-use credential for enrolling a new agent.
// The token value itself is never stored; only its SHA-256 hash.
type RegistrationToken struct {
	ID          string
	TokenHash   string
	Environment string
	Description string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Used        bool
	UsedBy      *string
	UsedAt      *time.Time
}

// Agent is a registered nginx instance in the fleet.
type Agent struct {
	ID          string
	Hostname    string
	IPAddress   string
	Environment string
	Description string
	Version     string
	OSInfo      map[string]any
	Status      string
	LastSeen    time.Time
	CreatedAt   time.Time
}

// AgentAPIKey is the long-lived credential issued to an agent at
// registration. The key value is bcrypt-hashed; revoked rows are kept as
// an audit trail.
type AgentAPIKey struct {
	ID        string
	AgentID   string
	KeyHash   string
	CreatedAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// AgentMetric is a single metric sample submitted by an agent.
type AgentMetric struct {
	ID         string
	AgentID    string
	MetricType string
	Value      map[string]any
	Timestamp  time.Time
}

// AgentLog is a log entry submitted by an agent.
type AgentLog struct {
	ID        string
	AgentID   string
	Level     string
	Category  string
	Message   string
	Details   map[string]any
	Timestamp time.Time
}

// NginxConfig is a configuration object owned by an agent.
type NginxConfig struct {
	ID         string
	AgentID    string
	Name       string
	ConfigType string
	Domain     string
	Config     map[string]any
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AgentUpdate carries the allow-listed fields of an administrative agent
// edit. Nil pointers mean "leave unchanged". Immutable fields (id,
// environment, created_at) have no representation here on purpose.
type AgentUpdate struct {
	Hostname    *string
	IPAddress   *string
	Description *string
	Version     *string
	OSInfo      map[string]any
	Status      *string
}

// AgentFilter narrows ListAgents results.
type AgentFilter struct {
	Status string // empty = all
	Skip   int
	Limit  int // 0 = default 100
}

// MetricFilter narrows ListMetrics results.
type MetricFilter struct {
	MetricType string    // empty = all
	Since      time.Time // zero = no lower bound
}

// LogFilter narrows log queries.
type LogFilter struct {
	Level    string
	Category string
	Since    time.Time
	Limit    int // 0 = no limit (per-agent) or default 100 (fleet-wide)
}

// RegisterAgentParams bundles the rows written by the atomic registration
// transaction. The caller (registry) generates all IDs and hashes; storage
// only decides whether the token CAS wins.
type RegisterAgentParams struct {
	TokenHash string
	Now       time.Time

	Agent Agent // Environment and Description may be overwritten from the token row

	KeyID   string
	KeyHash string
}
