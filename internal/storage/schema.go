package storage

import (
	"database/sql"
	"fmt"
)

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
func InitSchema(db *sql.DB) error {
	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	ddlStatements := []string{
		// agents table: one row per registered nginx instance
		`CREATE TABLE IF NOT EXISTS agents (
			id TEXT PRIMARY KEY,
			hostname TEXT NOT NULL,
			ip_address TEXT NOT NULL,
			environment TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL DEFAULT '',
			os_info TEXT NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'registered',
			last_seen TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_agents_status ON agents(status)`,

		// registration_tokens table: single-use enrollment credentials.
		// Rows are never deleted; used tokens stay as an audit trail.
		`CREATE TABLE IF NOT EXISTS registration_tokens (
			id TEXT PRIMARY KEY,
			token_hash TEXT NOT NULL UNIQUE,
			environment TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			used INTEGER NOT NULL DEFAULT 0,
			used_by TEXT REFERENCES agents(id) ON DELETE SET NULL,
			used_at TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_registration_tokens_hash ON registration_tokens(token_hash)`,

		// agent_api_keys table: bcrypt-hashed long-lived credentials.
		// Revoked rows are kept, never deleted.
		`CREATE TABLE IF NOT EXISTS agent_api_keys (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			key_hash TEXT NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL,
			revoked INTEGER NOT NULL DEFAULT 0,
			revoked_at TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_agent_api_keys_agent ON agent_api_keys(agent_id)`,

		// agent_metrics table: metric samples owned by an agent
		`CREATE TABLE IF NOT EXISTS agent_metrics (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			metric_type TEXT NOT NULL,
			value TEXT NOT NULL DEFAULT '{}',
			timestamp TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_agent_metrics_agent_time ON agent_metrics(agent_id, timestamp)`,

		// agent_logs table: log entries owned by an agent
		`CREATE TABLE IF NOT EXISTS agent_logs (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			level TEXT NOT NULL,
			category TEXT NOT NULL,
			message TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '{}',
			timestamp TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_agent_logs_agent_time ON agent_logs(agent_id, timestamp)`,

		// nginx_configs table: configuration objects owned by an agent
		`CREATE TABLE IF NOT EXISTS nginx_configs (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL REFERENCES agents(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			config_type TEXT NOT NULL,
			domain TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL DEFAULT '{}',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_nginx_configs_agent ON nginx_configs(agent_id)`,
	}

	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}
