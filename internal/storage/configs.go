package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const configColumns = "id, agent_id, name, config_type, domain, config, is_active, created_at, updated_at"

// CreateConfig persists a new nginx config object for an agent.
// Returns ErrNotFound if the owning agent doesn't exist (foreign key).
func (s *SQLiteStorage) CreateConfig(ctx context.Context, c *NginxConfig) error {
	config, err := marshalJSONMap(c.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config body: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO nginx_configs (id, agent_id, name, config_type, domain, config, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AgentID, c.Name, c.ConfigType, c.Domain, config, c.IsActive,
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt))
	if err != nil {
		if isConstraintErr(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create config: %w", err)
	}
	return nil
}

// GetConfig retrieves a config object by ID.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStorage) GetConfig(ctx context.Context, id string) (*NginxConfig, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+configColumns+" FROM nginx_configs WHERE id = ?", id)
	return scanConfig(row)
}

// ListConfigs returns all config objects for an agent, newest first.
func (s *SQLiteStorage) ListConfigs(ctx context.Context, agentID string) ([]*NginxConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+configColumns+" FROM nginx_configs WHERE agent_id = ? ORDER BY created_at DESC",
		agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query configs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var configs []*NginxConfig
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating configs: %w", err)
	}

	if configs == nil {
		configs = make([]*NginxConfig, 0)
	}
	return configs, nil
}

// UpdateConfig replaces the mutable fields of a config object and stamps
// updated_at. Returns the updated row, or ErrNotFound.
func (s *SQLiteStorage) UpdateConfig(ctx context.Context, c *NginxConfig) (*NginxConfig, error) {
	config, err := marshalJSONMap(c.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config body: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE nginx_configs
		 SET name = ?, config_type = ?, domain = ?, config = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.ConfigType, c.Domain, config, c.IsActive, fmtTime(c.UpdatedAt), c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update config: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetConfig(ctx, c.ID)
}

// DeleteConfig removes a config object by ID.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStorage) DeleteConfig(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM nginx_configs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete config: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanConfig(row rowScanner) (*NginxConfig, error) {
	var c NginxConfig
	var config string
	err := row.Scan(&c.ID, &c.AgentID, &c.Name, &c.ConfigType, &c.Domain,
		&config, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan config row: %w", err)
	}
	if err := unmarshalJSONMap(config, &c.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config body: %w", err)
	}
	return &c, nil
}
