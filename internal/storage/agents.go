package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const agentColumns = "id, hostname, ip_address, environment, description, version, os_info, status, last_seen, created_at"

// GetAgent retrieves an agent by ID.
// Returns ErrNotFound if the agent doesn't exist.
func (s *SQLiteStorage) GetAgent(ctx context.Context, id string) (*Agent, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+agentColumns+" FROM agents WHERE id = ?", id)
	return scanAgent(row)
}

// ListAgents returns agents matching the filter, oldest first.
// A zero Limit defaults to 100.
func (s *SQLiteStorage) ListAgents(ctx context.Context, f AgentFilter) ([]*Agent, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT " + agentColumns + " FROM agents"
	args := []any{}
	if f.Status != "" {
		query += " WHERE status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY created_at LIMIT ? OFFSET ?"
	args = append(args, limit, f.Skip)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var agents []*Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	// Return empty slice instead of nil
	if agents == nil {
		agents = make([]*Agent, 0)
	}
	return agents, nil
}

// UpdateAgent applies an allow-listed partial update and returns the
// updated row. Returns ErrNotFound if the agent doesn't exist.
func (s *SQLiteStorage) UpdateAgent(ctx context.Context, id string, u AgentUpdate) (*Agent, error) {
	var sets []string
	var args []any

	if u.Hostname != nil {
		sets = append(sets, "hostname = ?")
		args = append(args, *u.Hostname)
	}
	if u.IPAddress != nil {
		sets = append(sets, "ip_address = ?")
		args = append(args, *u.IPAddress)
	}
	if u.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *u.Description)
	}
	if u.Version != nil {
		sets = append(sets, "version = ?")
		args = append(args, *u.Version)
	}
	if u.OSInfo != nil {
		osInfo, err := marshalJSONMap(u.OSInfo)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal os_info: %w", err)
		}
		sets = append(sets, "os_info = ?")
		args = append(args, osInfo)
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *u.Status)
	}

	if len(sets) > 0 {
		args = append(args, id)
		result, err := s.db.ExecContext(ctx,
			"UPDATE agents SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update agent: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return s.GetAgent(ctx, id)
}

// DeleteAgent removes an agent. Metrics, logs, configs, and API keys are
// removed by the ON DELETE CASCADE foreign keys.
// Returns ErrNotFound if the agent doesn't exist.
func (s *SQLiteStorage) DeleteAgent(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM agents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
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

// TouchAgent stamps last_seen. Called on every metric and log submission.
func (s *SQLiteStorage) TouchAgent(ctx context.Context, id string, seen time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE agents SET last_seen = ? WHERE id = ?", fmtTime(seen), id)
	if err != nil {
		return fmt.Errorf("failed to update last_seen: %w", err)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*Agent, error) {
	var a Agent
	var osInfo string
	err := row.Scan(&a.ID, &a.Hostname, &a.IPAddress, &a.Environment, &a.Description,
		&a.Version, &osInfo, &a.Status, &a.LastSeen, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan agent row: %w", err)
	}
	if err := unmarshalJSONMap(osInfo, &a.OSInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal os_info: %w", err)
	}
	return &a, nil
}
