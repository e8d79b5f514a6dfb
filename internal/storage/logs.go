package storage

import (
	"context"
	"fmt"
	"time"
)

const logColumns = "id, agent_id, level, category, message, details, timestamp"

// CreateLog persists a log entry for an agent.
// Returns ErrNotFound if the owning agent doesn't exist (foreign key).
func (s *SQLiteStorage) CreateLog(ctx context.Context, l *AgentLog) error {
	details, err := marshalJSONMap(l.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal log details: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agent_logs (id, agent_id, level, category, message, details, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.AgentID, l.Level, l.Category, l.Message, details, fmtTime(l.Timestamp))
	if err != nil {
		if isConstraintErr(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create log: %w", err)
	}
	return nil
}

// ListLogs returns logs for one agent matching the filter, newest first.
func (s *SQLiteStorage) ListLogs(ctx context.Context, agentID string, f LogFilter) ([]*AgentLog, error) {
	query := "SELECT " + logColumns + " FROM agent_logs WHERE agent_id = ?"
	args := []any{agentID}
	query, args = appendLogFilter(query, args, f)
	query += " ORDER BY timestamp DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return s.queryLogs(ctx, query, args...)
}

// ListAllLogs returns logs across all agents matching the filter, newest
// first. A zero Limit defaults to 100.
func (s *SQLiteStorage) ListAllLogs(ctx context.Context, f LogFilter) ([]*AgentLog, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := "SELECT " + logColumns + " FROM agent_logs WHERE 1=1"
	args := []any{}
	query, args = appendLogFilter(query, args, f)
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)
	return s.queryLogs(ctx, query, args...)
}

// PruneLogs deletes logs for an agent older than the cutoff and returns
// the number of rows removed.
func (s *SQLiteStorage) PruneLogs(ctx context.Context, agentID string, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM agent_logs WHERE agent_id = ? AND timestamp < ?",
		agentID, fmtTime(before))
	if err != nil {
		return 0, fmt.Errorf("failed to prune logs: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func appendLogFilter(query string, args []any, f LogFilter) (string, []any) {
	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, fmtTime(f.Since))
	}
	if f.Level != "" {
		query += " AND level = ?"
		args = append(args, f.Level)
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	return query, args
}

func (s *SQLiteStorage) queryLogs(ctx context.Context, query string, args ...any) ([]*AgentLog, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var logs []*AgentLog
	for rows.Next() {
		var l AgentLog
		var details string
		if err := rows.Scan(&l.ID, &l.AgentID, &l.Level, &l.Category, &l.Message, &details, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		if err := unmarshalJSONMap(details, &l.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal log details: %w", err)
		}
		logs = append(logs, &l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
	}

	if logs == nil {
		logs = make([]*AgentLog, 0)
	}
	return logs, nil
}
