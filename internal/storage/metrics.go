package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateMetric persists a metric sample for an agent.
// Returns ErrNotFound if the owning agent doesn't exist (foreign key).
func (s *SQLiteStorage) CreateMetric(ctx context.Context, m *AgentMetric) error {
	value, err := marshalJSONMap(m.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal metric value: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agent_metrics (id, agent_id, metric_type, value, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.AgentID, m.MetricType, value, fmtTime(m.Timestamp))
	if err != nil {
		if isConstraintErr(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to create metric: %w", err)
	}
	return nil
}

// ListMetrics returns metrics for an agent matching the filter, newest first.
func (s *SQLiteStorage) ListMetrics(ctx context.Context, agentID string, f MetricFilter) ([]*AgentMetric, error) {
	query := "SELECT id, agent_id, metric_type, value, timestamp FROM agent_metrics WHERE agent_id = ?"
	args := []any{agentID}
	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, fmtTime(f.Since))
	}
	if f.MetricType != "" {
		query += " AND metric_type = ?"
		args = append(args, f.MetricType)
	}
	query += " ORDER BY timestamp DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var metrics []*AgentMetric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, err
		}
		metrics = append(metrics, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metrics: %w", err)
	}

	if metrics == nil {
		metrics = make([]*AgentMetric, 0)
	}
	return metrics, nil
}

// LatestMetric returns the newest metric of the given type for an agent.
// Returns ErrNotFound if no such metric exists.
func (s *SQLiteStorage) LatestMetric(ctx context.Context, agentID, metricType string) (*AgentMetric, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, agent_id, metric_type, value, timestamp FROM agent_metrics
		 WHERE agent_id = ? AND metric_type = ?
		 ORDER BY timestamp DESC LIMIT 1`,
		agentID, metricType)
	return scanMetric(row)
}

func scanMetric(row rowScanner) (*AgentMetric, error) {
	var m AgentMetric
	var value string
	err := row.Scan(&m.ID, &m.AgentID, &m.MetricType, &value, &m.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan metric row: %w", err)
	}
	if err := unmarshalJSONMap(value, &m.Value); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metric value: %w", err)
	}
	return &m, nil
}
