package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ListActiveKeys returns the non-revoked API keys for an agent.
// The Access Guard bcrypt-compares the presented key against each row;
// hashes are salted, so a direct hash lookup is not possible.
func (s *SQLiteStorage) ListActiveKeys(ctx context.Context, agentID string) ([]*AgentAPIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, agent_id, key_hash, created_at, revoked, revoked_at
		 FROM agent_api_keys WHERE agent_id = ? AND revoked = 0`,
		agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query API keys: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var keys []*AgentAPIKey
	for rows.Next() {
		var k AgentAPIKey
		var revokedAt sql.NullTime
		if err := rows.Scan(&k.ID, &k.AgentID, &k.KeyHash, &k.CreatedAt, &k.Revoked, &revokedAt); err != nil {
			return nil, fmt.Errorf("failed to scan API key row: %w", err)
		}
		k.RevokedAt = nullTimePtr(revokedAt)
		keys = append(keys, &k)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating API keys: %w", err)
	}

	// Return empty slice instead of nil
	if keys == nil {
		keys = make([]*AgentAPIKey, 0)
	}
	return keys, nil
}

// RevokeAgentKeys marks every live key for the agent as revoked and
// returns how many were revoked. Rows are kept as an audit trail.
// Returns ErrNotFound if the agent doesn't exist.
func (s *SQLiteStorage) RevokeAgentKeys(ctx context.Context, agentID string, now time.Time) (int, error) {
	// Distinguish "no live keys" from "no such agent"
	if _, err := s.GetAgent(ctx, agentID); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE agent_api_keys SET revoked = 1, revoked_at = ?
		 WHERE agent_id = ? AND revoked = 0`,
		fmtTime(now), agentID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke API keys: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rowsAffected), nil
}
