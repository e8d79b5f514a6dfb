package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isConstraintErr reports whether err is a SQLite uniqueness/constraint
// violation. The extended error code for UNIQUE constraint is 2067.
func isConstraintErr(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == 2067 || (sqliteErr.Code()&0xFF) == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// CreateRegistrationToken persists a new unused registration token.
// Returns ErrDuplicate if a token with this hash already exists.
func (s *SQLiteStorage) CreateRegistrationToken(ctx context.Context, t *RegistrationToken) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registration_tokens (id, token_hash, environment, description, created_at, expires_at, used)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		t.ID, t.TokenHash, t.Environment, t.Description, fmtTime(t.CreatedAt), fmtTime(t.ExpiresAt))
	if err != nil {
		if isConstraintErr(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create registration token: %w", err)
	}
	return nil
}

// ListRegistrationTokens returns all tokens, newest first, including used
// and expired ones (audit trail).
func (s *SQLiteStorage) ListRegistrationTokens(ctx context.Context) ([]*RegistrationToken, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, token_hash, environment, description, created_at, expires_at, used, used_by, used_at
		 FROM registration_tokens ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query registration tokens: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var tokens []*RegistrationToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration tokens: %w", err)
	}

	// Return empty slice instead of nil
	if tokens == nil {
		tokens = make([]*RegistrationToken, 0)
	}
	return tokens, nil
}

func scanToken(rows *sql.Rows) (*RegistrationToken, error) {
	var t RegistrationToken
	var usedBy sql.NullString
	var usedAt sql.NullTime
	err := rows.Scan(&t.ID, &t.TokenHash, &t.Environment, &t.Description,
		&t.CreatedAt, &t.ExpiresAt, &t.Used, &usedBy, &usedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan registration token row: %w", err)
	}
	t.UsedBy = nullStrPtr(usedBy)
	t.UsedAt = nullTimePtr(usedAt)
	return &t, nil
}

// RegisterAgent performs the atomic registration transaction: it redeems
// the token, inserts the agent row, and inserts the API key row. All three
// writes commit together or not at all.
//
// The conditional UPDATE carries the single-use invariant: both the unused
// check and the expiry check live in the same statement, and the affected
// row count decides the winner. Concurrent redeemers of the same token see
// rowsAffected == 0 and get ErrTokenSpent.
func (s *SQLiteStorage) RegisterAgent(ctx context.Context, p RegisterAgentParams) (*Agent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := fmtTime(p.Now)

	// used_by is stamped after the agent INSERT; the foreign key to
	// agents(id) would reject it here.
	result, err := tx.ExecContext(ctx,
		`UPDATE registration_tokens
		 SET used = 1, used_at = ?
		 WHERE token_hash = ? AND used = 0 AND expires_at > ?`,
		now, p.TokenHash, now)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem token: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Unknown, expired, or already used - uniformly unredeemable
		return nil, ErrTokenSpent
	}

	// The agent inherits environment from the token; description falls
	// back to the token's when the request omitted one.
	var tokenEnv, tokenDesc string
	err = tx.QueryRowContext(ctx,
		"SELECT environment, description FROM registration_tokens WHERE token_hash = ?",
		p.TokenHash).Scan(&tokenEnv, &tokenDesc)
	if err != nil {
		return nil, fmt.Errorf("failed to read redeemed token: %w", err)
	}

	agent := p.Agent
	agent.Environment = tokenEnv
	if agent.Description == "" {
		agent.Description = tokenDesc
	}
	agent.Status = "active"
	agent.LastSeen = p.Now
	agent.CreatedAt = p.Now

	osInfo, err := marshalJSONMap(agent.OSInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal os_info: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO agents (id, hostname, ip_address, environment, description, version, os_info, status, last_seen, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, agent.Hostname, agent.IPAddress, agent.Environment, agent.Description,
		agent.Version, osInfo, agent.Status, now, now)
	if err != nil {
		if isConstraintErr(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE registration_tokens SET used_by = ? WHERE token_hash = ?",
		agent.ID, p.TokenHash)
	if err != nil {
		return nil, fmt.Errorf("failed to stamp token consumer: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO agent_api_keys (id, agent_id, key_hash, created_at, revoked)
		 VALUES (?, ?, ?, ?, 0)`,
		p.KeyID, agent.ID, p.KeyHash, now)
	if err != nil {
		if isConstraintErr(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create API key: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	return &agent, nil
}
