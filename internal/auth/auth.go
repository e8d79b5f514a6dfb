// Package auth implements the access guard: admin-secret and per-agent
// API key validation.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

// HashToken computes the SHA-256 hash of a registration token for storage
// lookup. Unlike API keys, token hashes are unsalted so the redemption
// UPDATE can match on the hash directly.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Errors for authentication failures.
var (
	// ErrMissingCredential indicates no secret or key was presented.
	ErrMissingCredential = errors.New("auth: missing credential")
	// ErrInvalidCredential indicates the presented secret or key is not valid.
	ErrInvalidCredential = errors.New("auth: invalid credential")
)

// KeyStore is the slice of storage the guard needs.
type KeyStore interface {
	ListActiveKeys(ctx context.Context, agentID string) ([]*storage.AgentAPIKey, error)
}

// Guard validates inbound credentials. It holds the process-wide admin
// secret as an explicit dependency so tests can construct it with fakes.
type Guard struct {
	adminSecret []byte
	keys        KeyStore
}

// NewGuard creates a Guard for the given admin secret and key store.
func NewGuard(adminSecret string, keys KeyStore) *Guard {
	return &Guard{
		adminSecret: []byte(adminSecret),
		keys:        keys,
	}
}

// IsAdmin reports whether the presented secret matches the configured
// administrator secret. The comparison is constant-time.
func (g *Guard) IsAdmin(presented string) bool {
	if presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare(g.adminSecret, []byte(presented)) == 1
}

// ValidateAgentKey checks the presented API key against the non-revoked
// key rows for the agent. Validity is re-checked on every request; a
// revoked key fails on its next presentation.
func (g *Guard) ValidateAgentKey(ctx context.Context, agentID, presented string) error {
	if presented == "" {
		return ErrMissingCredential
	}

	keys, err := g.keys.ListActiveKeys(ctx, agentID)
	if err != nil {
		return err
	}

	// Must iterate all rows - bcrypt hashes are not comparable directly
	for _, k := range keys {
		if storage.VerifyKey(presented, k.KeyHash) == nil {
			return nil
		}
	}
	return ErrInvalidCredential
}
