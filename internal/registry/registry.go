// Package registry implements the registration workflow: issuing
// single-use registration tokens and redeeming them for agent identities
// with long-lived API keys.
package registry

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fleetops/nginx-fleet-manager/internal/auth"
	"github.com/fleetops/nginx-fleet-manager/internal/logging"
	"github.com/fleetops/nginx-fleet-manager/internal/storage"
)

// DefaultExpiryHours is used when an issue request omits expiry_hours.
const DefaultExpiryHours = 24

// ErrInvalidArgument is returned for malformed issue/register input.
var ErrInvalidArgument = errors.New("registry: invalid argument")

// ErrInvalidToken is returned when a registration token is unknown,
// expired, or already used. Callers must not be able to tell which.
var ErrInvalidToken = errors.New("registry: invalid or expired registration token")

// Store is the slice of storage the registry needs.
type Store interface {
	CreateRegistrationToken(ctx context.Context, t *storage.RegistrationToken) error
	RegisterAgent(ctx context.Context, p storage.RegisterAgentParams) (*storage.Agent, error)
}

// Service issues and redeems registration tokens.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a registry service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// IssueTokenParams are the inputs for IssueToken.
type IssueTokenParams struct {
	Environment string
	Description string
	ExpiryHours int // 0 = DefaultExpiryHours
}

// IssuedToken is the one-time response to a token issue request. The
// Token value is the only credential needed to redeem and is not
// recoverable afterwards.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// IssueToken creates a single-use, time-bounded registration token for an
// environment. Only the SHA-256 hash of the token is persisted.
func (s *Service) IssueToken(ctx context.Context, p IssueTokenParams) (*IssuedToken, error) {
	if p.Environment == "" {
		return nil, fmt.Errorf("%w: environment is required", ErrInvalidArgument)
	}
	if p.ExpiryHours == 0 {
		p.ExpiryHours = DefaultExpiryHours
	}
	if p.ExpiryHours < 0 {
		return nil, fmt.Errorf("%w: expiry_hours must be positive", ErrInvalidArgument)
	}

	token, err := newSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now().UTC()
	record := &storage.RegistrationToken{
		ID:          uuid.New().String(),
		TokenHash:   auth.HashToken(token),
		Environment: p.Environment,
		Description: p.Description,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(p.ExpiryHours) * time.Hour),
	}

	if err := s.store.CreateRegistrationToken(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("registration token issued",
		"token", logging.MaskSecret(token),
		"environment", p.Environment,
		"expires_at", record.ExpiresAt)

	return &IssuedToken{Token: token, ExpiresAt: record.ExpiresAt}, nil
}

// RegisterParams are the inputs for RegisterAgent.
type RegisterParams struct {
	Token       string
	Hostname    string
	IPAddress   string
	Version     string
	Description string
	OSInfo      map[string]any
}

// RegisterAgent redeems a registration token exactly once, creates the
// agent identity, and mints its API key. The returned plaintext key is
// shown to the caller this one time only; afterwards it can only be
// revoked, never retrieved.
//
// Redemption is not idempotent: a retry with the same token fails even if
// the first response was lost.
func (s *Service) RegisterAgent(ctx context.Context, p RegisterParams) (*storage.Agent, string, error) {
	if p.Token == "" {
		return nil, "", ErrInvalidToken
	}
	if p.Hostname == "" {
		return nil, "", fmt.Errorf("%w: hostname is required", ErrInvalidArgument)
	}
	if p.IPAddress == "" {
		return nil, "", fmt.Errorf("%w: ip_address is required", ErrInvalidArgument)
	}

	apiKey, err := newSecret()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate API key: %w", err)
	}
	keyHash, err := storage.HashKey(apiKey)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash API key: %w", err)
	}

	agent, err := s.store.RegisterAgent(ctx, storage.RegisterAgentParams{
		TokenHash: auth.HashToken(p.Token),
		Now:       s.now().UTC(),
		Agent: storage.Agent{
			ID:          uuid.New().String(),
			Hostname:    p.Hostname,
			IPAddress:   p.IPAddress,
			Description: p.Description,
			Version:     p.Version,
			OSInfo:      p.OSInfo,
		},
		KeyID:   uuid.New().String(),
		KeyHash: keyHash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrTokenSpent) {
			return nil, "", ErrInvalidToken
		}
		return nil, "", err
	}

	s.logger.Info("agent registered",
		"agent_id", agent.ID,
		"hostname", agent.Hostname,
		"environment", agent.Environment)

	return agent, apiKey, nil
}

// newSecret returns a URL-safe random string with 256 bits of entropy.
func newSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
