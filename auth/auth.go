// Package auth issues and verifies opaque API tokens.
//
// Only the SHA-256 digest of a token is stored. A token authenticates while
// the current time is before its expiry; every check goes to the backend.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/amonks/tracker/internal/dates"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when a secret does not match a stored token.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned alongside ErrInvalidToken for expired tokens.
	ErrTokenExpired = errors.New("token expired")

	// ErrMissingToken is returned when no bearer secret was supplied.
	ErrMissingToken = errors.New("missing or invalid authorization header")

	// ErrTokenNotFound is returned when revoking a token the owner does not have.
	ErrTokenNotFound = errors.New("token not found")

	// ErrMissingOwner is returned when issuing a token without an owner.
	ErrMissingOwner = errors.New("owner is required")
)

// DefaultTokenName names tokens issued without a name.
const DefaultTokenName = "CLI Token"

// DefaultTTL is how long issued tokens stay valid.
const DefaultTTL = 90 * 24 * time.Hour

// Token is a stored API token record.
type Token struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	TokenHash string          `json:"token_hash"`
	Name      string          `json:"name"`
	CreatedAt dates.Timestamp `json:"created_at"`
	ExpiresAt dates.Timestamp `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
// A token without an expiry is treated as expired.
func (t Token) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(t.ExpiresAt.Time)
}

// Identity is who a valid token authenticates as.
type Identity struct {
	UserID    string `json:"user_id"`
	TokenName string `json:"token_name"`
}

// Verifier authenticates bearer secrets.
type Verifier interface {
	Authenticate(ctx context.Context, secret string) (Identity, error)
}

// Backend persists token records.
type Backend interface {
	InsertToken(ctx context.Context, token Token) (Token, error)
	// FindTokenByHash returns ErrInvalidToken when no row matches.
	FindTokenByHash(ctx context.Context, hash string) (Token, error)
	ListTokens(ctx context.Context, owner string) ([]Token, error)
	// DeleteToken returns ErrTokenNotFound when the owner has no such token.
	DeleteToken(ctx context.Context, owner string, id int64) (Token, error)
}

// HashToken returns the lowercase hex SHA-256 digest of secret.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// BearerToken extracts the secret from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	secret := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if secret == "" {
		return "", false
	}
	return secret, true
}

// GenerateSecret returns a new random token secret.
func GenerateSecret() (string, error) {
	first, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	second, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return first.String() + "-" + second.String(), nil
}

// Options configures a Manager.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// TTL defaults to DefaultTTL.
	TTL time.Duration
	// Generate defaults to GenerateSecret.
	Generate func() (string, error)
}

// Manager authenticates, issues, lists, and revokes tokens.
type Manager struct {
	backend  Backend
	now      func() time.Time
	ttl      time.Duration
	generate func() (string, error)
}

// NewManager wraps a backend.
func NewManager(backend Backend, opts Options) *Manager {
	m := &Manager{backend: backend, now: opts.Now, ttl: opts.TTL, generate: opts.Generate}
	if m.now == nil {
		m.now = time.Now
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.generate == nil {
		m.generate = GenerateSecret
	}
	return m
}

// Authenticate resolves a secret to the identity it was issued for.
func (m *Manager) Authenticate(ctx context.Context, secret string) (Identity, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return Identity{}, ErrMissingToken
	}
	token, err := m.backend.FindTokenByHash(ctx, HashToken(secret))
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return Identity{}, err
		}
		return Identity{}, fmt.Errorf("look up token: %w", err)
	}
	if token.Expired(m.now()) {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
	}
	return Identity{UserID: token.UserID, TokenName: token.Name}, nil
}

// Issued is a newly created token. Secret is never stored or shown again.
type Issued struct {
	Secret string
	Token  Token
}

// Issue creates a token for owner and returns its plaintext secret.
func (m *Manager) Issue(ctx context.Context, owner, name string) (Issued, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return Issued{}, ErrMissingOwner
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultTokenName
	}
	secret, err := m.generate()
	if err != nil {
		return Issued{}, err
	}
	now := m.now()
	created, err := m.backend.InsertToken(ctx, Token{
		UserID:    owner,
		TokenHash: HashToken(secret),
		Name:      name,
		CreatedAt: dates.NewTimestamp(now),
		ExpiresAt: dates.NewTimestamp(now.Add(m.ttl)),
	})
	if err != nil {
		return Issued{}, fmt.Errorf("store token: %w", err)
	}
	return Issued{Secret: secret, Token: created}, nil
}

// List returns the owner's tokens, newest first.
func (m *Manager) List(ctx context.Context, owner string) ([]Token, error) {
	tokens, err := m.backend.ListTokens(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt.Time)
	})
	return tokens, nil
}

// Revoke deletes one of the owner's tokens.
func (m *Manager) Revoke(ctx context.Context, owner string, id int64) (Token, error) {
	token, err := m.backend.DeleteToken(ctx, owner, id)
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return Token{}, fmt.Errorf("%w: %d", ErrTokenNotFound, id)
		}
		return Token{}, fmt.Errorf("revoke token %d: %w", id, err)
	}
	return token, nil
}
