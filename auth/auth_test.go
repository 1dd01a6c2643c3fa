package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amonks/tracker/internal/dates"
)

type memoryBackend struct {
	tokens []Token
	nextID int64
}

func (m *memoryBackend) InsertToken(_ context.Context, token Token) (Token, error) {
	m.nextID++
	token.ID = m.nextID
	m.tokens = append(m.tokens, token)
	return token, nil
}

func (m *memoryBackend) FindTokenByHash(_ context.Context, hash string) (Token, error) {
	for _, token := range m.tokens {
		if token.TokenHash == hash {
			return token, nil
		}
	}
	return Token{}, ErrInvalidToken
}

func (m *memoryBackend) ListTokens(_ context.Context, owner string) ([]Token, error) {
	var owned []Token
	for _, token := range m.tokens {
		if token.UserID == owner {
			owned = append(owned, token)
		}
	}
	return owned, nil
}

func (m *memoryBackend) DeleteToken(_ context.Context, owner string, id int64) (Token, error) {
	for i, token := range m.tokens {
		if token.ID == id && token.UserID == owner {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return token, nil
		}
	}
	return Token{}, ErrTokenNotFound
}

func TestHashToken(t *testing.T) {
	// sha256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := HashToken("abc"); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		secret string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"bearer abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
		{"Basic abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			secret, ok := BearerToken(tt.header)
			if secret != tt.secret || ok != tt.ok {
				t.Fatalf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, secret, ok, tt.secret, tt.ok)
			}
		})
	}
}

func TestGenerateSecretShape(t *testing.T) {
	secret, err := GenerateSecret()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// Two 36-character UUIDs joined by a dash.
	if len(secret) != 73 || strings.Count(secret, "-") != 9 {
		t.Fatalf("unexpected secret shape %q", secret)
	}
	other, _ := GenerateSecret()
	if other == secret {
		t.Fatalf("expected distinct secrets")
	}
}

func TestIssueRequiresOwner(t *testing.T) {
	backend := &memoryBackend{}
	manager := NewManager(backend, Options{})

	for _, owner := range []string{"", "   "} {
		if _, err := manager.Issue(context.Background(), owner, "laptop"); !errors.Is(err, ErrMissingOwner) {
			t.Fatalf("expected ErrMissingOwner for %q, got %v", owner, err)
		}
	}
	if len(backend.tokens) != 0 {
		t.Fatalf("expected nothing stored, got %+v", backend.tokens)
	}
}

func TestIssueThenAuthenticate(t *testing.T) {
	now := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	clock := now
	backend := &memoryBackend{}
	manager := NewManager(backend, Options{
		Now:      func() time.Time { return clock },
		TTL:      time.Hour,
		Generate: func() (string, error) { return "secret-value", nil },
	})
	ctx := context.Background()

	issued, err := manager.Issue(ctx, "42", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if issued.Secret != "secret-value" {
		t.Fatalf("expected generated secret, got %q", issued.Secret)
	}
	if issued.Token.Name != DefaultTokenName {
		t.Fatalf("expected default name, got %q", issued.Token.Name)
	}
	if issued.Token.TokenHash != HashToken("secret-value") {
		t.Fatalf("expected stored hash, got %q", issued.Token.TokenHash)
	}
	for _, stored := range backend.tokens {
		if strings.Contains(stored.TokenHash, "secret-value") || stored.Name == "secret-value" {
			t.Fatalf("plaintext secret stored: %+v", stored)
		}
	}

	identity, err := manager.Authenticate(ctx, "secret-value")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != "42" || identity.TokenName != DefaultTokenName {
		t.Fatalf("unexpected identity %+v", identity)
	}

	if _, err := manager.Authenticate(ctx, "wrong"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := manager.Authenticate(ctx, " "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	clock = now.Add(time.Hour)
	_, err = manager.Authenticate(ctx, "secret-value")
	if !errors.Is(err, ErrInvalidToken) || !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired token at exactly expires_at, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		expires time.Time
		expired bool
	}{
		{"future", now.Add(time.Second), false},
		{"exactly now", now, true},
		{"past", now.Add(-time.Second), true},
		{"missing", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := Token{ExpiresAt: dates.NewTimestamp(tt.expires)}
			if got := token.Expired(now); got != tt.expired {
				t.Fatalf("expected expired=%v, got %v", tt.expired, got)
			}
		})
	}
}

func TestListAndRevoke(t *testing.T) {
	base := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	backend := &memoryBackend{}
	manager := NewManager(backend, Options{Now: func() time.Time { return base }})
	ctx := context.Background()

	older, err := manager.Issue(ctx, "42", "laptop")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.now = func() time.Time { return base.Add(time.Hour) }
	newer, err := manager.Issue(ctx, "42", "desktop")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := manager.Issue(ctx, "7", "other"); err != nil {
		t.Fatalf("issue: %v", err)
	}

	tokens, err := manager.List(ctx, "42")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tokens) != 2 || tokens[0].ID != newer.Token.ID || tokens[1].ID != older.Token.ID {
		t.Fatalf("expected newest first, got %+v", tokens)
	}

	if _, err := manager.Revoke(ctx, "7", older.Token.ID); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound for another owner, got %v", err)
	}
	revoked, err := manager.Revoke(ctx, "42", older.Token.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked.Name != "laptop" {
		t.Fatalf("expected laptop revoked, got %q", revoked.Name)
	}
	if _, err := manager.Authenticate(ctx, older.Secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected revoked token to fail, got %v", err)
	}
}
