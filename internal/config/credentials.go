package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrMissingCredentials is returned when the store cannot be reached
	// with what is configured.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrNoCredentials is the ErrMissingCredentials case where neither an
	// API token nor a service key is configured.
	ErrNoCredentials = fmt.Errorf("%w: no api token or service key", ErrMissingCredentials)
)

// Mode is how the CLI identifies itself to the store.
type Mode string

const (
	// ModeToken verifies an API token and acts as the token's owner.
	ModeToken Mode = "token"
	// ModeServiceKey uses the service key and a configured owner.
	ModeServiceKey Mode = "service-key"
)

// DefaultLegacyOwner owns CLI tasks in service-key mode when no chat id is set.
const DefaultLegacyOwner = "cli"

// Credentials are what a CLI invocation needs to reach the store.
type Credentials struct {
	Mode Mode
	// APIKey is sent as the apikey header and default bearer.
	APIKey string
	// Token is the API token secret in token mode.
	Token string
	// Owner is set in service-key mode. Token mode learns it from verification.
	Owner     string
	VerifyURL string
}

// LoadToken returns the API token from TODO_CLI_TOKEN, then
// TODO_CLI_API_TOKEN, then the trimmed contents of tokenFile. A missing
// file yields "".
func LoadToken(env *Env, tokenFile string) (string, error) {
	if token := env.First("TODO_CLI_TOKEN", "TODO_CLI_API_TOKEN"); token != "" {
		return token, nil
	}
	if tokenFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(tokenFile)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file %s: %w", tokenFile, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// LegacyOwner is the owner used without an API token.
func (c *Config) LegacyOwner() string {
	if c.Telegram.ChatID != "" {
		return c.Telegram.ChatID
	}
	return DefaultLegacyOwner
}

// ResolveCredentials prefers an API token and falls back to the service key.
func ResolveCredentials(cfg *Config, env *Env, tokenFile string) (Credentials, error) {
	token, err := LoadToken(env, tokenFile)
	if err != nil {
		return Credentials{}, err
	}

	if token != "" {
		verifyURL := cfg.VerifyURL()
		if verifyURL == "" {
			return Credentials{}, fmt.Errorf("%w: supabase url is not set", ErrMissingCredentials)
		}
		apiKey := cfg.Supabase.AnonKey
		if apiKey == "" {
			apiKey = cfg.Supabase.ServiceRoleKey
		}
		return Credentials{Mode: ModeToken, APIKey: apiKey, Token: token, VerifyURL: verifyURL}, nil
	}

	if cfg.Supabase.ServiceRoleKey != "" {
		return Credentials{Mode: ModeServiceKey, APIKey: cfg.Supabase.ServiceRoleKey, Owner: cfg.LegacyOwner()}, nil
	}

	return Credentials{}, fmt.Errorf("%w: set TODO_CLI_TOKEN, write ~/.todo-cli-token, or set SUPABASE_SERVICE_ROLE_KEY", ErrNoCredentials)
}
