package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// VerifyResponse is the body of a successful verification.
type VerifyResponse struct {
	Valid     bool   `json:"valid"`
	UserID    string `json:"user_id"`
	TokenName string `json:"token_name"`
}

// Verify error messages shared by the endpoint and its client.
const (
	MessageMissingToken = "Missing or invalid Authorization header"
	MessageInvalidToken = "Invalid token"
	MessageExpiredToken = "Token expired"
)

// RemoteVerifier authenticates secrets against a verify endpoint.
type RemoteVerifier struct {
	url    string
	client *http.Client
}

// NewRemoteVerifier returns a verifier for the endpoint at url.
func NewRemoteVerifier(url string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RemoteVerifier{url: url, client: &http.Client{Timeout: timeout}}
}

// Authenticate calls the endpoint with the secret as a bearer token.
func (v *RemoteVerifier) Authenticate(ctx context.Context, secret string) (Identity, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return Identity{}, ErrMissingToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Identity{}, fmt.Errorf("read verify response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var payload VerifyResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			return Identity{}, fmt.Errorf("decode verify response: %w", err)
		}
		if !payload.Valid || payload.UserID == "" {
			return Identity{}, ErrInvalidToken
		}
		return Identity{UserID: payload.UserID, TokenName: payload.TokenName}, nil
	case http.StatusUnauthorized:
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &payload)
		switch payload.Error {
		case MessageExpiredToken:
			return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		case MessageMissingToken:
			return Identity{}, ErrMissingToken
		default:
			return Identity{}, ErrInvalidToken
		}
	default:
		return Identity{}, fmt.Errorf("verify token: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
