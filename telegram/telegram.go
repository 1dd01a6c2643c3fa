// Package telegram is a minimal Telegram Bot API client: it decodes webhook
// updates and sends text messages.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// SecretTokenHeader carries the secret configured with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// ParseModeMarkdown renders the legacy Markdown subset.
const ParseModeMarkdown = "Markdown"

// ErrMissingBotToken is returned when sending without a bot token.
var ErrMissingBotToken = errors.New("telegram bot token is required")

// Update is an incoming webhook payload. Only message updates are used.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// Message is a chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID int64 `json:"id"`
}

// Owner returns the chat id in the string form tasks are stored under.
func (c Chat) Owner() string {
	return strconv.FormatInt(c.ID, 10)
}

// Text returns the message text, or "" for updates without text.
func (u Update) Text() string {
	if u.Message == nil {
		return ""
	}
	return u.Message.Text
}

// OutgoingMessage is a sendMessage request.
type OutgoingMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

// Options configures a Client.
type Options struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Timeout defaults to 20 seconds.
	Timeout time.Duration
}

// Client sends messages as one bot.
type Client struct {
	baseURL  string
	botToken string
	client   *http.Client
}

// NewClient returns a client for the bot with the given token.
func NewClient(botToken string, opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{baseURL: baseURL, botToken: botToken, client: &http.Client{Timeout: timeout}}
}

// SendMessage delivers text to a chat.
func (c *Client) SendMessage(ctx context.Context, msg OutgoingMessage) error {
	if c.botToken == "" {
		return ErrMissingBotToken
	}
	var response apiResponse
	return c.post(ctx, "sendMessage", msg, &response)
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

func (c *Client) post(ctx context.Context, method string, payload any, dest *apiResponse) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		// The request URL embeds the bot token; keep it out of the error.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("telegram %s: %w", method, urlErr.Err)
		}
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	decodeErr := json.NewDecoder(resp.Body).Decode(dest)
	if resp.StatusCode != http.StatusOK || !dest.OK {
		if decodeErr == nil && dest.Description != "" {
			return fmt.Errorf("telegram %s: %s", method, dest.Description)
		}
		return fmt.Errorf("telegram %s: %s", method, resp.Status)
	}
	return nil
}
