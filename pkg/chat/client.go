package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://chat.example.com/api/v2"
	requestBodyReadLimit int64 = 1024
)

var (
	errAPIKeyRequired = errors.New("chat api key is required")
)

// Client talks to the chat messaging provider.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	senderPhone string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured provider base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithSenderPhone sets the business phone number messages are sent from.
func WithSenderPhone(phone string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(phone)
		if trimmed != "" {
			c.senderPhone = trimmed
		}
	}
}

// NewClient builds the chat client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// Configured reports whether the client can send through the provider API.
// An unconfigured client still produces manual deep links.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.senderPhone != ""
}

// Send delivers a text message to the given phone number.
func (c *Client) Send(ctx context.Context, phone, body string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "chat client not configured")
	}
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient phone is required")
	}
	if !c.Configured() {
		return pkgerrors.New(pkgerrors.CodeDependency, "chat provider credentials missing")
	}

	payload, err := json.Marshal(struct {
		From string `json:"from"`
		To   string `json:"to"`
		Body string `json:"body"`
	}{
		From: c.senderPhone,
		To:   trimmed,
		Body: body,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build chat request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute chat request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "chat request failed")
	}

	return nil
}

// DeepLink builds a click-to-chat URL with the message prefilled so an
// operator can send it manually from their own device.
func DeepLink(phone, body string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(body)
}
