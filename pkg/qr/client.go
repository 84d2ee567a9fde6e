package qr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/parcelhub/parcelhub-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.qrserver.com/v1"
	defaultImageSize           = 300
	requestBodyReadLimit int64 = 1024
	imageReadLimit       int64 = 1 << 20
)

// Client generates QR code images through an external renderer.
type Client struct {
	httpClient *http.Client
	baseURL    string
	imageSize  int
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

// WithBaseURL overrides the configured renderer base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithImageSize sets the square pixel size of generated images.
func WithImageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.imageSize = size
		}
	}
}

// NewClient builds the QR renderer client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		imageSize:  defaultImageSize,
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
	if client.imageSize <= 0 {
		client.imageSize = defaultImageSize
	}

	return client
}

// ImageURL builds the renderer URL for the payload without fetching it.
func (c *Client) ImageURL(payload string) string {
	if c == nil {
		return ""
	}
	query := url.Values{}
	query.Set("data", strings.TrimSpace(payload))
	query.Set("size", fmt.Sprintf("%dx%d", c.imageSize, c.imageSize))
	query.Set("format", "png")
	return c.baseURL + "/create-qr-code/?" + query.Encode()
}

// Encode renders the payload as a PNG QR image and returns the raw bytes.
func (c *Client) Encode(ctx context.Context, payload string) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "qr client not configured")
	}
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr payload is required")
	}

	query := url.Values{}
	query.Set("data", trimmed)
	query.Set("size", fmt.Sprintf("%dx%d", c.imageSize, c.imageSize))
	query.Set("format", "png")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/create-qr-code/?"+query.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build qr request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute qr request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "qr request failed")
	}

	image, err := io.ReadAll(io.LimitReader(resp.Body, imageReadLimit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read qr response")
	}

	return image, nil
}
