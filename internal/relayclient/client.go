package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"advisor-chat/internal/domain"
)

const chatPath = "/api/chat"

// ErrNoResponse is returned when a 2xx body has no "response" field.
var ErrNoResponse = errors.New("relayclient: response field missing")

// StatusError is a non-2xx reply from the relay. Message is the relay's
// "error" field when the body carried one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("relayclient: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("relayclient: unexpected status %d: %s", e.StatusCode, e.Message)
}

// Client posts chat turns to a relay server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("relayclient: base URL must not be empty")
	}
	c := &Client{baseURL: baseURL, httpClient: &http.Client{}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Chat sends req and returns the relay's formatted response fragment.
func (c *Client) Chat(ctx context.Context, req domain.RelayRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("relayclient: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("relayclient: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("relayclient: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("relayclient: read response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var errBody domain.ErrorResponse
		_ = json.Unmarshal(raw, &errBody)
		return "", &StatusError{StatusCode: res.StatusCode, Message: errBody.Error}
	}

	var payload struct {
		Response *string `json:"response"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("relayclient: decode response: %w", err)
	}
	if payload.Response == nil {
		return "", ErrNoResponse
	}
	return *payload.Response, nil
}
