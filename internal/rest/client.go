package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"webhookrelay/internal/auth"
)

const (
	// PlaceOrderPath is the BingX spot order endpoint
	PlaceOrderPath = "/openApi/spot/v1/trade/order"

	// APIKeyHeader carries the API key on every signed request
	APIKeyHeader = "X-BX-APIKEY"

	// DefaultTimeout bounds a single exchange call
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

// Client represents a REST client for the BingX API
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *auth.Signer
}

// Option configures the client
type Option func(*Client)

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client, keeping the configured timeout
// when the replacement has none
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient.Timeout == 0 {
			httpClient.Timeout = c.httpClient.Timeout
		}
		c.httpClient = httpClient
	}
}

// NewClient creates a new REST client
func NewClient(baseURL string, signer *auth.Signer, opts ...Option) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		signer: signer,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the HTTP timeout
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// PlaceOrder signs the order parameters and posts them form-encoded.
// Any HTTP status is returned as a Response as long as the body is JSON;
// transport failures and non-JSON bodies become an *UpstreamError.
func (c *Client) PlaceOrder(ctx context.Context, req *OrderRequest) (*Response, error) {
	if c.signer == nil {
		return nil, fmt.Errorf("signer required for PlaceOrder")
	}

	signed := c.signer.SignedRequest(req.Params())
	return c.doSigned(ctx, "PlaceOrder", http.MethodPost, PlaceOrderPath, signed.Encode())
}

// doSigned executes one request without retries
func (c *Client) doSigned(ctx context.Context, op, method, path, form string) (*Response, error) {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	httpReq.Header.Set(APIKeyHeader, c.signer.APIKey())
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Op: op, Timeout: isTimeoutError(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Timeout: isTimeoutError(err), Err: err}
	}

	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, &UpstreamError{Op: op, StatusCode: resp.StatusCode, Err: ErrInvalidResponse}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(body),
		Duration:   time.Since(start),
	}, nil
}
