// Package transport is the REST adapter every resource client goes through.
// It attaches the bearer credential, unwraps the response envelope and maps
// failures onto the errors taxonomy.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"go.uber.org/zap"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

// CredentialSource supplies the bearer token and is purged on a 401.
type CredentialSource interface {
	Token(ctx context.Context) string
	Clear(ctx context.Context) error
}

// Client issues requests against the RoomSync REST API.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
	log         *zap.SugaredLogger
	metrics     *Metrics
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the fixed connect/response deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCredentials sets where the bearer token is read from.
func WithCredentials(src CredentialSource) ClientOption {
	return func(c *Client) {
		c.credentials = src
	}
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		log:     logger.GetLogger().Named("transport"),
		metrics: getMetrics(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// errorEnvelope decodes the parts of a failed response we classify on,
// ignoring whatever shape data has.
type errorEnvelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Errors  []types.FieldError `json:"errors"`
}

// Do issues method path with an optional JSON body and unwraps the envelope.
func Do[T any](ctx context.Context, c *Client, method, path string, body any) (*types.Envelope[T], error) {
	return DoQuery[T](ctx, c, method, path, nil, body)
}

// DoQuery is Do with query parameters passed straight through.
func DoQuery[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*types.Envelope[T], error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
		contentType = "application/json"
	}

	status, raw, err := c.send(ctx, method, path, query, reader, contentType)
	if err != nil {
		return nil, err
	}
	return decode[T](ctx, c, method, path, status, raw)
}

// send performs the round trip and returns status and body. Only transport
// failures are returned as errors here.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (int, []byte, error) {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.credentials != nil {
		if token := c.credentials.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observe(method, 0, time.Since(start))
		c.log.Warnw("Request failed",
			"method", method,
			"path", path,
			"requestID", requestID,
			"error", err)
		return 0, nil, apperrors.TransportFailed(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.metrics.observe(method, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, apperrors.TransportFailed(fmt.Errorf("failed to read response: %w", err))
	}

	c.log.Debugw("Request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"requestID", requestID,
		"duration", time.Since(start))

	return resp.StatusCode, raw, nil
}

func decode[T any](ctx context.Context, c *Client, method, path string, status int, raw []byte) (*types.Envelope[T], error) {
	if status < 200 || status >= 300 {
		return nil, c.classify(ctx, method, path, status, raw)
	}

	var env types.Envelope[T]
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, apperrors.TransportFailed(fmt.Errorf("failed to decode response: %w", err))
		}
	}
	if !env.Success {
		return nil, apperrors.FromResponse(status, env.Message, env.Errors)
	}
	return &env, nil
}

// classify maps a non-2xx response onto the error taxonomy. A 401 purges the
// stored credentials whatever resource triggered it.
func (c *Client) classify(ctx context.Context, method, path string, status int, raw []byte) error {
	var env errorEnvelope
	if len(raw) > 0 {
		// A non-JSON error body still classifies by status.
		_ = json.Unmarshal(raw, &env)
	}

	message := env.Message
	if message == "" {
		message = http.StatusText(status)
	}

	if status == http.StatusUnauthorized && c.credentials != nil {
		c.log.Infow("Received 401, clearing stored credentials", "method", method, "path", path)
		if err := c.credentials.Clear(ctx); err != nil {
			c.log.Errorw("Failed to clear credentials after 401", "error", err)
		}
	}

	return apperrors.FromResponse(status, message, env.Errors)
}
