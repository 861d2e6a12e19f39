// Package chinoapi is the HTTP executor for the Chino.io REST API: request
// construction, authentication, envelope decoding and retries.
package chinoapi

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

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chino/internal/metrics"
)

// maxErrorBody bounds how much of a non-JSON error body is kept in messages.
const maxErrorBody = 512

// Auth sets credentials on an outgoing request.
type Auth interface {
	apply(r *http.Request)
}

// BasicAuth authenticates with a customer or application id/key pair.
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) apply(r *http.Request) { r.SetBasicAuth(a.Username, a.Password) }

// BearerAuth authenticates with a user access token.
type BearerAuth string

func (a BearerAuth) apply(r *http.Request) { r.Header.Set("Authorization", "Bearer "+string(a)) }

// Call describes one API request.
type Call struct {
	Method string
	// Endpoint is the path template, e.g. /documents/{document_id}.
	Endpoint string
	Params   []string
	Query    url.Values
	// Body is sent as JSON; []byte bodies are sent verbatim.
	Body any
	// Form is sent url-encoded instead of Body when set.
	Form url.Values
	// Auth overrides the client credentials for this call.
	Auth Auth
	// Idempotent marks a POST that is safe to repeat (search).
	Idempotent bool
}

func (c Call) retryable() bool {
	return c.Idempotent || c.Method != http.MethodPost
}

// envelope is the response wrapper shared by every endpoint.
type envelope struct {
	Result     string          `json:"result"`
	ResultCode int             `json:"result_code"`
	Message    *string         `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// Client executes calls against the Chino API.
type Client struct {
	cfg     Config
	http    *http.Client
	base    *url.URL
	auth    Auth
	logger  *zap.Logger
	metrics *metrics.HTTPClient
}

// New creates a Client. logger and m may be nil.
func New(cfg Config, logger *zap.Logger, m *metrics.HTTPClient) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chino api config: %w", err)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var auth Auth
	switch {
	case cfg.BearerToken != "":
		auth = BearerAuth(cfg.BearerToken)
	case cfg.CustomerID != "":
		auth = BasicAuth{Username: cfg.CustomerID, Password: cfg.CustomerKey}
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		base:    base,
		auth:    auth,
		logger:  logger,
		metrics: m,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.base.String() }

// WithAuth returns a copy of the client using auth for every call.
func (c *Client) WithAuth(auth Auth) *Client {
	cp := *c
	cp.auth = auth
	return &cp
}

// Do executes call and decodes the envelope data into out (when non-nil).
// 429 and 5xx answers and network failures of repeatable calls are retried
// with exponential backoff; other errors are returned at once.
func (c *Client) Do(ctx context.Context, call Call, out any) error {
	path, err := Path(call.Endpoint, call.Params...)
	if err != nil {
		return err
	}
	body, contentType, err := encodeBody(call)
	if err != nil {
		return fmt.Errorf("%s %s: %w", call.Method, call.Endpoint, err)
	}

	var data json.RawMessage
	op := func() error {
		d, err := c.attempt(ctx, call, path, body, contentType)
		if err == nil {
			data = d
			return nil
		}
		var apiErr *APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests:
			return err
		case errors.As(err, &apiErr) && apiErr.Temporary() && call.retryable():
			return err
		case !errors.As(err, &apiErr) && call.retryable() && ctx.Err() == nil:
			return err
		default:
			return backoff.Permanent(err)
		}
	}
	notify := func(err error, wait time.Duration) {
		c.metrics.Retry(call.Method, call.Endpoint)
		c.logger.Debug("retrying chino api call",
			zap.String("method", call.Method),
			zap.String("endpoint", call.Endpoint),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, c.newBackOff(ctx), notify); err != nil {
		return err
	}

	if out == nil || len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode data: %w", call.Method, call.Endpoint, err)
	}
	return nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.cfg.RetryInitial
	eb.MaxInterval = c.cfg.RetryMax
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.cfg.MaxRetries)), ctx)
}

func (c *Client) attempt(
	ctx context.Context, call Call, path string, body []byte, contentType string,
) (json.RawMessage, error) {
	u, err := url.Parse(c.base.String() + path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build url: %w", call.Method, call.Endpoint, err)
	}
	if len(call.Query) > 0 {
		u.RawQuery = call.Query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	auth := c.auth
	if call.Auth != nil {
		auth = call.Auth
	}
	if auth != nil {
		auth.apply(req)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Observe(call.Method, call.Endpoint, 0, time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", call.Method, call.Endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	c.metrics.Observe(call.Method, call.Endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", call.Method, call.Endpoint, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Method:     call.Method,
			Endpoint:   call.Endpoint,
		}
		if decodeErr == nil {
			apiErr.Result = env.Result
			if env.Message != nil {
				apiErr.Message = *env.Message
			}
		} else {
			apiErr.Message = truncate(strings.TrimSpace(string(raw)), maxErrorBody)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%s %s: decode envelope: %w", call.Method, call.Endpoint, decodeErr)
	}
	return env.Data, nil
}

func encodeBody(call Call) ([]byte, string, error) {
	if call.Form != nil {
		return []byte(call.Form.Encode()), "application/x-www-form-urlencoded", nil
	}
	switch b := call.Body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "application/json", nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(b); err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), "application/json", nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
