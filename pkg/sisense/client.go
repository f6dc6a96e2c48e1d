package sisense

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

// Client is an authenticated HTTP client for one Sisense environment.
type Client struct {
	config  *Config
	http    *http.Client
	baseURL string
	logger  hclog.Logger
}

// NewClient creates a client for the environment described by cfg.
func NewClient(cfg *Config, logger hclog.Logger) (*Client, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	c := &Client{
		config:  cfg,
		http:    cfg.NewHTTPClient(),
		baseURL: cfg.BaseURL(),
		logger:  logger.Named("sisense").With("host", cfg.Host()),
	}
	if !cfg.TLSVerify {
		c.logger.Warn("TLS certificate verification is disabled")
	}
	return c, nil
}

// BaseURL returns the environment base URL the client is bound to.
func (c *Client) BaseURL() string { return c.baseURL }

// Response is a completed API response. Non-2xx statuses are returned here
// rather than as errors so callers can branch on the platform's semantics
// (404 as a definitive miss, 403 as an access decision, and so on).
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into out.
func (r *Response) Decode(out any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// ErrorMessage extracts a human-readable error from the platform's error
// envelope, falling back to the raw body.
func (r *Response) ErrorMessage() string {
	var envelope struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err == nil {
		switch {
		case envelope.Detail != "":
			return envelope.Detail
		case envelope.Message != "":
			return envelope.Message
		case envelope.Error != "":
			return envelope.Error
		}
	}
	if len(r.Body) > 0 {
		return string(r.Body)
	}
	return fmt.Sprintf("status %d with empty body", r.StatusCode)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, query url.Values, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, query, body)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, query url.Values, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, query, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, query url.Values, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, query, body)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, query, nil)
}

// Do executes one API request. Network errors and 5xx responses are retried
// with exponential backoff up to the configured limit; everything else is
// returned as-is. The returned error is always a *TransportError.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &TransportError{
				Op:  fmt.Sprintf("%s %s", method, path),
				Err: fmt.Errorf("marshaling request body: %w", err),
			}
		}
	}

	c.logger.Debug("sending request", "method", method, "path", path)

	var resp *Response
	attempt := func() error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			c.logger.Debug("request failed", "method", method, "path", path, "error", err)
			return err
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}

		if httpResp.StatusCode >= 500 {
			c.logger.Debug("server error, retrying",
				"method", method, "path", path, "status", httpResp.StatusCode)
			return fmt.Errorf("server error: status %d", httpResp.StatusCode)
		}

		resp = &Response{StatusCode: httpResp.StatusCode, Body: respBody}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(c.retryBackoff(), uint64(c.config.MaxRetries)), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, &TransportError{
			Op:  fmt.Sprintf("%s %s", method, path),
			Err: err,
		}
	}

	c.logger.Debug("request completed",
		"method", method, "path", path, "status", resp.StatusCode)
	return resp, nil
}

func (c *Client) retryBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.RetryInterval
	return b
}
