package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	authHeader      = "Authorization"
	bearerPrefix    = "Bearer "
	requestIDHeader = "X-Request-ID"
)

// TokenSource supplies the bearer token attached to outgoing requests.
type TokenSource interface {
	// Token returns the current token and false when there is none.
	Token() (string, bool)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
	// ReadRetries is how many times a failed GET is repeated on network
	// errors and 5xx responses.
	ReadRetries  int
	RetryBackoff time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client is the API transport. It is safe for concurrent use.
type Client struct {
	logger       zerolog.Logger
	baseURL      string
	http         *http.Client
	tokens       TokenSource
	readRetries  int
	retryBackoff time.Duration
}

func New(cfg Config, tokens TokenSource, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("empty api base url")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("invalid api base url: %q", cfg.BaseURL)
	}

	c := &Client{
		logger:       logger,
		baseURL:      baseURL,
		http:         &http.Client{Timeout: cfg.Timeout},
		tokens:       tokens,
		readRetries:  max(cfg.ReadRetries, 0),
		retryBackoff: cfg.RetryBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.doWithRetry(ctx, http.MethodGet, path, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPut, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// doWithRetry repeats reads on transient failures. Mutations never go
// through here so a retried request cannot duplicate a side effect.
func (c *Client) doWithRetry(ctx context.Context, method, path string, out any) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = c.do(ctx, method, path, nil, out)
		if err == nil || attempt >= c.readRetries || !retryable(err) {
			return err
		}

		c.logger.Warn().
			Err(err).
			Str("method", method).
			Str("path", path).
			Int("attempt", attempt+1).
			Msg("retrying request")

		if c.retryBackoff > 0 {
			timer := time.NewTimer(c.retryBackoff * time.Duration(attempt+1))
			select {
			case <-ctx.Done():
				timer.Stop()
				return err
			case <-timer.C:
			}
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsServerError()
	}

	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	url := c.baseURL + path

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)

	authenticated := false
	if c.tokens != nil {
		if token, ok := c.tokens.Token(); ok {
			req.Header.Set(authHeader, bearerPrefix+token)
			authenticated = true
		}
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", url).
		Str("request_id", requestID).
		Bool("authenticated", authenticated).
		Msg("sending request")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("url", url).
			Str("request_id", requestID).
			Msg("request failed")
		return &TransportError{Method: method, URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("failed to read response body")
		return &TransportError{Method: method, URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, respBody)
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("method", method).
			Str("url", url).
			Str("request_id", requestID).
			Str("message", apiErr.Message).
			Msg("api rejected request")
		return apiErr
	}
	c.logger.Debug().
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Msg("received response")

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	err = json.Unmarshal(respBody, out)
	if err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
