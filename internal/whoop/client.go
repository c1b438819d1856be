// Package whoop is a small WHOOP API v2 client used for follow-up fetches
// after a webhook notification.
package whoop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.prod.whoop.com/developer"
)

// Client is the core WHOOP API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string

	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration

	rateLimiter *rateLimiter
}

// NewClient creates a new WHOOP API client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     defaultBaseURL,
		maxRetries:  3,
		backoffBase: 1 * time.Second,
		backoffMax:  60 * time.Second,
		rateLimiter: newRateLimiter(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithToken returns a copy of the client that authenticates as the owner of
// token. The copy shares the HTTP client and the rate limiter.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Do executes an HTTP request with context, authentication, rate limiting,
// and automatic retries on 429 Too Many Requests.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("Accept", "application/json")

	var resp *http.Response
	var err error
	var attempt int

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("local rate limit wait interrupted: %w", err)
		}

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request aborted by context: %w", ctx.Err())
			}
			return nil, fmt.Errorf("http execute request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}

		if attempt >= c.maxRetries {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, mapHTTPError(resp, body)
		}

		// Drain body to reuse connection
		_, _ = io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		backoff := calculateBackoff(attempt, c.backoffBase, c.backoffMax)

		select {
		case <-time.After(backoff):
			attempt++
		case <-ctx.Done():
			return nil, fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
		}
	}

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, mapHTTPError(resp, body)
	}

	return resp, nil
}

// get issues a GET against path and decodes the JSON body into v.
func (c *Client) get(ctx context.Context, path string, v interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
