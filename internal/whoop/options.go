package whoop

import (
	"net/http"
	"time"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithMaxRetries sets the maximum number of retries for 429 responses.
func WithMaxRetries(retries int) Option {
	return func(client *Client) {
		client.maxRetries = retries
	}
}

// WithBackoff sets the base and maximum durations for retry backoff.
func WithBackoff(base, max time.Duration) Option {
	return func(client *Client) {
		client.backoffBase = base
		client.backoffMax = max
	}
}

// WithBaseURL overrides the default WHOOP API base URL.
func WithBaseURL(url string) Option {
	return func(client *Client) {
		if url != "" {
			client.baseURL = url
		}
	}
}

// WithRateLimiting enables or disables client-side rate limiting.
func WithRateLimiting(enabled bool) Option {
	return func(client *Client) {
		client.rateLimiter.SetAutoLimiting(enabled)
	}
}
