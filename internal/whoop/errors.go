package whoop

import (
	"fmt"
	"net/http"
)

// APIError represents an error returned by the WHOOP API.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whoop api error: %d - %s at %s", e.StatusCode, e.Message, e.URL)
}

// RateLimitError is returned once 429 retries are exhausted.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("whoop rate limit exceeded: %v", e.Err)
	}
	return "whoop rate limit exceeded"
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// AuthError represents a 401 or 403, usually an expired access token.
type AuthError struct {
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("whoop auth error (%d): %v", e.StatusCode, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func mapHTTPError(resp *http.Response, body []byte) error {
	baseErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
		URL:        resp.Request.URL.String(),
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode, Err: baseErr}
	case http.StatusTooManyRequests:
		return &RateLimitError{Err: baseErr}
	default:
		return baseErr
	}
}
