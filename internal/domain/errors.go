package domain

import "errors"

// Domain errors
var (
	// ErrMissingSignature returned when the signature header is absent
	ErrMissingSignature = errors.New("missing webhook signature")

	// ErrMalformedSignature returned when the signature header lacks its timestamp or signature part
	ErrMalformedSignature = errors.New("malformed webhook signature header")

	// ErrInvalidSignature returned when HMAC signature validation fails
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrSignatureExpired returned when the signed timestamp is outside the tolerance window
	ErrSignatureExpired = errors.New("webhook signature timestamp outside tolerance")

	// ErrDatabaseWrite returned when a store write fails
	ErrDatabaseWrite = errors.New("failed to write to database")

	// ErrInvalidPayload returned when webhook payload validation fails
	ErrInvalidPayload = errors.New("invalid webhook payload")

	// ErrConnectionNotFound returned when no active provider connection matches an external user id
	ErrConnectionNotFound = errors.New("no active provider connection")
)

// IsAuthError reports whether err is one of the signature failures that must
// be answered with 400 and no side effects.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMalformedSignature) ||
		errors.Is(err, ErrInvalidSignature) ||
		errors.Is(err, ErrSignatureExpired)
}
