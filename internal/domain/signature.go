package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Header names the verifiers read.
const (
	HeaderTerraSignature = "terra-signature"
	HeaderWhoopSignature = "X-WHOOP-Signature"
	HeaderWhoopTimestamp = "X-WHOOP-Signature-Timestamp"
)

// MismatchError carries the provided and computed signatures for diagnostics.
// It never contains the secret.
type MismatchError struct {
	Provided string
	Computed string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: provided=%s computed=%s", ErrInvalidSignature, e.Provided, e.Computed)
}

// Is lets errors.Is(err, ErrInvalidSignature) match.
func (e *MismatchError) Is(target error) bool {
	return target == ErrInvalidSignature
}

// TerraVerifier implements SignatureValidator for headers of the form
// "t=<unix_ts>,v1=<hex_hmac_sha256>" signed over timestamp + raw body.
type TerraVerifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewTerraVerifier creates a verifier. A zero tolerance disables the replay
// window check.
func NewTerraVerifier(secret string, tolerance time.Duration) *TerraVerifier {
	return &TerraVerifier{secret: secret, tolerance: tolerance, now: time.Now}
}

// Validate checks the terra-signature header against the raw body.
func (v *TerraVerifier) Validate(payload []byte, headers Headers) error {
	header := strings.TrimSpace(headers.Get(HeaderTerraSignature))
	if header == "" {
		return ErrMissingSignature
	}

	timestamp, signature := parseSignatureHeader(header)
	if timestamp == "" || signature == "" {
		return ErrMalformedSignature
	}

	computed := hex.EncodeToString(sign(v.secret, timestamp, payload))
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(computed)) {
		return &MismatchError{Provided: signature, Computed: computed}
	}

	if v.tolerance > 0 {
		secs, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return ErrMalformedSignature
		}
		if !withinTolerance(v.now(), time.Unix(secs, 0), v.tolerance) {
			return ErrSignatureExpired
		}
	}

	return nil
}

// WhoopVerifier implements SignatureValidator for WHOOP's
// base64(HMAC-SHA256(timestamp + body)) scheme.
type WhoopVerifier struct {
	secret    string
	tolerance time.Duration
	now       func() time.Time
}

// NewWhoopVerifier creates a verifier keyed by the WHOOP client secret.
func NewWhoopVerifier(secret string, tolerance time.Duration) *WhoopVerifier {
	return &WhoopVerifier{secret: secret, tolerance: tolerance, now: time.Now}
}

// Validate checks the X-WHOOP-Signature header against the raw body.
func (v *WhoopVerifier) Validate(payload []byte, headers Headers) error {
	signature := strings.TrimSpace(headers.Get(HeaderWhoopSignature))
	timestamp := strings.TrimSpace(headers.Get(HeaderWhoopTimestamp))
	if signature == "" && timestamp == "" {
		return ErrMissingSignature
	}
	if signature == "" || timestamp == "" {
		return ErrMalformedSignature
	}

	computed := base64.StdEncoding.EncodeToString(sign(v.secret, timestamp, payload))
	if !hmac.Equal([]byte(signature), []byte(computed)) {
		return &MismatchError{Provided: signature, Computed: computed}
	}

	if v.tolerance > 0 {
		ms, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			return ErrMalformedSignature
		}
		if !withinTolerance(v.now(), time.UnixMilli(ms), v.tolerance) {
			return ErrSignatureExpired
		}
	}

	return nil
}

// NoopVerifier accepts every delivery. Used when no secret is configured for
// a provider that does not require one.
type NoopVerifier struct{}

// Validate always succeeds.
func (NoopVerifier) Validate([]byte, Headers) error { return nil }

func sign(secret, timestamp string, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(payload)
	return mac.Sum(nil)
}

// parseSignatureHeader extracts t and the first v1 value from a
// comma-separated key=value list.
func parseSignatureHeader(header string) (timestamp, signature string) {
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "t":
			if timestamp == "" {
				timestamp = strings.TrimSpace(value)
			}
		case "v1":
			if signature == "" {
				signature = strings.TrimSpace(value)
			}
		}
	}
	return timestamp, signature
}

func withinTolerance(now, signed time.Time, tolerance time.Duration) bool {
	diff := now.Sub(signed)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
