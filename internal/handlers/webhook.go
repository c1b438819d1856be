package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

// MaxBodyBytes caps an inbound webhook body.
const MaxBodyBytes = 1 << 20

// Success bodies of the two providers.
var (
	TerraSuccessBody = []byte(`{"success":true}`)
	WhoopSuccessBody = []byte(`{"ok":true}`)
)

// signatureHeaders are copied from the request for the processor.
var signatureHeaders = []string{
	domain.HeaderTerraSignature,
	domain.HeaderWhoopSignature,
	domain.HeaderWhoopTimestamp,
}

// WebhookHandler handles incoming webhook requests (HTTP transport layer)
type WebhookHandler struct {
	processor   domain.WebhookProcessor
	logger      domain.Logger
	rateLimiter *RateLimiter
	successBody []byte
}

// NewWebhookHandler creates a new webhook handler. A nil rate limiter admits
// every request.
func NewWebhookHandler(
	processor domain.WebhookProcessor,
	logger domain.Logger,
	rateLimiter *RateLimiter,
	successBody []byte,
) *WebhookHandler {
	return &WebhookHandler{
		processor:   processor,
		logger:      logger,
		rateLimiter: rateLimiter,
		successBody: successBody,
	}
}

// ServeHTTP handles HTTP requests to the webhook endpoint
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Check rate limit first (before any processing)
	if !h.rateLimiter.Allow() {
		h.logger.Warn("rate limit exceeded", "remote_addr", r.RemoteAddr)
		w.Header().Set("X-RateLimit-Retry-After", "1")
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	// Only accept POST requests
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Read the raw body; verification needs the exact bytes
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	defer r.Body.Close()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("webhook body too large", "limit", tooLarge.Limit)
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error("failed to read request body", err)
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}

	headers := make(domain.Headers, len(signatureHeaders))
	for _, name := range signatureHeaders {
		if v := r.Header.Get(name); v != "" {
			headers[name] = v
		}
	}

	// Process webhook
	if err := h.processor.Process(r.Context(), body, headers); err != nil {
		if domain.IsAuthError(err) {
			http.Error(w, "Invalid webhook signature", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to process webhook", err)
		http.Error(w, "Failed to process webhook", http.StatusInternalServerError)
		return
	}

	// Success response
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.successBody)
}
