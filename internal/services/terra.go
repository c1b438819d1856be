package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/normalize"
)

// TerraService implements domain.WebhookProcessor for the aggregator.
// Orchestrates verification, connection lifecycle, resolution and ingestion
type TerraService struct {
	validator   domain.SignatureValidator
	connections domain.ConnectionStore
	ingestor    *Ingestor
	logger      domain.Logger
}

// NewTerraService creates a new aggregator webhook service with dependency injection
func NewTerraService(
	validator domain.SignatureValidator,
	connections domain.ConnectionStore,
	ingestor *Ingestor,
	logger domain.Logger,
) *TerraService {
	return &TerraService{
		validator:   validator,
		connections: connections,
		ingestor:    ingestor,
		logger:      logger,
	}
}

// Process verifies, parses and applies one aggregator delivery
func (s *TerraService) Process(ctx context.Context, payload []byte, headers domain.Headers) error {
	// Step 1: Verify signature before touching the body
	if err := s.validator.Validate(payload, headers); err != nil {
		logSignatureFailure(s.logger, domain.ProviderTerra, err)
		return fmt.Errorf("webhook validation failed: %w", err)
	}

	// Step 2: Parse envelope
	p, err := normalize.ParseTerraPayload(payload)
	if err != nil {
		s.logger.Error("failed to parse webhook payload", err)
		return fmt.Errorf("failed to parse webhook: %w", err)
	}
	promWebhooksReceived.WithLabelValues(string(domain.ProviderTerra), p.Type).Inc()

	// Step 3: Dispatch on event type
	switch p.Type {
	case normalize.TerraAuth:
		return s.handleAuth(ctx, p)
	case normalize.TerraUserReauth:
		return s.handleReauth(ctx, p)
	case normalize.TerraDeauth, normalize.TerraAccessRevoked:
		return s.handleDeauth(ctx, p)
	case normalize.TerraBody, normalize.TerraDaily, normalize.TerraSleep,
		normalize.TerraNutrition, normalize.TerraActivity:
		return s.handleData(ctx, p)
	case normalize.TerraAthlete:
		s.logger.Debug("athlete event acknowledged", "user", p.ExternalUserID())
		return nil
	default:
		s.logger.Info("ignoring unsupported event type", "type", p.Type)
		return nil
	}
}

func (s *TerraService) handleAuth(ctx context.Context, p *normalize.TerraPayload) error {
	if p.User == nil || p.User.UserID == "" {
		s.logger.Warn("auth event without user", "status", p.Status)
		return nil
	}
	referenceID := p.ReferenceID
	if referenceID == "" {
		referenceID = p.User.ReferenceID
	}
	if !strings.EqualFold(p.Status, "success") || referenceID == "" {
		s.logger.Info("auth event not applied", "status", p.Status, "has_reference", referenceID != "")
		return nil
	}

	conn := domain.Connection{
		UserID:         referenceID,
		Provider:       domain.ProviderTerra,
		ExternalUserID: p.User.UserID,
		Wearable:       string(domain.NormalizeSource(p.User.Provider)),
		IsActive:       true,
	}
	if err := s.connections.UpsertConnection(ctx, conn); err != nil {
		s.logger.Error("failed to store connection", err)
		return fmt.Errorf("failed to store connection: %w", err)
	}
	s.logger.Info("connection authorized", "wearable", conn.Wearable)
	return nil
}

func (s *TerraService) handleReauth(ctx context.Context, p *normalize.TerraPayload) error {
	if p.NewUser == nil || p.NewUser.UserID == "" {
		s.logger.Warn("user_reauth event without new_user")
		return nil
	}

	userID := p.NewUser.ReferenceID
	if p.OldUser != nil && p.OldUser.UserID != "" {
		old, err := s.connections.FindActiveConnection(ctx, domain.ProviderTerra, p.OldUser.UserID)
		switch {
		case err == nil:
			userID = old.UserID
		case !errors.Is(err, domain.ErrConnectionNotFound):
			return fmt.Errorf("failed to resolve previous connection: %w", err)
		}
	}
	if userID == "" {
		s.logger.Warn("user_reauth event could not be mapped to an internal user")
		promUnresolvedUsers.WithLabelValues(string(domain.ProviderTerra)).Inc()
		return nil
	}

	conn := domain.Connection{
		UserID:         userID,
		Provider:       domain.ProviderTerra,
		ExternalUserID: p.NewUser.UserID,
		Wearable:       string(domain.NormalizeSource(p.NewUser.Provider)),
		IsActive:       true,
	}
	if err := s.connections.UpsertConnection(ctx, conn); err != nil {
		s.logger.Error("failed to store connection", err)
		return fmt.Errorf("failed to store connection: %w", err)
	}

	if p.OldUser != nil && p.OldUser.UserID != "" && p.OldUser.UserID != p.NewUser.UserID {
		if err := s.connections.DeactivateConnection(ctx, domain.ProviderTerra, p.OldUser.UserID); err != nil &&
			!errors.Is(err, domain.ErrConnectionNotFound) {
			s.logger.Error("failed to deactivate previous connection", err)
		}
	}
	return nil
}

func (s *TerraService) handleDeauth(ctx context.Context, p *normalize.TerraPayload) error {
	extID := p.ExternalUserID()
	if extID == "" {
		return nil
	}
	err := s.connections.DeactivateConnection(ctx, domain.ProviderTerra, extID)
	if errors.Is(err, domain.ErrConnectionNotFound) {
		s.logger.Info("deauth for unknown connection", "type", p.Type)
		return nil
	}
	if err != nil {
		s.logger.Error("failed to deactivate connection", err)
		return fmt.Errorf("failed to deactivate connection: %w", err)
	}
	s.logger.Info("connection deactivated", "type", p.Type)
	return nil
}

func (s *TerraService) handleData(ctx context.Context, p *normalize.TerraPayload) error {
	conn, err := s.resolve(ctx, p.ExternalUserID())
	if err != nil {
		return err
	}
	if conn == nil {
		return nil
	}

	// The stored wearable stands in when the payload omits user.provider.
	source := p.Source()
	if source == "" {
		source = domain.NormalizeSource(conn.Wearable)
	}
	if source == "" {
		s.logger.Warn("data payload without wearable source, skipping", "type", p.Type, "external_user", p.ExternalUserID())
		return nil
	}

	batch, itemErrs := normalize.ExtractTerraAs(p, source)
	for _, ie := range itemErrs {
		s.logger.Warn("skipping malformed data item", "type", p.Type, "index", ie.Index, "error", ie.Err.Error())
	}

	s.ingestor.Ingest(ctx, *conn, p.Type, batch)
	return nil
}

// resolve maps the external user to a connection. A nil connection with a nil
// error means the user is unknown and the delivery is acknowledged as is.
func (s *TerraService) resolve(ctx context.Context, extID string) (*domain.Connection, error) {
	return resolveConnection(ctx, s.connections, s.logger, domain.ProviderTerra, extID)
}

func resolveConnection(
	ctx context.Context,
	connections domain.ConnectionStore,
	logger domain.Logger,
	provider domain.Provider,
	extID string,
) (*domain.Connection, error) {
	if extID == "" {
		logger.Warn("delivery without external user id", "provider", provider)
		promUnresolvedUsers.WithLabelValues(string(provider)).Inc()
		return nil, nil
	}

	conn, err := connections.FindActiveConnection(ctx, provider, extID)
	if errors.Is(err, domain.ErrConnectionNotFound) {
		logger.Warn("no active connection for external user", "provider", provider, "external_user", extID)
		promUnresolvedUsers.WithLabelValues(string(provider)).Inc()
		return nil, nil
	}
	if err != nil {
		logger.Error("failed to resolve connection", err)
		return nil, fmt.Errorf("failed to resolve connection: %w", err)
	}
	return conn, nil
}

func logSignatureFailure(logger domain.Logger, provider domain.Provider, err error) {
	promSignatureFailures.WithLabelValues(string(provider)).Inc()

	var mismatch *domain.MismatchError
	if errors.As(err, &mismatch) {
		logger.Warn("signature mismatch",
			"provider", provider,
			"provided", mismatch.Provided,
			"computed", mismatch.Computed,
		)
		return
	}
	logger.Error("webhook validation failed", err)
}
