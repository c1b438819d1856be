package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/normalize"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/whoop"
)

// WhoopFetcher loads the full resource a notification refers to.
type WhoopFetcher interface {
	GetSleep(ctx context.Context, id string) (*whoop.Sleep, error)
	GetRecoveryForSleep(ctx context.Context, sleepID string) (*whoop.Recovery, error)
	GetCycle(ctx context.Context, id int64) (*whoop.Cycle, error)
	GetWorkout(ctx context.Context, id string) (*whoop.Workout, error)
}

// WhoopFetcherFactory scopes a fetcher to one user's access token.
type WhoopFetcherFactory func(accessToken string) WhoopFetcher

// ClientFetcherFactory adapts a shared API client.
func ClientFetcherFactory(client *whoop.Client) WhoopFetcherFactory {
	return func(accessToken string) WhoopFetcher {
		return client.WithToken(accessToken)
	}
}

// WhoopService implements domain.WebhookProcessor for direct WHOOP
// notifications. Follow-up fetch failures are logged and the delivery is
// still acknowledged.
type WhoopService struct {
	validator    domain.SignatureValidator
	connections  domain.ConnectionStore
	fetchers     WhoopFetcherFactory
	ingestor     *Ingestor
	logger       domain.Logger
	fetchTimeout time.Duration
}

// NewWhoopService creates a new WHOOP webhook service with dependency injection
func NewWhoopService(
	validator domain.SignatureValidator,
	connections domain.ConnectionStore,
	fetchers WhoopFetcherFactory,
	ingestor *Ingestor,
	logger domain.Logger,
	fetchTimeout time.Duration,
) *WhoopService {
	return &WhoopService{
		validator:    validator,
		connections:  connections,
		fetchers:     fetchers,
		ingestor:     ingestor,
		logger:       logger,
		fetchTimeout: fetchTimeout,
	}
}

// Process verifies the notification, fetches the resource it names and
// ingests the mapped records
func (s *WhoopService) Process(ctx context.Context, payload []byte, headers domain.Headers) error {
	// Step 1: Verify signature
	if err := s.validator.Validate(payload, headers); err != nil {
		logSignatureFailure(s.logger, domain.ProviderWhoop, err)
		return fmt.Errorf("webhook validation failed: %w", err)
	}

	// Step 2: Parse notification
	event, err := whoop.ParseEvent(payload)
	if err != nil {
		s.logger.Error("failed to parse webhook payload", err)
		return fmt.Errorf("failed to parse webhook: %w: %v", domain.ErrInvalidPayload, err)
	}
	promWebhooksReceived.WithLabelValues(string(domain.ProviderWhoop), event.Type).Inc()

	if event.Action() != "updated" || !isWhoopResource(event.Resource()) {
		s.logger.Info("ignoring event", "type", event.Type, "trace_id", event.TraceID)
		return nil
	}
	if event.ID == "" {
		s.logger.Warn("event without resource id", "type", event.Type, "trace_id", event.TraceID)
		return nil
	}

	// Step 3: Resolve user
	conn, err := resolveConnection(ctx, s.connections, s.logger, domain.ProviderWhoop, event.UserID)
	if err != nil {
		return err
	}
	if conn == nil {
		return nil
	}

	// Step 4: Fetch and map under a bounded timeout
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	batch, err := s.fetch(fetchCtx, s.fetchers(conn.AccessToken), event)
	if err != nil {
		var authErr *whoop.AuthError
		if errors.As(err, &authErr) {
			s.logger.Warn("access token rejected, connection needs a refresh",
				"status", authErr.StatusCode,
				"trace_id", event.TraceID,
			)
			return nil
		}
		s.logger.Error("failed to fetch "+event.Resource()+" "+event.ID, err)
		return nil
	}

	// Step 5: Ingest
	s.ingestor.Ingest(ctx, *conn, event.Type, batch)
	return nil
}

func isWhoopResource(resource string) bool {
	switch resource {
	case "sleep", "recovery", "workout", "cycle":
		return true
	}
	return false
}

// fetch retrieves and maps one resource. Calls within a delivery run in order.
func (s *WhoopService) fetch(ctx context.Context, f WhoopFetcher, event *whoop.Event) (batch domain.Batch, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		promFetchDuration.WithLabelValues(event.Resource(), outcome).Observe(time.Since(start).Seconds())
	}()

	switch event.Resource() {
	case "sleep":
		sleep, err := f.GetSleep(ctx, event.ID)
		if err != nil {
			return batch, err
		}
		batch.Metrics = normalize.WhoopSleep(sleep)
	case "recovery":
		recovery, err := f.GetRecoveryForSleep(ctx, event.ID)
		if err != nil {
			return batch, err
		}
		batch.Metrics = normalize.WhoopRecovery(recovery)
	case "cycle":
		id, err := strconv.ParseInt(event.ID, 10, 64)
		if err != nil {
			return batch, fmt.Errorf("%w: cycle id %q", domain.ErrInvalidPayload, event.ID)
		}
		cycle, err := f.GetCycle(ctx, id)
		if err != nil {
			return batch, err
		}
		batch.Metrics = normalize.WhoopCycle(cycle)
	case "workout":
		workout, err := f.GetWorkout(ctx, event.ID)
		if err != nil {
			return batch, err
		}
		if w, ok := normalize.WhoopWorkout(workout); ok {
			batch.Workouts = append(batch.Workouts, w)
		}
	}
	return batch, nil
}
