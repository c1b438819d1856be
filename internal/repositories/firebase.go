package repositories

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

// SyncFeedPath is the Realtime Database list live ingestion events are
// pushed to.
const SyncFeedPath = "ingestion/live"

// FirebaseSyncPublisher implements domain.SyncPublisher using Firebase Realtime Database
type FirebaseSyncPublisher struct {
	client *db.Client
	path   string
}

// NewFirebaseSyncPublisher creates a new publisher on SyncFeedPath
func NewFirebaseSyncPublisher(client *db.Client) *FirebaseSyncPublisher {
	return &FirebaseSyncPublisher{
		client: client,
		path:   SyncFeedPath,
	}
}

// Publish appends one ingestion summary to the live feed
func (p *FirebaseSyncPublisher) Publish(ctx context.Context, event domain.SyncEvent) error {
	ref := p.client.NewRef(p.path)

	// Push creates a new child with auto-generated key
	if _, err := ref.Push(ctx, syncEventData(event, time.Now())); err != nil {
		return fmt.Errorf("failed to publish sync event: %w", err)
	}

	return nil
}

func syncEventData(event domain.SyncEvent, at time.Time) map[string]interface{} {
	return map[string]interface{}{
		"userId":     event.UserID,
		"provider":   string(event.Provider),
		"eventType":  event.EventType,
		"written":    event.Written,
		"failed":     event.Failed,
		"receivedAt": at.UnixMilli(),
	}
}
