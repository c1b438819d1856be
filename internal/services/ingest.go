package services

import (
	"context"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/reconcile"
)

// IngestResult counts the outcome of one batch.
type IngestResult struct {
	Written int
	Failed  int
}

// Ingestor writes normalized batches for a resolved user. Every record is an
// independent upsert; a failed write is logged and counted and its siblings
// are still attempted.
type Ingestor struct {
	metrics     domain.MetricStore
	connections domain.ConnectionStore
	publisher   domain.SyncPublisher
	logger      domain.Logger
	now         func() time.Time
}

// NewIngestor creates an ingestor. publisher may be nil.
func NewIngestor(
	metrics domain.MetricStore,
	connections domain.ConnectionStore,
	publisher domain.SyncPublisher,
	logger domain.Logger,
) *Ingestor {
	return &Ingestor{
		metrics:     metrics,
		connections: connections,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Ingest upserts batch on behalf of conn.UserID.
func (i *Ingestor) Ingest(ctx context.Context, conn domain.Connection, eventType string, batch domain.Batch) IngestResult {
	var res IngestResult
	provider := string(conn.Provider)
	now := i.now().UTC()

	for _, m := range batch.Metrics {
		m.UserID = conn.UserID
		m.UpdatedAt = now
		reconcile.Stamp(&m)

		if err := i.metrics.UpsertMetric(ctx, m); err != nil {
			i.logger.Error("failed to upsert metric "+m.MetricName, err)
			promRecordsFailed.WithLabelValues(provider, kindMetric).Inc()
			res.Failed++
			continue
		}
		promRecordsWritten.WithLabelValues(provider, kindMetric).Inc()
		res.Written++
	}

	for _, w := range batch.Workouts {
		w.UserID = conn.UserID
		w.UpdatedAt = now

		if err := i.metrics.UpsertWorkout(ctx, w); err != nil {
			i.logger.Error("failed to upsert workout "+w.ExternalID, err)
			promRecordsFailed.WithLabelValues(provider, kindWorkout).Inc()
			res.Failed++
			continue
		}
		promRecordsWritten.WithLabelValues(provider, kindWorkout).Inc()
		res.Written++
	}

	if res.Written > 0 {
		if err := i.connections.TouchLastSync(ctx, conn, now); err != nil {
			i.logger.Error("failed to update last sync date", err)
		}
	}

	i.logger.Info("batch ingested",
		"provider", provider,
		"type", eventType,
		"written", res.Written,
		"failed", res.Failed,
	)

	i.publish(ctx, domain.SyncEvent{
		UserID:    conn.UserID,
		Provider:  conn.Provider,
		EventType: eventType,
		Written:   res.Written,
		Failed:    res.Failed,
	})
	return res
}

func (i *Ingestor) publish(ctx context.Context, event domain.SyncEvent) {
	if i.publisher == nil || event.Written+event.Failed == 0 {
		return
	}
	if err := i.publisher.Publish(ctx, event); err != nil {
		i.logger.Warn("failed to publish sync event", "error", err.Error())
	}
}
