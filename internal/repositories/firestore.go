package repositories

import (
	"context"
	"fmt"
	"maps"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

const (
	metricsCollection     = "health_metrics"
	workoutsCollection    = "workouts"
	connectionsCollection = "provider_connections"

	// maxInValues is the Firestore limit for an "in" filter.
	maxInValues = 30
)

// docNamespace scopes the deterministic document ids.
var docNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("wellness-webhook-receiver"))

// MetricDocID is the document id of a metric's upsert key
// (user, metric, date, source).
func MetricDocID(r domain.MetricRecord) string {
	return uuid.NewSHA1(docNamespace, []byte("metric|"+r.UserID+"|"+r.MetricName+"|"+r.MeasurementDate+"|"+string(r.Source))).String()
}

// WorkoutDocID is the document id of a workout's upsert key (user, external id).
func WorkoutDocID(w domain.WorkoutRecord) string {
	return uuid.NewSHA1(docNamespace, []byte("workout|"+w.UserID+"|"+w.ExternalID)).String()
}

// ConnectionDocID is the document id of a (provider, external user) pair.
func ConnectionDocID(provider domain.Provider, externalUserID string) string {
	return uuid.NewSHA1(docNamespace, []byte("connection|"+string(provider)+"|"+externalUserID)).String()
}

type metricDoc struct {
	UserID          string    `firestore:"user_id"`
	MetricName      string    `firestore:"metric_name"`
	Value           float64   `firestore:"value"`
	Unit            string    `firestore:"unit"`
	Category        string    `firestore:"metric_category"`
	Source          string    `firestore:"source"`
	MeasurementDate string    `firestore:"measurement_date"`
	ExternalID      string    `firestore:"external_id"`
	Priority        int       `firestore:"priority"`
	ConfidenceScore int       `firestore:"confidence_score"`
	CreatedAt       time.Time `firestore:"created_at"`
	UpdatedAt       time.Time `firestore:"updated_at"`
}

type connectionDoc struct {
	UserID         string     `firestore:"user_id"`
	Provider       string     `firestore:"provider"`
	ExternalUserID string     `firestore:"external_user_id"`
	AccessToken    string     `firestore:"access_token,omitempty"`
	Wearable       string     `firestore:"wearable,omitempty"`
	IsActive       bool       `firestore:"is_active"`
	LastSyncDate   *time.Time `firestore:"last_sync_date,omitempty"`
	UpdatedAt      time.Time  `firestore:"updated_at"`
}

// FirestoreStore implements domain.Store using Firestore
// Uses a UUIDv5 of each upsert key as document ID for guaranteed idempotency
type FirestoreStore struct {
	client *firestore.Client
	now    func() time.Time
}

// NewFirestoreStore creates a new Firestore store
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client: client,
		now:    time.Now,
	}
}

// UpsertMetric stores a metric record under its key's document. Mutable
// fields are merged in; created_at is written only with the first version.
func (s *FirestoreStore) UpsertMetric(ctx context.Context, r domain.MetricRecord) error {
	data := map[string]interface{}{
		"user_id":          r.UserID,
		"metric_name":      r.MetricName,
		"value":            r.Value,
		"unit":             r.Unit,
		"metric_category":  string(r.Category),
		"source":           string(r.Source),
		"measurement_date": r.MeasurementDate,
		"external_id":      r.ExternalID,
		"priority":         r.Priority,
		"confidence_score": r.ConfidenceScore,
		"updated_at":       r.UpdatedAt,
	}
	ref := s.client.Collection(metricsCollection).Doc(MetricDocID(r))
	if err := s.upsert(ctx, ref, data, r.UpdatedAt); err != nil {
		return fmt.Errorf("%w: metric %s: %v", domain.ErrDatabaseWrite, r.MetricName, err)
	}
	return nil
}

// UpsertWorkout stores a workout record keyed by (user, external id)
func (s *FirestoreStore) UpsertWorkout(ctx context.Context, w domain.WorkoutRecord) error {
	data := map[string]interface{}{
		"user_id":          w.UserID,
		"external_id":      w.ExternalID,
		"source":           string(w.Source),
		"workout_type":     w.WorkoutType,
		"start_time":       w.StartTime,
		"end_time":         w.EndTime,
		"duration_minutes": w.DurationMinutes,
		"calories":         w.Calories,
		"avg_heart_rate":   w.AvgHeartRate,
		"max_heart_rate":   w.MaxHeartRate,
		"strain":           w.Strain,
		"distance_meters":  w.DistanceMeters,
		"updated_at":       w.UpdatedAt,
	}
	ref := s.client.Collection(workoutsCollection).Doc(WorkoutDocID(w))
	if err := s.upsert(ctx, ref, data, w.UpdatedAt); err != nil {
		return fmt.Errorf("%w: workout %s: %v", domain.ErrDatabaseWrite, w.ExternalID, err)
	}
	return nil
}

// upsert merges data into ref, stamping created_at when the document is new.
func (s *FirestoreStore) upsert(ctx context.Context, ref *firestore.DocumentRef, data map[string]interface{}, at time.Time) error {
	if at.IsZero() {
		at = s.now().UTC()
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && (snap == nil || snap.Exists()) {
			return err
		}
		if snap.Exists() {
			return tx.Set(ref, data, firestore.MergeAll)
		}
		created := maps.Clone(data)
		created["created_at"] = at
		return tx.Set(ref, created, firestore.MergeAll)
	})
}

// ListMetrics returns a user's metrics, newest date first
func (s *FirestoreStore) ListMetrics(ctx context.Context, q domain.MetricQuery) ([]domain.MetricRecord, error) {
	query := s.client.Collection(metricsCollection).Where("user_id", "==", q.UserID)
	if q.Source != "" {
		query = query.Where("source", "==", string(q.Source))
	}
	if q.From != "" {
		query = query.Where("measurement_date", ">=", q.From)
	}
	if q.To != "" {
		query = query.Where("measurement_date", "<=", q.To)
	}

	// Larger name sets are filtered client side.
	wanted := make(map[string]bool, len(q.MetricNames))
	for _, name := range q.MetricNames {
		wanted[name] = true
	}
	if len(q.MetricNames) > 0 && len(q.MetricNames) <= maxInValues {
		query = query.Where("metric_name", "in", q.MetricNames)
	}
	query = query.OrderBy("measurement_date", firestore.Desc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var records []domain.MetricRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query metrics: %w", err)
		}

		var doc metricDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode metric %s: %w", snap.Ref.ID, err)
		}
		if len(wanted) > 0 && !wanted[doc.MetricName] {
			continue
		}
		records = append(records, domain.MetricRecord{
			UserID:          doc.UserID,
			MetricName:      doc.MetricName,
			Value:           doc.Value,
			Unit:            doc.Unit,
			Category:        domain.Category(doc.Category),
			Source:          domain.Source(doc.Source),
			MeasurementDate: doc.MeasurementDate,
			ExternalID:      doc.ExternalID,
			Priority:        doc.Priority,
			ConfidenceScore: doc.ConfidenceScore,
			CreatedAt:       doc.CreatedAt,
			UpdatedAt:       doc.UpdatedAt,
		})
	}
	return records, nil
}

// FindActiveConnection resolves an external user to an active connection
func (s *FirestoreStore) FindActiveConnection(ctx context.Context, provider domain.Provider, externalUserID string) (*domain.Connection, error) {
	snap, err := s.client.Collection(connectionsCollection).Doc(ConnectionDocID(provider, externalUserID)).Get(ctx)
	if snap != nil && !snap.Exists() {
		return nil, domain.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read connection: %w", err)
	}

	var doc connectionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode connection: %w", err)
	}
	if !doc.IsActive {
		return nil, domain.ErrConnectionNotFound
	}
	return &domain.Connection{
		UserID:         doc.UserID,
		Provider:       domain.Provider(doc.Provider),
		ExternalUserID: doc.ExternalUserID,
		AccessToken:    doc.AccessToken,
		Wearable:       doc.Wearable,
		IsActive:       doc.IsActive,
		LastSyncDate:   doc.LastSyncDate,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

// UpsertConnection creates or re-activates a connection. Activating one
// deactivates the user's other connections to the same provider in the same
// transaction.
func (s *FirestoreStore) UpsertConnection(ctx context.Context, c domain.Connection) error {
	now := s.now().UTC()
	data := map[string]interface{}{
		"user_id":          c.UserID,
		"provider":         string(c.Provider),
		"external_user_id": c.ExternalUserID,
		"is_active":        c.IsActive,
		"updated_at":       now,
	}
	if c.AccessToken != "" {
		data["access_token"] = c.AccessToken
	}
	if c.Wearable != "" {
		data["wearable"] = c.Wearable
	}

	connections := s.client.Collection(connectionsCollection)
	ref := connections.Doc(ConnectionDocID(c.Provider, c.ExternalUserID))
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var siblings []*firestore.DocumentSnapshot
		if c.IsActive {
			active := connections.
				Where("user_id", "==", c.UserID).
				Where("provider", "==", string(c.Provider)).
				Where("is_active", "==", true)
			snaps, err := tx.Documents(active).GetAll()
			if err != nil {
				return err
			}
			siblings = snaps
		}

		// Transactions need every read before the first write.
		for _, snap := range siblings {
			if snap.Ref.ID == ref.ID {
				continue
			}
			err := tx.Update(snap.Ref, []firestore.Update{
				{Path: "is_active", Value: false},
				{Path: "updated_at", Value: now},
			})
			if err != nil {
				return err
			}
		}
		return tx.Set(ref, data, firestore.MergeAll)
	})
	if err != nil {
		return fmt.Errorf("%w: connection: %v", domain.ErrDatabaseWrite, err)
	}
	return nil
}

// DeactivateConnection marks a connection inactive
func (s *FirestoreStore) DeactivateConnection(ctx context.Context, provider domain.Provider, externalUserID string) error {
	ref := s.client.Collection(connectionsCollection).Doc(ConnectionDocID(provider, externalUserID))
	snap, err := ref.Get(ctx)
	if snap != nil && !snap.Exists() {
		return domain.ErrConnectionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read connection: %w", err)
	}

	_, err = ref.Update(ctx, []firestore.Update{
		{Path: "is_active", Value: false},
		{Path: "updated_at", Value: s.now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("%w: connection: %v", domain.ErrDatabaseWrite, err)
	}
	return nil
}

// TouchLastSync records the time of the latest successful ingestion
func (s *FirestoreStore) TouchLastSync(ctx context.Context, c domain.Connection, at time.Time) error {
	ref := s.client.Collection(connectionsCollection).Doc(ConnectionDocID(c.Provider, c.ExternalUserID))
	_, err := ref.Set(ctx, map[string]interface{}{
		"last_sync_date": at,
		"updated_at":     at,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("%w: last sync: %v", domain.ErrDatabaseWrite, err)
	}
	return nil
}

// Close releases the Firestore client
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
