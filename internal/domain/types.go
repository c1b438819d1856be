// Package domain contains domain models and interfaces following SOLID principles
package domain

import (
	"context"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for measurement dates.
const DateLayout = "2006-01-02"

// Source identifies the device or provider that produced a reading.
type Source string

const (
	SourceInBody   Source = "INBODY"
	SourceWithings Source = "WITHINGS"
	SourceGarmin   Source = "GARMIN"
	SourceOura     Source = "OURA"
	SourceWhoop    Source = "WHOOP"
	SourceManual   Source = "MANUAL"
)

// NormalizeSource upper-cases and trims a provider name.
func NormalizeSource(s string) Source {
	return Source(strings.ToUpper(strings.TrimSpace(s)))
}

// Provider identifies the integration a webhook arrives through.
type Provider string

const (
	ProviderTerra Provider = "TERRA"
	ProviderWhoop Provider = "WHOOP"
)

// Category is the coarse grouping of a metric.
type Category string

const (
	CategoryRecovery        Category = "recovery"
	CategorySleep           Category = "sleep"
	CategoryActivity        Category = "activity"
	CategoryBodyComposition Category = "body_composition"
	CategoryHealth          Category = "health"
	CategoryNutrition       Category = "nutrition"
)

// MetricRecord is the canonical representation of one
// (user, metric, date, source) health fact.
type MetricRecord struct {
	UserID          string    `json:"user_id"`
	MetricName      string    `json:"metric_name"`
	Value           float64   `json:"value"`
	Unit            string    `json:"unit"`
	Category        Category  `json:"metric_category"`
	Source          Source    `json:"source"`
	MeasurementDate string    `json:"measurement_date"`
	ExternalID      string    `json:"external_id"`
	Priority        int       `json:"priority"`
	ConfidenceScore int       `json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WorkoutRecord is a discrete exercise session.
type WorkoutRecord struct {
	UserID          string    `json:"user_id"`
	ExternalID      string    `json:"external_id"`
	Source          Source    `json:"source"`
	WorkoutType     string    `json:"workout_type"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Calories        *float64  `json:"calories,omitempty"`
	AvgHeartRate    *float64  `json:"avg_heart_rate,omitempty"`
	MaxHeartRate    *float64  `json:"max_heart_rate,omitempty"`
	Strain          *float64  `json:"strain,omitempty"`
	DistanceMeters  *float64  `json:"distance_meters,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Connection records that an internal user authorized an external provider.
type Connection struct {
	UserID         string     `json:"user_id"`
	Provider       Provider   `json:"provider"`
	ExternalUserID string     `json:"external_user_id"`
	AccessToken    string     `json:"-"`
	Wearable       string     `json:"wearable,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastSyncDate   *time.Time `json:"last_sync_date,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Batch is everything extracted from a single webhook delivery.
type Batch struct {
	Metrics  []MetricRecord
	Workouts []WorkoutRecord
}

// Len returns the number of records in the batch.
func (b Batch) Len() int {
	return len(b.Metrics) + len(b.Workouts)
}

// MetricQuery filters stored metric records. Zero values mean "no filter";
// From and To are inclusive YYYY-MM-DD dates.
type MetricQuery struct {
	UserID      string
	MetricNames []string
	Source      Source
	From        string
	To          string
}

// SyncEvent summarizes one ingestion for the live activity feed.
type SyncEvent struct {
	UserID    string
	Provider  Provider
	EventType string
	Written   int
	Failed    int
}

// MetricStore persists canonical records with upsert-on-conflict semantics
// (Dependency Inversion Principle)
type MetricStore interface {
	UpsertMetric(ctx context.Context, record MetricRecord) error
	UpsertWorkout(ctx context.Context, workout WorkoutRecord) error
	ListMetrics(ctx context.Context, q MetricQuery) ([]MetricRecord, error)
}

// ConnectionStore is the only bridge from external to internal user ids.
type ConnectionStore interface {
	FindActiveConnection(ctx context.Context, provider Provider, externalUserID string) (*Connection, error)
	UpsertConnection(ctx context.Context, conn Connection) error
	DeactivateConnection(ctx context.Context, provider Provider, externalUserID string) error
	TouchLastSync(ctx context.Context, conn Connection, at time.Time) error
}

// Store bundles both persistence contracts.
type Store interface {
	MetricStore
	ConnectionStore
	Close() error
}

// SyncPublisher receives best-effort ingestion summaries.
type SyncPublisher interface {
	Publish(ctx context.Context, event SyncEvent) error
}

// SignatureValidator interface (Dependency Inversion Principle)
// Separates validation logic from transport layer
type SignatureValidator interface {
	Validate(payload []byte, headers Headers) error
}

// Logger interface (Dependency Inversion Principle)
// Allows swapping logging implementations
type Logger interface {
	Error(msg string, err error)
	Warn(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// WebhookProcessor interface (Dependency Inversion Principle)
// Main business logic abstraction
type WebhookProcessor interface {
	Process(ctx context.Context, payload []byte, headers Headers) error
}

// Headers carries the request headers a processor needs to authenticate a
// delivery without depending on net/http.
type Headers map[string]string

// Get returns the header value, or "" if absent.
func (h Headers) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[key]
}

// DateOf formats t as a calendar date in t's own location, so a reading keeps
// the local day the device reported it for.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}
