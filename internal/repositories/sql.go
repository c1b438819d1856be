package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

// HealthMetric is the SQL row for a canonical metric record.
type HealthMetric struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          string    `gorm:"not null;uniqueIndex:idx_metric_key,priority:1"`
	MetricName      string    `gorm:"not null;uniqueIndex:idx_metric_key,priority:2"`
	MeasurementDate string    `gorm:"not null;uniqueIndex:idx_metric_key,priority:3;index"`
	Source          string    `gorm:"not null;uniqueIndex:idx_metric_key,priority:4"`
	Value           float64   `gorm:"not null"`
	Unit            string    `gorm:"not null"`
	MetricCategory  string    `gorm:"not null"`
	ExternalID      string    `gorm:"index"`
	Priority        int       `gorm:"not null"`
	ConfidenceScore int       `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// Workout is the SQL row for a workout record.
type Workout struct {
	ID              uint   `gorm:"primaryKey"`
	UserID          string `gorm:"not null;uniqueIndex:idx_workout_key,priority:1"`
	ExternalID      string `gorm:"not null;uniqueIndex:idx_workout_key,priority:2"`
	Source          string `gorm:"not null"`
	WorkoutType     string `gorm:"not null"`
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Calories        *float64
	AvgHeartRate    *float64
	MaxHeartRate    *float64
	Strain          *float64
	DistanceMeters  *float64
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// ProviderConnection is the SQL row for a provider connection.
type ProviderConnection struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         string `gorm:"not null;index:idx_user_provider,priority:1"`
	Provider       string `gorm:"not null;uniqueIndex:idx_provider_external,priority:1;index:idx_user_provider,priority:2"`
	ExternalUserID string `gorm:"not null;uniqueIndex:idx_provider_external,priority:2"`
	AccessToken    string
	Wearable       string
	IsActive       bool `gorm:"not null"`
	LastSyncDate   *time.Time
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// SQLStore implements domain.Store on GORM. Every write is a single
// INSERT ... ON CONFLICT DO UPDATE on the record's natural key.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore connects to Postgres or SQLite and migrates the schema.
func OpenSQLStore(driver, dsn string) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return NewSQLStore(db)
}

// NewSQLStore wraps an open connection and migrates the schema.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&HealthMetric{}, &Workout{}, &ProviderConnection{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// UpsertMetric inserts or updates on (user, metric, date, source)
func (s *SQLStore) UpsertMetric(ctx context.Context, r domain.MetricRecord) error {
	row := HealthMetric{
		UserID:          r.UserID,
		MetricName:      r.MetricName,
		MeasurementDate: r.MeasurementDate,
		Source:          string(r.Source),
		Value:           r.Value,
		Unit:            r.Unit,
		MetricCategory:  string(r.Category),
		ExternalID:      r.ExternalID,
		Priority:        r.Priority,
		ConfidenceScore: r.ConfidenceScore,
		UpdatedAt:       r.UpdatedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "metric_name"},
			{Name: "measurement_date"},
			{Name: "source"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"value",
			"unit",
			"metric_category",
			"external_id",
			"priority",
			"confidence_score",
			"updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: metric %s: %v", domain.ErrDatabaseWrite, r.MetricName, err)
	}
	return nil
}

// UpsertWorkout inserts or updates on (user, external id)
func (s *SQLStore) UpsertWorkout(ctx context.Context, w domain.WorkoutRecord) error {
	row := Workout{
		UserID:          w.UserID,
		ExternalID:      w.ExternalID,
		Source:          string(w.Source),
		WorkoutType:     w.WorkoutType,
		StartTime:       w.StartTime,
		EndTime:         w.EndTime,
		DurationMinutes: w.DurationMinutes,
		Calories:        w.Calories,
		AvgHeartRate:    w.AvgHeartRate,
		MaxHeartRate:    w.MaxHeartRate,
		Strain:          w.Strain,
		DistanceMeters:  w.DistanceMeters,
		UpdatedAt:       w.UpdatedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"source",
			"workout_type",
			"start_time",
			"end_time",
			"duration_minutes",
			"calories",
			"avg_heart_rate",
			"max_heart_rate",
			"strain",
			"distance_meters",
			"updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: workout %s: %v", domain.ErrDatabaseWrite, w.ExternalID, err)
	}
	return nil
}

// ListMetrics returns a user's metrics, newest date first
func (s *SQLStore) ListMetrics(ctx context.Context, q domain.MetricQuery) ([]domain.MetricRecord, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", q.UserID)
	if len(q.MetricNames) > 0 {
		tx = tx.Where("metric_name IN ?", q.MetricNames)
	}
	if q.Source != "" {
		tx = tx.Where("source = ?", string(q.Source))
	}
	if q.From != "" {
		tx = tx.Where("measurement_date >= ?", q.From)
	}
	if q.To != "" {
		tx = tx.Where("measurement_date <= ?", q.To)
	}

	var rows []HealthMetric
	if err := tx.Order("measurement_date DESC").Order("source").Order("metric_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}

	records := make([]domain.MetricRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.MetricRecord{
			UserID:          row.UserID,
			MetricName:      row.MetricName,
			Value:           row.Value,
			Unit:            row.Unit,
			Category:        domain.Category(row.MetricCategory),
			Source:          domain.Source(row.Source),
			MeasurementDate: row.MeasurementDate,
			ExternalID:      row.ExternalID,
			Priority:        row.Priority,
			ConfidenceScore: row.ConfidenceScore,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		})
	}
	return records, nil
}

// FindActiveConnection resolves an external user to an active connection
func (s *SQLStore) FindActiveConnection(ctx context.Context, provider domain.Provider, externalUserID string) (*domain.Connection, error) {
	var row ProviderConnection
	err := s.db.WithContext(ctx).
		Where("provider = ? AND external_user_id = ? AND is_active = ?", string(provider), externalUserID, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read connection: %w", err)
	}
	return &domain.Connection{
		UserID:         row.UserID,
		Provider:       domain.Provider(row.Provider),
		ExternalUserID: row.ExternalUserID,
		AccessToken:    row.AccessToken,
		Wearable:       row.Wearable,
		IsActive:       row.IsActive,
		LastSyncDate:   row.LastSyncDate,
		UpdatedAt:      row.UpdatedAt,
	}, nil
}

// UpsertConnection creates or re-activates a connection. Activating one
// deactivates the user's other connections to the same provider in the same
// transaction.
func (s *SQLStore) UpsertConnection(ctx context.Context, c domain.Connection) error {
	row := ProviderConnection{
		UserID:         c.UserID,
		Provider:       string(c.Provider),
		ExternalUserID: c.ExternalUserID,
		AccessToken:    c.AccessToken,
		Wearable:       c.Wearable,
		IsActive:       c.IsActive,
	}
	updates := []string{"user_id", "is_active", "updated_at"}
	if c.AccessToken != "" {
		updates = append(updates, "access_token")
	}
	if c.Wearable != "" {
		updates = append(updates, "wearable")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.IsActive {
			err := tx.Model(&ProviderConnection{}).
				Where("user_id = ? AND provider = ? AND external_user_id <> ? AND is_active = ?",
					c.UserID, string(c.Provider), c.ExternalUserID, true).
				Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()}).Error
			if err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns(updates),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("%w: connection: %v", domain.ErrDatabaseWrite, err)
	}
	return nil
}

// DeactivateConnection marks a connection inactive
func (s *SQLStore) DeactivateConnection(ctx context.Context, provider domain.Provider, externalUserID string) error {
	res := s.db.WithContext(ctx).Model(&ProviderConnection{}).
		Where("provider = ? AND external_user_id = ?", string(provider), externalUserID).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("%w: connection: %v", domain.ErrDatabaseWrite, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrConnectionNotFound
	}
	return nil
}

// TouchLastSync records the time of the latest successful ingestion
func (s *SQLStore) TouchLastSync(ctx context.Context, c domain.Connection, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&ProviderConnection{}).
		Where("provider = ? AND external_user_id = ?", string(c.Provider), c.ExternalUserID).
		Updates(map[string]interface{}{"last_sync_date": at, "updated_at": at}).Error
	if err != nil {
		return fmt.Errorf("%w: last sync: %v", domain.ErrDatabaseWrite, err)
	}
	return nil
}

// Close releases the underlying connection pool
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
