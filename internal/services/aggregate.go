package services

import (
	"context"
	"fmt"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/reconcile"
)

// MaxWindowDays bounds a trailing day window so it stays within time.Duration.
const MaxWindowDays = 36500

// DaysWindow converts a day count into a trailing window. Zero means no window.
func DaysWindow(days int) (time.Duration, error) {
	if days < 0 || days > MaxWindowDays {
		return 0, fmt.Errorf("days must be between 0 and %d, got %d", MaxWindowDays, days)
	}
	return time.Duration(days) * 24 * time.Hour, nil
}

// History is a merged timeline plus one sparkline per requested metric.
type History struct {
	UserID     string                       `json:"user_id"`
	From       string                       `json:"from,omitempty"`
	Entries    []reconcile.TimelineEntry    `json:"entries"`
	Sparklines map[string][]reconcile.Point `json:"sparklines"`
}

// AggregationService answers read-side questions over stored records using
// the same source ranking ingestion stamps with.
type AggregationService struct {
	metrics domain.MetricStore
	now     func() time.Time
}

// NewAggregationService creates an aggregation service.
func NewAggregationService(metrics domain.MetricStore) *AggregationService {
	return &AggregationService{metrics: metrics, now: time.Now}
}

// Current returns the selected value per metric over the trailing window.
// A zero window reads everything.
func (s *AggregationService) Current(ctx context.Context, userID string, window time.Duration) (map[string]reconcile.Current, error) {
	records, err := s.metrics.ListMetrics(ctx, domain.MetricQuery{
		UserID: userID,
		From:   s.from(window),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	return reconcile.CurrentView(records), nil
}

// History merges the requested metrics over the trailing window and builds a
// sparkline of at most points samples for each.
func (s *AggregationService) History(
	ctx context.Context,
	userID string,
	metricNames []string,
	window time.Duration,
	points int,
) (*History, error) {
	from := s.from(window)
	records, err := s.metrics.ListMetrics(ctx, domain.MetricQuery{
		UserID:      userID,
		MetricNames: metricNames,
		From:        from,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}

	entries := reconcile.Merge(records)
	h := &History{
		UserID:     userID,
		From:       from,
		Entries:    entries,
		Sparklines: make(map[string][]reconcile.Point, len(metricNames)),
	}
	for _, name := range metricNames {
		h.Sparklines[name] = reconcile.Sparkline(entries, name, points)
	}
	return h, nil
}

func (s *AggregationService) from(window time.Duration) string {
	if window <= 0 {
		return ""
	}
	return domain.DateOf(s.now().UTC().Add(-window))
}
