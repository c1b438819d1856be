package services

import (
	"context"
	"testing"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

func seed(store *MockStore, date string, source domain.Source, metric string, value float64) {
	store.Metrics[metricKey{"user-42", metric, date, source}] = domain.MetricRecord{
		UserID:          "user-42",
		MetricName:      metric,
		Value:           value,
		Unit:            "u",
		Source:          source,
		MeasurementDate: date,
	}
}

func newAggregationFixture() (*AggregationService, *MockStore) {
	store := NewMockStore()
	service := NewAggregationService(store)
	service.now = func() time.Time { return time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC) }
	return service, store
}

func TestAggregationCurrentPrefersTrustedSource(t *testing.T) {
	// Arrange
	service, store := newAggregationFixture()
	seed(store, "2024-01-10", domain.SourceWithings, "Weight", 70)
	seed(store, "2024-01-20", domain.SourceGarmin, "Weight", 71)
	seed(store, "2024-01-25", domain.SourceWhoop, "HRV", 55)
	seed(store, "2024-01-28", domain.SourceWhoop, "HRV", 60)

	// Act
	view, err := service.Current(context.Background(), "user-42", 0)

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if w := view["Weight"]; w.Source != domain.SourceWithings || w.Value != 70 {
		t.Errorf("Expected older WITHINGS weight to win, got %+v", w)
	}
	if h := view["HRV"]; h.Value != 60 || h.Date != "2024-01-28" {
		t.Errorf("Expected newest WHOOP HRV, got %+v", h)
	}
}

func TestAggregationCurrentWindow(t *testing.T) {
	service, store := newAggregationFixture()
	seed(store, "2023-12-01", domain.SourceInBody, "Weight", 69)
	seed(store, "2024-01-20", domain.SourceGarmin, "Weight", 71)

	view, err := service.Current(context.Background(), "user-42", 30*24*time.Hour)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if w := view["Weight"]; w.Source != domain.SourceGarmin {
		t.Errorf("Expected readings outside the window to be ignored, got %+v", w)
	}
}

func TestAggregationHistory(t *testing.T) {
	// Arrange
	service, store := newAggregationFixture()
	seed(store, "2024-01-10", domain.SourceWithings, "Weight", 70)
	seed(store, "2024-01-10", domain.SourceWithings, "Body Fat %", 18)
	seed(store, "2024-01-12", domain.SourceWithings, "Weight", 69.5)
	seed(store, "2024-01-12", domain.SourceGarmin, "Steps", 9000)

	// Act
	h, err := service.History(context.Background(), "user-42", []string{"Weight", "Body Fat %"}, 90*24*time.Hour, 5)

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(h.Entries) != 2 {
		t.Fatalf("Expected 2 timeline entries, got %d", len(h.Entries))
	}
	if h.Entries[0].Date != "2024-01-12" {
		t.Errorf("Expected newest entry first, got %s", h.Entries[0].Date)
	}
	if _, ok := h.Entries[0].Values["Steps"]; ok {
		t.Error("Expected unrequested metrics to be filtered out")
	}
	weight := h.Sparklines["Weight"]
	if len(weight) != 2 || weight[0].Value != 70 || weight[1].Value != 69.5 {
		t.Errorf("Expected oldest-to-newest weight sparkline, got %+v", weight)
	}
	if h.From != "2023-11-02" {
		t.Errorf("Expected window start 2023-11-02, got %s", h.From)
	}
}

func TestDaysWindow(t *testing.T) {
	tests := []struct {
		days    int
		want    time.Duration
		wantErr bool
	}{
		{0, 0, false},
		{7, 7 * 24 * time.Hour, false},
		{MaxWindowDays, MaxWindowDays * 24 * time.Hour, false},
		{MaxWindowDays + 1, 0, true},
		{106752, 0, true},
		{-1, 0, true},
	}

	for _, tt := range tests {
		got, err := DaysWindow(tt.days)
		if (err != nil) != tt.wantErr {
			t.Errorf("DaysWindow(%d) error = %v, wantErr %v", tt.days, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("DaysWindow(%d) = %s, want %s", tt.days, got, tt.want)
		}
		if got < 0 {
			t.Errorf("DaysWindow(%d) returned a negative window", tt.days)
		}
	}
}
