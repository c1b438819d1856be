package reconcile

import (
	"testing"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

func TestResolvePriorityAndConfidence(t *testing.T) {
	tests := []struct {
		source         domain.Source
		wantPriority   int
		wantConfidence int
	}{
		{domain.SourceInBody, 1, 95},
		{domain.SourceWithings, 2, 85},
		{domain.SourceGarmin, 3, 75},
		{domain.SourceOura, 4, 75},
		{domain.SourceWhoop, 5, 70},
		{domain.SourceManual, 6, 50},
		{"withings", 2, 85},
		{"FITBIT", UnknownPriority, DefaultConfidence},
		{"", UnknownPriority, DefaultConfidence},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			if got := ResolvePriority(tt.source); got != tt.wantPriority {
				t.Errorf("ResolvePriority(%q) = %d, want %d", tt.source, got, tt.wantPriority)
			}
			if got := ResolveConfidence(tt.source); got != tt.wantConfidence {
				t.Errorf("ResolveConfidence(%q) = %d, want %d", tt.source, got, tt.wantConfidence)
			}
		})
	}
}

func TestSelectPriorityBeatsRecency(t *testing.T) {
	got, ok := Select([]Candidate{
		{Value: 70, Unit: "kg", Source: domain.SourceWithings, Date: "2024-01-10"},
		{Value: 71, Unit: "kg", Source: domain.SourceInBody, Date: "2024-01-01"},
	})

	if !ok {
		t.Fatal("expected a selection")
	}
	if got.Value != 71 || got.Source != domain.SourceInBody {
		t.Errorf("got %v from %s, want 71 from INBODY", got.Value, got.Source)
	}
	if got.Confidence != 95 {
		t.Errorf("Confidence = %d, want 95", got.Confidence)
	}
}

func TestSelectRecencyWithinSamePriority(t *testing.T) {
	got, ok := Select([]Candidate{
		{Value: 70, Source: domain.SourceWithings, Date: "2024-01-01"},
		{Value: 69, Source: domain.SourceWithings, Date: "2024-01-10"},
	})

	if !ok {
		t.Fatal("expected a selection")
	}
	if got.Value != 69 {
		t.Errorf("Value = %v, want 69", got.Value)
	}
	if got.Date != "2024-01-10" {
		t.Errorf("Date = %s, want 2024-01-10", got.Date)
	}
}

func TestSelectUnknownSourceSortsLast(t *testing.T) {
	got, _ := Select([]Candidate{
		{Value: 1, Source: "FITBIT", Date: "2024-02-01"},
		{Value: 2, Source: domain.SourceManual, Date: "2023-01-01"},
	})
	if got.Source != domain.SourceManual {
		t.Errorf("Source = %s, want MANUAL", got.Source)
	}
}

func TestSelectEmpty(t *testing.T) {
	if _, ok := Select(nil); ok {
		t.Error("expected no selection for empty input")
	}
}

func TestSelectDoesNotReorderInput(t *testing.T) {
	in := []Candidate{
		{Value: 70, Source: domain.SourceWithings, Date: "2024-01-10"},
		{Value: 71, Source: domain.SourceInBody, Date: "2024-01-01"},
	}
	Select(in)
	if in[0].Source != domain.SourceWithings {
		t.Error("Select must not mutate its input")
	}
}

func TestCurrentView(t *testing.T) {
	records := []domain.MetricRecord{
		{MetricName: "Weight", Value: 70, Unit: "kg", Source: domain.SourceWithings, MeasurementDate: "2024-01-10"},
		{MetricName: "Weight", Value: 71, Unit: "kg", Source: domain.SourceInBody, MeasurementDate: "2024-01-01"},
		{MetricName: "Body Fat %", Value: 18, Unit: "%", Source: domain.SourceGarmin, MeasurementDate: "2024-01-05"},
	}

	view := CurrentView(records)

	if len(view) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(view))
	}
	if w := view["Weight"]; w.Value != 71 || w.MetricName != "Weight" {
		t.Errorf("Weight = %+v, want 71 from INBODY", w)
	}
	if bf := view["Body Fat %"]; bf.Source != domain.SourceGarmin || bf.Priority != 3 {
		t.Errorf("Body Fat = %+v, want GARMIN priority 3", bf)
	}
}

func TestStamp(t *testing.T) {
	r := domain.MetricRecord{Source: domain.SourceWhoop}
	Stamp(&r)
	if r.Priority != 5 || r.ConfidenceScore != 70 {
		t.Errorf("Stamp gave priority %d confidence %d", r.Priority, r.ConfidenceScore)
	}
}
