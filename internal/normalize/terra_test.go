package normalize

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

func findMetric(records []domain.MetricRecord, name string) (domain.MetricRecord, bool) {
	for _, r := range records {
		if r.MetricName == name {
			return r, true
		}
	}
	return domain.MetricRecord{}, false
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

const terraBodyPayload = `{
  "type": "body",
  "user": {"user_id": "terra-user-1", "provider": "withings", "reference_id": "user-42"},
  "data": [{
    "metadata": {"start_time": "2024-01-10T07:00:00.000000+00:00", "end_time": "2024-01-10T07:05:00+00:00"},
    "measurements_data": {"measurements": [{
      "measurement_time": "2024-01-10T07:01:00+00:00",
      "weight_kg": 70.2,
      "bodyfat_percentage": 18.5,
      "muscle_mass_g": 32000,
      "bone_mass_g": null
    }]},
    "glucose_data": {"day_avg_blood_glucose_mg_per_dL": 92},
    "blood_pressure_data": {"blood_pressure_samples": [
      {"timestamp": "2024-01-10T07:02:00+00:00", "systolic_bp": 118, "diastolic_bp": 76},
      {"timestamp": "2024-01-10T07:03:00+00:00", "systolic_bp": 130, "diastolic_bp": 85}
    ]}
  }]
}`

func TestParseTerraPayload(t *testing.T) {
	p, err := ParseTerraPayload([]byte(terraBodyPayload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Type != TerraBody {
		t.Errorf("Expected type body, got %s", p.Type)
	}
	if p.ExternalUserID() != "terra-user-1" {
		t.Errorf("Expected terra-user-1, got %s", p.ExternalUserID())
	}
	if p.Source() != domain.SourceWithings {
		t.Errorf("Expected WITHINGS, got %s", p.Source())
	}
}

func TestParseTerraPayloadRejectsGarbage(t *testing.T) {
	tests := []string{`not json`, `{"data": []}`}
	for _, body := range tests {
		_, err := ParseTerraPayload([]byte(body))
		if !errors.Is(err, domain.ErrInvalidPayload) {
			t.Errorf("%s: expected ErrInvalidPayload, got %v", body, err)
		}
	}
}

func TestExtractTerraBody(t *testing.T) {
	p, err := ParseTerraPayload([]byte(terraBodyPayload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	batch, itemErrs := ExtractTerra(p)

	if len(itemErrs) != 0 {
		t.Fatalf("Expected no item errors, got %v", itemErrs)
	}
	if len(batch.Workouts) != 0 {
		t.Errorf("Expected no workouts, got %d", len(batch.Workouts))
	}

	weight, ok := findMetric(batch.Metrics, "Weight")
	if !ok {
		t.Fatal("Expected Weight record")
	}
	if weight.Value != 70.2 || weight.Unit != "kg" || weight.MeasurementDate != "2024-01-10" {
		t.Errorf("Unexpected weight record: %+v", weight)
	}
	if weight.Source != domain.SourceWithings || weight.Category != domain.CategoryBodyComposition {
		t.Errorf("Unexpected weight source/category: %s/%s", weight.Source, weight.Category)
	}
	if weight.ExternalID != "terra:WITHINGS:2024-01-10T07:01:00Z:weight" {
		t.Errorf("Unexpected external id %s", weight.ExternalID)
	}

	muscle, ok := findMetric(batch.Metrics, "Muscle Mass")
	if !ok || !almostEqual(muscle.Value, 32) {
		t.Errorf("Expected Muscle Mass 32 kg, got %+v", muscle)
	}
	if _, ok := findMetric(batch.Metrics, "Bone Mass"); ok {
		t.Error("Expected null bone mass to be skipped")
	}
	if _, ok := findMetric(batch.Metrics, "BMI"); ok {
		t.Error("Expected absent BMI to be skipped")
	}

	sys, ok := findMetric(batch.Metrics, "Systolic Blood Pressure")
	if !ok || sys.Value != 118 {
		t.Errorf("Expected first systolic sample 118, got %+v", sys)
	}
	glucose, ok := findMetric(batch.Metrics, "Blood Glucose")
	if !ok || glucose.Value != 92 || glucose.Unit != "mg/dL" {
		t.Errorf("Expected glucose 92 mg/dL, got %+v", glucose)
	}
}

func TestExtractTerraSleepDatedByEndTime(t *testing.T) {
	body := `{
	  "type": "sleep",
	  "user": {"user_id": "u1", "provider": "OURA"},
	  "data": [{
	    "metadata": {"start_time": "2024-01-09T23:10:00+00:00", "end_time": "2024-01-10T07:00:00+00:00", "summary_id": "s-1"},
	    "sleep_durations_data": {
	      "asleep": {"duration_asleep_state_seconds": 27000, "duration_REM_sleep_state_seconds": 5400},
	      "sleep_efficiency": 0.91
	    },
	    "respiration_data": {"breaths_data": {"avg_breaths_per_min": 14.2}}
	  }]
	}`
	p, err := ParseTerraPayload([]byte(body))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	batch, _ := ExtractTerra(p)

	duration, ok := findMetric(batch.Metrics, "Sleep Duration")
	if !ok {
		t.Fatal("Expected Sleep Duration record")
	}
	if duration.Value != 7.5 || duration.Unit != "h" {
		t.Errorf("Expected 7.5 h, got %v %s", duration.Value, duration.Unit)
	}
	if duration.MeasurementDate != "2024-01-10" {
		t.Errorf("Expected sleep dated by end time, got %s", duration.MeasurementDate)
	}
	if duration.ExternalID != "terra:OURA:s-1:sleep_duration" {
		t.Errorf("Unexpected external id %s", duration.ExternalID)
	}

	rem, _ := findMetric(batch.Metrics, "REM Sleep")
	if rem.Value != 1.5 {
		t.Errorf("Expected 1.5 h REM, got %v", rem.Value)
	}
	eff, _ := findMetric(batch.Metrics, "Sleep Efficiency")
	if !almostEqual(eff.Value, 91) {
		t.Errorf("Expected efficiency 91%%, got %v", eff.Value)
	}
	if _, ok := findMetric(batch.Metrics, "Deep Sleep"); ok {
		t.Error("Expected absent deep sleep to be skipped")
	}
}

func TestExtractTerraSkipsBadItems(t *testing.T) {
	body := `{
	  "type": "daily",
	  "user": {"user_id": "u1", "provider": "garmin"},
	  "data": [
	    {"metadata": {"start_time": "2024-01-10T00:00:00+00:00"}, "distance_data": {"steps": 8000, "distance_meters": 6200}},
	    {"metadata": {"start_time": 12}},
	    {"metadata": {}, "distance_data": {"steps": 100}}
	  ]
	}`
	p, err := ParseTerraPayload([]byte(body))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	batch, itemErrs := ExtractTerra(p)

	if len(itemErrs) != 1 || itemErrs[0].Index != 1 {
		t.Errorf("Expected one error for item 1, got %v", itemErrs)
	}
	if len(batch.Metrics) != 2 {
		t.Fatalf("Expected steps and distance from the first item only, got %d records", len(batch.Metrics))
	}
	distance, _ := findMetric(batch.Metrics, "Distance")
	if !almostEqual(distance.Value, 6.2) || distance.Unit != "km" {
		t.Errorf("Expected 6.2 km, got %v %s", distance.Value, distance.Unit)
	}
	if batch.Metrics[0].Source != domain.SourceGarmin {
		t.Errorf("Expected GARMIN, got %s", batch.Metrics[0].Source)
	}
}

func TestExtractTerraActivity(t *testing.T) {
	body := `{
	  "type": "activity",
	  "user": {"user_id": "u1", "provider": "GARMIN"},
	  "data": [
	    {
	      "metadata": {"start_time": "2024-01-10T06:00:00Z", "end_time": "2024-01-10T06:45:00Z", "summary_id": "act-9", "type": 8},
	      "calories_data": {"total_burned_calories": 512},
	      "distance_data": {"summary": {"distance_meters": 8000}},
	      "heart_rate_data": {"summary": {"avg_hr_bpm": 151, "max_hr_bpm": 178}}
	    },
	    {"metadata": {"start_time": "2024-01-11T06:00:00Z", "type": 999}}
	  ]
	}`
	p, err := ParseTerraPayload([]byte(body))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	batch, itemErrs := ExtractTerra(p)

	if len(itemErrs) != 0 {
		t.Fatalf("Expected no item errors, got %v", itemErrs)
	}
	if len(batch.Workouts) != 2 {
		t.Fatalf("Expected 2 workouts, got %d", len(batch.Workouts))
	}
	run := batch.Workouts[0]
	if run.WorkoutType != "Running" || run.DurationMinutes != 45 {
		t.Errorf("Unexpected workout: %+v", run)
	}
	if run.ExternalID != "terra:GARMIN:act-9" {
		t.Errorf("Unexpected external id %s", run.ExternalID)
	}
	if run.Calories == nil || *run.Calories != 512 || run.MaxHeartRate == nil || *run.MaxHeartRate != 178 {
		t.Errorf("Expected calories and heart rate to carry over: %+v", run)
	}
	if run.Strain != nil {
		t.Errorf("Expected nil strain, got %v", *run.Strain)
	}
	if batch.Workouts[1].WorkoutType != FallbackWorkoutType {
		t.Errorf("Expected fallback type, got %s", batch.Workouts[1].WorkoutType)
	}
}

func TestExtractTerraIsDeterministic(t *testing.T) {
	p, err := ParseTerraPayload([]byte(terraBodyPayload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	first, _ := ExtractTerra(p)
	second, _ := ExtractTerra(p)

	if len(first.Metrics) != len(second.Metrics) {
		t.Fatalf("Expected same record count, got %d and %d", len(first.Metrics), len(second.Metrics))
	}
	for i := range first.Metrics {
		if first.Metrics[i] != second.Metrics[i] {
			t.Errorf("record %d differs: %+v vs %+v", i, first.Metrics[i], second.Metrics[i])
		}
	}
}

func TestExtractTerraIgnoresLifecycleTypes(t *testing.T) {
	for _, typ := range []string{TerraAuth, TerraDeauth, TerraAthlete} {
		p := &TerraPayload{Type: typ, Data: []byte(`[{"metadata":{"start_time":"2024-01-10T00:00:00Z"}}]`)}
		batch, errs := ExtractTerra(p)
		if batch.Len() != 0 || len(errs) != 0 {
			t.Errorf("%s: expected no records, got %d", typ, batch.Len())
		}
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Body Fat %":      "body_fat",
		"HRV":             "hrv",
		"VO2 Max":         "vo2_max",
		"Sleep Duration":  "sleep_duration",
		" Body Water % ":  "body_water",
		"Calories Burned": "calories_burned",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractTerraAsUsesGivenSource(t *testing.T) {
	p, err := ParseTerraPayload([]byte(`{
  "type": "body",
  "user": {"user_id": "terra-user-1"},
  "data": [{"metadata": {"start_time": "2024-01-10T07:00:00+00:00"},
    "measurements_data": {"measurements": [{"weight_kg": 70}]}}]
}`))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if p.Source() != "" {
		t.Fatalf("Expected no source on payload, got %q", p.Source())
	}

	batch, _ := ExtractTerraAs(p, domain.SourceWithings)

	if len(batch.Metrics) == 0 {
		t.Fatal("Expected metrics")
	}
	for _, m := range batch.Metrics {
		if m.Source != domain.SourceWithings {
			t.Errorf("Expected WITHINGS source, got %q", m.Source)
		}
		if strings.Contains(m.ExternalID, "::") {
			t.Errorf("Expected source in external id, got %q", m.ExternalID)
		}
	}
}
