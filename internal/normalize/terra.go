package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

// Terra event types.
const (
	TerraAuth          = "auth"
	TerraDeauth        = "deauth"
	TerraAccessRevoked = "access_revoked"
	TerraUserReauth    = "user_reauth"
	TerraActivity      = "activity"
	TerraBody          = "body"
	TerraDaily         = "daily"
	TerraSleep         = "sleep"
	TerraNutrition     = "nutrition"
	TerraAthlete       = "athlete"
)

// TerraUser identifies the aggregator user and the wearable behind it.
type TerraUser struct {
	UserID      string `json:"user_id"`
	Provider    string `json:"provider"`
	ReferenceID string `json:"reference_id"`
}

// TerraPayload is the aggregator webhook envelope. Data stays raw until the
// type discriminator picks a shape.
type TerraPayload struct {
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	User        *TerraUser      `json:"user"`
	OldUser     *TerraUser      `json:"old_user"`
	NewUser     *TerraUser      `json:"new_user"`
	ReferenceID string          `json:"reference_id"`
	Data        json.RawMessage `json:"data"`
}

// ParseTerraPayload decodes the envelope only.
func ParseTerraPayload(body []byte) (*TerraPayload, error) {
	var p TerraPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	if p.Type == "" {
		return nil, fmt.Errorf("%w: type is required", domain.ErrInvalidPayload)
	}
	return &p, nil
}

// ExternalUserID is the aggregator's id for the user this payload is about.
func (p *TerraPayload) ExternalUserID() string {
	if p.User != nil {
		return p.User.UserID
	}
	if p.NewUser != nil {
		return p.NewUser.UserID
	}
	return ""
}

// Source is the wearable brand behind the aggregator user.
func (p *TerraPayload) Source() domain.Source {
	if p.User != nil {
		return domain.NormalizeSource(p.User.Provider)
	}
	if p.NewUser != nil {
		return domain.NormalizeSource(p.NewUser.Provider)
	}
	return ""
}

// terraTime tolerates timestamps with or without a zone offset.
type terraTime struct {
	time.Time
}

var terraTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	domain.DateLayout,
}

func (t *terraTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	for _, layout := range terraTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// TerraMetadata is shared by every data item.
type TerraMetadata struct {
	StartTime *terraTime `json:"start_time"`
	EndTime   *terraTime `json:"end_time"`
	SummaryID string     `json:"summary_id"`
	Type      *int       `json:"type"`
	Name      string     `json:"name"`
}

// TerraHRSummary is the heart-rate summary block used by several shapes.
type TerraHRSummary struct {
	AvgHRBpm     *float64 `json:"avg_hr_bpm"`
	RestingHRBpm *float64 `json:"resting_hr_bpm"`
	MaxHRBpm     *float64 `json:"max_hr_bpm"`
	AvgHRVRmssd  *float64 `json:"avg_hrv_rmssd"`
}

// TerraHeartRateData wraps TerraHRSummary.
type TerraHeartRateData struct {
	Summary *TerraHRSummary `json:"summary"`
}

func (h *TerraHeartRateData) summary() *TerraHRSummary {
	if h == nil {
		return nil
	}
	return h.Summary
}

// TerraOxygenData carries saturation and VO2 max.
type TerraOxygenData struct {
	AvgSaturationPercentage *float64 `json:"avg_saturation_percentage"`
	Vo2MaxMlPerMinPerKg     *float64 `json:"vo2max_ml_per_min_per_kg"`
}

// TerraMeasurement is one body-composition reading.
type TerraMeasurement struct {
	MeasurementTime   *terraTime `json:"measurement_time"`
	WeightKg          *float64   `json:"weight_kg"`
	BodyfatPercentage *float64   `json:"bodyfat_percentage"`
	BMI               *float64   `json:"BMI"`
	MuscleMassG       *float64   `json:"muscle_mass_g"`
	BoneMassG         *float64   `json:"bone_mass_g"`
	WaterPercentage   *float64   `json:"water_percentage"`
	LeanMassG         *float64   `json:"lean_mass_g"`
}

// TerraGlucoseSample is a single blood glucose reading.
type TerraGlucoseSample struct {
	Timestamp           *terraTime `json:"timestamp"`
	BloodGlucoseMgPerDL *float64   `json:"blood_glucose_mg_per_dL"`
}

// TerraBPSample is a single blood pressure reading.
type TerraBPSample struct {
	Timestamp   *terraTime `json:"timestamp"`
	SystolicBP  *float64   `json:"systolic_bp"`
	DiastolicBP *float64   `json:"diastolic_bp"`
}

// TerraTemperatureSample is a single body temperature reading.
type TerraTemperatureSample struct {
	Timestamp          *terraTime `json:"timestamp"`
	TemperatureCelsius *float64   `json:"temperature_celsius"`
}

// TerraBodyItem is one element of a body payload.
type TerraBodyItem struct {
	Metadata         TerraMetadata `json:"metadata"`
	MeasurementsData *struct {
		Measurements []TerraMeasurement `json:"measurements"`
	} `json:"measurements_data"`
	HeartData *struct {
		HeartRateData *TerraHeartRateData `json:"heart_rate_data"`
	} `json:"heart_data"`
	GlucoseData *struct {
		BloodGlucoseSamples       []TerraGlucoseSample `json:"blood_glucose_samples"`
		DayAvgBloodGlucoseMgPerDL *float64             `json:"day_avg_blood_glucose_mg_per_dL"`
	} `json:"glucose_data"`
	BloodPressureData *struct {
		BloodPressureSamples []TerraBPSample `json:"blood_pressure_samples"`
	} `json:"blood_pressure_data"`
	OxygenData      *TerraOxygenData `json:"oxygen_data"`
	TemperatureData *struct {
		BodyTemperatureSamples []TerraTemperatureSample `json:"body_temperature_samples"`
	} `json:"temperature_data"`
}

// TerraDailyItem is one element of a daily payload.
type TerraDailyItem struct {
	Metadata     TerraMetadata `json:"metadata"`
	DistanceData *struct {
		Steps          *float64 `json:"steps"`
		DistanceMeters *float64 `json:"distance_meters"`
		FloorsClimbed  *float64 `json:"floors_climbed"`
	} `json:"distance_data"`
	CaloriesData *struct {
		TotalBurnedCalories *float64 `json:"total_burned_calories"`
		NetActivityCalories *float64 `json:"net_activity_calories"`
	} `json:"calories_data"`
	HeartRateData *TerraHeartRateData `json:"heart_rate_data"`
	StressData    *struct {
		AvgStressLevel *float64 `json:"avg_stress_level"`
	} `json:"stress_data"`
	Scores *struct {
		Recovery *float64 `json:"recovery"`
		Activity *float64 `json:"activity"`
		Sleep    *float64 `json:"sleep"`
	} `json:"scores"`
	OxygenData *TerraOxygenData `json:"oxygen_data"`
}

// TerraAsleep holds the per-stage sleep durations in seconds.
type TerraAsleep struct {
	DurationAsleepStateSeconds     *float64 `json:"duration_asleep_state_seconds"`
	DurationDeepSleepStateSeconds  *float64 `json:"duration_deep_sleep_state_seconds"`
	DurationREMSleepStateSeconds   *float64 `json:"duration_REM_sleep_state_seconds"`
	DurationLightSleepStateSeconds *float64 `json:"duration_light_sleep_state_seconds"`
}

// TerraSleepItem is one element of a sleep payload.
type TerraSleepItem struct {
	Metadata           TerraMetadata `json:"metadata"`
	SleepDurationsData *struct {
		Asleep *TerraAsleep `json:"asleep"`
		Awake  *struct {
			DurationAwakeStateSeconds *float64 `json:"duration_awake_state_seconds"`
		} `json:"awake"`
		Other *struct {
			DurationInBedSeconds *float64 `json:"duration_in_bed_seconds"`
		} `json:"other"`
		SleepEfficiency *float64 `json:"sleep_efficiency"`
	} `json:"sleep_durations_data"`
	HeartRateData   *TerraHeartRateData `json:"heart_rate_data"`
	RespirationData *struct {
		BreathsData *struct {
			AvgBreathsPerMin *float64 `json:"avg_breaths_per_min"`
		} `json:"breaths_data"`
	} `json:"respiration_data"`
	ReadinessData *struct {
		Readiness *float64 `json:"readiness"`
	} `json:"readiness_data"`
}

// TerraMacros is the daily macronutrient summary.
type TerraMacros struct {
	Calories       *float64 `json:"calories"`
	ProteinG       *float64 `json:"protein_g"`
	CarbohydratesG *float64 `json:"carbohydrates_g"`
	FatG           *float64 `json:"fat_g"`
}

// TerraNutritionItem is one element of a nutrition payload.
type TerraNutritionItem struct {
	Metadata TerraMetadata `json:"metadata"`
	Summary  *struct {
		Macros  *TerraMacros `json:"macros"`
		WaterML *float64     `json:"water_ml"`
	} `json:"summary"`
}

// TerraActivityItem is one element of an activity payload.
type TerraActivityItem struct {
	Metadata     TerraMetadata `json:"metadata"`
	CaloriesData *struct {
		TotalBurnedCalories *float64 `json:"total_burned_calories"`
	} `json:"calories_data"`
	DistanceData *struct {
		Summary *struct {
			DistanceMeters *float64 `json:"distance_meters"`
		} `json:"summary"`
	} `json:"distance_data"`
	HeartRateData *TerraHeartRateData `json:"heart_rate_data"`
	StrainData    *struct {
		StrainLevel *float64 `json:"strain_level"`
	} `json:"strain_data"`
}

// ItemError reports a data item that could not be decoded. Its siblings are
// still extracted.
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("data[%d]: %v", e.Index, e.Err)
}

// ExtractTerra maps a data-bearing payload into canonical records. Items that
// fail to decode are reported in the returned slice and skipped.
func ExtractTerra(p *TerraPayload) (domain.Batch, []ItemError) {
	return ExtractTerraAs(p, p.Source())
}

// ExtractTerraAs is ExtractTerra with the source given by the caller, for
// payloads that do not name their wearable.
func ExtractTerraAs(p *TerraPayload, source domain.Source) (domain.Batch, []ItemError) {
	var batch domain.Batch

	switch p.Type {
	case TerraBody:
		items, errs := decodeItems[TerraBodyItem](p.Data)
		for _, item := range items {
			batch.Metrics = append(batch.Metrics, extractBody(item, source)...)
		}
		return batch, errs
	case TerraDaily:
		items, errs := decodeItems[TerraDailyItem](p.Data)
		for _, item := range items {
			batch.Metrics = append(batch.Metrics, apply(item, dailyMappings, itemOrigin(source, item.Metadata, false))...)
		}
		return batch, errs
	case TerraSleep:
		items, errs := decodeItems[TerraSleepItem](p.Data)
		for _, item := range items {
			batch.Metrics = append(batch.Metrics, apply(item, sleepMappings, itemOrigin(source, item.Metadata, true))...)
		}
		return batch, errs
	case TerraNutrition:
		items, errs := decodeItems[TerraNutritionItem](p.Data)
		for _, item := range items {
			batch.Metrics = append(batch.Metrics, apply(item, nutritionMappings, itemOrigin(source, item.Metadata, false))...)
		}
		return batch, errs
	case TerraActivity:
		items, errs := decodeItems[TerraActivityItem](p.Data)
		for i, item := range items {
			w, ok := extractActivity(item, source)
			if !ok {
				errs = append(errs, ItemError{Index: i, Err: fmt.Errorf("activity has no start_time")})
				continue
			}
			batch.Workouts = append(batch.Workouts, w)
		}
		return batch, errs
	default:
		return batch, nil
	}
}

// decodeItems decodes data as an array (or a single object) item by item.
func decodeItems[T any](data json.RawMessage) ([]T, []ItemError) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		raws = []json.RawMessage{data}
	}

	var items []T
	var errs []ItemError
	for i, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			errs = append(errs, ItemError{Index: i, Err: err})
			continue
		}
		items = append(items, item)
	}
	return items, errs
}

// itemOrigin dates an item by its start time, or its end time for sleep so a
// night belongs to the day the user woke up.
func itemOrigin(source domain.Source, md TerraMetadata, useEnd bool) origin {
	ts := md.StartTime
	if useEnd && md.EndTime != nil && !md.EndTime.IsZero() {
		ts = md.EndTime
	}

	var date, key string
	if ts != nil && !ts.IsZero() {
		date = domain.DateOf(ts.Time)
		key = ts.Format(time.RFC3339)
	}
	if md.SummaryID != "" {
		key = md.SummaryID
	}
	return origin{
		source:  source,
		date:    date,
		idParts: []string{"terra", string(source), key},
	}
}

func extractBody(item TerraBodyItem, source domain.Source) []domain.MetricRecord {
	base := itemOrigin(source, item.Metadata, false)
	var records []domain.MetricRecord

	if item.MeasurementsData != nil {
		for _, m := range item.MeasurementsData.Measurements {
			o := base
			if m.MeasurementTime != nil && !m.MeasurementTime.IsZero() {
				o.date = domain.DateOf(m.MeasurementTime.Time)
				o.idParts = []string{"terra", string(source), m.MeasurementTime.Format(time.RFC3339)}
			}
			records = append(records, apply(m, measurementMappings, o)...)
		}
	}
	return append(records, apply(item, bodyMappings, base)...)
}

func extractActivity(item TerraActivityItem, source domain.Source) (domain.WorkoutRecord, bool) {
	md := item.Metadata
	if md.StartTime == nil || md.StartTime.IsZero() {
		return domain.WorkoutRecord{}, false
	}

	key := md.SummaryID
	if key == "" {
		key = md.StartTime.Format(time.RFC3339)
	}

	w := domain.WorkoutRecord{
		ExternalID:  ExternalID("terra", string(source), key),
		Source:      source,
		WorkoutType: TerraWorkoutType(md.Type),
		StartTime:   md.StartTime.Time,
		EndTime:     md.StartTime.Time,
	}
	if md.EndTime != nil && !md.EndTime.IsZero() {
		w.EndTime = md.EndTime.Time
		w.DurationMinutes = int(w.EndTime.Sub(w.StartTime).Minutes())
	}
	if item.CaloriesData != nil {
		w.Calories = item.CaloriesData.TotalBurnedCalories
	}
	if item.DistanceData != nil && item.DistanceData.Summary != nil {
		w.DistanceMeters = item.DistanceData.Summary.DistanceMeters
	}
	if s := item.HeartRateData.summary(); s != nil {
		w.AvgHeartRate = s.AvgHRBpm
		w.MaxHeartRate = s.MaxHRBpm
	}
	if item.StrainData != nil {
		w.Strain = item.StrainData.StrainLevel
	}
	return w, true
}
