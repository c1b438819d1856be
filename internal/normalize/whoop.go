package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/whoop"
)

var whoopSleepMappings = []FieldMapping[whoop.SleepScore]{
	{MetricName: "Sleep Duration", Unit: "h", Category: domain.CategorySleep, Transform: millisToHours,
		Value: func(s whoop.SleepScore) *float64 {
			if s.StageSummary == nil {
				return nil
			}
			st := s.StageSummary
			return sum(st.TotalLightSleepTimeMilli, st.TotalSlowWaveSleepTimeMilli, st.TotalRemSleepTimeMilli)
		}},
	{MetricName: "Sleep Performance", Unit: "%", Category: domain.CategorySleep,
		Value: func(s whoop.SleepScore) *float64 { return s.SleepPerformancePercentage }},
	{MetricName: "Sleep Efficiency", Unit: "%", Category: domain.CategorySleep,
		Value: func(s whoop.SleepScore) *float64 { return s.SleepEfficiencyPercentage }},
	{MetricName: "Sleep Consistency", Unit: "%", Category: domain.CategorySleep,
		Value: func(s whoop.SleepScore) *float64 { return s.SleepConsistencyPercentage }},
	{MetricName: "Respiratory Rate", Unit: "rpm", Category: domain.CategorySleep,
		Value: func(s whoop.SleepScore) *float64 { return s.RespiratoryRate }},
	{MetricName: "Light Sleep", Unit: "h", Category: domain.CategorySleep, Transform: millisToHours,
		Value: func(s whoop.SleepScore) *float64 {
			if s.StageSummary == nil {
				return nil
			}
			return s.StageSummary.TotalLightSleepTimeMilli
		}},
	{MetricName: "Deep Sleep", Unit: "h", Category: domain.CategorySleep, Transform: millisToHours,
		Value: func(s whoop.SleepScore) *float64 {
			if s.StageSummary == nil {
				return nil
			}
			return s.StageSummary.TotalSlowWaveSleepTimeMilli
		}},
	{MetricName: "REM Sleep", Unit: "h", Category: domain.CategorySleep, Transform: millisToHours,
		Value: func(s whoop.SleepScore) *float64 {
			if s.StageSummary == nil {
				return nil
			}
			return s.StageSummary.TotalRemSleepTimeMilli
		}},
	{MetricName: "Awake Time", Unit: "h", Category: domain.CategorySleep, Transform: millisToHours,
		Value: func(s whoop.SleepScore) *float64 {
			if s.StageSummary == nil {
				return nil
			}
			return s.StageSummary.TotalAwakeTimeMilli
		}},
}

var whoopRecoveryMappings = []FieldMapping[whoop.RecoveryScore]{
	{MetricName: "Recovery Score", Unit: "%", Category: domain.CategoryRecovery,
		Value: func(r whoop.RecoveryScore) *float64 { return r.RecoveryScore }},
	{MetricName: "Resting Heart Rate", Unit: "bpm", Category: domain.CategoryRecovery,
		Value: func(r whoop.RecoveryScore) *float64 { return r.RestingHeartRate }},
	{MetricName: "HRV", Unit: "ms", Category: domain.CategoryRecovery,
		Value: func(r whoop.RecoveryScore) *float64 { return r.HrvRmssdMilli }},
	{MetricName: "SpO2", Unit: "%", Category: domain.CategoryHealth,
		Value: func(r whoop.RecoveryScore) *float64 { return r.Spo2Percentage }},
	{MetricName: "Skin Temperature", Unit: "°C", Category: domain.CategoryHealth,
		Value: func(r whoop.RecoveryScore) *float64 { return r.SkinTempCelsius }},
}

var whoopCycleMappings = []FieldMapping[whoop.CycleScore]{
	{MetricName: "Day Strain", Unit: "strain", Category: domain.CategoryActivity,
		Value: func(c whoop.CycleScore) *float64 { return c.Strain }},
	{MetricName: "Calories Burned", Unit: "kcal", Category: domain.CategoryActivity, Transform: kilojoulesToKcal,
		Value: func(c whoop.CycleScore) *float64 { return c.Kilojoule }},
	{MetricName: "Average Heart Rate", Unit: "bpm", Category: domain.CategoryActivity,
		Value: func(c whoop.CycleScore) *float64 { return c.AverageHeartRate }},
	{MetricName: "Max Heart Rate", Unit: "bpm", Category: domain.CategoryActivity,
		Value: func(c whoop.CycleScore) *float64 { return c.MaxHeartRate }},
}

// WhoopSleep maps a scored, non-nap sleep. The night is dated by its local
// wake-up day.
func WhoopSleep(s *whoop.Sleep) []domain.MetricRecord {
	if s == nil || s.Nap || s.ScoreState != whoop.ScoreStateScored || s.Score == nil {
		return nil
	}
	o := origin{
		source:  domain.SourceWhoop,
		date:    localDate(s.End, s.TimezoneOffset),
		idParts: []string{"whoop", "sleep", s.ID},
	}
	return apply(*s.Score, whoopSleepMappings, o)
}

// WhoopRecovery maps a scored recovery, dated by when WHOOP created it.
func WhoopRecovery(r *whoop.Recovery) []domain.MetricRecord {
	if r == nil || r.ScoreState != whoop.ScoreStateScored || r.Score == nil {
		return nil
	}
	o := origin{
		source:  domain.SourceWhoop,
		date:    localDate(r.CreatedAt, ""),
		idParts: []string{"whoop", "recovery", strconv.FormatInt(r.CycleID, 10)},
	}
	return apply(*r.Score, whoopRecoveryMappings, o)
}

// WhoopCycle maps a scored cycle, dated by its local start day.
func WhoopCycle(c *whoop.Cycle) []domain.MetricRecord {
	if c == nil || c.ScoreState != whoop.ScoreStateScored || c.Score == nil {
		return nil
	}
	o := origin{
		source:  domain.SourceWhoop,
		date:    localDate(c.Start, c.TimezoneOffset),
		idParts: []string{"whoop", "cycle", strconv.FormatInt(c.ID, 10)},
	}
	return apply(*c.Score, whoopCycleMappings, o)
}

// WhoopWorkout maps a scored workout. The second return is false when the
// workout is not scored yet.
func WhoopWorkout(w *whoop.Workout) (domain.WorkoutRecord, bool) {
	if w == nil || w.ScoreState != whoop.ScoreStateScored || w.Score == nil {
		return domain.WorkoutRecord{}, false
	}

	rec := domain.WorkoutRecord{
		ExternalID:      ExternalID("whoop", "workout", w.ID),
		Source:          domain.SourceWhoop,
		WorkoutType:     WhoopWorkoutType(w.SportID, w.SportName),
		StartTime:       w.Start,
		EndTime:         w.End,
		DurationMinutes: int(w.End.Sub(w.Start).Minutes()),
		AvgHeartRate:    w.Score.AverageHeartRate,
		MaxHeartRate:    w.Score.MaxHeartRate,
		Strain:          w.Score.Strain,
		DistanceMeters:  w.Score.DistanceMeter,
	}
	if w.Score.Kilojoule != nil {
		kcal := kilojoulesToKcal(*w.Score.Kilojoule)
		rec.Calories = &kcal
	}
	return rec, true
}

// localDate formats t in the zone given by a WHOOP offset such as "-05:00".
// An empty or unparsable offset falls back to UTC.
func localDate(t time.Time, offset string) string {
	if t.IsZero() {
		return ""
	}
	loc, err := parseOffset(offset)
	if err != nil {
		loc = time.UTC
	}
	return domain.DateOf(t.In(loc))
}

func parseOffset(offset string) (*time.Location, error) {
	if offset == "" || offset == "Z" {
		return time.UTC, nil
	}
	if len(offset) != 6 || (offset[0] != '+' && offset[0] != '-') || offset[3] != ':' {
		return nil, fmt.Errorf("invalid offset %q", offset)
	}
	hours, err := strconv.Atoi(offset[1:3])
	if err != nil {
		return nil, err
	}
	minutes, err := strconv.Atoi(offset[4:])
	if err != nil {
		return nil, err
	}
	secs := hours*3600 + minutes*60
	if strings.HasPrefix(offset, "-") {
		secs = -secs
	}
	return time.FixedZone(offset, secs), nil
}
