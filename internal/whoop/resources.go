package whoop

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// ScoreState reports whether WHOOP has finished scoring a resource.
type ScoreState string

const (
	ScoreStateScored       ScoreState = "SCORED"
	ScoreStatePendingScore ScoreState = "PENDING_SCORE"
	ScoreStateUnscorable   ScoreState = "UNSCORABLE"
)

// Sleep is a single sleep activity.
type Sleep struct {
	ID             string      `json:"id"`
	CycleID        int64       `json:"cycle_id"`
	UserID         int64       `json:"user_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Start          time.Time   `json:"start"`
	End            time.Time   `json:"end"`
	TimezoneOffset string      `json:"timezone_offset"`
	Nap            bool        `json:"nap"`
	ScoreState     ScoreState  `json:"score_state"`
	Score          *SleepScore `json:"score,omitempty"`
}

// SleepScore holds the scored sleep metrics. Any field may be absent.
type SleepScore struct {
	StageSummary               *StageSummary `json:"stage_summary,omitempty"`
	RespiratoryRate            *float64      `json:"respiratory_rate,omitempty"`
	SleepPerformancePercentage *float64      `json:"sleep_performance_percentage,omitempty"`
	SleepConsistencyPercentage *float64      `json:"sleep_consistency_percentage,omitempty"`
	SleepEfficiencyPercentage  *float64      `json:"sleep_efficiency_percentage,omitempty"`
}

// StageSummary breaks a sleep down by stage, in milliseconds.
type StageSummary struct {
	TotalInBedTimeMilli         *float64 `json:"total_in_bed_time_milli,omitempty"`
	TotalAwakeTimeMilli         *float64 `json:"total_awake_time_milli,omitempty"`
	TotalLightSleepTimeMilli    *float64 `json:"total_light_sleep_time_milli,omitempty"`
	TotalSlowWaveSleepTimeMilli *float64 `json:"total_slow_wave_sleep_time_milli,omitempty"`
	TotalRemSleepTimeMilli      *float64 `json:"total_rem_sleep_time_milli,omitempty"`
	SleepCycleCount             *float64 `json:"sleep_cycle_count,omitempty"`
	DisturbanceCount            *float64 `json:"disturbance_count,omitempty"`
}

// Recovery is the recovery score WHOOP computes for a cycle.
type Recovery struct {
	CycleID    int64          `json:"cycle_id"`
	SleepID    string         `json:"sleep_id"`
	UserID     int64          `json:"user_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	ScoreState ScoreState     `json:"score_state"`
	Score      *RecoveryScore `json:"score,omitempty"`
}

// RecoveryScore holds the scored recovery metrics.
type RecoveryScore struct {
	UserCalibrating  bool     `json:"user_calibrating"`
	RecoveryScore    *float64 `json:"recovery_score,omitempty"`
	RestingHeartRate *float64 `json:"resting_heart_rate,omitempty"`
	HrvRmssdMilli    *float64 `json:"hrv_rmssd_milli,omitempty"`
	Spo2Percentage   *float64 `json:"spo2_percentage,omitempty"`
	SkinTempCelsius  *float64 `json:"skin_temp_celsius,omitempty"`
}

// Cycle is a physiological day, from waking to the next waking.
type Cycle struct {
	ID             int64       `json:"id"`
	UserID         int64       `json:"user_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Start          time.Time   `json:"start"`
	End            *time.Time  `json:"end,omitempty"`
	TimezoneOffset string      `json:"timezone_offset"`
	ScoreState     ScoreState  `json:"score_state"`
	Score          *CycleScore `json:"score,omitempty"`
}

// CycleScore summarizes strain within a cycle.
type CycleScore struct {
	Strain           *float64 `json:"strain,omitempty"`
	Kilojoule        *float64 `json:"kilojoule,omitempty"`
	AverageHeartRate *float64 `json:"average_heart_rate,omitempty"`
	MaxHeartRate     *float64 `json:"max_heart_rate,omitempty"`
}

// Workout is a tracked workout session.
type Workout struct {
	ID             string        `json:"id"`
	UserID         int64         `json:"user_id"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	TimezoneOffset string        `json:"timezone_offset"`
	SportID        *int          `json:"sport_id,omitempty"`
	SportName      string        `json:"sport_name,omitempty"`
	ScoreState     ScoreState    `json:"score_state"`
	Score          *WorkoutScore `json:"score,omitempty"`
}

// WorkoutScore details the cardiovascular output of a workout.
type WorkoutScore struct {
	Strain            *float64 `json:"strain,omitempty"`
	AverageHeartRate  *float64 `json:"average_heart_rate,omitempty"`
	MaxHeartRate      *float64 `json:"max_heart_rate,omitempty"`
	Kilojoule         *float64 `json:"kilojoule,omitempty"`
	PercentRecorded   *float64 `json:"percent_recorded,omitempty"`
	DistanceMeter     *float64 `json:"distance_meter,omitempty"`
	AltitudeGainMeter *float64 `json:"altitude_gain_meter,omitempty"`
}

// GetSleep fetches a single sleep by id.
func (c *Client) GetSleep(ctx context.Context, id string) (*Sleep, error) {
	var item Sleep
	if err := c.get(ctx, "/v2/activity/sleep/"+url.PathEscape(id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetCycle fetches a single cycle by id.
func (c *Client) GetCycle(ctx context.Context, id int64) (*Cycle, error) {
	var item Cycle
	if err := c.get(ctx, fmt.Sprintf("/v2/cycle/%d", id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetCycleRecovery fetches the recovery for a cycle.
func (c *Client) GetCycleRecovery(ctx context.Context, cycleID int64) (*Recovery, error) {
	var item Recovery
	if err := c.get(ctx, fmt.Sprintf("/v2/cycle/%d/recovery", cycleID), &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetRecoveryForSleep resolves a recovery from the sleep id a recovery
// notification carries: the sleep names its cycle, the cycle owns the recovery.
func (c *Client) GetRecoveryForSleep(ctx context.Context, sleepID string) (*Recovery, error) {
	sleep, err := c.GetSleep(ctx, sleepID)
	if err != nil {
		return nil, fmt.Errorf("fetch sleep %s for recovery: %w", sleepID, err)
	}
	return c.GetCycleRecovery(ctx, sleep.CycleID)
}

// GetWorkout fetches a single workout by id.
func (c *Client) GetWorkout(ctx context.Context, id string) (*Workout, error) {
	var item Workout
	if err := c.get(ctx, "/v2/activity/workout/"+url.PathEscape(id), &item); err != nil {
		return nil, err
	}
	return &item, nil
}
