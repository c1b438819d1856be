package whoop

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newMockServer serves literal WHOOP v2 payloads for the routes the client uses.
func newMockServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/v2/activity/sleep/ecfc6a15-4661-442f-a9a4-f160dd7afae8", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("expected bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "ecfc6a15-4661-442f-a9a4-f160dd7afae8",
			"cycle_id": 93845,
			"user_id": 10129,
			"start": "2024-01-09T22:30:00.000Z",
			"end": "2024-01-10T06:30:00.000Z",
			"timezone_offset": "-05:00",
			"nap": false,
			"score_state": "SCORED",
			"score": {
				"stage_summary": {
					"total_in_bed_time_milli": 28800000,
					"total_awake_time_milli": 1800000,
					"total_light_sleep_time_milli": 14400000,
					"total_slow_wave_sleep_time_milli": 5400000,
					"total_rem_sleep_time_milli": 7200000
				},
				"sleep_performance_percentage": 98,
				"sleep_efficiency_percentage": 91.7,
				"sleep_consistency_percentage": 90
			}
		}`))
	})

	mux.HandleFunc("/v2/cycle/93845/recovery", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"cycle_id": 93845,
			"sleep_id": "ecfc6a15-4661-442f-a9a4-f160dd7afae8",
			"user_id": 10129,
			"created_at": "2024-01-10T11:25:44.774Z",
			"score_state": "SCORED",
			"score": {
				"user_calibrating": false,
				"recovery_score": 44,
				"resting_heart_rate": 64,
				"hrv_rmssd_milli": 31.813562,
				"spo2_percentage": 95.6875,
				"skin_temp_celsius": 33.7
			}
		}`))
	})

	mux.HandleFunc("/v2/activity/workout/expired", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"token expired"}`))
	})

	mux.HandleFunc("/v2/cycle/429", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	server := newMockServer(t)
	return NewClient(
		WithBaseURL(server.URL),
		WithRateLimiting(false),
		WithMaxRetries(1),
		WithBackoff(time.Millisecond, 2*time.Millisecond),
	).WithToken("user-token")
}
