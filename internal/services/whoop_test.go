package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/whoop"
)

// MockFetcher serves canned WHOOP resources and records calls.
type MockFetcher struct {
	Token    string
	Sleep    *whoop.Sleep
	Recovery *whoop.Recovery
	Cycle    *whoop.Cycle
	Workout  *whoop.Workout
	Error    error
	Block    bool
	Calls    []string
}

func (m *MockFetcher) wait(ctx context.Context) error {
	if !m.Block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *MockFetcher) GetSleep(ctx context.Context, id string) (*whoop.Sleep, error) {
	m.Calls = append(m.Calls, "sleep:"+id)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.Sleep, m.Error
}

func (m *MockFetcher) GetRecoveryForSleep(ctx context.Context, sleepID string) (*whoop.Recovery, error) {
	m.Calls = append(m.Calls, "recovery:"+sleepID)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.Recovery, m.Error
}

func (m *MockFetcher) GetCycle(ctx context.Context, id int64) (*whoop.Cycle, error) {
	m.Calls = append(m.Calls, "cycle")
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.Cycle, m.Error
}

func (m *MockFetcher) GetWorkout(ctx context.Context, id string) (*whoop.Workout, error) {
	m.Calls = append(m.Calls, "workout:"+id)
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	return m.Workout, m.Error
}

func f64(v float64) *float64 {
	return &v
}

func newWhoopFixture(fetcher *MockFetcher, timeout time.Duration) (*WhoopService, *MockStore, *MockLogger) {
	store := NewMockStore()
	store.Connections[connKey{domain.ProviderWhoop, "10129"}] = domain.Connection{
		UserID:         "user-42",
		Provider:       domain.ProviderWhoop,
		ExternalUserID: "10129",
		AccessToken:    "access-token",
		IsActive:       true,
	}
	logger := &MockLogger{}
	factory := func(token string) WhoopFetcher {
		fetcher.Token = token
		return fetcher
	}
	ingestor := NewIngestor(store, store, nil, logger)
	service := NewWhoopService(domain.NoopVerifier{}, store, factory, ingestor, logger, timeout)
	return service, store, logger
}

func TestWhoopServiceRecoveryUpdated(t *testing.T) {
	// Arrange
	fetcher := &MockFetcher{Recovery: &whoop.Recovery{
		CycleID:    93845,
		CreatedAt:  time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC),
		ScoreState: whoop.ScoreStateScored,
		Score:      &whoop.RecoveryScore{RecoveryScore: f64(44), HrvRmssdMilli: f64(31.8)},
	}}
	service, store, _ := newWhoopFixture(fetcher, time.Second)
	body := []byte(`{"user_id":10129,"id":"ecfc6a15-4661-442f-a9a4-f160dd7afae8","type":"recovery.updated","trace_id":"t-1"}`)

	// Act
	err := service.Process(context.Background(), body, nil)

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetcher.Token != "access-token" {
		t.Errorf("Expected fetcher scoped to connection token, got %q", fetcher.Token)
	}
	if len(fetcher.Calls) != 1 || fetcher.Calls[0] != "recovery:ecfc6a15-4661-442f-a9a4-f160dd7afae8" {
		t.Errorf("Unexpected calls %v", fetcher.Calls)
	}
	score, ok := store.Metrics[metricKey{"user-42", "Recovery Score", "2024-01-10", domain.SourceWhoop}]
	if !ok || score.Value != 44 {
		t.Fatalf("Expected recovery score 44, got %+v", score)
	}
	if score.Priority != 5 || score.ConfidenceScore != 70 {
		t.Errorf("Expected WHOOP priority 5 / confidence 70, got %d / %d", score.Priority, score.ConfidenceScore)
	}
}

func TestWhoopServiceWorkoutUpdated(t *testing.T) {
	fetcher := &MockFetcher{Workout: &whoop.Workout{
		ID:         "w-1",
		Start:      time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC),
		ScoreState: whoop.ScoreStateScored,
		Score:      &whoop.WorkoutScore{Strain: f64(9.1)},
	}}
	service, store, _ := newWhoopFixture(fetcher, time.Second)
	body := []byte(`{"user_id":10129,"data":{"id":"w-1"},"type":"workout.updated"}`)

	if err := service.Process(context.Background(), body, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	w, ok := store.Workouts["user-42|whoop:workout:w-1"]
	if !ok {
		t.Fatalf("Expected workout to be stored, got %v", store.Workouts)
	}
	if w.DurationMinutes != 60 {
		t.Errorf("Expected 60 minutes, got %d", w.DurationMinutes)
	}
}

func TestWhoopServiceIgnoresDeletedAndUnknown(t *testing.T) {
	for _, typ := range []string{"sleep.deleted", "workout.deleted", "body.updated", "recovery.created"} {
		fetcher := &MockFetcher{}
		service, store, _ := newWhoopFixture(fetcher, time.Second)
		body := []byte(`{"user_id":10129,"id":"x","type":"` + typ + `"}`)

		if err := service.Process(context.Background(), body, nil); err != nil {
			t.Errorf("%s: expected no error, got %v", typ, err)
		}
		if len(fetcher.Calls) != 0 || store.writes() != 0 {
			t.Errorf("%s: expected no fetches or writes, got %v / %d", typ, fetcher.Calls, store.writes())
		}
	}
}

func TestWhoopServiceUnresolvedUser(t *testing.T) {
	fetcher := &MockFetcher{}
	service, store, logger := newWhoopFixture(fetcher, time.Second)
	body := []byte(`{"user_id":99999,"id":"s-1","type":"sleep.updated"}`)

	if err := service.Process(context.Background(), body, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(fetcher.Calls) != 0 || store.writes() != 0 {
		t.Errorf("Expected no fetches or writes, got %v / %d", fetcher.Calls, store.writes())
	}
	if len(logger.WarnLogs) == 0 {
		t.Error("Expected a warning for the unresolved user")
	}
}

func TestWhoopServiceFetchTimeoutIsSwallowed(t *testing.T) {
	// Arrange
	fetcher := &MockFetcher{Block: true}
	service, store, logger := newWhoopFixture(fetcher, 20*time.Millisecond)
	body := []byte(`{"user_id":10129,"id":"s-1","type":"sleep.updated"}`)

	// Act
	start := time.Now()
	err := service.Process(context.Background(), body, nil)

	// Assert
	if err != nil {
		t.Fatalf("Expected timeout to be acknowledged, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Expected bounded fetch, took %s", elapsed)
	}
	if store.writes() != 0 {
		t.Errorf("Expected no writes, got %d", store.writes())
	}
	if len(logger.ErrorLogs) == 0 {
		t.Error("Expected the fetch failure to be logged")
	}
}

func TestWhoopServiceAuthErrorIsSwallowed(t *testing.T) {
	fetcher := &MockFetcher{Error: &whoop.AuthError{StatusCode: 401, Err: errors.New("expired")}}
	service, store, logger := newWhoopFixture(fetcher, time.Second)
	body := []byte(`{"user_id":10129,"id":"s-1","type":"sleep.updated"}`)

	if err := service.Process(context.Background(), body, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if store.writes() != 0 {
		t.Errorf("Expected no writes, got %d", store.writes())
	}
	if len(logger.WarnLogs) == 0 {
		t.Error("Expected a token warning")
	}
}

func TestWhoopServiceInvalidCycleID(t *testing.T) {
	fetcher := &MockFetcher{}
	service, _, logger := newWhoopFixture(fetcher, time.Second)
	body := []byte(`{"user_id":10129,"id":"not-a-number","type":"cycle.updated"}`)

	if err := service.Process(context.Background(), body, nil); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(fetcher.Calls) != 0 {
		t.Errorf("Expected no fetch for an invalid id, got %v", fetcher.Calls)
	}
	if len(logger.ErrorLogs) == 0 {
		t.Error("Expected the invalid id to be logged")
	}
}

func TestWhoopServiceSignatureFailure(t *testing.T) {
	fetcher := &MockFetcher{}
	service, store, _ := newWhoopFixture(fetcher, time.Second)
	service.validator = domain.NewWhoopVerifier("client-secret", 0)
	body := []byte(`{"user_id":10129,"id":"s-1","type":"sleep.updated"}`)

	err := service.Process(context.Background(), body, domain.Headers{
		domain.HeaderWhoopSignature: "bm90LWEtc2lnbmF0dXJl",
		domain.HeaderWhoopTimestamp: "1700000000000",
	})

	if !domain.IsAuthError(err) {
		t.Errorf("Expected auth error, got %v", err)
	}
	if len(fetcher.Calls) != 0 || store.writes() != 0 {
		t.Errorf("Expected no side effects, got %v / %d", fetcher.Calls, store.writes())
	}
}

func TestWhoopServiceInvalidJSON(t *testing.T) {
	service, _, _ := newWhoopFixture(&MockFetcher{}, time.Second)

	err := service.Process(context.Background(), []byte("{"), nil)

	if !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("Expected ErrInvalidPayload, got %v", err)
	}
}
