package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

// MockSignatureValidator for testing
type MockSignatureValidator struct {
	Error error
	Calls int
}

func (m *MockSignatureValidator) Validate(payload []byte, headers domain.Headers) error {
	m.Calls++
	return m.Error
}

// MockLogger for testing
type MockLogger struct {
	mu        sync.Mutex
	ErrorLogs []string
	WarnLogs  []string
	InfoLogs  []string
	DebugLogs []string
}

func (m *MockLogger) Error(msg string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorLogs = append(m.ErrorLogs, msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarnLogs = append(m.WarnLogs, msg)
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoLogs = append(m.InfoLogs, msg)
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DebugLogs = append(m.DebugLogs, msg)
}

type connKey struct {
	provider domain.Provider
	extID    string
}

type metricKey struct {
	userID, metric, date string
	source               domain.Source
}

// MockStore is an upserting in-memory store that counts calls and can fail
// selected writes.
type MockStore struct {
	mu          sync.Mutex
	Metrics     map[metricKey]domain.MetricRecord
	Workouts    map[string]domain.WorkoutRecord
	Connections map[connKey]domain.Connection

	UpsertCalls  int
	FailMetric   map[string]bool
	FindError    error
	UpsertError  error
	TouchedUsers []string
}

func NewMockStore() *MockStore {
	return &MockStore{
		Metrics:     make(map[metricKey]domain.MetricRecord),
		Workouts:    make(map[string]domain.WorkoutRecord),
		Connections: make(map[connKey]domain.Connection),
		FailMetric:  make(map[string]bool),
	}
}

func (m *MockStore) UpsertMetric(ctx context.Context, r domain.MetricRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.FailMetric[r.MetricName] {
		return domain.ErrDatabaseWrite
	}
	m.Metrics[metricKey{r.UserID, r.MetricName, r.MeasurementDate, r.Source}] = r
	return nil
}

func (m *MockStore) UpsertWorkout(ctx context.Context, w domain.WorkoutRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	m.Workouts[w.UserID+"|"+w.ExternalID] = w
	return nil
}

func (m *MockStore) ListMetrics(ctx context.Context, q domain.MetricQuery) ([]domain.MetricRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool)
	for _, n := range q.MetricNames {
		wanted[n] = true
	}
	var out []domain.MetricRecord
	for _, r := range m.Metrics {
		if r.UserID != q.UserID {
			continue
		}
		if len(wanted) > 0 && !wanted[r.MetricName] {
			continue
		}
		if q.From != "" && r.MeasurementDate < q.From {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeasurementDate != out[j].MeasurementDate {
			return out[i].MeasurementDate > out[j].MeasurementDate
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].MetricName < out[j].MetricName
	})
	return out, nil
}

func (m *MockStore) FindActiveConnection(ctx context.Context, provider domain.Provider, extID string) (*domain.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindError != nil {
		return nil, m.FindError
	}
	c, ok := m.Connections[connKey{provider, extID}]
	if !ok || !c.IsActive {
		return nil, domain.ErrConnectionNotFound
	}
	return &c, nil
}

func (m *MockStore) UpsertConnection(ctx context.Context, c domain.Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertError != nil {
		return m.UpsertError
	}
	key := connKey{c.Provider, c.ExternalUserID}
	if c.IsActive {
		for k, other := range m.Connections {
			if k != key && other.UserID == c.UserID && other.Provider == c.Provider {
				other.IsActive = false
				m.Connections[k] = other
			}
		}
	}
	m.Connections[key] = c
	return nil
}

func (m *MockStore) DeactivateConnection(ctx context.Context, provider domain.Provider, extID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Connections[connKey{provider, extID}]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	c.IsActive = false
	m.Connections[connKey{provider, extID}] = c
	return nil
}

func (m *MockStore) TouchLastSync(ctx context.Context, c domain.Connection, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TouchedUsers = append(m.TouchedUsers, c.UserID)
	return nil
}

func (m *MockStore) Close() error { return nil }

func (m *MockStore) writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.UpsertCalls
}

// MockPublisher for testing
type MockPublisher struct {
	Events []domain.SyncEvent
	Error  error
}

func (m *MockPublisher) Publish(ctx context.Context, e domain.SyncEvent) error {
	m.Events = append(m.Events, e)
	return m.Error
}
