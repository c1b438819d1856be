package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
)

// MemoryStore implements domain.Store in process memory. Used for local runs
// and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	metrics     map[string]domain.MetricRecord
	workouts    map[string]domain.WorkoutRecord
	connections map[string]domain.Connection
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		metrics:     make(map[string]domain.MetricRecord),
		workouts:    make(map[string]domain.WorkoutRecord),
		connections: make(map[string]domain.Connection),
	}
}

func (s *MemoryStore) UpsertMetric(_ context.Context, r domain.MetricRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := MetricDocID(r)
	r.CreatedAt = createdAt(s.metrics[key].CreatedAt, r.UpdatedAt)
	s.metrics[key] = r
	return nil
}

func (s *MemoryStore) UpsertWorkout(_ context.Context, w domain.WorkoutRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := WorkoutDocID(w)
	w.CreatedAt = createdAt(s.workouts[key].CreatedAt, w.UpdatedAt)
	s.workouts[key] = w
	return nil
}

// createdAt keeps the first write's creation time.
func createdAt(existing, at time.Time) time.Time {
	if !existing.IsZero() {
		return existing
	}
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at
}

func (s *MemoryStore) ListMetrics(_ context.Context, q domain.MetricQuery) ([]domain.MetricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(q.MetricNames))
	for _, name := range q.MetricNames {
		wanted[name] = true
	}

	var out []domain.MetricRecord
	for _, r := range s.metrics {
		switch {
		case r.UserID != q.UserID,
			len(wanted) > 0 && !wanted[r.MetricName],
			q.Source != "" && r.Source != q.Source,
			q.From != "" && r.MeasurementDate < q.From,
			q.To != "" && r.MeasurementDate > q.To:
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

// Workouts returns a user's workouts ordered by start time.
func (s *MemoryStore) Workouts(userID string) []domain.WorkoutRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.WorkoutRecord
	for _, w := range s.workouts {
		if w.UserID == userID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (s *MemoryStore) FindActiveConnection(_ context.Context, provider domain.Provider, externalUserID string) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[ConnectionDocID(provider, externalUserID)]
	if !ok || !c.IsActive {
		return nil, domain.ErrConnectionNotFound
	}
	return &c, nil
}

// UpsertConnection writes c. Activating it deactivates the user's other
// connections to the same provider.
func (s *MemoryStore) UpsertConnection(_ context.Context, c domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ConnectionDocID(c.Provider, c.ExternalUserID)
	if existing, ok := s.connections[key]; ok {
		if c.AccessToken == "" {
			c.AccessToken = existing.AccessToken
		}
		if c.Wearable == "" {
			c.Wearable = existing.Wearable
		}
		c.LastSyncDate = existing.LastSyncDate
	}
	c.UpdatedAt = time.Now().UTC()
	if c.IsActive {
		for k, other := range s.connections {
			if k != key && other.IsActive && other.UserID == c.UserID && other.Provider == c.Provider {
				other.IsActive = false
				other.UpdatedAt = c.UpdatedAt
				s.connections[k] = other
			}
		}
	}
	s.connections[key] = c
	return nil
}

func (s *MemoryStore) DeactivateConnection(_ context.Context, provider domain.Provider, externalUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ConnectionDocID(provider, externalUserID)
	c, ok := s.connections[key]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	c.IsActive = false
	c.UpdatedAt = time.Now().UTC()
	s.connections[key] = c
	return nil
}

func (s *MemoryStore) TouchLastSync(_ context.Context, c domain.Connection, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ConnectionDocID(c.Provider, c.ExternalUserID)
	existing, ok := s.connections[key]
	if !ok {
		return domain.ErrConnectionNotFound
	}
	existing.LastSyncDate = &at
	existing.UpdatedAt = at
	s.connections[key] = existing
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
