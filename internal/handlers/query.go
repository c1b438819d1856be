package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/reconcile"
	"github.com/josejalvarezm/wellness-webhook-receiver/internal/services"
)

const (
	defaultHistoryDays   = 90
	defaultHistoryPoints = 30
)

// MetricsReader is the read side the query endpoints depend on.
type MetricsReader interface {
	Current(ctx context.Context, userID string, window time.Duration) (map[string]reconcile.Current, error)
	History(ctx context.Context, userID string, metricNames []string, window time.Duration, points int) (*services.History, error)
}

// QueryHandler serves reconciled metric reads.
type QueryHandler struct {
	reader MetricsReader
	logger domain.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(reader MetricsReader, logger domain.Logger) *QueryHandler {
	return &QueryHandler{reader: reader, logger: logger}
}

// Current handles GET /users/{user_id}/metrics/current[?days=N].
// Without days every stored reading is considered.
func (h *QueryHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")
	window, err := windowParam(r, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	view, err := h.reader.Current(r.Context(), userID, window)
	if err != nil {
		h.logger.Error("failed to read current metrics", err)
		http.Error(w, "Failed to read metrics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{
		"user_id": userID,
		"metrics": view,
	})
}

// History handles GET /users/{user_id}/metrics/history?metric=A&metric=B&days=90&points=30.
// metric may also be a comma separated list.
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	var names []string
	for _, v := range r.URL.Query()["metric"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		http.Error(w, "at least one metric is required", http.StatusBadRequest)
		return
	}

	window, err := windowParam(r, defaultHistoryDays)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	points, err := intParam(r, "points", defaultHistoryPoints)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	history, err := h.reader.History(r.Context(), userID, names, window, points)
	if err != nil {
		h.logger.Error("failed to read metric history", err)
		http.Error(w, "Failed to read metrics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, history)
}

func intParam(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &paramError{key: key, value: raw}
	}
	return n, nil
}

// windowParam reads days as a trailing window, rejecting values too large to
// represent.
func windowParam(r *http.Request, def int) (time.Duration, error) {
	days, err := intParam(r, "days", def)
	if err != nil {
		return 0, err
	}
	return services.DaysWindow(days)
}

type paramError struct {
	key   string
	value string
}

func (e *paramError) Error() string {
	return "invalid " + e.key + ": " + strconv.Quote(e.value)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
