package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes are the handlers the local server mounts.
type Routes struct {
	Terra        http.Handler
	Whoop        http.Handler
	Query        *QueryHandler
	MetricsToken string
}

// NewRouter builds the server mux. Cloud Functions mount the webhook
// handlers directly.
func NewRouter(routes Routes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/webhooks/terra", routes.Terra)
	mux.Handle("/webhooks/whoop", routes.Whoop)
	if routes.Query != nil {
		mux.HandleFunc("GET /users/{user_id}/metrics/current", routes.Query.Current)
		mux.HandleFunc("GET /users/{user_id}/metrics/history", routes.Query.History)
	}
	mux.Handle("/metrics", MetricsAuthMiddleware(routes.MetricsToken, promhttp.Handler()))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// MetricsAuthMiddleware requires "Authorization: Bearer <token>" when a
// token is configured.
func MetricsAuthMiddleware(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
