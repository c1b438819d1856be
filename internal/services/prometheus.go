package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	promWebhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wellness_webhooks_received_total",
		Help: "The total number of authenticated webhook deliveries",
	}, []string{"provider", "type"})

	promSignatureFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wellness_signature_failures_total",
		Help: "The total number of deliveries rejected by signature verification",
	}, []string{"provider"})

	promUnresolvedUsers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wellness_unresolved_users_total",
		Help: "The total number of deliveries whose external user has no active connection",
	}, []string{"provider"})

	promRecordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wellness_records_written_total",
		Help: "The total number of records upserted",
	}, []string{"provider", "kind"})

	promRecordsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wellness_records_failed_total",
		Help: "The total number of records whose upsert failed",
	}, []string{"provider", "kind"})

	promFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wellness_provider_fetch_duration_seconds",
		Help:    "Latency of follow-up resource fetches against provider APIs",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "outcome"})
)

const (
	kindMetric  = "metric"
	kindWorkout = "workout"
)
