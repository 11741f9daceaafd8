// Package metrics holds the Prometheus collectors shared by the service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream catalog calls
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehub_upstream_requests_total",
			Help: "Total number of upstream catalog requests",
		},
		[]string{"source", "operation", "result"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animehub_upstream_request_duration_seconds",
			Help:    "Upstream catalog request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"source", "operation"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animehub_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehub_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// HTTP API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animehub_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animehub_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	// Hydration and snapshots
	HydrateDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "animehub_hydrate_dropped_total",
			Help: "Ids dropped during hydration because no source had them",
		},
	)

	SnapshotsUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "animehub_snapshots_upserted_total",
			Help: "Catalog snapshot rows written",
		},
	)

	SyncClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "animehub_sync_clients",
			Help: "Connected activity feed clients",
		},
	)
)

// ObserveUpstream records one upstream call outcome.
func ObserveUpstream(source, operation, result string, start time.Time) {
	UpstreamRequests.WithLabelValues(source, operation, result).Inc()
	UpstreamDuration.WithLabelValues(source, operation).Observe(time.Since(start).Seconds())
}
