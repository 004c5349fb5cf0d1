// Package metrics holds the process wide prometheus collectors
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trendflow"

var (
	// HTTP

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of api requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of api requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Sources

	SourceRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "requests_total",
			Help:      "Outbound requests to content sources by outcome",
		},
		[]string{"source", "outcome"},
	)

	SourceItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "items_total",
			Help:      "Items (stories, articles, feed entries) fetched per source",
		},
		[]string{"source"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "circuit_breaker_state",
			Help:      "Breaker state per source (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)

	// Collector

	CollectorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "runs_total",
			Help:      "Collection runs by outcome",
		},
		[]string{"outcome"},
	)

	CollectorObservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "observations_total",
			Help:      "Keyword observations written per platform",
		},
		[]string{"platform"},
	)

	CollectorDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "run_duration_seconds",
			Help:      "Duration of one collection run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	CollectorLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that stored observations",
		},
	)

	// Trends

	TrendTrainings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trends",
			Name:      "trainings_total",
			Help:      "Training attempts by outcome (trained, insufficient, error)",
		},
		[]string{"outcome"},
	)

	TrendModelAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trends",
			Name:      "model_accuracy",
			Help:      "Held out accuracy of the most recently trained model",
		},
	)

	TrendSignals = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trends",
			Name:      "velocity_signals",
			Help:      "Number of terms over the velocity threshold per detection",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		},
	)

	ModelCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trends",
			Name:      "model_cache_total",
			Help:      "Model cache lookups by layer and result",
		},
		[]string{"layer", "result"},
	)
)

// Handler serves the default registry in the prometheus text format
func Handler() http.Handler { return promhttp.Handler() }
