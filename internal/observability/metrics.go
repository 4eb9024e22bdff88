package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	submissionsTotal   *prometheus.CounterVec
	scoreRatio         *prometheus.HistogramVec
	eventsPublished    *prometheus.CounterVec
	statisticsCacheOps *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classroom_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_submissions_total",
			Help: "Submissions by activity kind and outcome.",
		}, []string{"kind", "outcome"})

		scoreRatio = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "classroom_score_ratio",
			Help:    "Obtained marks as a fraction of total marks.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"kind"})

		eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_events_published_total",
			Help: "Domain events handed to brokers.",
		}, []string{"transport", "outcome"})

		statisticsCacheOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classroom_statistics_cache_total",
			Help: "Statistics cache lookups by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			submissionsTotal,
			scoreRatio,
			eventsPublished,
			statisticsCacheOps,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Submissions counts submit outcomes: graded, duplicate, not_found, failed.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// ScoreRatio records graded scores relative to total marks.
func ScoreRatio() *prometheus.HistogramVec {
	RegisterMetrics()
	return scoreRatio
}

// EventsPublished counts broker publishes per transport.
func EventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublished
}

// StatisticsCache counts statistics cache hits and misses.
func StatisticsCache() *prometheus.CounterVec {
	RegisterMetrics()
	return statisticsCacheOps
}
