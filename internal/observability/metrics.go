package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	submissionTransitions *prometheus.CounterVec
	podiumCacheTotal      *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used for API observability.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edulearn_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edulearn_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edulearn_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edulearn_submission_transitions_total",
			Help: "Total number of submission state transitions, by workflow and target state.",
		}, []string{"workflow", "status"})

		podiumCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "edulearn_podium_cache_total",
			Help: "Podium cache lookups, by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, submissionTransitions, podiumCacheTotal)
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

// SubmissionTransitions exposes the counter for submission state transitions.
func SubmissionTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionTransitions
}

// PodiumCache exposes the counter for podium cache lookups.
func PodiumCache() *prometheus.CounterVec {
	RegisterMetrics()
	return podiumCacheTotal
}
