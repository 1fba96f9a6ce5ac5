package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	httpRequestsTotal    *prometheus.CounterVec
	httpLatencySeconds   *prometheus.HistogramVec
	httpErrorsTotal      *prometheus.CounterVec
	testCasesTotal       *prometheus.CounterVec
	submissionsTotal     *prometheus.CounterVec
	submissionEventsLost *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors shared by the API layers.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devready_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "devready_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devready_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		testCasesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devready_test_cases_total",
			Help: "Test cases executed, by language and verdict.",
		}, []string{"language", "verdict"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devready_submissions_total",
			Help: "Stored submissions, by language and result.",
		}, []string{"language", "result"})

		submissionEventsLost = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devready_submission_events_failed_total",
			Help: "Submission events that could not be published, by transport.",
		}, []string{"transport"})

		prometheus.MustRegister(httpRequestsTotal, httpLatencySeconds, httpErrorsTotal, testCasesTotal, submissionsTotal, submissionEventsLost)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// TestCases exposes the counter of executed test cases.
func TestCases() *prometheus.CounterVec {
	RegisterMetrics()
	return testCasesTotal
}

// Submissions exposes the counter of stored submissions.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// SubmissionEventsFailed exposes the counter of undelivered submission events.
func SubmissionEventsFailed() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionEventsLost
}
