package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	apiRequestsTotal         *prometheus.CounterVec
	apiLatencySeconds        *prometheus.HistogramVec
	apiErrorsTotal           *prometheus.CounterVec
	pipelineTransitionsTotal *prometheus.CounterVec
	pipelineFailuresTotal    *prometheus.CounterVec
	ocrConfidenceHistogram   prometheus.Histogram
	uploadRequestsTotal      *prometheus.CounterVec
	uploadRejectedTotal      *prometheus.CounterVec
	uploadRetriesTotal       prometheus.Counter
	uploadLatencySeconds     prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		pipelineTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_transitions_total",
			Help: "Submission status transitions performed by the pipeline.",
		}, []string{"status"})

		pipelineFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_failures_total",
			Help: "Pipeline runs ending in the failed state, by stage.",
		}, []string{"stage"})

		ocrConfidenceHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ocr_confidence",
			Help:    "Distribution of aggregate OCR confidence scores.",
			Buckets: []float64{0.1, 0.25, 0.5, 0.7, 0.8, 0.9, 0.95, 1.0},
		})

		uploadRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_requests_total",
			Help: "Accepted uploads by detected type.",
		}, []string{"type"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_rejected_total",
			Help: "Uploads rejected before storage, by reason.",
		}, []string{"reason"})

		uploadRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "upload_retries_total",
			Help: "Storage upload attempts retried after a transient failure.",
		})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "upload_latency_seconds",
			Help:    "Latency distribution for upload storage calls.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			pipelineTransitionsTotal, pipelineFailuresTotal, ocrConfidenceHistogram,
			uploadRequestsTotal, uploadRejectedTotal, uploadRetriesTotal, uploadLatencySeconds,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// PipelineTransitions exposes the counter for submission status transitions.
func PipelineTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return pipelineTransitionsTotal
}

// PipelineFailures exposes the counter for failed pipeline runs.
func PipelineFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return pipelineFailuresTotal
}

// OCRConfidence exposes the histogram of aggregate extraction confidence.
func OCRConfidence() prometheus.Histogram {
	RegisterMetrics()
	return ocrConfidenceHistogram
}

// UploadRequests exposes the counter for accepted uploads.
func UploadRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRequestsTotal
}

// UploadRejected exposes the counter for rejected uploads.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadRetries exposes the counter for retried storage attempts.
func UploadRetries() prometheus.Counter {
	RegisterMetrics()
	return uploadRetriesTotal
}

// UploadLatency exposes the latency histogram for storage calls.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}
