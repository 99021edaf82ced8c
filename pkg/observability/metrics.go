// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring the datenblick gateway.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference and sandbox
// execution latencies, ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datenblick_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datenblick_request_duration_seconds",
			Help:    "Request duration",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// TurnsTotal counts analysis turns by model and outcome
	// (completed, no_code, execution_failed, error).
	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datenblick_turns_total",
			Help: "Analysis turns",
		},
		[]string{"model", "outcome"},
	)

	// CompletionLatency records completion backend latency in seconds.
	CompletionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datenblick_completion_latency_seconds",
			Help:    "Completion backend latency",
			Buckets: LLMBuckets,
		},
		[]string{"model"},
	)

	// SandboxExecutionsTotal counts sandbox code executions by status
	// (success, runtime_error, transport_error).
	SandboxExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datenblick_sandbox_executions_total",
			Help: "Sandbox code executions",
		},
		[]string{"status"},
	)

	// SandboxExecutionLatency records sandbox execution latency in seconds.
	SandboxExecutionLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datenblick_sandbox_execution_latency_seconds",
			Help:    "Sandbox execution latency",
			Buckets: LLMBuckets,
		},
	)

	// ArtifactsTotal counts classified artifacts by category.
	ArtifactsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datenblick_artifacts_total",
			Help: "Classified execution artifacts",
		},
		[]string{"category"},
	)

	// DatasetBytesStaged counts bytes written into sandbox sessions.
	DatasetBytesStaged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datenblick_dataset_bytes_staged_total",
			Help: "Dataset bytes staged into sandboxes",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		TurnsTotal,
		CompletionLatency,
		SandboxExecutionsTotal,
		SandboxExecutionLatency,
		ArtifactsTotal,
		DatasetBytesStaged,
	)
}
