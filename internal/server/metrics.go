// Package server — metrics.go registers all Prometheus metrics for the HTTP
// server and exposes helpers used by handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric label values shared across registrations.
const (
	// labelHandler is the "handler" label value used to partition metrics by
	// the logical endpoint name rather than the raw URL path.
	labelHandler = "handler"

	// outcomeOK labels requests that produced an answer.
	outcomeOK = "ok"
	// outcomeInvalid labels requests rejected as malformed or blank.
	outcomeInvalid = "invalid"
	// outcomeError labels requests that failed on a dependency.
	outcomeError = "error"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests can
// inject a fresh prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// askRequestsTotal counts completed /hrlaw/rag requests, partitioned by
	// outcome: "ok", "invalid", or "error".
	askRequestsTotal *prometheus.CounterVec

	// askDurationSeconds records the wall-clock duration of each answered
	// /hrlaw/rag request, retrieval and generation included.
	askDurationSeconds prometheus.Histogram

	// askChunksRetrieved records the number of chunks retrieved per answered
	// request. A spike at zero means the corpus is not covering questions.
	askChunksRetrieved prometheus.Histogram

	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, handler name, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg and returns the
// populated serverMetrics. promauto.With(reg) is used so that each call
// registers into the provided registry rather than the global default;
// this keeps unit tests hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		askRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrlawbot",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total number of /hrlaw/rag requests completed, partitioned by outcome.",
		}, []string{"outcome"}),

		askDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hrlawbot",
			Subsystem: "ask",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of answered /hrlaw/rag requests, retrieval and generation included.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		askChunksRetrieved: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hrlawbot",
			Subsystem: "ask",
			Name:      "chunks_retrieved",
			Help:      "Number of chunks retrieved per answered /hrlaw/rag request.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hrlawbot",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hrlawbot",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}
