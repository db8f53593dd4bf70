package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hrlawbot/hrlawbot/internal/answer"
	"github.com/hrlawbot/hrlawbot/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [slog.Default] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on POST /hrlaw/rag.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics and backs the
	// GET /metrics endpoint. If nil a private registry is created, which
	// keeps unit tests hermetic.
	Registry *prometheus.Registry
	// QuestionLog optionally records every answered question. Log failures
	// never fail the request.
	QuestionLog store.QuestionLog
}

// answerer is the interface handleAsk calls to answer a question.
// *answer.Service satisfies it; tests inject a fake.
type answerer interface {
	Ask(ctx context.Context, q answer.Query) (*answer.Payload, error)
}

// Server is the HTTP server that exposes the question answering API.
type Server struct {
	// answerer handles all question requests.
	answerer answerer
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// questions optionally records answered questions.
	questions store.QuestionLog
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /hrlaw/rag.
type askRequest struct {
	// Question is the user's natural language question.
	Question string `json:"question"`
	// SessionID optionally tags the question for the question log.
	SessionID string `json:"session_id,omitempty"`
	// TopK overrides the number of chunks retrieved. Zero means the default.
	TopK int `json:"top_k,omitempty"`
}

// askResponse is the JSON response for POST /hrlaw/rag.
type askResponse struct {
	// Answer is the generated reply.
	Answer string `json:"answer"`
	// Sources is the comma-joined list of distinct source document titles
	// behind the answer, or the insufficient-context sentinel.
	Sources string `json:"sources"`
}
