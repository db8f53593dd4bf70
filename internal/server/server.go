// Package server implements the HTTP server that exposes the question
// answering API. The server is started by the `hrlawbot serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrlawbot/hrlawbot/internal/answer"
	"github.com/hrlawbot/hrlawbot/internal/logging"
	"github.com/hrlawbot/hrlawbot/internal/rag"
	"github.com/hrlawbot/hrlawbot/internal/store"
)

// New constructs a Server from the provided answer service and config.
func New(svc answerer, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("server: answer service must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover retrieval plus a full model completion.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		answerer:  svc,
		cfg:       cfg,
		log:       log,
		pingers:   cfg.Pingers,
		metrics:   newServerMetrics(reg),
		questions: cfg.QuestionLog,
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		log.Warn("server: HRLAWBOT_API_KEY not set, API authentication disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("POST /hrlaw/rag",
		s.instrument("ask",
			authMiddleware(cfg.APIKey,
				rl.middleware(http.HandlerFunc(s.handleAsk)))))
	mux.Handle("GET /api/health", s.instrument("health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /api/ready", s.instrument("ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleAsk handles POST /hrlaw/rag requests. Question validation failures
// map to 400; retrieval and generation dependency failures map to 502 so
// load balancers can distinguish them from handler bugs.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.askRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	payload, err := s.answerer.Ask(r.Context(), answer.Query{
		Question:  req.Question,
		SessionID: req.SessionID,
		TopK:      req.TopK,
	})
	if err != nil {
		if errors.Is(err, rag.ErrInvalidQuery) {
			s.metrics.askRequestsTotal.WithLabelValues(outcomeInvalid).Inc()
			http.Error(w, "question is required", http.StatusBadRequest)
			return
		}
		s.metrics.askRequestsTotal.WithLabelValues(outcomeError).Inc()
		log.Error("ask failed", slog.Any("error", err))
		http.Error(w, "upstream dependency failed", http.StatusBadGateway)
		return
	}

	s.metrics.askRequestsTotal.WithLabelValues(outcomeOK).Inc()
	s.metrics.askDurationSeconds.Observe(time.Since(start).Seconds())
	s.metrics.askChunksRetrieved.Observe(float64(payload.Chunks))

	s.logQuestion(r.Context(), req, payload)

	w.Header().Set("Content-Type", "application/json")
	resp := askResponse{
		Answer:  payload.Answer,
		Sources: strings.Join(payload.Sources, ", "),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("ask encode error", slog.Any("error", err))
	}
}

// logQuestion appends the answered question to the question log, if one is
// configured. Failures are logged and otherwise ignored.
func (s *Server) logQuestion(ctx context.Context, req askRequest, payload *answer.Payload) {
	if s.questions == nil {
		return
	}
	err := s.questions.Append(ctx, store.Entry{
		SessionID: req.SessionID,
		Question:  req.Question,
		Answer:    payload.Answer,
		Sources:   payload.Sources,
	})
	if err != nil {
		logging.FromContext(ctx).Warn("question log append failed", slog.Any("error", err))
	}
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
