package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/hrlawbot/hrlawbot/internal/answer"
	"github.com/hrlawbot/hrlawbot/internal/embedder"
	"github.com/hrlawbot/hrlawbot/internal/logging"
	"github.com/hrlawbot/hrlawbot/internal/provider"
	"github.com/hrlawbot/hrlawbot/internal/rag"
	"github.com/hrlawbot/hrlawbot/internal/server"
	"github.com/hrlawbot/hrlawbot/internal/store"
	"github.com/hrlawbot/hrlawbot/internal/tracing"
)

// NewServeCmd constructs the `hrlawbot serve` command, which starts the HTTP
// server exposing the question answering API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hrlawbot HTTP server",
		Long: `Start the hrlawbot HTTP server on localhost.

The server exposes:
  POST /hrlaw/rag    Answer a question from the ingested corpus
  GET  /api/health   Liveness probe
  GET  /api/ready    Readiness probe (checks store and embedder)
  GET  /metrics      Prometheus metrics

Set HRLAWBOT_API_KEY to require Bearer token authentication on /hrlaw/rag.

Examples:
  hrlawbot serve
  hrlawbot serve --port 9090
  MODEL_PROVIDER=ollama hrlawbot serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing. Opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			vecStore, err := buildVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer vecStore.Close()

			retriever, err := rag.NewRetriever(emb, vecStore, answer.DefaultTopK)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			generator, err := provider.NewChatGenerator(chatModel)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			svc, err := answer.NewService(retriever, generator, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			questionLog := openQuestionLog(log)
			if questionLog != nil {
				defer questionLog.Close()
			}

			srv, err := server.New(svc, &server.Config{
				Host:        host,
				Port:        port,
				Logger:      log,
				Pingers:     buildPingers(vecStore, questionLog),
				APIKey:      os.Getenv("HRLAWBOT_API_KEY"),
				QuestionLog: questionLog,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}

// openQuestionLog opens the question log store. HRLAWBOT_SESSION_DB overrides
// the default path (~/.hrlawbot/questions.db). Set to "disabled" to disable.
// Failures disable the log with a warning rather than aborting serve.
func openQuestionLog(log *slog.Logger) store.QuestionLog {
	dbPath := os.Getenv("HRLAWBOT_SESSION_DB")
	if dbPath == "disabled" {
		log.Info("question log disabled via HRLAWBOT_SESSION_DB=disabled")
		return nil
	}
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			log.Warn("question log: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}
	ql, err := store.Open(dbPath)
	if err != nil {
		log.Warn("question log: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("question log opened", slog.String("path", dbPath))
	return ql
}

// buildPingers assembles the readiness probes for GET /api/ready: the vector
// store (when it can report reachability), the embedding endpoint, and the
// question log.
func buildPingers(vecStore rag.VectorStore, questionLog store.QuestionLog) []server.Pinger {
	var pingers []server.Pinger

	if p, ok := vecStore.(server.Pinger); ok {
		pingers = append(pingers, p)
	}

	if url := embedderProbeURL(); url != "" {
		pingers = append(pingers, server.NewHTTPPinger("embedder", url))
	}

	if ql, ok := questionLog.(*store.SQLiteLog); ok {
		pingers = append(pingers, server.PingerFunc{PingName: "questions", Fn: ql.Ping})
	}

	return pingers
}

// embedderProbeURL returns the base URL used to probe the embedding backend,
// or empty when the backend has no meaningful HTTP base to check.
func embedderProbeURL() string {
	if endpoint := os.Getenv("EMBEDDING_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	switch embedder.Backend() {
	case "ollama":
		return getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
	case "openai":
		return "https://api.openai.com/v1/models"
	default:
		return ""
	}
}
