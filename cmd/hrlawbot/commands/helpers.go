package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/hrlawbot/hrlawbot/internal/embedder"
	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// buildVectorStore opens the configured vector store. When QDRANT_HOST is set
// the remote Qdrant store is used; otherwise chunks live in the local SQLite
// database under DB_PATH. The caller owns the returned store and must Close it.
func buildVectorStore(ctx context.Context, log *slog.Logger) (rag.VectorStore, error) {
	collection := getEnvOrDefault("COLLECTION", "hrlaw")

	if host := os.Getenv("QDRANT_HOST"); host != "" {
		port := getEnvInt("QDRANT_PORT", 6334)
		vectorSize := uint64(embedder.DefaultDimensions(embedder.Backend())) //nolint:gosec // dimensions are bounded

		store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: collection,
			VectorSize: vectorSize,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
		}
		log.Info("qdrant store ready",
			slog.String("host", host),
			slog.Int("port", port),
			slog.String("collection", collection),
		)
		return store, nil
	}

	dbPath := getEnvOrDefault("DB_PATH", "./ragdb")
	store, err := rag.OpenSQLite(dbPath, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to open chunk database at %s: %w", dbPath, err)
	}
	log.Info("sqlite store ready",
		slog.String("path", dbPath),
		slog.String("collection", collection),
	)
	return store, nil
}

// buildEmbedder constructs the embedding client from the environment and
// warns when the configured model looks like a chat model rather than an
// embedding model.
func buildEmbedder(log *slog.Logger) (rag.Embedder, error) {
	emb, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	if model := os.Getenv("EMBED_MODEL_NAME"); embedder.LooksLikeChatModel(model) {
		log.Warn("EMBED_MODEL_NAME looks like a chat model, embeddings will likely fail",
			slog.String("model", model),
		)
	}
	log.Info("embedder initialised", slog.String("backend", embedder.Backend()))
	return emb, nil
}
