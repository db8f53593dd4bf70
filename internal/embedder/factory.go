package embedder

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// Default embedding models per backend.
const (
	defaultOllamaModel = "nomic-embed-text"
	defaultOpenAIModel = "text-embedding-3-small"

	// defaultOllamaDimensions is the output dimension of nomic-embed-text.
	// Other Ollama models may differ — override with EMBEDDING_DIMENSIONS.
	defaultOllamaDimensions = 768
	// defaultOpenAIDimensions is the output dimension of text-embedding-3-small.
	defaultOpenAIDimensions = 1536
)

// DefaultDimensions returns the default embedding vector size for the given
// backend name. Callers that need to pre-configure a vector store (e.g.
// Qdrant collection creation) should use this rather than hardcoding a value.
// EMBEDDING_DIMENSIONS always takes precedence when set.
func DefaultDimensions(backend string) int {
	if v := getEnvInt("EMBEDDING_DIMENSIONS", 0); v > 0 {
		return v
	}
	switch backend {
	case "ollama":
		return defaultOllamaDimensions
	default:
		return defaultOpenAIDimensions
	}
}

// Backend resolves the effective embedding backend name from the
// environment: EMBEDDING_PROVIDER wins, then the chat MODEL_PROVIDER,
// then "ollama".
func Backend() string {
	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		return v
	}
	return getEnvOrDefault("MODEL_PROVIDER", "ollama")
}

// NewFromEnv constructs a rag.Embedder from environment variables, inheriting
// from the chat provider configuration when embedding-specific overrides are
// not set.
//
// Resolution order:
//
//  1. EMBEDDING_PROVIDER — if unset, inherits MODEL_PROVIDER (default: ollama)
//  2. EMBED_MODEL_NAME — overrides the default model for the resolved backend
//  3. EMBEDDING_API_KEY — overrides the inherited API key
//  4. EMBEDDING_ENDPOINT — overrides the inherited endpoint
//  5. EMBEDDING_DIMENSIONS — overrides the default dimensions (ollama: 768, openai/azure: 1536)
func NewFromEnv() (rag.Embedder, error) {
	switch backend := Backend(); backend {
	case "ollama":
		host := getEnv("EMBEDDING_ENDPOINT")
		if host == "" {
			host = getEnvOrDefault("OLLAMA_HOST", "http://localhost:11434")
		}
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  host,
			Model: getEnvOrDefault("EMBED_MODEL_NAME", defaultOllamaModel),
		}), nil

	case "openai":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: openai requires OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		baseURL := getEnv("EMBEDDING_ENDPOINT")
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    baseURL,
			APIKey:     apiKey,
			Model:      getEnvOrDefault("EMBED_MODEL_NAME", defaultOpenAIModel),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions),
		}), nil

	case "azure":
		apiKey := getEnv("EMBEDDING_API_KEY")
		if apiKey == "" {
			apiKey = getEnv("AZURE_OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_API_KEY or EMBEDDING_API_KEY")
		}
		endpoint := getEnv("EMBEDDING_ENDPOINT")
		if endpoint == "" {
			endpoint = getEnv("AZURE_OPENAI_ENDPOINT")
		}
		if endpoint == "" {
			return nil, fmt.Errorf("embedder: azure requires AZURE_OPENAI_ENDPOINT or EMBEDDING_ENDPOINT")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    endpoint + "/openai",
			APIKey:     apiKey,
			Model:      getEnvOrDefault("EMBED_MODEL_NAME", defaultOpenAIModel),
			Dimensions: getEnvInt("EMBEDDING_DIMENSIONS", defaultOpenAIDimensions),
			Azure:      true,
			APIVersion: getEnvOrDefault("AZURE_OPENAI_API_VERSION", "2025-04-01-preview"),
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown backend %q — valid values: ollama, openai, azure", backend)
	}
}

// knownChatModelFragments contains name fragments identifying chat models,
// which are not suitable for embedding. Used to warn operators who point
// EMBED_MODEL_NAME at the wrong kind of model.
var knownChatModelFragments = []string{
	"gpt-4", "gpt-3.5", "gpt-35", "o1", "o3",
	"llama", "mistral", "mixtral", "gemma", "phi-", "phi3",
	"claude", "deepseek", "qwen",
}

// LooksLikeChatModel returns true when the model name resembles a known
// chat/completion model rather than a dedicated embedding model.
func LooksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, fragment := range knownChatModelFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// getEnv returns the value of the named environment variable, or empty string.
func getEnv(key string) string {
	return os.Getenv(key)
}

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
