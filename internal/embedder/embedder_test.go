package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func Test_OpenAIEmbedder_BatchOrderPreserved(t *testing.T) {
	t.Parallel()

	// The OpenAI API is allowed to return vectors out of order; the client
	// must re-order by index.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header: got %q", got)
		}
		var req openaiEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := openaiEmbedResponse{}
		resp.Data = []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}{
			{Embedding: []float32{2, 2}, Index: 1},
			{Embedding: []float32{1, 1}, Index: 0},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "text-embedding-3-small"})
	got, err := e.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 vectors, got %d", len(got))
	}
	if got[0][0] != 1 || got[1][0] != 2 {
		t.Errorf("vectors not re-ordered by index: %v", got)
	}
}

func Test_OpenAIEmbedder_APIErrorSurfaced(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "bad key"}})
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "wrong", Model: "text-embedding-3-small"})
	if _, err := e.Embed(context.Background(), []string{"q"}); err == nil {
		t.Fatal("want error on HTTP 401, got nil")
	}
}

func Test_OpenAIEmbedder_CountMismatchRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiEmbedResponse{}) // zero vectors for one input
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(&OpenAIConfig{BaseURL: srv.URL, APIKey: "k", Model: "m"})
	if _, err := e.Embed(context.Background(), []string{"q"}); err == nil {
		t.Fatal("want error when response count differs from input count, got nil")
	}
}

func Test_OllamaEmbedder_Embed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("model: got %q", req.Model)
		}
		out := ollamaEmbedResponse{Embeddings: make([][]float32, len(req.Input))}
		for i := range out.Embeddings {
			out.Embeddings[i] = []float32{float32(i), 1}
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})
	got, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 vectors, got %d", len(got))
	}
}

func Test_NewFromEnv_UnknownBackend(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "sentencepiece")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("want error for unknown backend, got nil")
	}
}

func Test_NewFromEnv_OpenAIRequiresKey(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EMBEDDING_API_KEY", "")

	if _, err := NewFromEnv(); err == nil {
		t.Fatal("want error when no API key is configured, got nil")
	}
}

func Test_LooksLikeChatModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-4o-mini", true},
		{"llama3", true},
		{"nomic-embed-text", false},
		{"text-embedding-3-small", false},
	}
	for _, tc := range tests {
		if got := LooksLikeChatModel(tc.model); got != tc.want {
			t.Errorf("LooksLikeChatModel(%q): want %v, got %v", tc.model, tc.want, got)
		}
	}
}
