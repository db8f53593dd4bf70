// Package answer implements the question answering service: it retrieves the
// chunks most relevant to a question, assembles them into a cited context
// block, and asks the language model for a grounded answer.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// systemPrompt instructs the model to answer strictly from the retrieved
// context and to hedge when the context does not cover the question.
const systemPrompt = `You are HR Law Bot, a cautious, India-focused assistant for HR & labour compliance.
Use only the provided context to answer. If the context is insufficient or state-specific details are missing, say so and recommend checking the relevant state Shops & Establishments Act or consulting a professional.
Format:
- One-paragraph answer.
- Key Points: 3–5 concise bullets.
- Sources: list the provided source titles only.
Never fabricate citations, sections, or dates. Be clear when something varies by state or requires verification.
`

// InsufficientContext stands in for the source list when retrieval returns
// nothing. It is a caller-facing sentinel only; the model is never told to
// echo it.
const InsufficientContext = "Context not sufficient; please consult official sources."

// DefaultTopK is the number of chunks retrieved per question when the caller
// does not specify one.
const DefaultTopK = 5

// Generator produces a completion from a system prompt and a user message.
// The production implementation wraps an eino chat model; tests substitute
// a fake.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Query is one question to answer.
type Query struct {
	// Question is the user's question text.
	Question string
	// SessionID optionally associates the question with a client session for
	// the question log. It has no effect on answering.
	SessionID string
	// TopK overrides the number of chunks retrieved. Zero or negative means
	// DefaultTopK.
	TopK int
}

// Payload is the answer to a Query.
type Payload struct {
	// Answer is the model's reply.
	Answer string
	// Sources lists the distinct source document titles behind the answer,
	// in retrieval order. When retrieval found nothing it holds the single
	// InsufficientContext sentinel.
	Sources []string
	// Chunks is the number of chunks retrieved for this answer.
	Chunks int
}

// Service answers questions against the ingested document corpus.
type Service struct {
	retriever rag.Retriever
	generator Generator
	log       *slog.Logger
}

// NewService constructs an answer Service. Logger may be nil.
func NewService(retriever rag.Retriever, generator Generator, log *slog.Logger) (*Service, error) {
	if retriever == nil {
		return nil, fmt.Errorf("answer: retriever must not be nil")
	}
	if generator == nil {
		return nil, fmt.Errorf("answer: generator must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{retriever: retriever, generator: generator, log: log}, nil
}

// Ask answers one question. A blank question fails with rag.ErrInvalidQuery
// before any embedding or retrieval work. When retrieval returns no chunks
// the model is still called with an empty context; the system prompt makes
// it hedge, and the sources default to the InsufficientContext sentinel.
func (s *Service) Ask(ctx context.Context, q Query) (*Payload, error) {
	question := strings.TrimSpace(q.Question)
	if question == "" {
		return nil, rag.ErrInvalidQuery
	}

	topK := q.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	docs, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, fmt.Errorf("answer: retrieval failed: %w", err)
	}

	contextBlock, sources := assemble(docs)
	if len(docs) == 0 {
		s.log.Info("no context retrieved", slog.String("question", question))
		sources = []string{InsufficientContext}
	}
	s.log.Debug("context assembled",
		slog.Int("chunks", len(docs)),
		slog.Int("sources", len(sources)),
	)

	user := fmt.Sprintf("Question: %s\n\nContext:\n%s\n\nAnswer:", question, contextBlock)
	reply, err := s.generator.Generate(ctx, systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("answer: generation failed: %w", err)
	}

	return &Payload{
		Answer:  strings.TrimSpace(reply),
		Sources: sources,
		Chunks:  len(docs),
	}, nil
}

// assemble renders retrieved chunks into the model context and collects the
// distinct source titles in first-occurrence order.
func assemble(docs []rag.Document) (string, []string) {
	var b strings.Builder
	seen := make(map[string]bool, len(docs))
	var sources []string
	for _, d := range docs {
		fmt.Fprintf(&b, "[Source: %s]\n%s\n", d.Title, d.Content)
		if !seen[d.Title] {
			seen[d.Title] = true
			sources = append(sources, d.Title)
		}
	}
	return b.String(), sources
}
