// Package rag defines the interfaces for the retrieval-augmented generation
// core: vector storage, chunk retrieval, and embedding. Concrete
// implementations (SQLite, Qdrant, the HTTP embedders) satisfy these
// interfaces so the answer layer never depends on a specific backend.
package rag

import (
	"context"
)

// Document represents one stored or retrieved chunk of a source document.
type Document struct {
	// ID is the unique identifier for this chunk within its collection.
	ID string

	// Content is the raw text of the chunk.
	Content string

	// Title is the source document title (filename stem) used for attribution.
	Title string

	// Metadata holds arbitrary key-value pairs attached at ingestion time.
	Metadata map[string]string

	// Score is the cosine distance to the query embedding assigned during
	// retrieval (lower is closer). Zero value means it was not computed.
	Score float32
}

// VectorStore is the interface for persisting and searching chunk embeddings
// within a single named collection. Implementations must be safe for
// concurrent reads while a single writer is active.
type VectorStore interface {
	// Add appends a batch of chunks with their pre-computed embeddings.
	// The embeddings slice must be parallel to docs — embeddings[i] is the
	// vector for docs[i]. Adding a document whose ID already exists in the
	// collection fails with ErrDuplicateID.
	Add(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search returns up to topK chunks nearest to the query embedding,
	// ordered by ascending distance. A collection smaller than topK returns
	// everything it has; an empty collection returns an empty slice, not an
	// error. Ordering among equally distant chunks is not guaranteed.
	Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error)

	// DeleteByTitle removes every chunk whose title matches. Used by the
	// ingestion pipeline's replace mode before re-adding a document.
	DeleteByTitle(ctx context.Context, title string) error

	// Count reports the number of chunks in the collection.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be deterministic for identical input and safe to call
// from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice and every vector has
	// the same fixed dimensionality.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the high-level interface used by the answer service to fetch
// relevant context for a question. It combines embedding and vector search.
type Retriever interface {
	// Retrieve returns the top-k chunks most relevant to the query.
	Retrieve(ctx context.Context, query string, topK int) ([]Document, error)
}
