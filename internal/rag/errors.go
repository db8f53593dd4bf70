package rag

import "errors"

// Sentinel errors shared across the ingestion and query pipelines. Callers
// classify failures with errors.Is so wrapped context is preserved.
var (
	// ErrUnsupportedFormat is returned when a source file's extension is not
	// one of the supported document formats (pdf, txt, md). Per-file,
	// non-fatal: the ingestion pipeline logs and continues.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument is returned when a document's text is empty after
	// whitespace normalization. Per-file, non-fatal.
	ErrEmptyDocument = errors.New("document is empty after normalization")

	// ErrDuplicateID is returned by VectorStore.Add when a document ID
	// already exists in the collection. Chunk IDs carry a fresh UUID, so
	// hitting this indicates a caller bug rather than an operational fault.
	ErrDuplicateID = errors.New("duplicate document id")

	// ErrInvalidQuery is returned when a question is empty or whitespace-only
	// after trimming. Surfaced to the caller as a client error.
	ErrInvalidQuery = errors.New("question must not be empty")

	// ErrInvalidChunking is returned at configuration time when the chunker
	// parameters cannot make forward progress (overlap >= chunk size).
	ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")
)
