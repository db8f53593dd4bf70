// Package ingestion implements the document ingestion pipeline.
// It scans a data directory for HR/labour-law source documents, extracts and
// normalizes their text, chunks the content, embeds each chunk, and stores
// the results in the vector store. The pipeline is invoked by the
// `hrlawbot ingest` CLI command.
package ingestion

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/hrlawbot/hrlawbot/internal/chunker"
	"github.com/hrlawbot/hrlawbot/internal/extract"
	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// DataDir is the directory scanned for *.pdf, *.txt, *.md source files.
	DataDir string

	// ChunkSize is the chunk window size in words. Defaults to
	// chunker.DefaultChunkSize if zero.
	ChunkSize int

	// ChunkOverlap is the word overlap between consecutive chunks. Defaults
	// to chunker.DefaultOverlap if ChunkSize is also zero.
	ChunkOverlap int

	// Replace removes previously stored chunks for a document title before
	// adding the new ones. Off by default: re-ingesting then appends, which
	// matches the store's append-only lifecycle.
	Replace bool

	// Logger is the structured logger for per-file progress and skips.
	// If nil, slog.Default is used.
	Logger *slog.Logger
}

// Summary reports the outcome of one ingestion run.
type Summary struct {
	// FilesIngested is the number of source files fully stored.
	FilesIngested int
	// FilesSkipped is the number of files skipped (empty, unsupported, or failed).
	FilesSkipped int
	// ChunksStored is the total number of chunks written to the store.
	ChunksStored int
}

// Pipeline orchestrates the extract → normalize → chunk → embed → store flow
// over a directory of source documents.
type Pipeline struct {
	// embedder converts text chunks into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded chunks.
	store rag.VectorStore

	// chunks splits normalized text into word windows.
	chunks *chunker.Chunker

	// cfg holds the resolved pipeline configuration.
	cfg *Config

	// log is the structured logger for this pipeline instance.
	log *slog.Logger
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
// Chunking parameters are validated here so a bad configuration fails at
// startup, not mid-ingest.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize == 0 && cfg.ChunkOverlap == 0 {
		cfg.ChunkSize = chunker.DefaultChunkSize
		cfg.ChunkOverlap = chunker.DefaultOverlap
	}

	c, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("ingestion: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		chunks:   c,
		cfg:      cfg,
		log:      log,
	}, nil
}

// Run scans the data directory and ingests every supported file. A file that
// fails (unsupported, unreadable, empty, embed or store error) is logged and
// skipped; the batch always continues to the next file. An empty directory is
// not an error — the summary simply reports zero files.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	paths, err := p.scan()
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	if len(paths) == 0 {
		p.log.Info("no source files found",
			slog.String("data_dir", p.cfg.DataDir),
			slog.String("hint", "add PDF/TXT/MD files and re-run"),
		)
		return summary, nil
	}

	for _, path := range paths {
		stored, err := p.ingestFile(ctx, path)
		if err != nil {
			summary.FilesSkipped++
			p.log.Warn("skipping file",
				slog.String("path", path),
				slog.Any("error", err),
			)
			continue
		}
		summary.FilesIngested++
		summary.ChunksStored += stored
	}

	p.log.Info("ingestion complete",
		slog.Int("files_ingested", summary.FilesIngested),
		slog.Int("files_skipped", summary.FilesSkipped),
		slog.Int("chunks_stored", summary.ChunksStored),
	)
	return summary, nil
}

// ingestFile processes a single source file end to end and returns the
// number of chunks stored.
func (p *Pipeline) ingestFile(ctx context.Context, path string) (int, error) {
	raw, err := extract.Extract(path)
	if err != nil {
		return 0, err
	}

	text := extract.Normalize(raw)
	if text == "" {
		return 0, fmt.Errorf("%s: %w", path, rag.ErrEmptyDocument)
	}

	title := extract.Title(path)
	pieces := p.chunks.Split(text)
	p.log.Info("ingesting document",
		slog.String("title", title),
		slog.Int("chunks", len(pieces)),
	)

	// One batched embed call per file; semantically equivalent to embedding
	// each chunk in order.
	embeddings, err := p.embedder.Embed(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("embed %s: %w", title, err)
	}
	if len(embeddings) != len(pieces) {
		return 0, fmt.Errorf("embed %s: expected %d vectors, got %d", title, len(pieces), len(embeddings))
	}

	if p.cfg.Replace {
		if err := p.store.DeleteByTitle(ctx, title); err != nil {
			return 0, fmt.Errorf("replace %s: %w", title, err)
		}
	}

	docs := make([]rag.Document, 0, len(pieces))
	for idx, piece := range pieces {
		docs = append(docs, rag.Document{
			ID:      chunkID(title, idx),
			Content: piece,
			Title:   title,
			Metadata: map[string]string{
				"title": title,
			},
		})
	}

	if err := p.store.Add(ctx, docs, embeddings); err != nil {
		return 0, fmt.Errorf("store %s: %w", title, err)
	}

	return len(docs), nil
}

// scan lists the supported source files under DataDir in deterministic order.
// A missing directory is treated as empty.
func (p *Pipeline) scan() ([]string, error) {
	entries, err := os.ReadDir(p.cfg.DataDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ingestion: read %s: %w", p.cfg.DataDir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !extract.Supported(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(p.cfg.DataDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// chunkID builds a collection-unique chunk ID: the document title, a fresh
// hex-encoded UUID, and the chunk's sequence index within the document.
func chunkID(title string, idx int) string {
	u := uuid.New()
	return fmt.Sprintf("%s_%s_%d", title, hex.EncodeToString(u[:]), idx)
}
