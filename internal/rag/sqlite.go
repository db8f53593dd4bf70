package rag

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// SQLiteStore is a VectorStore backed by a local SQLite database. It is the
// default backend: chunks and their embeddings live in a single file under
// the configured storage directory, so state survives process restarts and
// no external service is required. Similarity search is brute-force cosine
// distance computed in-process, which is plenty for a corpus of labour-law
// documents (thousands of chunks, not millions).
type SQLiteStore struct {
	// db is the underlying database connection pool.
	db *sql.DB

	// collection scopes every row this store reads or writes.
	collection string
}

// OpenSQLite opens (or creates) the vector database under dir and returns a
// store handle scoped to the named collection. The directory and schema are
// created idempotently, so repeated opens with the same arguments never fail —
// this is the get-or-create-collection operation.
// Use ":memory:" as dir for an in-memory database in tests.
func OpenSQLite(dir, collection string) (*SQLiteStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("rag: collection name must not be empty")
	}

	dsnPath := dir
	if dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("rag: create storage dir %s: %w", dir, err)
		}
		dsnPath = filepath.Join(dir, "chunks.db")
	}

	// WAL mode allows concurrent readers while a single writer is active.
	dsn := dsnPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("rag: open %s: %w", dsnPath, err)
	}
	// Limit to a single connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, collection: collection}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema if it does not already exist.
func (s *SQLiteStore) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS chunks (
    collection  TEXT    NOT NULL,
    id          TEXT    NOT NULL,
    title       TEXT    NOT NULL,
    content     TEXT    NOT NULL,
    metadata    TEXT    NOT NULL DEFAULT '{}',
    embedding   BLOB    NOT NULL,
    created_at  INTEGER NOT NULL,  -- Unix timestamp (seconds)
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_chunks_collection_title
    ON chunks (collection, title);
`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("rag: migrate: %w", err)
	}
	return nil
}

// Add appends a batch of chunks with their embeddings inside one transaction.
// All vectors must share the dimensionality already present in the collection;
// a pre-existing ID fails the whole batch with ErrDuplicateID.
func (s *SQLiteStore) Add(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("rag: %d docs but %d embeddings", len(docs), len(embeddings))
	}
	if len(docs) == 0 {
		return nil
	}

	dim, err := s.dimension(ctx)
	if err != nil {
		return err
	}
	for i, emb := range embeddings {
		if len(emb) == 0 {
			return fmt.Errorf("rag: empty embedding for doc %q", docs[i].ID)
		}
		if dim == 0 {
			dim = len(emb)
		}
		if len(emb) != dim {
			return fmt.Errorf("rag: embedding dimension %d for doc %q, collection uses %d", len(emb), docs[i].ID, dim)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rag: begin add: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const existsQ = `SELECT 1 FROM chunks WHERE collection = ? AND id = ?`
	const insertQ = `INSERT INTO chunks (collection, id, title, content, metadata, embedding, created_at)
	                 VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().Unix()

	for i, doc := range docs {
		var one int
		err := tx.QueryRowContext(ctx, existsQ, s.collection, doc.ID).Scan(&one)
		switch {
		case err == nil:
			return fmt.Errorf("rag: add %q: %w", doc.ID, ErrDuplicateID)
		case err != sql.ErrNoRows:
			return fmt.Errorf("rag: check id %q: %w", doc.ID, err)
		}

		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("rag: marshal metadata for %q: %w", doc.ID, err)
		}
		if _, err := tx.ExecContext(ctx, insertQ,
			s.collection, doc.ID, doc.Title, doc.Content, string(meta), encodeVector(embeddings[i]), now,
		); err != nil {
			return fmt.Errorf("rag: insert %q: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rag: commit add: %w", err)
	}
	return nil
}

// Search scans the collection, computes cosine distance to every stored
// embedding, and returns the topK nearest chunks in ascending distance order.
func (s *SQLiteStore) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("rag: topK must be positive, got %d", topK)
	}

	const q = `SELECT id, title, content, metadata, embedding FROM chunks WHERE collection = ?`
	rows, err := s.db.QueryContext(ctx, q, s.collection)
	if err != nil {
		return nil, fmt.Errorf("rag: search query: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0, topK)
	for rows.Next() {
		var doc Document
		var meta string
		var blob []byte
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &meta, &blob); err != nil {
			return nil, fmt.Errorf("rag: search scan: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("rag: unmarshal metadata for %q: %w", doc.ID, err)
		}
		doc.Score = cosineDistance(queryEmbedding, decodeVector(blob))
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rag: search rows: %w", err)
	}

	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Score < docs[j].Score })
	if len(docs) > topK {
		docs = docs[:topK]
	}
	return docs, nil
}

// DeleteByTitle removes every chunk of the named source document.
func (s *SQLiteStore) DeleteByTitle(ctx context.Context, title string) error {
	const q = `DELETE FROM chunks WHERE collection = ? AND title = ?`
	if _, err := s.db.ExecContext(ctx, q, s.collection, title); err != nil {
		return fmt.Errorf("rag: delete title %q: %w", title, err)
	}
	return nil
}

// Count reports the number of chunks stored in the collection.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM chunks WHERE collection = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, s.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("rag: count: %w", err)
	}
	return n, nil
}

// Ping reports whether the database is reachable. Satisfies the server's
// readiness probe interface.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("rag: ping: %w", err)
	}
	return nil
}

// Name returns the dependency label used in readiness responses.
func (s *SQLiteStore) Name() string { return "sqlite" }

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dimension returns the embedding length already stored in the collection,
// or 0 when the collection is empty.
func (s *SQLiteStore) dimension(ctx context.Context) (int, error) {
	const q = `SELECT length(embedding) FROM chunks WHERE collection = ? LIMIT 1`
	var byteLen int
	err := s.db.QueryRowContext(ctx, q, s.collection).Scan(&byteLen)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rag: read dimension: %w", err)
	}
	return byteLen / 4, nil
}

// encodeVector packs a float32 slice into a little-endian byte blob.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a little-endian byte blob into a float32 slice.
func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}

// cosineDistance returns 1 - cosine similarity of a and b. Mismatched or
// zero-magnitude vectors are pushed to the maximum distance so they rank last
// rather than failing the whole search.
func cosineDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 2
	}
	return float32(1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)))
}
