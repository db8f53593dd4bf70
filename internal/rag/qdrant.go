package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// pointIDNamespace scopes the deterministic UUIDs derived from chunk IDs.
// Changing it orphans previously stored points, so it is fixed for good.
var pointIDNamespace = uuid.MustParse("8f3c9f7e-1a54-4c03-9d2b-5c6f1d2e7a40")

// pointID maps a chunk ID to a Qdrant point ID. Qdrant only accepts unsigned
// integers or UUIDs as point IDs, so the composite chunk ID is hashed into a
// deterministic UUID; the original ID travels in the point payload.
func pointID(id string) string {
	return uuid.NewSHA1(pointIDNamespace, []byte(id)).String()
}

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantStore implements VectorStore backed by a Qdrant instance. It is the
// optional remote backend, selected when QDRANT_HOST is configured; the
// SQLite store remains the default for single-host deployments.
//
// Deviation from the Add contract: Qdrant upserts by point ID, so a duplicate
// ID silently replaces the prior point instead of failing with ErrDuplicateID.
// Chunk IDs carry a fresh UUID per ingestion, so this is unreachable in
// practice.
type QdrantStore struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this store.
	cfg *QdrantConfig
}

// NewQdrantStore creates a new QdrantStore, ensuring the target collection
// exists (creating it if necessary), and returns a ready-to-use VectorStore.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	clientCfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}

	client, err := qdrant.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	store := &QdrantStore{client: client, cfg: cfg}
	if err := store.ensureCollection(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the Qdrant collection if it does not already exist.
// Repeated calls with the same name are no-ops.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}

	return nil
}

// Add stores a batch of chunks with their embeddings.
func (s *QdrantStore) Add(ctx context.Context, docs []Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("qdrant: %d docs but %d embeddings", len(docs), len(embeddings))
	}

	points := make([]*qdrant.PointStruct, 0, len(docs))
	for i, doc := range docs {
		payload := map[string]interface{}{
			"id":      doc.ID,
			"content": doc.Content,
			"title":   doc.Title,
		}
		for k, v := range doc.Metadata {
			payload[k] = v
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(pointID(doc.ID)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: qdrant.NewValueMap(payload),
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: add failed: %w", err)
	}

	return nil
}

// Search performs a cosine similarity search and returns the top-k results
// nearest first.
func (s *QdrantStore) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]Document, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("qdrant: topK must be positive, got %d", topK)
	}

	limit := uint64(topK)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		doc := Document{
			// Qdrant reports cosine similarity; convert to distance so both
			// backends rank ascending.
			Score:    1 - r.Score,
			Metadata: make(map[string]string),
		}
		if p := r.Payload; p != nil {
			if v, ok := p["id"]; ok {
				doc.ID = v.GetStringValue()
			}
			if v, ok := p["content"]; ok {
				doc.Content = v.GetStringValue()
			}
			if v, ok := p["title"]; ok {
				doc.Title = v.GetStringValue()
			}
			for k, v := range p {
				if k != "id" && k != "content" && k != "title" {
					doc.Metadata[k] = v.GetStringValue()
				}
			}
		}
		if doc.ID == "" {
			// Points written before the payload carried the original ID.
			doc.ID = r.Id.GetUuid()
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// DeleteByTitle removes every chunk whose title payload matches.
func (s *QdrantStore) DeleteByTitle(ctx context.Context, title string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.cfg.Collection,
		Points: qdrant.NewPointsSelectorFilter(&qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("title", title),
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete title %q: %w", title, err)
	}
	return nil
}

// Count reports the number of points in the collection.
func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.cfg.Collection,
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant: count failed: %w", err)
	}
	return int(n), nil
}

// Ping calls the Qdrant HealthCheck RPC. Satisfies the server's readiness
// probe interface.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Name returns the dependency label used in readiness responses.
func (s *QdrantStore) Name() string { return "qdrant" }

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}
