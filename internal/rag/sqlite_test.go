package rag

import (
	"context"
	"errors"
	"testing"
)

// openTestStore opens an in-memory SQLiteStore for use in tests.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:", "hrlaw")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// addOne is a helper that stores a single chunk with the given id, title,
// and embedding.
func addOne(t *testing.T, s *SQLiteStore, id, title, content string, emb []float32) {
	t.Helper()
	doc := Document{ID: id, Title: title, Content: content, Metadata: map[string]string{"title": title}}
	if err := s.Add(context.Background(), []Document{doc}, [][]float32{emb}); err != nil {
		t.Fatalf("add %s: %v", id, err)
	}
}

func Test_SQLiteStore_EmptyCollectionSearch(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	docs, err := s.Search(context.Background(), []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("search empty collection: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("want 0 results from empty collection, got %d", len(docs))
	}
}

func Test_SQLiteStore_SelfNearest(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	emb := []float32{0.3, 0.1, 0.9}
	addOne(t, s, "only", "policy", "the only chunk", emb)

	docs, err := s.Search(context.Background(), emb, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("want 1 result, got %d", len(docs))
	}
	if docs[0].ID != "only" {
		t.Errorf("want the stored chunk at rank 0, got %q", docs[0].ID)
	}
	if docs[0].Score > 1e-5 {
		t.Errorf("self-distance should be ~0, got %f", docs[0].Score)
	}
}

func Test_SQLiteStore_OrderedByDistance(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	// Unit vectors at increasing angles from the query direction.
	addOne(t, s, "far", "b", "far chunk", []float32{0, 1, 0})
	addOne(t, s, "near", "a", "near chunk", []float32{1, 0.1, 0})
	addOne(t, s, "mid", "a", "mid chunk", []float32{1, 1, 0})

	docs, err := s.Search(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("want 3 results, got %d", len(docs))
	}
	got := []string{docs[0].ID, docs[1].ID, docs[2].ID}
	want := []string{"near", "mid", "far"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rank %d: want %q, got %q (full order %v)", i, want[i], got[i], got)
		}
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].Score < docs[i-1].Score {
			t.Errorf("distances not non-decreasing: %f before %f", docs[i-1].Score, docs[i].Score)
		}
	}
}

func Test_SQLiteStore_TopKLargerThanCollection(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	addOne(t, s, "c1", "a", "one", []float32{1, 0})
	addOne(t, s, "c2", "a", "two", []float32{0, 1})

	docs, err := s.Search(context.Background(), []float32{1, 0}, 50)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("want all 2 chunks when topK exceeds size, got %d", len(docs))
	}
}

func Test_SQLiteStore_DuplicateID(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	addOne(t, s, "dup", "a", "first", []float32{1, 0})

	doc := Document{ID: "dup", Title: "a", Content: "second"}
	err := s.Add(context.Background(), []Document{doc}, [][]float32{{0, 1}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID, got %v", err)
	}

	// The failed batch must not have replaced the original content.
	docs, err := s.Search(context.Background(), []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if docs[0].Content != "first" {
		t.Errorf("duplicate add mutated stored chunk: %q", docs[0].Content)
	}
}

func Test_SQLiteStore_DimensionMismatchRejected(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	addOne(t, s, "d3", "a", "three dims", []float32{1, 0, 0})

	doc := Document{ID: "d2", Title: "a", Content: "two dims"}
	if err := s.Add(context.Background(), []Document{doc}, [][]float32{{1, 0}}); err == nil {
		t.Fatal("want error on mismatched embedding dimension, got nil")
	}
}

func Test_SQLiteStore_DeleteByTitle(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	addOne(t, s, "a1", "keep", "kept", []float32{1, 0})
	addOne(t, s, "b1", "drop", "dropped one", []float32{0, 1})
	addOne(t, s, "b2", "drop", "dropped two", []float32{0.5, 0.5})

	if err := s.DeleteByTitle(ctx, "drop"); err != nil {
		t.Fatalf("delete by title: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 chunk after delete, got %d", n)
	}
	docs, err := s.Search(ctx, []float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 1 || docs[0].Title != "keep" {
		t.Errorf("unexpected survivors: %v", docs)
	}
}

func Test_SQLiteStore_MetadataRoundTrip(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	addOne(t, s, "m1", "policy", "chunk text", []float32{1, 0})

	docs, err := s.Search(context.Background(), []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if got := docs[0].Metadata["title"]; got != "policy" {
		t.Errorf("metadata title: want %q, got %q", "policy", got)
	}
}

func Test_SQLiteStore_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	s, err := OpenSQLite(dir, "hrlaw")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	addOne(t, s, "p1", "policy", "durable chunk", []float32{1, 0})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// get_or_create is idempotent: reopening the same path must find the data.
	reopened, err := OpenSQLite(dir, "hrlaw")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	n, err := reopened.Count(context.Background())
	if err != nil {
		t.Fatalf("count after reopen: %v", err)
	}
	if n != 1 {
		t.Errorf("want 1 chunk after reopen, got %d", n)
	}
}

func Test_SQLiteStore_CollectionsAreIsolated(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	a, err := OpenSQLite(dir, "hrlaw")
	if err != nil {
		t.Fatalf("open hrlaw: %v", err)
	}
	defer a.Close()
	b, err := OpenSQLite(dir, "other")
	if err != nil {
		t.Fatalf("open other: %v", err)
	}
	defer b.Close()

	doc := Document{ID: "x", Title: "t", Content: "c"}
	if err := a.Add(context.Background(), []Document{doc}, [][]float32{{1, 0}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	n, err := b.Count(context.Background())
	if err != nil {
		t.Fatalf("count other: %v", err)
	}
	if n != 0 {
		t.Errorf("collection isolation broken: other has %d chunks", n)
	}
}
