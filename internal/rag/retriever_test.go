package rag

import (
	"context"
	"errors"
	"testing"
)

// fakeEmbedder is a test double for the Embedder interface.
type fakeEmbedder struct {
	// vector is returned for every input text.
	vector []float32
	// err, when set, is returned instead.
	err error
	// calls counts Embed invocations.
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

// fakeStore is a test double for the VectorStore interface that records the
// topK it was asked for.
type fakeStore struct {
	docs     []Document
	err      error
	lastTopK int
}

func (f *fakeStore) Add(context.Context, []Document, [][]float32) error { return nil }
func (f *fakeStore) DeleteByTitle(context.Context, string) error        { return nil }
func (f *fakeStore) Count(context.Context) (int, error)                 { return len(f.docs), nil }
func (f *fakeStore) Close() error                                       { return nil }

func (f *fakeStore) Search(_ context.Context, _ []float32, topK int) ([]Document, error) {
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	if topK > len(f.docs) {
		topK = len(f.docs)
	}
	return f.docs[:topK], nil
}

func Test_Retriever_NilDependenciesRejected(t *testing.T) {
	t.Parallel()

	if _, err := NewRetriever(nil, &fakeStore{}, 5); err == nil {
		t.Error("want error for nil embedder")
	}
	if _, err := NewRetriever(&fakeEmbedder{}, nil, 5); err == nil {
		t.Error("want error for nil store")
	}
}

func Test_Retriever_ClampsNonPositiveTopK(t *testing.T) {
	t.Parallel()

	store := &fakeStore{docs: []Document{{ID: "a"}, {ID: "b"}}}
	r, err := NewRetriever(&fakeEmbedder{vector: []float32{1}}, store, 0)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	for _, topK := range []int{0, -3} {
		if _, err := r.Retrieve(context.Background(), "q", topK); err != nil {
			t.Fatalf("retrieve with topK=%d: %v", topK, err)
		}
		if store.lastTopK != 5 {
			t.Errorf("topK=%d: want clamp to default 5, store saw %d", topK, store.lastTopK)
		}
	}
}

func Test_Retriever_ExplicitTopKPassedThrough(t *testing.T) {
	t.Parallel()

	store := &fakeStore{docs: []Document{{ID: "a"}}}
	r, err := NewRetriever(&fakeEmbedder{vector: []float32{1}}, store, 5)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	if _, err := r.Retrieve(context.Background(), "q", 3); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if store.lastTopK != 3 {
		t.Errorf("want store to see topK=3, got %d", store.lastTopK)
	}
}

func Test_Retriever_EmbedderFailurePropagates(t *testing.T) {
	t.Parallel()

	embErr := errors.New("embedding backend down")
	r, err := NewRetriever(&fakeEmbedder{err: embErr}, &fakeStore{}, 5)
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}

	_, err = r.Retrieve(context.Background(), "q", 5)
	if !errors.Is(err, embErr) {
		t.Fatalf("want wrapped embedder error, got %v", err)
	}
}
