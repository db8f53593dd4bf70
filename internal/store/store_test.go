package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestLog(t *testing.T) *SQLiteLog {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndRecent(t *testing.T) {
	t.Parallel()

	s := openTestLog(t)
	ctx := context.Background()

	entries := []Entry{
		{SessionID: "s1", Question: "q1", Answer: "a1", Sources: []string{"labour-code"}},
		{SessionID: "s1", Question: "q2", Answer: "a2", Sources: []string{"labour-code", "policy"}},
		{SessionID: "s2", Question: "other", Answer: "x", Sources: nil},
	}
	for _, e := range entries {
		if err := s.Append(ctx, e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Question != "q1" || got[1].Question != "q2" {
		t.Errorf("order = [%s %s], want oldest-first", got[0].Question, got[1].Question)
	}
	if len(got[1].Sources) != 2 || got[1].Sources[0] != "labour-code" {
		t.Errorf("Sources = %v, want round-tripped titles", got[1].Sources)
	}
}

func TestRecentLimit(t *testing.T) {
	t.Parallel()

	s := openTestLog(t)
	ctx := context.Background()

	for _, q := range []string{"q1", "q2", "q3"} {
		if err := s.Append(ctx, Entry{SessionID: "s1", Question: q, Answer: "a"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
}

func TestRecentEmptySession(t *testing.T) {
	t.Parallel()

	s := openTestLog(t)
	got, err := s.Recent(context.Background(), "missing", 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d entries, want 0", len(got))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "questions.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Append(ctx, Entry{SessionID: "s", Question: "q", Answer: "a"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.Recent(ctx, "s", 1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Question != "q" {
		t.Fatalf("got %+v, want the persisted entry", got)
	}
}
