package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// nWords builds a deterministic text of n distinct words.
func nWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func Test_New_RejectsBadParameters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 11},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tc.size, tc.overlap)
			if !errors.Is(err, rag.ErrInvalidChunking) {
				t.Fatalf("want ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func Test_Split_EmptyInputYieldsNoChunks(t *testing.T) {
	t.Parallel()

	c, err := New(DefaultChunkSize, DefaultOverlap)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if chunks := c.Split(input); len(chunks) != 0 {
			t.Errorf("input %q: want 0 chunks, got %d", input, len(chunks))
		}
	}
}

func Test_Split_ChunkCountFormula(t *testing.T) {
	t.Parallel()

	// For N words, size C, overlap O (with N > O) the chunk count is
	// ceil((N-O)/(C-O)).
	tests := []struct {
		name    string
		n       int
		size    int
		overlap int
		want    int
	}{
		{"exactly one window", 1200, 1200, 200, 1},
		{"just over one window", 1400, 1200, 200, 2},
		{"short document", 600, 1200, 200, 1},
		{"three windows", 2500, 1200, 200, 3},
		{"boundary of second window", 2200, 1200, 200, 2},
		{"no overlap", 30, 10, 0, 3},
		{"single word", 1, 1200, 200, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c, err := New(tc.size, tc.overlap)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			chunks := c.Split(nWords(tc.n))
			if len(chunks) != tc.want {
				t.Fatalf("N=%d C=%d O=%d: want %d chunks, got %d", tc.n, tc.size, tc.overlap, tc.want, len(chunks))
			}

			formula := ((tc.n - tc.overlap) + (tc.size - tc.overlap) - 1) / (tc.size - tc.overlap)
			if tc.n > tc.overlap && len(chunks) != formula {
				t.Errorf("chunk count %d disagrees with ceil((N-O)/(C-O)) = %d", len(chunks), formula)
			}
		})
	}
}

func Test_Split_SecondWindowStartsAtSizeMinusOverlap(t *testing.T) {
	t.Parallel()

	c, err := New(1200, 200)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	chunks := c.Split(nWords(1400))
	if len(chunks) != 2 {
		t.Fatalf("want 2 chunks, got %d", len(chunks))
	}
	secondWords := strings.Fields(chunks[1])
	if secondWords[0] != "w1000" {
		t.Errorf("second chunk should start at word index 1000, starts at %q", secondWords[0])
	}
	if len(secondWords) != 400 {
		t.Errorf("second chunk should hold the remaining 400 words, got %d", len(secondWords))
	}
}

func Test_Split_ReconstructsOriginalSequence(t *testing.T) {
	t.Parallel()

	c, err := New(50, 10)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	original := strings.Fields(nWords(137))
	chunks := c.Split(nWords(137))

	// Dropping each chunk's leading overlap (except the first) and
	// concatenating must reproduce the original word sequence.
	var rebuilt []string
	for i, ch := range chunks {
		words := strings.Fields(ch)
		if i > 0 {
			words = words[c.Overlap():]
		}
		rebuilt = append(rebuilt, words...)
	}

	if len(rebuilt) != len(original) {
		t.Fatalf("rebuilt %d words, original %d", len(rebuilt), len(original))
	}
	for i := range original {
		if rebuilt[i] != original[i] {
			t.Fatalf("word %d: want %q, got %q", i, original[i], rebuilt[i])
		}
	}
}

func Test_Split_Deterministic(t *testing.T) {
	t.Parallel()

	c, err := New(40, 15)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	input := nWords(321)
	first := c.Split(input)
	second := c.Split(input)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func Test_Split_NoEmptyChunks(t *testing.T) {
	t.Parallel()

	c, err := New(7, 3)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	for n := 1; n <= 40; n++ {
		for _, ch := range c.Split(nWords(n)) {
			if strings.TrimSpace(ch) == "" {
				t.Fatalf("N=%d produced an empty chunk", n)
			}
		}
	}
}
