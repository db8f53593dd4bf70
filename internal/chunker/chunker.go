// Package chunker splits normalized document text into overlapping
// fixed-size word windows, the unit of storage and retrieval.
package chunker

import (
	"fmt"
	"strings"

	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// Defaults tuned for labour-law documents: windows large enough to keep a
// full statutory section together, with enough overlap that a clause split
// across a boundary still appears whole in one chunk.
const (
	// DefaultChunkSize is the window size in words.
	DefaultChunkSize = 1200
	// DefaultOverlap is the number of words shared between consecutive windows.
	DefaultOverlap = 200
)

// Chunker emits overlapping word windows over an input text.
type Chunker struct {
	// size is the window size in words.
	size int
	// overlap is the number of words shared between consecutive windows.
	overlap int
}

// New constructs a Chunker, validating the forward-progress invariant up
// front: overlap must be strictly smaller than size or the window start
// would never advance. Non-positive size or negative overlap are rejected
// for the same reason. Fail fast here rather than loop forever at ingest.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size %d: %w", size, rag.ErrInvalidChunking)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: size %d overlap %d: %w", size, overlap, rag.ErrInvalidChunking)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split breaks text into whitespace-delimited words and emits windows of
// size words joined by single spaces, advancing the start by size-overlap
// each step. The final window may be shorter. Empty input yields nil.
// Identical input always yields an identical sequence.
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)
	for start := 0; start < len(words); start += step {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Size returns the configured window size in words.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in words.
func (c *Chunker) Overlap() int { return c.overlap }
