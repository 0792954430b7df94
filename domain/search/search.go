// Package search defines the retrieval contracts shared by the index,
// providers, and application services.
package search

import (
	"context"

	"github.com/foodscope/foodscope/domain/county"
)

// Embedder converts texts into dense vectors. Implementations must return
// one vector per input text, in input order, all with the same dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces a free-text answer from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ScoredChunk is one retrieval hit: a chunk and its similarity to the query,
// clamped to [0, 1].
type ScoredChunk struct {
	chunk      county.Chunk
	similarity float64
}

// NewScoredChunk creates a ScoredChunk.
func NewScoredChunk(chunk county.Chunk, similarity float64) ScoredChunk {
	return ScoredChunk{chunk: chunk, similarity: similarity}
}

// Chunk returns the retrieved chunk.
func (s ScoredChunk) Chunk() county.Chunk { return s.chunk }

// Similarity returns the clamped similarity score.
func (s ScoredChunk) Similarity() float64 { return s.similarity }
