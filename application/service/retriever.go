package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foodscope/foodscope/domain/county"
	"github.com/foodscope/foodscope/domain/search"
	"github.com/foodscope/foodscope/infrastructure/index"
)

// Retriever answers similarity queries against a loaded index and its
// paired chunk list. Chunks are held in memory in index-row order, so a hit
// row is also a chunk list position.
type Retriever struct {
	embedder search.Embedder
	idx      *index.Flat
	chunks   []county.Chunk
	logger   *slog.Logger
}

// NewRetriever creates a Retriever over the given index and chunks. The
// chunk list must be ordered by index row.
func NewRetriever(embedder search.Embedder, idx *index.Flat, chunks []county.Chunk, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: embedder, idx: idx, chunks: chunks, logger: logger}
}

// Retrieve embeds the query and returns the k most similar chunks in
// descending similarity order. Similarities are clamped to [0, 1]. Hit rows
// without a matching chunk are logged and skipped rather than failing the
// query.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]search.ScoredChunk, error) {
	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}
	hits, err := r.idx.Search(vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	results := make([]search.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Row < 0 || hit.Row >= len(r.chunks) {
			r.logger.WarnContext(ctx, "index row has no chunk, skipping",
				slog.Int("row", hit.Row), slog.Int("chunks", len(r.chunks)))
			continue
		}
		results = append(results, search.NewScoredChunk(r.chunks[hit.Row], clamp(float64(hit.Score))))
	}
	return results, nil
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
