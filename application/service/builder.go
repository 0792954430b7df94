package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/foodscope/foodscope/domain/county"
	"github.com/foodscope/foodscope/infrastructure/dataset"
	"github.com/foodscope/foodscope/infrastructure/index"
	"github.com/foodscope/foodscope/infrastructure/provider"
	"github.com/foodscope/foodscope/internal/config"
)

// ErrNoRecords indicates the source files produced no county records.
var ErrNoRecords = errors.New("foodscope: no county records to index")

// ErrNoEmbedder indicates no embedding model is available for the build.
var ErrNoEmbedder = errors.New("foodscope: no embedding model available")

// ChunkReplacer atomically swaps the persisted chunk set.
type ChunkReplacer interface {
	ReplaceAll(ctx context.Context, chunks []county.Chunk) error
}

// BuildRequest describes one offline index build.
type BuildRequest struct {
	primaryPath string
	riskPath    string
	force       bool
}

// NewBuildRequest creates a BuildRequest for the given source files.
func NewBuildRequest(primaryPath, riskPath string) BuildRequest {
	return BuildRequest{primaryPath: primaryPath, riskPath: riskPath}
}

// WithForce returns a request that rebuilds even when an artifact exists.
func (r BuildRequest) WithForce(force bool) BuildRequest {
	r.force = force
	return r
}

// PrimaryPath returns the county file path.
func (r BuildRequest) PrimaryPath() string { return r.primaryPath }

// RiskPath returns the risk annotation file path.
func (r BuildRequest) RiskPath() string { return r.riskPath }

// Force reports whether an existing artifact should be rebuilt.
func (r BuildRequest) Force() bool { return r.force }

// BuildResult summarizes a completed build.
type BuildResult struct {
	chunks    int
	dimension int
	skipped   bool
}

// Chunks returns the number of indexed chunks.
func (r BuildResult) Chunks() int { return r.chunks }

// Dimension returns the embedding dimension.
func (r BuildResult) Dimension() int { return r.dimension }

// Skipped reports whether the build was skipped because an artifact already
// exists.
func (r BuildResult) Skipped() bool { return r.skipped }

// Builder runs the offline pipeline: load and join the source files, render
// profiles, embed them, and persist the paired index artifact and chunk
// set.
type Builder struct {
	cfg      config.AppConfig
	store    ChunkReplacer
	embedder provider.Embedder
	logger   *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(cfg config.AppConfig, store ChunkReplacer, embedder provider.Embedder, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, store: store, embedder: embedder, logger: logger}
}

// Build runs the pipeline. Without force, an existing index artifact makes
// the build a no-op. The chunk set is replaced before the index file is
// renamed into place, so a failure in between is detected as a pairing
// mismatch at load time rather than serving mixed artifacts.
func (b *Builder) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	if b.embedder == nil {
		return BuildResult{}, ErrNoEmbedder
	}
	if !req.Force() {
		if _, err := os.Stat(b.cfg.IndexPath()); err == nil {
			b.logger.InfoContext(ctx, "index artifact exists, skipping build",
				slog.String("path", b.cfg.IndexPath()))
			return BuildResult{skipped: true}, nil
		}
	}

	records, err := dataset.LoadRecords(req.PrimaryPath(), req.RiskPath())
	if err != nil {
		return BuildResult{}, err
	}
	if len(records) == 0 {
		return BuildResult{}, ErrNoRecords
	}

	chunks := county.BuildChunks(records)
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text()
	}

	b.logger.InfoContext(ctx, "embedding county profiles",
		slog.Int("count", len(texts)))

	vectors, err := b.embedAll(ctx, texts)
	if err != nil {
		return BuildResult{}, err
	}

	dim := len(vectors[0])
	idx, err := index.NewFlat(dim)
	if err != nil {
		return BuildResult{}, err
	}
	for _, v := range vectors {
		index.Normalize(v)
	}
	if err := idx.Add(vectors); err != nil {
		return BuildResult{}, err
	}

	if err := b.store.ReplaceAll(ctx, chunks); err != nil {
		return BuildResult{}, err
	}
	if err := idx.Save(b.cfg.IndexPath()); err != nil {
		return BuildResult{}, err
	}

	b.logger.InfoContext(ctx, "index build complete",
		slog.Int("chunks", len(chunks)),
		slog.Int("dimension", dim),
		slog.String("path", b.cfg.IndexPath()))
	return BuildResult{chunks: len(chunks), dimension: dim}, nil
}

// embedAll embeds all texts in capacity-sized batches, a bounded number in
// flight at once. Results land at their batch offset, so output order
// matches input order regardless of completion order.
func (b *Builder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	batchSize := b.embedder.Capacity()
	if batchSize <= 0 || batchSize > config.DefaultEmbedBatchSize {
		batchSize = config.DefaultEmbedBatchSize
	}

	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.DefaultEmbedParallelism)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			resp, err := b.embedder.Embed(gctx, provider.NewEmbeddingRequest(texts[start:end]))
			if err != nil {
				return fmt.Errorf("failed to embed batch at %d: %w", start, err)
			}
			batch := resp.Embeddings()
			if len(batch) != end-start {
				return fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
