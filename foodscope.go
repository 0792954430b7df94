// Package foodscope provides retrieval-augmented question answering over
// U.S. county food-environment and health data.
//
// A Client owns the full pipeline: an offline builder that joins the county
// source files, renders deterministic profiles, embeds them, and persists a
// paired vector index and chunk set; and an online service that answers
// questions grounded in the most similar profiles.
//
// Basic usage:
//
//	client, err := foodscope.New(
//	    foodscope.WithDataDir(".foodscope"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	answer, err := client.RAG.Ask(ctx, "Which counties face the highest composite risk?")
package foodscope

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/foodscope/foodscope/application/service"
	"github.com/foodscope/foodscope/domain/search"
	"github.com/foodscope/foodscope/infrastructure/persistence"
	"github.com/foodscope/foodscope/infrastructure/provider"
	"github.com/foodscope/foodscope/internal/config"
	"github.com/foodscope/foodscope/internal/database"
	"github.com/foodscope/foodscope/internal/log"
)

// Client is the main entry point for the foodscope library.
type Client struct {
	// RAG answers questions grounded in indexed county profiles.
	RAG *service.RAG

	// Builder runs the offline index build.
	Builder *service.Builder

	cfg     config.AppConfig
	db      database.Database
	chunks  *persistence.ChunkStore
	closers []io.Closer
	logger  *slog.Logger
	closed  atomic.Bool
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cc := newClientConfig()
	for _, opt := range opts {
		opt(cc)
	}
	cfg := cc.appConfig.Apply(cc.configOptions...)

	logger := cc.logger
	if logger == nil {
		logger = log.NewLogger(cfg).Slog()
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	chunkStore, err := persistence.NewChunkStore(db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	closers := cc.closers
	embedder := cc.embeddingProvider
	if embedder == nil {
		embedder, err = buildEmbedder(cfg, cc.cacheEmbeddings, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if embedder != nil {
			closers = append(closers, embedder)
		}
	}

	textGen := cc.textProvider
	if textGen == nil {
		textGen = buildGenerator(cfg, logger)
	}

	var searchEmbedder search.Embedder
	if embedder != nil {
		searchEmbedder = &embeddingAdapter{inner: embedder}
	}
	var searchGenerator search.Generator
	if textGen != nil {
		searchGenerator = &generationAdapter{inner: textGen}
	}

	client := &Client{
		RAG:     service.NewRAG(cfg, chunkStore, searchEmbedder, searchGenerator, logger),
		Builder: service.NewBuilder(cfg, chunkStore, embedder, logger),
		cfg:     cfg,
		db:      db,
		chunks:  chunkStore,
		closers: closers,
		logger:  logger,
	}
	return client, nil
}

// buildEmbedder picks the embedding backend: the configured remote endpoint
// when it has credentials, otherwise a local model if one is on disk. A nil
// result is not an error; the RAG service degrades with a reason instead.
func buildEmbedder(cfg config.AppConfig, cache bool, logger *slog.Logger) (provider.Embedder, error) {
	ep := cfg.EmbeddingEndpoint()
	if ep != nil && ep.IsConfigured() && ep.HasCredential() {
		var opts []provider.OpenAIOption
		if cache {
			opts = append(opts, provider.WithHTTPTransport(
				provider.NewCachingTransport(filepath.Join(cfg.DataDir(), "cache"), nil)))
		}
		remote, err := provider.NewOpenAI(ep, opts...)
		if err != nil {
			return nil, err
		}
		logger.Info("remote embedding provider enabled", slog.String("model", ep.Model()))
		return remote, nil
	}

	local := provider.NewHugotEmbedder(cfg.ModelDir())
	if local.Available() {
		logger.Info("local embedding provider enabled", slog.String("model_dir", cfg.ModelDir()))
		return local, nil
	}

	logger.Warn("no embedding provider available", slog.String("model_dir", cfg.ModelDir()))
	return nil, nil
}

// buildGenerator builds the text generation provider from the configured
// endpoint. A nil result degrades the RAG service rather than failing
// construction.
func buildGenerator(cfg config.AppConfig, logger *slog.Logger) provider.TextGenerator {
	ep := cfg.GenerationEndpoint()
	if ep == nil || !ep.IsConfigured() || !ep.HasCredential() {
		logger.Warn("generation endpoint not configured")
		return nil
	}
	gen, err := provider.NewOpenAI(ep)
	if err != nil {
		logger.Warn("generation provider unavailable", slog.Any("error", err))
		return nil
	}
	logger.Info("generation provider enabled", slog.String("model", ep.Model()))
	return gen
}

// embeddingAdapter adapts provider.Embedder to the domain search.Embedder
// interface.
type embeddingAdapter struct {
	inner provider.Embedder
}

func (a *embeddingAdapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.inner.Embed(ctx, provider.NewEmbeddingRequest(texts))
	if err != nil {
		return nil, err
	}
	return resp.Embeddings(), nil
}

// generationAdapter adapts provider.TextGenerator to the domain
// search.Generator interface.
type generationAdapter struct {
	inner provider.TextGenerator
}

func (a *generationAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := a.inner.ChatCompletion(ctx, provider.NewChatRequest([]provider.Message{
		provider.UserMessage(prompt),
	}))
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

// Close releases all resources.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return service.ErrClientClosed
	}

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	c.logger.Info("foodscope client closed")
	return nil
}

// Config returns the resolved application configuration.
func (c *Client) Config() config.AppConfig {
	return c.cfg
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}
