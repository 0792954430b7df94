package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/foodscope/foodscope/domain/county"
	"github.com/foodscope/foodscope/domain/search"
	"github.com/foodscope/foodscope/infrastructure/index"
	"github.com/foodscope/foodscope/internal/config"
)

// State is the lifecycle state of the RAG service.
type State string

const (
	// StateUninitialized means no initialization attempt has been made.
	StateUninitialized State = "uninitialized"
	// StateInitializing means artifacts are being loaded.
	StateInitializing State = "initializing"
	// StateReady means the service can answer questions.
	StateReady State = "ready"
	// StateDegraded means artifacts or credentials are unavailable. The
	// process stays up and reports why instead of crashing.
	StateDegraded State = "degraded"
)

// Source identifies a chunk that grounded an answer.
type Source struct {
	county     string
	state      string
	highRisk   bool
	similarity float64
}

// NewSource creates a Source.
func NewSource(meta county.Metadata, similarity float64) Source {
	return Source{
		county:     meta.County,
		state:      meta.State,
		highRisk:   meta.HighRisk,
		similarity: similarity,
	}
}

// County returns the source county name.
func (s Source) County() string { return s.county }

// State returns the source state abbreviation.
func (s Source) State() string { return s.state }

// HighRisk reports whether the source county carries a risk annotation.
func (s Source) HighRisk() bool { return s.highRisk }

// Similarity returns the source's clamped similarity to the query.
func (s Source) Similarity() float64 { return s.similarity }

// Answer is a generated answer with the sources that grounded it, in
// retrieval order.
type Answer struct {
	text    string
	sources []Source
}

// NewAnswer creates an Answer.
func NewAnswer(text string, sources []Source) Answer {
	s := make([]Source, len(sources))
	copy(s, sources)
	return Answer{text: text, sources: s}
}

// Text returns the answer text.
func (a Answer) Text() string { return a.text }

// Sources returns the grounding sources in retrieval order.
func (a Answer) Sources() []Source {
	s := make([]Source, len(a.sources))
	copy(s, a.sources)
	return s
}

// ChunkLister loads the persisted chunk set.
type ChunkLister interface {
	All(ctx context.Context) ([]county.Chunk, error)
	Count(ctx context.Context) (int, error)
}

// RAG is the question-answering service. It lazily loads the index artifact
// and chunk set on first use; when they are missing, mismatched, or the
// generation endpoint lacks credentials, it degrades instead of failing the
// process, and every subsequent ask reports the reason.
type RAG struct {
	cfg      config.AppConfig
	chunks   ChunkLister
	embedder search.Embedder
	textGen  search.Generator
	logger   *slog.Logger

	mu        sync.Mutex
	state     State
	reason    string
	retriever *Retriever
	generator *Generator
}

// NewRAG creates an uninitialized RAG service. Initialization happens on
// the first Ask or an explicit Initialize call.
func NewRAG(cfg config.AppConfig, chunks ChunkLister, embedder search.Embedder, textGen search.Generator, logger *slog.Logger) *RAG {
	if logger == nil {
		logger = slog.Default()
	}
	return &RAG{
		cfg:      cfg,
		chunks:   chunks,
		embedder: embedder,
		textGen:  textGen,
		logger:   logger,
		state:    StateUninitialized,
	}
}

// State returns the current lifecycle state.
func (r *RAG) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// DegradedReason returns why the service degraded, or "" when it has not.
func (r *RAG) DegradedReason() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}

// Initialize loads the index artifact and chunk set. It is idempotent:
// once ready or degraded, repeated calls return the settled outcome without
// reloading.
func (r *RAG) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.initializeLocked(ctx)
}

func (r *RAG) initializeLocked(ctx context.Context) error {
	switch r.state {
	case StateReady:
		return nil
	case StateDegraded:
		return fmt.Errorf("%w: %s", ErrDegraded, r.reason)
	}

	r.state = StateInitializing
	r.logger.InfoContext(ctx, "initializing rag service",
		slog.String("index_path", r.cfg.IndexPath()))

	// Each capability loads independently; a failure marks that capability
	// unavailable but never aborts initialization.
	var reasons []string

	idx, err := index.Load(r.cfg.IndexPath())
	if err != nil {
		reasons = append(reasons, fmt.Sprintf("index artifact unavailable: %v", err))
	}

	var chunks []county.Chunk
	if idx != nil {
		chunks, err = r.chunks.All(ctx)
		if err != nil {
			reasons = append(reasons, fmt.Sprintf("chunk store unavailable: %v", err))
			idx = nil
		} else if len(chunks) != idx.Size() {
			reasons = append(reasons, fmt.Sprintf(
				"artifact pairing mismatch: index has %d vectors, store has %d chunks", idx.Size(), len(chunks)))
			idx = nil
		}
	}

	if r.embedder == nil {
		reasons = append(reasons, "no embedding model available: install a local model or configure EMBEDDING_ENDPOINT")
	}
	if idx != nil && r.embedder != nil {
		r.retriever = NewRetriever(r.embedder, idx, chunks, r.logger)
	}

	if r.textGen != nil {
		r.generator = NewGenerator(r.textGen)
	} else {
		reasons = append(reasons, "generation endpoint not configured: set GENERATION_ENDPOINT_API_KEY")
	}

	if len(reasons) > 0 {
		r.state = StateDegraded
		r.reason = strings.Join(reasons, "; ")
		r.logger.ErrorContext(ctx, "rag service degraded", slog.String("reason", r.reason))
		return fmt.Errorf("%w: %s", ErrDegraded, r.reason)
	}

	r.state = StateReady
	r.reason = ""
	r.logger.InfoContext(ctx, "rag service ready",
		slog.Int("chunks", len(chunks)),
		slog.Int("dimension", idx.Dimension()))
	return nil
}

// unavailableAnswer is returned instead of an error when retrieval cannot
// run: the caller still gets a well-formed answer, just one that explains
// the outage.
const unavailableAnswer = "The county data index is currently unavailable, so this question " +
	"cannot be answered. Rebuild the index and restart the service to restore answers."

// Retrieve embeds the query and returns the k most similar chunks. A k of
// zero or less falls back to the configured top-k. When the index or chunk
// set is not loaded the result is empty, not an error.
func (r *RAG) Retrieve(ctx context.Context, query string, k int) ([]search.ScoredChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	retriever, _ := r.lazyInit(ctx)
	if retriever == nil {
		return nil, nil
	}
	if k <= 0 {
		k = r.cfg.TopK()
	}
	return retriever.Retrieve(ctx, query, k)
}

// Ask answers a question grounded in the most similar county profiles.
// With retrieval unavailable it returns a fixed unavailability answer and
// no sources; with only generation unavailable it returns ErrDegraded so
// the surface can report a misconfiguration rather than an empty answer.
func (r *RAG) Ask(ctx context.Context, query string) (Answer, error) {
	if strings.TrimSpace(query) == "" {
		return Answer{}, ErrEmptyQuery
	}
	retriever, generator := r.lazyInit(ctx)
	if retriever == nil {
		return NewAnswer(unavailableAnswer, nil), nil
	}
	if generator == nil {
		return Answer{}, fmt.Errorf("%w: %s", ErrDegraded, r.DegradedReason())
	}

	hits, err := retriever.Retrieve(ctx, query, r.cfg.TopK())
	if err != nil {
		return Answer{}, err
	}

	// BuildPrompt is not free, so only assemble it for the log when debug
	// output is actually enabled.
	if r.logger.Enabled(ctx, slog.LevelDebug) {
		r.logger.DebugContext(ctx, "retrieved context",
			slog.String("query", query),
			slog.Int("hits", len(hits)),
			slog.String("prompt", generator.BuildPrompt(query, hits)))
	}

	text, err := generator.Generate(ctx, query, hits)
	if err != nil {
		return Answer{}, err
	}

	sources := make([]Source, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, NewSource(hit.Chunk().Metadata(), hit.Similarity()))
	}
	return NewAnswer(text, sources), nil
}

// lazyInit initializes on first use and returns whichever of the retriever
// and generator are available.
func (r *RAG) lazyInit(ctx context.Context) (*Retriever, *Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// A degraded outcome is already logged and settled; capabilities that
	// did load remain usable.
	_ = r.initializeLocked(ctx)
	return r.retriever, r.generator
}
