package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/foodscope/foodscope/domain/county"
	"github.com/foodscope/foodscope/infrastructure/provider"
)

// fakeEmbedder maps known texts to fixed vectors so retrieval order is
// predictable in tests.
type fakeEmbedder struct {
	vectors  map[string][]float32
	capacity int
	calls    atomic.Int32
	err      error
}

func newFakeEmbedder(vectors map[string][]float32) *fakeEmbedder {
	return &fakeEmbedder{vectors: vectors, capacity: 2}
}

func (f *fakeEmbedder) Embed(_ context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return provider.EmbeddingResponse{}, f.err
	}
	texts := req.Texts()
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, ok := f.vectors[text]
		if !ok {
			return provider.EmbeddingResponse{}, fmt.Errorf("no fake vector for %q", text)
		}
		out[i] = append([]float32(nil), v...)
	}
	return provider.NewEmbeddingResponse(out, provider.NewUsage(0, 0, 0)), nil
}

func (f *fakeEmbedder) Capacity() int { return f.capacity }

func (f *fakeEmbedder) Close() error { return nil }

// seamEmbedder exposes a fakeEmbedder through the domain search interface,
// the way the client adapts its provider.
type seamEmbedder struct {
	inner *fakeEmbedder
}

func (s seamEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := s.inner.Embed(ctx, provider.NewEmbeddingRequest(texts))
	if err != nil {
		return nil, err
	}
	return resp.Embeddings(), nil
}

// fakeTextGen echoes a canned answer and records the prompt it saw.
type fakeTextGen struct {
	answer string
	prompt string
	err    error
}

func (f *fakeTextGen) Generate(_ context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.prompt = prompt
	return f.answer, nil
}

// fakeChunkStore keeps chunks in memory.
type fakeChunkStore struct {
	chunks []county.Chunk
	err    error
}

func (f *fakeChunkStore) All(_ context.Context) ([]county.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.chunks, nil
}

func (f *fakeChunkStore) Count(_ context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.chunks), nil
}

func (f *fakeChunkStore) ReplaceAll(_ context.Context, chunks []county.Chunk) error {
	if f.err != nil {
		return f.err
	}
	f.chunks = chunks
	return nil
}
