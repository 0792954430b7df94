package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodscope/foodscope/domain/county"
	"github.com/foodscope/foodscope/infrastructure/index"
	"github.com/foodscope/foodscope/internal/config"
)

const builderPrimaryCSV = `County,State,Population
Holmes,MS,17955
Loving,TX,82
Sioux,ND,4366
`

const builderRiskCSV = `County,State,composite_risk,Cluster
Holmes,MS,8.2,1
`

func writeBuilderSources(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	primary := filepath.Join(dir, "counties.csv")
	risk := filepath.Join(dir, "risk.csv")
	require.NoError(t, os.WriteFile(primary, []byte(builderPrimaryCSV), 0o600))
	require.NoError(t, os.WriteFile(risk, []byte(builderRiskCSV), 0o600))
	return primary, risk
}

func builderVectors(t *testing.T) map[string][]float32 {
	t.Helper()
	risk := county.NewRiskAnnotation(8.2, 1)
	records := []county.Record{
		{County: "Holmes", State: "MS", Population: county.NewField("17955"), Risk: &risk},
		{County: "Loving", State: "TX", Population: county.NewField("82")},
		{County: "Sioux", State: "ND", Population: county.NewField("4366")},
	}
	chunks := county.BuildChunks(records)
	return map[string][]float32{
		chunks[0].Text(): {3, 0, 0},
		chunks[1].Text(): {0, 5, 0},
		chunks[2].Text(): {0, 0, 2},
	}
}

func TestBuilderBuildsPairedArtifacts(t *testing.T) {
	primary, risk := writeBuilderSources(t)
	cfg := config.NewAppConfigWithOptions(config.WithDataDir(t.TempDir()))
	store := &fakeChunkStore{}
	embedder := newFakeEmbedder(builderVectors(t))

	builder := NewBuilder(cfg, store, embedder, nil)
	result, err := builder.Build(context.Background(), NewBuildRequest(primary, risk))
	require.NoError(t, err)

	assert.False(t, result.Skipped())
	assert.Equal(t, 3, result.Chunks())
	assert.Equal(t, 3, result.Dimension())

	require.Len(t, store.chunks, 3)
	assert.Equal(t, "Holmes", store.chunks[0].Metadata().County)
	assert.True(t, store.chunks[0].Metadata().HighRisk)

	idx, err := index.Load(cfg.IndexPath())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Size())

	// Vectors are stored normalized, at the row of their chunk.
	hits, err := idx.Search([]float32{1, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 0, hits[0].Row)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
}

func TestBuilderBatchesRespectCapacity(t *testing.T) {
	primary, risk := writeBuilderSources(t)
	cfg := config.NewAppConfigWithOptions(config.WithDataDir(t.TempDir()))
	embedder := newFakeEmbedder(builderVectors(t))
	embedder.capacity = 2

	builder := NewBuilder(cfg, &fakeChunkStore{}, embedder, nil)
	_, err := builder.Build(context.Background(), NewBuildRequest(primary, risk))
	require.NoError(t, err)

	// 3 texts at capacity 2 means two batches.
	assert.Equal(t, int32(2), embedder.calls.Load())
}

func TestBuilderSkipsWhenArtifactExists(t *testing.T) {
	primary, risk := writeBuilderSources(t)
	cfg := config.NewAppConfigWithOptions(config.WithDataDir(t.TempDir()))
	store := &fakeChunkStore{}
	embedder := newFakeEmbedder(builderVectors(t))
	builder := NewBuilder(cfg, store, embedder, nil)
	ctx := context.Background()

	_, err := builder.Build(ctx, NewBuildRequest(primary, risk))
	require.NoError(t, err)
	firstCalls := embedder.calls.Load()

	result, err := builder.Build(ctx, NewBuildRequest(primary, risk))
	require.NoError(t, err)
	assert.True(t, result.Skipped())
	assert.Equal(t, firstCalls, embedder.calls.Load())

	result, err = builder.Build(ctx, NewBuildRequest(primary, risk).WithForce(true))
	require.NoError(t, err)
	assert.False(t, result.Skipped())
	assert.Greater(t, embedder.calls.Load(), firstCalls)
}

func TestBuilderEmptyDataset(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "counties.csv")
	risk := filepath.Join(dir, "risk.csv")
	require.NoError(t, os.WriteFile(primary, []byte("County,State\n"), 0o600))
	require.NoError(t, os.WriteFile(risk, []byte("County,State,composite_risk,Cluster\n"), 0o600))

	cfg := config.NewAppConfigWithOptions(config.WithDataDir(t.TempDir()))
	builder := NewBuilder(cfg, &fakeChunkStore{}, newFakeEmbedder(nil), nil)

	_, err := builder.Build(context.Background(), NewBuildRequest(primary, risk))
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestBuilderRequiresEmbedder(t *testing.T) {
	primary, risk := writeBuilderSources(t)
	cfg := config.NewAppConfigWithOptions(config.WithDataDir(t.TempDir()))
	builder := NewBuilder(cfg, &fakeChunkStore{}, nil, nil)

	_, err := builder.Build(context.Background(), NewBuildRequest(primary, risk))
	assert.ErrorIs(t, err, ErrNoEmbedder)
}
