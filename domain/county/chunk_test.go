package county_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodscope/foodscope/domain/county"
)

func TestBuildChunksAssignsPositionalIDs(t *testing.T) {
	records := []county.Record{
		{County: "Holmes", State: "MS"},
		{County: "Loving", State: "TX"},
		{County: "Sioux", State: "ND"},
	}

	chunks := county.BuildChunks(records)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.ID())
		assert.Equal(t, records[i].County, c.Metadata().County)
		assert.Equal(t, records[i].State, c.Metadata().State)
		assert.Equal(t, records[i].Profile(), c.Text())
	}
}

func TestBuildChunksHighRiskFlag(t *testing.T) {
	risk := county.NewRiskAnnotation(9.1, 1)
	records := []county.Record{
		{County: "Holmes", State: "MS", Risk: &risk},
		{County: "Loving", State: "TX"},
	}

	chunks := county.BuildChunks(records)
	require.Len(t, chunks, 2)

	meta := chunks[0].Metadata()
	assert.True(t, meta.HighRisk)
	require.NotNil(t, meta.CompositeRisk)
	assert.Equal(t, 9.1, *meta.CompositeRisk)
	require.NotNil(t, meta.Cluster)
	assert.Equal(t, 1, *meta.Cluster)

	meta = chunks[1].Metadata()
	assert.False(t, meta.HighRisk)
	assert.Nil(t, meta.CompositeRisk)
	assert.Nil(t, meta.Cluster)
}

func TestBuildChunksEmpty(t *testing.T) {
	assert.Empty(t, county.BuildChunks(nil))
}
