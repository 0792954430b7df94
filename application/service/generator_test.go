package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodscope/foodscope/domain/county"
	"github.com/foodscope/foodscope/domain/search"
)

func promptHits() []search.ScoredChunk {
	return []search.ScoredChunk{
		search.NewScoredChunk(county.NewChunk(0, "profile holmes", county.Metadata{County: "Holmes", State: "MS", HighRisk: true}), 0.9),
		search.NewScoredChunk(county.NewChunk(2, "profile sioux", county.Metadata{County: "Sioux", State: "ND"}), 0.4),
	}
}

func TestBuildPromptLayout(t *testing.T) {
	g := NewGenerator(&fakeTextGen{})
	prompt := g.BuildPrompt("compare the counties", promptHits())

	assert.True(t, strings.HasPrefix(prompt, "You are an expert in U.S. food environment and health analysis."))
	assert.Contains(t, prompt, "FORMATTING & STYLE RULES:")
	assert.Contains(t, prompt, "Context:\n[Source: Holmes, MS] profile holmes\n\n[Source: Sioux, ND] profile sioux")
	assert.Contains(t, prompt, "User Question: compare the counties")
	assert.True(t, strings.HasSuffix(prompt, "Answer:"))
}

func TestBuildPromptPreservesRetrievalOrder(t *testing.T) {
	g := NewGenerator(&fakeTextGen{})
	prompt := g.BuildPrompt("q", promptHits())

	holmes := strings.Index(prompt, "[Source: Holmes, MS]")
	sioux := strings.Index(prompt, "[Source: Sioux, ND]")
	require.GreaterOrEqual(t, holmes, 0)
	require.GreaterOrEqual(t, sioux, 0)
	assert.Less(t, holmes, sioux)
}

func TestGenerateReturnsProviderContent(t *testing.T) {
	gen := &fakeTextGen{answer: "an answer"}
	g := NewGenerator(gen)

	text, err := g.Generate(context.Background(), "q", promptHits())
	require.NoError(t, err)
	assert.Equal(t, "an answer", text)
	assert.Contains(t, gen.prompt, "User Question: q")
}
