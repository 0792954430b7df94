package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/foodscope/foodscope/domain/search"
)

// promptInstructions is the fixed preamble of every generation prompt. The
// style rules keep the model from leaking retrieval mechanics into answers.
const promptInstructions = `You are an expert in U.S. food environment and health analysis.
Use the following retrieved context to answer the user's question accurately.

FORMATTING & STYLE RULES:
1. NEVER mention words like "context", "provided data", "the text above", or "based on the information" in your response.
2. Speak directly as an expert performing the analysis.
3. Use **bold text** for key metrics like percentages or scores.
4. Use bullet points for lists of facts or recommendations.
5. Use Markdown TABLES when comparing data for two or more counties.
6. Keep your tone professional, authoritative, and data-driven.`

// Generator turns retrieved chunks into a grounded answer via a text
// generation capability.
type Generator struct {
	textGen search.Generator
}

// NewGenerator creates a Generator.
func NewGenerator(textGen search.Generator) *Generator {
	return &Generator{textGen: textGen}
}

// BuildPrompt assembles the generation prompt: instructions, the retrieved
// chunks tagged with their source county, and the question. Chunks appear in
// retrieval order.
func (g *Generator) BuildPrompt(query string, hits []search.ScoredChunk) string {
	blocks := make([]string, 0, len(hits))
	for _, hit := range hits {
		meta := hit.Chunk().Metadata()
		blocks = append(blocks, fmt.Sprintf("[Source: %s, %s] %s", meta.County, meta.State, hit.Chunk().Text()))
	}

	var b strings.Builder
	b.WriteString(promptInstructions)
	b.WriteString("\n\nContext:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nUser Question: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// Generate produces an answer for the query grounded in the retrieved
// chunks.
func (g *Generator) Generate(ctx context.Context, query string, hits []search.ScoredChunk) (string, error) {
	prompt := g.BuildPrompt(query, hits)

	answer, err := g.textGen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return answer, nil
}
