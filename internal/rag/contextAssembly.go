package rag

import (
	"strings"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
)

// assembleContext keeps chunks in rank order while they fit the character
// budget. The first chunk that does not fit ends the context, except the top
// chunk which is cut down to the budget instead.
func assembleContext(chunks []ragModel.ScoredChunk, budget int) ([]string, []ragModel.ScoredChunk) {
	var passages []string
	var used []ragModel.ScoredChunk
	remaining := budget
	for i, c := range chunks {
		runes := []rune(c.Chunk.Text)
		if len(runes) <= remaining {
			passages = append(passages, c.Chunk.Text)
			used = append(used, c)
			remaining -= len(runes)
			continue
		}
		if i == 0 {
			passages = append(passages, string(runes[:budget]))
			used = append(used, c)
		}
		break
	}
	return passages, used
}

func toSourceRefs(chunks []ragModel.ScoredChunk) []ragModel.SourceRef {
	refs := make([]ragModel.SourceRef, len(chunks))
	for i, c := range chunks {
		refs[i] = ragModel.SourceRef{
			DocumentId:    c.Chunk.DocumentId,
			ChunkId:       c.Chunk.ChunkId,
			DocumentTitle: c.DocumentTitle,
			Country:       c.Country,
			ChunkPreview:  preview(c.Chunk.Text, config.ChunkPreviewLength),
			Score:         c.Score,
		}
	}
	return refs
}

func preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}

func scoresOf(chunks []ragModel.ScoredChunk) []float64 {
	scores := make([]float64, len(chunks))
	for i, c := range chunks {
		scores[i] = c.Score
	}
	return scores
}
