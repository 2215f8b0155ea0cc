package rag

import (
	"strings"
	"testing"

	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfidence(t *testing.T) {
	tests := []struct {
		name      string
		scores    []float64
		retrieved int
		want      float64
	}{
		{"no chunks", nil, 0, 0},
		{"full retrieval", []float64{0.9, 0.8, 0.8, 0.7, 0.8}, 5, 0.6*0.9 + 0.4*0.8},
		{"partial retrieval capped", []float64{1, 1}, 2, 0.79},
		{"partial retrieval low", []float64{0.5}, 1, 0.5},
		{"negative similarity clamps", []float64{-0.4, -0.9}, 5, 0},
		{"above one clamps", []float64{1.2, 1.1, 1.3, 1.0, 1.0}, 5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.scores, tt.retrieved, 5)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestConfidence_MonotonicInScores(t *testing.T) {
	low := Confidence([]float64{0.6, 0.5, 0.5, 0.5, 0.5}, 5, 5)
	high := Confidence([]float64{0.7, 0.5, 0.5, 0.5, 0.5}, 5, 5)
	assert.Greater(t, high, low)
}

func TestConfidenceLevelFor(t *testing.T) {
	assert.Equal(t, ragModel.ConfidenceHigh, ConfidenceLevelFor(0.8))
	assert.Equal(t, ragModel.ConfidenceMedium, ConfidenceLevelFor(0.79))
	assert.Equal(t, ragModel.ConfidenceMedium, ConfidenceLevelFor(0.6))
	assert.Equal(t, ragModel.ConfidenceLow, ConfidenceLevelFor(0.59))
	assert.Equal(t, ragModel.ConfidenceLow, ConfidenceLevelFor(0))
}

func chunkWithText(id int64, text string, score float64) ragModel.ScoredChunk {
	return ragModel.ScoredChunk{Chunk: ragModel.DocumentChunk{ChunkId: id, Text: text}, Score: score}
}

func TestAssembleContext(t *testing.T) {
	chunks := []ragModel.ScoredChunk{
		chunkWithText(1, strings.Repeat("a", 40), 0.9),
		chunkWithText(2, strings.Repeat("b", 40), 0.8),
		chunkWithText(3, strings.Repeat("c", 40), 0.7),
	}

	passages, used := assembleContext(chunks, 100)
	require.Len(t, used, 2, "lowest ranked chunk is dropped first")
	assert.Equal(t, []int64{1, 2}, []int64{used[0].Chunk.ChunkId, used[1].Chunk.ChunkId})
	assert.Len(t, passages, 2)

	passages, used = assembleContext(chunks, 1000)
	assert.Len(t, used, 3)
	assert.Len(t, passages, 3)

	passages, used = assembleContext(chunks, 25)
	require.Len(t, used, 1, "top chunk is trimmed rather than dropped")
	assert.Equal(t, 25, len([]rune(passages[0])))
}

func TestAssembleContext_CountsCharacters(t *testing.T) {
	chunks := []ragModel.ScoredChunk{chunkWithText(1, strings.Repeat("日", 10), 0.9), chunkWithText(2, strings.Repeat("本", 10), 0.8)}
	_, used := assembleContext(chunks, 20)
	assert.Len(t, used, 2)
}

func TestToSourceRefs_Preview(t *testing.T) {
	c := chunkWithText(7, strings.Repeat("word ", 100), 0.5)
	c.Chunk.DocumentId = 3
	c.DocumentTitle = "Title"
	c.Country = "DE"
	refs := toSourceRefs([]ragModel.ScoredChunk{c})
	require.Len(t, refs, 1)
	assert.Equal(t, int64(3), refs[0].DocumentId)
	assert.Equal(t, int64(7), refs[0].ChunkId)
	assert.Equal(t, "Title", refs[0].DocumentTitle)
	assert.LessOrEqual(t, len([]rune(refs[0].ChunkPreview)), 201)
	assert.True(t, strings.HasSuffix(refs[0].ChunkPreview, "…"))
}
