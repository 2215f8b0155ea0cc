package chunker

import (
	"strings"
	"testing"

	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reconstruct stitches chunks back together by dropping each chunk's overlap
// with its predecessor.
func reconstruct(t *testing.T, chunks []ragModel.DocumentChunk) string {
	t.Helper()
	var b strings.Builder
	for i, c := range chunks {
		runes := []rune(c.Text)
		if i == 0 {
			b.WriteString(c.Text)
			continue
		}
		overlap := chunks[i-1].OffsetEnd - c.OffsetStart
		require.GreaterOrEqual(t, overlap, 0, "gap before chunk %d", i)
		require.LessOrEqual(t, overlap, len(runes), "chunk %d fully inside its predecessor", i)
		b.WriteString(string(runes[overlap:]))
	}
	return b.String()
}

func assertCoverage(t *testing.T, text string, chunks []ragModel.DocumentChunk) {
	t.Helper()
	runes := []rune(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 0, chunks[0].OffsetStart)
	assert.Equal(t, len(runes), chunks[len(chunks)-1].OffsetEnd)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex, "indices must be contiguous")
		assert.Less(t, c.OffsetStart, c.OffsetEnd)
		assert.Equal(t, string(runes[c.OffsetStart:c.OffsetEnd]), c.Text)
		if i > 0 {
			assert.Greater(t, c.OffsetStart, chunks[i-1].OffsetStart, "chunks must advance")
			assert.LessOrEqual(t, c.OffsetStart, chunks[i-1].OffsetEnd, "no gaps between chunks")
		}
	}
	assert.Equal(t, text, reconstruct(t, chunks))
}

func TestChunk_ThreeSentenceScenario(t *testing.T) {
	text := "Sentence one. Sentence two. Sentence three."
	c := New(WithTargetLength(20), WithOverlap(5))

	chunks := c.Chunk(42, text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assertCoverage(t, text, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, int64(42), chunk.DocumentId)
	}
	assert.Equal(t, "Sentence one. ", chunks[0].Text, "first cut lands on the sentence boundary")
}

func TestChunk_EmptyInput(t *testing.T) {
	c := New()
	for _, text := range []string{"", "   ", "\n\n\t  \n"} {
		assert.Empty(t, c.Chunk(1, text), "input %q", text)
	}
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	text := "A short approved document."
	chunks := New().Chunk(7, text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, 0, chunks[0].OffsetStart)
	assert.Equal(t, len([]rune(text)), chunks[0].OffsetEnd)
}

func TestChunk_Coverage(t *testing.T) {
	paragraph := "The ministry publishes its annual report in March. Funding for rural clinics rose by twelve percent! " +
		"Did the reform reduce waiting times? Early figures suggest it did.\n"
	tests := []struct {
		name    string
		text    string
		target  int
		overlap int
	}{
		{"structured prose", strings.Repeat(paragraph, 20), 500, 50},
		{"paragraphs", strings.Repeat(paragraph+"\n", 15), 300, 40},
		{"small target", strings.Repeat(paragraph, 3), 40, 8},
		{"no whitespace", strings.Repeat("abcdefghij", 130), 500, 50},
		{"multi language", strings.Repeat("Der Bericht wurde veröffentlicht. 报告已经发布。Le rapport est publié. ", 30), 120, 20},
		{"zero overlap", strings.Repeat(paragraph, 10), 200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := New(WithTargetLength(tt.target), WithOverlap(tt.overlap)).Chunk(3, tt.text)
			assertCoverage(t, tt.text, chunks)
			for _, chunk := range chunks {
				assert.LessOrEqual(t, chunk.OffsetEnd-chunk.OffsetStart, tt.target)
			}
		})
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("Policy text with several sentences. Another one follows here.\n\n", 40)
	c := New()
	first := c.Chunk(9, text)
	second := New().Chunk(9, text)
	assert.Equal(t, first, second)
}

func TestChunk_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 1200)
	chunks := New(WithTargetLength(500), WithOverlap(50)).Chunk(1, text)

	require.Len(t, chunks, 3)
	assert.Equal(t, 500, chunks[0].OffsetEnd)
	assert.Equal(t, 450, chunks[1].OffsetStart)
	assert.Equal(t, 950, chunks[1].OffsetEnd)
	assertCoverage(t, text, chunks)
}

func TestChunk_PrefersParagraphOverSentence(t *testing.T) {
	first := strings.Repeat("word ", 14) + "end.\n\n"
	second := "Next paragraph starts. " + strings.Repeat("more words ", 10)
	text := first + second

	chunks := New(WithTargetLength(100), WithOverlap(10)).Chunk(1, text)

	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, len([]rune(first)), chunks[0].OffsetEnd)
}

func TestChunk_OverlapStartsOnWord(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta. ", 50)
	chunks := New(WithTargetLength(100), WithOverlap(20)).Chunk(1, text)

	runes := []rune(text)
	for _, c := range chunks[1:] {
		assert.True(t, runes[c.OffsetStart-1] == ' ', "chunk %d starts mid-word", c.ChunkIndex)
	}
}

func TestNew_ClampsOverlap(t *testing.T) {
	c := New(WithTargetLength(100), WithOverlap(80))
	assert.Equal(t, 25, c.overlap)

	c = New(WithTargetLength(-1), WithOverlap(-3))
	assert.Equal(t, 500, c.targetLength)
	assert.Equal(t, 50, c.overlap)
}
