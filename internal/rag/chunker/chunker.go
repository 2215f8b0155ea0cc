// Package chunker splits extracted document text into overlapping segments
// sized for embedding. Boundaries are deterministic for a given input and
// configuration.
package chunker

import (
	"strings"
	"unicode"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
)

// break classes ordered from best to worst for semantic continuity
const (
	noBreak = iota
	wordBreak
	sentenceBreak
	lineBreak
	paragraphBreak
)

type Chunker struct {
	targetLength int
	overlap      int
}

type Option func(*Chunker)

// WithTargetLength sets the preferred chunk length in characters.
func WithTargetLength(length int) Option {
	return func(c *Chunker) {
		if length > 0 {
			c.targetLength = length
		}
	}
}

// WithOverlap sets how many characters consecutive chunks share.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

func New(opts ...Option) *Chunker {
	c := &Chunker{
		targetLength: config.ChunkTargetLength,
		overlap:      config.ChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	// a cut is never placed before the target midpoint, so the overlap has
	// to stay below it for every chunk to advance
	if c.overlap*2 >= c.targetLength {
		c.overlap = c.targetLength / 4
	}
	return c
}

// Chunk splits fullText into ordered chunks. Empty or whitespace-only text
// yields no chunks.
func (c *Chunker) Chunk(documentId int64, fullText string) []ragModel.DocumentChunk {
	if strings.TrimSpace(fullText) == "" {
		return nil
	}

	runes := []rune(fullText)
	total := len(runes)
	chunks := make([]ragModel.DocumentChunk, 0, total/(c.targetLength-c.overlap)+1)

	start := 0
	for {
		end := total
		if total-start > c.targetLength {
			end = c.cutPoint(runes, start)
		}
		chunks = append(chunks, ragModel.DocumentChunk{
			DocumentId:  documentId,
			ChunkIndex:  len(chunks),
			OffsetStart: start,
			OffsetEnd:   end,
			Text:        string(runes[start:end]),
		})
		if end == total {
			return chunks
		}
		start = c.nextStart(runes, start, end)
	}
}

// cutPoint finds the exclusive end of the chunk starting at start. It scans
// back from the target length to the midpoint and keeps the latest cut of the
// best class; without any candidate it cuts hard at the target length.
func (c *Chunker) cutPoint(runes []rune, start int) int {
	limit := start + c.targetLength
	floor := start + c.targetLength/2

	best := [paragraphBreak + 1]int{}
	for p := limit; p > floor; p-- {
		class := breakClass(runes, start, p)
		if class != noBreak && best[class] == 0 {
			best[class] = p
		}
	}
	for class := paragraphBreak; class > noBreak; class-- {
		if best[class] != 0 {
			return best[class]
		}
	}
	return limit
}

// breakClass classifies a cut placed right before runes[p].
func breakClass(runes []rune, start, p int) int {
	last := runes[p-1]
	switch {
	case last == '\n' && p-2 >= start && runes[p-2] == '\n':
		return paragraphBreak
	case last == '\n':
		return lineBreak
	case isFullStop(last) && isCJKStop(last):
		return sentenceBreak
	case unicode.IsSpace(last) && p-2 >= start && isFullStop(runes[p-2]):
		return sentenceBreak
	case unicode.IsSpace(last):
		return wordBreak
	}
	return noBreak
}

func isFullStop(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

func isCJKStop(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

// nextStart backs off by the overlap and then moves forward to the first word
// start inside the overlap window so the shared text does not begin mid-word.
func (c *Chunker) nextStart(runes []rune, start, end int) int {
	next := end - c.overlap
	if next <= start {
		next = start + 1
	}
	for i := next; i < end; i++ {
		if i > 0 && unicode.IsSpace(runes[i-1]) && !unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return next
}
