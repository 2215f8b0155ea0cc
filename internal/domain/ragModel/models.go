package ragModel

import (
	"time"
)

// DocumentChunk is a contiguous slice of one document's extracted text.
// Offsets count characters (code points), end exclusive.
type DocumentChunk struct {
	DocumentId  int64     `json:"document_id" db:"document_id"`
	ChunkId     int64     `json:"chunk_id" db:"id"`
	ChunkIndex  int       `json:"chunk_index" db:"chunk_index"`
	OffsetStart int       `json:"offset_start" db:"offset_start"`
	OffsetEnd   int       `json:"offset_end" db:"offset_end"`
	Text        string    `json:"text" db:"content"`
	Vector      []float32 `json:"-" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"-"`
}

// ScoredChunk is one search hit together with the document it belongs to.
type ScoredChunk struct {
	Chunk         DocumentChunk
	Score         float64
	DocumentTitle string
	Country       string
}

// IndexedDocument is the index bookkeeping kept per document.
type IndexedDocument struct {
	DocumentId  int64     `json:"document_id"`
	Title       string    `json:"title"`
	Country     string    `json:"country"`
	ContentHash string    `json:"content_hash"`
	ChunkCount  int       `json:"chunk_count"`
	IndexedAt   time.Time `json:"indexed_at"`
}

type SourceRef struct {
	DocumentId    int64   `json:"document_id"`
	ChunkId       int64   `json:"chunk_id"`
	DocumentTitle string  `json:"document_title"`
	Country       string  `json:"country"`
	ChunkPreview  string  `json:"chunk_preview"`
	Score         float64 `json:"score"`
}

type Feedback string

const (
	FeedbackHelpful    Feedback = "helpful"
	FeedbackNotHelpful Feedback = "not_helpful"
)

func ParseFeedback(value string) (Feedback, error) {
	switch Feedback(value) {
	case FeedbackHelpful, FeedbackNotHelpful:
		return Feedback(value), nil
	}
	return "", &ValidationError{Field: "feedback", Reason: `must be "helpful" or "not_helpful"`}
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// QueryState is a step of the per-question state machine.
type QueryState string

const (
	StateReceived     QueryState = "Received"
	StateEmbedding    QueryState = "Embedding"
	StateRetrieving   QueryState = "Retrieving"
	StateShortCircuit QueryState = "ShortCircuit"
	StateGenerating   QueryState = "Generating"
	StateScored       QueryState = "Scored"
	StateLogged       QueryState = "Logged"
	StateReturned     QueryState = "Returned"
)

// Outcome records which path produced the answer.
type Outcome string

const (
	OutcomeAnswered            Outcome = "answered"
	OutcomeCached              Outcome = "cached"
	OutcomeEmbedderUnavailable Outcome = "embedder_unavailable"
	OutcomeStoreUnavailable    Outcome = "store_unavailable"
	OutcomeNoContext           Outcome = "no_context"
	OutcomeGenerationFailed    Outcome = "generation_failed"
	OutcomeGenerationTimeout   Outcome = "generation_timeout"
)

// Degraded reports whether the outcome carries an explanatory answer
// instead of a generated one.
func (o Outcome) Degraded() bool {
	return o != OutcomeAnswered && o != OutcomeCached
}

type RAGQuery struct {
	Id              int64           `json:"query_id"`
	Question        string          `json:"question"`
	Language        string          `json:"language,omitempty"`
	Answer          string          `json:"answer"`
	Confidence      float64         `json:"confidence"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level"`
	Sources         []SourceRef     `json:"sources"`
	ResponseTimeMs  int64           `json:"response_time_ms"`
	CreatedAt       time.Time       `json:"created_at"`
	Feedback        *Feedback       `json:"feedback,omitempty"`
	Outcome         Outcome         `json:"outcome"`
	States          []QueryState    `json:"-"`
}

// IndexHealth is computed on demand and never persisted.
type IndexHealth struct {
	EmbedderAvailable  bool       `json:"embedder_available"`
	GeneratorAvailable bool       `json:"generator_available"`
	TotalChunks        int64      `json:"total_chunks"`
	LastQueryAt        *time.Time `json:"last_query_at"`
}

type FeedbackSummary struct {
	Helpful    int64 `json:"helpful"`
	NotHelpful int64 `json:"not_helpful"`
	None       int64 `json:"none"`
}

type Analytics struct {
	TotalQueries          int64           `json:"total_queries"`
	AverageConfidence     float64         `json:"average_confidence"`
	AverageResponseTimeMs float64         `json:"average_response_time_ms"`
	FeedbackSummary       FeedbackSummary `json:"feedback_summary"`
}
