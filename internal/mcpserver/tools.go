package mcpserver

import (
	"context"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	Language string `json:"language,omitempty" jsonschema:"language of the answer, for example en or fr (default en)"`
}

type AskOutput struct {
	QueryId         int64          `json:"query_id"`
	Answer          string         `json:"answer"`
	Confidence      float64        `json:"confidence"`
	ConfidenceLevel string         `json:"confidence_level"`
	Outcome         string         `json:"outcome"`
	Sources         []SourceOutput `json:"sources"`
}

type SourceOutput struct {
	DocumentId    int64  `json:"document_id"`
	DocumentTitle string `json:"document_title"`
	Country       string `json:"country"`
	ChunkPreview  string `json:"chunk_preview"`
}

type StatusInput struct{}

type StatusOutput struct {
	EmbedderAvailable  bool   `json:"embedder_available"`
	GeneratorAvailable bool   `json:"generator_available"`
	TotalChunks        int64  `json:"total_chunks"`
	LastQueryAt        string `json:"last_query_at,omitempty" jsonschema:"RFC 3339 time of the last question"`
}

type AnalyticsInput struct{}

type AnalyticsOutput struct {
	TotalQueries          int64   `json:"total_queries"`
	AverageConfidence     float64 `json:"average_confidence"`
	AverageResponseTimeMs float64 `json:"average_response_time_ms"`
	Helpful               int64   `json:"helpful"`
	NotHelpful            int64   `json:"not_helpful"`
	NoFeedback            int64   `json:"no_feedback"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask_documents",
		Description: "Answer a question from the approved document index, with cited sources",
	}, s.handleAsk)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report model availability and the size of the document index",
	}, s.handleStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_analytics",
		Description: "Summarise logged questions, confidence and feedback",
	}, s.handleAnalytics)
}

// handleAsk logs the question like the HTTP endpoint does. Degraded answers
// are returned as results, not tool errors.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.rag.Answer(ctx, input.Question, input.Language)
	if err != nil {
		s.logger.WithContext(ctx).Warn("ask_documents failed", "error", err)
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		QueryId:         result.Id,
		Answer:          result.Answer,
		Confidence:      result.Confidence,
		ConfidenceLevel: string(result.ConfidenceLevel),
		Outcome:         string(result.Outcome),
		Sources:         make([]SourceOutput, len(result.Sources)),
	}
	for i, src := range result.Sources {
		output.Sources[i] = SourceOutput{
			DocumentId:    src.DocumentId,
			DocumentTitle: src.DocumentTitle,
			Country:       src.Country,
			ChunkPreview:  src.ChunkPreview,
		}
	}
	return nil, output, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
	health := s.rag.Health(ctx)
	output := StatusOutput{
		EmbedderAvailable:  health.EmbedderAvailable,
		GeneratorAvailable: health.GeneratorAvailable,
		TotalChunks:        health.TotalChunks,
	}
	if health.LastQueryAt != nil {
		output.LastQueryAt = health.LastQueryAt.UTC().Format(time.RFC3339)
	}
	return nil, output, nil
}

func (s *Server) handleAnalytics(ctx context.Context, _ *mcp.CallToolRequest, _ AnalyticsInput) (*mcp.CallToolResult, AnalyticsOutput, error) {
	analytics, err := s.rag.Analytics(ctx)
	if err != nil {
		return nil, AnalyticsOutput{}, err
	}
	return nil, toAnalyticsOutput(analytics), nil
}

func toAnalyticsOutput(a ragModel.Analytics) AnalyticsOutput {
	return AnalyticsOutput{
		TotalQueries:          a.TotalQueries,
		AverageConfidence:     a.AverageConfidence,
		AverageResponseTimeMs: a.AverageResponseTimeMs,
		Helpful:               a.FeedbackSummary.Helpful,
		NotHelpful:            a.FeedbackSummary.NotHelpful,
		NoFeedback:            a.FeedbackSummary.None,
	}
}
