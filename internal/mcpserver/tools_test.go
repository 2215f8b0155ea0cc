package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRagService struct {
	answer    ragModel.RAGQuery
	answerErr error
	health    ragModel.IndexHealth
	analytics ragModel.Analytics
	statsErr  error

	question, language string
}

func (m *mockRagService) Answer(ctx context.Context, question, language string) (ragModel.RAGQuery, error) {
	m.question, m.language = question, language
	return m.answer, m.answerErr
}

func (m *mockRagService) Health(ctx context.Context) ragModel.IndexHealth {
	return m.health
}

func (m *mockRagService) Analytics(ctx context.Context) (ragModel.Analytics, error) {
	return m.analytics, m.statsErr
}

func (m *mockRagService) AttachFeedback(ctx context.Context, queryId int64, feedback ragModel.Feedback) error {
	return nil
}

func TestNew_RequiresService(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrMissingService)
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the answer with sources", func(t *testing.T) {
		svc := &mockRagService{answer: ragModel.RAGQuery{
			Id: 11, Answer: "20% [1]", Confidence: 0.82, ConfidenceLevel: ragModel.ConfidenceHigh, Outcome: ragModel.OutcomeAnswered,
			Sources: []ragModel.SourceRef{{DocumentId: 3, DocumentTitle: "VAT", Country: "FR", ChunkPreview: "The rate…"}},
		}}
		server, err := New(svc)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "VAT rate?", Language: "fr"})

		require.NoError(t, err)
		assert.Equal(t, "VAT rate?", svc.question)
		assert.Equal(t, "fr", svc.language)
		assert.Equal(t, int64(11), output.QueryId)
		assert.Equal(t, "high", output.ConfidenceLevel)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "VAT", output.Sources[0].DocumentTitle)
	})

	t.Run("degraded answers are results", func(t *testing.T) {
		svc := &mockRagService{answer: ragModel.RAGQuery{Answer: "unavailable", Outcome: ragModel.OutcomeEmbedderUnavailable}}
		server, err := New(svc)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.NoError(t, err)
		assert.Equal(t, "embedder_unavailable", output.Outcome)
		assert.NotNil(t, output.Sources)
	})

	t.Run("validation errors are tool errors", func(t *testing.T) {
		svc := &mockRagService{answerErr: &ragModel.ValidationError{Field: "question", Reason: "must not be empty"}}
		server, err := New(svc)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ragModel.ErrValidation)
	})
}

func TestServer_handleStatusAndAnalytics(t *testing.T) {
	ctx := context.Background()
	svc := &mockRagService{
		health: ragModel.IndexHealth{EmbedderAvailable: true, TotalChunks: 40},
		analytics: ragModel.Analytics{
			TotalQueries: 5, AverageConfidence: 0.5,
			FeedbackSummary: ragModel.FeedbackSummary{Helpful: 2, NotHelpful: 1, None: 2},
		},
	}
	server, err := New(svc)
	require.NoError(t, err)

	_, status, err := server.handleStatus(ctx, nil, StatusInput{})
	require.NoError(t, err)
	assert.True(t, status.EmbedderAvailable)
	assert.False(t, status.GeneratorAvailable)
	assert.Equal(t, int64(40), status.TotalChunks)

	_, analytics, err := server.handleAnalytics(ctx, nil, AnalyticsInput{})
	require.NoError(t, err)
	assert.Equal(t, AnalyticsOutput{TotalQueries: 5, AverageConfidence: 0.5, Helpful: 2, NotHelpful: 1, NoFeedback: 2}, analytics)

	svc.statsErr = errors.New("redis down")
	_, _, err = server.handleAnalytics(ctx, nil, AnalyticsInput{})
	assert.Error(t, err)
}

func TestServer_Handler(t *testing.T) {
	server, err := New(&mockRagService{})
	require.NoError(t, err)

	// a bare GET without a session is rejected by the transport, not routed to a tool
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.GreaterOrEqual(t, rec.Code, 400)
}
