package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/job"
	"github.com/go-chi/chi/v5"
)

type MockRagService struct {
	OnAnswer         func(ctx context.Context, question, language string) (ragModel.RAGQuery, error)
	OnHealth         func(ctx context.Context) ragModel.IndexHealth
	OnAnalytics      func(ctx context.Context) (ragModel.Analytics, error)
	OnAttachFeedback func(ctx context.Context, id int64, fb ragModel.Feedback) error
}

func (m *MockRagService) Answer(ctx context.Context, question, language string) (ragModel.RAGQuery, error) {
	return m.OnAnswer(ctx, question, language)
}

func (m *MockRagService) Health(ctx context.Context) ragModel.IndexHealth {
	if m.OnHealth != nil {
		return m.OnHealth(ctx)
	}
	return ragModel.IndexHealth{}
}

func (m *MockRagService) Analytics(ctx context.Context) (ragModel.Analytics, error) {
	return m.OnAnalytics(ctx)
}

func (m *MockRagService) AttachFeedback(ctx context.Context, id int64, fb ragModel.Feedback) error {
	return m.OnAttachFeedback(ctx, id, fb)
}

type MockJobQueue struct {
	OnEnqueue    func(ctx context.Context, jobType jobModel.JobType, id int64) (jobModel.Job, error)
	OnEnqueueAll func(ctx context.Context) (int, int, error)
	Jobs         map[string]jobModel.Job
}

func (m *MockJobQueue) Enqueue(ctx context.Context, jobType jobModel.JobType, id int64) (jobModel.Job, error) {
	return m.OnEnqueue(ctx, jobType, id)
}

func (m *MockJobQueue) EnqueueAll(ctx context.Context) (int, int, error) {
	return m.OnEnqueueAll(ctx)
}

func (m *MockJobQueue) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	j, ok := m.Jobs[id]
	return j, ok
}

type MockRetractor struct {
	OnRetract func(ctx context.Context, id int64) error
}

func (m *MockRetractor) RetractDocument(ctx context.Context, id int64) error {
	return m.OnRetract(ctx, id)
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/rag/question", h.PostQuestion)
	r.Post("/rag/process-document", h.PostProcessDocument)
	r.Post("/rag/process-all-documents", h.PostProcessAllDocuments)
	r.Get("/rag/status", h.GetStatus)
	r.Get("/rag/analytics", h.GetAnalytics)
	r.Post("/rag/feedback", h.PostFeedback)
	r.Get("/rag/index-jobs/{id}", h.GetIndexJob)
	r.Delete("/rag/documents/{id}", h.DeleteDocument)
	return r
}

func do(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), config.TRACE_ID_KEY, "trace-test"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestPostQuestion(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		answer     ragModel.RAGQuery
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name: "answered",
			body: `{"question":"What is VAT?","language":"en"}`,
			answer: ragModel.RAGQuery{Id: 5, Answer: "20% [1]", Confidence: 0.85, ConfidenceLevel: ragModel.ConfidenceHigh,
				Sources: []ragModel.SourceRef{{DocumentId: 1, DocumentTitle: "VAT", Country: "FR", ChunkPreview: "…", ChunkId: 3}},
				Outcome: ragModel.OutcomeAnswered},
			wantStatus: http.StatusOK,
		},
		{
			name:       "degraded answer is still 200",
			body:       `{"question":"What is VAT?"}`,
			answer:     ragModel.RAGQuery{Id: 6, Answer: "The embedding service is unavailable.", ConfidenceLevel: ragModel.ConfidenceLow, Outcome: ragModel.OutcomeEmbedderUnavailable},
			wantStatus: http.StatusOK,
		},
		{
			name:       "validation error",
			body:       `{"question":"   "}`,
			err:        &ragModel.ValidationError{Field: "question", Reason: "must not be empty"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidation,
		},
		{
			name:       "malformed json",
			body:       `{"question":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"question":"q","chatID":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockRagService{OnAnswer: func(ctx context.Context, q, lang string) (ragModel.RAGQuery, error) {
				return tt.answer, tt.err
			}}
			rec := do(t, newTestRouter(NewHandler(svc, nil, nil)), http.MethodPost, "/rag/question", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" {
				var envelope api.ErrorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
					t.Fatal(err)
				}
				if envelope.Code != tt.wantCode || envelope.TraceId != "trace-test" {
					t.Errorf("envelope = %+v", envelope)
				}
				return
			}
			var res api.AnswerResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatal(err)
			}
			if res.QueryId != tt.answer.Id || res.Answer != tt.answer.Answer {
				t.Errorf("response = %+v", res)
			}
			if res.Sources == nil {
				t.Error("sources must always be a list")
			}
		})
	}
}

func TestPostQuestion_SourceShape(t *testing.T) {
	svc := &MockRagService{OnAnswer: func(ctx context.Context, q, lang string) (ragModel.RAGQuery, error) {
		return ragModel.RAGQuery{Sources: []ragModel.SourceRef{{DocumentId: 1, ChunkId: 9, DocumentTitle: "T", Country: "DE", ChunkPreview: "p", Score: 0.9}}}, nil
	}}
	rec := do(t, newTestRouter(NewHandler(svc, nil, nil)), http.MethodPost, "/rag/question", `{"question":"q"}`)

	var raw map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	source := raw["sources"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"document_id", "document_title", "country", "chunk_preview"} {
		if _, ok := source[key]; !ok {
			t.Errorf("source is missing %q", key)
		}
	}
	if len(source) != 4 {
		t.Errorf("source has extra fields: %v", source)
	}
}

func TestPostFeedback(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantResult string
	}{
		{"success", `{"query_id":1,"feedback":"helpful"}`, nil, http.StatusOK, "success"},
		{"unknown query", `{"query_id":999999,"feedback":"not_helpful"}`, fmt.Errorf("query 999999: %w", ragModel.ErrNotFound), http.StatusNotFound, "not_found"},
		{"invalid value", `{"query_id":1,"feedback":"meh"}`, nil, http.StatusBadRequest, ""},
		{"store down", `{"query_id":1,"feedback":"helpful"}`, fmt.Errorf("%w: redis", ragModel.ErrStoreUnavailable), http.StatusServiceUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &MockRagService{OnAttachFeedback: func(ctx context.Context, id int64, fb ragModel.Feedback) error {
				called = true
				return tt.err
			}}
			rec := do(t, newTestRouter(NewHandler(svc, nil, nil)), http.MethodPost, "/rag/feedback", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantResult != "" {
				var res api.ResultResponse
				_ = json.Unmarshal(rec.Body.Bytes(), &res)
				if res.Result != tt.wantResult {
					t.Errorf("result = %q, want %q", res.Result, tt.wantResult)
				}
			}
			if tt.name == "invalid value" && called {
				t.Error("invalid feedback must not reach the service")
			}
		})
	}
}

func TestGetStatusAndAnalytics(t *testing.T) {
	last := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	svc := &MockRagService{
		OnHealth: func(ctx context.Context) ragModel.IndexHealth {
			return ragModel.IndexHealth{EmbedderAvailable: true, TotalChunks: 12, LastQueryAt: &last}
		},
		OnAnalytics: func(ctx context.Context) (ragModel.Analytics, error) {
			return ragModel.Analytics{TotalQueries: 3, FeedbackSummary: ragModel.FeedbackSummary{Helpful: 1, None: 2}}, nil
		},
	}
	router := newTestRouter(NewHandler(svc, nil, nil))

	rec := do(t, router, http.MethodGet, "/rag/status", "")
	var status api.StatusResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &status)
	if rec.Code != http.StatusOK || !status.EmbedderAvailable || status.GeneratorAvailable || status.TotalChunks != 12 {
		t.Errorf("status = %d %+v", rec.Code, status)
	}

	rec = do(t, router, http.MethodGet, "/rag/analytics", "")
	var analytics api.AnalyticsResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &analytics)
	if rec.Code != http.StatusOK || analytics.TotalQueries != 3 || analytics.FeedbackSummary.None != 2 {
		t.Errorf("analytics = %d %+v", rec.Code, analytics)
	}
}

func TestIndexEndpoints(t *testing.T) {
	queue := &MockJobQueue{
		OnEnqueue: func(ctx context.Context, jobType jobModel.JobType, id int64) (jobModel.Job, error) {
			if id == 13 {
				return jobModel.Job{}, job.ErrShuttingDown
			}
			return jobModel.Job{Id: "job-1", JobType: jobType, DocumentId: id}, nil
		},
		OnEnqueueAll: func(ctx context.Context) (int, int, error) { return 4, 1, nil },
		Jobs: map[string]jobModel.Job{
			"job-1": {Id: "job-1", DocumentId: 7, Status: jobModel.JobStatusError, Error: jobModel.JobError{Code: jobModel.ErrCodeEmbedderUnavailable}},
		},
	}
	var retracted int64
	retractor := &MockRetractor{OnRetract: func(ctx context.Context, id int64) error {
		retracted = id
		return nil
	}}
	router := newTestRouter(NewHandler(&MockRagService{}, queue, retractor))

	rec := do(t, router, http.MethodPost, "/rag/process-document", `{"document_id":7}`)
	var initRes api.InitJobResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &initRes)
	if rec.Code != http.StatusAccepted || initRes.Id != "job-1" || initRes.StatusURL != "/rag/index-jobs/job-1" {
		t.Errorf("process-document = %d %+v", rec.Code, initRes)
	}

	if rec = do(t, router, http.MethodPost, "/rag/process-document", `{"document_id":0}`); rec.Code != http.StatusBadRequest {
		t.Errorf("zero id status = %d", rec.Code)
	}
	if rec = do(t, router, http.MethodPost, "/rag/process-document", `{"document_id":13}`); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("shutting down status = %d", rec.Code)
	}

	rec = do(t, router, http.MethodPost, "/rag/process-all-documents", "")
	var all api.ProcessAllResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &all)
	if rec.Code != http.StatusAccepted || all.Queued != 4 || all.Retracted != 1 {
		t.Errorf("process-all = %d %+v", rec.Code, all)
	}

	rec = do(t, router, http.MethodGet, "/rag/index-jobs/job-1", "")
	var jobRes api.JobResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &jobRes)
	if rec.Code != http.StatusOK || jobRes.Error == nil || jobRes.Error.Code != jobModel.ErrCodeEmbedderUnavailable {
		t.Errorf("job = %d %+v", rec.Code, jobRes)
	}
	if rec = do(t, router, http.MethodGet, "/rag/index-jobs/ghost", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown job status = %d", rec.Code)
	}

	if rec = do(t, router, http.MethodDelete, "/rag/documents/7", ""); rec.Code != http.StatusOK || retracted != 7 {
		t.Errorf("delete = %d, retracted %d", rec.Code, retracted)
	}
	if rec = do(t, router, http.MethodDelete, "/rag/documents/abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d", rec.Code)
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&ragModel.ValidationError{Field: "f", Reason: "r"}, http.StatusBadRequest},
		{fmt.Errorf("x: %w", ragModel.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", ragModel.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{fmt.Errorf("x: %w", ragModel.ErrTimeout), http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
		if rec.Code != tt.want {
			t.Errorf("%v -> %d, want %d", tt.err, rec.Code, tt.want)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
	}
}
