package handlers

import (
	"context"
	"net/http"

	"github.com/akolanti/GoRAG/internal/adapter"
	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
	"github.com/akolanti/GoRAG/internal/rag"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// JobQueue is the part of job.Service the handlers use.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType jobModel.JobType, documentId int64) (jobModel.Job, error)
	EnqueueAll(ctx context.Context) (queued int, retracted int, err error)
	GetJob(ctx context.Context, jobId string) (jobModel.Job, bool)
}

// DocumentRetractor removes a document from the index right away.
type DocumentRetractor interface {
	RetractDocument(ctx context.Context, documentId int64) error
}

type Handler struct {
	rag       rag.Service
	jobs      JobQueue
	retractor DocumentRetractor
	logger    *logger_i.Logger
}

func NewHandler(ragService rag.Service, jobs JobQueue, retractor DocumentRetractor) *Handler {
	return &Handler{
		rag:       ragService,
		jobs:      jobs,
		retractor: retractor,
		logger:    logger_i.NewLogger("RequestHandler"),
	}
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// PostQuestion godoc
// @Summary      Ask a question
// @Description  Answers a question from the indexed documents. Degraded answers (model or store unavailable, nothing relevant found) are still returned with status 200 and a low confidence.
// @Tags         RAG
// @Accept       json
// @Produce      json
// @Param        request  body      api.QuestionRequest  true  "Question and optional answer language"
// @Success      200      {object}  api.AnswerResponse
// @Failure      400      {object}  api.ErrorResponse  "Invalid question"
// @Failure      429      {object}  api.ErrorResponse  "Rate limit exceeded"
// @Security     BearerAuth
// @Router       /rag/question [post]
func (h *Handler) PostQuestion(w http.ResponseWriter, r *http.Request) {
	var req api.QuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.rag.Answer(r.Context(), req.Question, req.Language)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if r.Context().Err() != nil {
		// the caller left; the answer is already logged
		h.logger.WithContext(r.Context()).Info("Client gone before answer", "queryId", result.Id)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAnswerResponse(result))
}

// GetStatus godoc
// @Summary      Index health
// @Description  Reports model availability, the number of indexed chunks and the time of the last question.
// @Tags         RAG
// @Produce      json
// @Success      200  {object}  api.StatusResponse
// @Security     BearerAuth
// @Router       /rag/status [get]
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJsonResponse(w, http.StatusOK, adapter.ToStatusResponse(h.rag.Health(r.Context())))
}

// GetAnalytics godoc
// @Summary      Question analytics
// @Description  Aggregates over every logged question. The numbers are eventually consistent.
// @Tags         RAG
// @Produce      json
// @Success      200  {object}  api.AnalyticsResponse
// @Failure      503  {object}  api.ErrorResponse
// @Security     BearerAuth
// @Router       /rag/analytics [get]
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.rag.Analytics(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAnalyticsResponse(analytics))
}

// PostFeedback godoc
// @Summary      Rate an answer
// @Description  Attaches helpful or not_helpful to a logged question. A later call replaces the earlier rating.
// @Tags         RAG
// @Accept       json
// @Produce      json
// @Param        request  body      api.FeedbackRequest  true  "Query id and feedback"
// @Success      200      {object}  api.ResultResponse  "success"
// @Failure      400      {object}  api.ErrorResponse   "Invalid feedback value"
// @Failure      404      {object}  api.ResultResponse  "not_found"
// @Security     BearerAuth
// @Router       /rag/feedback [post]
func (h *Handler) PostFeedback(w http.ResponseWriter, r *http.Request) {
	var req api.FeedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	feedback, err := ragModel.ParseFeedback(req.Feedback)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	err = h.rag.AttachFeedback(r.Context(), req.QueryId, feedback)
	switch {
	case err == nil:
		writeJsonResponse(w, http.StatusOK, api.ResultResponse{Result: "success"})
	case isNotFound(err):
		writeJsonResponse(w, http.StatusNotFound, api.ResultResponse{Result: "not_found"})
	default:
		writeServiceError(w, r, err)
	}
}
