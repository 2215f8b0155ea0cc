package api

import "time"

// responses---------------------

type AnswerResponse struct {
	QueryId         int64            `json:"query_id" example:"42"`
	Answer          string           `json:"answer" example:"The standard VAT rate is 20% [1]."`
	Confidence      float64          `json:"confidence" example:"0.83"`
	ConfidenceLevel string           `json:"confidence_level" example:"high"`
	Sources         []SourceResponse `json:"sources"`
	ResponseTimeMs  int64            `json:"response_time_ms" example:"1240"`
}

type SourceResponse struct {
	DocumentId    int64  `json:"document_id" example:"7"`
	DocumentTitle string `json:"document_title" example:"VAT guide"`
	Country       string `json:"country" example:"FR"`
	ChunkPreview  string `json:"chunk_preview" example:"The standard rate of VAT is 20%…"`
}

type InitJobResponse struct {
	Id        string `json:"id" example:"5f0c6f1e-5c9e-4b8e-9d0e-0f4f1f0a7c11"`
	StatusURL string `json:"status_url" example:"/rag/index-jobs/5f0c6f1e-5c9e-4b8e-9d0e-0f4f1f0a7c11"`
}

type ProcessAllResponse struct {
	Queued    int `json:"queued" example:"12"`
	Retracted int `json:"retracted" example:"1"`
}

type StatusResponse struct {
	EmbedderAvailable  bool       `json:"embedder_available"`
	GeneratorAvailable bool       `json:"generator_available"`
	TotalChunks        int64      `json:"total_chunks" example:"5120"`
	LastQueryAt        *time.Time `json:"last_query_at"`
}

type AnalyticsResponse struct {
	TotalQueries          int64           `json:"total_queries" example:"300"`
	AverageConfidence     float64         `json:"average_confidence" example:"0.71"`
	AverageResponseTimeMs float64         `json:"average_response_time_ms" example:"1830.5"`
	FeedbackSummary       FeedbackSummary `json:"feedback_summary"`
}

type FeedbackSummary struct {
	Helpful    int64 `json:"helpful"`
	NotHelpful int64 `json:"not_helpful"`
	None       int64 `json:"none"`
}

type ResultResponse struct {
	Result string `json:"result" example:"success"`
}

type JobResponse struct {
	Id          string            `json:"id" example:"5f0c6f1e-5c9e-4b8e-9d0e-0f4f1f0a7c11"`
	JobType     string            `json:"job_type" example:"Index"`
	DocumentId  int64             `json:"document_id" example:"7"`
	Status      string            `json:"status" example:"COMPLETE"`
	CurrentStep string            `json:"current_step" example:"Complete"`
	ChunkCount  int               `json:"chunk_count" example:"14"`
	Error       *JobOutgoingError `json:"error,omitempty"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     *time.Time        `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    string `json:"code" example:"EMBEDDER_UNAVAILABLE"`
	Message string `json:"message" example:"embedding model unavailable"`
	Retry   bool   `json:"can_retry" example:"false"`
}

// ErrorResponse is the envelope of every failed request.
type ErrorResponse struct {
	Code    string `json:"code" example:"validation_error"`
	Message string `json:"message" example:"invalid question: must not be empty"`
	TraceId string `json:"traceId" example:"b0b8c4e2-1f9e-4c41-8d3d-4c8e0b0f8a11"`
}

// requests---------------------

type QuestionRequest struct {
	Question string `json:"question" validate:"required" example:"What is the standard VAT rate in France?"`
	Language string `json:"language,omitempty" example:"en"`
}

type ProcessDocumentRequest struct {
	DocumentId int64 `json:"document_id" validate:"required" example:"7"`
}

type FeedbackRequest struct {
	QueryId  int64  `json:"query_id" validate:"required" example:"42"`
	Feedback string `json:"feedback" validate:"required" example:"helpful"`
}
