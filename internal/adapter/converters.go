package adapter

import (
	"github.com/akolanti/GoRAG/internal/api"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/domain/ragModel"
)

const JobStatusPath = "/rag/index-jobs/"

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: JobStatusPath + id,
	}
}

func ToJobResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Code != "" || job.Error.Message != "" {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	res := api.JobResponse{
		Id:          job.Id,
		JobType:     string(job.JobType),
		DocumentId:  job.DocumentId,
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
		ChunkCount:  job.ChunkCount,
		Error:       errorPtr,
		StartTime:   job.CreatedTime,
	}
	if !job.EndTime.IsZero() {
		end := job.EndTime
		res.EndTime = &end
	}
	return res
}

// ToAnswerResponse keeps the sources in rank order. Sources is never nil so
// clients always see a list.
func ToAnswerResponse(q ragModel.RAGQuery) api.AnswerResponse {
	sources := make([]api.SourceResponse, 0, len(q.Sources))
	for _, s := range q.Sources {
		sources = append(sources, api.SourceResponse{
			DocumentId:    s.DocumentId,
			DocumentTitle: s.DocumentTitle,
			Country:       s.Country,
			ChunkPreview:  s.ChunkPreview,
		})
	}
	return api.AnswerResponse{
		QueryId:         q.Id,
		Answer:          q.Answer,
		Confidence:      q.Confidence,
		ConfidenceLevel: string(q.ConfidenceLevel),
		Sources:         sources,
		ResponseTimeMs:  q.ResponseTimeMs,
	}
}

func ToStatusResponse(h ragModel.IndexHealth) api.StatusResponse {
	return api.StatusResponse{
		EmbedderAvailable:  h.EmbedderAvailable,
		GeneratorAvailable: h.GeneratorAvailable,
		TotalChunks:        h.TotalChunks,
		LastQueryAt:        h.LastQueryAt,
	}
}

func ToAnalyticsResponse(a ragModel.Analytics) api.AnalyticsResponse {
	return api.AnalyticsResponse{
		TotalQueries:          a.TotalQueries,
		AverageConfidence:     a.AverageConfidence,
		AverageResponseTimeMs: a.AverageResponseTimeMs,
		FeedbackSummary: api.FeedbackSummary{
			Helpful:    a.FeedbackSummary.Helpful,
			NotHelpful: a.FeedbackSummary.NotHelpful,
			None:       a.FeedbackSummary.None,
		},
	}
}

func ToErrorResponse(code, message, traceId string) api.ErrorResponse {
	return api.ErrorResponse{Code: code, Message: message, TraceId: traceId}
}
