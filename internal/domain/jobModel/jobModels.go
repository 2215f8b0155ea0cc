package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusSkipped  JobStatus = "SKIPPED"
	JobStatusError    JobStatus = "ERROR"

	IndexInit  InternalStatus = "IndexInit"
	Fetching   InternalStatus = "Fetching"
	Extracting InternalStatus = "Extracting"
	Chunking   InternalStatus = "Chunking"
	Embedding  InternalStatus = "Embedding"
	Storing    InternalStatus = "Storing"
	Retracting InternalStatus = "Retracting"
	Error      InternalStatus = "Error"
	Complete   InternalStatus = "Complete"

	JobTypeIndex   JobType = "Index"
	JobTypeRetract JobType = "Retract"
)

// error codes recorded on failed index jobs
const (
	ErrCodeEmbedderUnavailable = "EMBEDDER_UNAVAILABLE"
	ErrCodeStoreUnavailable    = "STORE_UNAVAILABLE"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeExtractionFailed    = "EXTRACTION_FAILED"
	ErrCodeDimensionMismatch   = "DIMENSION_MISMATCH"
	ErrCodeInternal            = "INTERNAL"
)

// Job tracks one index or retract request for a single document.
type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	DocumentId  int64          `json:"document_id"`
	ChunkCount  int            `json:"chunk_count"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

func (j Job) Failed() bool {
	return j.Status == JobStatusError
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
	LatestForDocument(ctx context.Context, documentId int64) (Job, bool)
}
