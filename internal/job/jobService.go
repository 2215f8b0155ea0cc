// Package job queues index and retract requests and records their progress.
package job

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/internal/rag/ingest"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/google/uuid"
)

var ErrShuttingDown = errors.New("job service is shutting down")

// Indexer is the part of ingest.Indexer the jobs drive.
type Indexer interface {
	ProcessDocument(ctx context.Context, documentId int64, progress ingest.Progress) (ingest.Result, error)
	RetractDocument(ctx context.Context, documentId int64) error
	PendingDocuments(ctx context.Context) (ingest.Pending, error)
}

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore

	indexer  Indexer
	done     chan struct{}
	stopOnce sync.Once
	logger   *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	Indexer           Indexer
}

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.JobChannel == nil {
		cfg.JobChannel = make(chan jobModel.Job, config.BufferLimit)
	}
	if cfg.DispatcherChannel == nil {
		cfg.DispatcherChannel = make(chan bool, config.BufferLimit)
	}
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		indexer:           cfg.Indexer,
		done:              make(chan struct{}),
		logger:            logger_i.NewLogger("JobService"),
	}
}

// Enqueue queues one job for the document. A job already waiting for the
// same document and type is returned instead of queueing a duplicate.
func (s *Service) Enqueue(ctx context.Context, jobType jobModel.JobType, documentId int64) (jobModel.Job, error) {
	if documentId <= 0 {
		return jobModel.Job{}, fmt.Errorf("invalid document id %d", documentId)
	}
	if prev, ok := s.JobStore.LatestForDocument(ctx, documentId); ok && prev.Status == jobModel.JobStatusQueued && prev.JobType == jobType {
		s.logger.WithContext(ctx).Debug("Job already queued", "jobId", prev.Id, "documentId", documentId)
		return prev, nil
	}

	newJob := jobModel.Job{
		Id:          uuid.NewString(),
		TraceId:     logger_i.TraceId(ctx),
		JobType:     jobType,
		DocumentId:  documentId,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IndexInit,
	}
	if err := s.JobStore.SaveJob(ctx, newJob); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to save queued job", "jobId", newJob.Id, "err", err)
	}
	if err := s.push(ctx, newJob); err != nil {
		return jobModel.Job{}, err
	}
	return newJob, nil
}

func (s *Service) push(ctx context.Context, newJob jobModel.Job) error {
	metrics.IncrementJobsInQueue()
	// blocking send keeps a flood of requests from overwhelming the workers
	select {
	case s.JobChannel <- newJob:
	case <-s.done:
		metrics.DecrementJobsInQueue()
		return ErrShuttingDown
	case <-ctx.Done():
		metrics.DecrementJobsInQueue()
		return ctx.Err()
	}
	s.logger.WithContext(ctx).Info("Created new job", "jobId", newJob.Id, "type", newJob.JobType, "documentId", newJob.DocumentId)

	// a new worker every few requests; idle workers retire on their own
	accurateCount := atomic.AddInt64(&s.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || accurateCount == 1 {
		select {
		case s.DispatcherChannel <- true:
			metrics.StartDispatcherSignalCount()
		default:
		}
	}
	return nil
}

// EnqueueAll compares the approved documents with the index and queues
// the difference in the background. The counts are returned right away.
func (s *Service) EnqueueAll(ctx context.Context) (queued int, retracted int, err error) {
	pending, err := s.indexer.PendingDocuments(ctx)
	if err != nil {
		return 0, 0, err
	}

	background := context.WithoutCancel(ctx)
	go func() {
		for _, id := range pending.ToRetract {
			if _, err := s.Enqueue(background, jobModel.JobTypeRetract, id); err != nil {
				s.logger.WithContext(background).Warn("Stopped queueing retract jobs", "err", err)
				return
			}
		}
		for _, id := range pending.ToIndex {
			if _, err := s.Enqueue(background, jobModel.JobTypeIndex, id); err != nil {
				s.logger.WithContext(background).Warn("Stopped queueing index jobs", "err", err)
				return
			}
		}
	}()
	return len(pending.ToIndex), len(pending.ToRetract), nil
}

// Execute runs one job to completion and stores every step it passes.
func (s *Service) Execute(ctx context.Context, current jobModel.Job) jobModel.Job {
	start := time.Now()
	log := s.logger.WithContext(ctx).With("jobId", current.Id, "documentId", current.DocumentId)
	log.Debug("Processing job")

	current.Status = jobModel.JobStatusRunning
	s.save(ctx, current)

	var err error
	switch current.JobType {
	case jobModel.JobTypeRetract:
		current.CurrentStep = jobModel.Retracting
		s.save(ctx, current)
		err = s.indexer.RetractDocument(ctx, current.DocumentId)
		current.ChunkCount = 0
	default:
		var result ingest.Result
		result, err = s.indexer.ProcessDocument(ctx, current.DocumentId, func(step jobModel.InternalStatus) {
			current.CurrentStep = step
			s.save(ctx, current)
		})
		current.ChunkCount = result.ChunkCount
		if err == nil && result.Status == ingest.ResultUnchanged {
			current.Status = jobModel.JobStatusSkipped
		}
	}

	current.EndTime = time.Now()
	switch {
	case err != nil:
		current.Status = jobModel.JobStatusError
		current.CurrentStep = jobModel.Error
		current.Error = ingest.ClassifyError(err)
		log.Error("Index job failed", "code", current.Error.Code, "err", err)
	case current.Status == jobModel.JobStatusSkipped:
		current.CurrentStep = jobModel.Complete
	default:
		current.Status = jobModel.JobStatusComplete
		current.CurrentStep = jobModel.Complete
	}
	s.save(ctx, current)
	metrics.CaptureIndexJob(string(current.JobType), string(current.Status), time.Since(start))
	return current
}

func (s *Service) save(ctx context.Context, current jobModel.Job) {
	if err := s.JobStore.SaveJob(ctx, current); err != nil {
		s.logger.WithContext(ctx).Error("Failed to update job status", "jobId", current.Id, "err", err)
	}
}

func (s *Service) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	if jobId == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, jobId)
}

// Stop refuses new jobs. Jobs already queued stay on the channel.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Done is closed once Stop is called.
func (s *Service) Done() <-chan struct{} {
	return s.done
}
