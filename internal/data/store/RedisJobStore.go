package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/data/redisStore"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

const (
	jobKeyPrefix    = "rag:job:"
	docJobKeyPrefix = "rag:doc-job:"
)

type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func NewRedisJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger_i.NewLogger("JobStore"),
	}
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

func docJobKey(documentId int64) string {
	return docJobKeyPrefix + strconv.FormatInt(documentId, 10)
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.WithContext(ctx).With("jobId", job.Id)
	log.Debug("saving job")
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err = s.store.Set(ctx, jobKey(job.Id), data, config.RedisJobStoreTTL); err != nil {
		log.Error("failed to save job", "error", err)
		return err
	}
	// the document link moves only when a new job is queued, so late
	// updates of an older job never take it back
	if job.Status == jobModel.JobStatusQueued {
		if err = s.store.Set(ctx, docJobKey(job.DocumentId), job.Id, config.RedisJobStoreTTL); err != nil {
			log.Error("failed to link job to document", "error", err)
			return err
		}
	}
	log.Debug("Saved job to Redis")
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.WithContext(ctx).With("jobId", jobId)
	val, err := s.store.Get(ctx, jobKey(jobId))
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("failed to read job", "error", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("stored job is not valid json", "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobKey(jobID)); err != nil {
		s.logger.Error("Error deleting job from Redis", "jobId", jobID, "error", err)
		return
	}
	s.logger.Debug("Job deleted from Redis", "jobId", jobID)
}

func (s *RedisJobStore) LatestForDocument(ctx context.Context, documentId int64) (jobModel.Job, bool) {
	id, err := s.store.Get(ctx, docJobKey(documentId))
	if err != nil {
		if !s.store.IsNil(err) {
			s.logger.WithContext(ctx).Error("failed to read document job link", "documentId", documentId, "error", err)
		}
		return jobModel.Job{}, false
	}
	return s.GetJob(ctx, id)
}
