package store

import (
	"context"
	"sync"

	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem JobStore")

type InMemoryJobStore struct {
	jobMutex  *sync.RWMutex
	jobMap    map[string]jobModel.Job
	latestJob map[int64]string
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobMutex:  new(sync.RWMutex),
		jobMap:    make(map[string]jobModel.Job),
		latestJob: make(map[int64]string),
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, jobToStore jobModel.Job) error {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	store.jobMap[jobToStore.Id] = jobToStore
	if prev, ok := store.jobMap[store.latestJob[jobToStore.DocumentId]]; !ok || !prev.CreatedTime.After(jobToStore.CreatedTime) {
		store.latestJob[jobToStore.DocumentId] = jobToStore.Id
	}
	inMemLogger.Debug("Saved job to store", "jobId", jobToStore.Id, "status", jobToStore.Status)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	result, found := store.jobMap[jobId]
	return result, found
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobMutex.Lock()
	defer store.jobMutex.Unlock()
	if job, ok := store.jobMap[jobID]; ok && store.latestJob[job.DocumentId] == jobID {
		delete(store.latestJob, job.DocumentId)
	}
	delete(store.jobMap, jobID)
}

func (store *InMemoryJobStore) LatestForDocument(ctx context.Context, documentId int64) (jobModel.Job, bool) {
	store.jobMutex.RLock()
	defer store.jobMutex.RUnlock()
	id, ok := store.latestJob[documentId]
	if !ok {
		return jobModel.Job{}, false
	}
	job, ok := store.jobMap[id]
	return job, ok
}
