package worker

import (
	"context"
	"sync/atomic"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/metrics"
)

// tryRetire claims a slot above the minimum so that concurrent idle
// workers never shrink the pool below it.
func (p *Pool) tryRetire() bool {
	for {
		current := atomic.LoadInt64(&p.currentWorkerCount)
		if current <= p.minWorkerCount {
			return false
		}
		if atomic.CompareAndSwapInt64(&p.currentWorkerCount, current, current-1) {
			return true
		}
	}
}

func (p *Pool) executeJob(current jobModel.Job) {
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, current.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, p.jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithContext(ctx).Error("Job panicked", "jobId", current.Id, "panic", r)
		}
	}()
	p.executor.Execute(ctx, current)
}

// removeWorker releases a worker. counted is false when tryRetire already
// took it off the count.
func (p *Pool) removeWorker(reason string, counted bool) {
	if counted {
		atomic.AddInt64(&p.currentWorkerCount, -1)
	}
	metrics.DecrementActiveWorkerCount()
	p.logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&p.currentWorkerCount))
	p.workerWaitGroup.Done()
}
