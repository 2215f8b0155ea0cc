// Package worker runs queued index jobs on a pool that grows on demand and
// shrinks back when workers sit idle.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/domain/jobModel"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

// Executor runs one job. *job.Service implements it.
type Executor interface {
	Execute(ctx context.Context, job jobModel.Job) jobModel.Job
}

type Pool struct {
	jobChannel        <-chan jobModel.Job
	dispatcherChannel <-chan bool
	executor          Executor

	stopWorkerChannel  chan struct{}
	dispatcherDone     chan struct{}
	workerWaitGroup    sync.WaitGroup
	currentWorkerCount int64
	minWorkerCount     int64
	maxWorkerCount     int64
	idleTimeout        time.Duration
	jobTimeout         time.Duration
	stopOnce           sync.Once
	logger             *logger_i.Logger
}

type Option func(*Pool)

func WithWorkerLimits(min, max int64) Option {
	return func(p *Pool) {
		p.minWorkerCount = min
		p.maxWorkerCount = max
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(p *Pool) { p.idleTimeout = d }
}

func WithJobTimeout(d time.Duration) Option {
	return func(p *Pool) { p.jobTimeout = d }
}

func NewPool(jobs <-chan jobModel.Job, dispatch <-chan bool, executor Executor, opts ...Option) *Pool {
	p := &Pool{
		jobChannel:        jobs,
		dispatcherChannel: dispatch,
		executor:          executor,
		stopWorkerChannel: make(chan struct{}),
		dispatcherDone:    make(chan struct{}),
		minWorkerCount:    config.MinWorkerCount,
		maxWorkerCount:    config.MaxWorkerCount,
		idleTimeout:       config.IdleWorkerTimeout,
		jobTimeout:        config.IndexJobTimeout,
		logger:            logger_i.NewLogger("WorkerPool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.minWorkerCount < 1 {
		p.minWorkerCount = 1
	}
	if p.maxWorkerCount < p.minWorkerCount {
		p.maxWorkerCount = p.minWorkerCount
	}
	return p
}

// Start launches the dispatcher with the minimum number of workers.
func (p *Pool) Start() {
	p.logger.Info("Initializing worker pool", "min", p.minWorkerCount, "max", p.maxWorkerCount)
	for i := int64(0); i < p.minWorkerCount; i++ {
		p.createWorker()
	}
	go p.dispatcher()
}

func (p *Pool) dispatcher() {
	defer close(p.dispatcherDone)
	p.logger.Info("Dispatcher started")
	for {
		select {
		case <-p.stopWorkerChannel:
			p.logger.Info("Dispatcher stopped")
			return
		case _, ok := <-p.dispatcherChannel:
			if !ok {
				return
			}
			if atomic.LoadInt64(&p.currentWorkerCount) < p.maxWorkerCount {
				p.logger.Info("Creating new worker", "workerCount", atomic.LoadInt64(&p.currentWorkerCount))
				p.createWorker()
			}
		}
	}
}

func (p *Pool) createWorker() {
	p.workerWaitGroup.Add(1)
	atomic.AddInt64(&p.currentWorkerCount, 1)
	metrics.IncrementActiveWorkerCount()
	go p.worker()
}

func (p *Pool) worker() {
	idle := time.NewTimer(p.idleTimeout)
	defer idle.Stop()
	for {
		select {
		case currentJob, ok := <-p.jobChannel:
			if !ok {
				p.removeWorker("job channel closed", true)
				return
			}
			p.executeJob(currentJob)
			metrics.DecrementJobsInQueue()
			idle.Reset(p.idleTimeout)

		case <-p.stopWorkerChannel:
			p.removeWorker("Stop worker signal received", true)
			return

		case <-idle.C:
			if p.tryRetire() {
				p.removeWorker("Idle worker timeout", false)
				return
			}
			idle.Reset(p.idleTimeout)
		}
	}
}

func (p *Pool) WorkerCount() int64 {
	return atomic.LoadInt64(&p.currentWorkerCount)
}

// Stop signals every worker and waits for running jobs until ctx ends.
func (p *Pool) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() { close(p.stopWorkerChannel) })

	done := make(chan struct{})
	go func() {
		<-p.dispatcherDone
		p.workerWaitGroup.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("Worker pool stopped")
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("worker pool did not stop in time"), ctx.Err())
	}
}
