package importapp

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrNoWorkerAvailable is returned by Start when every background slot is busy
var ErrNoWorkerAvailable = errors.New("no import worker available")

// responseBuffer lets a worker run ahead of a slow reader by this many messages
const responseBuffer = 64

type handlerFunc func(ctx context.Context, req Request, limits Limits, emit func(Response))

// WorkerPool runs import requests on background goroutines, bounded by a weighted semaphore
type WorkerPool struct {
	sem    *semaphore.Weighted
	limits Limits
	handle handlerFunc
	logger *zap.Logger
}

// NewWorkerPool creates a pool with size background slots.
// A pool of size 0 never starts a job, so every request runs on the caller.
func NewWorkerPool(size int64, limits Limits, logger *zap.Logger) *WorkerPool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if size < 0 {
		size = 0
	}
	return &WorkerPool{
		sem:    semaphore.NewWeighted(size),
		limits: limits,
		handle: handleRequest,
		logger: logger,
	}
}

// Limits returns the per-file limits the pool applies
func (p *WorkerPool) Limits() Limits {
	return p.limits
}

// Job is one request running on a background worker
type Job struct {
	requests  chan Request
	responses chan Response
}

// Responses yields progress messages followed by exactly one final message, then closes
func (j *Job) Responses() <-chan Response {
	return j.responses
}

// Post delivers a control request to the running job. Only CANCEL is accepted.
// It reports false when the job has already finished.
func (j *Job) Post(req Request) bool {
	select {
	case j.requests <- req:
		return true
	default:
		return false
	}
}

// Start runs req on a free worker. It never blocks waiting for a slot.
func (p *WorkerPool) Start(ctx context.Context, req Request) (*Job, error) {
	if !p.sem.TryAcquire(1) {
		return nil, ErrNoWorkerAvailable
	}
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		requests:  make(chan Request, 1),
		responses: make(chan Response, responseBuffer),
	}

	go func() {
		for {
			select {
			case r := <-job.requests:
				if r.Kind == RequestCancel {
					cancel()
				}
			case <-jobCtx.Done():
				return
			}
		}
	}()

	go func() {
		defer p.sem.Release(1)
		defer cancel()
		defer close(job.responses)
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("import worker panicked", zap.Any("panic", r), zap.String("request", string(req.Kind)))
				job.responses <- Response{
					Kind:    ResponseError,
					Message: fmt.Sprintf("import worker panicked: %v", r),
					crashed: true,
				}
			}
		}()
		p.handle(jobCtx, req, p.limits, func(resp Response) {
			job.responses <- resp
		})
	}()

	return job, nil
}
