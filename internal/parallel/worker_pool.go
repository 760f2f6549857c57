// Package parallel runs independent grid evaluations on a fixed set of
// workers and hands results back in input order.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Job is a single unit of work with its position in the input
type Job[T any] struct {
	Index int
	Input T
}

// Result represents the outcome of a job
type Result[R any] struct {
	Index    int
	Output   R
	Duration time.Duration
	Error    error
}

// ProcessFunc evaluates one job
type ProcessFunc[T, R any] func(ctx context.Context, job Job[T]) (R, error)

// WorkerPool manages parallel job execution
type WorkerPool[T, R any] struct {
	workerCount int
	process     ProcessFunc[T, R]
	jobQueue    chan Job[T]
	resultQueue chan Result[R]
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	stopOnce    sync.Once
}

// NewWorkerPool creates a new worker pool. workerCount <= 0 uses every CPU.
func NewWorkerPool[T, R any](ctx context.Context, workerCount, jobBufferSize int, process ProcessFunc[T, R]) *WorkerPool[T, R] {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool[T, R]{
		workerCount: workerCount,
		process:     process,
		jobQueue:    make(chan Job[T], jobBufferSize),
		resultQueue: make(chan Result[R], jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the worker pool
func (wp *WorkerPool[T, R]) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop stops the worker pool gracefully. It is safe to call more than once.
func (wp *WorkerPool[T, R]) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
		wp.cancel()
	})
}

// SubmitJob submits a job to the pool
func (wp *WorkerPool[T, R]) SubmitJob(job Job[T]) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// GetResults returns the result channel for collecting completed jobs
func (wp *WorkerPool[T, R]) GetResults() <-chan Result[R] {
	return wp.resultQueue
}

// worker processes jobs until the queue closes or the pool is cancelled
func (wp *WorkerPool[T, R]) worker() {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			if wp.ctx.Err() != nil {
				return
			}

			result := wp.processJob(job)

			select {
			case wp.resultQueue <- result:
			case <-wp.ctx.Done():
				return
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

// processJob processes a single job
func (wp *WorkerPool[T, R]) processJob(job Job[T]) Result[R] {
	startTime := time.Now()
	out, err := wp.process(wp.ctx, job)
	return Result[R]{
		Index:    job.Index,
		Output:   out,
		Duration: time.Since(startTime),
		Error:    err,
	}
}

// Map evaluates fn for every input on a pool of workers and returns the
// outputs in input order. The first job error cancels the remaining work.
// onDone, when set, runs on the calling goroutine after each completed job.
func Map[T, R any](ctx context.Context, workers int, inputs []T, fn ProcessFunc[T, R], onDone func(Result[R])) ([]R, error) {
	out := make([]R, len(inputs))
	if len(inputs) == 0 {
		return out, ctx.Err()
	}

	pool := NewWorkerPool(ctx, workers, len(inputs), fn)
	pool.Start()
	defer pool.Stop()

	for i, in := range inputs {
		if err := pool.SubmitJob(Job[T]{Index: i, Input: in}); err != nil {
			return nil, err
		}
	}

	var firstErr error
	for received := 0; received < len(inputs); {
		select {
		case res := <-pool.GetResults():
			received++
			if res.Error != nil {
				if firstErr == nil {
					firstErr = res.Error
					pool.cancel()
				}
				continue
			}
			out[res.Index] = res.Output
			if onDone != nil {
				onDone(res)
			}
		case <-pool.ctx.Done():
			if firstErr != nil {
				return nil, firstErr
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return nil, pool.ctx.Err()
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
