package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// Job is one backtest to run: a named weight panel against a price panel.
// Each job's recurrence stays sequential; only whole jobs run in parallel.
type Job struct {
	Name    string
	Weights *Panel
	Close   *Panel
	AUM     float64
	Options Options
}

// JobResult is the outcome of one batch job.
type JobResult struct {
	Name     string
	Result   *Result
	Duration time.Duration
	Err      error
}

// WorkerPool runs backtest jobs in parallel, one owned Result per job. Used
// for multi-strategy comparisons.
type WorkerPool struct {
	workerCount int
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewWorkerPool creates a worker pool. A non-positive workerCount defaults to
// the number of CPUs.
func NewWorkerPool(workerCount, jobBufferSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan JobResult, jobBufferSize),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// Stop drains the pool gracefully.
func (wp *WorkerPool) Stop() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
}

// Submit queues a job for execution.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

// Results returns the channel of completed jobs.
func (wp *WorkerPool) Results() <-chan JobResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			result := runJob(job)
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

func runJob(job Job) JobResult {
	start := time.Now()
	out := JobResult{Name: job.Name}

	engine, err := NewEngine(job.Weights, job.Close, job.AUM, job.Options)
	if err != nil {
		out.Err = err
		out.Duration = time.Since(start)
		return out
	}
	out.Result, out.Err = engine.Run()
	out.Duration = time.Since(start)
	return out
}

// RunBatch runs all jobs through a worker pool and returns the results keyed
// by job name. Failed jobs keep their error in the map's JobResult.
func RunBatch(jobs []Job, workerCount int) map[string]JobResult {
	pool := NewWorkerPool(workerCount, len(jobs))
	pool.Start()
	defer pool.Stop()

	submitted := 0
	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			break
		}
		submitted++
	}

	results := make(map[string]JobResult, submitted)
	for i := 0; i < submitted; i++ {
		res := <-pool.Results()
		results[res.Name] = res
	}
	return results
}
