package worker

import (
	"context"
	"fmt"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// PanicResult is returned in place of a job's result when the job panics
type PanicResult struct {
	Value any
}

// GetError returns the recovered panic as an error
func (r *PanicResult) GetError() error {
	return fmt.Errorf("job panicked: %v", r.Value)
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool manages a pool of workers that execute jobs concurrently.
// Wait returns results in submission order.
type Pool struct {
	workers    int
	jobQueue   chan indexedJob
	results    chan indexedResult
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	mu        sync.Mutex
	submitted int
	collected map[int]Result
	collectWg sync.WaitGroup
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolContext(context.Background(), workers)
}

// NewPoolContext creates a pool whose jobs run under ctx
func NewPoolContext(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		results:    make(chan indexedResult, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		collected:  make(map[int]Result),
	}
}

// Start starts the worker pool and its result collector
func (p *Pool) Start() {
	p.collectWg.Add(1)
	go p.collect()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// collect drains results as they arrive so workers never block on a full channel
func (p *Pool) collect() {
	defer p.collectWg.Done()
	for r := range p.results {
		p.mu.Lock()
		p.collected[r.index] = r.result
		p.mu.Unlock()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- indexedResult{index: job.index, result: p.execute(job.job)}
		}
	}
}

// execute runs one job, converting a panic into a PanicResult
func (p *Pool) execute(job Job) (result Result) {
	defer func() {
		if v := recover(); v != nil {
			result = &PanicResult{Value: v}
		}
	}()
	return job.Execute(p.ctx)
}

// Submit submits a job to the pool for execution
func (p *Pool) Submit(job Job) {
	p.mu.Lock()
	index := p.submitted
	p.submitted++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- indexedJob{index: index, job: job}:
	}
}

// Wait waits for all submitted jobs and returns their results in
// submission order. Jobs dropped by a shutdown are missing from the slice.
func (p *Pool) Wait() []Result {
	var results []Result
	for _, r := range p.WaitIndexed() {
		if r != nil {
			results = append(results, r)
		}
	}
	return results
}

// WaitIndexed waits for all submitted jobs and returns a slice with one
// slot per submitted job; slots of jobs that never ran are nil. The pool's
// context is released once the workers are done.
func (p *Pool) WaitIndexed() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.cancelFunc()
	p.closeResults()
	p.collectWg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	results := make([]Result, p.submitted)
	for i := range results {
		results[i] = p.collected[i]
	}
	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
	p.collectWg.Wait()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
