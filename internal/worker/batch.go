package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/model"
)

// Verifier runs the verification pipeline for one citation
type Verifier interface {
	Verify(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error)
}

// VerifyJob represents one citation verification
type VerifyJob struct {
	Request  model.VerifyRequest
	Verifier Verifier
}

// Execute executes the verification job
func (j *VerifyJob) Execute(ctx context.Context) Result {
	run, err := j.Verifier.Verify(ctx, j.Request)
	return &VerifyResult{
		Request: j.Request,
		Run:     run,
		Error:   err,
	}
}

// VerifyResult represents the result of a verification job
type VerifyResult struct {
	Request  model.VerifyRequest
	Run      *model.VerificationRun
	Error    error
	Duration time.Duration
}

// GetError returns the error from the verification result
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies citations in fixed-size chunks, one chunk at a
// time, with the chunk's citations verified concurrently.
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int, logger *zap.Logger) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		verifier:    verifier,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Process verifies every request and returns one result per request, in
// input order. A failing or panicking citation yields a result with Error
// set and never stops the rest of the batch.
func (b *BatchProcessor) Process(ctx context.Context, reqs []model.VerifyRequest) []*VerifyResult {
	if len(reqs) == 0 {
		return []*VerifyResult{}
	}

	out := make([]*VerifyResult, 0, len(reqs))
	for start := 0; start < len(reqs); start += b.concurrency {
		end := min(start+b.concurrency, len(reqs))
		chunk := reqs[start:end]

		if err := ctx.Err(); err != nil {
			for _, req := range chunk {
				out = append(out, &VerifyResult{Request: req, Error: err})
			}
			continue
		}

		chunkStart := time.Now()
		out = append(out, b.processChunk(ctx, chunk)...)
		b.logger.Debug("chunk verified",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Duration("elapsed", time.Since(chunkStart)))
	}

	return out
}

func (b *BatchProcessor) processChunk(ctx context.Context, chunk []model.VerifyRequest) []*VerifyResult {
	pool := NewPoolContext(ctx, len(chunk))
	pool.Start()

	for _, req := range chunk {
		pool.Submit(&timedJob{job: &VerifyJob{Request: req, Verifier: b.verifier}})
	}

	results := pool.WaitIndexed()

	byIndex := make([]*VerifyResult, len(chunk))
	for i, r := range results {
		if i >= len(chunk) || r == nil {
			continue
		}
		switch res := r.(type) {
		case *VerifyResult:
			byIndex[i] = res
		default:
			byIndex[i] = &VerifyResult{Request: chunk[i], Error: r.GetError()}
		}
		if err := byIndex[i].Error; err != nil {
			b.logger.Warn("citation verification failed",
				zap.Int("index", chunk[i].Index),
				zap.String("citation", chunk[i].Citation.Raw),
				zap.Error(err))
		}
	}

	// Jobs dropped by cancellation have no result
	for i := range byIndex {
		if byIndex[i] == nil {
			err := ctx.Err()
			if err == nil {
				err = errors.New("verification did not run")
			}
			byIndex[i] = &VerifyResult{Request: chunk[i], Error: err}
		}
	}

	return byIndex
}

// timedJob records how long the wrapped verification took
type timedJob struct {
	job *VerifyJob
}

func (j *timedJob) Execute(ctx context.Context) Result {
	start := time.Now()
	res := j.job.Execute(ctx).(*VerifyResult)
	res.Duration = time.Since(start)
	return res
}
