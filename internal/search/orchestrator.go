// Package search runs priority-tiered case-law queries in sequential
// batches under a wall-clock budget and returns deduplicated candidates.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/logging"
	"github.com/ppiankov/citecheck/internal/metrics"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/worker"
)

// Abort reasons reported in SearchSummary.AbortReason
const (
	AbortBudget      = "global budget exhausted"
	AbortFailureRate = "failure rate exceeded"
	AbortBreakerOpen = "circuit breaker open"
	AbortCancelled   = "cancelled"
)

// Client is the subset of the case-law client the orchestrator uses
type Client interface {
	SearchOpinions(ctx context.Context, query string, opts caselaw.SearchOptions) ([]caselaw.SearchHit, error)
	LookupPeople(ctx context.Context, ids []string) ([]caselaw.Person, error)
	BreakerOpen() bool
}

// Orchestrator executes search plans
type Orchestrator struct {
	client Client
	cfg    model.SearchConfig
	courts courts.Resolver
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewOrchestrator creates an orchestrator; zero config fields take defaults
func NewOrchestrator(client Client, cfg model.SearchConfig, resolver courts.Resolver, logger *zap.Logger) *Orchestrator {
	def := model.DefaultConfig().Search
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}
	if cfg.GlobalBudget <= 0 {
		cfg.GlobalBudget = def.GlobalBudget
	}
	if cfg.MaxFailureRate <= 0 {
		cfg.MaxFailureRate = def.MaxFailureRate
	}
	if cfg.MinForFailureRate <= 0 {
		cfg.MinForFailureRate = def.MinForFailureRate
	}
	if resolver == nil {
		resolver = courts.Default()
	}
	return &Orchestrator{
		client: client,
		cfg:    cfg,
		courts: resolver,
		logger: logging.OrNop(logger),
		sleep:  worker.Sleep,
		now:    time.Now,
	}
}

type taskResult struct {
	task model.SearchTask
	hits []caselaw.SearchHit
	err  error
}

// Run executes the plan. Early termination is reported in the summary
// together with whatever candidates were collected; Run never fails.
func (o *Orchestrator) Run(ctx context.Context, tasks []model.SearchTask) ([]model.Candidate, model.SearchSummary) {
	start := o.now()
	summary := model.SearchSummary{TotalTasks: len(tasks)}

	budgetCtx, cancel := context.WithTimeout(ctx, o.cfg.GlobalBudget)
	defer cancel()

	ordered := make([]model.SearchTask, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Tier < ordered[j].Tier })

	var results []taskResult
	for b, batch := range batches(ordered, o.cfg.BatchSize) {
		if b > 0 && o.cfg.InterBatchDelay > 0 {
			if err := o.sleep(budgetCtx, o.cfg.InterBatchDelay); err != nil {
				summary.AbortReason = o.abortReason(ctx)
				break
			}
		}
		if reason := o.shouldAbort(budgetCtx, ctx, summary); reason != "" {
			summary.AbortReason = reason
			break
		}

		batchResults := o.runBatch(budgetCtx, batch)
		summary.Batches++
		for _, r := range batchResults {
			if r.err != nil {
				summary.Failed++
				metrics.SearchTasks.WithLabelValues("failed").Inc()
				o.logger.Warn("search task failed",
					zap.String("task", r.task.ID),
					zap.Int("tier", r.task.Tier),
					zap.Error(r.err))
				continue
			}
			summary.Completed++
			metrics.SearchTasks.WithLabelValues("completed").Inc()
		}
		results = append(results, batchResults...)
	}
	if summary.AbortReason == "" && budgetCtx.Err() != nil {
		summary.AbortReason = o.abortReason(ctx)
	}
	summary.PartialResults = summary.AbortReason != "" || summary.Failed > 0

	candidates, authors := o.merge(results)
	if n := o.cfg.EnrichJudges; n > 0 && budgetCtx.Err() == nil {
		o.enrichJudges(budgetCtx, candidates, authors, n)
	}

	summary.Candidates = len(candidates)
	summary.Duration = o.now().Sub(start)
	if summary.AbortReason != "" {
		o.logger.Warn("search aborted",
			zap.String("reason", summary.AbortReason),
			zap.Int("completed", summary.Completed),
			zap.Int("failed", summary.Failed),
			zap.Int("total", summary.TotalTasks))
	}
	return candidates, summary
}

// runBatch runs every task of a batch concurrently, each under its own
// timeout. Task errors are captured in the results, not returned.
func (o *Orchestrator) runBatch(ctx context.Context, batch []model.SearchTask) []taskResult {
	results := make([]taskResult, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	for i, task := range batch {
		g.Go(func() error {
			taskCtx, cancel := context.WithTimeout(gctx, o.cfg.TaskTimeout)
			defer cancel()

			hits, err := o.client.SearchOpinions(taskCtx, task.Query, caselaw.SearchOptions{Court: task.Court})
			if err == nil && taskCtx.Err() != nil {
				err = taskCtx.Err()
			}
			if err != nil {
				err = fmt.Errorf("task %s: %w", task.ID, err)
			}
			results[i] = taskResult{task: task, hits: hits, err: err}
			return nil
		})
	}
	_ = g.Wait() // errors captured in taskResult.err
	return results
}

// shouldAbort checks the stop conditions before a batch starts
func (o *Orchestrator) shouldAbort(budgetCtx, parent context.Context, s model.SearchSummary) string {
	if budgetCtx.Err() != nil {
		return o.abortReason(parent)
	}
	if o.client.BreakerOpen() {
		return AbortBreakerOpen
	}
	done := s.Completed + s.Failed
	if done >= o.cfg.MinForFailureRate && float64(s.Failed)/float64(done) > o.cfg.MaxFailureRate {
		return AbortFailureRate
	}
	return ""
}

func (o *Orchestrator) abortReason(parent context.Context) string {
	if parent.Err() != nil && !errors.Is(parent.Err(), context.DeadlineExceeded) {
		return AbortCancelled
	}
	return AbortBudget
}

// merge deduplicates hits by source id, resolves authority tiers and
// orders candidates by tier then decision date, newest first
func (o *Orchestrator) merge(results []taskResult) ([]model.Candidate, map[string][]string) {
	index := make(map[string]int)
	authors := make(map[string][]string)
	var out []model.Candidate

	for _, r := range results {
		for _, hit := range r.hits {
			c := hit.Candidate()
			if c.SourceID == "" {
				continue
			}
			if i, ok := index[c.SourceID]; ok {
				if out[i].Snippet == "" {
					out[i].Snippet = c.Snippet
				}
				continue
			}
			c.TaskID = r.task.ID
			court := c.CourtID
			if court == "" {
				court = c.Court
			}
			c.Tier = courtTier(o.courts, court)
			index[c.SourceID] = len(out)
			out = append(out, c)
			if ids := hit.AuthorIDs(); len(ids) > 0 {
				authors[c.SourceID] = ids
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := out[i].Tier.SortKey(), out[j].Tier.SortKey()
		if ki != kj {
			return ki < kj
		}
		return out[i].DateFiled.After(out[j].DateFiled)
	})
	return out, authors
}

// enrichJudges replaces judge strings of the top n candidates with full
// names from the people endpoint. Lookups are serialized by the client.
func (o *Orchestrator) enrichJudges(ctx context.Context, candidates []model.Candidate, authors map[string][]string, n int) {
	for i := 0; i < len(candidates) && i < n; i++ {
		ids := authors[candidates[i].SourceID]
		if len(ids) == 0 {
			continue
		}
		people, err := o.client.LookupPeople(ctx, ids)
		if err != nil {
			o.logger.Debug("judge enrichment stopped", zap.Error(err))
			return
		}
		var names []string
		for _, p := range people {
			if name := p.FullName(); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			candidates[i].Judges = names
		}
	}
}

func batches(tasks []model.SearchTask, size int) [][]model.SearchTask {
	var out [][]model.SearchTask
	for start := 0; start < len(tasks); start += size {
		end := start + size
		if end > len(tasks) {
			end = len(tasks)
		}
		out = append(out, tasks[start:end])
	}
	return out
}

func courtTier(r courts.Resolver, name string) model.AuthorityTier {
	if name == "" {
		return model.TierUnknown
	}
	c, _ := r.Resolve(name)
	return c.Level
}
