// Package pipeline assembles the citecheck components from configuration
// and runs them end to end for the CLI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/feed"
	"github.com/ppiankov/citecheck/internal/llm"
	"github.com/ppiankov/citecheck/internal/logging"
	"github.com/ppiankov/citecheck/internal/metrics"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/score"
	"github.com/ppiankov/citecheck/internal/search"
	"github.com/ppiankov/citecheck/internal/store"
	"github.com/ppiankov/citecheck/internal/strength"
	"github.com/ppiankov/citecheck/internal/verify"
	"github.com/ppiankov/citecheck/internal/worker"
)

// ErrNothingVerifiable is returned when no citation of a feed produced a
// run of its own
var ErrNothingVerifiable = errors.New("no citation could be verified")

// Mode selects which components an engine needs
type Mode int

const (
	ModeVerify Mode = iota // Case law, both AI vendors, store and cache
	ModeSearch             // Case law only
)

// Engine holds the wired components. One engine shares a single limiter
// and breaker across everything it runs.
type Engine struct {
	cfg      *model.Config
	client   *caselaw.Client
	store    *store.SQLiteStore
	batch    *worker.BatchProcessor
	search   *search.Orchestrator
	courts   *courts.Gazetteer
	renderer *Renderer
	logger   *zap.Logger
	now      func() time.Time
}

// New wires an engine for mode. Missing credentials surface as
// model.ErrMissingCredentials.
func New(ctx context.Context, cfg *model.Config, mode Mode, logger *zap.Logger) (*Engine, error) {
	logger = logging.OrNop(logger)

	limiter := worker.NewLimiter(cfg.RateLimit)
	breaker := worker.NewCircuitBreaker(cfg.Breaker)
	breaker.OnStateChange(func(from, to worker.BreakerState) {
		metrics.BreakerState.Set(float64(to))
		logger.Warn("case-law breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	})

	client, err := caselaw.NewClient(cfg.CaseLaw, cfg.RateLimit, limiter, breaker, logger.Named("caselaw"))
	if err != nil {
		return nil, err
	}

	gaz := courts.Default()
	e := &Engine{
		cfg:      cfg,
		client:   client,
		search:   search.NewOrchestrator(client, cfg.Search, gaz, logger.Named("search")),
		courts:   gaz,
		renderer: NewRenderer(),
		logger:   logger,
		now:      time.Now,
	}
	if mode == ModeSearch {
		return e, nil
	}

	providers, err := llm.NewProviders(cfg.LLM)
	if err != nil {
		return nil, err
	}
	router, err := llm.NewRouter(llm.RoutesFor(cfg.LLM.Primary.Provider, cfg.LLM.Adversarial.Provider), providers, logger.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("model router: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	e.store = st
	if cfg.Store.OverridesFile != "" {
		entries, err := store.LoadOverrides(cfg.Store.OverridesFile)
		if err == nil {
			err = st.PutOverrides(ctx, entries)
		}
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("overrides: %w", err)
		}
		logger.Info("curated overrides loaded", zap.Int("entries", len(entries)), zap.String("file", cfg.Store.OverridesFile))
	}

	deps := verify.Deps{
		CaseLaw:  client,
		Router:   router,
		Repo:     st,
		Strength: strength.NewEngine(client, st, cfg.Verify.ResultTTL, logger.Named("strength")),
	}
	if cfg.Cache.Enabled {
		deps.Cache = cache.NewLayeredCache(cfg.Cache.TTL, st, cfg.Verify.ResultTTL, logger.Named("cache"))
	}

	verifier := verify.NewPipeline(cfg.Verify, deps, logger.Named("verify"))
	e.batch = worker.NewBatchProcessor(verifier, cfg.Concurrency.Citations, logger)
	return e, nil
}

// Close releases the store
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Renderer returns the report renderer
func (e *Engine) Renderer() *Renderer {
	return e.renderer
}

// VerifyFeed verifies every citation of the feed and aggregates the batch.
// The report is returned even when nothing was verifiable.
func (e *Engine) VerifyFeed(ctx context.Context, fd *feed.Feed) (model.BatchReport, error) {
	if e.batch == nil {
		return model.BatchReport{}, errors.New("engine was not built for verification")
	}
	reqs := fd.Requests()
	e.logger.Info("verifying feed",
		zap.String("motion_type", fd.MotionType),
		zap.Int("citations", len(reqs)),
		zap.Int("distinct", fd.Distinct()),
		zap.String("tier", string(llm.TierFor(fd.MotionType))))

	start := e.now()
	results := e.batch.Process(ctx, reqs)
	report := verify.BuildReport(results, fd.MotionType, e.now().Sub(start), e.now())

	e.logger.Info("feed verified",
		zap.Int("total", report.Summary.Total),
		zap.Int("errors", report.Summary.Errors),
		zap.Int("cache_hits", report.Summary.CacheHits),
		zap.Float64("average_confidence", report.Summary.AverageConfidence),
		zap.Float64("estimated_cost_usd", report.Summary.EstimatedCostUSD),
		zap.Duration("elapsed", report.Summary.Duration))

	if !verify.Verifiable(report) {
		return report, ErrNothingVerifiable
	}
	return report, nil
}

// SearchResult is a ranked search outcome
type SearchResult struct {
	Query      string                  `json:"query"`
	Tasks      []model.SearchTask      `json:"tasks"`
	Summary    model.SearchSummary     `json:"summary"`
	Candidates []model.ScoredCandidate `json:"candidates"`
	Rejected   int                     `json:"rejected"`
}

// Search plans and runs the tiered search for req and ranks the candidates
// with the three-axis model. Rejected candidates are dropped unless
// keepRejected is set.
func (e *Engine) Search(ctx context.Context, req *feed.SearchRequest, keepRejected bool) (*SearchResult, error) {
	tasks := search.BuildPlan(req.Query, req.Jurisdiction, e.courts)
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no search tasks for query %q", req.Query)
	}

	candidates, summary := e.search.Run(ctx, tasks)
	ranked := score.Rank(score.NewThreeAxis(), candidates, req.ScoringContext(e.now(), e.courts))
	passed, rejected := score.Partition(ranked)

	res := &SearchResult{
		Query:      req.Query,
		Tasks:      tasks,
		Summary:    summary,
		Candidates: passed,
		Rejected:   len(rejected),
	}
	if keepRejected {
		res.Candidates = ranked
	}
	if summary.AbortReason != "" {
		e.logger.Warn("search ended early",
			zap.String("reason", summary.AbortReason),
			zap.Int("completed", summary.Completed),
			zap.Int("failed", summary.Failed))
	}
	return res, nil
}
