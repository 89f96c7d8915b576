// Package verify runs the citation integrity pipeline: existence, holding,
// dicta, quotation, bad law and authority strength, each gated on the step
// before it, then derives one composite verdict from the run.
package verify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/llm"
	"github.com/ppiankov/citecheck/internal/logging"
	"github.com/ppiankov/citecheck/internal/metrics"
	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/worker"
)

// CaseLaw is the part of the case-law client the pipeline calls
type CaseLaw interface {
	LookupCitation(ctx context.Context, text string) ([]caselaw.CitationMatch, error)
	SearchOpinions(ctx context.Context, query string, opts caselaw.SearchOptions) ([]caselaw.SearchHit, error)
	SearchCaseName(ctx context.Context, caseName string, opts caselaw.SearchOptions) ([]caselaw.SearchHit, error)
	SearchDockets(ctx context.Context, query string, opts caselaw.SearchOptions) ([]caselaw.SearchHit, error)
	CitingOpinions(ctx context.Context, clusterID string, terms string, opts caselaw.SearchOptions) ([]caselaw.SearchHit, error)
	FetchOpinionText(ctx context.Context, clusterID string) (string, error)
}

// Completer routes a single-turn completion to the vendor serving a stage
type Completer interface {
	Complete(ctx context.Context, tier llm.Tier, stage llm.Stage, system, prompt string) (*llm.Call, error)
}

// Repository persists runs and serves the curated override list
type Repository interface {
	SaveRun(ctx context.Context, run *model.VerificationRun) error
	LookupOverride(ctx context.Context, normalized string) (*model.OverrideEntry, error)
}

// StrengthAssessor scores the authority of a verified citation
type StrengthAssessor interface {
	Assess(ctx context.Context, normalized, clusterID string, decided time.Time) (model.StrengthAssessment, error)
}

// Deps are the collaborators of a pipeline. Repo, Cache and Strength are
// optional.
type Deps struct {
	CaseLaw  CaseLaw
	Router   Completer
	Repo     Repository
	Cache    cache.Cache
	Strength StrengthAssessor
}

// Pipeline verifies one citation at a time. It is safe for concurrent use.
type Pipeline struct {
	cfg      model.VerifyConfig
	caselaw  CaseLaw
	router   Completer
	repo     Repository
	cache    cache.Cache
	strength StrengthAssessor
	reframe  Reframer
	logger   *zap.Logger
	now      func() time.Time
}

var _ worker.Verifier = (*Pipeline)(nil)

// NewPipeline creates a pipeline; zero config fields take defaults
func NewPipeline(cfg model.VerifyConfig, deps Deps, logger *zap.Logger) *Pipeline {
	def := model.DefaultConfig().Verify
	if cfg.HoldingThreshold <= 0 {
		cfg.HoldingThreshold = def.HoldingThreshold
	}
	if cfg.VerifiedThreshold <= 0 {
		cfg.VerifiedThreshold = def.VerifiedThreshold
	}
	if cfg.MaxReframes < 0 {
		cfg.MaxReframes = 0
	}
	if cfg.BadLawValidity <= 0 {
		cfg.BadLawValidity = def.BadLawValidity
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = def.StepTimeout
	}
	return &Pipeline{
		cfg:      cfg,
		caselaw:  deps.CaseLaw,
		router:   deps.Router,
		repo:     deps.Repo,
		cache:    deps.Cache,
		strength: deps.Strength,
		reframe:  DefaultReframer,
		logger:   logging.OrNop(logger),
		now:      time.Now,
	}
}

// WithReframer replaces the proposition reframing strategy
func (p *Pipeline) WithReframer(r Reframer) *Pipeline {
	if r != nil {
		p.reframe = r
	}
	return p
}

// Verify runs the pipeline for one request. Step failures degrade into the
// run; the error return is reserved for cancellation of the whole request.
func (p *Pipeline) Verify(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cache.Key(req.Citation.Normalized, req.Proposition.Text)

	if run := p.cached(ctx, key, req); run != nil {
		return run, nil
	}

	run := &model.VerificationRun{
		ID:          uuid.NewString(),
		Citation:    req.Citation,
		Proposition: req.Proposition,
		MotionType:  req.MotionType,
		Tier:        string(llm.TierFor(req.MotionType)),
		StartedAt:   p.now(),
	}
	log := p.logger.With(zap.String("run", run.ID), zap.String("citation", req.Citation.Normalized))

	p.runSteps(ctx, run, log)

	run.Signals = Signals(run)
	run.Composite = Compose(run, run.Signals, p.cfg.VerifiedThreshold)
	run.CompletedAt = p.now()
	metrics.Verifications.WithLabelValues(string(run.Composite.Status)).Inc()

	log.Info("citation verified",
		zap.String("status", string(run.Composite.Status)),
		zap.String("action", string(run.Composite.Action)),
		zap.Float64("confidence", run.Composite.Confidence),
		zap.Duration("elapsed", run.Duration()))

	p.save(ctx, run)
	if p.cache != nil && cacheable(run, p.cfg.VerifiedThreshold, run.CompletedAt) {
		p.cache.Set(ctx, key, run)
	}
	return run, nil
}

func (p *Pipeline) runSteps(ctx context.Context, run *model.VerificationRun, log *zap.Logger) {
	var existence *model.ExistenceResult
	p.step(ctx, func(ctx context.Context) { existence = p.checkExistence(ctx, run.Citation) })
	run.Existence = existence
	if !existence.Proceed {
		return
	}

	var opinion string
	p.step(ctx, func(ctx context.Context) {
		text, err := p.caselaw.FetchOpinionText(ctx, existence.SourceID)
		if err != nil {
			log.Warn("opinion text unavailable", zap.Error(err))
		}
		opinion = text
	})
	caseName := existence.CaseName
	if caseName == "" {
		caseName = run.Citation.Parsed.CaseName
	}

	var usage model.Usage
	p.step(ctx, func(ctx context.Context) {
		run.Holding, usage = p.verifyHolding(ctx, run, caseName, opinion)
	})
	run.Usage.Add(usage)
	if !run.Holding.Proceed {
		return
	}

	p.step(ctx, func(ctx context.Context) {
		run.Dicta, usage = p.classifyDicta(ctx, run, opinion)
	})
	run.Usage.Add(usage)
	if !run.Dicta.Proceed {
		return
	}

	run.Quote = CheckQuote(run.Citation.Quote, opinion)
	if !run.Quote.Proceed {
		return
	}

	p.step(ctx, func(ctx context.Context) {
		run.BadLaw, usage = p.checkBadLaw(ctx, run, caseName)
	})
	run.Usage.Add(usage)
	if !run.BadLaw.Proceed || p.strength == nil {
		return
	}

	p.step(ctx, func(ctx context.Context) {
		run.Strength = p.assessStrength(ctx, run)
	})
}

// step runs fn under the per-step timeout
func (p *Pipeline) step(ctx context.Context, fn func(ctx context.Context)) {
	stepCtx, cancel := context.WithTimeout(ctx, p.cfg.StepTimeout)
	defer cancel()
	fn(stepCtx)
}

func (p *Pipeline) assessStrength(ctx context.Context, run *model.VerificationRun) *model.StrengthResult {
	a, err := p.strength.Assess(ctx, run.Citation.Normalized, run.Existence.SourceID, run.Existence.DateFiled)
	if err != nil {
		p.logger.Debug("strength unavailable", zap.String("citation", run.Citation.Normalized), zap.Error(err))
		return &model.StrengthResult{Gate: model.Gate{Proceed: true, Error: err.Error()}}
	}
	return &model.StrengthResult{
		Gate:       model.Gate{Proceed: true, Confidence: model.FromPercent(float64(a.Score))},
		Assessment: a,
	}
}

// cached returns a copy of a fresh, verified result for the same citation
// and proposition, or nil
func (p *Pipeline) cached(ctx context.Context, key string, req model.VerifyRequest) *model.VerificationRun {
	if p.cache == nil {
		return nil
	}
	prior, ok := p.cache.Get(ctx, key)
	now := p.now()
	if !ok || !cacheable(prior, p.cfg.VerifiedThreshold, now) {
		return nil
	}

	run := *prior
	run.ID = uuid.NewString()
	run.Citation = req.Citation
	run.MotionType = req.MotionType
	run.StartedAt = now
	run.CompletedAt = now
	run.Cached = true
	run.Usage = model.Usage{}
	metrics.Verifications.WithLabelValues(string(run.Composite.Status)).Inc()
	p.logger.Debug("served from cache", zap.String("citation", req.Citation.Normalized), zap.String("source_run", prior.ID))

	p.save(ctx, &run)
	return &run
}

func (p *Pipeline) save(ctx context.Context, run *model.VerificationRun) {
	if p.repo == nil {
		return
	}
	if err := p.repo.SaveRun(ctx, run); err != nil {
		p.logger.Warn("run not persisted", zap.String("run", run.ID), zap.Error(err))
	}
}

// cacheable reports whether a run may stand in for a re-verification at now
func cacheable(run *model.VerificationRun, threshold float64, now time.Time) bool {
	if run == nil || run.Error != "" {
		return false
	}
	if run.Composite.Status != model.StatusVerified || run.Composite.Confidence < threshold {
		return false
	}
	// Treatment status must be rechecked once its validity window lapses
	if run.BadLaw != nil && !run.BadLaw.ValidUntil.IsZero() && now.After(run.BadLaw.ValidUntil) {
		return false
	}
	return true
}
