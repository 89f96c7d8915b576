package strength

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/logging"
	"github.com/ppiankov/citecheck/internal/model"
)

// Query terms for negative citing treatment
const (
	distinguishTerms = `distinguished OR distinguishable OR "is inapposite"`
	criticismTerms   = `criticized OR questioned OR "declined to follow" OR "decline to follow"`
)

// CitingCounter counts opinions citing a cluster
type CitingCounter interface {
	CountCiting(ctx context.Context, clusterID string, terms string, opts caselaw.SearchOptions) (int, error)
}

// Cache stores assessments keyed by normalized citation
type Cache interface {
	GetStrength(ctx context.Context, normalized string) (*model.StrengthAssessment, error)
	PutStrength(ctx context.Context, normalized string, a model.StrengthAssessment) error
}

// Engine gathers citing-network counts and assesses them
type Engine struct {
	counter CitingCounter
	cache   Cache
	maxAge  time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewEngine creates an engine. cache may be nil; maxAge bounds how long a
// cached assessment is reused.
func NewEngine(counter CitingCounter, cache Cache, maxAge time.Duration, logger *zap.Logger) *Engine {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &Engine{
		counter: counter,
		cache:   cache,
		maxAge:  maxAge,
		now:     time.Now,
		logger:  logging.OrNop(logger),
	}
}

// Assess returns the strength of the cluster cited as normalized, decided
// on the given date
func (e *Engine) Assess(ctx context.Context, normalized, clusterID string, decided time.Time) (model.StrengthAssessment, error) {
	now := e.now()

	if e.cache != nil && normalized != "" {
		cached, err := e.cache.GetStrength(ctx, normalized)
		if err != nil {
			e.logger.Debug("strength cache read failed", zap.String("citation", normalized), zap.Error(err))
		} else if cached != nil && now.Sub(cached.AssessedAt) < e.maxAge {
			return *cached, nil
		}
	}

	in, err := e.Gather(ctx, clusterID, decided)
	if err != nil {
		return model.StrengthAssessment{}, err
	}
	a := Assess(in, now)

	if e.cache != nil && normalized != "" {
		if err := e.cache.PutStrength(ctx, normalized, a); err != nil {
			e.logger.Warn("strength cache write failed", zap.String("citation", normalized), zap.Error(err))
		}
	}
	return a, nil
}

// Gather collects the inputs with four count queries
func (e *Engine) Gather(ctx context.Context, clusterID string, decided time.Time) (model.StrengthInputs, error) {
	if clusterID == "" {
		return model.StrengthInputs{}, fmt.Errorf("no cluster id")
	}
	now := e.now()

	total, err := e.counter.CountCiting(ctx, clusterID, "", caselaw.SearchOptions{})
	if err != nil {
		return model.StrengthInputs{}, fmt.Errorf("count citing: %w", err)
	}
	recent, err := e.counter.CountCiting(ctx, clusterID, "", caselaw.SearchOptions{FiledAfter: now.AddDate(-5, 0, 0)})
	if err != nil {
		return model.StrengthInputs{}, fmt.Errorf("count recent citing: %w", err)
	}
	distinguished, err := e.counter.CountCiting(ctx, clusterID, distinguishTerms, caselaw.SearchOptions{})
	if err != nil {
		return model.StrengthInputs{}, fmt.Errorf("count distinguishing: %w", err)
	}
	criticism, err := e.counter.CountCiting(ctx, clusterID, criticismTerms, caselaw.SearchOptions{})
	if err != nil {
		return model.StrengthInputs{}, fmt.Errorf("count criticism: %w", err)
	}

	in := model.StrengthInputs{
		AgeYears:       ageYears(decided, now),
		TotalCitations: total,
		Recent5Y:       recent,
		Distinguished:  distinguished,
		Criticism:      criticism,
	}
	in.DistinguishRate = distinguishRate(in)
	return in, nil
}

func ageYears(decided, now time.Time) int {
	if decided.IsZero() || decided.After(now) {
		return 0
	}
	years := now.Year() - decided.Year()
	if now.YearDay() < decided.YearDay() {
		years--
	}
	return years
}
