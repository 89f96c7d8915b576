package verify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/llm"
	"github.com/ppiankov/citecheck/internal/model"
)

// Borderline band of stage-1 confidence that calls for adversarial review
const (
	borderlineLow  = 0.70
	borderlineHigh = 0.90
)

// Reframer restates a proposition for retry attempt n (1-based)
type Reframer func(proposition string, attempt int) string

// PrefixReframer rotates through fixed lead-ins
func PrefixReframer(prefixes ...string) Reframer {
	return func(proposition string, attempt int) string {
		if len(prefixes) == 0 || attempt < 1 {
			return proposition
		}
		return prefixes[(attempt-1)%len(prefixes)] + proposition
	}
}

// DefaultReframer is used unless the pipeline is given another
var DefaultReframer = PrefixReframer(
	"The court held that ",
	"As a matter of law, ",
)

// Reconcile combines a stage-1 judgment with an optional adversarial
// challenge into the final verdict and confidence
func Reconcile(s1 model.StageOneOutput, s2 *model.StageTwoOutput) (model.HoldingVerdict, float64) {
	c1 := model.Clamp01(s1.Confidence)
	if s2 == nil {
		return s1.Result, c1
	}
	cs := model.Clamp01(s2.ChallengeStrength)

	switch s2.Result {
	case model.ChallengeUpheld:
		return s1.Result, model.Clamp01((c1 + 1 - cs) / 2)
	case model.ChallengeRejected:
		return model.HoldingRejected, cs
	default: // WEAKENED
		if s1.Result == model.HoldingVerified {
			return model.HoldingPartial, model.Clamp01((c1 + 1 - cs) / 2)
		}
		return s1.Result, model.Clamp01(c1 * (1 - 0.5*cs))
	}
}

// support is how strongly an attempt backs the proposition. A REJECTED
// verdict's confidence measures the opposite.
func support(h model.HoldingResult) float64 {
	if h.Result == model.HoldingRejected {
		return 1 - h.Confidence
	}
	return h.Confidence
}

func borderline(conf float64) bool {
	return conf >= borderlineLow && conf < borderlineHigh
}

// holdingAttempt is one stage-1 (and maybe stage-2) pass
type holdingAttempt struct {
	result      model.HoldingResult
	usage       model.Usage
	stage2Error string
}

// verifyHolding judges whether the opinion supports the proposition. A
// borderline verdict reached without adversarial review is retried with a
// reframed proposition and stage 2 forced, keeping the best attempt.
func (p *Pipeline) verifyHolding(ctx context.Context, run *model.VerificationRun, caseName, opinion string) (*model.HoldingResult, model.Usage) {
	if opinion == "" {
		return &model.HoldingResult{
			Gate:        model.Gate{Error: "opinion text unavailable"},
			Result:      model.HoldingPartial,
			Proposition: run.Proposition.Text,
		}, model.Usage{}
	}

	tier := llm.Tier(run.Tier)
	mustChallenge := run.Proposition.IsHighStakes() || tier == llm.TierA

	var usage model.Usage
	first, err := p.holdingAttempt(ctx, run, tier, caseName, opinion, run.Proposition.Text, mustChallenge)
	usage.Add(first.usage)
	if err != nil {
		return &model.HoldingResult{
			Gate:        model.Gate{Error: err.Error()},
			Result:      model.HoldingPartial,
			Attempts:    1,
			Proposition: run.Proposition.Text,
		}, usage
	}

	best := first
	attempts := 1
	for n := 1; n <= p.cfg.MaxReframes; n++ {
		if best.result.Stage2 != nil || !borderline(best.result.Confidence) {
			break
		}
		reframed := p.reframe(run.Proposition.Text, n)
		next, err := p.holdingAttempt(ctx, run, tier, caseName, opinion, reframed, true)
		usage.Add(next.usage)
		attempts++
		if err != nil {
			p.logger.Debug("reframed holding attempt failed", zap.Int("attempt", attempts), zap.Error(err))
			continue
		}
		if support(next.result) > support(best.result) {
			best = next
		}
	}

	res := best.result
	res.Attempts = attempts
	res.Proceed = res.Result != model.HoldingRejected && res.Confidence >= p.cfg.HoldingThreshold
	if res.Stage2 == nil && mustChallenge && best.stage2Error != "" {
		res.Error = "adversarial review unavailable: " + best.stage2Error
	}
	return &res, usage
}

func (p *Pipeline) holdingAttempt(ctx context.Context, run *model.VerificationRun, tier llm.Tier, caseName, opinion, proposition string, force bool) (holdingAttempt, error) {
	var a holdingAttempt
	c := run.Citation

	call, err := p.router.Complete(ctx, tier, llm.StagePrimary, llm.SystemVerifier,
		llm.HoldingPrompt(c, caseName, proposition, opinion))
	if err != nil {
		return a, fmt.Errorf("stage 1: %w", err)
	}
	a.usage.Stage1Calls++
	addCall(&a.usage, call)

	s1 := llm.DecodeStageOne(call.Response.Text)
	s1.Model = call.Spec.Model

	var s2 *model.StageTwoOutput
	if force || borderline(s1.Confidence) {
		call2, err := p.router.Complete(ctx, tier, llm.StageAdversarial, llm.SystemChallenger,
			llm.ChallengePrompt(c, caseName, proposition, opinion, s1))
		if err != nil {
			a.stage2Error = err.Error()
		} else {
			a.usage.Stage2Calls++
			addCall(&a.usage, call2)
			out := llm.DecodeStageTwo(call2.Response.Text)
			out.Model = call2.Spec.Model
			s2 = &out
		}
	}

	verdict, conf := Reconcile(s1, s2)
	a.result = model.HoldingResult{
		Gate:        model.Gate{Confidence: conf},
		Result:      verdict,
		Stage1:      s1,
		Stage2:      s2,
		Proposition: proposition,
	}
	return a, nil
}

func addCall(u *model.Usage, call *llm.Call) {
	if call == nil || call.Response == nil {
		return
	}
	u.Tokens += call.Response.TotalTokens()
	u.CostUSD += call.Cost
}
