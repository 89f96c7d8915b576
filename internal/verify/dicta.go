package verify

import (
	"context"

	"github.com/ppiankov/citecheck/internal/llm"
	"github.com/ppiankov/citecheck/internal/model"
)

// Step-3 confidence by classification
var dictaConfidence = map[model.DictaClass]float64{
	model.ClassHolding: 1.0,
	model.ClassUnclear: 0.5,
	model.ClassDicta:   0.3,
}

// classifyDicta decides whether the relied-on language is holding or dicta.
// Dicta blocks only high-stakes propositions; everything else continues
// with a note.
func (p *Pipeline) classifyDicta(ctx context.Context, run *model.VerificationRun, opinion string) (*model.DictaResult, model.Usage) {
	var usage model.Usage

	decision := llm.DictaDecision{Class: model.ClassUnclear}
	var stepErr string

	switch {
	case run.Holding.Result == model.HoldingDictaOnly:
		// Stage 1 already located the language outside the holding
		decision = llm.DictaDecision{Class: model.ClassDicta, Reasoning: run.Holding.Stage1.Reasoning, Valid: true}
	default:
		passage := run.Holding.Stage1.Quote
		if passage == "" {
			passage = run.Citation.Quote
		}
		call, err := p.router.Complete(ctx, llm.Tier(run.Tier), llm.StageAux, llm.SystemClassifier,
			llm.DictaPrompt(run.Citation, run.Holding.Proposition, passage, opinion))
		if err != nil {
			stepErr = err.Error()
			break
		}
		usage.AuxCalls++
		addCall(&usage, call)
		decision = llm.DecodeDicta(call.Response.Text)
	}

	res := &model.DictaResult{
		Gate: model.Gate{
			Proceed:    !(decision.Class == model.ClassDicta && run.Proposition.IsHighStakes()),
			Confidence: dictaConfidence[decision.Class],
			Error:      stepErr,
		},
		Classification: decision.Class,
		Reasoning:      decision.Reasoning,
	}
	return res, usage
}
