package verify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/llm"
	"github.com/ppiankov/citecheck/internal/model"
)

// negativeTerms narrows the citing network to opinions that may dispose of
// the cited case
const negativeTerms = `overruled OR overruling OR reversed OR vacated OR superseded`

// Layer-1 confidence when the network is clean or not
const (
	layer1Clean = 1.0
	layer1Dirty = 0.3
)

var dispositionRe = regexp.MustCompile(`(?i)\b(overrul(?:ed|es|ing|e)|reversed|vacated|superseded)\b`)

// definitiveWindow is how close a disposition word must sit to the cited
// case's name to count as treatment of that case
const definitiveWindow = 120

// checkBadLaw runs the curated override list, then the treatment network,
// then AI pattern search when the network is inconclusive. The most severe
// status found governs.
func (p *Pipeline) checkBadLaw(ctx context.Context, run *model.VerificationRun, caseName string) (*model.BadLawResult, model.Usage) {
	var usage model.Usage
	now := p.now()
	res := &model.BadLawResult{
		CheckedAt:  now,
		ValidUntil: now.Add(p.cfg.BadLawValidity),
	}

	// Layer 3: curated overrides are authoritative
	if p.repo != nil {
		entry, err := p.repo.LookupOverride(ctx, run.Citation.Normalized)
		if err != nil {
			p.logger.Warn("override lookup failed", zap.String("citation", run.Citation.Normalized), zap.Error(err))
		} else if entry != nil {
			res.Status = entry.Status
			res.DecidedBy = 3
			res.OverrideReason = overrideReason(entry)
			res.Confidence = overrideConfidence(entry.Status)
			res.Proceed = entry.Status != model.LawOverruled
			return res, usage
		}
	}

	// Layer 1: deterministic treatment network
	hits, err := p.caselaw.CitingOpinions(ctx, run.Existence.SourceID, negativeTerms, caselaw.SearchOptions{MaxPages: 1})
	if err != nil {
		res.Status = model.LawCaution
		res.DecidedBy = 1
		res.Layer1Confidence = layer1Dirty
		res.Confidence = layer1Dirty
		res.Error = fmt.Sprintf("treatment network: %v", err)
		res.Proceed = true
		return res, usage
	}

	treatments, snippets := definitiveTreatments(hits, run.Existence.SourceID, caseName)
	res.Treatments = treatments
	res.Layer1Clean = len(treatments) == 0
	res.Layer1Confidence = layer1Dirty
	if res.Layer1Clean {
		res.Layer1Confidence = layer1Clean
	}
	res.Status = layer1Status(treatments)
	res.DecidedBy = 1

	// Layer 1 is conclusive when it found a disposition or nothing at all
	if !res.Layer1Clean || len(hits) == 0 {
		// Skipped layer 2 counts at the layer-1 value
		res.Confidence = res.Layer1Confidence
		res.Proceed = res.Status != model.LawOverruled
		return res, usage
	}

	// Layer 2: AI pattern search over the inconclusive excerpts
	call, err := p.router.Complete(ctx, llm.Tier(run.Tier), llm.StageAux, llm.SystemClassifier,
		llm.BadLawPrompt(run.Citation, caseName, snippets))
	var decision llm.BadLawDecision
	if err != nil {
		decision = llm.BadLawDecision{Status: model.LawCaution, Confidence: 0.5}
		res.Error = fmt.Sprintf("treatment pattern search: %v", err)
	} else {
		usage.AuxCalls++
		addCall(&usage, call)
		decision = llm.DecodeBadLaw(call.Response.Text)
	}

	res.Layer2Ran = true
	res.Layer2Confidence = goodLawConfidence(decision)
	res.Treatments = append(res.Treatments, decision.Treatments...)
	if decision.Status.Rank() > res.Status.Rank() {
		res.Status = decision.Status
		res.DecidedBy = 2
	}
	res.Confidence = model.Clamp01(0.6*res.Layer1Confidence + 0.4*res.Layer2Confidence)
	res.Proceed = res.Status != model.LawOverruled
	return res, usage
}

// definitiveTreatments finds disposition words tied to the cited case in
// the citing excerpts. It also returns every excerpt for layer 2.
func definitiveTreatments(hits []caselaw.SearchHit, sourceID, caseName string) ([]model.Treatment, []string) {
	keys := partyKeys(caseName)
	var treatments []model.Treatment
	var snippets []string

	for _, h := range hits {
		cand := h.Candidate()
		if cand.SourceID == sourceID || cand.Snippet == "" {
			continue
		}
		snippets = append(snippets, cand.CaseName+": "+cand.Snippet)

		lower := strings.ToLower(cand.Snippet)
		for _, loc := range dispositionRe.FindAllStringIndex(lower, -1) {
			if !nearAny(lower, keys, loc[0], loc[1]) {
				continue
			}
			treatments = append(treatments, model.Treatment{
				Kind:       dispositionKind(lower[loc[0]:loc[1]]),
				CitingCase: cand.CaseName,
				CitingID:   cand.SourceID,
				Snippet:    cand.Snippet,
			})
			break
		}
	}
	return treatments, snippets
}

// nearAny reports whether a party key occurs within definitiveWindow bytes
// of the span [start, end)
func nearAny(text string, keys []string, start, end int) bool {
	if len(keys) == 0 {
		return false
	}
	lo := max(0, start-definitiveWindow)
	hi := min(len(text), end+definitiveWindow)
	window := words(text[lo:hi])
	for _, k := range keys {
		for _, w := range window {
			if w == k {
				return true
			}
		}
	}
	return false
}

func dispositionKind(word string) string {
	if strings.HasPrefix(word, "overrul") {
		return "overruled"
	}
	return word
}

func layer1Status(treatments []model.Treatment) model.LawStatus {
	status := model.LawGood
	for _, t := range treatments {
		s := model.LawNegativeTreatment
		if t.Kind == "overruled" {
			s = model.LawOverruled
		}
		if s.Rank() > status.Rank() {
			status = s
		}
	}
	return status
}

// goodLawConfidence turns a layer-2 verdict into confidence that the case
// is still good law
func goodLawConfidence(d llm.BadLawDecision) float64 {
	if d.Status == model.LawGood {
		return model.Clamp01(d.Confidence)
	}
	if d.Status == model.LawCaution {
		return 0.5
	}
	return model.Clamp01(1 - d.Confidence)
}

func overrideConfidence(s model.LawStatus) float64 {
	switch s {
	case model.LawOverruled:
		return 0
	case model.LawGood:
		return 1
	default:
		return layer1Dirty
	}
}

func overrideReason(e *model.OverrideEntry) string {
	reason := e.CaseName
	if e.OverruledBy != "" {
		reason = fmt.Sprintf("%s overruled by %s", e.CaseName, e.OverruledBy)
	}
	if e.Note != "" {
		reason += " (" + e.Note + ")"
	}
	return reason
}
