package verify

import (
	"fmt"

	"github.com/ppiankov/citecheck/internal/model"
)

// Composite weights of steps 1-5. Strength is informational and excluded.
const (
	weightExistence = 0.20
	weightHolding   = 0.35
	weightDicta     = 0.15
	weightQuote     = 0.10
	weightBadLaw    = 0.20
)

// FlagBelowThreshold marks a run with no warning whose confidence still
// falls short of the verified threshold
const FlagBelowThreshold = "confidence_below_threshold"

func signal(t model.SignalType, sev model.Severity, protocol string, action model.Action, step int, msg string) model.TreatmentSignal {
	s := model.TreatmentSignal{Type: t, Severity: sev, Protocol: protocol, Action: action, Step: step, Message: msg}
	if sev == model.SeverityWarning {
		s.Status = model.StatusFlagged
	}
	return s
}

func blocking(t model.SignalType, protocol string, status model.Status, action model.Action, step int, msg string) model.TreatmentSignal {
	s := signal(t, model.SeverityBlocking, protocol, action, step, msg)
	s.Status = status
	return s
}

// Signals derives the treatment signals of a run from its step outputs
func Signals(run *model.VerificationRun) []model.TreatmentSignal {
	var out []model.TreatmentSignal

	if run.Error != "" {
		out = append(out, signal(model.SignalStepError, model.SeverityWarning, "run.error", model.ActionReview, 0, run.Error))
	}

	if e := run.Existence; e != nil {
		switch e.Status {
		case model.ExistenceNotFound:
			out = append(out, blocking(model.SignalNotFound, "existence.not_found", model.StatusRejected, model.ActionRemove, 1,
				"citation not found by any case-law source"))
		case model.ExistenceUnpublished:
			out = append(out, blocking(model.SignalUnpublished, "existence.unpublished", model.StatusBlocked, model.ActionReplace, 1,
				"unpublished opinions are not cited"))
		case model.ExistenceUnverifiable:
			out = append(out, signal(model.SignalUnverifiable, model.SeverityWarning, "existence.unverifiable", model.ActionReview, 1,
				"existence could not be checked: "+e.Error))
		}
	}

	if h := run.Holding; h != nil {
		switch {
		case h.Result == model.HoldingRejected:
			out = append(out, blocking(model.SignalHoldingRejected, "holding.rejected", model.StatusRejected, model.ActionReplace, 2,
				fmt.Sprintf("opinion does not support the proposition (confidence %.2f)", h.Confidence)))
		case h.Error != "" && !h.Proceed:
			out = append(out, signal(model.SignalStepError, model.SeverityWarning, "holding.error", model.ActionReview, 2,
				"holding could not be verified: "+h.Error))
		case !h.Proceed:
			out = append(out, signal(model.SignalHoldingWeak, model.SeverityWarning, "holding.low_confidence", model.ActionReview, 2,
				fmt.Sprintf("holding support below threshold (confidence %.2f)", h.Confidence)))
		}
		if h.Proceed && h.Result == model.HoldingPartial {
			out = append(out, signal(model.SignalHoldingPartial, model.SeverityWarning, "holding.partial", model.ActionReview, 2,
				"opinion supports the proposition only in part"))
		}
		if h.Proceed && h.Error != "" {
			out = append(out, signal(model.SignalStepError, model.SeverityWarning, "holding.unchallenged", model.ActionReview, 2, h.Error))
		}
	}

	if d := run.Dicta; d != nil {
		switch {
		case d.Classification == model.ClassDicta && !d.Proceed:
			out = append(out, blocking(model.SignalDictaBlocked, "dicta.high_stakes", model.StatusBlocked, model.ActionReplace, 3,
				"cited language is dicta; a primary standard or required element needs a holding"))
		case d.Classification == model.ClassDicta:
			out = append(out, signal(model.SignalDictaNote, model.SeverityWarning, "dicta.note", model.ActionReview, 3,
				"cited language is dicta"))
		case d.Classification == model.ClassUnclear:
			msg := "holding or dicta could not be determined"
			if d.Error != "" {
				msg += ": " + d.Error
			}
			out = append(out, signal(model.SignalDictaNote, model.SeverityInfo, "dicta.unclear", model.ActionNone, 3, msg))
		}
	}

	if q := run.Quote; q != nil {
		switch q.Status {
		case model.QuoteCloseMatch:
			out = append(out, signal(model.SignalQuoteCorrected, model.SeverityInfo, "quote.corrected", model.ActionNone, 4,
				"quotation corrected to the opinion text"))
		case model.QuotePartialMatch:
			out = append(out, signal(model.SignalQuoteMismatch, model.SeverityWarning, "quote.partial", model.ActionReview, 4,
				fmt.Sprintf("quotation differs from the opinion (similarity %.2f)", q.Similarity)))
		case model.QuoteNotFound:
			if q.Error != "" {
				out = append(out, signal(model.SignalQuoteUnverifiable, model.SeverityWarning, "quote.unverifiable", model.ActionReview, 4,
					"quotation could not be checked: "+q.Error))
			} else {
				out = append(out, signal(model.SignalQuoteMismatch, model.SeverityWarning, "quote.not_found", model.ActionReview, 4,
					"quotation not found in the opinion"))
			}
		}
		if !q.EllipsisValid {
			out = append(out, signal(model.SignalEllipsisMisuse, model.SeverityWarning, "quote.ellipsis", model.ActionReview, 4,
				"ellipsis joins passages out of their order in the opinion"))
		}
	}

	if b := run.BadLaw; b != nil {
		switch b.Status {
		case model.LawOverruled:
			msg := fmt.Sprintf("overruled (layer %d)", b.DecidedBy)
			if b.OverrideReason != "" {
				msg = b.OverrideReason
			}
			out = append(out, blocking(model.SignalOverruled, "badlaw.overruled", model.StatusBlocked, model.ActionReplace, 5, msg))
		case model.LawNegativeTreatment:
			out = append(out, signal(model.SignalNegativeTreatment, model.SeverityWarning, "badlaw.negative", model.ActionReview, 5,
				fmt.Sprintf("negative treatment in citing cases (layer %d)", b.DecidedBy)))
		case model.LawCaution:
			msg := "possible negative treatment"
			if b.Error != "" {
				msg += ": " + b.Error
			}
			out = append(out, signal(model.SignalCaution, model.SeverityWarning, "badlaw.caution", model.ActionReview, 5, msg))
		}
	}

	return out
}

// Governing returns the signal that decides the verdict: highest severity,
// then the most disruptive action, then the earliest step
func Governing(signals []model.TreatmentSignal) *model.TreatmentSignal {
	var best *model.TreatmentSignal
	for i := range signals {
		s := &signals[i]
		if best == nil ||
			s.Severity.Rank() > best.Severity.Rank() ||
			(s.Severity.Rank() == best.Severity.Rank() && s.Action.Rank() > best.Action.Rank()) {
			best = s
		}
	}
	return best
}

// Confidence is the weighted composite of the gates of steps 1-5. Steps
// that did not run contribute nothing.
func Confidence(run *model.VerificationRun) float64 {
	weights := []float64{weightExistence, weightHolding, weightDicta, weightQuote, weightBadLaw}
	var total float64
	for i, g := range run.Gates() {
		if g == nil {
			continue
		}
		total += weights[i] * model.Clamp01(g.Confidence)
	}
	return model.Clamp01(total)
}

// Compose derives the composite verdict. A blocking signal decides status
// and action outright; a warning flags the run for review; otherwise the
// run is verified only at or above threshold.
func Compose(run *model.VerificationRun, signals []model.TreatmentSignal, threshold float64) model.CompositeResult {
	res := model.CompositeResult{Confidence: Confidence(run)}

	seen := make(map[string]bool)
	for _, s := range signals {
		if s.Severity == model.SeverityInfo || seen[string(s.Type)] {
			continue
		}
		seen[string(s.Type)] = true
		res.Flags = append(res.Flags, string(s.Type))
	}

	gov := Governing(signals)
	switch {
	case gov != nil && gov.Severity == model.SeverityBlocking:
		res.Status = gov.Status
		res.Action = gov.Action
	case gov != nil && gov.Severity == model.SeverityWarning:
		res.Status = model.StatusFlagged
		res.Action = gov.Action
	case res.Confidence >= threshold:
		res.Status = model.StatusVerified
		res.Action = model.ActionNone
	default:
		res.Status = model.StatusFlagged
		res.Action = model.ActionReview
		res.Flags = append(res.Flags, FlagBelowThreshold)
	}
	return res
}
