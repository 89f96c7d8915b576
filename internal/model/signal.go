package model

// Severity of a treatment signal
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityBlocking Severity = "BLOCKING"
)

// Rank orders severities
func (s Severity) Rank() int {
	switch s {
	case SeverityBlocking:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Action is the recommendation attached to a result
type Action string

const (
	ActionNone    Action = "NONE"
	ActionReview  Action = "REVIEW"
	ActionReplace Action = "REPLACE"
	ActionRemove  Action = "REMOVE"
)

// Rank orders actions by how much they disturb the draft
func (a Action) Rank() int {
	switch a {
	case ActionRemove:
		return 3
	case ActionReplace:
		return 2
	case ActionReview:
		return 1
	default:
		return 0
	}
}

// Status is the composite verdict
type Status string

const (
	StatusVerified Status = "VERIFIED"
	StatusFlagged  Status = "FLAGGED"
	StatusRejected Status = "REJECTED"
	StatusBlocked  Status = "BLOCKED"
)

// SignalType classifies a treatment signal
type SignalType string

const (
	SignalNotFound          SignalType = "citation_not_found"
	SignalUnpublished       SignalType = "unpublished_opinion"
	SignalUnverifiable      SignalType = "existence_unverifiable"
	SignalHoldingRejected   SignalType = "holding_rejected"
	SignalHoldingWeak       SignalType = "holding_low_confidence"
	SignalHoldingPartial    SignalType = "holding_partial_support"
	SignalDictaBlocked      SignalType = "dicta_high_stakes"
	SignalDictaNote         SignalType = "dicta_note"
	SignalQuoteCorrected    SignalType = "quote_corrected"
	SignalQuoteMismatch     SignalType = "quote_mismatch"
	SignalQuoteUnverifiable SignalType = "quote_unverifiable"
	SignalEllipsisMisuse    SignalType = "ellipsis_misuse"
	SignalOverruled         SignalType = "overruled"
	SignalNegativeTreatment SignalType = "negative_treatment"
	SignalCaution           SignalType = "treatment_caution"
	SignalStepError         SignalType = "step_error"
)

// TreatmentSignal is a finding attached to a run. The highest-severity
// signal governs the final status and action.
type TreatmentSignal struct {
	Type     SignalType `json:"type"`
	Severity Severity   `json:"severity"`
	Protocol string     `json:"protocol"` // Stable identifier of the rule that fired
	Action   Action     `json:"action"`
	Status   Status     `json:"status,omitempty"` // Verdict this signal forces when it governs (blocking only)
	Message  string     `json:"message"`
	Step     int        `json:"step"`
}

// CompositeResult is the deterministic verdict derived from a run
type CompositeResult struct {
	Status     Status   `json:"status"`
	Confidence float64  `json:"confidence"`
	Flags      []string `json:"flags,omitempty"`
	Action     Action   `json:"action"`
}
