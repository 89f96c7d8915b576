package model

import "strings"

// Citation is a single legal authority as it appeared in a drafted document.
// Citations are values: a verification run may attach findings to itself,
// never to the citation it verified.
type Citation struct {
	Raw        string         `json:"raw"`        // Citation text as extracted
	Normalized string         `json:"normalized"` // Canonical dedup key (e.g. "410 U.S. 113")
	Parsed     ParsedCitation `json:"parsed"`
	Context    string         `json:"context,omitempty"` // Surrounding sentence(s) from the draft
	Quote      string         `json:"quote,omitempty"`   // Quoted language attributed to the authority
}

// ParsedCitation holds the structured fields of a case citation.
type ParsedCitation struct {
	Type      CitationType `json:"type"`
	CaseName  string       `json:"case_name,omitempty"`
	Plaintiff string       `json:"plaintiff,omitempty"`
	Defendant string       `json:"defendant,omitempty"`
	Volume    string       `json:"volume,omitempty"`
	Reporter  string       `json:"reporter,omitempty"`
	Page      string       `json:"page,omitempty"`
	Pinpoint  string       `json:"pinpoint,omitempty"`
	Court     string       `json:"court,omitempty"`
	Year      int          `json:"year,omitempty"`
	Federal   bool         `json:"federal"`
}

// CitationType classifies the citation form
type CitationType string

const (
	CitationFullCase  CitationType = "FULL_CASE"
	CitationShortCase CitationType = "SHORT_CASE"
	CitationID        CitationType = "ID"
	CitationSupra     CitationType = "SUPRA"
	CitationStatute   CitationType = "STATUTE"
	CitationUnknown   CitationType = "UNKNOWN"
)

// PropositionType drives verification strictness
type PropositionType string

const (
	PropositionPrimaryStandard PropositionType = "PRIMARY_STANDARD"
	PropositionRequiredElement PropositionType = "REQUIRED_ELEMENT"
	PropositionSecondary       PropositionType = "SECONDARY"
	PropositionContext         PropositionType = "CONTEXT"
)

// ParsePropositionType maps free-form input to a PropositionType.
// Unknown values fall back to SECONDARY.
func ParsePropositionType(s string) PropositionType {
	switch strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "PRIMARY_STANDARD", "PRIMARY":
		return PropositionPrimaryStandard
	case "REQUIRED_ELEMENT", "ELEMENT":
		return PropositionRequiredElement
	case "CONTEXT":
		return PropositionContext
	default:
		return PropositionSecondary
	}
}

// Proposition is the legal statement a citation is offered to support
type Proposition struct {
	Text string          `json:"text"`
	Type PropositionType `json:"type"`
}

// IsHighStakes reports whether the proposition type demands the strict path
// (mandatory adversarial review, dicta blocks).
func (p Proposition) IsHighStakes() bool {
	return p.Type == PropositionPrimaryStandard || p.Type == PropositionRequiredElement
}

// Clamp01 clamps a confidence value into [0,1]
func Clamp01(v float64) float64 {
	if v != v { // NaN
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FromPercent converts a 0-100 score to a [0,1] confidence
func FromPercent(v float64) float64 {
	return Clamp01(v / 100)
}
