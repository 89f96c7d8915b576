package model

import "time"

// AuthorityTier is the precedential level of the deciding court
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Court could not be resolved
	TierSupreme   AuthorityTier = 1 // Courts of last resort
	TierAppellate AuthorityTier = 2 // Intermediate appellate courts, federal circuits
	TierTrial     AuthorityTier = 3 // Trial courts, federal district courts
)

func (t AuthorityTier) String() string {
	switch t {
	case TierSupreme:
		return "supreme"
	case TierAppellate:
		return "appellate"
	case TierTrial:
		return "trial"
	default:
		return "unknown"
	}
}

// SortKey maps a tier to its position in an authority-first ordering.
// Unknown courts sort last.
func (t AuthorityTier) SortKey() int {
	if t == TierUnknown {
		return 4
	}
	return int(t)
}

// Forum is the court system a motion is filed in
type Forum string

const (
	ForumState   Forum = "state"
	ForumFederal Forum = "federal"
)

// Jurisdiction is where the drafted motion is filed
type Jurisdiction struct {
	State string `json:"state" yaml:"state"` // Two-letter postal code
	Forum Forum  `json:"forum" yaml:"forum"`
}

// SearchTask is one query in a priority-tiered search plan
type SearchTask struct {
	ID    string `json:"id"`
	Tier  int    `json:"tier"` // 1 runs before 2 before 3
	Query string `json:"query"`
	Court string `json:"court,omitempty"` // Optional court filter (database court ids, space separated)
}

// Candidate is a case returned by search, before verification
type Candidate struct {
	SourceID  string        `json:"source_id"` // Cluster id; dedup key
	CaseName  string        `json:"case_name"`
	Citation  string        `json:"citation,omitempty"`
	CourtID   string        `json:"court_id,omitempty"`
	Court     string        `json:"court,omitempty"`
	Tier      AuthorityTier `json:"tier"`
	DateFiled time.Time     `json:"date_filed"`
	Snippet   string        `json:"snippet,omitempty"`
	Text      string        `json:"text,omitempty"` // Full or partial opinion text when available
	CiteCount int           `json:"cite_count,omitempty"`
	Published bool          `json:"published"`
	Judges    []string      `json:"judges,omitempty"`
	TaskID    string        `json:"task_id,omitempty"`
}

// ScoreBreakdown is the transparent score of a candidate
type ScoreBreakdown struct {
	Model     string             `json:"model"` // "three_axis" or "component"
	Axes      map[string]float64 `json:"axes"`
	Composite float64            `json:"composite"`
	Passed    bool               `json:"passed"`
	Reasons   []string           `json:"reasons,omitempty"`
	Formula   string             `json:"formula"`
}

// ScoredCandidate pairs a candidate with its relevance score
type ScoredCandidate struct {
	Candidate Candidate      `json:"candidate"`
	Score     ScoreBreakdown `json:"score"`
}

// SearchSummary describes an orchestrated search run
type SearchSummary struct {
	TotalTasks     int           `json:"total_tasks"`
	Completed      int           `json:"completed"`
	Failed         int           `json:"failed"`
	Batches        int           `json:"batches"`
	PartialResults bool          `json:"partial_results"`
	AbortReason    string        `json:"abort_reason,omitempty"`
	Duration       time.Duration `json:"duration"`
	Candidates     int           `json:"candidates"`
}
