package model

import "time"

// Gate is the common envelope of every pipeline step output.
// A step runs only when the previous step's Proceed is true.
type Gate struct {
	Proceed    bool    `json:"proceed"`
	Confidence float64 `json:"confidence"` // Always normalized to [0,1]
	Error      string  `json:"error,omitempty"`
}

// ExistenceStatus is the outcome of step 1
type ExistenceStatus string

const (
	ExistenceVerified     ExistenceStatus = "VERIFIED"
	ExistenceUnpublished  ExistenceStatus = "UNPUBLISHED"
	ExistenceNotFound     ExistenceStatus = "NOT_FOUND"
	ExistenceUnverifiable ExistenceStatus = "UNVERIFIABLE" // Lookup failed, not a negative finding
)

// ExistenceSource records which triangulation endpoint confirmed the citation
type ExistenceSource string

const (
	SourceCitationLookup ExistenceSource = "citation_lookup"
	SourceOpinionSearch  ExistenceSource = "opinion_search"
	SourceCaseNameSearch ExistenceSource = "case_name_search"
	SourceDocketSearch   ExistenceSource = "docket_search"
)

// ExistenceResult is the output of step 1
type ExistenceResult struct {
	Gate
	Status    ExistenceStatus `json:"status"`
	Source    ExistenceSource `json:"source,omitempty"`
	SourceID  string          `json:"source_id,omitempty"` // Cluster id in the case-law database
	CaseName  string          `json:"case_name,omitempty"`
	Court     string          `json:"court,omitempty"`
	DateFiled time.Time       `json:"date_filed,omitempty"`
	Attempts  []string        `json:"attempts,omitempty"` // Endpoints consulted, in order
}

// HoldingVerdict is the stage-1 judgment of holding support
type HoldingVerdict string

const (
	HoldingVerified  HoldingVerdict = "VERIFIED"
	HoldingPartial   HoldingVerdict = "PARTIAL"
	HoldingRejected  HoldingVerdict = "REJECTED"
	HoldingDictaOnly HoldingVerdict = "DICTA_ONLY"
)

// ChallengeVerdict is the stage-2 adversarial outcome
type ChallengeVerdict string

const (
	ChallengeUpheld   ChallengeVerdict = "UPHELD"
	ChallengeWeakened ChallengeVerdict = "WEAKENED"
	ChallengeRejected ChallengeVerdict = "REJECTED"
)

// StageOneOutput is the primary vendor's holding judgment
type StageOneOutput struct {
	Result     HoldingVerdict `json:"result"`
	Confidence float64        `json:"confidence"`
	Quote      string         `json:"quote,omitempty"`
	Reasoning  string         `json:"reasoning,omitempty"`
	Model      string         `json:"model,omitempty"`
	Valid      bool           `json:"valid"` // False when the response had to be defaulted
}

// StageTwoOutput is the adversarial vendor's challenge
type StageTwoOutput struct {
	Result            ChallengeVerdict `json:"result"`
	ChallengeStrength float64          `json:"challenge_strength"`
	Reasoning         string           `json:"reasoning,omitempty"`
	Model             string           `json:"model,omitempty"`
	Valid             bool             `json:"valid"`
}

// HoldingResult is the output of step 2
type HoldingResult struct {
	Gate
	Result      HoldingVerdict  `json:"result"`
	Stage1      StageOneOutput  `json:"stage1"`
	Stage2      *StageTwoOutput `json:"stage2,omitempty"`
	Attempts    int             `json:"attempts"`
	Proposition string          `json:"proposition"` // Text actually judged (may be reframed)
}

// DictaClass is the step-3 classification of the cited language
type DictaClass string

const (
	ClassHolding DictaClass = "HOLDING"
	ClassDicta   DictaClass = "DICTA"
	ClassUnclear DictaClass = "UNCLEAR"
)

// DictaResult is the output of step 3
type DictaResult struct {
	Gate
	Classification DictaClass `json:"classification"`
	Reasoning      string     `json:"reasoning,omitempty"`
}

// QuoteStatus is the step-4 quotation verdict
type QuoteStatus string

const (
	QuoteMatch         QuoteStatus = "MATCH"
	QuoteCloseMatch    QuoteStatus = "CLOSE_MATCH"
	QuotePartialMatch  QuoteStatus = "PARTIAL_MATCH"
	QuoteNotFound      QuoteStatus = "NOT_FOUND"
	QuoteNotApplicable QuoteStatus = "N/A"
)

// QuoteResult is the output of step 4
type QuoteResult struct {
	Gate
	Status         QuoteStatus `json:"status"`
	Similarity     float64     `json:"similarity"`
	CorrectedQuote string      `json:"corrected_quote,omitempty"`
	EllipsisValid  bool        `json:"ellipsis_valid"`
}

// LawStatus is the step-5 composite treatment status
type LawStatus string

const (
	LawGood              LawStatus = "GOOD_LAW"
	LawCaution           LawStatus = "CAUTION"
	LawNegativeTreatment LawStatus = "NEGATIVE_TREATMENT"
	LawOverruled         LawStatus = "OVERRULED"
)

// Rank orders law statuses by severity
func (s LawStatus) Rank() int {
	switch s {
	case LawOverruled:
		return 3
	case LawNegativeTreatment:
		return 2
	case LawCaution:
		return 1
	default:
		return 0
	}
}

// Treatment is one citing-case disposition found in the treatment network
type Treatment struct {
	Kind       string `json:"kind"` // overruled, reversed, vacated, superseded, distinguished, criticized, questioned
	CitingCase string `json:"citing_case,omitempty"`
	CitingID   string `json:"citing_id,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
}

// BadLawResult is the output of step 5
type BadLawResult struct {
	Gate
	Status           LawStatus   `json:"status"`
	DecidedBy        int         `json:"decided_by"` // Layer that produced the governing signal (1, 2 or 3)
	Layer1Clean      bool        `json:"layer1_clean"`
	Layer1Confidence float64     `json:"layer1_confidence"`
	Layer2Ran        bool        `json:"layer2_ran"`
	Layer2Confidence float64     `json:"layer2_confidence"`
	Treatments       []Treatment `json:"treatments,omitempty"`
	OverrideReason   string      `json:"override_reason,omitempty"`
	CheckedAt        time.Time   `json:"checked_at"`
	ValidUntil       time.Time   `json:"valid_until"`
}

// StrengthResult is the output of step 6 (informational)
type StrengthResult struct {
	Gate
	Assessment StrengthAssessment `json:"assessment"`
}

// Usage tracks AI consumption for one run
type Usage struct {
	Stage1Calls int     `json:"stage1_calls"`
	Stage2Calls int     `json:"stage2_calls"`
	AuxCalls    int     `json:"aux_calls"` // Dicta and layer-2 bad-law calls
	Tokens      int     `json:"tokens"`
	CostUSD     float64 `json:"cost_usd"`
}

// Add merges another usage record
func (u *Usage) Add(o Usage) {
	u.Stage1Calls += o.Stage1Calls
	u.Stage2Calls += o.Stage2Calls
	u.AuxCalls += o.AuxCalls
	u.Tokens += o.Tokens
	u.CostUSD += o.CostUSD
}

// VerificationRun is one execution of the pipeline for a (citation, proposition) pair.
// A completed run is never mutated; re-verification creates a new run.
type VerificationRun struct {
	ID          string      `json:"id"`
	Citation    Citation    `json:"citation"`
	Proposition Proposition `json:"proposition"`
	MotionType  string      `json:"motion_type,omitempty"`
	Tier        string      `json:"tier"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`

	Existence *ExistenceResult `json:"existence,omitempty"`
	Holding   *HoldingResult   `json:"holding,omitempty"`
	Dicta     *DictaResult     `json:"dicta,omitempty"`
	Quote     *QuoteResult     `json:"quote,omitempty"`
	BadLaw    *BadLawResult    `json:"bad_law,omitempty"`
	Strength  *StrengthResult  `json:"strength,omitempty"`

	Signals   []TreatmentSignal `json:"signals,omitempty"`
	Composite CompositeResult   `json:"composite"`
	Cached    bool              `json:"cached"`
	Usage     Usage             `json:"usage"`
	Error     string            `json:"error,omitempty"`
}

// Gates returns the gate of each step 1-5 in order; nil entries were not run.
func (r *VerificationRun) Gates() []*Gate {
	gates := make([]*Gate, 5)
	if r.Existence != nil {
		gates[0] = &r.Existence.Gate
	}
	if r.Holding != nil {
		gates[1] = &r.Holding.Gate
	}
	if r.Dicta != nil {
		gates[2] = &r.Dicta.Gate
	}
	if r.Quote != nil {
		gates[3] = &r.Quote.Gate
	}
	if r.BadLaw != nil {
		gates[4] = &r.BadLaw.Gate
	}
	return gates
}

// Duration returns the wall-clock time of the run
func (r *VerificationRun) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// VerifyRequest is one citation to verify against the proposition it supports
type VerifyRequest struct {
	Index        int          `json:"index"` // Position in the source feed
	Citation     Citation     `json:"citation"`
	Proposition  Proposition  `json:"proposition"`
	MotionType   string       `json:"motion_type,omitempty"`
	Jurisdiction Jurisdiction `json:"jurisdiction"`
}
