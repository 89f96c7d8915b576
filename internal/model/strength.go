package model

import "time"

// StabilityClass is a citation's precedential durability category
type StabilityClass string

const (
	StabilityLandmark      StabilityClass = "LANDMARK"
	StabilityEstablished   StabilityClass = "ESTABLISHED"
	StabilityRecent        StabilityClass = "RECENT"
	StabilityDeclining     StabilityClass = "DECLINING"
	StabilityControversial StabilityClass = "CONTROVERSIAL"
)

// Trend is the direction of citing activity
type Trend string

const (
	TrendIncreasing Trend = "INCREASING"
	TrendStable     Trend = "STABLE"
	TrendDeclining  Trend = "DECLINING"
)

// StrengthInputs are the citing-network counts behind an assessment
type StrengthInputs struct {
	AgeYears        int     `json:"age_years"`
	TotalCitations  int     `json:"total_citations"`
	Recent5Y        int     `json:"recent_5y"`
	Distinguished   int     `json:"distinguished"`
	DistinguishRate float64 `json:"distinguish_rate"`
	Criticism       int     `json:"criticism"`
}

// StrengthAssessment is the deterministic authority score of a citation
type StrengthAssessment struct {
	Stability  StabilityClass     `json:"stability"`
	Score      int                `json:"score"` // 0-100, informational only
	Trend      Trend              `json:"trend"`
	Inputs     StrengthInputs     `json:"inputs"`
	Components map[string]float64 `json:"components"`
	AssessedAt time.Time          `json:"assessed_at"`
}

// OverrideEntry is a curated bad-law override. A hit is authoritative.
type OverrideEntry struct {
	Normalized  string    `json:"normalized" yaml:"citation"`
	CaseName    string    `json:"case_name" yaml:"case_name"`
	Status      LawStatus `json:"status" yaml:"status"`
	OverruledBy string    `json:"overruled_by" yaml:"overruled_by"`
	Note        string    `json:"note,omitempty" yaml:"note,omitempty"`
}
