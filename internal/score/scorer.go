// Package score ranks search candidates by relevance to a motion. Both
// models are pure functions of (candidate, context).
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/ppiankov/citecheck/internal/model"
)

// Model names recorded on each breakdown
const (
	ModelThreeAxis = "three_axis"
	ModelComponent = "component"
)

// RankThreshold is the three-axis pass mark for search ranking
const RankThreshold = 0.50

// Scorer scores one candidate
type Scorer interface {
	Score(c model.Candidate, sc ScoringContext) model.ScoreBreakdown
}

// ThreeAxis is the canonical ranking model:
// 0.40 keyword + 0.30 court level + 0.30 recency
type ThreeAxis struct{}

// NewThreeAxis creates the three-axis scorer
func NewThreeAxis() *ThreeAxis {
	return &ThreeAxis{}
}

// Score calculates the three axes and their weighted composite
func (s *ThreeAxis) Score(c model.Candidate, sc ScoringContext) model.ScoreBreakdown {
	var reasons []string

	// 1. Keyword (0-1)
	keyword, keywordReason := s.keywordAxis(c, sc)
	reasons = append(reasons, keywordReason)

	// 2. Court level (0-1)
	resolver := sc.resolver()
	court := resolveCourt(c, resolver)
	courtLevel, cell := CourtLevel(court, sc.Jurisdiction, resolver)
	reasons = append(reasons, fmt.Sprintf("court: %s (%.2f)", cell, courtLevel))

	// 3. Recency (0-1)
	recency, recencyReason := recencyAxis(c, sc)
	reasons = append(reasons, recencyReason)

	composite := model.Clamp01(0.40*keyword + 0.30*courtLevel + 0.30*recency)

	return model.ScoreBreakdown{
		Model: ModelThreeAxis,
		Axes: map[string]float64{
			"keyword":     keyword,
			"court_level": courtLevel,
			"recency":     recency,
		},
		Composite: composite,
		Passed:    composite >= RankThreshold,
		Reasons:   reasons,
		Formula:   "0.40*keyword + 0.30*court_level + 0.30*recency",
	}
}

// keywordAxis: term hits over possible hits, statutes weighted double
func (s *ThreeAxis) keywordAxis(c model.Candidate, sc ScoringContext) (float64, string) {
	terms := sc.keywords()
	possible := len(terms) + 2*len(sc.Statutes)
	if possible == 0 {
		return 0, "keyword: no terms"
	}

	text := candidateText(c)
	termCount := termHits(terms, text)
	statutes := statuteHits(sc.Statutes, text)
	hits := termCount + 2*statutes

	axis := math.Min(1, float64(hits)/float64(possible))
	return axis, fmt.Sprintf("keyword: %d/%d term hits, %d/%d statutes", termCount, len(terms), statutes, len(sc.Statutes))
}

// recencyAxis buckets the decision age
func recencyAxis(c model.Candidate, sc ScoringContext) (float64, string) {
	age, ok := ageYears(c.DateFiled, sc.AsOf)
	if !ok {
		return 0.30, "recency: date unknown"
	}

	var axis float64
	switch {
	case age <= 5:
		axis = 1.0
	case age <= 10:
		axis = 0.85
	case age <= 20:
		axis = 0.70
	case age <= 30:
		axis = 0.50
	default:
		axis = 0.30
	}
	return axis, fmt.Sprintf("recency: %dy", age)
}

// Rank scores every candidate and orders them by composite, descending.
// Ties keep input order.
func Rank(s Scorer, candidates []model.Candidate, sc ScoringContext) []model.ScoredCandidate {
	scored := make([]model.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = model.ScoredCandidate{Candidate: c, Score: s.Score(c, sc)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Composite > scored[j].Score.Composite
	})
	return scored
}

// Partition splits scored candidates into passed and rejected, keeping order
func Partition(scored []model.ScoredCandidate) (passed, rejected []model.ScoredCandidate) {
	for _, s := range scored {
		if s.Score.Passed {
			passed = append(passed, s)
		} else {
			rejected = append(rejected, s)
		}
	}
	return passed, rejected
}
