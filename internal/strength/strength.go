// Package strength scores the precedential weight of a case from its
// citing network. Nothing here calls a model; the same inputs always give
// the same assessment.
package strength

import (
	"math"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

// ClassifyStability assigns the stability class. Controversy is checked
// first and overrides every other class.
func ClassifyStability(in model.StrengthInputs) model.StabilityClass {
	rate := distinguishRate(in)

	switch {
	case rate > 0.15 || in.Criticism >= 3:
		return model.StabilityControversial
	case in.AgeYears >= 30 && in.TotalCitations >= 500 && in.Recent5Y >= 10 && in.Criticism == 0:
		return model.StabilityLandmark
	case in.AgeYears >= 20 && isDeclining(in):
		return model.StabilityDeclining
	case in.AgeYears >= 10 && in.AgeYears < 30 && in.TotalCitations >= 50 && in.TotalCitations < 500 && in.Criticism < 3:
		return model.StabilityEstablished
	case in.AgeYears < 10 || in.TotalCitations < 50:
		return model.StabilityRecent
	default:
		return model.StabilityEstablished
	}
}

// ClassifyTrend compares the last five years of citing activity with the
// case's historical yearly rate
func ClassifyTrend(in model.StrengthInputs) model.Trend {
	recent, historical, ok := rates(in)
	if !ok {
		return model.TrendStable
	}
	switch {
	case recent < 0.3*historical:
		return model.TrendDeclining
	case recent > 1.2*historical:
		return model.TrendIncreasing
	default:
		return model.TrendStable
	}
}

// Score computes the 0-100 authority score and its components
func Score(in model.StrengthInputs) (int, map[string]float64) {
	volume := volumeBonus(in.TotalCitations)
	recency := recencyBonus(in.Recent5Y)

	trend := 0.0
	switch ClassifyTrend(in) {
	case model.TrendIncreasing:
		trend = 5
	case model.TrendDeclining:
		trend = -10
	}

	penalty := math.Min(30, distinguishRate(in)*50+float64(in.Criticism)*5)

	total := 50 + volume + recency + trend - penalty
	total = math.Max(0, math.Min(100, total))

	return int(math.Round(total)), map[string]float64{
		"base":    50,
		"volume":  volume,
		"recency": recency,
		"trend":   trend,
		"penalty": -penalty,
	}
}

// Assess builds the full assessment for a set of inputs
func Assess(in model.StrengthInputs, now time.Time) model.StrengthAssessment {
	in.DistinguishRate = distinguishRate(in)
	score, components := Score(in)
	return model.StrengthAssessment{
		Stability:  ClassifyStability(in),
		Score:      score,
		Trend:      ClassifyTrend(in),
		Inputs:     in,
		Components: components,
		AssessedAt: now,
	}
}

// volumeBonus: tiered on total citing opinions, max +25
func volumeBonus(total int) float64 {
	switch {
	case total >= 1000:
		return 25
	case total >= 500:
		return 20
	case total >= 100:
		return 15
	case total >= 50:
		return 10
	case total >= 10:
		return 5
	default:
		return 0
	}
}

// recencyBonus: tiered on citing opinions in the last five years, max +15
func recencyBonus(recent int) float64 {
	switch {
	case recent >= 50:
		return 15
	case recent >= 20:
		return 12
	case recent >= 10:
		return 8
	case recent >= 3:
		return 4
	default:
		return 0
	}
}

func distinguishRate(in model.StrengthInputs) float64 {
	if in.DistinguishRate > 0 {
		return in.DistinguishRate
	}
	if in.TotalCitations == 0 {
		return 0
	}
	return float64(in.Distinguished) / float64(in.TotalCitations)
}

func isDeclining(in model.StrengthInputs) bool {
	recent, historical, ok := rates(in)
	return ok && recent < 0.3*historical
}

// rates returns citing opinions per year for the last five years and for
// the years before them. Cases younger than six years have no history.
func rates(in model.StrengthInputs) (recent, historical float64, ok bool) {
	if in.AgeYears <= 5 {
		return 0, 0, false
	}
	older := in.TotalCitations - in.Recent5Y
	if older <= 0 {
		return float64(in.Recent5Y) / 5, 0, false
	}
	return float64(in.Recent5Y) / 5, float64(older) / float64(in.AgeYears-5), true
}
