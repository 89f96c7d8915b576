package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// BankThreshold is the fixed rejection threshold of the component model.
// Candidates below it are excluded from the citation bank.
const BankThreshold = 0.70

type motionProfile struct {
	match   []string // Any of these in the motion type selects the profile
	terms   []string // On-topic language in opinions deciding such motions
	posture []string // Phrases placing the opinion in the same procedural posture
}

var motionProfiles = []motionProfile{
	{
		match:   []string{"summary judgment", "summary adjudication"},
		terms:   []string{"summary judgment", "genuine issue", "genuine dispute", "material fact", "rule 56", "moving party", "nonmoving party"},
		posture: []string{"summary judgment"},
	},
	{
		match:   []string{"motion to dismiss", "12(b)(6)"},
		terms:   []string{"failure to state a claim", "12(b)(6)", "plausib", "motion to dismiss", "well-pleaded", "twombly", "iqbal"},
		posture: []string{"motion to dismiss", "dismissed the complaint", "12(b)(6)"},
	},
	{
		match:   []string{"anti-slapp", "special motion to strike"},
		terms:   []string{"anti-slapp", "425.16", "protected activity", "probability of prevailing", "public issue", "special motion to strike"},
		posture: []string{"special motion to strike", "anti-slapp motion"},
	},
	{
		match:   []string{"preliminary injunction", "temporary restraining order", "tro"},
		terms:   []string{"irreparable harm", "irreparable injury", "likelihood of success", "balance of equities", "balance of hardships", "public interest", "preliminary injunction"},
		posture: []string{"preliminary injunction", "temporary restraining order"},
	},
	{
		match:   []string{"demurrer"},
		terms:   []string{"demurrer", "sustained", "leave to amend", "cause of action", "facts sufficient"},
		posture: []string{"demurrer"},
	},
	{
		match:   []string{"compel", "discovery"},
		terms:   []string{"discovery", "compel", "privilege", "relevant", "proportional", "meet and confer"},
		posture: []string{"motion to compel"},
	},
	{
		match:   []string{"class certification"},
		terms:   []string{"class certification", "commonality", "typicality", "predominance", "rule 23", "adequacy"},
		posture: []string{"class certification"},
	},
}

// offTopic subject matter that rarely supports a civil motion
var offTopic = []string{
	"sentencing", "habeas", "immigration", "deportation", "removal proceedings",
	"divorce", "child custody", "probate", "bankruptcy", "tax court", "parole",
}

var genericPosture = []string{"affirmed", "reversed", "remanded", "vacated"}

// Component is the legacy point model used to build a citation bank:
// statute (30) + motion keywords (35) + posture (20) + red flags (down to
// -40) + proposition overlap (15), divided by 100.
type Component struct{}

// NewComponent creates the component scorer
func NewComponent() *Component {
	return &Component{}
}

// Score calculates the five components
func (s *Component) Score(c model.Candidate, sc ScoringContext) model.ScoreBreakdown {
	text := candidateText(c)
	motion := strings.ToLower(sc.MotionType)
	profile := profileFor(motion)
	var reasons []string

	// 1. Statutory reference (0-30 points)
	statute, reason := s.statutePoints(sc.Statutes, text)
	reasons = append(reasons, reason)

	// 2. Motion-type keywords (0-35 points)
	onTopic := termHits(union(profile.terms, sc.keywords()), text)
	keywords := math.Min(35, float64(onTopic)*7)
	reasons = append(reasons, fmt.Sprintf("motion keywords: %d hits (%.0f)", onTopic, keywords))

	// 3. Procedural posture (0-20 points)
	posture, reason := s.posturePoints(profile, text)
	reasons = append(reasons, reason)

	// 4. Off-topic red flags (penalty, down to -40)
	penalty, reason := s.redFlagPenalty(motion, sc.keywords(), text, onTopic)
	if reason != "" {
		reasons = append(reasons, reason)
	}

	// 5. Proposition overlap (0-15 points)
	overlap, reason := s.overlapPoints(sc.Proposition, text)
	reasons = append(reasons, reason)

	total := statute + keywords + posture + penalty + overlap
	composite := model.Clamp01(total / 100)
	passed := composite >= BankThreshold
	if !passed {
		reasons = append(reasons, fmt.Sprintf("below %.2f threshold", BankThreshold))
	}

	return model.ScoreBreakdown{
		Model: ModelComponent,
		Axes: map[string]float64{
			"statute":     statute,
			"keywords":    keywords,
			"posture":     posture,
			"red_flags":   penalty,
			"proposition": overlap,
		},
		Composite: composite,
		Passed:    passed,
		Reasons:   reasons,
		Formula:   "clamp((statute + keywords + posture + red_flags + proposition) / 100, 0, 1)",
	}
}

// statutePoints: 30 when every statute is referenced, 20 when some are
func (s *Component) statutePoints(statutes []string, text string) (float64, string) {
	if len(statutes) == 0 {
		return 0, "statute: none given"
	}
	hits := statuteHits(statutes, text)
	switch {
	case hits == len(statutes):
		return 30, fmt.Sprintf("statute: %d/%d referenced (30)", hits, len(statutes))
	case hits > 0:
		return 20, fmt.Sprintf("statute: %d/%d referenced (20)", hits, len(statutes))
	default:
		return 0, fmt.Sprintf("statute: 0/%d referenced", len(statutes))
	}
}

// posturePoints: 20 for the motion's own posture, 5 for a generic disposition
func (s *Component) posturePoints(p motionProfile, text string) (float64, string) {
	for _, phrase := range p.posture {
		if strings.Contains(text, phrase) {
			return 20, fmt.Sprintf("posture: %q (20)", phrase)
		}
	}
	if termHits(genericPosture, text) > 0 {
		return 5, "posture: generic disposition (5)"
	}
	return 0, "posture: no match"
}

// redFlagPenalty: -10 per off-topic subject, floor -40. Suppressed when the
// opinion is clearly on topic or the motion itself concerns the subject.
func (s *Component) redFlagPenalty(motion string, keywords []string, text string, onTopic int) (float64, string) {
	if onTopic >= 3 {
		return 0, ""
	}
	flags := 0
	var found []string
	for _, t := range offTopic {
		if strings.Contains(motion, t) || containsTerm(keywords, t) {
			continue
		}
		if strings.Contains(text, t) {
			flags++
			found = append(found, t)
		}
	}
	if flags == 0 {
		return 0, ""
	}
	penalty := math.Max(-40, float64(flags)*-10)
	return penalty, fmt.Sprintf("red flags: %s (%.0f)", strings.Join(found, ", "), penalty)
}

// overlapPoints: share of proposition terms present, times 15
func (s *Component) overlapPoints(proposition, text string) (float64, string) {
	terms := significantTerms(proposition)
	if len(terms) == 0 {
		return 0, "proposition: no terms"
	}
	hits := termHits(terms, text)
	points := 15 * float64(hits) / float64(len(terms))
	return points, fmt.Sprintf("proposition: %d/%d terms (%.1f)", hits, len(terms), points)
}

func profileFor(motion string) motionProfile {
	padded := " " + strings.Join(strings.Fields(motion), " ") + " "
	for _, p := range motionProfiles {
		for _, m := range p.match {
			if strings.Contains(padded, " "+m+" ") || (len(m) > 4 && strings.Contains(padded, m)) {
				return p
			}
		}
	}
	return motionProfile{}
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func containsTerm(terms []string, t string) bool {
	for _, k := range terms {
		if strings.Contains(k, t) {
			return true
		}
	}
	return false
}
