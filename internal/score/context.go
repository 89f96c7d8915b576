package score

import (
	"regexp"
	"strings"
	"time"

	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/model"
)

// ScoringContext is everything a scorer may look at besides the candidate.
// Scoring never reads the clock; AsOf is the reference date for age.
type ScoringContext struct {
	Jurisdiction model.Jurisdiction
	MotionType   string
	Proposition  string
	Keywords     []string // On-topic terms; derived from the proposition when empty
	Statutes     []string // Statutory references, e.g. "Cal. Civ. Proc. Code § 425.16"
	AsOf         time.Time
	Courts       courts.Resolver
}

func (sc ScoringContext) resolver() courts.Resolver {
	if sc.Courts == nil {
		return courts.Default()
	}
	return sc.Courts
}

// keywords returns the lower-cased on-topic terms
func (sc ScoringContext) keywords() []string {
	src := sc.Keywords
	if len(src) == 0 {
		src = significantTerms(sc.Proposition)
	}
	out := make([]string, 0, len(src))
	seen := make(map[string]bool, len(src))
	for _, k := range src {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

var stopwords = map[string]bool{
	"that": true, "this": true, "with": true, "from": true, "have": true, "must": true,
	"which": true, "when": true, "where": true, "there": true, "their": true, "shall": true,
	"under": true, "upon": true, "into": true, "only": true, "also": true, "such": true,
	"been": true, "were": true, "will": true, "does": true, "than": true, "then": true,
	"they": true, "what": true, "whether": true, "court": true, "courts": true, "case": true,
}

var wordPattern = regexp.MustCompile(`[a-z][a-z\-']{3,}`)

// significantTerms returns distinct words of four or more letters that are
// not stopwords, in order of first appearance
func significantTerms(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		w = strings.Trim(w, "-'")
		if len(w) < 4 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// candidateText is the searchable text of a candidate
func candidateText(c model.Candidate) string {
	return strings.ToLower(c.CaseName + "\n" + c.Snippet + "\n" + c.Text)
}

// compact strips everything but letters and digits so statutory references
// match regardless of spacing and punctuation ("42 U.S.C. § 1983" -> "42usc1983")
func compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// statuteHits counts the statutes referenced in text
func statuteHits(statutes []string, text string) int {
	if len(statutes) == 0 {
		return 0
	}
	ct := compact(text)
	hits := 0
	for _, s := range statutes {
		if cs := compact(s); cs != "" && strings.Contains(ct, cs) {
			hits++
		}
	}
	return hits
}

// termHits counts the terms present in text
func termHits(terms []string, text string) int {
	hits := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			hits++
		}
	}
	return hits
}

// ageYears is the whole-year age at asOf; ok is false for unknown dates
func ageYears(filed, asOf time.Time) (int, bool) {
	if filed.IsZero() || asOf.IsZero() {
		return 0, false
	}
	if filed.After(asOf) {
		return 0, true
	}
	years := asOf.Year() - filed.Year()
	if asOf.YearDay() < filed.YearDay() {
		years--
	}
	return years, true
}
