package verify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/citecheck/internal/model"
)

// Word-level similarity needed for each quotation verdict
const (
	closeMatchMin   = 0.90
	partialMatchMin = 0.60
)

var ellipsisRe = regexp.MustCompile(`\.\s*\.\s*\.|…`)

// textTokens keeps raw words aligned with their comparison forms
type textTokens struct {
	raw  []string
	norm []string
}

func tokenize(s string) textTokens {
	var t textTokens
	for _, w := range strings.Fields(s) {
		n := normWord(w)
		if n == "" {
			continue
		}
		t.raw = append(t.raw, w)
		t.norm = append(t.norm, n)
	}
	return t
}

// normWord lower-cases a word, unifies typographic quotes and strips
// surrounding punctuation and bracketed alterations
func normWord(w string) string {
	w = strings.NewReplacer("’", "'", "‘", "'", "“", "", "”", "", "[", "", "]", "").Replace(w)
	w = strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(w)
}

// CheckQuote compares quoted language against the opinion text. It never
// halts the pipeline: mismatches are reported for the signal layer.
func CheckQuote(quote, opinion string) *model.QuoteResult {
	res := &model.QuoteResult{Gate: model.Gate{Proceed: true}, EllipsisValid: true}
	if strings.TrimSpace(quote) == "" {
		res.Status = model.QuoteNotApplicable
		res.Confidence = 1.0
		res.Similarity = 1.0
		return res
	}

	var segments []textTokens
	for _, part := range ellipsisRe.Split(quote, -1) {
		if seg := tokenize(part); len(seg.norm) > 0 {
			segments = append(segments, seg)
		}
	}
	op := tokenize(opinion)
	if len(segments) == 0 || len(op.norm) == 0 {
		res.Status = model.QuoteNotFound
		if len(op.norm) == 0 {
			res.Error = "opinion text unavailable"
		}
		return res
	}

	var (
		pos      int
		weighted float64
		total    int
		parts    []string
	)
	for _, seg := range segments {
		start, end, sim := bestWindow(op.norm, seg.norm, pos)
		if sim < 1 {
			// The segment may sit earlier in the opinion than the one before it
			if s2, e2, sim2 := bestWindow(op.norm, seg.norm, 0); sim2 > sim {
				if s2 < pos {
					res.EllipsisValid = false
				}
				start, end, sim = s2, e2, sim2
			}
		}
		if start >= 0 {
			parts = append(parts, strings.Join(op.raw[start:end], " "))
			if end > pos {
				pos = end
			}
		}
		weighted += sim * float64(len(seg.norm))
		total += len(seg.norm)
	}

	res.Similarity = weighted / float64(total)
	res.Confidence = model.Clamp01(res.Similarity)
	switch {
	case res.Similarity >= 1:
		res.Status = model.QuoteMatch
	case res.Similarity >= closeMatchMin:
		res.Status = model.QuoteCloseMatch
		res.CorrectedQuote = strings.Join(parts, " ... ")
	case res.Similarity >= partialMatchMin:
		res.Status = model.QuotePartialMatch
	default:
		res.Status = model.QuoteNotFound
	}
	return res
}

// bestWindow finds the opinion span at or after from that is closest to seg
// in word edit distance. Candidate spans are anchored on the first words of
// seg. start is -1 when no anchor occurs.
func bestWindow(op, seg []string, from int) (start, end int, sim float64) {
	start, end = -1, -1
	n := len(seg)
	anchors := min(3, n)

	for i := from; i < len(op); i++ {
		for k := 0; k < anchors; k++ {
			if op[i] != seg[k] {
				continue
			}
			s := i - k
			if s < from {
				continue
			}
			for _, l := range []int{n, n - 1, n + 1} {
				if l <= 0 || s+l > len(op) {
					continue
				}
				d := wordDistance(op[s:s+l], seg)
				score := 1 - float64(d)/float64(max(l, n))
				if score > sim {
					start, end, sim = s, s+l, score
					if sim == 1 {
						return start, end, sim
					}
				}
			}
		}
	}
	return start, end, sim
}

// wordDistance is the Levenshtein distance over words
func wordDistance(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
