package verify

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/citation"
	"github.com/ppiankov/citecheck/internal/model"
)

// Confidence of an existence finding by the endpoint that produced it
const (
	confLookup   = 1.0
	confFullText = 0.9
	confCaseName = 0.8
	confDocket   = 0.7
)

// existenceSearch is one triangulation attempt; ok reports a match
type existenceSearch struct {
	source model.ExistenceSource
	run    func(ctx context.Context) (*model.ExistenceResult, bool, error)
}

// checkExistence triangulates the citation across the lookup endpoint,
// full-text search, case-name search and, for federal citations, docket
// search. The first endpoint that matches decides. When nothing matches
// and any endpoint failed the result is UNVERIFIABLE, never NOT_FOUND.
func (p *Pipeline) checkExistence(ctx context.Context, c model.Citation) *model.ExistenceResult {
	result := &model.ExistenceResult{}
	if c.Parsed.Type == model.CitationStatute {
		result.Status = model.ExistenceUnverifiable
		result.Error = "statutory citations are not checked against case law"
		return result
	}

	var failures []string
	for _, s := range p.existenceSearches(c) {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err.Error())
			break
		}
		result.Attempts = append(result.Attempts, string(s.source))

		found, ok, err := s.run(ctx)
		if err != nil {
			p.logger.Debug("existence search failed",
				zap.String("source", string(s.source)),
				zap.String("citation", c.Normalized),
				zap.Error(err))
			failures = append(failures, string(s.source)+": "+err.Error())
			if errors.Is(err, caselaw.ErrCircuitOpen) {
				break
			}
			continue
		}
		if ok {
			found.Attempts = result.Attempts
			found.Proceed = found.Status == model.ExistenceVerified
			return found
		}
	}

	if len(failures) > 0 {
		result.Status = model.ExistenceUnverifiable
		result.Error = strings.Join(failures, "; ")
		return result
	}
	result.Status = model.ExistenceNotFound
	return result
}

func (p *Pipeline) existenceSearches(c model.Citation) []existenceSearch {
	caseName := c.Parsed.CaseName
	searches := []existenceSearch{
		{model.SourceCitationLookup, func(ctx context.Context) (*model.ExistenceResult, bool, error) {
			matches, err := p.caselaw.LookupCitation(ctx, citation.LookupText(c))
			if err != nil {
				return nil, false, err
			}
			for _, m := range matches {
				if !m.Found() {
					continue
				}
				cl := m.Clusters[0]
				return fromCluster(cl), true, nil
			}
			return nil, false, nil
		}},
	}

	if c.Parsed.Type == model.CitationFullCase {
		searches = append(searches, existenceSearch{model.SourceOpinionSearch, func(ctx context.Context) (*model.ExistenceResult, bool, error) {
			hits, err := p.caselaw.SearchOpinions(ctx, strconv.Quote(c.Normalized), caselaw.SearchOptions{MaxPages: 1})
			if err != nil {
				return nil, false, err
			}
			for _, h := range hits {
				if citesAs(h, c.Normalized) {
					return fromHit(h, model.SourceOpinionSearch, confFullText), true, nil
				}
			}
			return nil, false, nil
		}})
	}

	if caseName != "" {
		searches = append(searches, existenceSearch{model.SourceCaseNameSearch, func(ctx context.Context) (*model.ExistenceResult, bool, error) {
			hits, err := p.caselaw.SearchCaseName(ctx, caseName, caselaw.SearchOptions{MaxPages: 1})
			if err != nil {
				return nil, false, err
			}
			for _, h := range hits {
				if sameCase(caseName, h.CaseName) && sameYear(c.Parsed.Year, h.DateFiled.Year()) {
					return fromHit(h, model.SourceCaseNameSearch, confCaseName), true, nil
				}
			}
			return nil, false, nil
		}})
	}

	if c.Parsed.Federal && caseName != "" {
		searches = append(searches, existenceSearch{model.SourceDocketSearch, func(ctx context.Context) (*model.ExistenceResult, bool, error) {
			hits, err := p.caselaw.SearchDockets(ctx, caseName, caselaw.SearchOptions{MaxPages: 1})
			if err != nil {
				return nil, false, err
			}
			for _, h := range hits {
				if sameCase(caseName, h.CaseName) {
					// A docket with no published opinion behind it
					r := fromHit(h, model.SourceDocketSearch, confDocket)
					r.Status = model.ExistenceUnpublished
					return r, true, nil
				}
			}
			return nil, false, nil
		}})
	}
	return searches
}

func fromCluster(cl caselaw.Cluster) *model.ExistenceResult {
	r := &model.ExistenceResult{
		Gate:      model.Gate{Confidence: confLookup},
		Status:    model.ExistenceVerified,
		Source:    model.SourceCitationLookup,
		SourceID:  strconv.FormatInt(cl.ID, 10),
		CaseName:  cl.CaseName,
		Court:     cl.CourtID,
		DateFiled: cl.DateFiled.Time,
	}
	if !cl.Published() {
		r.Status = model.ExistenceUnpublished
	}
	return r
}

func fromHit(h caselaw.SearchHit, source model.ExistenceSource, conf float64) *model.ExistenceResult {
	cand := h.Candidate()
	r := &model.ExistenceResult{
		Gate:      model.Gate{Confidence: conf},
		Status:    model.ExistenceVerified,
		Source:    source,
		SourceID:  cand.SourceID,
		CaseName:  cand.CaseName,
		Court:     cand.CourtID,
		DateFiled: cand.DateFiled,
	}
	if !cand.Published {
		r.Status = model.ExistenceUnpublished
	}
	return r
}

// citesAs reports whether any reporter citation of the hit normalizes to key
func citesAs(h caselaw.SearchHit, key string) bool {
	for _, cite := range h.Citation {
		if citation.Normalize(cite) == key {
			return true
		}
	}
	return false
}

// sameYear tolerates the one-year drift between argument and decision dates
func sameYear(cited, filed int) bool {
	if cited == 0 || filed <= 1 {
		return true
	}
	d := cited - filed
	return d >= -1 && d <= 1
}

// partyNoise never identifies a party on its own
var partyNoise = map[string]bool{
	"the": true, "of": true, "and": true, "a": true, "an": true, "in": true, "re": true,
	"inc": true, "co": true, "corp": true, "llc": true, "ltd": true, "company": true,
	"et": true, "al": true, "state": true, "united": true, "states": true, "people": true,
	"ex": true, "rel": true,
}

// sameCase reports whether candidate names the same parties as cited: the
// first distinctive word of each side must appear in the candidate name
func sameCase(cited, candidate string) bool {
	have := make(map[string]bool)
	for _, w := range words(candidate) {
		have[w] = true
	}
	keys := partyKeys(cited)
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !have[k] {
			return false
		}
	}
	return true
}

func partyKeys(name string) []string {
	lower := strings.ToLower(name)
	var sides []string
	for _, sep := range []string{" v. ", " vs. ", " v ", " vs "} {
		if i := strings.Index(lower, sep); i > 0 {
			sides = []string{lower[:i], lower[i+len(sep):]}
			break
		}
	}
	if sides == nil {
		sides = []string{lower}
	}

	var keys []string
	for _, side := range sides {
		for _, w := range words(side) {
			if !partyNoise[w] && len(w) > 1 {
				keys = append(keys, w)
				break
			}
		}
	}
	return keys
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
