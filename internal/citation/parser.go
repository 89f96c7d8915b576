// Package citation parses case citations into structured fields and the
// canonical key used to deduplicate and cache verification results.
package citation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

var (
	// volume, reporter, page, optional pinpoint, optional parenthetical
	fullCiteRe = regexp.MustCompile(`(\d{1,4})\s+([A-Z][A-Za-z0-9.'’ ]{0,24}?)\s+(\d{1,6}|_{2,})\b(?:\s*,\s*(\d{1,6}(?:\s*[-–]\s*\d{1,6})?))?(?:\s*\(([^()]*)\))?`)

	// Westlaw and LEXIS database numbers: year, database, document number,
	// optional star pinpoint, optional parenthetical
	databaseCiteRe = regexp.MustCompile(`(\d{4})\s+(WL|U\.\s?S\.\s?(?:Dist\.|App\.)\s?LEXIS)\s+(\d{1,8})\b(?:\s*,\s*at\s+(\*{1,2}\d{1,5}))?(?:\s*\(([^()]*)\))?`)

	// Trailing decision date inside a database citation's parenthetical
	parenDateRe = regexp.MustCompile(`,?\s*(?:Jan|Feb|Mar|Apr|May|June?|July?|Aug|Sept?|Oct|Nov|Dec)\.?\s+\d{1,2},?\s*$`)

	// "Roe, 410 U.S. at 153"
	shortCiteRe = regexp.MustCompile(`(\d{1,4})\s+([A-Z][A-Za-z0-9.'’ ]{0,24}?)\s+at\s+(\d{1,6})\b`)

	idCiteRe     = regexp.MustCompile(`(?i)^\s*(?:see\s+)?id\.(?:\s+at\s+(\d{1,6}))?`)
	supraCiteRe  = regexp.MustCompile(`(?i)([A-Z][\w.'’ ]*?),?\s+supra(?:,\s*at\s+(\d{1,6}))?`)
	statuteRe    = regexp.MustCompile(`(\d{1,3})\s+(U\.\s?S\.\s?C\.(?:\s?A\.)?|C\.\s?F\.\s?R\.)\s*§+\s*([\w.\-()]+)`)
	stateCodeRe  = regexp.MustCompile(`([A-Z][a-z]+\.?(?:\s[A-Z][a-z.]+)*\s(?:Code|Stat\.|Gen\.\sLaws|Rev\.\sStat\.)(?:\s[A-Za-z.]+)*)\s*§+\s*([\w.\-()]+)`)
	caseNameRe   = regexp.MustCompile(`([A-Z][\w.,'’&\- ]*?)\s+v\.?\s+([A-Z][\w.,'’&\- ]*?)\s*,\s*$`)
	yearRe       = regexp.MustCompile(`\b(1[6-9]\d{2}|20\d{2})\b`)
	federalCourt = regexp.MustCompile(`\b(\d{1,2}(st|nd|rd|th)\s+Cir|Fed\.\s*Cir|D\.C\.\s*Cir|[NSEWMC]\.D\.|D\.\s?[A-Z]|Fed\.\s*Cl|B\.A\.P|Bankr|J\.P\.M\.L)`)
	spaceRe      = regexp.MustCompile(`\s+`)
	signalWordRe = regexp.MustCompile(`(?i)^(?:see(?:\s+also)?|cf\.|accord|but\s+see|e\.g\.,?|compare)\s+`)
)

// canonicalReporters maps a collapsed, lower-cased reporter key to its canonical form
var canonicalReporters = map[string]string{
	"u.s.":           "U.S.",
	"s.ct.":          "S. Ct.",
	"l.ed.":          "L. Ed.",
	"l.ed.2d":        "L. Ed. 2d",
	"f.":             "F.",
	"f.2d":           "F.2d",
	"f.3d":           "F.3d",
	"f.4th":          "F.4th",
	"f.supp.":        "F. Supp.",
	"f.supp.2d":      "F. Supp. 2d",
	"f.supp.3d":      "F. Supp. 3d",
	"f.app'x":        "F. App'x",
	"fed.appx.":      "F. App'x",
	"f.r.d.":         "F.R.D.",
	"b.r.":           "B.R.",
	"fed.cl.":        "Fed. Cl.",
	"cal.":           "Cal.",
	"cal.2d":         "Cal. 2d",
	"cal.3d":         "Cal. 3d",
	"cal.4th":        "Cal. 4th",
	"cal.5th":        "Cal. 5th",
	"cal.app.":       "Cal. App.",
	"cal.app.2d":     "Cal. App. 2d",
	"cal.app.3d":     "Cal. App. 3d",
	"cal.app.4th":    "Cal. App. 4th",
	"cal.app.5th":    "Cal. App. 5th",
	"cal.rptr.":      "Cal. Rptr.",
	"cal.rptr.2d":    "Cal. Rptr. 2d",
	"cal.rptr.3d":    "Cal. Rptr. 3d",
	"n.y.":           "N.Y.",
	"n.y.2d":         "N.Y.2d",
	"n.y.3d":         "N.Y.3d",
	"a.d.3d":         "A.D.3d",
	"n.y.s.2d":       "N.Y.S.2d",
	"n.y.s.3d":       "N.Y.S.3d",
	"a.":             "A.",
	"a.2d":           "A.2d",
	"a.3d":           "A.3d",
	"n.e.":           "N.E.",
	"n.e.2d":         "N.E.2d",
	"n.e.3d":         "N.E.3d",
	"n.w.":           "N.W.",
	"n.w.2d":         "N.W.2d",
	"s.e.":           "S.E.",
	"s.e.2d":         "S.E.2d",
	"s.w.":           "S.W.",
	"s.w.2d":         "S.W.2d",
	"s.w.3d":         "S.W.3d",
	"so.":            "So.",
	"so.2d":          "So. 2d",
	"so.3d":          "So. 3d",
	"p.":             "P.",
	"p.2d":           "P.2d",
	"p.3d":           "P.3d",
	"tex.":           "Tex.",
	"ill.2d":         "Ill. 2d",
	"ill.dec.":       "Ill. Dec.",
	"wash.2d":        "Wash. 2d",
	"mass.":          "Mass.",
	"pa.":            "Pa.",
	"n.j.":           "N.J.",
	"fla.":           "Fla.",
	"ohiost.3d":      "Ohio St. 3d",
	"wis.2d":         "Wis. 2d",
	"mich.":          "Mich.",
	"minn.":          "Minn.",
	"ga.":            "Ga.",
	"va.":            "Va.",
	"md.":            "Md.",
	"ariz.":          "Ariz.",
	"colo.":          "Colo.",
	"or.":            "Or.",
	"nev.":           "Nev.",
	"utah":           "Utah",
	"conn.":          "Conn.",
	"f.cas.":         "F. Cas.",
	"vet.app.":       "Vet. App.",
	"t.c.":           "T.C.",
	"m.j.":           "M.J.",
	"wl":             "WL",
	"u.s.dist.lexis": "U.S. Dist. LEXIS",
	"u.s.app.lexis":  "U.S. App. LEXIS",
}

var federalReporters = map[string]bool{
	"U.S.": true, "S. Ct.": true, "L. Ed.": true, "L. Ed. 2d": true,
	"F.": true, "F.2d": true, "F.3d": true, "F.4th": true,
	"F. Supp.": true, "F. Supp. 2d": true, "F. Supp. 3d": true,
	"F. App'x": true, "F.R.D.": true, "B.R.": true, "Fed. Cl.": true,
	"F. Cas.": true, "Vet. App.": true, "T.C.": true, "M.J.": true,
	"U.S. Dist. LEXIS": true, "U.S. App. LEXIS": true,
}

// Parse parses a raw citation string. Unparseable input yields a citation
// of type UNKNOWN whose normalized key is the collapsed raw text, so it can
// still be deduplicated and will fail existence lookups conservatively.
func Parse(raw string) model.Citation {
	text := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	text = strings.ReplaceAll(text, "’", "'")
	stripped := signalWordRe.ReplaceAllString(text, "")

	c := model.Citation{Raw: raw}
	p := &c.Parsed

	switch {
	case idCiteRe.MatchString(stripped):
		p.Type = model.CitationID
		if m := idCiteRe.FindStringSubmatch(stripped); m != nil {
			p.Pinpoint = m[1]
		}
	case statuteRe.MatchString(stripped):
		m := statuteRe.FindStringSubmatch(stripped)
		p.Type = model.CitationStatute
		p.Volume = m[1]
		p.Reporter = canonicalStatute(m[2])
		p.Page = m[3]
		p.Federal = true
	case databaseCiteRe.MatchString(stripped):
		idx := databaseCiteRe.FindStringSubmatchIndex(stripped)
		m := databaseCiteRe.FindStringSubmatch(stripped)
		p.Type = model.CitationFullCase
		p.Volume = m[1]
		p.Reporter = CanonicalReporter(m[2])
		p.Page = m[3]
		p.Pinpoint = m[4]
		p.Year, _ = strconv.Atoi(m[1])
		if paren := m[5]; paren != "" {
			court, year := parseParenthetical(paren)
			p.Court = strings.TrimSpace(parenDateRe.ReplaceAllString(court, ""))
			if year != 0 {
				p.Year = year
			}
		}
		setCaseName(p, stripped[:idx[0]])
	case stateCodeRe.MatchString(stripped) && !fullCiteRe.MatchString(stripped):
		m := stateCodeRe.FindStringSubmatch(stripped)
		p.Type = model.CitationStatute
		p.Reporter = strings.TrimSpace(m[1])
		p.Page = m[2]
	case shortCiteRe.MatchString(stripped):
		m := shortCiteRe.FindStringSubmatch(stripped)
		p.Type = model.CitationShortCase
		p.Volume = m[1]
		p.Reporter = CanonicalReporter(m[2])
		p.Pinpoint = m[3]
		if idx := strings.Index(stripped, m[0]); idx > 0 {
			p.CaseName = strings.Trim(strings.TrimSpace(stripped[:idx]), ",")
		}
	case fullCiteRe.MatchString(stripped):
		idx := fullCiteRe.FindStringSubmatchIndex(stripped)
		m := fullCiteRe.FindStringSubmatch(stripped)
		p.Type = model.CitationFullCase
		p.Volume = m[1]
		p.Reporter = CanonicalReporter(m[2])
		p.Page = m[3]
		p.Pinpoint = strings.ReplaceAll(m[4], " ", "")
		if paren := m[5]; paren != "" {
			p.Court, p.Year = parseParenthetical(paren)
		}
		setCaseName(p, stripped[:idx[0]])
	case supraCiteRe.MatchString(stripped):
		m := supraCiteRe.FindStringSubmatch(stripped)
		p.Type = model.CitationSupra
		p.CaseName = strings.TrimSpace(m[1])
		p.Pinpoint = m[2]
	default:
		p.Type = model.CitationUnknown
	}

	// WL numbers cover state and federal courts alike; the court decides
	if p.Type == model.CitationFullCase || p.Type == model.CitationShortCase {
		p.Federal = federalReporters[p.Reporter] || federalCourt.MatchString(p.Court)
	}

	c.Normalized = normalizedKey(c.Parsed, text)
	return c
}

// setCaseName fills the parties from the "A v. B," text before a citation
func setCaseName(p *model.ParsedCitation, before string) {
	if name := caseNameRe.FindStringSubmatch(before); name != nil {
		p.Plaintiff = strings.TrimSpace(name[1])
		p.Defendant = strings.TrimSpace(name[2])
		p.CaseName = p.Plaintiff + " v. " + p.Defendant
	}
}

// Normalize returns the canonical dedup key for a raw citation
func Normalize(raw string) string {
	return Parse(raw).Normalized
}

// CanonicalReporter maps a reporter abbreviation variant to its canonical form.
// Unknown reporters are returned with whitespace collapsed.
func CanonicalReporter(rep string) string {
	rep = strings.TrimSpace(spaceRe.ReplaceAllString(rep, " "))
	key := strings.ToLower(strings.ReplaceAll(rep, " ", ""))
	key = strings.ReplaceAll(key, "’", "'")
	if canon, ok := canonicalReporters[key]; ok {
		return canon
	}
	return rep
}

// IsFederalReporter reports whether a canonical reporter publishes federal decisions
func IsFederalReporter(rep string) bool {
	return federalReporters[rep]
}

func canonicalStatute(code string) string {
	key := strings.ReplaceAll(code, " ", "")
	switch key {
	case "U.S.C.A.":
		return "U.S.C.A."
	case "C.F.R.":
		return "C.F.R."
	default:
		return "U.S.C."
	}
}

// parseParenthetical splits "(9th Cir. 2005)" into court and year
func parseParenthetical(paren string) (string, int) {
	paren = strings.TrimSpace(paren)
	loc := yearRe.FindAllStringIndex(paren, -1)
	if len(loc) == 0 {
		return paren, 0
	}
	last := loc[len(loc)-1]
	year, _ := strconv.Atoi(paren[last[0]:last[1]])
	court := strings.TrimSpace(paren[:last[0]])
	court = strings.TrimRight(court, ", ")
	return court, year
}

func normalizedKey(p model.ParsedCitation, collapsed string) string {
	switch p.Type {
	case model.CitationFullCase:
		return p.Volume + " " + p.Reporter + " " + p.Page
	case model.CitationStatute:
		if p.Volume != "" {
			return p.Volume + " " + p.Reporter + " § " + p.Page
		}
		return p.Reporter + " § " + p.Page
	case model.CitationShortCase:
		return p.Volume + " " + p.Reporter + " at " + p.Pinpoint
	default:
		return collapsed
	}
}

// LookupText returns the bare reporter citation sent to citation-lookup endpoints
func LookupText(c model.Citation) string {
	p := c.Parsed
	if p.Type == model.CitationFullCase {
		return p.Volume + " " + p.Reporter + " " + p.Page
	}
	return c.Raw
}
