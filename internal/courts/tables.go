package courts

import (
	"regexp"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

type courtRow struct {
	id      string
	name    string
	level   model.AuthorityTier
	forum   model.Forum
	state   string
	circuit string
	aliases []string
}

var stateCourtRows = []courtRow{
	{"cal", "Supreme Court of California", model.TierSupreme, model.ForumState, "CA", "", []string{"Cal."}},
	{"calctapp", "California Court of Appeal", model.TierAppellate, model.ForumState, "CA", "", []string{"Cal. Ct. App.", "Cal. App."}},
	{"ny", "New York Court of Appeals", model.TierSupreme, model.ForumState, "NY", "", []string{"N.Y.", "Court of Appeals of New York"}},
	{"nyappdiv", "Appellate Division of the Supreme Court of New York", model.TierAppellate, model.ForumState, "NY", "", []string{"N.Y. App. Div.", "App. Div."}},
	{"nysupct", "New York Supreme Court", model.TierTrial, model.ForumState, "NY", "", []string{"N.Y. Sup. Ct."}},
	{"tex", "Texas Supreme Court", model.TierSupreme, model.ForumState, "TX", "", []string{"Tex."}},
	{"texcrimapp", "Court of Criminal Appeals of Texas", model.TierSupreme, model.ForumState, "TX", "", []string{"Tex. Crim. App."}},
	{"texapp", "Court of Appeals of Texas", model.TierAppellate, model.ForumState, "TX", "", []string{"Tex. App."}},
	{"fla", "Supreme Court of Florida", model.TierSupreme, model.ForumState, "FL", "", []string{"Fla."}},
	{"fladistctapp", "District Court of Appeal of Florida", model.TierAppellate, model.ForumState, "FL", "", []string{"Fla. Dist. Ct. App."}},
	{"ill", "Illinois Supreme Court", model.TierSupreme, model.ForumState, "IL", "", []string{"Ill."}},
	{"illappct", "Appellate Court of Illinois", model.TierAppellate, model.ForumState, "IL", "", []string{"Ill. App. Ct."}},
	{"pa", "Supreme Court of Pennsylvania", model.TierSupreme, model.ForumState, "PA", "", []string{"Pa."}},
	{"pasuperct", "Superior Court of Pennsylvania", model.TierAppellate, model.ForumState, "PA", "", []string{"Pa. Super. Ct."}},
	{"mass", "Massachusetts Supreme Judicial Court", model.TierSupreme, model.ForumState, "MA", "", []string{"Mass."}},
	{"massappct", "Massachusetts Appeals Court", model.TierAppellate, model.ForumState, "MA", "", []string{"Mass. App. Ct."}},
	{"nj", "Supreme Court of New Jersey", model.TierSupreme, model.ForumState, "NJ", "", []string{"N.J."}},
	{"njsuperctappdiv", "New Jersey Superior Court Appellate Division", model.TierAppellate, model.ForumState, "NJ", "", []string{"N.J. Super. Ct. App. Div."}},
	{"md", "Court of Appeals of Maryland", model.TierSupreme, model.ForumState, "MD", "", []string{"Md."}},
	{"mdctspecapp", "Court of Special Appeals of Maryland", model.TierAppellate, model.ForumState, "MD", "", []string{"Md. Ct. Spec. App."}},
}

var districtCourtRows = []courtRow{
	{"cand", "District Court, N.D. California", model.TierTrial, model.ForumFederal, "CA", "ca9", []string{"N.D. Cal."}},
	{"cacd", "District Court, C.D. California", model.TierTrial, model.ForumFederal, "CA", "ca9", []string{"C.D. Cal."}},
	{"casd", "District Court, S.D. California", model.TierTrial, model.ForumFederal, "CA", "ca9", []string{"S.D. Cal."}},
	{"caed", "District Court, E.D. California", model.TierTrial, model.ForumFederal, "CA", "ca9", []string{"E.D. Cal."}},
	{"nysd", "District Court, S.D. New York", model.TierTrial, model.ForumFederal, "NY", "ca2", []string{"S.D.N.Y."}},
	{"nyed", "District Court, E.D. New York", model.TierTrial, model.ForumFederal, "NY", "ca2", []string{"E.D.N.Y."}},
	{"nynd", "District Court, N.D. New York", model.TierTrial, model.ForumFederal, "NY", "ca2", []string{"N.D.N.Y."}},
	{"nywd", "District Court, W.D. New York", model.TierTrial, model.ForumFederal, "NY", "ca2", []string{"W.D.N.Y."}},
	{"txsd", "District Court, S.D. Texas", model.TierTrial, model.ForumFederal, "TX", "ca5", []string{"S.D. Tex."}},
	{"txnd", "District Court, N.D. Texas", model.TierTrial, model.ForumFederal, "TX", "ca5", []string{"N.D. Tex."}},
	{"txed", "District Court, E.D. Texas", model.TierTrial, model.ForumFederal, "TX", "ca5", []string{"E.D. Tex."}},
	{"txwd", "District Court, W.D. Texas", model.TierTrial, model.ForumFederal, "TX", "ca5", []string{"W.D. Tex."}},
	{"flsd", "District Court, S.D. Florida", model.TierTrial, model.ForumFederal, "FL", "ca11", []string{"S.D. Fla."}},
	{"flmd", "District Court, M.D. Florida", model.TierTrial, model.ForumFederal, "FL", "ca11", []string{"M.D. Fla."}},
	{"flnd", "District Court, N.D. Florida", model.TierTrial, model.ForumFederal, "FL", "ca11", []string{"N.D. Fla."}},
	{"ilnd", "District Court, N.D. Illinois", model.TierTrial, model.ForumFederal, "IL", "ca7", []string{"N.D. Ill."}},
	{"mad", "District Court, D. Massachusetts", model.TierTrial, model.ForumFederal, "MA", "ca1", []string{"D. Mass."}},
	{"njd", "District Court, D. New Jersey", model.TierTrial, model.ForumFederal, "NJ", "ca3", []string{"D.N.J."}},
	{"ded", "District Court, D. Delaware", model.TierTrial, model.ForumFederal, "DE", "ca3", []string{"D. Del."}},
	{"dcd", "District Court, District of Columbia", model.TierTrial, model.ForumFederal, "DC", "cadc", []string{"D.D.C."}},
}

func (g *Gazetteer) addRows(rows []courtRow) {
	for _, r := range rows {
		g.add(Court{
			ID:      r.id,
			Name:    r.name,
			Level:   r.level,
			Forum:   r.forum,
			State:   r.state,
			Circuit: r.circuit,
		}, r.aliases...)
	}
}

func (g *Gazetteer) addFederalAppellate() {
	g.add(Court{
		ID:    "scotus",
		Name:  "Supreme Court of the United States",
		Level: model.TierSupreme,
		Forum: model.ForumFederal,
	}, "U.S.", "SCOTUS", "United States Supreme Court", "U.S. Supreme Court")

	for id, ordinal := range circuitNames {
		aliases := []string{
			"United States Court of Appeals for the " + ordinal + " Circuit",
		}
		switch id {
		case "cadc":
			aliases = append(aliases, "D.C. Cir.")
		case "cafc":
			aliases = append(aliases, "Fed. Cir.")
		}
		g.add(Court{
			ID:      id,
			Name:    "Court of Appeals for the " + ordinal + " Circuit",
			Level:   model.TierAppellate,
			Forum:   model.ForumFederal,
			Circuit: id,
		}, aliases...)
	}
	for short, id := range circuitOrdinals {
		c := g.exact[id]
		g.add(c, short+" Cir.")
	}
}

var (
	ordinalCircuitRe  = regexp.MustCompile(`(?i)^(\d{1,2}(?:st|nd|rd|th|d))\s*cir(?:cuit|\.)?$`)
	namedCircuitRe    = regexp.MustCompile(`(?i)court of appeals,? (?:for the )?(\w+(?: of \w+)?) circuit`)
	districtPrefixRe  = regexp.MustCompile(`^([NSEWMC])\.\s?D\.\s?(.+)$`)
	singleDistrictRe  = regexp.MustCompile(`^D\.\s?(.+)$`)
	districtNameRe    = regexp.MustCompile(`(?i)district court(?:,| for the)? (?:(?:northern|southern|eastern|western|middle|central) )?(?:district of |d\. )(.+)$`)
	bankruptcyRe      = regexp.MustCompile(`^Bankr\.\s?(?:[NSEWMC]\.\s?)?D\.\s?(.+)$`)
	stateSupremeRe    = regexp.MustCompile(`(?i)^(?:the )?supreme (?:judicial )?court of (.+)$`)
	stateSupremeSufRe = regexp.MustCompile(`(?i)^(.+?) supreme (?:judicial )?court$`)
	stateAppealsRe    = regexp.MustCompile(`(?i)^(?:the )?(?:court of appeals?|appellate court|superior court) of (.+)$`)
	stateAppealsSufRe = regexp.MustCompile(`(?i)^(.+?) (?:court of appeals?|appellate court)$`)
	abbrevAppealsRe   = regexp.MustCompile(`^(.+?)\s?(?:Ct\.\s?App\.|App\.\s?Ct\.|App\.)$`)
	trialCourtRe      = regexp.MustCompile(`(?i)^(.+?) (?:superior|district|circuit|county|chancery) court$`)
	abbrevTrialRe     = regexp.MustCompile(`^(.+?)\s?(?:Super\.|Dist\.|Cir\.|Ch\.)\s?Ct\.$`)
	bareStateRe       = regexp.MustCompile(`^([A-Z][A-Za-z. ]{1,20})$`)
)

func defaultRules() []*compiledRule {
	return []*compiledRule{
		{ordinalCircuitRe, func(g *Gazetteer, m []string) (Court, bool) {
			id, ok := circuitOrdinals[strings.ToLower(m[1])]
			if !ok {
				return Court{}, false
			}
			return g.exact[id], true
		}},
		{namedCircuitRe, func(g *Gazetteer, m []string) (Court, bool) {
			for id, name := range circuitNames {
				if strings.EqualFold(name, m[1]) {
					return g.exact[id], true
				}
			}
			return Court{}, false
		}},
		{bankruptcyRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.districtCourt(m[1])
		}},
		{districtPrefixRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.districtCourt(m[2])
		}},
		{singleDistrictRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.districtCourt(m[1])
		}},
		{districtNameRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.districtCourt(m[1])
		}},
		{stateSupremeRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.stateSupreme(m[1])
		}},
		{stateSupremeSufRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.stateSupreme(m[1])
		}},
		{stateAppealsRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.stateCourt(m[1], model.TierAppellate)
		}},
		{stateAppealsSufRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.stateCourt(m[1], model.TierAppellate)
		}},
		{abbrevAppealsRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.stateCourt(m[1], model.TierAppellate)
		}},
		{trialCourtRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.stateCourt(m[1], model.TierTrial)
		}},
		{abbrevTrialRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.stateCourt(m[1], model.TierTrial)
		}},
		{bareStateRe, func(g *Gazetteer, m []string) (Court, bool) {
			return g.stateCourt(m[1], model.TierSupreme)
		}},
	}
}

// stateSupreme handles New York, whose Supreme Court is a trial court
func (g *Gazetteer) stateSupreme(stateText string) (Court, bool) {
	c, ok := g.stateCourt(stateText, model.TierSupreme)
	if ok && c.State == "NY" {
		c.Level = model.TierTrial
	}
	return c, ok
}
