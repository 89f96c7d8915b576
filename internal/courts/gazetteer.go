// Package courts resolves court names, abbreviations and database ids into
// structured courts with a precedential level, forum and state.
package courts

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/citecheck/internal/model"
)

// Court is a resolved court
type Court struct {
	ID      string              `json:"id,omitempty"`
	Name    string              `json:"name"`
	Level   model.AuthorityTier `json:"level"`
	Forum   model.Forum         `json:"forum,omitempty"`
	State   string              `json:"state,omitempty"`   // Postal code; empty for nationwide courts
	Circuit string              `json:"circuit,omitempty"` // Federal circuit for federal courts
}

// Match describes how a court was resolved
type Match int

const (
	MatchNone    Match = iota // Unresolved, degraded
	MatchPattern              // Resolved by a naming pattern
	MatchExact                // Resolved by id, name or abbreviation
)

func (m Match) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchPattern:
		return "pattern"
	default:
		return "unresolved"
	}
}

// Resolver resolves court names. Implementations must be safe for concurrent use.
type Resolver interface {
	Resolve(name string) (Court, Match)
	CircuitFor(state string) string
}

// Gazetteer is the default Resolver: exact table, then ordered pattern
// rules, then an unresolved court of unknown level.
type Gazetteer struct {
	exact    map[string]Court
	rules    []*compiledRule
	byCode   map[string]State
	stateKey map[string]string // lower-cased name or abbreviation -> postal code
}

type compiledRule struct {
	pattern *regexp.Regexp
	resolve func(g *Gazetteer, m []string) (Court, bool)
}

// NewGazetteer creates a gazetteer from the built-in tables plus extra courts.
// Extra courts take precedence over built-in entries with the same key.
func NewGazetteer(extra ...Court) *Gazetteer {
	g := &Gazetteer{
		exact:    make(map[string]Court),
		byCode:   make(map[string]State),
		stateKey: make(map[string]string),
	}

	for _, s := range states {
		g.byCode[s.Code] = s
		g.stateKey[strings.ToLower(s.Name)] = s.Code
		g.stateKey[normKey(s.Abbrev)] = s.Code
	}

	g.addFederalAppellate()
	g.addRows(stateCourtRows)
	g.addRows(districtCourtRows)
	for _, c := range extra {
		g.add(c)
	}

	g.rules = defaultRules()
	return g
}

var defaultGazetteer = NewGazetteer()

// Default returns the shared built-in gazetteer
func Default() *Gazetteer {
	return defaultGazetteer
}

func (g *Gazetteer) add(c Court, aliases ...string) {
	g.exact[normKey(c.ID)] = c
	g.exact[normKey(c.Name)] = c
	for _, a := range aliases {
		g.exact[normKey(a)] = c
	}
}

// Resolve resolves a court name, abbreviation or database id
func (g *Gazetteer) Resolve(name string) (Court, Match) {
	key := normKey(name)
	if key == "" {
		return Court{Level: model.TierUnknown}, MatchNone
	}

	if c, ok := g.exact[key]; ok {
		return c, MatchExact
	}

	trimmed := strings.TrimSpace(name)
	for _, r := range g.rules {
		m := r.pattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		if c, ok := r.resolve(g, m); ok {
			if c.Name == "" {
				c.Name = trimmed
			}
			return c, MatchPattern
		}
	}

	return Court{Name: trimmed, Level: model.TierUnknown}, MatchNone
}

// Level returns the precedential level of a court, or TierUnknown
func (g *Gazetteer) Level(name string) model.AuthorityTier {
	c, _ := g.Resolve(name)
	return c.Level
}

// CircuitFor returns the federal circuit covering a state postal code
func (g *Gazetteer) CircuitFor(state string) string {
	return g.byCode[strings.ToUpper(strings.TrimSpace(state))].Circuit
}

// IDs returns the sorted database ids of known courts matching filter
func (g *Gazetteer) IDs(filter func(Court) bool) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, c := range g.exact {
		if c.ID == "" || seen[c.ID] || !filter(c) {
			continue
		}
		seen[c.ID] = true
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	return ids
}

// StateCode resolves a state name or abbreviation to its postal code
func (g *Gazetteer) StateCode(s string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(s))
	if _, ok := g.byCode[up]; ok {
		return up, true
	}
	code, ok := g.stateKey[normKey(s)]
	if !ok {
		code, ok = g.stateKey[strings.ToLower(strings.TrimSpace(s))]
	}
	return code, ok
}

func (g *Gazetteer) stateCourt(stateText string, level model.AuthorityTier) (Court, bool) {
	code, ok := g.StateCode(stateText)
	if !ok {
		return Court{}, false
	}
	return Court{Level: level, Forum: model.ForumState, State: code}, true
}

func (g *Gazetteer) districtCourt(stateText string) (Court, bool) {
	code, ok := g.StateCode(stateText)
	if !ok {
		return Court{}, false
	}
	return Court{
		Level:   model.TierTrial,
		Forum:   model.ForumFederal,
		State:   code,
		Circuit: g.byCode[code].Circuit,
	}, true
}

// normKey lower-cases and drops spaces so "S.D.N.Y." and "S. D. N. Y." collide
func normKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
