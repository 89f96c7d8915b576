package search

import (
	"fmt"
	"strings"

	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/model"
)

// BuildPlan expands one query into a tiered plan: binding courts of the
// forum first, then persuasive federal authority, then an unrestricted pass.
func BuildPlan(query string, j model.Jurisdiction, g *courts.Gazetteer) []model.SearchTask {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if g == nil {
		g = courts.Default()
	}
	state := strings.ToUpper(strings.TrimSpace(j.State))
	circuit := g.CircuitFor(state)

	var tasks []model.SearchTask
	add := func(tier int, label string, ids []string) {
		if len(ids) == 0 {
			return
		}
		tasks = append(tasks, model.SearchTask{
			ID:    fmt.Sprintf("t%d-%s", tier, label),
			Tier:  tier,
			Query: query,
			Court: strings.Join(ids, " "),
		})
	}

	if j.Forum == model.ForumFederal {
		add(1, "binding", withSCOTUS(circuit))
		add(2, "forum-state", g.IDs(func(c courts.Court) bool {
			return state != "" && c.State == state
		}))
	} else {
		add(1, "binding", g.IDs(func(c courts.Court) bool {
			return state != "" && c.State == state && c.Forum == model.ForumState && c.Level != model.TierTrial
		}))
		add(2, "federal", append(withSCOTUS(circuit), g.IDs(func(c courts.Court) bool {
			return state != "" && c.State == state && c.Forum == model.ForumFederal
		})...))
	}
	tasks = append(tasks, model.SearchTask{ID: "t3-all", Tier: 3, Query: query})
	return tasks
}

func withSCOTUS(circuit string) []string {
	if circuit == "" {
		return []string{"scotus"}
	}
	return []string{"scotus", circuit}
}
