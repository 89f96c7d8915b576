package score

import (
	"strings"

	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/model"
)

const outOfJurisdiction = 0.3

// CourtLevel scores the deciding court against where the motion is filed.
// The second return value names the matrix cell.
func CourtLevel(c courts.Court, j model.Jurisdiction, resolver courts.Resolver) (float64, string) {
	if c.Level == model.TierUnknown {
		return outOfJurisdiction, "unresolved court"
	}
	state := strings.ToUpper(strings.TrimSpace(j.State))
	circuit := ""
	if state != "" {
		circuit = resolver.CircuitFor(state)
	}
	federal := c.Forum == model.ForumFederal
	sameState := state != "" && c.State == state
	sameCircuit := circuit != "" && c.Circuit == circuit

	if j.Forum == model.ForumFederal {
		switch {
		case c.ID == "scotus":
			return 1.0, "supreme court of the united states"
		case federal && c.Level == model.TierAppellate && sameCircuit:
			return 0.9, "controlling circuit"
		case !federal && c.Level == model.TierSupreme && sameState:
			return 0.75, "forum state supreme court"
		case federal && c.Level == model.TierTrial && sameState:
			return 0.7, "district court in forum state"
		case !federal && c.Level == model.TierAppellate && sameState:
			return 0.65, "forum state appellate court"
		case federal && c.Level == model.TierAppellate:
			return 0.45, "other circuit"
		default:
			return outOfJurisdiction, "out of jurisdiction"
		}
	}

	switch {
	case !federal && sameState && c.Level == model.TierSupreme:
		return 1.0, "same-state supreme court"
	case !federal && sameState && c.Level == model.TierAppellate:
		return 0.9, "same-state appellate court"
	case c.ID == "scotus":
		return 0.8, "supreme court of the united states"
	case !federal && sameState && c.Level == model.TierTrial:
		return 0.6, "same-state trial court"
	case federal && c.Level == model.TierAppellate && sameCircuit:
		return 0.6, "circuit covering forum state"
	case federal && c.Level == model.TierTrial && sameState:
		return 0.5, "district court in forum state"
	default:
		return outOfJurisdiction, "out of jurisdiction"
	}
}

// resolveCourt prefers the database court id and falls back to the name
func resolveCourt(c model.Candidate, resolver courts.Resolver) courts.Court {
	if c.CourtID != "" {
		if court, m := resolver.Resolve(c.CourtID); m != courts.MatchNone {
			return court
		}
	}
	court, _ := resolver.Resolve(c.Court)
	return court
}
