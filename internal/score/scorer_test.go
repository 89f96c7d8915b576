package score

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/model"
)

var asOf = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func antiSLAPPContext() ScoringContext {
	return ScoringContext{
		Jurisdiction: model.Jurisdiction{State: "CA", Forum: model.ForumState},
		MotionType:   "Special Motion to Strike (anti-SLAPP)",
		Proposition:  "Speech in a public forum on a public issue is protected activity",
		Keywords:     []string{"protected activity", "public issue"},
		Statutes:     []string{"Cal. Civ. Proc. Code § 425.16"},
		AsOf:         asOf,
	}
}

func TestThreeAxis_Score(t *testing.T) {
	c := model.Candidate{
		SourceID:  "101",
		CaseName:  "Example v. Sample",
		CourtID:   "cal",
		DateFiled: time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC),
		Snippet:   "Under Cal. Civ. Proc. Code § 425.16 the defendant must show protected activity.",
	}

	got := NewThreeAxis().Score(c, antiSLAPPContext())

	// 1 of 2 terms plus the statute counted double: 3/4
	assert.InDelta(t, 0.75, got.Axes["keyword"], 1e-9)
	assert.InDelta(t, 1.0, got.Axes["court_level"], 1e-9)
	assert.InDelta(t, 1.0, got.Axes["recency"], 1e-9)
	assert.InDelta(t, 0.4*0.75+0.3+0.3, got.Composite, 1e-9)
	assert.True(t, got.Passed)
	assert.Equal(t, ModelThreeAxis, got.Model)
}

func TestThreeAxis_NoTermsScoresOnCourtAndAge(t *testing.T) {
	c := model.Candidate{CourtID: "ca5", DateFiled: time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)}
	sc := ScoringContext{Jurisdiction: model.Jurisdiction{State: "CA", Forum: model.ForumState}, AsOf: asOf}

	got := NewThreeAxis().Score(c, sc)
	assert.Zero(t, got.Axes["keyword"])
	assert.InDelta(t, 0.3*0.3+0.3*0.3, got.Composite, 1e-9)
	assert.False(t, got.Passed)
}

func TestCourtLevel_Matrix(t *testing.T) {
	g := courts.Default()
	ca := "CA"

	tests := []struct {
		forum model.Forum
		state string
		court string
		want  float64
	}{
		{model.ForumState, ca, "cal", 1.0},
		{model.ForumState, ca, "calctapp", 0.9},
		{model.ForumState, ca, "scotus", 0.8},
		{model.ForumState, "NY", "nysupct", 0.6},
		{model.ForumState, ca, "ca9", 0.6},
		{model.ForumState, ca, "cand", 0.5},
		{model.ForumState, ca, "ca5", 0.3},
		{model.ForumState, ca, "tex", 0.3},

		{model.ForumFederal, ca, "scotus", 1.0},
		{model.ForumFederal, ca, "ca9", 0.9},
		{model.ForumFederal, ca, "cal", 0.75},
		{model.ForumFederal, ca, "cand", 0.7},
		{model.ForumFederal, ca, "calctapp", 0.65},
		{model.ForumFederal, ca, "ca2", 0.45},
		{model.ForumFederal, ca, "tex", 0.3},
		{model.ForumFederal, ca, "txnd", 0.3},
	}

	for _, tt := range tests {
		court, m := g.Resolve(tt.court)
		require.NotEqual(t, courts.MatchNone, m, tt.court)

		got, cell := CourtLevel(court, model.Jurisdiction{State: tt.state, Forum: tt.forum}, g)
		assert.InDelta(t, tt.want, got, 1e-9, "%s forum, %s court (%s)", tt.forum, tt.court, cell)
	}

	got, _ := CourtLevel(courts.Court{Name: "Mystery Tribunal"}, model.Jurisdiction{State: ca, Forum: model.ForumState}, g)
	assert.InDelta(t, 0.3, got, 1e-9)
}

func TestRecencyAxis_Buckets(t *testing.T) {
	tests := []struct {
		filed time.Time
		want  float64
	}{
		{asOf.AddDate(-5, 0, 0), 1.0},
		{asOf.AddDate(-6, 0, 0), 0.85},
		{asOf.AddDate(-10, 0, 0), 0.85},
		{asOf.AddDate(-15, 0, 0), 0.70},
		{asOf.AddDate(-25, 0, 0), 0.50},
		{asOf.AddDate(-31, 0, 0), 0.30},
		{time.Time{}, 0.30},
	}
	for _, tt := range tests {
		got, reason := recencyAxis(model.Candidate{DateFiled: tt.filed}, ScoringContext{AsOf: asOf})
		assert.InDelta(t, tt.want, got, 1e-9, reason)
	}
}

func TestScoring_IsPure(t *testing.T) {
	c := model.Candidate{
		CaseName:  "Example v. Sample",
		Court:     "9th Cir.",
		DateFiled: time.Date(2012, 3, 3, 0, 0, 0, 0, time.UTC),
		Text:      "protected activity under the anti-SLAPP statute; affirmed",
	}
	sc := antiSLAPPContext()

	for _, s := range []Scorer{NewThreeAxis(), NewComponent()} {
		first := s.Score(c, sc)
		second := s.Score(c, sc)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%T not deterministic (-first +second):\n%s", s, diff)
		}
	}
}

func TestRankAndPartition(t *testing.T) {
	sc := antiSLAPPContext()
	candidates := []model.Candidate{
		{SourceID: "old", CourtID: "tex", DateFiled: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC)},
		{SourceID: "best", CourtID: "cal", DateFiled: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Snippet: "protected activity on a public issue, Cal. Civ. Proc. Code § 425.16"},
		{SourceID: "mid", CourtID: "calctapp", DateFiled: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	ranked := Rank(NewThreeAxis(), candidates, sc)
	require.Len(t, ranked, 3)
	assert.Equal(t, "best", ranked[0].Candidate.SourceID)
	assert.Equal(t, "mid", ranked[1].Candidate.SourceID)
	assert.Equal(t, "old", ranked[2].Candidate.SourceID)

	passed, rejected := Partition(ranked)
	assert.Len(t, passed, 2)
	assert.Len(t, rejected, 1)
	assert.Equal(t, "old", rejected[0].Candidate.SourceID)
}
