package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/citecheck/internal/model"
)

func TestComponent_StrongCandidatePasses(t *testing.T) {
	c := model.Candidate{
		CaseName: "Example v. Sample",
		Text: "On appeal from the order granting the special motion to strike under " +
			"Cal. Civ. Proc. Code § 425.16, the anti-SLAPP statute, we consider whether the speech " +
			"in a public forum concerned a public issue, whether it was protected activity, " +
			"and the plaintiff's probability of prevailing.",
	}

	got := NewComponent().Score(c, antiSLAPPContext())

	assert.Equal(t, 30.0, got.Axes["statute"])
	assert.Equal(t, 35.0, got.Axes["keywords"])
	assert.Equal(t, 20.0, got.Axes["posture"])
	assert.Zero(t, got.Axes["red_flags"])
	assert.InDelta(t, 15.0, got.Axes["proposition"], 1e-9)
	assert.InDelta(t, 1.0, got.Composite, 1e-9)
	assert.True(t, got.Passed)
}

func TestComponent_OffTopicRejected(t *testing.T) {
	c := model.Candidate{
		CaseName: "People v. Doe",
		Text:     "The sentencing court denied the habeas petition. Affirmed.",
	}

	got := NewComponent().Score(c, antiSLAPPContext())

	assert.Equal(t, 5.0, got.Axes["posture"])
	assert.Equal(t, -20.0, got.Axes["red_flags"])
	assert.Zero(t, got.Composite)
	assert.False(t, got.Passed)
	assert.Contains(t, got.Reasons, "below 0.70 threshold")
}

func TestComponent_RedFlagsSuppressedWhenOnTopic(t *testing.T) {
	c := model.Candidate{
		Text: "The debtor's bankruptcy did not bar the special motion to strike; the claims arose from " +
			"protected activity on a public issue and plaintiff showed no probability of prevailing.",
	}

	got := NewComponent().Score(c, antiSLAPPContext())
	assert.Zero(t, got.Axes["red_flags"])
}

func TestComponent_RedFlagFloor(t *testing.T) {
	c := model.Candidate{
		Text: "sentencing habeas immigration deportation divorce probate",
	}
	sc := ScoringContext{MotionType: "Motion to Dismiss", Proposition: "x", AsOf: asOf}

	got := NewComponent().Score(c, sc)
	assert.Equal(t, -40.0, got.Axes["red_flags"])
}

func TestComponent_MotionSubjectIsNotARedFlag(t *testing.T) {
	c := model.Candidate{Text: "The habeas petition was timely."}
	sc := ScoringContext{MotionType: "Petition for writ of habeas corpus", AsOf: asOf}

	got := NewComponent().Score(c, sc)
	assert.Zero(t, got.Axes["red_flags"])
}
