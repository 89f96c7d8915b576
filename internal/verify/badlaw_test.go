package verify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/llm"
	"github.com/ppiankov/citecheck/internal/model"
)

var checkedAt = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func badLawRun() *model.VerificationRun {
	req := testRequest(model.PropositionSecondary)
	return &model.VerificationRun{
		Citation:    req.Citation,
		Proposition: req.Proposition,
		Tier:        "B",
		Existence:   &model.ExistenceResult{SourceID: "107693", Status: model.ExistenceVerified},
	}
}

func checkBadLaw(t *testing.T, cl *fakeCaseLaw, r *fakeRouter, repo *fakeRepo) (*model.BadLawResult, model.Usage) {
	t.Helper()
	p := newTestPipeline(cl, r, repo)
	p.now = func() time.Time { return checkedAt }
	res, usage := p.checkBadLaw(context.Background(), badLawRun(), "Pickering v. Board of Education")
	require.NotNil(t, res)
	return res, usage
}

func citingHit(id int64, name, snippet string) caselaw.SearchHit {
	return caselaw.SearchHit{ClusterID: id, CaseName: name, Snippet: snippet}
}

func TestBadLaw_EmptyNetworkIsGoodLaw(t *testing.T) {
	r := newFakeRouter(defaultScript())
	res, usage := checkBadLaw(t, newFakeCaseLaw(), r, nil)

	assert.Equal(t, model.LawGood, res.Status)
	assert.True(t, res.Layer1Clean)
	assert.False(t, res.Layer2Ran)
	assert.Equal(t, 1.0, res.Confidence)
	assert.True(t, res.Proceed)
	assert.Zero(t, usage.AuxCalls)
	assert.Equal(t, checkedAt, res.CheckedAt)
	assert.Equal(t, checkedAt.Add(30*24*time.Hour), res.ValidUntil)
}

func TestBadLaw_DefinitiveOverruling(t *testing.T) {
	cl := newFakeCaseLaw()
	cl.citing = []caselaw.SearchHit{
		citingHit(300, "Later v. Court", "To the extent Pickering v. Board of Education holds otherwise, it is overruled."),
	}
	r := newFakeRouter(defaultScript())
	res, _ := checkBadLaw(t, cl, r, nil)

	assert.Equal(t, model.LawOverruled, res.Status)
	assert.Equal(t, 1, res.DecidedBy)
	assert.False(t, res.Proceed)
	assert.False(t, res.Layer2Ran)
	assert.Equal(t, 0.3, res.Confidence)
	require.Len(t, res.Treatments, 1)
	assert.Equal(t, "overruled", res.Treatments[0].Kind)
	assert.Equal(t, "300", res.Treatments[0].CitingID)
	assert.Zero(t, r.total())
}

func TestBadLaw_ReversalIsNegativeTreatment(t *testing.T) {
	cl := newFakeCaseLaw()
	cl.citing = []caselaw.SearchHit{
		citingHit(301, "Board v. Pickering", "The decision in Pickering was reversed on other grounds."),
	}
	res, _ := checkBadLaw(t, cl, newFakeRouter(defaultScript()), nil)

	assert.Equal(t, model.LawNegativeTreatment, res.Status)
	assert.True(t, res.Proceed)
	assert.Equal(t, "reversed", res.Treatments[0].Kind)
}

func TestBadLaw_InconclusiveNetworkRunsPatternSearch(t *testing.T) {
	cl := newFakeCaseLaw()
	cl.citing = []caselaw.SearchHit{
		citingHit(302, "Garcetti v. Ceballos", "The judgment of the Court of Appeals is reversed."),
	}
	s := defaultScript()
	s.badLaw = `{"status":"NEGATIVE_TREATMENT","confidence":0.8,"treatments":[{"kind":"Criticized","citing_case":"Garcetti v. Ceballos"}]}`
	r := newFakeRouter(s)

	res, usage := checkBadLaw(t, cl, r, nil)

	assert.True(t, res.Layer1Clean, "the reversal names another case")
	assert.True(t, res.Layer2Ran)
	assert.Equal(t, model.LawNegativeTreatment, res.Status)
	assert.Equal(t, 2, res.DecidedBy)
	assert.InDelta(t, 0.2, res.Layer2Confidence, 1e-9)
	assert.InDelta(t, 0.68, res.Confidence, 1e-9)
	require.Len(t, res.Treatments, 1)
	assert.Equal(t, "criticized", res.Treatments[0].Kind)
	assert.Equal(t, 1, usage.AuxCalls)
	require.Len(t, r.prompts[llm.StageAux], 1)
	assert.Contains(t, r.prompts[llm.StageAux][0], "Garcetti v. Ceballos")
}

func TestBadLaw_PatternSearchConfirmsGoodLaw(t *testing.T) {
	cl := newFakeCaseLaw()
	cl.citing = []caselaw.SearchHit{
		citingHit(303, "Connick v. Myers", "Applying the balance struck in a prior case, the judgment below is reversed."),
	}
	res, _ := checkBadLaw(t, cl, newFakeRouter(defaultScript()), nil)

	assert.True(t, res.Layer2Ran)
	assert.Equal(t, model.LawGood, res.Status)
	assert.Equal(t, 1, res.DecidedBy)
	assert.InDelta(t, 0.96, res.Confidence, 1e-9)
}

func TestBadLaw_PatternSearchFailureIsCaution(t *testing.T) {
	cl := newFakeCaseLaw()
	cl.citing = []caselaw.SearchHit{citingHit(304, "Other v. Case", "Nothing to see here.")}
	s := defaultScript()
	s.auxErr = errors.New("vendor down")

	res, usage := checkBadLaw(t, cl, newFakeRouter(s), nil)

	assert.Equal(t, model.LawCaution, res.Status)
	assert.Equal(t, 2, res.DecidedBy)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.Contains(t, res.Error, "vendor down")
	assert.True(t, res.Proceed)
	assert.Zero(t, usage.AuxCalls)
}

func TestBadLaw_NetworkFailureIsCaution(t *testing.T) {
	cl := newFakeCaseLaw()
	cl.citingErr = caselaw.ErrTransient
	res, _ := checkBadLaw(t, cl, newFakeRouter(defaultScript()), nil)

	assert.Equal(t, model.LawCaution, res.Status)
	assert.Equal(t, 0.3, res.Confidence)
	assert.NotEmpty(t, res.Error)
	assert.True(t, res.Proceed)
}

func TestBadLaw_OverrideSkipsNetwork(t *testing.T) {
	cl := newFakeCaseLaw()
	repo := &fakeRepo{overrides: map[string]*model.OverrideEntry{
		"391 U.S. 563": {Normalized: "391 U.S. 563", CaseName: "Pickering v. Board of Education", Status: model.LawCaution, Note: "limited"},
	}}
	res, _ := checkBadLaw(t, cl, newFakeRouter(defaultScript()), repo)

	assert.Equal(t, model.LawCaution, res.Status)
	assert.Equal(t, 3, res.DecidedBy)
	assert.True(t, res.Proceed)
	assert.Equal(t, "Pickering v. Board of Education (limited)", res.OverrideReason)
	assert.Zero(t, cl.callCount())
}

func TestDefinitiveTreatments_SkipsTheCaseItself(t *testing.T) {
	hits := []caselaw.SearchHit{
		citingHit(107693, "Pickering v. Board of Education", "Pickering overruled the lower court."),
		citingHit(305, "Later v. Court", ""),
	}
	treatments, snippets := definitiveTreatments(hits, "107693", "Pickering v. Board of Education")

	assert.Empty(t, treatments)
	assert.Empty(t, snippets)
}

func TestGoodLawConfidence(t *testing.T) {
	assert.Equal(t, 0.9, goodLawConfidence(llm.BadLawDecision{Status: model.LawGood, Confidence: 0.9}))
	assert.Equal(t, 0.5, goodLawConfidence(llm.BadLawDecision{Status: model.LawCaution, Confidence: 0.9}))
	assert.InDelta(t, 0.1, goodLawConfidence(llm.BadLawDecision{Status: model.LawOverruled, Confidence: 0.9}), 1e-9)
}
