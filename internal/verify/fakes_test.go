package verify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/citation"
	"github.com/ppiankov/citecheck/internal/llm"
	"github.com/ppiankov/citecheck/internal/model"
)

const testOpinion = `The First Amendment protects speech on matters of public concern.
We hold that a public employee's speech is protected when the employee speaks as a citizen
on a matter of public concern. The weather that spring was unusually mild.`

const testQuote = "a public employee's speech is protected when the employee speaks as a citizen"

type fakeCaseLaw struct {
	mu    sync.Mutex
	calls int

	matches     []caselaw.CitationMatch
	lookupErr   error
	opinionHits []caselaw.SearchHit
	searchErr   error
	nameHits    []caselaw.SearchHit
	docketHits  []caselaw.SearchHit
	citing      []caselaw.SearchHit
	citingErr   error
	opinion     string
	opinionErr  error
}

func newFakeCaseLaw() *fakeCaseLaw {
	return &fakeCaseLaw{
		matches: []caselaw.CitationMatch{{
			Citation: "391 U.S. 563",
			Status:   200,
			Clusters: []caselaw.Cluster{{
				ID:        107693,
				CaseName:  "Pickering v. Board of Education",
				CourtID:   "scotus",
				DateFiled: caselaw.Date{Time: time.Date(1968, 6, 3, 0, 0, 0, 0, time.UTC)},
			}},
		}},
		opinion: testOpinion,
	}
}

func (f *fakeCaseLaw) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeCaseLaw) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCaseLaw) LookupCitation(_ context.Context, _ string) ([]caselaw.CitationMatch, error) {
	f.hit()
	return f.matches, f.lookupErr
}

func (f *fakeCaseLaw) SearchOpinions(_ context.Context, _ string, _ caselaw.SearchOptions) ([]caselaw.SearchHit, error) {
	f.hit()
	return f.opinionHits, f.searchErr
}

func (f *fakeCaseLaw) SearchCaseName(_ context.Context, _ string, _ caselaw.SearchOptions) ([]caselaw.SearchHit, error) {
	f.hit()
	return f.nameHits, nil
}

func (f *fakeCaseLaw) SearchDockets(_ context.Context, _ string, _ caselaw.SearchOptions) ([]caselaw.SearchHit, error) {
	f.hit()
	return f.docketHits, nil
}

func (f *fakeCaseLaw) CitingOpinions(_ context.Context, _ string, _ string, _ caselaw.SearchOptions) ([]caselaw.SearchHit, error) {
	f.hit()
	return f.citing, f.citingErr
}

func (f *fakeCaseLaw) FetchOpinionText(_ context.Context, _ string) (string, error) {
	f.hit()
	return f.opinion, f.opinionErr
}

// script holds the raw model replies by call kind
type script struct {
	stage1    []string // consumed in order; the last reply repeats
	stage2    []string
	stage2Err []error
	dicta     string
	badLaw    string
	auxErr    error
}

type fakeRouter struct {
	mu      sync.Mutex
	script  script
	calls   map[llm.Stage]int
	prompts map[llm.Stage][]string
}

func newFakeRouter(s script) *fakeRouter {
	return &fakeRouter{script: s, calls: map[llm.Stage]int{}, prompts: map[llm.Stage][]string{}}
}

func defaultScript() script {
	return script{
		stage1: []string{`{"result":"VERIFIED","confidence":0.95,"quote":"` + testQuote + `","reasoning":"stated as the holding"}`},
		stage2: []string{`{"result":"UPHELD","challenge_strength":0.1}`},
		dicta:  `{"classification":"HOLDING","reasoning":"necessary to the result"}`,
		badLaw: `{"status":"GOOD_LAW","confidence":0.9}`,
	}
}

func pick(replies []string, n int) string {
	if len(replies) == 0 {
		return ""
	}
	return replies[min(n, len(replies)-1)]
}

func (f *fakeRouter) Complete(_ context.Context, _ llm.Tier, stage llm.Stage, _ string, prompt string) (*llm.Call, error) {
	f.mu.Lock()
	n := f.calls[stage]
	f.calls[stage]++
	f.prompts[stage] = append(f.prompts[stage], prompt)
	f.mu.Unlock()

	var text string
	switch stage {
	case llm.StagePrimary:
		text = pick(f.script.stage1, n)
	case llm.StageAdversarial:
		if n < len(f.script.stage2Err) && f.script.stage2Err[n] != nil {
			return nil, f.script.stage2Err[n]
		}
		text = pick(f.script.stage2, n)
	default:
		if f.script.auxErr != nil {
			return nil, f.script.auxErr
		}
		text = f.script.dicta
		if strings.Contains(prompt, "Excerpts from later opinions") {
			text = f.script.badLaw
		}
	}

	return &llm.Call{
		Stage:    stage,
		Spec:     llm.ModelSpec{Vendor: "test", Model: "test-" + stage.String()},
		Response: &llm.CompletionResponse{Text: text, InputTokens: 100, OutputTokens: 20},
		Cost:     0.01,
	}, nil
}

func (f *fakeRouter) count(stage llm.Stage) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

func (f *fakeRouter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakeRepo struct {
	mu        sync.Mutex
	overrides map[string]*model.OverrideEntry
	saved     []*model.VerificationRun
}

func (r *fakeRepo) SaveRun(_ context.Context, run *model.VerificationRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, run)
	return nil
}

func (r *fakeRepo) LookupOverride(_ context.Context, normalized string) (*model.OverrideEntry, error) {
	return r.overrides[normalized], nil
}

type fakeStrength struct {
	calls int
}

func (s *fakeStrength) Assess(_ context.Context, _ string, _ string, _ time.Time) (model.StrengthAssessment, error) {
	s.calls++
	return model.StrengthAssessment{Stability: model.StabilityLandmark, Score: 80}, nil
}

func testRequest(propType model.PropositionType) model.VerifyRequest {
	c := citation.Parse("Pickering v. Board of Education, 391 U.S. 563 (1968)")
	c.Quote = testQuote
	return model.VerifyRequest{
		Citation:    c,
		Proposition: model.Proposition{Text: "Public employees keep First Amendment protection when speaking as citizens", Type: propType},
		MotionType:  "motion to dismiss",
	}
}

func newTestPipeline(cl *fakeCaseLaw, r *fakeRouter, repo *fakeRepo) *Pipeline {
	deps := Deps{CaseLaw: cl, Router: r}
	if repo != nil {
		deps.Repo = repo
	}
	return NewPipeline(model.DefaultConfig().Verify, deps, nil)
}
