package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/cache"
	"github.com/ppiankov/citecheck/internal/model"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "citecheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string, completed time.Time, status model.Status, conf float64) *model.VerificationRun {
	return &model.VerificationRun{
		ID:          id,
		Citation:    model.Citation{Raw: "Roe v. Wade, 410 U.S. 113 (1973)", Normalized: "410 U.S. 113"},
		Proposition: model.Proposition{Text: "A right to privacy exists", Type: model.PropositionSecondary},
		StartedAt:   completed.Add(-time.Minute),
		CompletedAt: completed,
		Composite:   model.CompositeResult{Status: status, Confidence: conf, Action: model.ActionNone},
	}
}

func TestSaveRun_UpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Now().UTC()

	run := testRun("run-1", now, model.StatusFlagged, 0.6)
	require.NoError(t, s.SaveRun(ctx, run))
	require.NoError(t, s.SaveRun(ctx, run))

	n, err := s.CountRuns(ctx, "410 U.S. 113")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.SaveRun(ctx, testRun("run-2", now.Add(time.Second), model.StatusVerified, 0.95)))
	n, err = s.CountRuns(ctx, "410 U.S. 113")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSaveRun_RequiresID(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.SaveRun(context.Background(), &model.VerificationRun{}))
}

func TestLatestRun_SkipsCachedCopies(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, testRun("old", base, model.StatusFlagged, 0.5)))
	require.NoError(t, s.SaveRun(ctx, testRun("new", base.Add(time.Hour), model.StatusVerified, 0.93)))
	copyRun := testRun("copy", base.Add(2*time.Hour), model.StatusVerified, 0.93)
	copyRun.Cached = true
	require.NoError(t, s.SaveRun(ctx, copyRun))

	key := cache.Key("410 U.S. 113", "a right to privacy exists")
	run, err := s.LatestRun(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "new", run.ID)
	assert.Equal(t, model.StatusVerified, run.Composite.Status)
	assert.True(t, run.CompletedAt.Equal(base.Add(time.Hour)))

	missing, err := s.LatestRun(ctx, cache.Key("1 U.S. 1", "x"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLookupOverride_Seeded(t *testing.T) {
	s := openTestStore(t)

	e, err := s.LookupOverride(context.Background(), "410 U.S. 113")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, model.LawOverruled, e.Status)
	assert.Contains(t, e.OverruledBy, "Dobbs")

	none, err := s.LookupOverride(context.Background(), "347 U.S. 483")
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.Len(t, SeedOverrides(), 10)
}

func TestLoadOverrides_FileReplacesSeed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`overrides:
  - citation: "Roe v. Wade, 410 U.S. 113 (1973)"
    case_name: Roe v. Wade
    overruled_by: Dobbs
    note: local note
  - citation: "123 F.3d 456"
    case_name: Example v. Example
    status: negative_treatment
`), 0o644))

	entries, err := LoadOverrides(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "410 U.S. 113", entries[0].Normalized)
	assert.Equal(t, model.LawOverruled, entries[0].Status)
	assert.Equal(t, model.LawNegativeTreatment, entries[1].Status)

	require.NoError(t, s.PutOverrides(ctx, entries))

	e, err := s.LookupOverride(ctx, "410 U.S. 113")
	require.NoError(t, err)
	assert.Equal(t, "local note", e.Note)

	e, err = s.LookupOverride(ctx, "123 F.3d 456")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Example v. Example", e.CaseName)
}

func TestLoadOverrides_RejectsBadEntries(t *testing.T) {
	dir := t.TempDir()

	noCite := filepath.Join(dir, "a.yaml")
	require.NoError(t, os.WriteFile(noCite, []byte("overrides:\n  - case_name: X\n"), 0o644))
	_, err := LoadOverrides(noCite)
	assert.Error(t, err)

	badStatus := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(badStatus, []byte("overrides:\n  - citation: 1 U.S. 1\n    status: maybe\n"), 0o644))
	_, err = LoadOverrides(badStatus)
	assert.Error(t, err)

	_, err = LoadOverrides(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestStrength_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.GetStrength(ctx, "410 U.S. 113")
	require.NoError(t, err)
	assert.Nil(t, got)

	a := model.StrengthAssessment{
		Stability:  model.StabilityLandmark,
		Score:      68,
		Trend:      model.TrendStable,
		Inputs:     model.StrengthInputs{AgeYears: 50, TotalCitations: 4000, Recent5Y: 300},
		Components: map[string]float64{"base": 50, "volume": 25},
		AssessedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.PutStrength(ctx, "410 U.S. 113", a))
	a.Score = 70
	require.NoError(t, s.PutStrength(ctx, "410 U.S. 113", a))

	got, err = s.GetStrength(ctx, "410 U.S. 113")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 70, got.Score)
	assert.Equal(t, model.StabilityLandmark, got.Stability)
	assert.True(t, got.AssessedAt.Equal(a.AssessedAt))
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	e, err := s.LookupOverride(context.Background(), "163 U.S. 537")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "Plessy v. Ferguson", e.CaseName)
}
