package verify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/model"
	"github.com/ppiankov/citecheck/internal/worker"
)

func TestBuildReport(t *testing.T) {
	now := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	ok := &model.VerificationRun{
		ID:        "r1",
		Composite: model.CompositeResult{Status: model.StatusVerified, Action: model.ActionNone, Confidence: 0.96},
		Usage:     model.Usage{Stage1Calls: 1, CostUSD: 0.02},
	}
	cached := &model.VerificationRun{
		ID:        "r2",
		Cached:    true,
		Composite: model.CompositeResult{Status: model.StatusVerified, Action: model.ActionNone, Confidence: 0.94},
	}
	results := []*worker.VerifyResult{
		{Request: model.VerifyRequest{Index: 0}, Run: ok},
		{Request: testRequest(model.PropositionSecondary), Error: errors.New("step timeout")},
		nil,
		{Request: model.VerifyRequest{Index: 3}, Run: cached},
	}

	report := BuildReport(results, "motion to dismiss", 3*time.Second, now)

	require.Len(t, report.Results, 3)
	assert.Equal(t, "r1", report.Results[0].ID)
	assert.Equal(t, "r2", report.Results[2].ID)

	failed := report.Results[1]
	assert.Equal(t, "step timeout", failed.Error)
	assert.Equal(t, model.StatusFlagged, failed.Composite.Status)
	assert.Equal(t, model.ActionReview, failed.Composite.Action)
	assert.Equal(t, "391 U.S. 563", failed.Citation.Normalized)

	s := report.Summary
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Errors)
	assert.Equal(t, 1, s.CacheHits)
	assert.Equal(t, 2, s.ByStatus[model.StatusVerified])
	assert.Equal(t, 1, s.ByStatus[model.StatusFlagged])
	assert.InDelta(t, 0.02, s.EstimatedCostUSD, 1e-9)
	assert.InDelta(t, (0.96+0.94)/3, s.AverageConfidence, 1e-9)
	assert.Equal(t, "motion to dismiss", report.MotionType)
	assert.True(t, Verifiable(report))
}

func TestVerifiable_AllFailed(t *testing.T) {
	results := []*worker.VerifyResult{
		{Error: errors.New("a")},
		{Error: errors.New("b")},
	}
	report := BuildReport(results, "", 0, time.Now())

	assert.False(t, Verifiable(report))
	assert.False(t, Verifiable(BuildReport(nil, "", 0, time.Now())))
}
