package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/courts"
	"github.com/ppiankov/citecheck/internal/model"
)

const sampleFeed = `{
  "motion_type": "Motion for Summary Judgment",
  "jurisdiction": {"state": "ca", "forum": "Federal"},
  "citations": [
    {
      "raw": "Anderson v. Liberty Lobby, Inc., 477 U.S. 242, 248 (1986)",
      "context": "A fact is material if it might affect the outcome.",
      "proposition": "A fact is material if it might affect the outcome of the suit",
      "proposition_type": "primary_standard",
      "quote": "might affect the outcome of the suit under the governing law"
    },
    {
      "raw": "Celotex Corp. v. Catrett, 477 U. S. 317 (1986)",
      "proposition": "The moving party bears the initial burden"
    }
  ]
}`

func TestDecode(t *testing.T) {
	fd, err := Decode(strings.NewReader(sampleFeed))
	require.NoError(t, err)

	assert.Equal(t, "CA", fd.Jurisdiction.State)
	assert.Equal(t, model.ForumFederal, fd.Jurisdiction.Forum)

	reqs := fd.Requests()
	require.Len(t, reqs, 2)

	first := reqs[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "477 U.S. 242", first.Citation.Normalized)
	assert.Equal(t, "248", first.Citation.Parsed.Pinpoint)
	assert.Equal(t, "might affect the outcome of the suit under the governing law", first.Citation.Quote)
	assert.Equal(t, model.PropositionPrimaryStandard, first.Proposition.Type)
	assert.True(t, first.Proposition.IsHighStakes())
	assert.Equal(t, "Motion for Summary Judgment", first.MotionType)

	second := reqs[1]
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, "477 U.S. 317", second.Citation.Normalized)
	assert.Equal(t, model.PropositionSecondary, second.Proposition.Type, "unset type defaults to SECONDARY")
	assert.Equal(t, 2, fd.Distinct())
}

func TestDecode_Rejects(t *testing.T) {
	tests := map[string]string{
		"empty":         `{"motion_type": "x", "citations": []}`,
		"missing raw":   `{"citations": [{"raw": "  ", "proposition": "p"}]}`,
		"unknown field": `{"citations": [{"raw": "410 U.S. 113", "propositon": "typo"}]}`,
		"not json":      `citations:`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}

	_, err := Decode(strings.NewReader(`{"citations": []}`))
	assert.ErrorIs(t, err, ErrEmptyFeed)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleFeed), 0o600))

	fd, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, fd.Citations, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDecodeSearch(t *testing.T) {
	req, err := DecodeSearch(strings.NewReader(`{
		"query": " anti-SLAPP protected activity ",
		"motion_type": "anti-SLAPP motion",
		"jurisdiction": {"state": "ca", "forum": "state"},
		"statutes": ["Cal. Civ. Proc. Code § 425.16"]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "anti-SLAPP protected activity", req.Query)
	assert.Equal(t, "CA", req.Jurisdiction.State)

	asOf := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	sc := req.ScoringContext(asOf, courts.Default())
	assert.Equal(t, req.Query, sc.Proposition, "query stands in for a missing proposition")
	assert.Equal(t, asOf, sc.AsOf)
	assert.NotNil(t, sc.Courts)

	assert.Nil(t, req.ScoringContext(asOf, nil).Courts)

	_, err = DecodeSearch(strings.NewReader(`{"query": ""}`))
	assert.Error(t, err)
}

func TestDecodeCandidates(t *testing.T) {
	set, err := DecodeCandidates(strings.NewReader(`{
		"motion_type": "motion to dismiss",
		"candidates": [{"source_id": "1", "case_name": "Ashcroft v. Iqbal", "court_id": "scotus"}]
	}`))
	require.NoError(t, err)
	require.Len(t, set.Candidates, 1)
	assert.Equal(t, "Ashcroft v. Iqbal", set.Candidates[0].CaseName)
	assert.Equal(t, "motion to dismiss", set.MotionType)

	_, err = DecodeCandidates(strings.NewReader(`{"candidates": []}`))
	assert.Error(t, err)
}
