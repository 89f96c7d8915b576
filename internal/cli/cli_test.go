package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/citecheck/internal/feed"
	"github.com/ppiankov/citecheck/internal/model"
)

func TestApplyEnvCredentials(t *testing.T) {
	env := map[string]string{
		"COURTLISTENER_API_TOKEN": "cl-token",
		"OPENAI_API_KEY":          "sk-openai",
		"ANTHROPIC_API_KEY":       "sk-ant",
		"OLLAMA_BASE_URL":         "http://gpu-box:11434",
	}
	getenv := func(k string) string { return env[k] }

	cfg := model.DefaultConfig()
	applyEnvCredentials(cfg, getenv)
	assert.Equal(t, "cl-token", cfg.CaseLaw.APIToken)
	assert.Equal(t, "sk-openai", cfg.LLM.Primary.APIKey)
	assert.Equal(t, "sk-ant", cfg.LLM.Adversarial.APIKey)

	cfg = model.DefaultConfig()
	cfg.CaseLaw.APIToken = "from-file"
	cfg.LLM.Adversarial = model.VendorConfig{Provider: "ollama"}
	applyEnvCredentials(cfg, getenv)
	assert.Equal(t, "from-file", cfg.CaseLaw.APIToken, "explicit config wins")
	assert.Equal(t, "http://gpu-box:11434", cfg.LLM.Adversarial.BaseURL)
	assert.Empty(t, cfg.LLM.Adversarial.APIKey)
}

func TestCredentialHint(t *testing.T) {
	err := credentialHint(model.ErrMissingCredentials)
	assert.ErrorIs(t, err, model.ErrMissingCredentials)
	assert.Contains(t, err.Error(), "COURTLISTENER_API_TOKEN")

	other := os.ErrNotExist
	assert.Equal(t, other, credentialHint(other))
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".citecheck")

	path, err := writeDefaultConfig(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "COURTLISTENER_API_TOKEN")

	var decoded model.Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, model.DefaultConfig().Search.BatchSize, decoded.Search.BatchSize)
	assert.Equal(t, "openai", decoded.LLM.Primary.Provider)

	_, err = writeDefaultConfig(dir)
	assert.Error(t, err, "existing config is never overwritten")
}

func TestBuildBank(t *testing.T) {
	set, err := feed.DecodeCandidates(bytes.NewBufferString(`{
		"query": "anti-SLAPP protected activity",
		"motion_type": "anti-SLAPP motion to strike",
		"jurisdiction": {"state": "ca", "forum": "state"},
		"statutes": ["425.16"],
		"candidates": [
			{"source_id": "2", "case_name": "Unrelated v. Matter", "snippet": "a dispute over a fence line"},
			{"source_id": "1", "case_name": "Baral v. Schnitt",
			 "text": "Section 425.16 anti-SLAPP special motion to strike. The defendant must show the claim arises from protected activity, then the plaintiff must show a probability of prevailing on the merits. The trial court granted the motion and the court of appeal affirmed."}
		]
	}`))
	require.NoError(t, err)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bank := buildBank(set, now)

	assert.Equal(t, now, bank.GeneratedAt)
	require.Len(t, append(bank.Accepted, bank.Rejected...), 2)
	for _, sc := range bank.Accepted {
		assert.GreaterOrEqual(t, sc.Score.Composite, 0.70)
	}
	for _, sc := range bank.Rejected {
		assert.Less(t, sc.Score.Composite, 0.70)
	}
	all := append(append([]model.ScoredCandidate{}, bank.Accepted...), bank.Rejected...)
	var first model.ScoredCandidate
	for _, sc := range all {
		if sc.Candidate.SourceID == "1" {
			first = sc
		}
	}
	for _, sc := range all {
		assert.LessOrEqual(t, sc.Score.Composite, first.Score.Composite)
	}
}

func TestStrengthCommand(t *testing.T) {
	defer func() { strengthInputs = model.StrengthInputs{} }()
	strengthInputs = model.StrengthInputs{AgeYears: 55, TotalCitations: 2400, Recent5Y: 140}

	var out bytes.Buffer
	strengthCmd.SetOut(&out)
	require.NoError(t, strengthCmd.RunE(strengthCmd, nil))
	assert.Contains(t, out.String(), "LANDMARK")
	assert.Contains(t, out.String(), "/100")

	strengthInputs = model.StrengthInputs{AgeYears: 5, TotalCitations: 3, Recent5Y: 9}
	assert.Error(t, strengthCmd.RunE(strengthCmd, nil))
}

func TestPrintRanked(t *testing.T) {
	var out bytes.Buffer
	printRanked(&out, nil, 5)
	assert.Contains(t, out.String(), "No candidates")

	out.Reset()
	ranked := []model.ScoredCandidate{
		{Candidate: model.Candidate{CaseName: "A v. B", Citation: "1 U.S. 1", CourtID: "scotus", DateFiled: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)},
			Score: model.ScoreBreakdown{Composite: 0.91, Passed: true}},
		{Candidate: model.Candidate{CaseName: "C v. D"}, Score: model.ScoreBreakdown{Composite: 0.2}},
	}
	printRanked(&out, ranked, 1)
	assert.Contains(t, out.String(), "✓ 0.91  A v. B, 1 U.S. 1 (scotus 1990)")
	assert.Contains(t, out.String(), "... 1 more")
	assert.NotContains(t, out.String(), "C v. D")
}
