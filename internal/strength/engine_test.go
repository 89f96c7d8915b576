package strength

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/model"
)

type fakeCounter struct {
	total, recent, distinguished, criticism int
	err                                     error
	calls                                   int
}

func (f *fakeCounter) CountCiting(_ context.Context, clusterID, terms string, opts caselaw.SearchOptions) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	switch {
	case terms == distinguishTerms:
		return f.distinguished, nil
	case terms == criticismTerms:
		return f.criticism, nil
	case !opts.FiledAfter.IsZero():
		return f.recent, nil
	default:
		return f.total, nil
	}
}

type memCache struct {
	entries map[string]model.StrengthAssessment
	puts    int
}

func (m *memCache) GetStrength(_ context.Context, normalized string) (*model.StrengthAssessment, error) {
	a, ok := m.entries[normalized]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memCache) PutStrength(_ context.Context, normalized string, a model.StrengthAssessment) error {
	m.entries[normalized] = a
	m.puts++
	return nil
}

func newTestEngine(counter *fakeCounter, cache *memCache, now time.Time) *Engine {
	var c Cache
	if cache != nil {
		c = cache
	}
	e := NewEngine(counter, c, 24*time.Hour, nil)
	e.now = func() time.Time { return now }
	return e
}

func TestEngine_GatherAndAssess(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	counter := &fakeCounter{total: 600, recent: 15}
	cache := &memCache{entries: map[string]model.StrengthAssessment{}}
	e := newTestEngine(counter, cache, now)

	decided := time.Date(1990, 1, 22, 0, 0, 0, 0, time.UTC)
	a, err := e.Assess(context.Background(), "493 U.S. 1", "12345", decided)
	require.NoError(t, err)

	assert.Equal(t, model.StabilityLandmark, a.Stability)
	assert.Equal(t, 36, a.Inputs.AgeYears)
	assert.Equal(t, 4, counter.calls)
	assert.Equal(t, 1, cache.puts)
}

func TestEngine_UsesFreshCache(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	counter := &fakeCounter{}
	cache := &memCache{entries: map[string]model.StrengthAssessment{
		"1 U.S. 1": {Stability: model.StabilityRecent, Score: 55, AssessedAt: now.Add(-time.Hour)},
	}}
	e := newTestEngine(counter, cache, now)

	a, err := e.Assess(context.Background(), "1 U.S. 1", "1", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 55, a.Score)
	assert.Zero(t, counter.calls)
}

func TestEngine_RefreshesStaleCache(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	counter := &fakeCounter{total: 10}
	cache := &memCache{entries: map[string]model.StrengthAssessment{
		"1 U.S. 1": {Score: 99, AssessedAt: now.Add(-48 * time.Hour)},
	}}
	e := newTestEngine(counter, cache, now)

	a, err := e.Assess(context.Background(), "1 U.S. 1", "1", now.AddDate(-2, 0, 0))
	require.NoError(t, err)
	assert.NotEqual(t, 99, a.Score)
	assert.Equal(t, 4, counter.calls)
}

func TestEngine_CounterError(t *testing.T) {
	counter := &fakeCounter{err: caselaw.ErrCircuitOpen}
	e := newTestEngine(counter, nil, time.Now())

	_, err := e.Assess(context.Background(), "x", "1", time.Time{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, caselaw.ErrCircuitOpen))
}

func TestEngine_NoCluster(t *testing.T) {
	e := newTestEngine(&fakeCounter{}, nil, time.Now())
	_, err := e.Gather(context.Background(), "", time.Time{})
	assert.Error(t, err)
}

func TestAgeYears(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 53, ageYears(time.Date(1973, 1, 22, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 52, ageYears(time.Date(1973, 6, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 0, ageYears(time.Time{}, now))
}
