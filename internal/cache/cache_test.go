package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/citecheck/internal/model"
)

func TestKey_IgnoresPropositionCaseAndSpacing(t *testing.T) {
	a := Key("410 U.S. 113", "The right  to privacy\nextends to abortion")
	b := Key("410 U.S. 113", "the right to privacy extends to ABORTION ")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Key("505 U.S. 833", "the right to privacy extends to abortion"))
	assert.Contains(t, a, "citecheck:v1:")
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Hour, time.Minute)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)

	run := &model.VerificationRun{ID: "r1"}
	c.Set(ctx, "k", run)
	got, found := c.Get(ctx, "k")
	require.True(t, found)
	assert.Same(t, run, got)
	assert.Equal(t, 1, c.Len())

	c.Delete("k")
	_, found = c.Get(ctx, "k")
	assert.False(t, found)
}

type fakeSource struct {
	runs  map[string]*model.VerificationRun
	err   error
	calls int
}

func (f *fakeSource) LatestRun(_ context.Context, key string) (*model.VerificationRun, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.runs[key], nil
}

func TestRepositoryCache_Expiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{runs: map[string]*model.VerificationRun{
		"fresh": {ID: "a", CompletedAt: now.Add(-24 * time.Hour)},
		"stale": {ID: "b", CompletedAt: now.Add(-31 * 24 * time.Hour)},
	}}
	c := NewRepositoryCache(src, 30*24*time.Hour, nil)
	c.now = func() time.Time { return now }

	run, found := c.Get(context.Background(), "fresh")
	require.True(t, found)
	assert.Equal(t, "a", run.ID)

	_, found = c.Get(context.Background(), "stale")
	assert.False(t, found)

	_, found = c.Get(context.Background(), "missing")
	assert.False(t, found)
}

func TestRepositoryCache_ErrorIsMiss(t *testing.T) {
	c := NewRepositoryCache(&fakeSource{err: errors.New("disk gone")}, time.Hour, nil)
	_, found := c.Get(context.Background(), "k")
	assert.False(t, found)
}

func TestLayeredCache_PromotesRepositoryHits(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{runs: map[string]*model.VerificationRun{
		"k": {ID: "persisted", CompletedAt: time.Now()},
	}}
	c := NewLayeredCache(time.Hour, src, time.Hour, nil)

	run, found := c.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "persisted", run.ID)
	assert.Equal(t, 1, src.calls)

	// Second read is served from memory
	_, found = c.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, 1, src.calls)
}

func TestLayeredCache_MemoryOnly(t *testing.T) {
	ctx := context.Background()
	c := NewLayeredCache(time.Hour, nil, 0, nil)

	_, found := c.Get(ctx, "k")
	assert.False(t, found)

	c.Set(ctx, "k", &model.VerificationRun{ID: "r"})
	run, found := c.Get(ctx, "k")
	require.True(t, found)
	assert.Equal(t, "r", run.ID)
}
