package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ppiankov/citecheck/internal/caselaw"
	"github.com/ppiankov/citecheck/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClient struct {
	mu       sync.Mutex
	handler  func(ctx context.Context, query string) ([]caselaw.SearchHit, error)
	queries  []string
	inFlight int32
	maxSeen  int32
	breaker  atomic.Bool
	people   map[string]caselaw.Person
	lookups  [][]string
}

func (f *fakeClient) SearchOpinions(ctx context.Context, query string, _ caselaw.SearchOptions) ([]caselaw.SearchHit, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}

	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.handler == nil {
		return nil, nil
	}
	return f.handler(ctx, query)
}

func (f *fakeClient) LookupPeople(_ context.Context, ids []string) ([]caselaw.Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, ids)
	var out []caselaw.Person
	for _, id := range ids {
		if p, ok := f.people[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeClient) BreakerOpen() bool { return f.breaker.Load() }

type sleepLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func hit(id int64, court string, filed string) caselaw.SearchHit {
	t, _ := time.Parse("2006-01-02", filed)
	return caselaw.SearchHit{
		ClusterID: id,
		CaseName:  "Case " + filed,
		CourtID:   court,
		DateFiled: caselaw.Date{Time: t},
	}
}

func testConfig() model.SearchConfig {
	return model.SearchConfig{
		BatchSize:         3,
		TaskTimeout:       time.Second,
		GlobalBudget:      5 * time.Second,
		InterBatchDelay:   1500 * time.Millisecond,
		MaxFailureRate:    0.5,
		MinForFailureRate: 10,
	}
}

func newTestOrchestrator(client *fakeClient, cfg model.SearchConfig) (*Orchestrator, *sleepLog) {
	o := NewOrchestrator(client, cfg, nil, nil)
	sl := &sleepLog{}
	o.sleep = sl.sleep
	return o, sl
}

func tasks(tiers ...int) []model.SearchTask {
	out := make([]model.SearchTask, len(tiers))
	for i, tier := range tiers {
		out[i] = model.SearchTask{ID: string(rune('a' + i)), Tier: tier, Query: string(rune('a' + i))}
	}
	return out
}

func TestRun_BatchesByTierWithDelay(t *testing.T) {
	client := &fakeClient{}
	var batchMu sync.Mutex
	var order []string
	client.handler = func(_ context.Context, q string) ([]caselaw.SearchHit, error) {
		batchMu.Lock()
		order = append(order, q)
		batchMu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return nil, nil
	}
	o, sl := newTestOrchestrator(client, testConfig())

	// Tiers out of order: c(1) a(2)... sorted stable by tier
	_, summary := o.Run(context.Background(), tasks(3, 1, 2, 1, 3))

	assert.Equal(t, 5, summary.Completed)
	assert.Equal(t, 2, summary.Batches)
	assert.Empty(t, summary.AbortReason)
	assert.False(t, summary.PartialResults)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, sl.delays)
	assert.LessOrEqual(t, atomic.LoadInt32(&client.maxSeen), int32(3))

	// First batch holds the tier 1 and 2 tasks, second the tier 3 ones
	require.Len(t, order, 5)
	assert.ElementsMatch(t, []string{"b", "d", "c"}, order[:3])
	assert.ElementsMatch(t, []string{"a", "e"}, order[3:])
}

func TestRun_DedupesAndSortsByAuthorityThenDate(t *testing.T) {
	client := &fakeClient{handler: func(_ context.Context, q string) ([]caselaw.SearchHit, error) {
		switch q {
		case "a":
			return []caselaw.SearchHit{hit(1, "cand", "2020-01-01"), hit(2, "ca9", "2010-01-01")}, nil
		case "b":
			return []caselaw.SearchHit{hit(2, "ca9", "2010-01-01"), hit(3, "ca9", "2018-01-01"), hit(4, "scotus", "1990-01-01")}, nil
		default:
			return []caselaw.SearchHit{hit(5, "xyz", "2024-01-01")}, nil
		}
	}}
	o, _ := newTestOrchestrator(client, testConfig())

	candidates, summary := o.Run(context.Background(), tasks(1, 1, 2))

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.SourceID
	}
	// supreme, appellate (newest first), trial, unknown
	assert.Equal(t, []string{"4", "3", "2", "1", "5"}, ids)
	assert.Equal(t, 5, summary.Candidates)
	assert.Equal(t, model.TierSupreme, candidates[0].Tier)
	assert.Equal(t, model.TierUnknown, candidates[4].Tier)
}

func TestRun_FailureRateAbort(t *testing.T) {
	client := &fakeClient{handler: func(_ context.Context, q string) ([]caselaw.SearchHit, error) {
		return nil, caselaw.ErrTransient
	}}
	cfg := testConfig()
	cfg.BatchSize = 2
	cfg.MinForFailureRate = 2
	o, _ := newTestOrchestrator(client, cfg)

	_, summary := o.Run(context.Background(), tasks(1, 1, 2, 2, 3))

	assert.Equal(t, AbortFailureRate, summary.AbortReason)
	assert.Equal(t, 1, summary.Batches)
	assert.Equal(t, 2, summary.Failed)
	assert.True(t, summary.PartialResults)
	assert.Len(t, client.queries, 2)
}

func TestRun_FailureRateNeedsMinimumSample(t *testing.T) {
	client := &fakeClient{handler: func(_ context.Context, q string) ([]caselaw.SearchHit, error) {
		return nil, errors.New("boom")
	}}
	o, _ := newTestOrchestrator(client, testConfig())

	_, summary := o.Run(context.Background(), tasks(1, 1, 1, 2, 2, 2))

	// Six failures never reach the ten-task minimum, so every batch runs
	assert.Empty(t, summary.AbortReason)
	assert.Equal(t, 6, summary.Failed)
	assert.True(t, summary.PartialResults)
}

func TestRun_BreakerOpenAbort(t *testing.T) {
	client := &fakeClient{}
	client.handler = func(_ context.Context, q string) ([]caselaw.SearchHit, error) {
		client.breaker.Store(true)
		return nil, caselaw.ErrCircuitOpen
	}
	o, _ := newTestOrchestrator(client, testConfig())

	_, summary := o.Run(context.Background(), tasks(1, 1, 1, 2, 2, 2))

	assert.Equal(t, AbortBreakerOpen, summary.AbortReason)
	assert.Equal(t, 1, summary.Batches)
}

func TestRun_GlobalBudgetReturnsPartialResults(t *testing.T) {
	client := &fakeClient{handler: func(ctx context.Context, q string) ([]caselaw.SearchHit, error) {
		if q == "a" {
			return []caselaw.SearchHit{hit(7, "cal", "2019-05-05")}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	cfg := testConfig()
	cfg.GlobalBudget = 50 * time.Millisecond
	o, _ := newTestOrchestrator(client, cfg)

	start := time.Now()
	candidates, summary := o.Run(context.Background(), tasks(1, 1, 1, 2, 2, 2))

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, AbortBudget, summary.AbortReason)
	assert.True(t, summary.PartialResults)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, candidates, 1)
	assert.Equal(t, "7", candidates[0].SourceID)
}

func TestRun_ParentCancelled(t *testing.T) {
	client := &fakeClient{}
	o, _ := newTestOrchestrator(client, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, summary := o.Run(ctx, tasks(1, 2))

	assert.Equal(t, AbortCancelled, summary.AbortReason)
	assert.Zero(t, summary.Batches)
	assert.Empty(t, client.queries)
}

func TestRun_EnrichesTopCandidateJudges(t *testing.T) {
	withAuthor := func(h caselaw.SearchHit, author int64) caselaw.SearchHit {
		h.Judge = "Smith"
		h.Opinions = []caselaw.OpinionSnippet{{ID: h.ClusterID * 10, AuthorID: author}}
		return h
	}
	client := &fakeClient{
		handler: func(_ context.Context, q string) ([]caselaw.SearchHit, error) {
			return []caselaw.SearchHit{
				withAuthor(hit(1, "scotus", "2000-01-01"), 11),
				withAuthor(hit(2, "ca9", "2000-01-01"), 22),
			}, nil
		},
		people: map[string]caselaw.Person{
			"11": {ID: 11, NameFirst: "Ruth", NameMiddle: "Bader", NameLast: "Ginsburg"},
			"22": {ID: 22, NameFirst: "Someone", NameLast: "Else"},
		},
	}
	cfg := testConfig()
	cfg.EnrichJudges = 1
	o, _ := newTestOrchestrator(client, cfg)

	candidates, _ := o.Run(context.Background(), tasks(1))

	require.Len(t, candidates, 2)
	assert.Equal(t, []string{"Ruth Bader Ginsburg"}, candidates[0].Judges)
	assert.Equal(t, []string{"Smith"}, candidates[1].Judges)
	assert.Equal(t, [][]string{{"11"}}, client.lookups)
}
