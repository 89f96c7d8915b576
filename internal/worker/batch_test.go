package worker

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

	"github.com/ppiankov/citecheck/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockVerifier records concurrency and fails or panics on demand
type mockVerifier struct {
	fail    map[int]bool
	panics  map[int]bool
	delay   time.Duration
	current int32
	max     int32
	mu      sync.Mutex
	order   []int
}

func (v *mockVerifier) Verify(ctx context.Context, req model.VerifyRequest) (*model.VerificationRun, error) {
	cur := atomic.AddInt32(&v.current, 1)
	defer atomic.AddInt32(&v.current, -1)
	for {
		old := atomic.LoadInt32(&v.max)
		if cur <= old || atomic.CompareAndSwapInt32(&v.max, old, cur) {
			break
		}
	}

	v.mu.Lock()
	v.order = append(v.order, req.Index)
	v.mu.Unlock()

	if v.delay > 0 {
		time.Sleep(v.delay)
	}
	if v.panics[req.Index] {
		panic("malformed upstream response")
	}
	if v.fail[req.Index] {
		return nil, errors.New("verification failed")
	}
	return &model.VerificationRun{ID: "run", Citation: req.Citation}, nil
}

func requests(n int) []model.VerifyRequest {
	reqs := make([]model.VerifyRequest, n)
	for i := range reqs {
		reqs[i] = model.VerifyRequest{Index: i, Citation: model.Citation{Raw: "410 U.S. 113"}}
	}
	return reqs
}

func TestBatchProcessor_ResultsInInputOrder(t *testing.T) {
	verifier := &mockVerifier{delay: 5 * time.Millisecond}
	processor := NewBatchProcessor(verifier, 3, nil)

	results := processor.Process(context.Background(), requests(7))

	require.Len(t, results, 7)
	for i, res := range results {
		assert.Equal(t, i, res.Request.Index)
		assert.NoError(t, res.Error)
		assert.NotNil(t, res.Run)
	}
}

func TestBatchProcessor_BoundedByChunk(t *testing.T) {
	verifier := &mockVerifier{delay: 20 * time.Millisecond}
	processor := NewBatchProcessor(verifier, 2, nil)

	processor.Process(context.Background(), requests(6))

	assert.LessOrEqual(t, atomic.LoadInt32(&verifier.max), int32(2))
}

func TestBatchProcessor_ChunksRunSequentially(t *testing.T) {
	verifier := &mockVerifier{delay: 10 * time.Millisecond}
	processor := NewBatchProcessor(verifier, 2, nil)

	processor.Process(context.Background(), requests(6))

	// Every citation of chunk k starts before any citation of chunk k+1
	verifier.mu.Lock()
	defer verifier.mu.Unlock()
	require.Len(t, verifier.order, 6)
	for pos, idx := range verifier.order {
		assert.Equal(t, pos/2, idx/2, "citation %d started out of chunk order", idx)
	}
}

func TestBatchProcessor_FailureIsolated(t *testing.T) {
	verifier := &mockVerifier{
		fail:   map[int]bool{1: true},
		panics: map[int]bool{3: true},
	}
	processor := NewBatchProcessor(verifier, 2, nil)

	results := processor.Process(context.Background(), requests(5))

	require.Len(t, results, 5)
	assert.Error(t, results[1].Error)
	assert.Error(t, results[3].Error)
	for _, i := range []int{0, 2, 4} {
		assert.NoError(t, results[i].Error)
		assert.NotNil(t, results[i].Run)
	}
	assert.Equal(t, 3, results[3].Request.Index)
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	verifier := &mockVerifier{}
	processor := NewBatchProcessor(verifier, 2, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := processor.Process(ctx, requests(3))

	require.Len(t, results, 3)
	for _, res := range results {
		assert.ErrorIs(t, res.Error, context.Canceled)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockVerifier{}, 0, nil)

	results := processor.Process(context.Background(), nil)

	assert.Empty(t, results)
	assert.Equal(t, 5, processor.concurrency)
}
