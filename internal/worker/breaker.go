package worker

import (
	"sync"
	"time"

	"github.com/ppiankov/citecheck/internal/model"
)

// BreakerState is the state of a circuit breaker
type BreakerState int

const (
	BreakerClosed   BreakerState = iota // Requests flow normally
	BreakerOpen                         // Requests fail fast
	BreakerHalfOpen                     // A single trial call is in flight
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calls to a failing upstream. It opens after
// threshold consecutive failures, rejects calls while open, and after the
// open period admits exactly one trial call whose outcome closes or
// reopens it.
type CircuitBreaker struct {
	threshold int
	openFor   time.Duration

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	epoch    uint64 // Bumped on every transition to open
	trial    uint64 // Ticket id of the admitted half-open call, 0 if none
	issued   uint64

	now           func() time.Time
	onStateChange func(from, to BreakerState)
}

// Ticket identifies one call admitted by Allow. Outcomes are reported
// against it so calls admitted under an earlier state cannot move the
// breaker after it has opened.
type Ticket struct {
	id    uint64
	epoch uint64
}

// BreakerStats is a snapshot of breaker state
type BreakerStats struct {
	State               BreakerState
	ConsecutiveFailures int
	OpenedAt            time.Time
}

// NewCircuitBreaker creates a closed breaker from configuration
func NewCircuitBreaker(cfg model.BreakerConfig) *CircuitBreaker {
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 3
	}
	openFor := cfg.OpenDuration
	if openFor <= 0 {
		openFor = 30 * time.Second
	}

	return &CircuitBreaker{
		threshold: threshold,
		openFor:   openFor,
		state:     BreakerClosed,
		now:       time.Now,
	}
}

// OnStateChange registers a hook called on every transition, under the breaker lock
func (b *CircuitBreaker) OnStateChange(fn func(from, to BreakerState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onStateChange = fn
}

// Allow reports whether a call may proceed. Callers that are admitted must
// report the outcome with RecordSuccess, RecordFailure or Release.
func (b *CircuitBreaker) Allow() (Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		return b.issue(), true
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.openFor {
			return Ticket{}, false
		}
		b.transition(BreakerHalfOpen)
		t := b.issue()
		b.trial = t.id
		return t, true
	case BreakerHalfOpen:
		if b.trial != 0 {
			return Ticket{}, false
		}
		t := b.issue()
		b.trial = t.id
		return t, true
	default:
		return Ticket{}, false
	}
}

// RecordSuccess records a successful call
func (b *CircuitBreaker) RecordSuccess(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		if t.epoch == b.epoch {
			b.failures = 0
		}
	case BreakerHalfOpen:
		if t.id == b.trial {
			b.trial = 0
			b.transition(BreakerClosed)
		}
	}
}

// RecordFailure records a failed call
func (b *CircuitBreaker) RecordFailure(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		if t.epoch != b.epoch {
			return
		}
		b.failures++
		if b.failures >= b.threshold {
			b.open()
		}
	case BreakerHalfOpen:
		if t.id == b.trial {
			b.trial = 0
			b.open()
		}
	}
}

// Release gives back a half-open slot taken by Allow when the call was
// abandoned before reaching the upstream. It records no outcome.
func (b *CircuitBreaker) Release(t Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen && t.id == b.trial {
		b.trial = 0
	}
}

// IsOpen reports whether calls are currently being rejected
func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		return b.now().Sub(b.openedAt) < b.openFor
	case BreakerHalfOpen:
		return b.trial != 0
	default:
		return false
	}
}

// State returns the current state
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker
func (b *CircuitBreaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerStats{
		State:               b.state,
		ConsecutiveFailures: b.failures,
		OpenedAt:            b.openedAt,
	}
}

func (b *CircuitBreaker) issue() Ticket {
	b.issued++
	return Ticket{id: b.issued, epoch: b.epoch}
}

func (b *CircuitBreaker) open() {
	b.epoch++
	b.openedAt = b.now()
	b.transition(BreakerOpen)
}

func (b *CircuitBreaker) transition(to BreakerState) {
	from := b.state
	b.state = to
	if to == BreakerClosed {
		b.failures = 0
	}
	if from != to && b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
