package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/citecheck/internal/model"
)

// TokenBucket is a token bucket that reports how long a caller must wait
// instead of blocking. Reservations are taken at an explicit instant so the
// bucket can be driven by a fake clock.
type TokenBucket struct {
	limiter *rate.Limiter
	now     func() time.Time
}

// NewTokenBucket creates a full bucket holding capacity tokens, refilled at refillPerSec
func NewTokenBucket(capacity int, refillPerSec float64) *TokenBucket {
	if capacity <= 0 {
		capacity = 10
	}
	if refillPerSec <= 0 {
		refillPerSec = 1
	}

	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Limit(refillPerSec), capacity),
		now:     time.Now,
	}
}

// Acquire takes one token now and returns the wait before it may be used
func (b *TokenBucket) Acquire() time.Duration {
	return b.AcquireAt(b.now())
}

// AcquireAt takes one token at instant t and returns the wait from t
func (b *TokenBucket) AcquireAt(t time.Time) time.Duration {
	wait, _ := b.reserveAt(t)
	return wait
}

// reserveAt takes one token at instant t. The reservation is nil when the
// bucket refused it, which only a zero burst can cause.
func (b *TokenBucket) reserveAt(t time.Time) (time.Duration, *rate.Reservation) {
	r := b.limiter.ReserveN(t, 1)
	if !r.OK() {
		return 0, nil
	}
	return r.DelayFrom(t), r
}

// Limiter enforces the shared request budget: a token bucket plus a
// minimum spacing between dispatched requests. One instance is shared by
// every caller of the case-law API.
type Limiter struct {
	bucket  *TokenBucket
	spacing time.Duration

	mu       sync.Mutex
	nextSlot time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter from the rate-limit configuration
func NewLimiter(cfg model.RateLimitConfig) *Limiter {
	return &Limiter{
		bucket:  NewTokenBucket(cfg.Capacity, cfg.RefillPerSec),
		spacing: cfg.MinSpacing,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Reserve books the next dispatch slot and returns the wait before it
func (l *Limiter) Reserve() time.Duration {
	return l.ReserveAt(l.now())
}

// ReserveAt books the next dispatch slot as of instant t
func (l *Limiter) ReserveAt(t time.Time) time.Duration {
	return l.book(t).wait
}

// booking is one reserved dispatch slot, kept so an abandoned wait can
// hand its token and slot back
type booking struct {
	wait     time.Duration
	token    *rate.Reservation
	prevSlot time.Time
	slot     time.Time
}

func (l *Limiter) book(t time.Time) booking {
	l.mu.Lock()
	defer l.mu.Unlock()

	wait, token := l.bucket.reserveAt(t)
	dispatch := t.Add(wait)
	if dispatch.Before(l.nextSlot) {
		dispatch = l.nextSlot
	}
	b := booking{wait: dispatch.Sub(t), token: token, prevSlot: l.nextSlot, slot: dispatch.Add(l.spacing)}
	l.nextSlot = b.slot
	return b
}

// release returns an unused booking. The spacing slot is only rolled back
// when no later caller has booked behind it.
func (l *Limiter) release(b booking, t time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b.token != nil {
		b.token.CancelAt(t)
	}
	if l.nextSlot.Equal(b.slot) {
		l.nextSlot = b.prevSlot
	}
}

// Wait blocks until the caller may dispatch one request. A caller whose
// context ends first gives its token and slot back.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := l.book(l.now())
	if err := l.sleep(ctx, b.wait); err != nil {
		l.release(b, l.now())
		return err
	}
	return nil
}

// sleepContext sleeps for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sleep sleeps for d unless ctx is cancelled first
func Sleep(ctx context.Context, d time.Duration) error {
	return sleepContext(ctx, d)
}
