package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateReset     = "X-RateLimit-Reset"
)

// RateLimiter tracks the call budget reported by GitHub and blocks callers
// until it is replenished. It is safe for concurrent use.
type RateLimiter struct {
	mu        sync.Mutex
	known     bool
	remaining int
	reset     time.Time

	pace  *rate.Limiter
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a rate limiter. A positive requestsPerSecond also
// paces requests locally, independent of the server-reported budget.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	l := &RateLimiter{
		now:   time.Now,
		sleep: sleepContext,
	}
	if requestsPerSecond > 0 {
		l.pace = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return l
}

// Wait blocks until a request may be issued: when the budget is exhausted it
// sleeps until the reported reset time.
func (l *RateLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	var wait time.Duration
	if l.known && l.remaining <= 0 {
		wait = l.reset.Sub(l.now())
		if wait < 0 {
			wait = 0
		}
	}
	l.mu.Unlock()

	if wait > 0 {
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}

	if l.pace != nil {
		return l.pace.Wait(ctx)
	}
	return nil
}

// Update records the budget from the rate limit headers of a response.
// Responses without those headers leave the state untouched.
func (l *RateLimiter) Update(header http.Header) {
	remaining, err := strconv.Atoi(header.Get(headerRateRemaining))
	if err != nil {
		return
	}
	reset, err := strconv.ParseInt(header.Get(headerRateReset), 10, 64)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.known = true
	l.remaining = remaining
	l.reset = time.Unix(reset, 0)
}

// State returns the last known budget; ok is false before the first update
func (l *RateLimiter) State() (remaining int, reset time.Time, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining, l.reset, l.known
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
