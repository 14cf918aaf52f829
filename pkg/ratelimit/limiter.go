package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for pacing outbound requests
type Limiter interface {
	// Wait blocks until the limiter allows the next request, or the
	// context is cancelled.
	Wait(ctx context.Context) error
	// Reset resets the limiter state
	Reset()
}

// Interval enforces a fixed minimum delay between consecutive requests.
// The fetch loop uses it as a courtesy rate limit against the cloud endpoint.
type Interval struct {
	delay time.Duration
	last  time.Time
	mu    sync.Mutex
}

// NewInterval creates a limiter that spaces requests at least delay apart
func NewInterval(delay time.Duration) *Interval {
	return &Interval{delay: delay}
}

// Wait blocks until at least the configured delay has passed since the
// previous request, or until the context is cancelled.
func (i *Interval) Wait(ctx context.Context) error {
	i.mu.Lock()
	now := time.Now()
	var sleep time.Duration
	if !i.last.IsZero() {
		if elapsed := now.Sub(i.last); elapsed < i.delay {
			sleep = i.delay - elapsed
		}
	}
	i.last = now.Add(sleep)
	i.mu.Unlock()

	if sleep <= 0 {
		return nil
	}

	timer := time.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset clears the pacing state
func (i *Interval) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.last = time.Time{}
}
