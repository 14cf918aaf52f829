package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestIntervalFirstRequestImmediate(t *testing.T) {
	limiter := NewInterval(time.Second)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected first request to pass immediately, waited %v", elapsed)
	}
}

func TestIntervalSpacesRequests(t *testing.T) {
	delay := 50 * time.Millisecond
	limiter := NewInterval(delay)

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < delay-5*time.Millisecond {
		t.Errorf("Expected at least %v between requests, waited %v", delay, elapsed)
	}
}

func TestIntervalContextCancellation(t *testing.T) {
	limiter := NewInterval(time.Minute)

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx)
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected prompt return on cancellation, waited %v", elapsed)
	}
}

func TestIntervalReset(t *testing.T) {
	limiter := NewInterval(time.Minute)

	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	limiter.Reset()

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected immediate pass after reset, waited %v", elapsed)
	}
}

func TestIntervalZeroDelay(t *testing.T) {
	limiter := NewInterval(0)

	for i := 0; i < 5; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
}
