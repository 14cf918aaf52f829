package retry

import (
	"context"
	"testing"
	"time"
)

func TestConstantBackoff(t *testing.T) {
	backoff := &ConstantBackoff{Delay: 5 * time.Second}

	if got := backoff.NextDelay(0); got != 0 {
		t.Errorf("Expected zero delay for attempt 0, got %v", got)
	}
	for attempt := 1; attempt <= 5; attempt++ {
		if got := backoff.NextDelay(attempt); got != 5*time.Second {
			t.Errorf("Expected constant 5s for attempt %d, got %v", attempt, got)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second}, // Capped
		{10, time.Second},
	}

	for _, tt := range tests {
		if got := backoff.NextDelay(tt.attempt); got != tt.want {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := DefaultExponentialBackoff()

	for i := 0; i < 100; i++ {
		delay := backoff.NextDelay(3)
		// Base 1s, multiplier 2, attempt 3 -> 4s with 10% jitter
		if delay < 3600*time.Millisecond || delay > 4400*time.Millisecond {
			t.Fatalf("Delay %v outside jitter bounds", delay)
		}
	}
}

func TestWait(t *testing.T) {
	t.Run("zero delay returns immediately", func(t *testing.T) {
		if err := Wait(context.Background(), 0); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	})

	t.Run("waits the full delay", func(t *testing.T) {
		start := time.Now()
		if err := Wait(context.Background(), 30*time.Millisecond); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
			t.Errorf("Expected ~30ms wait, got %v", elapsed)
		}
	})

	t.Run("cancellation interrupts the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := Wait(ctx, time.Minute)
		if err == nil {
			t.Fatal("Expected cancellation error")
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("Expected prompt return, waited %v", elapsed)
		}
	})
}
