package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWindowLimit(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Window: 15 * time.Minute, MaxAttempts: 5})
	defer limiter.Stop()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := limiter.Admit(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("admit error: %v", err)
		}
		if !ok {
			t.Fatalf("expected attempt %d to be admitted", i+1)
		}
	}
	ok, err := limiter.Admit(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("admit error: %v", err)
	}
	if ok {
		t.Fatalf("expected sixth attempt to be throttled")
	}
}

func TestWindowReset(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Window: 15 * time.Minute, MaxAttempts: 5})
	defer limiter.Stop()
	ctx := context.Background()

	current := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	for i := 0; i < 6; i++ {
		limiter.Admit(ctx, "10.0.0.2")
	}
	if ok, _ := limiter.Admit(ctx, "10.0.0.2"); ok {
		t.Fatalf("expected throttled inside window")
	}

	current = current.Add(16 * time.Minute)
	ok, err := limiter.Admit(ctx, "10.0.0.2")
	if err != nil {
		t.Fatalf("admit error: %v", err)
	}
	if !ok {
		t.Fatalf("expected admission after window elapsed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Window: 15 * time.Minute, MaxAttempts: 2})
	defer limiter.Stop()
	ctx := context.Background()

	limiter.Admit(ctx, "10.0.0.3")
	limiter.Admit(ctx, "10.0.0.3")
	if ok, _ := limiter.Admit(ctx, "10.0.0.3"); ok {
		t.Fatalf("expected first key throttled")
	}
	if ok, _ := limiter.Admit(ctx, "10.0.0.4"); !ok {
		t.Fatalf("expected other key unaffected")
	}
}
