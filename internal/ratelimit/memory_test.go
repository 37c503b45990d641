package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterAllowsUnderBudget(t *testing.T) {
	limiter := NewMemoryLimiter()
	policy := Policy{MaxRequests: 3, Window: time.Minute}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if remaining, _ := limiter.Timeout(ctx, "key", policy, now); remaining != 0 {
			t.Fatalf("throttled after %d requests", i)
		}
		if errRecord := limiter.Record(ctx, "key", policy, now); errRecord != nil {
			t.Fatalf("Record returned error: %v", errRecord)
		}
	}
	if remaining, _ := limiter.Timeout(ctx, "key", policy, now); remaining != 0 {
		t.Fatal("throttled below the budget")
	}
}

func TestMemoryLimiterThrottlesAtBudget(t *testing.T) {
	limiter := NewMemoryLimiter()
	policy := Policy{MaxRequests: 2, Window: time.Minute}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = limiter.Record(ctx, "key", policy, now)
	}
	remaining, _ := limiter.Timeout(ctx, "key", policy, now)
	if remaining != time.Minute {
		t.Fatalf("remaining = %v, want 1m", remaining)
	}

	// Other keys are unaffected.
	if other, _ := limiter.Timeout(ctx, "other", policy, now); other != 0 {
		t.Fatal("unrelated key throttled")
	}
}

func TestMemoryLimiterWindowLapses(t *testing.T) {
	limiter := NewMemoryLimiter()
	policy := Policy{MaxRequests: 1, Window: time.Minute}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_ = limiter.Record(ctx, "key", policy, now)
	if remaining, _ := limiter.Timeout(ctx, "key", policy, now); remaining == 0 {
		t.Fatal("expected throttle at the budget")
	}
	later := now.Add(time.Minute + time.Second)
	if remaining, _ := limiter.Timeout(ctx, "key", policy, later); remaining != 0 {
		t.Fatalf("still throttled after the window: %v", remaining)
	}
}

func TestMemoryLimiterPreserveRateExtendsWindowOnCheck(t *testing.T) {
	limiter := NewMemoryLimiter()
	policy := Policy{MaxRequests: 1, Window: time.Minute, PreserveRate: true}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_ = limiter.Record(ctx, "key", policy, now)

	// Checking a throttled key 50s in restarts the window from that moment.
	halfway := now.Add(50 * time.Second)
	if remaining, _ := limiter.Timeout(ctx, "key", policy, halfway); remaining != time.Minute {
		t.Fatalf("remaining = %v, want the full window", remaining)
	}
	afterOriginalWindow := now.Add(time.Minute + time.Second)
	if remaining, _ := limiter.Timeout(ctx, "key", policy, afterOriginalWindow); remaining == 0 {
		t.Fatal("window was not extended by the excess check")
	}
	// Two checks have extended the window by now; a quiet period clears it.
	afterQuietPeriod := afterOriginalWindow.Add(time.Minute + time.Second)
	if remaining, _ := limiter.Timeout(ctx, "key", policy, afterQuietPeriod); remaining != 0 {
		t.Fatalf("still throttled after a quiet window: %v", remaining)
	}
}

func TestMemoryLimiterWithoutPreserveRateDoesNotExtend(t *testing.T) {
	limiter := NewMemoryLimiter()
	policy := Policy{MaxRequests: 1, Window: time.Minute}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	_ = limiter.Record(ctx, "key", policy, now)
	halfway := now.Add(50 * time.Second)
	if remaining, _ := limiter.Timeout(ctx, "key", policy, halfway); remaining != 10*time.Second {
		t.Fatalf("remaining = %v, want 10s", remaining)
	}
	afterWindow := now.Add(time.Minute + time.Second)
	if remaining, _ := limiter.Timeout(ctx, "key", policy, afterWindow); remaining != 0 {
		t.Fatalf("window extended without preserve-rate: %v", remaining)
	}
}

func TestKeySeparatesRoutesAndClients(t *testing.T) {
	if Key("/api/a", "10.0.0.1") == Key("/api/b", "10.0.0.1") {
		t.Fatal("different routes share a key")
	}
	if Key("/api/a", "10.0.0.1") == Key("/api/a", "10.0.0.2") {
		t.Fatal("different clients share a key")
	}
}
