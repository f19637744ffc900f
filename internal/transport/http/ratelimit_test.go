package http

import (
	"testing"
	"time"
)

func TestRateLimiterDisabledByZeroLimit(t *testing.T) {
	limiter := newRateLimiter(0)

	for i := 0; i < 100; i++ {
		if !limiter.allow() {
			t.Fatalf("publish %d denied with limit disabled", i)
		}
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := newRateLimiter(2)
	limiter.now = func() time.Time { return clock }

	if !limiter.allow() || !limiter.allow() {
		t.Fatal("publishes within limit denied")
	}
	if limiter.allow() {
		t.Fatal("publish over limit allowed")
	}

	clock = clock.Add(time.Minute)
	if !limiter.allow() {
		t.Fatal("publish denied after the window rolled over")
	}
}
