package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	l := NewLimiter(10, 5)

	for i := 0; i < 5; i++ {
		if !l.Allow() {
			t.Fatalf("Request %d within burst should be allowed", i)
		}
	}
	if l.Allow() {
		t.Error("Request beyond burst should be denied")
	}
}

func TestTokensRefillOverTime(t *testing.T) {
	l := NewLimiter(100, 1)

	if !l.Allow() {
		t.Fatal("First request should be allowed")
	}
	if l.Allow() {
		t.Fatal("Bucket should be empty")
	}

	time.Sleep(20 * time.Millisecond)
	if !l.Allow() {
		t.Error("Tokens should refill after waiting")
	}
}

func TestTokensCapAtBurst(t *testing.T) {
	l := NewLimiter(1000, 3)
	time.Sleep(20 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Errorf("Expected exactly burst (3) allowed, got %d", allowed)
	}
}
