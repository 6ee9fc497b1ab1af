package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("fourth attempt should be limited")
	}
}

func TestKeysAreIsolated(t *testing.T) {
	l := New(1, time.Minute)
	if !l.Allow("a") {
		t.Fatal("first attempt for a should pass")
	}
	if !l.Allow("b") {
		t.Fatal("b must not be affected by a's attempts")
	}
}

func TestWindowExpiry(t *testing.T) {
	l := New(1, time.Minute)
	current := time.Now()
	l.now = func() time.Time { return current }

	if !l.Allow("x") {
		t.Fatal("first attempt should pass")
	}
	if l.Allow("x") {
		t.Fatal("second attempt inside window should be limited")
	}
	current = current.Add(61 * time.Second)
	if !l.Allow("x") {
		t.Fatal("attempt after window expiry should pass")
	}
}

func TestIdleKeysAreSweptAfterWindow(t *testing.T) {
	l := New(3, time.Minute)
	current := time.Now()
	l.now = func() time.Time { return current }

	for i := 0; i < 50; i++ {
		l.Allow(string(rune('a' + i%26)))
	}
	if len(l.attempts) == 0 {
		t.Fatal("expected entries for active keys")
	}
	current = current.Add(2 * time.Minute)
	l.Allow("fresh")
	if got := len(l.attempts); got != 1 {
		t.Fatalf("idle keys should be evicted after the window, %d entries remain", got)
	}
}

func TestReset(t *testing.T) {
	l := New(1, time.Minute)
	l.Allow("x")
	l.Reset("x")
	if !l.Allow("x") {
		t.Fatal("reset should clear the counter")
	}
}
