package ipc

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Second)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Errorf("attempt %d should be allowed", i+1)
		}
	}
	if rl.Allow() {
		t.Error("4th attempt should be rejected")
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Second)

	rl.Allow()
	clock.advance(600 * time.Millisecond)
	rl.Allow()
	if rl.Allow() {
		t.Fatal("third attempt inside the window should be rejected")
	}

	// Only the first attempt has left the window.
	clock.advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Fatal("attempt after the oldest expired should be allowed")
	}
	if rl.Allow() {
		t.Fatal("window is full again")
	}
}

func TestRateLimiterRejectedAttemptsNotRecorded(t *testing.T) {
	rl, clock := newTestLimiter(1, time.Second)

	rl.Allow()
	for i := 0; i < 5; i++ {
		clock.advance(100 * time.Millisecond)
		rl.Allow()
	}
	clock.advance(500 * time.Millisecond)
	if !rl.Allow() {
		t.Fatal("rejected attempts must not extend the window")
	}
}

func TestRateLimiterReset(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)

	if !rl.Allow() {
		t.Error("first should be allowed")
	}
	if rl.Allow() {
		t.Error("second should be rejected")
	}

	rl.Reset()

	if !rl.Allow() {
		t.Error("should be allowed after reset")
	}
}
