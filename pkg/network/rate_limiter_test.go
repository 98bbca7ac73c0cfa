package network

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(maxRequests int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	rl := NewRateLimiter(maxRequests, window)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, _ := newTestLimiter(5, time.Minute)
	defer rl.Close()

	for i := 0; i < 5; i++ {
		if !rl.Allow("10.0.0.1:5000") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if rl.Allow("10.0.0.1:5000") {
		t.Error("6th request should be denied")
	}

	// same host on a new port shares the bucket
	if rl.Allow("10.0.0.1:5001") {
		t.Error("New port on the same host should be denied")
	}

	if !rl.Allow("10.0.0.2:5000") {
		t.Error("Different host should be allowed")
	}
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Second)
	defer rl.Close()

	rl.Allow("host")
	rl.Allow("host")
	if rl.Allow("host") {
		t.Error("Request should be denied after consuming all tokens")
	}

	clock.advance(400 * time.Millisecond)
	if rl.Allow("host") {
		t.Error("Less than one token refilled, request should be denied")
	}

	clock.advance(200 * time.Millisecond)
	if !rl.Allow("host") {
		t.Error("Request should be allowed after a token refilled")
	}

	clock.advance(time.Hour)
	for i := 0; i < 2; i++ {
		if !rl.Allow("host") {
			t.Errorf("Refill is capped at the maximum; request %d should be allowed", i+1)
		}
	}
	if rl.Allow("host") {
		t.Error("Bucket must not hold more than the maximum")
	}
}

func TestRateLimiter_RemoveIdle(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Second)
	defer rl.Close()

	rl.Allow("a")
	clock.advance(1500 * time.Millisecond)
	rl.Allow("b")
	clock.advance(time.Second)

	rl.removeIdle()
	if rl.Tracked() != 1 {
		t.Errorf("Expected only the recent host to remain, got %d", rl.Tracked())
	}
}

func TestRateLimiter_CloseTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Second)
	rl.Close()
	rl.Close()
}
