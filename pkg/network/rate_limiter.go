package network

import (
	"net"
	"sync"
	"time"
)

// RateLimiter admits at most maxRequests per window for each remote host,
// refilling tokens continuously.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	hosts       map[string]*hostBucket
	mu          sync.Mutex
	now         func() time.Time
	cleanupTick *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

type hostBucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		hosts:       make(map[string]*hostBucket),
		now:         time.Now,
		done:        make(chan struct{}),
	}

	rl.cleanupTick = time.NewTicker(window)
	go rl.cleanup()

	return rl
}

// hostOf strips the port from a remote address
func hostOf(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// Allow reports whether remoteAddr may connect now, consuming a token if so.
func (rl *RateLimiter) Allow(remoteAddr string) bool {
	host := hostOf(remoteAddr)
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.hosts[host]
	if !ok {
		b = &hostBucket{tokens: float64(rl.maxRequests), lastRefill: now}
		rl.hosts[host] = b
	}

	if elapsed := now.Sub(b.lastRefill); elapsed > 0 {
		b.tokens += float64(rl.maxRequests) * float64(elapsed) / float64(rl.window)
		if b.tokens > float64(rl.maxRequests) {
			b.tokens = float64(rl.maxRequests)
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Tracked returns the number of hosts with live buckets
func (rl *RateLimiter) Tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.hosts)
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.removeIdle()
		case <-rl.done:
			return
		}
	}
}

// removeIdle drops hosts not seen for two windows; their buckets would be
// full again anyway.
func (rl *RateLimiter) removeIdle() {
	cutoff := rl.now().Add(-2 * rl.window)

	rl.mu.Lock()
	for host, b := range rl.hosts {
		if b.lastRefill.Before(cutoff) {
			delete(rl.hosts, host)
		}
	}
	rl.mu.Unlock()
}

// Close stops the cleanup goroutine.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}
