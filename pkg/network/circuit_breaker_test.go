package network

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-blackhole/pkg/config"
)

func breakerConfig(maxRequests, failures uint32, timeout time.Duration) config.BreakerConfig {
	return config.BreakerConfig{
		MaxRequests:         maxRequests,
		Interval:            60 * time.Second,
		Timeout:             timeout,
		ConsecutiveFailures: failures,
		Retries:             3,
		RetryDelay:          10 * time.Millisecond,
	}
}

// TestNetworkService_Execute tests basic circuit breaker execution
func TestNetworkService_Execute(t *testing.T) {
	ns := NewNetworkService(breakerConfig(3, 5, 30*time.Second), nil)
	ctx := context.Background()

	t.Run("successful operation", func(t *testing.T) {
		err := ns.Execute(ctx, func() error {
			return nil
		})
		if err != nil {
			t.Errorf("Expected nil error, got %v", err)
		}

		if ns.GetState() != gobreaker.StateClosed {
			t.Errorf("Expected circuit breaker to be closed, got %v", ns.GetState())
		}
	})

	t.Run("failed operation", func(t *testing.T) {
		testError := errors.New("test error")
		err := ns.Execute(ctx, func() error {
			return testError
		})

		if !errors.Is(err, testError) {
			t.Errorf("Expected wrapped test error, got %v", err)
		}

		// one failure is below the threshold
		if ns.GetState() != gobreaker.StateClosed {
			t.Errorf("Expected circuit breaker to be closed after one failure, got %v", ns.GetState())
		}
	})
}

// TestNetworkService_CircuitBreakerTrip tests that the circuit breaker trips after consecutive failures
func TestNetworkService_CircuitBreakerTrip(t *testing.T) {
	ns := NewNetworkService(breakerConfig(3, 3, time.Second), nil)
	ctx := context.Background()
	testError := errors.New("test failure")

	for i := 0; i < 3; i++ {
		err := ns.Execute(ctx, func() error {
			return testError
		})
		if err == nil {
			t.Errorf("Expected error on attempt %d, got nil", i+1)
		}
	}

	if ns.GetState() != gobreaker.StateOpen {
		t.Errorf("Expected circuit breaker to be open after failures, got %v", ns.GetState())
	}

	err := ns.Execute(ctx, func() error {
		t.Error("Operation should not be called when circuit is open")
		return nil
	})

	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Expected open state error, got %v", err)
	}
}

// TestNetworkService_CircuitBreakerRecovery tests circuit breaker recovery
func TestNetworkService_CircuitBreakerRecovery(t *testing.T) {
	ns := NewNetworkService(breakerConfig(2, 2, 100*time.Millisecond), nil)
	ctx := context.Background()
	testError := errors.New("test failure")

	for i := 0; i < 2; i++ {
		ns.Execute(ctx, func() error { return testError })
	}

	if ns.GetState() != gobreaker.StateOpen {
		t.Errorf("Expected circuit breaker to be open, got %v", ns.GetState())
	}

	time.Sleep(150 * time.Millisecond)

	err := ns.Execute(ctx, func() error {
		return nil
	})
	if err != nil {
		t.Errorf("Expected successful operation, got error: %v", err)
	}

	// half-open needs MaxRequests successes before it closes
	state := ns.GetState()
	if state != gobreaker.StateClosed && state != gobreaker.StateHalfOpen {
		t.Errorf("Expected circuit breaker to be closed or half-open after recovery, got %v", state)
	}
}

// TestNetworkService_ExecuteWithRetry tests retry logic with backoff
func TestNetworkService_ExecuteWithRetry(t *testing.T) {
	ns := NewNetworkService(breakerConfig(3, 10, 30*time.Second), nil)
	ctx := context.Background()

	t.Run("eventual success", func(t *testing.T) {
		attempt := 0
		testError := errors.New("temporary failure")

		err := ns.ExecuteWithRetry(ctx, func() error {
			attempt++
			if attempt < 3 {
				return testError
			}
			return nil
		})
		if err != nil {
			t.Errorf("Expected eventual success, got error: %v", err)
		}

		if attempt != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempt)
		}
	})

	t.Run("all retries fail", func(t *testing.T) {
		attempt := 0
		testError := errors.New("persistent failure")

		err := ns.ExecuteWithRetry(ctx, func() error {
			attempt++
			return testError
		})

		if err == nil {
			t.Error("Expected error after all retries fail, got nil")
		}

		if attempt != 3 {
			t.Errorf("Expected 3 attempts, got %d", attempt)
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		cfg := breakerConfig(3, 10, 30*time.Second)
		cfg.RetryDelay = time.Second
		slow := NewNetworkService(cfg, nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(50 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		err := slow.ExecuteWithRetry(ctx, func() error {
			return errors.New("failure")
		})

		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected cancellation error, got %v", err)
		}
		if time.Since(start) > 900*time.Millisecond {
			t.Error("Expected retry wait to stop on cancellation")
		}
	})

	t.Run("open circuit stops retries", func(t *testing.T) {
		tripping := NewNetworkService(breakerConfig(1, 1, 30*time.Second), nil)
		attempt := 0

		err := tripping.ExecuteWithRetry(ctx, func() error {
			attempt++
			return errors.New("refused")
		})

		if err == nil {
			t.Error("Expected error, got nil")
		}
		if attempt != 1 {
			t.Errorf("Expected 1 attempt before the circuit opened, got %d", attempt)
		}
	})
}

// TestNetworkService_GetState tests state inspection methods
func TestNetworkService_GetState(t *testing.T) {
	ns := NewNetworkService(breakerConfig(3, 5, 30*time.Second), nil)

	if ns.GetState() != gobreaker.StateClosed {
		t.Errorf("Expected initial state to be closed, got %v", ns.GetState())
	}

	counts := ns.GetCounts()
	if counts.Requests != 0 || counts.TotalSuccesses != 0 || counts.TotalFailures != 0 {
		t.Errorf("Expected empty counts initially, got %+v", counts)
	}
}

func TestNetworkService_ZeroRetriesStillAttempts(t *testing.T) {
	cfg := breakerConfig(3, 5, 30*time.Second)
	cfg.Retries = 0
	ns := NewNetworkService(cfg, nil)

	calls := 0
	if err := ns.ExecuteWithRetry(context.Background(), func() error { calls++; return nil }); err != nil {
		t.Errorf("Expected success, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected one call, got %d", calls)
	}
}
