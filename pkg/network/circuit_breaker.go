// Package network carries simulation snapshots to remote spectators over
// websockets. Client-side dialing goes through a circuit breaker so a dead
// server is not hammered with reconnects.
package network

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/logging"
)

// NetworkService wraps network operations with a circuit breaker and retry
// with linear backoff.
type NetworkService struct {
	breaker    *gobreaker.CircuitBreaker
	logger     *logging.Logger
	retries    int
	retryDelay time.Duration
}

// NetworkOperation represents a function that performs a network operation.
type NetworkOperation func() error

// NewNetworkService creates a NetworkService from breaker settings.
func NewNetworkService(cfg config.BreakerConfig, logger *logging.Logger) *NetworkService {
	if logger == nil {
		logger = logging.Discard()
	}
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}

	settings := gobreaker.Settings{
		Name:        "blackhole-spectator",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &NetworkService{
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
		retries:    retries,
		retryDelay: cfg.RetryDelay,
	}
}

// Execute runs a network operation through the circuit breaker. An open
// circuit fails immediately without calling operation.
func (ns *NetworkService) Execute(ctx context.Context, operation NetworkOperation) error {
	_, err := ns.breaker.Execute(func() (interface{}, error) {
		return nil, operation()
	})
	if err != nil {
		ns.logger.LogWithContext(ctx, slog.LevelError, "circuit breaker execution failed",
			"error", err,
			"state", ns.breaker.State().String(),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}

	return nil
}

// ExecuteWithRetry runs operation up to the configured number of attempts,
// waiting attempt*RetryDelay between them. It stops early when the circuit
// opens or ctx is done.
func (ns *NetworkService) ExecuteWithRetry(ctx context.Context, operation NetworkOperation) error {
	for attempt := 0; attempt < ns.retries; attempt++ {
		err := ns.Execute(ctx, operation)
		if err == nil {
			return nil
		}

		if ns.breaker.State() == gobreaker.StateOpen {
			ns.logger.LogWithContext(ctx, slog.LevelWarn, "circuit breaker is open, skipping retries",
				"attempt", attempt+1,
				"max_retries", ns.retries,
			)
			return err
		}

		if attempt == ns.retries-1 {
			ns.logger.LogWithContext(ctx, slog.LevelError, "all retry attempts failed",
				"attempts", ns.retries,
				"final_error", err,
			)
			return fmt.Errorf("max retries (%d) exceeded: %w", ns.retries, err)
		}

		delay := time.Duration(attempt+1) * ns.retryDelay
		ns.logger.LogWithContext(ctx, slog.LevelWarn, "operation failed, retrying",
			"attempt", attempt+1,
			"max_retries", ns.retries,
			"delay", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("unexpected exit from retry loop")
}

// GetState returns the current state of the circuit breaker.
func (ns *NetworkService) GetState() gobreaker.State {
	return ns.breaker.State()
}

// GetCounts returns the breaker's failure and success counts
func (ns *NetworkService) GetCounts() gobreaker.Counts {
	return ns.breaker.Counts()
}
