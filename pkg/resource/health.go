// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"
)

// ResourceHealthCheck reports a session as unready when its heap is over
// the limit or its workers are close to the cap.
type ResourceHealthCheck struct {
	manager *ResourceManager
}

// NewResourceHealthCheck creates a health check for manager.
func NewResourceHealthCheck(manager *ResourceManager) *ResourceHealthCheck {
	return &ResourceHealthCheck{manager: manager}
}

// Name returns the name of this health check.
func (r *ResourceHealthCheck) Name() string {
	return "resources"
}

// Check verifies that resource usage is within limits. Workers warn at 80%
// of the cap.
func (r *ResourceHealthCheck) Check(ctx context.Context) error {
	stats := r.manager.Stats()

	if stats.MemoryUsageMB > stats.MaxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB",
			stats.MemoryUsageMB, stats.MaxMemoryMB)
	}

	threshold := stats.MaxWorkers * 8 / 10
	if stats.WorkerCount > threshold {
		return fmt.Errorf("worker count %d exceeds 80%% threshold (%d/%d)",
			stats.WorkerCount, threshold, stats.MaxWorkers)
	}
	return nil
}
