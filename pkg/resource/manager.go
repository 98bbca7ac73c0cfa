// pkg/resource/manager.go
package resource

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/logging"
)

// ResourceManager runs the background workers of a session (spectator
// broadcast, terminal events, health serving) under a worker limit and
// watches heap usage. Shutdown cancels every worker and waits for them.
type ResourceManager struct {
	maxMemoryMB     int64
	maxWorkers      int64
	shutdownTimeout time.Duration
	checkInterval   time.Duration

	workerCount   atomic.Int64
	memoryUsageMB atomic.Int64
	workers       sync.WaitGroup

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	running bool
	logger  *logging.Logger

	lastCheck time.Time
}

// NewResourceManager creates a manager with the limits in cfg.
func NewResourceManager(cfg config.ResourceConfig, logger *logging.Logger) *ResourceManager {
	if logger == nil {
		logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &ResourceManager{
		maxMemoryMB:     cfg.MaxMemoryMB,
		maxWorkers:      int64(cfg.MaxWorkers),
		shutdownTimeout: cfg.ShutdownTimeout,
		checkInterval:   cfg.CheckInterval,
		ctx:             ctx,
		cancel:          cancel,
		done:            make(chan struct{}),
		logger:          logger.With("component", "resources"),
		lastCheck:       time.Now(),
	}
}

// Start begins the memory monitoring loop.
func (rm *ResourceManager) Start() error {
	rm.mu.Lock()
	if rm.running {
		rm.mu.Unlock()
		return fmt.Errorf("resource manager already running")
	}
	rm.running = true
	rm.mu.Unlock()

	go rm.monitoringLoop()

	rm.logger.Info(rm.ctx, "Resource manager started",
		"max_memory_mb", rm.maxMemoryMB,
		"max_workers", rm.maxWorkers,
		"check_interval", rm.checkInterval,
	)
	return nil
}

// Go runs fn as a tracked worker. The worker's context is cancelled by
// Shutdown. A returned error or a panic is logged; neither stops the
// session. Go fails when the worker limit is reached.
func (rm *ResourceManager) Go(name string, fn func(ctx context.Context) error) error {
	if rm.ctx.Err() != nil {
		return fmt.Errorf("resource manager shut down, not starting %s", name)
	}

	current := rm.workerCount.Add(1)
	if current > rm.maxWorkers {
		rm.workerCount.Add(-1)
		rm.logger.Warn(rm.ctx, "Worker limit exceeded",
			"current", current-1,
			"limit", rm.maxWorkers,
			"name", name,
		)
		return fmt.Errorf("worker limit exceeded: %d/%d", current-1, rm.maxWorkers)
	}

	rm.workers.Add(1)
	go func() {
		defer rm.workers.Done()
		defer rm.workerCount.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				rm.logger.Error(rm.ctx, "Worker panic", fmt.Errorf("panic: %v", r), "name", name)
			}
		}()

		rm.logger.Debug(rm.ctx, "Worker started", "name", name)
		if err := fn(rm.ctx); err != nil && rm.ctx.Err() == nil {
			rm.logger.Error(rm.ctx, "Worker failed", err, "name", name)
		}
	}()
	return nil
}

// CheckMemoryUsage samples the heap and compares it with the limit.
func (rm *ResourceManager) CheckMemoryUsage() error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	currentMB := int64(m.HeapAlloc / 1024 / 1024)
	rm.memoryUsageMB.Store(currentMB)

	rm.mu.Lock()
	rm.lastCheck = time.Now()
	rm.mu.Unlock()

	if currentMB > rm.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, rm.maxMemoryMB)
	}
	return nil
}

// WorkerCount returns the number of running workers.
func (rm *ResourceManager) WorkerCount() int64 {
	return rm.workerCount.Load()
}

// MemoryUsage returns the heap size in MB at the last check.
func (rm *ResourceManager) MemoryUsage() int64 {
	return rm.memoryUsageMB.Load()
}

// Stats returns current resource usage.
func (rm *ResourceManager) Stats() ResourceStats {
	rm.mu.Lock()
	lastCheck := rm.lastCheck
	rm.mu.Unlock()

	return ResourceStats{
		WorkerCount:   rm.WorkerCount(),
		MaxWorkers:    rm.maxWorkers,
		MemoryUsageMB: rm.MemoryUsage(),
		MaxMemoryMB:   rm.maxMemoryMB,
		LastCheck:     lastCheck,
	}
}

// ResourceStats contains resource usage statistics.
type ResourceStats struct {
	WorkerCount   int64     `json:"worker_count"`
	MaxWorkers    int64     `json:"max_workers"`
	MemoryUsageMB int64     `json:"memory_usage_mb"`
	MaxMemoryMB   int64     `json:"max_memory_mb"`
	LastCheck     time.Time `json:"last_check"`
}

// Shutdown cancels every worker and waits for them, up to the configured
// timeout or the end of ctx.
func (rm *ResourceManager) Shutdown(ctx context.Context) error {
	rm.mu.Lock()
	wasRunning := rm.running
	rm.running = false
	rm.mu.Unlock()

	rm.logger.Info(ctx, "Shutting down resource manager", "workers", rm.WorkerCount())
	rm.cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, rm.shutdownTimeout)
	defer cancel()

	if wasRunning {
		select {
		case <-rm.done:
		case <-shutdownCtx.Done():
			rm.logger.Warn(ctx, "Resource monitoring loop did not stop in time")
		}
	}

	finished := make(chan struct{})
	go func() {
		rm.workers.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		rm.logger.Info(ctx, "All workers finished")
		return nil
	case <-shutdownCtx.Done():
		remaining := rm.WorkerCount()
		rm.logger.Warn(ctx, "Shutdown timeout exceeded with workers still running",
			"remaining", remaining,
		)
		return fmt.Errorf("shutdown timeout: %d workers still running", remaining)
	}
}

// monitoringLoop runs periodic resource checks.
func (rm *ResourceManager) monitoringLoop() {
	defer close(rm.done)

	ticker := time.NewTicker(rm.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rm.performResourceChecks()
		case <-rm.ctx.Done():
			rm.logger.Debug(rm.ctx, "Resource monitoring loop stopping")
			return
		}
	}
}

func (rm *ResourceManager) performResourceChecks() {
	if err := rm.CheckMemoryUsage(); err != nil {
		rm.logger.Error(rm.ctx, "Memory limit exceeded", err,
			"current_mb", rm.MemoryUsage(),
			"limit_mb", rm.maxMemoryMB,
		)
	}

	rm.logger.Debug(rm.ctx, "Resource usage check",
		"workers", rm.WorkerCount(),
		"max_workers", rm.maxWorkers,
		"memory_mb", rm.MemoryUsage(),
		"max_memory_mb", rm.maxMemoryMB,
	)
}
