// Package health provides liveness and readiness endpoints for a running
// simulation. Readiness aggregates named checks for the simulation loop, the
// flight recorder, the spectator listener and memory use.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/opd-ai/go-blackhole/pkg/logging"
)

// HealthCheck defines the interface for individual health checks.
type HealthCheck interface {
	// Name returns the unique name of this health check
	Name() string
	// Check performs the health check and returns an error if unhealthy
	Check(ctx context.Context) error
}

// HealthStatus represents the overall health status of the application.
type HealthStatus struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth represents the health status of an individual component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthChecker manages and executes health checks for the application.
type HealthChecker struct {
	checks map[string]HealthCheck
	mu     sync.RWMutex
}

// NewHealthChecker creates a new health checker instance.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]HealthCheck),
	}
}

// AddCheck registers a health check, replacing any with the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[check.Name()] = check
}

// RemoveCheck removes a health check by name.
func (hc *HealthChecker) RemoveCheck(name string) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	delete(hc.checks, name)
}

// CheckHealth executes all registered health checks. The overall status is
// "healthy" only if every check passes.
func (hc *HealthChecker) CheckHealth(ctx context.Context) HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	status := HealthStatus{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth),
	}

	for name, check := range hc.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			status.Checks[name] = ComponentHealth{
				Status: "healthy",
			}
		}
	}

	return status
}

// LivenessHandler returns 200 while the process can serve requests.
func (hc *HealthChecker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := map[string]string{"status": "alive"}
	json.NewEncoder(w).Encode(response)
}

// ReadinessHandler runs all checks and returns 200 if they pass, 503
// otherwise.
func (hc *HealthChecker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := hc.CheckHealth(ctx)

	w.Header().Set("Content-Type", "application/json")

	if health.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(health)
}

// Handler serves /health (liveness) and /ready (readiness).
func (hc *HealthChecker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", hc.LivenessHandler)
	mux.HandleFunc("/ready", hc.ReadinessHandler)
	return mux
}

// Server exposes a HealthChecker over HTTP
type Server struct {
	checker    *HealthChecker
	logger     *logging.Logger
	listener   net.Listener
	httpServer *http.Server
	done       chan struct{}
}

// NewServer creates a health server for checker
func NewServer(checker *HealthChecker, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{checker: checker, logger: logger.With("component", "health")}
}

// Start listens on address and serves in the background
func (s *Server) Start(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.checker.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "Health server stopped", err)
		}
	}()
	s.logger.Info(context.Background(), "Health server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound address, or "" before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	err := s.httpServer.Shutdown(ctx)
	<-s.done
	return err
}

// SimulationHealthCheck fails when the simulation tick has stopped advancing
// while the simulation is not paused. The loop reports progress with Observe.
type SimulationHealthCheck struct {
	stallWindow time.Duration
	now         func() time.Time

	mu          sync.Mutex
	observed    bool
	tick        uint64
	paused      bool
	lastAdvance time.Time
}

// NewSimulationHealthCheck creates a check that tolerates stallWindow
// without progress.
func NewSimulationHealthCheck(stallWindow time.Duration) *SimulationHealthCheck {
	return &SimulationHealthCheck{stallWindow: stallWindow, now: time.Now}
}

// Name returns the name of this health check.
func (s *SimulationHealthCheck) Name() string {
	return "simulation"
}

// Observe records the current tick and pause state.
func (s *SimulationHealthCheck) Observe(tick uint64, paused bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.observed || tick != s.tick || paused || s.paused {
		s.lastAdvance = now
	}
	s.observed = true
	s.tick = tick
	s.paused = paused
}

// Check verifies that the tick advanced within the stall window.
func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.observed {
		return fmt.Errorf("simulation has not started")
	}
	if s.paused {
		return nil
	}
	if idle := s.now().Sub(s.lastAdvance); idle > s.stallWindow {
		return fmt.Errorf("simulation stalled at tick %d for %s", s.tick, idle.Round(time.Millisecond))
	}
	return nil
}

// Pinger is implemented by anything with a connection to probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// RecorderHealthCheck pings the flight recorder's database.
type RecorderHealthCheck struct {
	recorder Pinger
}

// NewRecorderHealthCheck creates a health check for the flight recorder.
func NewRecorderHealthCheck(recorder Pinger) *RecorderHealthCheck {
	return &RecorderHealthCheck{recorder: recorder}
}

// Name returns the name of this health check.
func (r *RecorderHealthCheck) Name() string {
	return "recorder"
}

// Check pings the recorder database.
func (r *RecorderHealthCheck) Check(ctx context.Context) error {
	if err := r.recorder.Ping(ctx); err != nil {
		return fmt.Errorf("recorder database unreachable: %w", err)
	}
	return nil
}

// NetworkHealthCheck implements HealthCheck for the spectator listener.
type NetworkHealthCheck struct {
	listenerAddr func() string
}

// NewNetworkHealthCheck creates a health check for network connectivity.
func NewNetworkHealthCheck(listenerAddr func() string) *NetworkHealthCheck {
	return &NetworkHealthCheck{
		listenerAddr: listenerAddr,
	}
}

// Name returns the name of this health check.
func (n *NetworkHealthCheck) Name() string {
	return "network"
}

// Check verifies that the network listener is active.
func (n *NetworkHealthCheck) Check(ctx context.Context) error {
	addr := n.listenerAddr()
	if addr == "" {
		return fmt.Errorf("network listener is not active")
	}
	return nil
}

// MemoryHealthCheck implements HealthCheck for memory usage monitoring.
type MemoryHealthCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryHealthCheck creates a health check for memory usage. A nil
// getMemoryUsage reads the Go heap.
func NewMemoryHealthCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryHealthCheck {
	if getMemoryUsage == nil {
		getMemoryUsage = HeapMB
	}
	return &MemoryHealthCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// HeapMB returns the allocated Go heap in megabytes
func HeapMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}

// Name returns the name of this health check.
func (m *MemoryHealthCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within acceptable limits.
func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}
