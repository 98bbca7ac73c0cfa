// pkg/network/server.go
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/engine"
	"github.com/opd-ai/go-blackhole/pkg/logging"
)

// MessageType defines the type of spectator message
type MessageType string

const (
	HelloMessage    MessageType = "hello"
	SnapshotMessage MessageType = "snapshot"
)

// SpectatorPath is where the server accepts websocket upgrades
const SpectatorPath = "/ws"

const writeTimeout = 5 * time.Second

// Read limits for websocket messages. Spectators have nothing to say beyond
// control frames; snapshots carry every body in the world.
const (
	MaxSpectatorMessageSize = 512
	MaxSnapshotMessageSize  = 4 << 20
)

// Message is the envelope for everything sent to spectators. Seq increases
// with every published snapshot.
type Message struct {
	Type  MessageType   `json:"type"`
	Seq   uint64        `json:"seq"`
	State *engine.State `json:"state,omitempty"`
}

// spectator is one connected websocket; writes are serialized by mu
type spectator struct {
	conn *websocket.Conn
	addr string
	mu   sync.Mutex
}

func (c *spectator) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// SpectatorServer pushes the latest world snapshot to websocket clients at a
// fixed interval. The simulation goroutine publishes; a broadcaster goroutine
// sends.
type SpectatorServer struct {
	cfg      config.SpectatorConfig
	upgrader websocket.Upgrader
	limiter  *RateLimiter
	logger   *logging.Logger

	clients     map[*spectator]struct{}
	closed      bool
	clientsLock sync.RWMutex

	latest    []byte
	seq       uint64
	sentSeq   uint64
	stateLock sync.Mutex

	listener   net.Listener
	httpServer *http.Server
	cancel     context.CancelFunc
	running    sync.WaitGroup
}

// NewSpectatorServer creates a spectator server
func NewSpectatorServer(cfg config.SpectatorConfig, logger *logging.Logger) *SpectatorServer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SpectatorServer{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter: NewRateLimiter(cfg.MaxConnects, cfg.ConnectWindow),
		logger:  logger.With("component", "spectator"),
		clients: make(map[*spectator]struct{}),
	}
}

// Handler returns the HTTP handler serving SpectatorPath
func (s *SpectatorServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(SpectatorPath, s.HandleWS)
	return mux
}

// HandleWS upgrades the request and keeps the spectator registered until the
// connection closes. The hello message and the latest snapshot are sent
// before any broadcast.
func (s *SpectatorServer) HandleWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !s.limiter.Allow(r.RemoteAddr) {
		s.logger.Warn(ctx, "Rejecting spectator, too many connects", "remote", r.RemoteAddr)
		http.Error(w, "too many connection attempts", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(ctx, "Websocket upgrade failed", err, "remote", r.RemoteAddr)
		return
	}

	c := &spectator{conn: conn, addr: r.RemoteAddr}
	defer conn.Close()
	conn.SetReadLimit(MaxSpectatorMessageSize)

	if err := s.greet(c); err != nil {
		s.logger.Warn(ctx, "Failed to greet spectator", "remote", c.addr, "error", err)
		return
	}

	s.clientsLock.Lock()
	if s.closed {
		s.clientsLock.Unlock()
		s.logger.Debug(ctx, "Spectator arrived after stop", "remote", c.addr)
		return
	}
	s.clients[c] = struct{}{}
	count := len(s.clients)
	s.clientsLock.Unlock()
	s.logger.Info(ctx, "Spectator connected", "remote", c.addr, "spectators", count)

	s.readLoop(c)

	s.removeClient(c)
}

// greet sends the hello message followed by the latest snapshot, if any
func (s *SpectatorServer) greet(c *spectator) error {
	s.stateLock.Lock()
	seq, latest := s.seq, s.latest
	s.stateLock.Unlock()

	hello, err := json.Marshal(Message{Type: HelloMessage, Seq: seq})
	if err != nil {
		return err
	}
	if err := c.write(hello); err != nil {
		return err
	}
	if latest != nil {
		return c.write(latest)
	}
	return nil
}

// readLoop discards client messages; it returns once the connection fails
// or the peer closes it.
func (s *SpectatorServer) readLoop(c *spectator) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug(context.Background(), "Spectator read failed", "remote", c.addr, "error", err)
			}
			return
		}
	}
}

func (s *SpectatorServer) removeClient(c *spectator) {
	s.clientsLock.Lock()
	delete(s.clients, c)
	count := len(s.clients)
	s.clientsLock.Unlock()
	s.logger.Info(context.Background(), "Spectator disconnected", "remote", c.addr, "spectators", count)
}

// ClientCount returns the number of connected spectators
func (s *SpectatorServer) ClientCount() int {
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()
	return len(s.clients)
}

// Publish encodes state as the latest snapshot. It does not block on
// spectators.
func (s *SpectatorServer) Publish(state *engine.State) error {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	data, err := json.Marshal(Message{Type: SnapshotMessage, Seq: s.seq + 1, State: state})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	s.seq++
	s.latest = data
	return nil
}

// Broadcast sends the latest snapshot to every spectator if it has not been
// sent yet. It returns the number of spectators written to.
func (s *SpectatorServer) Broadcast() int {
	s.stateLock.Lock()
	if s.latest == nil || s.seq == s.sentSeq {
		s.stateLock.Unlock()
		return 0
	}
	data := s.latest
	s.sentSeq = s.seq
	s.stateLock.Unlock()

	s.clientsLock.RLock()
	targets := make([]*spectator, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.clientsLock.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.write(data); err != nil {
			// closing unblocks readLoop, which unregisters the client
			s.logger.Warn(context.Background(), "Dropping spectator", "remote", c.addr, "error", err)
			c.conn.Close()
			continue
		}
		sent++
	}
	return sent
}

// Run broadcasts at the configured interval until ctx is done.
func (s *SpectatorServer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Broadcast()
		}
	}
}

// Start listens on address and starts serving and broadcasting
func (s *SpectatorServer) Start(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start spectator server: %w", err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.running.Add(2)
	go func() {
		defer s.running.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "Spectator server stopped", err)
		}
	}()
	go func() {
		defer s.running.Done()
		s.Run(ctx)
	}()

	s.logger.Info(ctx, "Spectator server started", "addr", ln.Addr().String())
	return nil
}

// ListenerAddress returns the bound address, or "" before Start
func (s *SpectatorServer) ListenerAddress() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and disconnects all spectators. Spectators
// still being greeted are turned away.
func (s *SpectatorServer) Stop(ctx context.Context) error {
	var err error
	if s.cancel != nil {
		s.cancel()
	}
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	// hijacked websocket connections are not closed by Shutdown
	s.clientsLock.Lock()
	s.closed = true
	for c := range s.clients {
		c.conn.Close()
	}
	s.clientsLock.Unlock()

	s.running.Wait()
	s.limiter.Close()
	s.listener = nil
	s.logger.Info(ctx, "Spectator server stopped")
	return err
}
