// pkg/network/client.go
package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opd-ai/go-blackhole/pkg/config"
	"github.com/opd-ai/go-blackhole/pkg/engine"
	"github.com/opd-ai/go-blackhole/pkg/logging"
)

// ErrNotConnected is returned when the client has no live connection
var ErrNotConnected = errors.New("not connected")

// SpectatorClient receives world snapshots from a SpectatorServer. Dialing
// goes through a circuit breaker.
type SpectatorClient struct {
	url              string
	networkService   *NetworkService
	dialer           *websocket.Dialer
	logger           *logging.Logger
	receivedStates   chan *engine.State
	handshakeTimeout time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	lastSeq   uint64
	dropped   int
	err       error
	done      chan struct{}
}

// NewSpectatorClient creates a client for the websocket URL in cfg.
func NewSpectatorClient(cfg *config.Config, logger *logging.Logger) *SpectatorClient {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "spectator_client")
	return &SpectatorClient{
		url:              cfg.Spectator.URL,
		networkService:   NewNetworkService(cfg.Breaker, logger),
		dialer:           &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		logger:           logger,
		receivedStates:   make(chan *engine.State, 8),
		handshakeTimeout: 10 * time.Second,
	}
}

// Connect dials the server, waits for its hello message and starts
// receiving snapshots. A client connects once; create a new one to
// reconnect.
func (c *SpectatorClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return errors.New("spectator client already used")
	}

	var conn *websocket.Conn
	err := c.networkService.ExecuteWithRetry(ctx, func() error {
		var dialErr error
		conn, _, dialErr = c.dialer.DialContext(ctx, c.url, nil)
		return dialErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	if err := c.awaitHello(conn); err != nil {
		conn.Close()
		return err
	}

	c.conn = conn
	c.connected = true
	c.done = make(chan struct{})
	go c.messageLoop(conn)

	c.logger.Info(ctx, "Connected to spectator server", "url", c.url)
	return nil
}

func (c *SpectatorClient) awaitHello(conn *websocket.Conn) error {
	if err := conn.SetReadDeadline(time.Now().Add(c.handshakeTimeout)); err != nil {
		return err
	}
	var hello Message
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("failed to read hello: %w", err)
	}
	if hello.Type != HelloMessage {
		return fmt.Errorf("expected %s message, got %q", HelloMessage, hello.Type)
	}
	return conn.SetReadDeadline(time.Time{})
}

// Snapshots returns the channel of received states. It is closed when the
// connection ends; Err then reports why.
func (c *SpectatorClient) Snapshots() <-chan *engine.State {
	return c.receivedStates
}

// Connected reports whether the connection is live
func (c *SpectatorClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Dropped returns how many snapshots were discarded because the consumer
// fell behind
func (c *SpectatorClient) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Err returns the error that ended the connection, or nil after a clean Close
func (c *SpectatorClient) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// messageLoop decodes snapshots until the connection fails
func (c *SpectatorClient) messageLoop(conn *websocket.Conn) {
	defer close(c.done)
	defer close(c.receivedStates)

	conn.SetReadLimit(MaxSnapshotMessageSize)
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			c.handleDisconnect(err)
			return
		}
		if msg.Type != SnapshotMessage || msg.State == nil {
			continue
		}

		c.mu.Lock()
		stale := msg.Seq <= c.lastSeq
		if !stale {
			c.lastSeq = msg.Seq
		}
		c.mu.Unlock()
		if !stale {
			c.deliver(msg.State)
		}
	}
}

// deliver sends state without blocking, discarding the oldest queued state
// when the channel is full.
func (c *SpectatorClient) deliver(state *engine.State) {
	for {
		select {
		case c.receivedStates <- state:
			return
		default:
		}
		select {
		case <-c.receivedStates:
			c.mu.Lock()
			c.dropped++
			c.mu.Unlock()
		default:
		}
	}
}

func (c *SpectatorClient) handleDisconnect(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasConnected := c.connected
	c.connected = false
	if !wasConnected {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = nil
	}
	c.err = err
	if err != nil {
		c.logger.Warn(context.Background(), "Spectator connection lost", "url", c.url, "error", err)
	}
}

// Close disconnects from the server and waits for the receive loop to end.
func (c *SpectatorClient) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	if wasConnected {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}
	err := conn.Close()
	<-done
	return err
}
