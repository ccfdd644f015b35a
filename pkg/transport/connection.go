package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/krac-home/krac-go/pkg/log"
)

// Connection states.
type ConnectionState int

const (
	// StateDisconnected indicates no connection.
	StateDisconnected ConnectionState = iota

	// StateConnecting indicates connection in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateClosing indicates graceful close in progress.
	StateClosing
)

// String returns the connection state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// Connection errors.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrAlreadyConnected = errors.New("already connected")
	ErrConnectionClosed = errors.New("connection closed")
	ErrCloseTimeout     = errors.New("close timeout")
)

// ConnectionConfig configures a bridge-side connection.
type ConnectionConfig struct {
	// MaxMessageSize is the maximum message size (default: 64KB)
	MaxMessageSize uint32

	// CloseTimeout is the timeout for graceful close (default: 5s)
	CloseTimeout time.Duration

	// ReadTimeout is the timeout for read operations (0 = no timeout)
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for write operations (0 = no timeout)
	WriteTimeout time.Duration

	// Logger for protocol logging (optional)
	Logger log.Logger
}

// DefaultConnectionConfig returns the default connection configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxMessageSize: DefaultMaxMessageSize,
		CloseTimeout:   5 * time.Second,
	}
}

// ConnectionHandler handles connection events.
type ConnectionHandler interface {
	// OnMessage is called when a message is received.
	OnMessage(msg []byte)

	// OnStateChange is called when the connection state changes.
	OnStateChange(oldState, newState ConnectionState)

	// OnError is called when an error occurs.
	OnError(err error)
}

// Connection is a long-lived connection from a bridge to a device.
// Received frames are delivered to the handler; the handler decodes them
// and feeds responses and notifications to the interaction client.
//
// A Connection is single-use. After it has been closed, create a new one
// to reconnect.
type Connection struct {
	config  ConnectionConfig
	handler ConnectionHandler

	// Network connection
	conn   net.Conn
	framer *Framer
	connID string

	// State
	state     atomic.Int32
	closeOnce sync.Once
	closeDone chan struct{}

	// Synchronization
	mu      sync.RWMutex
	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewConnection creates a new connection (not yet connected).
func NewConnection(config ConnectionConfig, handler ConnectionHandler) *Connection {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.CloseTimeout == 0 {
		config.CloseTimeout = 5 * time.Second
	}

	c := &Connection{
		config:    config,
		handler:   handler,
		closeDone: make(chan struct{}),
	}
	c.state.Store(int32(StateDisconnected))

	return c
}

// State returns the current connection state.
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// ConnID returns the unique connection identifier.
// Empty until Connect succeeds.
func (c *Connection) ConnID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connID
}

// Connect establishes a connection to the specified address.
func (c *Connection) Connect(ctx context.Context, address string) error {
	if !c.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return ErrAlreadyConnected
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.closeDone = make(chan struct{})

	c.notifyStateChange(StateDisconnected, StateConnecting)

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		c.notifyStateChange(StateConnecting, StateDisconnected)
		return fmt.Errorf("dial failed: %w", err)
	}

	connID := uuid.New().String()
	framer := NewFramerWithMaxSize(conn, c.config.MaxMessageSize)
	if c.config.Logger != nil {
		framer.SetLogger(c.config.Logger, connID)
	}

	c.mu.Lock()
	c.conn = conn
	c.framer = framer
	c.connID = connID
	c.mu.Unlock()

	go c.readLoop()

	c.state.Store(int32(StateConnected))
	c.notifyStateChange(StateConnecting, StateConnected)

	return nil
}

// Send sends a message over the connection.
func (c *Connection) Send(data []byte) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	framer := c.framer
	conn := c.conn
	c.mu.RUnlock()

	if framer == nil {
		return ErrNotConnected
	}

	// Set write deadline if configured
	if c.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
		defer conn.SetWriteDeadline(time.Time{})
	}

	return framer.WriteFrame(data)
}

// Close gracefully closes the connection.
func (c *Connection) Close() error {
	return c.CloseWithTimeout(c.config.CloseTimeout)
}

// CloseWithTimeout gracefully closes with a specific timeout.
// Closing the socket unblocks the read loop; the timeout bounds how long
// we wait for it to exit.
func (c *Connection) CloseWithTimeout(timeout time.Duration) error {
	var closeErr error

	c.closeOnce.Do(func() {
		currentState := c.State()
		if currentState == StateDisconnected {
			return
		}

		c.state.Store(int32(StateClosing))
		c.notifyStateChange(currentState, StateClosing)

		// Cancel context and close the socket to unblock the read loop
		if c.cancel != nil {
			c.cancel()
		}

		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()

		select {
		case <-c.closeDone:
			// Read loop exited
		case <-time.After(timeout):
			closeErr = ErrCloseTimeout
		}

		c.mu.Lock()
		c.conn = nil
		c.framer = nil
		c.mu.Unlock()

		c.state.Store(int32(StateDisconnected))
		c.notifyStateChange(StateClosing, StateDisconnected)
	})

	return closeErr
}

// ForceClose immediately closes the connection.
func (c *Connection) ForceClose() {
	c.closeOnce.Do(func() {
		currentState := c.State()

		if c.cancel != nil {
			c.cancel()
		}

		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.conn = nil
		c.framer = nil
		c.mu.Unlock()

		c.state.Store(int32(StateDisconnected))
		if currentState != StateDisconnected {
			c.notifyStateChange(currentState, StateDisconnected)
		}
	})
}

// LocalAddr returns the local network address.
func (c *Connection) LocalAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn != nil {
		return c.conn.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the remote network address.
func (c *Connection) RemoteAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn != nil {
		return c.conn.RemoteAddr()
	}
	return nil
}

// readLoop reads messages from the connection.
func (c *Connection) readLoop() {
	defer func() {
		close(c.closeDone)
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		framer := c.framer
		conn := c.conn
		c.mu.RUnlock()

		if framer == nil {
			return
		}

		// Set read deadline if configured
		if c.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		}

		data, err := framer.ReadFrame()
		if err != nil {
			if c.State() == StateClosing || c.ctx.Err() != nil {
				return // Expected during close
			}
			c.handler.OnError(fmt.Errorf("read error: %w", err))
			c.ForceClose()
			return
		}

		c.handler.OnMessage(data)
	}
}

// notifyStateChange notifies the handler and logs the transition.
func (c *Connection) notifyStateChange(oldState, newState ConnectionState) {
	if c.config.Logger != nil {
		c.mu.RLock()
		connID := c.connID
		var remoteAddr string
		if c.conn != nil {
			remoteAddr = c.conn.RemoteAddr().String()
		}
		c.mu.RUnlock()

		c.config.Logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Layer:        log.LayerTransport,
			Category:     log.CategoryState,
			LocalRole:    log.RoleBridge,
			RemoteAddr:   remoteAddr,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityConnection,
				OldState: oldState.String(),
				NewState: newState.String(),
			},
		})
	}

	if c.handler != nil {
		c.handler.OnStateChange(oldState, newState)
	}
}
