package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/krac-home/krac-go/pkg/log"
)

// ClientConfig configures a bridge-side client.
type ClientConfig struct {
	// MaxMessageSize is the maximum message size (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout is the connection timeout (default: 30s).
	ConnectTimeout time.Duration

	// Logger for protocol logging (optional).
	Logger log.Logger
}

// Client dials devices over TCP.
// It provides a synchronous connection suited for scripted request/response
// exchanges; long-lived bridge connections use Connection instead.
type Client struct {
	config ClientConfig
}

// NewClient creates a new client.
func NewClient(config ClientConfig) *Client {
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 30 * time.Second
	}

	return &Client{config: config}
}

// Connect establishes a connection to the specified address.
func (c *Client) Connect(ctx context.Context, address string) (*ClientConn, error) {
	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	connID := uuid.New().String()
	framer := NewFramerWithMaxSize(conn, c.config.MaxMessageSize)
	if c.config.Logger != nil {
		framer.SetLogger(c.config.Logger, connID)
	}

	return &ClientConn{
		conn:    conn,
		framer:  framer,
		connID:  connID,
		closeCh: make(chan struct{}),
	}, nil
}

// ClientConn represents a connection from client to device.
type ClientConn struct {
	conn    net.Conn
	framer  *Framer
	connID  string
	closeCh chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

// ConnID returns the unique connection identifier.
func (c *ClientConn) ConnID() string {
	return c.connID
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Send sends a message to the device.
func (c *ClientConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	return c.framer.WriteFrame(data)
}

// Receive receives a message from the device with timeout.
func (c *ClientConn) Receive(timeout time.Duration) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	return c.framer.ReadFrame()
}

// Close closes the connection.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}
