package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrEmptyAddress     = errors.New("empty address")
)

// Defaults for ClientConfig.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultWriteTimeout   = 5 * time.Second
	DefaultCloseTimeout   = time.Second
	DefaultMaxMessageSize = 64 * 1024
)

// ClientConfig configures a websocket client.
type ClientConfig struct {
	// ConnectTimeout bounds the dial and handshake when the context has no
	// deadline (default: 10s).
	ConnectTimeout time.Duration

	// WriteTimeout bounds each Send (default: 5s).
	WriteTimeout time.Duration

	// CloseTimeout bounds the close handshake (default: 1s).
	CloseTimeout time.Duration

	// MaxMessageSize is the largest accepted inbound message (default: 64KB).
	MaxMessageSize int64
}

// Client dials websocket connections.
type Client struct {
	config ClientConfig
	dialer *websocket.Dialer
}

// NewClient creates a new client.
func NewClient(config ClientConfig) *Client {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.CloseTimeout <= 0 {
		config.CloseTimeout = DefaultCloseTimeout
	}
	if config.MaxMessageSize <= 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	return &Client{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            nil,
			HandshakeTimeout: config.ConnectTimeout,
		},
	}
}

// Dial establishes a connection to address.
func (c *Client) Dial(ctx context.Context, address string) (Conn, error) {
	if address == "" {
		return nil, ErrEmptyAddress
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.ConnectTimeout)
		defer cancel()
	}

	ws, resp, err := c.dialer.DialContext(ctx, address, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s failed (HTTP %d): %w", address, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial %s failed: %w", address, err)
	}
	ws.SetReadLimit(c.config.MaxMessageSize)

	return &ClientConn{
		conn:    ws,
		config:  c.config,
		closeCh: make(chan struct{}),
	}, nil
}

// ClientConn is a websocket connection to a server.
type ClientConn struct {
	conn    *websocket.Conn
	config  ClientConfig
	closeCh chan struct{}

	closeOnce sync.Once
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

// RemoteAddr returns the remote network address.
func (c *ClientConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// LocalAddr returns the local network address.
func (c *ClientConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Send writes data as one text message.
func (c *ClientConn) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	return nil
}

// Receive blocks until the next message arrives.
func (c *ClientConn) Receive() ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		select {
		case <-c.closeCh:
			return nil, ErrConnectionClosed
		default:
		}
		return nil, err
	}
	return data, nil
}

// Close sends a normal-closure frame and closes the connection.
func (c *ClientConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.config.CloseTimeout))
		err = c.conn.Close()
	})
	return err
}

// IsNormalClose reports whether err is a clean close by either side.
func IsNormalClose(err error) bool {
	if errors.Is(err, ErrConnectionClosed) {
		return true
	}
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
