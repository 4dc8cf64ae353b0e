package transport

import "context"

// Conn is an established message connection.
// Implemented by ClientConn.
type Conn interface {
	// Send writes one text message.
	Send(data []byte) error

	// Receive blocks until the next message arrives.
	Receive() ([]byte, error)

	// Close closes the connection. It is safe to call more than once.
	Close() error

	// RemoteAddr returns the peer address.
	RemoteAddr() string
}

// Dialer opens connections to an address such as "ws://host:port/path".
// Implemented by Client.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// Compile-time interface satisfaction checks.
var (
	_ Conn   = (*ClientConn)(nil)
	_ Dialer = (*Client)(nil)
)
