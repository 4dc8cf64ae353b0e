package connection

import (
	"github.com/google/uuid"
	"github.com/qro-cz/qrows-go/pkg/eventloop"
	"github.com/qro-cz/qrows-go/pkg/transport"
)

// State represents a socket state.
type State uint8

const (
	// StateConnecting indicates the dial is in progress.
	StateConnecting State = iota

	// StateOpen indicates the socket can send.
	StateOpen

	// StateClosed indicates the socket has ended.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// socket is one physical connection attempt. All fields are owned by the
// event loop.
type socket struct {
	id      string
	address string
	state   State
	conn    transport.Conn

	// detached is set when the owner closes the socket on purpose. A
	// detached socket's open, message and close events are ignored.
	detached bool
}

func newSocket(address string) *socket {
	return &socket{
		id:      uuid.NewString(),
		address: address,
		state:   StateConnecting,
	}
}

// ServerConnection is the registry entry for one remote address.
type ServerConnection struct {
	address   string
	socket    *socket
	positions []string
	retrier   Retrier

	// reopenTimer is pending while a delayed reconnect is scheduled.
	reopenTimer *eventloop.Timer

	// reconnects counts sockets opened to replace a lost one.
	reconnects int

	// attempt counts reconnects since the last successful open.
	attempt int
}

// Address returns the remote address.
func (c *ServerConnection) Address() string {
	return c.address
}

// Positions returns a copy of the subscribed positions in subscribe order.
func (c *ServerConnection) Positions() []string {
	out := make([]string, len(c.positions))
	copy(out, c.positions)
	return out
}

// State returns the state of the current socket.
func (c *ServerConnection) State() State {
	return c.socket.state
}

// ConnectionID returns the ID of the current socket. It changes on every
// reconnect.
func (c *ServerConnection) ConnectionID() string {
	return c.socket.id
}

// Reconnects returns how many replacement sockets have been opened.
func (c *ServerConnection) Reconnects() int {
	return c.reconnects
}

func (c *ServerConnection) hasPosition(position string) bool {
	for _, p := range c.positions {
		if p == position {
			return true
		}
	}
	return false
}

func (c *ServerConnection) addPosition(position string) {
	if !c.hasPosition(position) {
		c.positions = append(c.positions, position)
	}
}

func (c *ServerConnection) removePosition(position string) {
	for i, p := range c.positions {
		if p == position {
			c.positions = append(c.positions[:i], c.positions[i+1:]...)
			return
		}
	}
}
