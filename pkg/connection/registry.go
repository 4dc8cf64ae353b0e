package connection

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/qro-cz/qrows-go/pkg/eventloop"
	"github.com/qro-cz/qrows-go/pkg/log"
	"github.com/qro-cz/qrows-go/pkg/transport"
)

// Registry defaults.
const (
	// DefaultRefreshDelay is the wait before retrying a refresh poll on a
	// socket that was still connecting.
	DefaultRefreshDelay = 1000 * time.Millisecond

	// DefaultDialTimeout bounds each connection attempt.
	DefaultDialTimeout = 10 * time.Second
)

// Listener receives registry notifications on the event loop.
type Listener interface {
	// StatusReceived is called for every well-formed status update.
	StatusReceived(address string, status uint16)

	// ConnectionLost is called when a registered socket closes on its own,
	// before the replacement is opened.
	ConnectionLost(address string)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are ignored.
type ListenerFuncs struct {
	OnStatus func(address string, status uint16)
	OnLost   func(address string)
}

// StatusReceived calls OnStatus.
func (f ListenerFuncs) StatusReceived(address string, status uint16) {
	if f.OnStatus != nil {
		f.OnStatus(address, status)
	}
}

// ConnectionLost calls OnLost.
func (f ListenerFuncs) ConnectionLost(address string) {
	if f.OnLost != nil {
		f.OnLost(address)
	}
}

// Config configures a Registry.
type Config struct {
	// Dialer opens sockets (required).
	Dialer transport.Dialer

	// Policy decides reconnect timing (default: Immediate).
	Policy ReconnectPolicy

	// RefreshDelay is the one-shot retry delay for refresh polls
	// (default: 1000ms).
	RefreshDelay time.Duration

	// DialTimeout bounds each connection attempt (default: 10s).
	DialTimeout time.Duration

	// Listener receives status updates and loss notifications (optional).
	Listener Listener

	// OnStateChange is called on the loop for every socket state
	// transition, intentional closes included (optional).
	OnStateChange func(address string, old, next State)

	// OnReconnecting is called on the loop before a replacement socket is
	// scheduled. attempt counts consecutive failures since the last open
	// (optional).
	OnReconnecting func(address string, attempt int, delay time.Duration)

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// ProtocolLogger captures socket events (optional).
	ProtocolLogger log.Logger
}

// Registry owns one ServerConnection per remote address.
// All methods must be called from tasks on the registry's event loop.
type Registry struct {
	loop   *eventloop.Loop
	config Config

	ctx    context.Context
	cancel context.CancelFunc

	conns  map[string]*ServerConnection
	closed bool
}

// NewRegistry creates a registry bound to loop.
func NewRegistry(loop *eventloop.Loop, config Config) *Registry {
	if config.Policy == nil {
		config.Policy = Immediate{}
	}
	if config.RefreshDelay <= 0 {
		config.RefreshDelay = DefaultRefreshDelay
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.Listener == nil {
		config.Listener = ListenerFuncs{}
	}
	if config.ProtocolLogger == nil {
		config.ProtocolLogger = log.NoopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		loop:   loop,
		config: config,
		ctx:    ctx,
		cancel: cancel,
		conns:  make(map[string]*ServerConnection),
	}
}

// Subscribe adds position to the connection for address, creating it if
// needed. The position is first removed from any other address. When
// refresh is set and the connection already exists, a "G" poll is sent now
// if the socket is open, or once after RefreshDelay otherwise.
func (r *Registry) Subscribe(address, position string, refresh bool) {
	if r.closed || address == "" {
		return
	}

	for _, other := range r.Addresses() {
		if other == address {
			continue
		}
		if r.conns[other].hasPosition(position) {
			r.Unsubscribe(other, position, nil)
		}
	}

	c, exists := r.conns[address]
	if !exists {
		c = &ServerConnection{
			address:   address,
			positions: []string{position},
			retrier:   r.config.Policy.NewRetrier(),
		}
		r.conns[address] = c
		c.socket = r.open(address, "subscribe")
		r.debugLog("Subscribe: connection created", "address", address, "position", position)
		return
	}

	c.addPosition(position)

	// A policy that gave up leaves the entry without a live socket; a new
	// subscriber revives it.
	if c.socket.state == StateClosed && c.reopenTimer == nil {
		c.retrier.Reset()
		c.attempt = 0
		c.socket = r.open(address, "resubscribe")
		return
	}

	if !refresh {
		return
	}
	if c.socket.state == StateOpen {
		r.send(c.socket, log.MessageKindPoll, []byte(PollToken))
		return
	}

	r.loop.AfterFunc(r.config.RefreshDelay, func() {
		current, ok := r.conns[address]
		if !ok || current.socket.state != StateOpen {
			r.debugLog("Subscribe: deferred poll dropped", "address", address)
			return
		}
		r.send(current.socket, log.MessageKindPoll, []byte(PollToken))
	})
}

// Unsubscribe removes position from address. The farewell message, if any,
// is sent first when the socket is open. Removing the last position closes
// the socket without triggering reconnection and deletes the entry.
func (r *Registry) Unsubscribe(address, position string, farewell []byte) {
	c, ok := r.conns[address]
	if !ok {
		return
	}

	if farewell != nil && c.socket.state == StateOpen {
		r.send(c.socket, log.MessageKindFarewell, farewell)
	}

	c.removePosition(position)
	if len(c.positions) > 0 {
		return
	}

	delete(r.conns, address)
	r.teardown(c, "unsubscribed")
	r.debugLog("Unsubscribe: connection closed", "address", address)
}

// SendBankCommand sends command on the socket for address. It reports
// whether the command was written; unknown addresses and sockets that are
// not open drop the command.
func (r *Registry) SendBankCommand(address, command string) bool {
	c, ok := r.conns[address]
	if !ok || c.socket.state != StateOpen {
		return false
	}
	return r.send(c.socket, log.MessageKindBankCommand, []byte(command))
}

// Connection returns the entry for address.
func (r *Registry) Connection(address string) (*ServerConnection, bool) {
	c, ok := r.conns[address]
	return c, ok
}

// Addresses returns the registered addresses in sorted order.
func (r *Registry) Addresses() []string {
	out := make([]string, 0, len(r.conns))
	for a := range r.conns {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered addresses.
func (r *Registry) Len() int {
	return len(r.conns)
}

// Close tears down every connection without reconnecting. Further
// Subscribe calls are ignored.
func (r *Registry) Close() {
	if r.closed {
		return
	}
	r.closed = true
	for _, address := range r.Addresses() {
		c := r.conns[address]
		delete(r.conns, address)
		r.teardown(c, "registry closed")
	}
	r.cancel()
}

// teardown detaches and closes the socket of a removed entry.
func (r *Registry) teardown(c *ServerConnection, reason string) {
	if c.reopenTimer != nil {
		c.reopenTimer.Stop()
		c.reopenTimer = nil
	}

	s := c.socket
	s.detached = true
	if s.state == StateClosed {
		return
	}
	old := s.state
	s.state = StateClosed
	if s.conn != nil {
		_ = s.conn.Close()
	}
	r.logState(s, old, StateClosed, reason)
}

// open starts a new socket for address. The dial and the read loop run on
// their own goroutine; results are posted back to the loop.
func (r *Registry) open(address, reason string) *socket {
	s := newSocket(address)
	r.logState(s, StateClosed, StateConnecting, reason)
	go r.run(s)
	return s
}

func (r *Registry) run(s *socket) {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.DialTimeout)
	conn, err := r.config.Dialer.Dial(ctx, s.address)
	cancel()
	if err != nil {
		_ = r.loop.Post(func() { r.handleClose(s, err) })
		return
	}

	if err := r.loop.Post(func() { r.handleOpen(s, conn) }); err != nil {
		_ = conn.Close()
		return
	}

	for {
		data, err := conn.Receive()
		if err != nil {
			if postErr := r.loop.Post(func() { r.handleClose(s, err) }); postErr != nil {
				_ = conn.Close()
			}
			return
		}
		if err := r.loop.Post(func() { r.handleMessage(s, data) }); err != nil {
			_ = conn.Close()
			return
		}
	}
}

// current returns the entry whose active socket is s.
func (r *Registry) current(s *socket) *ServerConnection {
	c, ok := r.conns[s.address]
	if !ok || c.socket != s {
		return nil
	}
	return c
}

func (r *Registry) handleOpen(s *socket, conn transport.Conn) {
	s.conn = conn
	if s.detached || s.state == StateClosed {
		_ = conn.Close()
		return
	}

	s.state = StateOpen
	r.logState(s, StateConnecting, StateOpen, "")

	if c := r.current(s); c != nil {
		c.retrier.Reset()
		c.attempt = 0
	}
	r.send(s, log.MessageKindPoll, []byte(PollToken))
}

func (r *Registry) handleMessage(s *socket, data []byte) {
	if s.detached || r.current(s) == nil {
		return
	}

	status, err := ParseStatus(data)
	if err != nil {
		r.debugLog("handleMessage: dropped", "address", s.address, "error", err)
		r.logError(s, err, "inbound message")
		return
	}

	ev := log.NewMessageEvent(log.MessageKindStatus, data)
	ev.Status = &status
	r.logEvent(s, log.DirectionIn, log.CategoryMessage, func(e *log.Event) { e.Message = ev })

	r.config.Listener.StatusReceived(s.address, status)
}

func (r *Registry) handleClose(s *socket, cause error) {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.detached {
		return
	}

	old := s.state
	s.state = StateClosed
	reason := "peer closed"
	if cause != nil && !transport.IsNormalClose(cause) {
		reason = cause.Error()
	}
	r.logState(s, old, StateClosed, reason)
	if old == StateConnecting && cause != nil {
		r.logError(s, cause, "dial")
	}

	c := r.current(s)
	if c == nil {
		return
	}

	r.config.Listener.ConnectionLost(s.address)
	r.supervise(c)
}

// send writes data on s. Failures are logged and dropped.
func (r *Registry) send(s *socket, kind log.MessageKind, data []byte) bool {
	if s.state != StateOpen || s.conn == nil {
		return false
	}
	if err := s.conn.Send(data); err != nil {
		r.debugLog("send failed", "address", s.address, "kind", kind.String(), "error", err)
		r.logError(s, err, "send "+kind.String())
		return false
	}
	r.logEvent(s, log.DirectionOut, log.CategoryMessage, func(e *log.Event) {
		e.Message = log.NewMessageEvent(kind, data)
	})
	return true
}

func (r *Registry) logEvent(s *socket, dir log.Direction, cat log.Category, fill func(*log.Event)) {
	e := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.id,
		Direction:    dir,
		Category:     cat,
		Address:      s.address,
	}
	fill(&e)
	r.config.ProtocolLogger.Log(e)
}

func (r *Registry) logState(s *socket, old, next State, reason string) {
	if r.config.OnStateChange != nil {
		r.config.OnStateChange(s.address, old, next)
	}
	r.logEvent(s, log.DirectionOut, log.CategoryState, func(e *log.Event) {
		e.StateChange = &log.StateChangeEvent{
			OldState: old.String(),
			NewState: next.String(),
			Reason:   reason,
		}
	})
}

func (r *Registry) logError(s *socket, err error, op string) {
	dir := log.DirectionOut
	if errors.Is(err, ErrMalformedMessage) {
		dir = log.DirectionIn
	}
	r.logEvent(s, dir, log.CategoryError, func(e *log.Event) {
		e.Error = &log.ErrorEventData{Message: err.Error(), Context: op}
	})
}

func (r *Registry) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}
