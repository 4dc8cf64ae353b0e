// Package wstest provides an in-process websocket server for tests.
//
// The server records every text message it receives and lets tests push
// messages to, or abruptly drop, individual client connections.
package wstest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// Message is a text message received from a client.
type Message struct {
	Conn *ServerConn
	Data string
}

// Server is a websocket server bound to a loopback port.
type Server struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu        sync.Mutex
	conns     []*ServerConn
	onConnect func(*ServerConn)
	refuse    bool

	received chan Message
}

// NewServer starts a server and registers its shutdown with t.Cleanup.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		received: make(chan Message, 1024),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Address returns the ws:// URL of the server.
func (s *Server) Address() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/ws"
}

// OnConnect sets a callback run for every accepted connection before its
// messages are read.
func (s *Server) OnConnect(fn func(*ServerConn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = fn
}

// Refuse makes the server reject upgrades with 503 while set.
func (s *Server) Refuse(refuse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuse = refuse
}

// Conns returns every connection accepted so far, in accept order.
func (s *Server) Conns() []*ServerConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ServerConn, len(s.conns))
	copy(out, s.conns)
	return out
}

// ConnectionCount returns the number of accepted connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// OpenCount returns the number of accepted connections not yet closed.
func (s *Server) OpenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.conns {
		if !c.IsClosed() {
			n++
		}
	}
	return n
}

// Received returns the channel of received messages.
func (s *Server) Received() <-chan Message {
	return s.received
}

// Next waits for the next received message.
func (s *Server) Next(t testing.TB, timeout time.Duration) Message {
	t.Helper()
	select {
	case m := <-s.received:
		return m
	case <-time.After(timeout):
		t.Fatalf("no message received within %v", timeout)
		return Message{}
	}
}

// Close stops the server and drops all connections.
func (s *Server) Close() {
	for _, c := range s.Conns() {
		c.Drop()
	}
	s.srv.Close()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	refuse := s.refuse
	s.mu.Unlock()
	if refuse {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &ServerConn{ws: ws, closed: make(chan struct{})}

	s.mu.Lock()
	s.conns = append(s.conns, c)
	onConnect := s.onConnect
	s.mu.Unlock()

	if onConnect != nil {
		onConnect(c)
	}

	go s.readLoop(c)
}

func (s *Server) readLoop(c *ServerConn) {
	defer c.Drop()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		s.received <- Message{Conn: c, Data: string(data)}
	}
}

// ServerConn is the server side of one client connection.
type ServerConn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// Send pushes a text message to the client.
func (c *ServerConn) Send(data string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, []byte(data))
}

// Drop closes the underlying connection without a close handshake.
func (c *ServerConn) Drop() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// Closed is closed once the connection has ended.
func (c *ServerConn) Closed() <-chan struct{} {
	return c.closed
}

// IsClosed reports whether the connection has ended.
func (c *ServerConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}
