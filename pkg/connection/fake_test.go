package connection

import (
	"context"
	"sync"

	"github.com/qro-cz/qrows-go/pkg/transport"
)

// blockingDialer holds every Dial until release is called.
type blockingDialer struct {
	gate chan *fakeConn
}

func newBlockingDialer() *blockingDialer {
	return &blockingDialer{gate: make(chan *fakeConn, 1)}
}

func (d *blockingDialer) Dial(ctx context.Context, _ string) (transport.Conn, error) {
	select {
	case c := <-d.gate:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *blockingDialer) release() *fakeConn {
	c := newFakeConn()
	d.gate <- c
	return c
}

// fakeConn records sends and blocks Receive until closed.
type fakeConn struct {
	mu       sync.Mutex
	messages []string

	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, string(data))
	return nil
}

func (c *fakeConn) Receive() ([]byte, error) {
	<-c.closed
	return nil, transport.ErrConnectionClosed
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "fake" }

func (c *fakeConn) sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.messages))
	copy(out, c.messages)
	return out
}
