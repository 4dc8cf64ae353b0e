package plugin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/qro-cz/qrows-go/internal/wstest"
	"github.com/qro-cz/qrows-go/pkg/bitstate"
	"github.com/qro-cz/qrows-go/pkg/connection"
	"github.com/qro-cz/qrows-go/pkg/dimmer"
	"github.com/qro-cz/qrows-go/pkg/eventloop"
	"github.com/qro-cz/qrows-go/pkg/streamdeck"
	"github.com/qro-cz/qrows-go/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 3 * time.Second

// mockHost is a testify mock of the host socket.
type mockHost struct {
	mock.Mock
}

func (m *mockHost) Send(msg any) error {
	args := m.Called(msg)
	return args.Error(0)
}

type harness struct {
	t      *testing.T
	loop   *eventloop.Loop
	host   *mockHost
	plugin *Plugin
}

func newHarness(t *testing.T, idle time.Duration) *harness {
	t.Helper()
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()

	h := &harness{t: t, loop: loop, host: &mockHost{}}
	h.host.On("Send", mock.Anything).Return(nil)
	h.plugin = New(loop, h.host, Config{
		Dialer:       transport.NewClient(transport.ClientConfig{ConnectTimeout: 2 * time.Second}),
		RefreshDelay: 50 * time.Millisecond,
		DialTimeout:  2 * time.Second,
		IdleTimeout:  idle,
	})

	t.Cleanup(func() {
		_ = loop.Do(context.Background(), h.plugin.Close)
		cancel()
		<-loop.Done()
	})
	return h
}

func (h *harness) do(fn func()) {
	h.t.Helper()
	require.NoError(h.t, h.loop.Do(context.Background(), fn))
}

func (h *harness) event(format string, args ...any) {
	h.t.Helper()
	data := []byte(fmt.Sprintf(format, args...))
	h.do(func() { h.plugin.HandleMessage(data) })
}

func (h *harness) appear(address, ctxID, id, label string, column int) {
	h.t.Helper()
	h.event(`{"event":"willAppear","context":%q,"device":"dev","payload":{"settings":{"remoteServer":%q,"id":%q,"btnlabel":%q},"coordinates":{"column":%d,"row":0}}}`,
		ctxID, address, id, label, column)
}

// sent returns the messages sent to the host so far. Host sends only happen
// on the loop, so reading the calls there is race free.
func (h *harness) sent() []streamdeck.Message {
	var out []streamdeck.Message
	h.do(func() {
		for _, c := range h.host.Calls {
			out = append(out, c.Arguments.Get(0).(streamdeck.Message))
		}
	})
	return out
}

func (h *harness) resetCalls() {
	h.do(func() { h.host.Calls = nil })
}

func (h *harness) waitOpen(address string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		var open bool
		h.do(func() {
			c, ok := h.plugin.Registry().Connection(address)
			open = ok && c.State() == connection.StateOpen
		})
		return open
	}, waitTimeout, 5*time.Millisecond)
}

func images(msgs []streamdeck.Message) map[string]string {
	out := make(map[string]string)
	for _, m := range msgs {
		if m.Event == streamdeck.EventSetImage {
			out[m.Context] = m.Payload.(streamdeck.ImagePayload).Image
		}
	}
	return out
}

func titles(msgs []streamdeck.Message) map[string]string {
	out := make(map[string]string)
	for _, m := range msgs {
		if m.Event == streamdeck.EventSetTitle {
			out[m.Context] = m.Payload.(streamdeck.TitlePayload).Title
		}
	}
	return out
}

func TestAppearSubscribesAndRegisters(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	h.appear(srv.Address(), "c1", "btn_0", "One", 0)
	h.appear(srv.Address(), "c2", "btn_1", "Two", 1)

	assert.Equal(t, "G", srv.Next(t, waitTimeout).Data)
	h.waitOpen(srv.Address())
	assert.Equal(t, 1, srv.ConnectionCount(), "both buttons share one socket")

	var buttons []Button
	h.do(func() { buttons = h.plugin.Buttons() })
	require.Len(t, buttons, 2)
	assert.Equal(t, Button{ID: "btn_0", Context: "c1", Device: "dev", Label: "One"}, buttons[0])

	var positions []string
	h.do(func() {
		c, _ := h.plugin.Registry().Connection(srv.Address())
		positions = c.Positions()
	})
	assert.ElementsMatch(t, []string{"0-0", "1-0"}, positions)
}

func TestStatusRepaintsAndDims(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, 300*time.Millisecond)

	h.appear(srv.Address(), "c0", "btn_0", "Zero", 0)
	h.appear(srv.Address(), "c3", "btn_3", "Three", 1)
	poll := srv.Next(t, waitTimeout)
	require.Equal(t, "G", poll.Data)
	h.waitOpen(srv.Address())

	require.NoError(t, poll.Conn.Send(`{"B0":8}`))
	require.Eventually(t, func() bool {
		return len(h.sent()) == 4
	}, waitTimeout, 5*time.Millisecond)

	msgs := h.sent()
	assert.Equal(t, map[string]string{"c0": "images/green", "c3": "images/red"}, images(msgs))
	assert.Equal(t, map[string]string{"c0": "Zero", "c3": "Three"}, titles(msgs))

	var current bitstate.State
	var display dimmer.State
	h.do(func() { current, display = h.plugin.Current(), h.plugin.DisplayState() })
	assert.True(t, current[3])
	assert.Equal(t, dimmer.StateActive, display)

	h.resetCalls()
	require.Eventually(t, func() bool {
		return len(h.sent()) == 4
	}, waitTimeout, 5*time.Millisecond, "idle repaint")

	msgs = h.sent()
	assert.Equal(t, map[string]string{"c0": "images/black", "c3": "images/green"}, images(msgs))
	assert.Equal(t, map[string]string{"c0": "", "c3": ""}, titles(msgs))
	h.do(func() { display = h.plugin.DisplayState() })
	assert.Equal(t, dimmer.StateIdle, display)
}

func TestStatusKeepsPreviousSnapshot(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	h.appear(srv.Address(), "c0", "btn_0", "", 0)
	poll := srv.Next(t, waitTimeout)
	h.waitOpen(srv.Address())

	require.NoError(t, poll.Conn.Send(`{"B0":1}`))
	require.NoError(t, poll.Conn.Send(`{"B0":6}`))
	require.Eventually(t, func() bool {
		var v uint16
		h.do(func() { v = bitstate.Decode(h.plugin.Current()) })
		return v == 6
	}, waitTimeout, 5*time.Millisecond)

	var previous bitstate.State
	h.do(func() { previous = h.plugin.Previous() })
	assert.Equal(t, uint16(1), bitstate.Decode(previous))
}

func TestKeyEventSendsBankCommand(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	h.appear(srv.Address(), "c3", "btn_3", "", 0)
	poll := srv.Next(t, waitTimeout)
	h.waitOpen(srv.Address())

	h.event(`{"event":"keyDown","context":"c3","payload":{"settings":{"remoteServer":%q,"id":"btn_3"},"coordinates":{"column":0,"row":0}}}`, srv.Address())
	assert.Equal(t, "X/0/8/1", srv.Next(t, waitTimeout).Data)

	// A remote status with slot 2 set, then a press in bank B.
	require.NoError(t, poll.Conn.Send(`{"B0":4}`))
	require.Eventually(t, func() bool {
		var v uint16
		h.do(func() { v = bitstate.Decode(h.plugin.Current()) })
		return v == 4
	}, waitTimeout, 5*time.Millisecond)

	var ok bool
	h.do(func() { ok = h.plugin.Press(srv.Address(), "btn_10") })
	require.True(t, ok)
	assert.Equal(t, "X/0/1028/2", srv.Next(t, waitTimeout).Data)

	var current bitstate.State
	h.do(func() { current = h.plugin.Current() })
	assert.Equal(t, uint16(1028), bitstate.Decode(current), "pending local edit replaces current state")
}

func TestPressDropped(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	var ok bool
	h.do(func() { ok = h.plugin.Press(srv.Address(), "btn_1") })
	assert.False(t, ok, "unknown address")

	h.appear(srv.Address(), "c1", "btn_1", "", 0)
	srv.Next(t, waitTimeout)
	h.waitOpen(srv.Address())

	for _, id := range []string{"nounderscore", "btn_x", "btn_16"} {
		h.do(func() { ok = h.plugin.Press(srv.Address(), id) })
		assert.False(t, ok, id)
	}
	var current bitstate.State
	h.do(func() { current = h.plugin.Current() })
	assert.Equal(t, bitstate.State{}, current)
}

func TestDisappearSendsFarewell(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	h.appear(srv.Address(), "c1", "btn_1", "", 4)
	srv.Next(t, waitTimeout)
	h.waitOpen(srv.Address())

	farewell := fmt.Sprintf(`{"event":"willDisappear","context":"c1","payload":{"settings":{"remoteServer":%q,"id":"btn_1"},"coordinates":{"column":4,"row":0}}}`, srv.Address())
	h.event("%s", farewell)

	assert.JSONEq(t, farewell, srv.Next(t, waitTimeout).Data)
	var n int
	h.do(func() { n = h.plugin.Registry().Len() })
	assert.Equal(t, 0, n)

	conns := srv.Conns()
	require.Len(t, conns, 1)
	select {
	case <-conns[0].Closed():
	case <-time.After(waitTimeout):
		t.Fatal("socket not closed")
	}

	var buttons []Button
	h.do(func() { buttons = h.plugin.Buttons() })
	assert.Len(t, buttons, 1, "registrations are never evicted")
}

func TestSettingsChangeMovesPosition(t *testing.T) {
	a := wstest.NewServer(t)
	b := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	h.appear(a.Address(), "c1", "btn_1", "", 2)
	a.Next(t, waitTimeout)
	h.waitOpen(a.Address())

	h.event(`{"event":"didReceiveSettings","context":"c1","payload":{"settings":{"remoteServer":%q,"id":"btn_1"},"coordinates":{"column":2,"row":0}}}`, b.Address())
	assert.Equal(t, "G", b.Next(t, waitTimeout).Data)

	var addrs []string
	h.do(func() { addrs = h.plugin.Registry().Addresses() })
	assert.Equal(t, []string{b.Address()}, addrs)
}

func TestConnectionLostResetsDisplay(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	h.appear(srv.Address(), "c1", "btn_1", "", 0)
	h.appear(srv.Address(), "c2", "btn_2", "", 1)
	srv.Next(t, waitTimeout)
	h.waitOpen(srv.Address())
	h.resetCalls()

	srv.Conns()[0].Drop()

	require.Eventually(t, func() bool {
		return len(h.sent()) >= 2
	}, waitTimeout, 5*time.Millisecond)
	assert.Equal(t, map[string]string{"c1": "images/icon", "c2": "images/icon"}, images(h.sent()))

	// The supervisor replaces the socket and polls again.
	assert.Equal(t, "G", srv.Next(t, waitTimeout).Data)
}

func TestConnectionLostResetsAtMostTwelve(t *testing.T) {
	h := newHarness(t, time.Minute)

	for i := 0; i < 14; i++ {
		h.event(`{"event":"willAppear","context":"c%d","payload":{"settings":{"id":"btn_%d"},"coordinates":{"column":%d,"row":1}}}`, i, i%16, i)
	}
	h.do(func() { h.plugin.ConnectionLost("ws://gone") })

	msgs := h.sent()
	require.Len(t, msgs, 12)
	for i, m := range msgs {
		assert.Equal(t, fmt.Sprintf("c%d", i), m.Context)
		assert.Equal(t, streamdeck.EventSetImage, m.Event)
	}
}

func TestMultiActionFiresOnce(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	press := fmt.Sprintf(`{"event":"keyUp","context":"m1","payload":{"settings":{"remoteServer":%q,"id":"btn_2"},"isInMultiAction":true}}`, srv.Address())
	h.event(`{"event":"willAppear","context":"m1","payload":{"settings":{"remoteServer":%q,"id":"btn_2"},"isInMultiAction":true}}`, srv.Address())
	h.event("%s", press)

	assert.JSONEq(t, press, srv.Next(t, waitTimeout).Data)

	var n, buttons int
	h.do(func() {
		n = h.plugin.Registry().Len()
		buttons = len(h.plugin.Buttons())
	})
	assert.Equal(t, 0, n, "multi-action events bypass the registry")
	assert.Equal(t, 0, buttons)
}

func TestMalformedHostMessagesDropped(t *testing.T) {
	h := newHarness(t, time.Minute)

	h.do(func() {
		h.plugin.HandleMessage([]byte(`not json`))
		h.plugin.HandleMessage([]byte(`{"payload":{}}`))
		h.plugin.HandleMessage([]byte(`{"event":"keyDown"}`))
		h.plugin.HandleMessage([]byte(`{"event":"sendToPlugin","context":"pi","payload":{"remoteServer":"ws://x"}}`))
	})
	assert.Empty(t, h.sent())
}

func TestHostSendErrorsIgnored(t *testing.T) {
	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	defer func() {
		cancel()
		<-loop.Done()
	}()

	host := &mockHost{}
	host.On("Send", mock.Anything).Return(fmt.Errorf("host gone"))
	p := New(loop, host, Config{Dialer: transport.NewClient(transport.ClientConfig{})})

	require.NoError(t, loop.Do(context.Background(), func() {
		p.HandleMessage([]byte(`{"event":"willAppear","context":"c","payload":{"settings":{"id":"btn_0"},"coordinates":{"column":0,"row":0}}}`))
		p.ConnectionLost("ws://x")
		p.Close()
	}))
	host.AssertNumberOfCalls(t, "Send", 1)
}

func TestDeliverRunsOnLoop(t *testing.T) {
	h := newHarness(t, time.Minute)

	require.NoError(t, h.plugin.Deliver([]byte(`{"event":"willAppear","context":"c","payload":{"settings":{"id":"btn_0"},"coordinates":{"column":0,"row":0}}}`)))
	require.Eventually(t, func() bool {
		var n int
		h.do(func() { n = len(h.plugin.Buttons()) })
		return n == 1
	}, waitTimeout, 5*time.Millisecond)
}

func TestReappearKeepsEarlierRegistration(t *testing.T) {
	srv := wstest.NewServer(t)
	h := newHarness(t, time.Minute)

	h.appear(srv.Address(), "c0", "btn_0", "Mic", 0)
	srv.Next(t, waitTimeout)
	h.event(`{"event":"willDisappear","context":"c0","payload":{"settings":{"remoteServer":%q},"coordinates":{"column":0,"row":0}}}`, srv.Address())
	h.appear(srv.Address(), "c0", "btn_0", "Mic", 0)

	var buttons []Button
	h.do(func() { buttons = h.plugin.Buttons() })
	require.Len(t, buttons, 2, "registrations are never evicted")
	assert.Equal(t, buttons[0], buttons[1])

	// Both entries are repainted on a status update.
	h.waitOpen(srv.Address())
	conns := srv.Conns()
	h.resetCalls()
	require.NoError(t, conns[len(conns)-1].Send(`{"B0":1}`))
	require.Eventually(t, func() bool {
		n := 0
		for _, m := range h.sent() {
			if m.Event == streamdeck.EventSetImage && m.Context == "c0" {
				n++
			}
		}
		return n == 2
	}, waitTimeout, 5*time.Millisecond)
}
