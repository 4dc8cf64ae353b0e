package plugin

import (
	"log/slog"
	"time"

	"github.com/qro-cz/qrows-go/pkg/bitstate"
	"github.com/qro-cz/qrows-go/pkg/connection"
	"github.com/qro-cz/qrows-go/pkg/dimmer"
	"github.com/qro-cz/qrows-go/pkg/eventloop"
	"github.com/qro-cz/qrows-go/pkg/log"
	"github.com/qro-cz/qrows-go/pkg/transport"
)

// DefaultResetSlots is how many buttons are reset when a connection drops.
const DefaultResetSlots = 12

// Sender delivers outbound messages to the host.
type Sender interface {
	Send(msg any) error
}

// Icons are the image paths used for repaint.
type Icons struct {
	ActiveOn  string
	ActiveOff string
	IdleOn    string
	IdleOff   string
	Reset     string
}

// DefaultIcons returns the stock image set.
func DefaultIcons() Icons {
	return Icons{
		ActiveOn:  "images/red",
		ActiveOff: "images/green",
		IdleOn:    "images/green",
		IdleOff:   "images/black",
		Reset:     "images/icon",
	}
}

// Config configures a Plugin.
type Config struct {
	// Dialer opens remote server sockets (required).
	Dialer transport.Dialer

	// Policy decides reconnect timing (default: connection.Immediate).
	Policy connection.ReconnectPolicy

	RefreshDelay time.Duration
	DialTimeout  time.Duration
	IdleTimeout  time.Duration

	// Icons default to DefaultIcons when Reset is empty.
	Icons Icons

	// ResetSlots is the size of the display area reset on connection loss
	// (default: 12).
	ResetSlots int

	// OnConnectionState and OnReconnecting observe remote sockets
	// (optional). See connection.Config.
	OnConnectionState func(address string, old, next connection.State)
	OnReconnecting    func(address string, attempt int, delay time.Duration)

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// ProtocolLogger captures remote socket traffic (optional).
	ProtocolLogger log.Logger
}

// Button is a registered host button.
type Button struct {
	ID      string
	Context string
	Device  string
	Label   string
}

// Plugin owns the registry, the dispatcher and the dimmer. All methods
// except Deliver must be called from tasks on the plugin's event loop.
type Plugin struct {
	loop   *eventloop.Loop
	host   Sender
	config Config

	registry   *connection.Registry
	dispatcher *connection.Dispatcher
	dimmer     *dimmer.Dimmer

	buttons  []Button
	current  bitstate.State
	previous bitstate.State
}

// New creates a plugin bound to loop that paints buttons through host.
func New(loop *eventloop.Loop, host Sender, config Config) *Plugin {
	if config.Icons.Reset == "" {
		config.Icons = DefaultIcons()
	}
	if config.ResetSlots <= 0 {
		config.ResetSlots = DefaultResetSlots
	}

	p := &Plugin{
		loop:   loop,
		host:   host,
		config: config,
	}
	p.registry = connection.NewRegistry(loop, connection.Config{
		Dialer:         config.Dialer,
		Policy:         config.Policy,
		RefreshDelay:   config.RefreshDelay,
		DialTimeout:    config.DialTimeout,
		Listener:       p,
		OnStateChange:  config.OnConnectionState,
		OnReconnecting: config.OnReconnecting,
		Logger:         config.Logger,
		ProtocolLogger: config.ProtocolLogger,
	})
	p.dispatcher = connection.NewDispatcher(connection.DispatcherConfig{
		Dialer:         config.Dialer,
		DialTimeout:    config.DialTimeout,
		Logger:         config.Logger,
		ProtocolLogger: config.ProtocolLogger,
	})
	p.dimmer = dimmer.New(loop, dimmer.Config{
		Timeout:  config.IdleTimeout,
		OnActive: func() { p.repaint(true) },
		OnIdle:   func() { p.repaint(false) },
	})
	return p
}

// Deliver queues a raw host message for handling on the loop. It is safe
// to call from any goroutine.
func (p *Plugin) Deliver(data []byte) error {
	return p.loop.Post(func() { p.HandleMessage(data) })
}

// Close stops the dimmer, closes every remote connection without
// reconnecting and waits for in-flight one-shot sends.
func (p *Plugin) Close() {
	p.dimmer.Stop()
	p.registry.Close()
	p.dispatcher.Close()
}

// Registry returns the connection registry.
func (p *Plugin) Registry() *connection.Registry {
	return p.registry
}

// Buttons returns a copy of the registered buttons in appearance order.
func (p *Plugin) Buttons() []Button {
	out := make([]Button, len(p.buttons))
	copy(out, p.buttons)
	return out
}

// Current returns the local button state.
func (p *Plugin) Current() bitstate.State {
	return p.current
}

// Previous returns the state before the last status update. It is kept for
// inspection only; repaint does not diff against it.
func (p *Plugin) Previous() bitstate.State {
	return p.previous
}

// DisplayState returns the dimmer state.
func (p *Plugin) DisplayState() dimmer.State {
	return p.dimmer.State()
}

func (p *Plugin) debugLog(msg string, args ...any) {
	if p.config.Logger != nil {
		p.config.Logger.Debug(msg, args...)
	}
}

var _ connection.Listener = (*Plugin)(nil)
