package streamdeck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/qro-cz/qrows-go/pkg/transport"
)

// HostURL returns the address of the host socket on the loopback interface.
func HostURL(port int) string {
	return "ws://127.0.0.1:" + strconv.Itoa(port)
}

// HostConfig configures a Host connection.
type HostConfig struct {
	// URL of the host socket, usually HostURL(port).
	URL string

	// PluginUUID identifies this plugin instance to the host.
	PluginUUID string

	// RegisterEvent is the event name used for registration.
	RegisterEvent string

	// Dialer opens the socket (default: a transport.Client).
	Dialer transport.Dialer

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// Host is a registered connection to the host application. Send is safe for
// concurrent use.
type Host struct {
	config HostConfig
	conn   transport.Conn
}

// Connect dials the host and sends the registration message.
func Connect(ctx context.Context, config HostConfig) (*Host, error) {
	if config.Dialer == nil {
		config.Dialer = transport.NewClient(transport.ClientConfig{})
	}

	conn, err := config.Dialer.Dial(ctx, config.URL)
	if err != nil {
		return nil, fmt.Errorf("connect host: %w", err)
	}

	h := &Host{config: config, conn: conn}
	if err := h.Send(Registration{Event: config.RegisterEvent, UUID: config.PluginUUID}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("register plugin: %w", err)
	}
	h.debugLog("Host: registered", "url", config.URL, "event", config.RegisterEvent)
	return h, nil
}

// Send marshals msg to JSON and writes it as one text frame.
func (h *Host) Send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal host message: %w", err)
	}
	return h.conn.Send(data)
}

// Run reads host messages until the socket closes or ctx is cancelled,
// passing each raw message to handle. A normal close returns nil.
func (h *Host) Run(ctx context.Context, handle func([]byte)) error {
	stop := context.AfterFunc(ctx, func() { _ = h.conn.Close() })
	defer stop()

	for {
		data, err := h.conn.Receive()
		if err != nil {
			if ctx.Err() != nil || transport.IsNormalClose(err) || errors.Is(err, transport.ErrConnectionClosed) {
				return nil
			}
			return fmt.Errorf("host read: %w", err)
		}
		handle(data)
	}
}

// Close closes the host socket.
func (h *Host) Close() error {
	return h.conn.Close()
}

func (h *Host) debugLog(msg string, args ...any) {
	if h.config.Logger != nil {
		h.config.Logger.Debug(msg, args...)
	}
}
