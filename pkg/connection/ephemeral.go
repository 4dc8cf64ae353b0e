package connection

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qro-cz/qrows-go/pkg/log"
	"github.com/qro-cz/qrows-go/pkg/transport"
)

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Dialer opens the throwaway sockets (required).
	Dialer transport.Dialer

	// DialTimeout bounds each attempt (default: 10s).
	DialTimeout time.Duration

	// Logger is the optional logger for debug output.
	Logger *slog.Logger

	// ProtocolLogger captures sends and failures (optional).
	ProtocolLogger log.Logger
}

// Dispatcher sends one-shot messages on sockets that are not tracked by the
// registry. Delivery is best effort: there is no retry and failures are
// never reported to the caller.
type Dispatcher struct {
	config DispatcherConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.DialTimeout <= 0 {
		config.DialTimeout = DefaultDialTimeout
	}
	if config.ProtocolLogger == nil {
		config.ProtocolLogger = log.NoopLogger{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{config: config, ctx: ctx, cancel: cancel}
}

// FireOnce JSON-encodes message, opens a socket to address, sends the
// message once and closes the socket. It returns immediately.
func (d *Dispatcher) FireOnce(address string, message any) {
	if address == "" {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		d.debugLog("FireOnce: encode failed", "address", address, "error", err)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(address, data)
	}()
}

func (d *Dispatcher) deliver(address string, data []byte) {
	id := uuid.NewString()

	ctx, cancel := context.WithTimeout(d.ctx, d.config.DialTimeout)
	defer cancel()

	conn, err := d.config.Dialer.Dial(ctx, address)
	if err != nil {
		d.debugLog("FireOnce: dial failed", "address", address, "error", err)
		d.logError(id, address, err, "dial")
		return
	}
	defer conn.Close()

	if err := conn.Send(data); err != nil {
		d.debugLog("FireOnce: send failed", "address", address, "error", err)
		d.logError(id, address, err, "send EPHEMERAL")
		return
	}

	d.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: id,
		Direction:    log.DirectionOut,
		Category:     log.CategoryMessage,
		Address:      address,
		Message:      log.NewMessageEvent(log.MessageKindEphemeral, data),
	})
}

// Wait blocks until every in-flight send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close aborts pending dials and waits for in-flight sends.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) logError(id, address string, err error, op string) {
	d.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: id,
		Direction:    log.DirectionOut,
		Category:     log.CategoryError,
		Address:      address,
		Error:        &log.ErrorEventData{Message: err.Error(), Context: op},
	})
}

func (d *Dispatcher) debugLog(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, args...)
	}
}
