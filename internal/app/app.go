// Package app holds the wiring shared by the qrows binaries: logging setup,
// protocol capture, and translation of the configuration file into plugin
// settings.
package app

import (
	"fmt"
	stdlog "log"
	"log/slog"
	"os"

	"github.com/qro-cz/qrows-go/pkg/config"
	"github.com/qro-cz/qrows-go/pkg/log"
	"github.com/qro-cz/qrows-go/pkg/plugin"
	"github.com/qro-cz/qrows-go/pkg/transport"
)

// SetupLogging configures the standard logger flags for level.
func SetupLogging(level string) {
	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)

	switch level {
	case "debug":
		stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds | stdlog.Lshortfile)
	case "warn", "error":
		stdlog.SetFlags(stdlog.Ltime)
	}
}

// NewLogger builds a text slog logger on stderr at the named level.
func NewLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// Protocol is the protocol capture pipeline of a binary.
type Protocol struct {
	Logger log.Logger
	file   *log.FileLogger
}

// OpenProtocol fans protocol events out to logger at debug level and, when
// path is set, to a CBOR capture file.
func OpenProtocol(path string, logger *slog.Logger) (*Protocol, error) {
	var loggers []log.Logger
	if logger != nil {
		loggers = append(loggers, log.NewSlogAdapter(logger))
	}

	p := &Protocol{}
	if path != "" {
		f, err := log.NewFileLogger(path)
		if err != nil {
			return nil, fmt.Errorf("open protocol log: %w", err)
		}
		p.file = f
		loggers = append(loggers, f)
	}

	if len(loggers) == 0 {
		p.Logger = log.NoopLogger{}
	} else {
		p.Logger = log.NewMultiLogger(loggers...)
	}
	return p, nil
}

// Path returns the capture file path, or "".
func (p *Protocol) Path() string {
	if p.file == nil {
		return ""
	}
	return p.file.Path()
}

// Close flushes and closes the capture file.
func (p *Protocol) Close() error {
	if p.file == nil {
		return nil
	}
	if n := p.file.Dropped(); n > 0 {
		stdlog.Printf("Protocol log: %d events dropped", n)
	}
	return p.file.Close()
}

// PluginConfig translates the configuration file into plugin settings.
func PluginConfig(cfg *config.Config, logger *slog.Logger, protocol log.Logger) plugin.Config {
	return plugin.Config{
		Dialer:       transport.NewClient(transport.ClientConfig{ConnectTimeout: cfg.Timing.DialTimeout}),
		Policy:       cfg.ReconnectPolicy(),
		RefreshDelay: cfg.Timing.RefreshDelay,
		DialTimeout:  cfg.Timing.DialTimeout,
		IdleTimeout:  cfg.Timing.IdleTimeout,
		Icons: plugin.Icons{
			ActiveOn:  cfg.IconPath(cfg.Icons.Active.On),
			ActiveOff: cfg.IconPath(cfg.Icons.Active.Off),
			IdleOn:    cfg.IconPath(cfg.Icons.Idle.On),
			IdleOff:   cfg.IconPath(cfg.Icons.Idle.Off),
			Reset:     cfg.IconPath(cfg.Icons.Reset),
		},
		ResetSlots:     cfg.Display.ResetSlots,
		Logger:         logger,
		ProtocolLogger: protocol,
	}
}
