// Command qrows-plugin is the control-panel plugin binary.
//
// The host application launches it with the registration arguments:
//
//	qrows-plugin -port 28196 -pluginUUID <uuid> -registerEvent registerPlugin -info '<json>'
//
// The plugin registers on the host socket, then keeps one websocket per
// remote server configured on the panel's buttons, forwarding key presses
// as bank commands and painting the remote state back onto the buttons.
//
// Flags:
//
//	-port int             Host websocket port (required)
//	-pluginUUID string    Plugin instance UUID (required)
//	-registerEvent string Registration event name (required)
//	-info string          Host application info (JSON)
//	-config string        Configuration file path
//	-log-level string     Log level: debug, info, warn, error (default from config)
//	-protocol-log string  Write a CBOR protocol capture to this file
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/qro-cz/qrows-go/internal/app"
	"github.com/qro-cz/qrows-go/pkg/config"
	"github.com/qro-cz/qrows-go/pkg/eventloop"
	"github.com/qro-cz/qrows-go/pkg/plugin"
	"github.com/qro-cz/qrows-go/pkg/streamdeck"
)

// Flags holds the launch arguments.
type Flags struct {
	Port          int
	PluginUUID    string
	RegisterEvent string
	Info          string
	ConfigFile    string
	LogLevel      string
	ProtocolLog   string
}

var flags Flags

func init() {
	flag.IntVar(&flags.Port, "port", 0, "Host websocket port")
	flag.StringVar(&flags.PluginUUID, "pluginUUID", "", "Plugin instance UUID")
	flag.StringVar(&flags.RegisterEvent, "registerEvent", "", "Registration event name")
	flag.StringVar(&flags.Info, "info", "", "Host application info (JSON)")
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Write a CBOR protocol capture to this file")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if flags.LogLevel != "" {
		cfg.Log.Level = flags.LogLevel
	}
	if flags.ProtocolLog != "" {
		cfg.Log.ProtocolFile = flags.ProtocolLog
	}

	app.SetupLogging(cfg.Log.Level)
	logger, err := app.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	if err := validateFlags(); err != nil {
		log.Fatalf("Invalid arguments: %v", err)
	}

	info, err := streamdeck.ParseInfo(flags.Info)
	if err != nil {
		log.Printf("Warning: %v", err)
	} else {
		logger.Info("Host application", "version", info.Application.Version,
			"platform", info.Application.Platform, "devices", len(info.Devices))
	}

	protocol, err := app.OpenProtocol(cfg.Log.ProtocolFile, logger)
	if err != nil {
		log.Fatalf("Failed to open protocol log: %v", err)
	}
	defer protocol.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The loop outlives ctx so shutdown can still run on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loop := eventloop.New()
	go func() { _ = loop.Run(loopCtx) }()

	host, err := streamdeck.Connect(ctx, streamdeck.HostConfig{
		URL:           streamdeck.HostURL(flags.Port),
		PluginUUID:    flags.PluginUUID,
		RegisterEvent: flags.RegisterEvent,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("Failed to connect to host: %v", err)
	}
	defer host.Close()

	p := plugin.New(loop, host, app.PluginConfig(cfg, logger, protocol.Logger))
	logger.Info("Plugin registered", "port", flags.Port, "policy", cfg.Reconnect.Policy)

	// The host closing its socket is the normal way the plugin is stopped.
	if err := host.Run(ctx, func(data []byte) {
		if err := p.Deliver(data); err != nil {
			logger.Debug("Host message dropped", "error", err)
		}
	}); err != nil {
		log.Printf("Host connection: %v", err)
	}

	log.Println("Shutting down...")
	if err := loop.Do(context.Background(), p.Close); err != nil {
		log.Printf("Error stopping plugin: %v", err)
	}
	stopLoop()
	<-loop.Done()
}

func validateFlags() error {
	switch {
	case flags.Port <= 0 || flags.Port > 65535:
		return errors.New("-port must be a valid TCP port")
	case flags.PluginUUID == "":
		return errors.New("-pluginUUID is required")
	case flags.RegisterEvent == "":
		return errors.New("-registerEvent is required")
	}
	return nil
}

var _ plugin.Sender = (*streamdeck.Host)(nil)
