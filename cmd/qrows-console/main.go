// Command qrows-console drives the plugin core from a terminal, without the
// host application.
//
// It creates real connections to remote servers, so it is useful to check a
// server setup before installing the plugin: make a button appear, press
// it, watch the status updates repaint the simulated panel.
//
// Usage:
//
//	qrows-console [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-log-level string     Log level: debug, info, warn, error (default from config)
//	-protocol-log string  Write a CBOR protocol capture to this file
//	-no-discovery         Disable the discover command
//
// Example session:
//
//	qrows> discover
//	qrows> appear ws://studio.local:1880/ws 0 0 btn_0 Mic
//	qrows> press ws://studio.local:1880/ws btn_0
//	qrows> status
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/qro-cz/qrows-go/cmd/qrows-console/interactive"
	"github.com/qro-cz/qrows-go/internal/app"
	"github.com/qro-cz/qrows-go/pkg/config"
	"github.com/qro-cz/qrows-go/pkg/discovery"
	"github.com/qro-cz/qrows-go/pkg/eventloop"
	"github.com/qro-cz/qrows-go/pkg/plugin"
)

var (
	configFile  = flag.String("config", "", "Configuration file path")
	logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error")
	protocolLog = flag.String("protocol-log", "", "Write a CBOR protocol capture to this file")
	noDiscovery = flag.Bool("no-discovery", false, "Disable the discover command")
)

const shutdownTimeout = 5 * time.Second

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *protocolLog != "" {
		cfg.Log.ProtocolFile = *protocolLog
	}
	app.SetupLogging(cfg.Log.Level)

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The loop outlives ctx so the plugin can still be closed on it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loop := eventloop.New()
	go func() { _ = loop.Run(loopCtx) }()

	var browser discovery.Browser
	if !*noDiscovery {
		browser = discovery.NewMDNSBrowser(discovery.BrowserConfig{
			Service: cfg.Discovery.Service,
			Timeout: cfg.Discovery.Timeout,
		})
	}

	var protocol *app.Protocol
	console, err := interactive.New(loop, browser, func(out io.Writer) plugin.Config {
		logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
		protocol, err = app.OpenProtocol(cfg.Log.ProtocolFile, logger)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		return app.PluginConfig(cfg, logger, protocol.Logger)
	})
	if err != nil {
		log.Fatalf("Failed to start console: %v", err)
	}
	log.SetOutput(console.Stdout())
	if path := protocol.Path(); path != "" {
		log.Printf("Protocol capture: %s", path)
	}

	console.Run(ctx, cancel)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := console.Close(shutdownCtx); err != nil {
		log.Printf("Shutdown: %v", err)
	}
	stopLoop()
	<-loop.Done()

	if err := protocol.Close(); err != nil {
		log.Printf("Protocol log: %v", err)
	}
}
