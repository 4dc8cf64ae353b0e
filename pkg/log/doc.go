// Package log provides structured protocol logging for remote-server sockets.
//
// This package defines the Logger interface and Event types for capturing
// every socket lifecycle change and every message exchanged with remote
// servers. It is separate from operational logging (slog): protocol capture
// provides a machine-readable trace for debugging a panel that stopped
// tracking its server.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For field debugging: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/tmp/qrows.qlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Message: a poll, bank command, farewell or ephemeral message sent, or a
//     status update received (MessageEvent)
//   - State: socket lifecycle changes such as CONNECTING -> OPEN (StateChangeEvent)
//   - Error: dial failures and malformed inbound messages (ErrorEventData)
//
// # File Format
//
// Log files use CBOR encoding with the .qlog extension. The qrows-log tool
// provides viewing, export and statistics.
package log
