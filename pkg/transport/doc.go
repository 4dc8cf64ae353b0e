// Package transport provides the websocket client used to reach remote
// servers and the host control-panel platform.
//
// Every message is a single text frame. The transport does not frame,
// compress or authenticate payloads; remote servers are expected on
// loopback-class networks.
//
// # Connection Lifecycle
//
//	Dial ──► Send / Receive ... ──► Close
//
// Receive blocks until a frame arrives or the connection fails. Close may be
// called from any goroutine and unblocks a pending Receive. After Close, Send
// and Receive return ErrConnectionClosed.
package transport
