// Package plugin connects the host control panel to the remote servers.
//
// A Plugin runs entirely on one event loop. Host events arrive through
// HandleMessage and drive the connection registry: buttons appearing
// subscribe their position to the configured remote server, buttons
// disappearing unsubscribe it, and key events become bank commands.
// Status updates from remote servers repaint every registered button and
// restart the idle dimmer; a dropped connection resets the first buttons
// to the neutral icon.
package plugin
