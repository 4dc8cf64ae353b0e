// Package streamdeck implements the host side of the control-panel plugin
// protocol.
//
// The host launches the plugin with a port, a plugin UUID and a register
// event name. The plugin dials ws://127.0.0.1:<port>, sends a registration
// message and from then on exchanges JSON text frames:
//
//   - inbound events describe buttons appearing, disappearing, changing
//     settings, and being pressed
//   - outbound events repaint buttons (setImage, setTitle)
//
// Events are decoded leniently: unknown fields are ignored and the raw
// message is kept so it can be forwarded verbatim to remote servers.
package streamdeck
