// Package discovery finds remote servers on the local network via
// mDNS/DNS-SD.
//
// Remote servers advertise the _qrows._tcp service. The instance name is a
// free-form label; TXT records refine how the websocket endpoint is built:
//
//   - path:   websocket path on the server (default "/")
//   - scheme: ws or wss (default ws)
//   - name:   display name shown by tools (default: instance name)
//
// A service resolved on several interfaces is reported once with all its
// addresses; the first address is used to build the endpoint URL.
package discovery
