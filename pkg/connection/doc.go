// Package connection shares remote-server sockets between panel positions.
//
// This package handles:
//   - One socket per remote address, reference-counted by subscribing position
//   - Automatic replacement of sockets that close unexpectedly
//   - Exclusive-selection commands and state polls to remote servers
//   - Best-effort one-shot sends on throwaway sockets
//
// # Event Loop
//
// Registry methods and every socket callback run on a single
// eventloop.Loop. Registry methods must only be called from loop tasks.
// Socket goroutines never touch registry state directly: they post open,
// message and close events to the loop, where each handler first checks that
// its socket is still the one registered for the address.
//
// # Subscription
//
// A position belongs to at most one address. Subscribing it elsewhere
// removes it from its previous address first. A ServerConnection exists
// exactly while its position set is non-empty; removing the last position
// detaches the close handler and closes the socket, so the close is not
// treated as a loss.
//
// # Reconnection
//
// When a registered socket closes on its own, the supervisor opens a
// replacement for the same address and swaps it in place; positions are
// untouched. Timing comes from a ReconnectPolicy:
//
//	Immediate    reopen at once, forever (default)
//	Backoff      1s, 2s, 4s ... 60s with jitter, optional attempt limit
//
// Every opened socket sends the "G" poll so the server pushes its state.
// Prior commands are not replayed.
//
// # Delivery
//
// Messages for a socket that is not open are dropped, never queued. The
// refresh poll requested while a socket is still connecting is retried once
// after RefreshDelay and then dropped.
package connection
