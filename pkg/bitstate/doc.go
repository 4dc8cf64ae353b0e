// Package bitstate converts between the remote server's packed status value
// and the per-slot illumination flags shown on the panel.
//
// # Layout
//
// The status is an unsigned 16-bit integer. Bit i (0 = least significant)
// carries the flag of slot i:
//
//	value = sum(state[i] * 2^i) for i in 0..15
//
// # Banks
//
// The 16 slots form two banks of eight: A (slots 0-7) and B (slots 8-15).
// Selecting a slot is exclusive within its bank. The command sent to the
// remote server has the fixed form
//
//	X/0/<value>/<bank>
//
// where value is the packed state after the selection and bank is 1 for A
// and 2 for B. The remote server's own pushed state may have any number of
// slots set per bank and is accepted as-is.
package bitstate
