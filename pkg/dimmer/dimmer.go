// Package dimmer switches the panel display between an active and a dimmed
// look after a period without status updates.
//
// The dimmer is a debounce with a single timer slot: every Touch cancels the
// pending timer and starts a new one. Only when a full timeout passes
// without a Touch does the display go idle.
package dimmer

import (
	"time"

	"github.com/qro-cz/qrows-go/pkg/eventloop"
)

// DefaultTimeout is the inactivity period before dimming (10 minutes).
const DefaultTimeout = 600000 * time.Millisecond

// State represents the display state.
type State uint8

const (
	// StateActive indicates recent status updates.
	StateActive State = iota

	// StateIdle indicates no update for a full timeout.
	StateIdle
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateIdle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// Config configures a Dimmer.
type Config struct {
	// Timeout is the inactivity period (default: 10 minutes).
	Timeout time.Duration

	// OnActive is called on every Touch.
	OnActive func()

	// OnIdle is called when the timeout expires.
	OnIdle func()
}

// Dimmer tracks display activity. All methods must be called from tasks on
// the dimmer's event loop; callbacks run there too.
type Dimmer struct {
	loop   *eventloop.Loop
	config Config

	state State
	timer *eventloop.Timer
}

// New creates a dimmer in the idle state with no pending timer.
func New(loop *eventloop.Loop, config Config) *Dimmer {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Dimmer{
		loop:   loop,
		config: config,
		state:  StateIdle,
	}
}

// Touch records a status update: the state becomes active, OnActive runs,
// and the idle timer restarts.
func (d *Dimmer) Touch() {
	d.state = StateActive
	if d.config.OnActive != nil {
		d.config.OnActive()
	}

	d.cancel()
	d.timer = d.loop.AfterFunc(d.config.Timeout, d.expire)
}

// Stop cancels the pending timer without changing state.
func (d *Dimmer) Stop() {
	d.cancel()
}

// State returns the current state.
func (d *Dimmer) State() State {
	return d.state
}

// Pending reports whether an idle timer is scheduled.
func (d *Dimmer) Pending() bool {
	return d.timer != nil
}

func (d *Dimmer) cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Dimmer) expire() {
	d.timer = nil
	d.state = StateIdle
	if d.config.OnIdle != nil {
		d.config.OnIdle()
	}
}
