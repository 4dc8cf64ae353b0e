package connection

import "time"

// ReconnectPolicy decides when a lost socket is replaced.
// Each ServerConnection gets its own Retrier.
type ReconnectPolicy interface {
	NewRetrier() Retrier
}

// Retrier schedules reconnect attempts for one ServerConnection.
type Retrier interface {
	// Next returns the delay before the next attempt, or false to stop
	// reconnecting.
	Next() (time.Duration, bool)

	// Reset is called whenever a socket opens.
	Reset()
}

// Immediate reopens a lost socket at once, with no limit on attempts.
type Immediate struct{}

// NewRetrier returns a retrier that always retries without delay.
func (Immediate) NewRetrier() Retrier { return immediateRetrier{} }

type immediateRetrier struct{}

func (immediateRetrier) Next() (time.Duration, bool) { return 0, true }
func (immediateRetrier) Reset()                      {}

// BackoffPolicy waits an exponentially growing, jittered delay between
// attempts. MaxAttempts limits consecutive failed attempts; zero means no
// limit.
type BackoffPolicy struct {
	Config      BackoffConfig
	MaxAttempts int
}

// NewRetrier returns a retrier backed by a fresh Backoff.
func (p BackoffPolicy) NewRetrier() Retrier {
	return &backoffRetrier{
		backoff:     NewBackoffWithConfig(p.Config),
		maxAttempts: p.MaxAttempts,
	}
}

type backoffRetrier struct {
	backoff     *Backoff
	maxAttempts int
}

func (r *backoffRetrier) Next() (time.Duration, bool) {
	if r.maxAttempts > 0 && r.backoff.Attempts() >= r.maxAttempts {
		return 0, false
	}
	return r.backoff.Next(), true
}

func (r *backoffRetrier) Reset() {
	r.backoff.Reset()
}

// Compile-time interface satisfaction checks.
var (
	_ ReconnectPolicy = Immediate{}
	_ ReconnectPolicy = BackoffPolicy{}
)
