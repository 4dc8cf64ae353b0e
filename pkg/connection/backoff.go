package connection

import (
	"math/rand"
	"time"
)

// Defaults of BackoffPolicy.
const (
	InitialBackoff    = 1 * time.Second
	MaxBackoff        = 60 * time.Second
	BackoffMultiplier = 2.0

	// JitterFactor is the largest random extra delay, as a fraction of the
	// base delay.
	JitterFactor = 0.25
)

// BackoffConfig holds the parameters of an exponential Backoff.
// Zero fields take the defaults above.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// DefaultBackoffConfig returns the default backoff parameters.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    InitialBackoff,
		Max:        MaxBackoff,
		Multiplier: BackoffMultiplier,
		Jitter:     JitterFactor,
	}
}

// Backoff produces reconnect delays that grow by Multiplier up to Max, each
// with up to Jitter of random extra delay. A Backoff belongs to one
// ServerConnection and is used only from the event loop.
type Backoff struct {
	cfg      BackoffConfig
	base     time.Duration
	attempts int
	rng      *rand.Rand
}

// NewBackoff creates a backoff with DefaultBackoffConfig.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(DefaultBackoffConfig())
}

// NewBackoffWithConfig creates a backoff, replacing unusable fields with
// defaults.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max <= 0 {
		cfg.Max = MaxBackoff
	}
	cfg.Max = max(cfg.Max, cfg.Initial)
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = BackoffMultiplier
	}
	cfg.Jitter = max(cfg.Jitter, 0)

	return &Backoff{
		cfg:  cfg,
		base: cfg.Initial,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the delay for the coming attempt and grows the base delay.
func (b *Backoff) Next() time.Duration {
	delay := b.base
	if b.cfg.Jitter > 0 {
		delay += time.Duration(float64(b.base) * b.cfg.Jitter * b.rng.Float64())
	}

	b.attempts++
	b.base = min(time.Duration(float64(b.base)*b.cfg.Multiplier), b.cfg.Max)
	return delay
}

// Reset returns to the initial delay. Called whenever a socket opens.
func (b *Backoff) Reset() {
	b.base = b.cfg.Initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last Reset.
func (b *Backoff) Attempts() int {
	return b.attempts
}

// Current returns the base delay of the coming attempt, without jitter.
func (b *Backoff) Current() time.Duration {
	return b.base
}
