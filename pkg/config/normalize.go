package config

import (
	"strings"

	"github.com/qro-cz/qrows-go/pkg/connection"
)

// Normalize fills zero values with defaults and tidies paths.
// It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	def := Default()

	cfg.Icons.Dir = strings.TrimRight(cfg.Icons.Dir, "/")
	if cfg.Icons.Dir == "" {
		cfg.Icons.Dir = def.Icons.Dir
	}
	if cfg.Display.ResetSlots == 0 {
		cfg.Display.ResetSlots = def.Display.ResetSlots
	}
	if cfg.Timing.RefreshDelay == 0 {
		cfg.Timing.RefreshDelay = def.Timing.RefreshDelay
	}
	if cfg.Timing.IdleTimeout == 0 {
		cfg.Timing.IdleTimeout = def.Timing.IdleTimeout
	}
	if cfg.Timing.DialTimeout == 0 {
		cfg.Timing.DialTimeout = def.Timing.DialTimeout
	}

	cfg.Reconnect.Policy = strings.ToLower(strings.TrimSpace(cfg.Reconnect.Policy))
	if cfg.Reconnect.Policy == "" {
		cfg.Reconnect.Policy = PolicyImmediate
	}
	backoff := connection.DefaultBackoffConfig()
	if cfg.Reconnect.Initial == 0 {
		cfg.Reconnect.Initial = backoff.Initial
	}
	if cfg.Reconnect.Max == 0 {
		cfg.Reconnect.Max = backoff.Max
	}
	if cfg.Reconnect.Multiplier == 0 {
		cfg.Reconnect.Multiplier = backoff.Multiplier
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Discovery.Service == "" {
		cfg.Discovery.Service = def.Discovery.Service
	}
	if cfg.Discovery.Timeout == 0 {
		cfg.Discovery.Timeout = def.Discovery.Timeout
	}
}

// ReconnectPolicy builds the registry reconnect policy.
func (c *Config) ReconnectPolicy() connection.ReconnectPolicy {
	if c.Reconnect.Policy != PolicyBackoff {
		return connection.Immediate{}
	}
	return connection.BackoffPolicy{
		Config: connection.BackoffConfig{
			Initial:    c.Reconnect.Initial,
			Max:        c.Reconnect.Max,
			Multiplier: c.Reconnect.Multiplier,
			Jitter:     c.Reconnect.Jitter,
		},
		MaxAttempts: c.Reconnect.MaxAttempts,
	}
}

// IconPath joins an icon name with the icon directory.
func (c *Config) IconPath(name string) string {
	return c.Icons.Dir + "/" + name
}
