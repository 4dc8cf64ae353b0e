package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}

	for name, icon := range map[string]string{
		"icons.active.on":  cfg.Icons.Active.On,
		"icons.active.off": cfg.Icons.Active.Off,
		"icons.idle.on":    cfg.Icons.Idle.On,
		"icons.idle.off":   cfg.Icons.Idle.Off,
		"icons.reset":      cfg.Icons.Reset,
	} {
		if icon == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, name)
		}
	}

	if cfg.Display.ResetSlots < 0 {
		return fmt.Errorf("%w: display.reset_slots must not be negative", ErrInvalidConfig)
	}

	for name, d := range map[string]int64{
		"timing.refresh_delay": int64(cfg.Timing.RefreshDelay),
		"timing.idle_timeout":  int64(cfg.Timing.IdleTimeout),
		"timing.dial_timeout":  int64(cfg.Timing.DialTimeout),
		"reconnect.initial":    int64(cfg.Reconnect.Initial),
		"reconnect.max":        int64(cfg.Reconnect.Max),
		"discovery.timeout":    int64(cfg.Discovery.Timeout),
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, name)
		}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Reconnect.Policy)) {
	case "", PolicyImmediate, PolicyBackoff:
	default:
		return fmt.Errorf("%w: reconnect.policy %q (want %s or %s)",
			ErrInvalidConfig, cfg.Reconnect.Policy, PolicyImmediate, PolicyBackoff)
	}
	if cfg.Reconnect.Multiplier != 0 && cfg.Reconnect.Multiplier < 1 {
		return fmt.Errorf("%w: reconnect.multiplier must be at least 1", ErrInvalidConfig)
	}
	if cfg.Reconnect.Jitter < 0 || cfg.Reconnect.Jitter > 1 {
		return fmt.Errorf("%w: reconnect.jitter must be within [0,1]", ErrInvalidConfig)
	}
	if cfg.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("%w: reconnect.max_attempts must not be negative", ErrInvalidConfig)
	}

	if _, err := ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ParseLevel maps a level name to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
}
