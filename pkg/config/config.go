// Package config loads the plugin configuration file.
//
// The file is optional. Every key has a default matching the behavior of
// the plugin without configuration, so an empty file and no file are
// equivalent.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// Reconnect policy names.
const (
	PolicyImmediate = "immediate"
	PolicyBackoff   = "backoff"
)

// Defaults.
const (
	DefaultIconDir          = "images"
	DefaultResetSlots       = 12
	DefaultRefreshDelay     = 1000 * time.Millisecond
	DefaultIdleTimeout      = 600000 * time.Millisecond
	DefaultDialTimeout      = 10 * time.Second
	DefaultDiscoveryService = "_qrows._tcp"
	DefaultDiscoveryTimeout = 3 * time.Second
)

// Config is the root of the configuration file.
type Config struct {
	Icons     IconConfig      `yaml:"icons"`
	Display   DisplayConfig   `yaml:"display"`
	Timing    TimingConfig    `yaml:"timing"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Log       LogConfig       `yaml:"log"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// ---- ICONS ----

// IconConfig names the images used for button repaint. Names are relative
// to Dir and carry no extension; the host resolves them.
type IconConfig struct {
	Dir    string  `yaml:"dir"`
	Active IconSet `yaml:"active"`
	Idle   IconSet `yaml:"idle"`
	Reset  string  `yaml:"reset"`
}

// IconSet is an on/off image pair.
type IconSet struct {
	On  string `yaml:"on"`
	Off string `yaml:"off"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	// ResetSlots is how many buttons are reset when a connection drops.
	ResetSlots int `yaml:"reset_slots"`
}

// ---- TIMING ----

type TimingConfig struct {
	RefreshDelay time.Duration `yaml:"refresh_delay"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
}

// ---- RECONNECT ----

type ReconnectConfig struct {
	Policy      string        `yaml:"policy"`
	Initial     time.Duration `yaml:"initial"`
	Max         time.Duration `yaml:"max"`
	Multiplier  float64       `yaml:"multiplier"`
	Jitter      float64       `yaml:"jitter"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// ---- LOG ----

type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// ProtocolFile enables CBOR protocol capture when set.
	ProtocolFile string `yaml:"protocol_file"`
}

// ---- DISCOVERY ----

type DiscoveryConfig struct {
	Service string        `yaml:"service"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Icons: IconConfig{
			Dir:    DefaultIconDir,
			Active: IconSet{On: "red", Off: "green"},
			Idle:   IconSet{On: "green", Off: "black"},
			Reset:  "icon",
		},
		Display: DisplayConfig{ResetSlots: DefaultResetSlots},
		Timing: TimingConfig{
			RefreshDelay: DefaultRefreshDelay,
			IdleTimeout:  DefaultIdleTimeout,
			DialTimeout:  DefaultDialTimeout,
		},
		Reconnect: ReconnectConfig{Policy: PolicyImmediate},
		Log:       LogConfig{Level: "info"},
		Discovery: DiscoveryConfig{
			Service: DefaultDiscoveryService,
			Timeout: DefaultDiscoveryTimeout,
		},
	}
}

// Parse decodes YAML over the defaults, then normalizes and validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}

// Load reads and parses the file at path. An empty path returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
