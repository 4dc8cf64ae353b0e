package discovery

import (
	"context"
	"log/slog"
	"time"
)

// Browser finds remote servers.
type Browser interface {
	// Browse streams services as they are found. The channel is closed when
	// ctx is cancelled.
	Browse(ctx context.Context) (<-chan *Service, error)

	// Lookup browses for the configured timeout and returns every service
	// found, sorted by instance name.
	Lookup(ctx context.Context) ([]*Service, error)
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Service is the DNS-SD service type (default: _qrows._tcp).
	Service string

	// Timeout bounds Lookup (default: 3 seconds).
	Timeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// Logger is the optional logger for debug output.
	Logger *slog.Logger
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Service: ServiceType,
		Timeout: BrowseTimeout,
	}
}
