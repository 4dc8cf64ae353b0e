package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service advertised by remote servers.
	ServiceType = "_qrows._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// BrowseTimeout is the default duration of a Lookup.
	BrowseTimeout = 3 * time.Second
)

// TXT record keys.
const (
	TXTKeyPath   = "path"
	TXTKeyScheme = "scheme"
	TXTKeyName   = "name"
)

// Websocket schemes accepted in the scheme TXT key.
const (
	SchemeWS  = "ws"
	SchemeWSS = "wss"
)

// Discovery errors.
var (
	ErrInvalidScheme = errors.New("invalid scheme")
	ErrInvalidPath   = errors.New("invalid path")
	ErrNoAddress     = errors.New("service has no address")
)

// Service is a remote server found on the network.
type Service struct {
	// InstanceName is the DNS-SD instance name.
	InstanceName string

	// Host is the advertised host name.
	Host string

	// Port is the websocket port.
	Port uint16

	// Addresses are the resolved IP addresses, IPv4 first.
	Addresses []string

	// Name is the display name.
	Name string

	// Scheme is ws or wss.
	Scheme string

	// Path is the websocket path, always starting with "/".
	Path string
}

// URL returns the websocket address built from the first resolved address.
func (s *Service) URL() (string, error) {
	if len(s.Addresses) == 0 {
		return "", ErrNoAddress
	}
	return s.urlFor(s.Addresses[0]), nil
}

// URLs returns one websocket address per resolved address.
func (s *Service) URLs() []string {
	out := make([]string, 0, len(s.Addresses))
	for _, addr := range s.Addresses {
		out = append(out, s.urlFor(addr))
	}
	return out
}

func (s *Service) urlFor(addr string) string {
	return s.Scheme + "://" + net.JoinHostPort(addr, strconv.Itoa(int(s.Port))) + s.Path
}
