package discovery

import (
	"context"
	"net"
	"sort"

	"github.com/enbility/zeroconf/v3"
)

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	if config.Service == "" {
		config.Service = ServiceType
	}
	if config.Timeout <= 0 {
		config.Timeout = BrowseTimeout
	}
	return &MDNSBrowser{config: config}
}

// Browse searches for remote servers.
// Services are aggregated by instance name - addresses from multiple interfaces
// are combined into a single entry. Removals are handled when interfaces disappear.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *Service, error) {
	out := make(chan *Service)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	opts := b.browserOptions()

	go func() {
		defer close(out)

		services := make(map[string]*Service)
		gone := removed

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := b.entryToService(entry)
				if svc == nil {
					continue
				}

				existing, found := services[svc.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-gone:
				if !ok {
					gone = nil
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry.AddrIPv4, entry.AddrIPv6)
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		if err := zeroconf.Browse(ctx, b.config.Service, Domain, entries, removed, opts...); err != nil {
			b.debugLog("Browse failed", "service", b.config.Service, "error", err)
		}
	}()

	return out, nil
}

// Lookup browses for the configured timeout and collects the results.
func (b *MDNSBrowser) Lookup(ctx context.Context) ([]*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	found, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	var services []*Service
	for svc := range found {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].InstanceName < services[j].InstanceName
	})
	return services, nil
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// entryToService converts a zeroconf entry to a Service. Entries with bad
// TXT records are skipped.
func (b *MDNSBrowser) entryToService(entry *zeroconf.ServiceEntry) *Service {
	svc, err := newService(entry.Instance, entry.HostName, entry.Port, entry.AddrIPv4, entry.AddrIPv6, entry.Text)
	if err != nil {
		b.debugLog("Browse: entry skipped", "instance", entry.Instance, "error", err)
		return nil
	}
	return svc
}

func newService(instance, host string, port int, ipv4, ipv6 []net.IP, text []string) (*Service, error) {
	info, err := DecodeServiceTXT(StringsToTXTRecords(text))
	if err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(ipv4)+len(ipv6))
	for _, ip := range ipv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range ipv6 {
		addrs = append(addrs, ip.String())
	}

	name := info.Name
	if name == "" {
		name = instance
	}

	return &Service{
		InstanceName: instance,
		Host:         host,
		Port:         uint16(port),
		Addresses:    addrs,
		Name:         name,
		Scheme:       info.Scheme,
		Path:         info.Path,
	}, nil
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes the given IPs from the list.
func removeAddresses(addresses []string, ipv4, ipv6 []net.IP) []string {
	toRemove := make(map[string]bool)
	for _, ip := range ipv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range ipv6 {
		toRemove[ip.String()] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}

func (b *MDNSBrowser) debugLog(msg string, args ...any) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, args...)
	}
}

// Ensure MDNSBrowser implements Browser interface.
var _ Browser = (*MDNSBrowser)(nil)
