package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: config}
}

// Advertise starts announcing the device. A second call replaces the
// running advertisement.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info *Info) error {
	if err := info.Validate(); err != nil {
		return err
	}

	txtStrings := TXTRecordsToStrings(EncodeTXT(info))
	if size := txtSize(txtStrings); size > MaxTXTRecordSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInvalidTXTRecord, size, MaxTXTRecordSize)
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(
		InstanceName(info.DeviceID),
		ServiceType,
		Domain,
		port,
		txtStrings,
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	return nil
}

// Update refreshes the TXT records of the running advertisement.
func (a *MDNSAdvertiser) Update(info *Info) error {
	if err := info.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotFound
	}

	a.server.SetText(TXTRecordsToStrings(EncodeTXT(info)))
	return nil
}

// Stop withdraws the advertisement.
func (a *MDNSAdvertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	return nil
}

func (a *MDNSAdvertiser) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse searches for KRAC devices until the context is cancelled.
// Entries are aggregated by instance name, so a device seen on
// multiple interfaces is emitted once with its addresses merged.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *Service, error) {
	out := make(chan *Service)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		services := make(map[string]*Service)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToService(entry)
				if svc == nil {
					continue
				}

				if existing, found := services[svc.InstanceName]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}

				services[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entryAddresses(entry))
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
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, b.options()...)
	}()

	return out, nil
}

// FindByDeviceID waits for a specific device to appear. When the
// context has no deadline, the configured browse timeout applies.
func (b *MDNSBrowser) FindByDeviceID(ctx context.Context, deviceID string) (*Service, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := b.config.BrowseTimeout
		if timeout <= 0 {
			timeout = BrowseTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case svc, ok := <-results:
			if !ok {
				return nil, ErrNotFound
			}
			if svc.DeviceID == deviceID {
				return svc, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrNotFound, deviceID)
		}
	}
}

func (b *MDNSBrowser) options() []zeroconf.ClientOption {
	if b.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(b.config.Interface)
	if err != nil {
		return nil
	}
	return []zeroconf.ClientOption{zeroconf.SelectIfaces([]net.Interface{*iface})}
}

// entryToService converts a zeroconf entry. Returns nil for entries
// that do not carry a valid KRAC TXT record.
func entryToService(entry *zeroconf.ServiceEntry) *Service {
	return serviceFromParts(entry.Instance, entry.HostName, entry.Port, entry.Text, entryAddresses(entry))
}

// serviceFromParts builds a Service from raw mDNS entry fields.
func serviceFromParts(instance, host string, port int, text, addrs []string) *Service {
	info, err := DecodeTXT(StringsToTXTRecords(text))
	if err != nil {
		return nil
	}
	return &Service{
		InstanceName: instance,
		Host:         host,
		Port:         uint16(port),
		Addresses:    addrs,
		DeviceID:     info.DeviceID,
		Model:        info.Model,
		Label:        info.Label,
		Firmware:     info.Firmware,
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses appends the addresses from update that are not
// already present in existing.
func mergeAddresses(existing, update []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range update {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses returns existing without the given addresses.
func removeAddresses(existing, gone []string) []string {
	drop := make(map[string]bool, len(gone))
	for _, addr := range gone {
		drop[addr] = true
	}
	kept := existing[:0]
	for _, addr := range existing {
		if !drop[addr] {
			kept = append(kept, addr)
		}
	}
	return kept
}

var (
	_ Advertiser = (*MDNSAdvertiser)(nil)
	_ Browser    = (*MDNSBrowser)(nil)
)
