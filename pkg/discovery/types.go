package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// mDNS service constants.
const (
	// ServiceType is the mDNS service type KRAC devices advertise.
	ServiceType = "_krac._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default KRAC listen port.
	DefaultPort = 7337
)

// TXT record keys.
const (
	TXTKeyDeviceID = "id" // device ID (required)
	TXTKeyModel    = "md" // model string
	TXTKeyLabel    = "lb" // user-facing label
	TXTKeyFirmware = "fw" // firmware version
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total size of the encoded TXT
	// records, to keep announcements within a single mDNS packet.
	MaxTXTRecordSize = 400
)

// BrowseTimeout is the default timeout for one-shot lookups.
const BrowseTimeout = 10 * time.Second

// Discovery errors.
var (
	ErrInvalidTXTRecord = errors.New("invalid TXT record")
	ErrMissingRequired  = errors.New("missing required field")
	ErrNotFound         = errors.New("service not found")
)

// Info is the identity a device advertises.
type Info struct {
	// DeviceID is the unique device identifier (required).
	DeviceID string

	// Model is the model string.
	Model string

	// Label is the user-facing device label.
	Label string

	// Firmware is the firmware version.
	Firmware string

	// Port is the service port. Zero means DefaultPort.
	Port uint16
}

// Validate checks that the info can be advertised.
func (i *Info) Validate() error {
	if i.DeviceID == "" {
		return fmt.Errorf("%w: device ID", ErrMissingRequired)
	}
	return nil
}

// Service is a KRAC device found via mDNS.
type Service struct {
	// InstanceName is the mDNS instance name (e.g. "KRAC-a1b2c3").
	InstanceName string

	// Host is the advertised hostname (e.g. "livingroom.local.").
	Host string

	// Port is the service port.
	Port uint16

	// Addresses contains the resolved IP addresses.
	Addresses []string

	// DeviceID is the device ID from the TXT record.
	DeviceID string

	// Model is the model string from the TXT record.
	Model string

	// Label is the user-facing label from the TXT record.
	Label string

	// Firmware is the firmware version from the TXT record.
	Firmware string
}

// Addr returns a dialable "host:port", preferring the first resolved
// address over the hostname.
func (s *Service) Addr() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// Advertiser announces a device on the local network.
type Advertiser interface {
	// Advertise starts announcing the device. A second call replaces
	// the running advertisement.
	Advertise(ctx context.Context, info *Info) error

	// Update refreshes the TXT records of a running advertisement.
	Update(info *Info) error

	// Stop withdraws the advertisement.
	Stop() error
}

// Browser finds devices on the local network.
type Browser interface {
	// Browse emits each device once, as it is first seen. The channel
	// closes when the context is cancelled.
	Browse(ctx context.Context) (<-chan *Service, error)

	// FindByDeviceID waits for a specific device to appear.
	FindByDeviceID(ctx context.Context, deviceID string) (*Service, error)
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface selects a network interface by name.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		TTL: 120 * time.Second,
	}
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout bounds one-shot lookups when the caller's context
	// has no deadline.
	BrowseTimeout time.Duration

	// Interface selects a network interface by name.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
	}
}
