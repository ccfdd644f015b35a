package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/krac-home/krac-go/pkg/config"
	"github.com/krac-home/krac-go/pkg/log"
	"github.com/krac-home/krac-go/pkg/mqtt"
	"github.com/krac-home/krac-go/pkg/persistence"
	"github.com/krac-home/krac-go/pkg/subscription"
	"github.com/krac-home/krac-go/pkg/transport"
)

// Service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrAlreadyStarted = errors.New("service already started")
	ErrNotConnected   = errors.New("not connected")
	ErrDeviceNotFound = errors.New("device not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// ServiceState represents the service state.
type ServiceState uint8

const (
	// StateIdle - service created but not started.
	StateIdle ServiceState = iota

	// StateStarting - service is starting up.
	StateStarting

	// StateRunning - service is running normally.
	StateRunning

	// StateStopping - service is shutting down.
	StateStopping

	// StateStopped - service has stopped.
	StateStopped
)

// String returns the state name.
func (s ServiceState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// DeviceConfig configures a DeviceService.
type DeviceConfig struct {
	// ListenAddress is the address to listen on (e.g., ":7337").
	ListenAddress string

	// DisableMDNS turns off mDNS advertising.
	DisableMDNS bool

	// Subscription configures per-connection subscription limits and
	// heartbeat behavior.
	Subscription subscription.Config

	// StateStore persists attribute state across restarts (optional).
	StateStore *persistence.DeviceStateStore

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger captures wire-level events (optional).
	ProtocolLogger log.Logger
}

// BridgeConfig configures a BridgeService.
type BridgeConfig struct {
	// StaticAddresses lists "host:port" addresses the bridge connects
	// to in addition to mDNS discoveries.
	StaticAddresses []string

	// DisableMDNS turns off mDNS browsing.
	DisableMDNS bool

	// ConnectTimeout is the timeout for dialing a device.
	ConnectTimeout time.Duration

	// RequestTimeout is the timeout for each request to a device.
	RequestTimeout time.Duration

	// SubscriptionMinInterval is the minimum notification interval.
	SubscriptionMinInterval time.Duration

	// SubscriptionMaxInterval is the heartbeat interval.
	SubscriptionMaxInterval time.Duration

	// ReconnectMinDelay and ReconnectMaxDelay bound the exponential
	// backoff after a device connection drops.
	ReconnectMinDelay time.Duration
	ReconnectMaxDelay time.Duration

	// KeepAlive configures liveness probing on each device link. Zero
	// fields fall back to the transport defaults.
	KeepAlive transport.KeepAliveConfig

	// Publisher is the MQTT connection entities publish through.
	// If nil, Home Assistant publishing is disabled.
	Publisher mqtt.Publisher

	// TopicPrefix is the prefix for state and command topics.
	TopicPrefix string

	// DiscoveryPrefix is the Home Assistant discovery topic prefix.
	DiscoveryPrefix string

	// StateStore persists the device roster across restarts (optional).
	StateStore *persistence.BridgeStateStore

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger captures wire-level events (optional).
	ProtocolLogger log.Logger
}

// DefaultDeviceConfig returns a DeviceConfig with sensible defaults.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		ListenAddress: fmt.Sprintf(":%d", transport.DefaultPort),
		Subscription:  subscription.DefaultConfig(),
	}
}

// DefaultBridgeConfig returns a BridgeConfig with sensible defaults.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		ConnectTimeout:          10 * time.Second,
		RequestTimeout:          10 * time.Second,
		SubscriptionMinInterval: subscription.DefaultMinInterval,
		SubscriptionMaxInterval: subscription.DefaultMaxInterval,
		ReconnectMinDelay:       config.DefaultReconnectMinDelay,
		ReconnectMaxDelay:       config.DefaultReconnectMaxDelay,
		KeepAlive:               transport.DefaultKeepAliveConfig(),
		TopicPrefix:             "krac",
		DiscoveryPrefix:         "homeassistant",
	}
}

// Validate checks if the device config is valid.
func (c *DeviceConfig) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("%w: listen address required", ErrInvalidConfig)
	}
	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		return fmt.Errorf("%w: listen address %q", ErrInvalidConfig, c.ListenAddress)
	}
	return nil
}

// Validate checks if the bridge config is valid.
func (c *BridgeConfig) Validate() error {
	for _, addr := range c.StaticAddresses {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%w: device address %q", ErrInvalidConfig, addr)
		}
	}
	if c.ReconnectMinDelay > c.ReconnectMaxDelay {
		return fmt.Errorf("%w: reconnect min delay exceeds max delay", ErrInvalidConfig)
	}
	if c.SubscriptionMinInterval > c.SubscriptionMaxInterval {
		return fmt.Errorf("%w: subscription min interval exceeds max interval", ErrInvalidConfig)
	}
	if c.Publisher != nil {
		if c.TopicPrefix == "" {
			return fmt.Errorf("%w: topic prefix required", ErrInvalidConfig)
		}
		if c.DiscoveryPrefix == "" {
			return fmt.Errorf("%w: discovery prefix required", ErrInvalidConfig)
		}
	}
	return nil
}

// ConnectedDevice describes a device the bridge knows about.
type ConnectedDevice struct {
	// DeviceID is the unique device identifier.
	DeviceID string

	// Label is the user-facing device label.
	Label string

	// Model is the OCF model string.
	Model string

	// Address is the "host:port" the bridge dials.
	Address string

	// Connected indicates if the device is currently connected.
	Connected bool

	// HasEntity indicates if the device is exposed as a climate entity.
	HasEntity bool

	// LastSeen is when the device was last connected.
	LastSeen time.Time
}

// Event types for service callbacks.
type EventType uint8

const (
	// EventConnected - connection established.
	EventConnected EventType = iota

	// EventDisconnected - connection lost.
	EventDisconnected

	// EventValueChanged - attribute value changed.
	EventValueChanged

	// EventCommandInvoked - capability command executed.
	EventCommandInvoked

	// EventDeviceDiscovered - new device discovered via mDNS.
	EventDeviceDiscovered
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventValueChanged:
		return "VALUE_CHANGED"
	case EventCommandInvoked:
		return "COMMAND_INVOKED"
	case EventDeviceDiscovered:
		return "DEVICE_DISCOVERED"
	default:
		return "UNKNOWN"
	}
}

// Event represents a service event.
type Event struct {
	// Type is the event type.
	Type EventType

	// DeviceID is the device ID the event concerns.
	DeviceID string

	// ConnID is the connection ID (for connection events).
	ConnID string

	// Address is the remote address (for connection and discovery events).
	Address string

	// Component is the component ID (for value change and command events).
	Component string

	// Capability is the capability ID (for value change and command events).
	Capability string

	// Attribute is the attribute name (for value change events).
	Attribute string

	// Value is the new value (for value change events).
	Value any

	// Command is the command name (for command events).
	Command string

	// Arguments are the command arguments (for command events).
	Arguments []any

	// Error is set if the event is an error.
	Error error
}

// EventHandler handles service events.
type EventHandler func(Event)
