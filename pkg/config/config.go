package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/krac-home/krac-go/pkg/discovery"
	"github.com/krac-home/krac-go/pkg/subscription"
)

// ErrInvalidConfig is wrapped by all validation errors.
var ErrInvalidConfig = errors.New("invalid configuration")

// Reconnect backoff defaults.
const (
	DefaultReconnectMinDelay = 1 * time.Second
	DefaultReconnectMaxDelay = 30 * time.Second
)

// Config is the root configuration. The device binary reads the device
// and subscription sections; the bridge reads the rest.
type Config struct {
	// Device configures the simulated device.
	Device DeviceConfig `yaml:"device"`

	// Bridge configures discovery and device connections.
	Bridge BridgeConfig `yaml:"bridge"`

	// MQTT configures the bridge's broker connection.
	MQTT MQTTConfig `yaml:"mqtt"`

	// Subscription configures attribute change notification intervals.
	Subscription SubscriptionConfig `yaml:"subscription"`

	// StateDir is where JSON state files are written. Empty disables
	// persistence.
	StateDir string `yaml:"state_dir"`

	// ProtocolLog is the CBOR protocol log file. Empty disables it.
	ProtocolLog string `yaml:"protocol_log"`
}

// DeviceConfig is the simulated device profile.
type DeviceConfig struct {
	// ID is the device ID. Empty generates one at startup.
	ID string `yaml:"id"`

	// Label is the user-facing device label.
	Label string `yaml:"label"`

	// Listen is the TCP listen address.
	Listen string `yaml:"listen"`

	// InitialTemperature is the starting room temperature in Celsius.
	InitialTemperature float64 `yaml:"initial_temperature"`

	// InitialSetpoint is the starting cooling setpoint in Celsius.
	InitialSetpoint float64 `yaml:"initial_setpoint"`

	// DisableMDNS turns off mDNS advertising.
	DisableMDNS bool `yaml:"disable_mdns"`
}

// BridgeConfig configures how the bridge finds and holds device
// connections.
type BridgeConfig struct {
	// Devices lists static "host:port" addresses the bridge connects
	// to in addition to mDNS discoveries.
	Devices []string `yaml:"devices"`

	// DisableMDNS turns off mDNS browsing.
	DisableMDNS bool `yaml:"disable_mdns"`

	// ReconnectMinDelay and ReconnectMaxDelay bound the exponential
	// backoff after a device connection drops.
	ReconnectMinDelay string `yaml:"reconnect_min_delay"`
	ReconnectMaxDelay string `yaml:"reconnect_max_delay"`
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. "tcp://localhost:1883".
	Broker string `yaml:"broker"`

	// ClientID identifies the bridge to the broker.
	ClientID string `yaml:"client_id"`

	// Username and Password are passed through to the broker
	// connection. The local device protocol itself is unauthenticated.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// DiscoveryPrefix is the Home Assistant discovery topic prefix.
	DiscoveryPrefix string `yaml:"discovery_prefix"`

	// TopicPrefix is the prefix for state and command topics.
	TopicPrefix string `yaml:"topic_prefix"`
}

// SubscriptionConfig configures change notification intervals.
type SubscriptionConfig struct {
	// MinInterval is the minimum delay between notifications.
	MinInterval string `yaml:"min_interval"`

	// MaxInterval is the heartbeat interval.
	MaxInterval string `yaml:"max_interval"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Label:              "Samsung AC",
			Listen:             fmt.Sprintf(":%d", discovery.DefaultPort),
			InitialTemperature: 26.0,
			InitialSetpoint:    24.0,
		},
		Bridge: BridgeConfig{
			ReconnectMinDelay: DefaultReconnectMinDelay.String(),
			ReconnectMaxDelay: DefaultReconnectMaxDelay.String(),
		},
		MQTT: MQTTConfig{
			Broker:          "tcp://localhost:1883",
			ClientID:        "krac-bridge",
			DiscoveryPrefix: "homeassistant",
			TopicPrefix:     "krac",
		},
		Subscription: SubscriptionConfig{
			MinInterval: subscription.DefaultMinInterval.String(),
			MaxInterval: subscription.DefaultMaxInterval.String(),
		},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks all sections.
func (c *Config) Validate() error {
	if err := c.Device.validate(); err != nil {
		return err
	}
	if err := c.Bridge.validate(); err != nil {
		return err
	}
	if err := c.MQTT.validate(); err != nil {
		return err
	}
	return c.Subscription.validate()
}

func (c *DeviceConfig) validate() error {
	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			return validationError("device.listen", c.Listen, "must be host:port")
		}
	}
	return nil
}

func (c *BridgeConfig) validate() error {
	for _, addr := range c.Devices {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return validationError("bridge.devices", addr, "must be host:port")
		}
	}

	min, err := parseDuration("bridge.reconnect_min_delay", c.ReconnectMinDelay)
	if err != nil {
		return err
	}
	max, err := parseDuration("bridge.reconnect_max_delay", c.ReconnectMaxDelay)
	if err != nil {
		return err
	}
	if min > max {
		return validationError("bridge.reconnect_min_delay", c.ReconnectMinDelay, "exceeds reconnect_max_delay")
	}
	return nil
}

func (c *MQTTConfig) validate() error {
	if c.Broker == "" {
		return validationError("mqtt.broker", "", "must not be empty")
	}
	if c.ClientID == "" {
		return validationError("mqtt.client_id", "", "must not be empty")
	}
	if err := validateTopicPrefix("mqtt.discovery_prefix", c.DiscoveryPrefix); err != nil {
		return err
	}
	return validateTopicPrefix("mqtt.topic_prefix", c.TopicPrefix)
}

func (c *SubscriptionConfig) validate() error {
	min, err := parseDuration("subscription.min_interval", c.MinInterval)
	if err != nil {
		return err
	}
	max, err := parseDuration("subscription.max_interval", c.MaxInterval)
	if err != nil {
		return err
	}
	if max <= 0 {
		return validationError("subscription.max_interval", c.MaxInterval, "must be positive")
	}
	if min > max {
		return validationError("subscription.min_interval", c.MinInterval, "exceeds max_interval")
	}
	return nil
}

// ReconnectDelays returns the parsed backoff bounds.
func (c *BridgeConfig) ReconnectDelays() (min, max time.Duration) {
	min = durationOr(c.ReconnectMinDelay, DefaultReconnectMinDelay)
	max = durationOr(c.ReconnectMaxDelay, DefaultReconnectMaxDelay)
	return min, max
}

// Intervals returns the parsed notification intervals.
func (c *SubscriptionConfig) Intervals() (min, max time.Duration) {
	min = durationOr(c.MinInterval, subscription.DefaultMinInterval)
	max = durationOr(c.MaxInterval, subscription.DefaultMaxInterval)
	return min, max
}

func durationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, validationError(field, s, "must be a duration like \"1s\"")
	}
	if d < 0 {
		return 0, validationError(field, s, "must not be negative")
	}
	return d, nil
}

func validateTopicPrefix(field, prefix string) error {
	if prefix == "" {
		return validationError(field, prefix, "must not be empty")
	}
	if strings.ContainsAny(prefix, "+#") {
		return validationError(field, prefix, "must not contain wildcards")
	}
	if strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/") {
		return validationError(field, prefix, "must not start or end with /")
	}
	return nil
}

func validationError(field, value, msg string) error {
	if value == "" {
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, msg)
	}
	return fmt.Errorf("%w: %s: %q %s", ErrInvalidConfig, field, value, msg)
}
