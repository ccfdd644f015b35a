// Command krac-bridge connects Samsung KRAC air conditioners to Home
// Assistant.
//
// The bridge discovers devices via mDNS (plus any statically
// configured addresses), mirrors each device's capability state over
// CBOR/TCP, and publishes a Home Assistant climate entity for every
// air conditioner through MQTT discovery. Connections reconnect with
// backoff; the device roster survives restarts when a state directory
// is configured.
//
// Usage:
//
//	krac-bridge [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-device value         Static device address (host:port, repeatable)
//	-broker string        MQTT broker URL (e.g. tcp://localhost:1883)
//	-state-dir string     Directory for the persisted device roster
//	-protocol-log string  CBOR protocol log file
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-no-mdns              Disable mDNS discovery
//	-no-mqtt              Run without a broker connection
//	-interactive          Start the interactive console
//
// Examples:
//
//	# Discover devices and publish them to a local broker
//	krac-bridge -broker tcp://localhost:1883
//
//	# Bridge a known device without mDNS, with a console
//	krac-bridge -no-mdns -device 192.168.1.40:7337 -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/krac-home/krac-go/cmd/krac-bridge/interactive"
	"github.com/krac-home/krac-go/pkg/config"
	kraclog "github.com/krac-home/krac-go/pkg/log"
	"github.com/krac-home/krac-go/pkg/mqtt"
	"github.com/krac-home/krac-go/pkg/persistence"
	"github.com/krac-home/krac-go/pkg/service"
)

var flags struct {
	configFile  string
	devices     stringList
	broker      string
	stateDir    string
	protocolLog string
	logLevel    string
	noMDNS      bool
	noMQTT      bool
	interactive bool
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path")
	flag.Var(&flags.devices, "device", "Static device address (host:port, repeatable)")
	flag.StringVar(&flags.broker, "broker", "", "MQTT broker URL (e.g. tcp://localhost:1883)")
	flag.StringVar(&flags.stateDir, "state-dir", "", "Directory for the persisted device roster")
	flag.StringVar(&flags.protocolLog, "protocol-log", "", "CBOR protocol log file")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.noMDNS, "no-mdns", false, "Disable mDNS discovery")
	flag.BoolVar(&flags.noMQTT, "no-mqtt", false, "Run without a broker connection")
	flag.BoolVar(&flags.interactive, "interactive", false, "Start the interactive console")
}

func main() {
	flag.Parse()

	// All output goes through a swappable writer so the interactive
	// console can take over once it owns the terminal.
	out := &consoleWriter{w: os.Stderr}
	log.SetOutput(out)
	setupLogging(flags.logLevel)

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Println("KRAC Bridge")
	log.Println("===========")
	if flags.noMQTT {
		log.Println("MQTT:      disabled")
	} else {
		log.Printf("MQTT:      %s", cfg.MQTT.Broker)
	}
	if cfg.Bridge.DisableMDNS {
		log.Println("Discovery: static addresses only")
	} else {
		log.Println("Discovery: mDNS + static addresses")
	}

	svcConfig := service.DefaultBridgeConfig()
	svcConfig.StaticAddresses = cfg.Bridge.Devices
	svcConfig.DisableMDNS = cfg.Bridge.DisableMDNS
	svcConfig.ReconnectMinDelay, svcConfig.ReconnectMaxDelay = cfg.Bridge.ReconnectDelays()
	svcConfig.SubscriptionMinInterval, svcConfig.SubscriptionMaxInterval = cfg.Subscription.Intervals()
	svcConfig.TopicPrefix = cfg.MQTT.TopicPrefix
	svcConfig.DiscoveryPrefix = cfg.MQTT.DiscoveryPrefix
	svcConfig.Logger = newLogger(out, flags.logLevel)

	if cfg.StateDir != "" {
		path := filepath.Join(cfg.StateDir, "bridge.json")
		svcConfig.StateStore = persistence.NewBridgeStateStore(path)
	}

	var protocolLog *kraclog.FileLogger
	if cfg.ProtocolLog != "" {
		protocolLog, err = kraclog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		svcConfig.ProtocolLogger = protocolLog
	}

	var broker *mqtt.Client
	if !flags.noMQTT {
		broker = mqtt.NewClient(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			WillTopic:   mqtt.BridgeAvailabilityTopic(cfg.MQTT.TopicPrefix),
			WillPayload: mqtt.PayloadOffline,
			Logger:      svcConfig.Logger,
		})
		if err := broker.Connect(); err != nil {
			log.Fatalf("Failed to connect to broker %s: %v", cfg.MQTT.Broker, err)
		}
		svcConfig.Publisher = broker
	}

	svc, err := service.NewBridgeService(svcConfig)
	if err != nil {
		log.Fatalf("Failed to create bridge service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}
	log.Printf("Bridge started (state: %s)", svc.State())

	if flags.interactive {
		console, err := interactive.New(svc)
		if err != nil {
			log.Fatalf("Failed to create console: %v", err)
		}
		out.swap(console.Stdout())
		go console.Run(ctx, cancel)
	} else {
		svc.OnEvent(handleEvent)
	}

	// Wait for shutdown signal or console exit
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal: %v", sig)
	case <-ctx.Done():
	}

	log.Println("Shutting down...")

	if err := svc.Stop(); err != nil {
		log.Printf("Error stopping service: %v", err)
	}
	if broker != nil {
		broker.Disconnect()
	}
	if protocolLog != nil {
		_ = protocolLog.Close()
	}

	log.Println("Goodbye!")
}

// loadConfig builds the effective configuration: file values when
// -config is given, defaults otherwise, with flags overriding both.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configFile != "" {
		loaded, err := config.Load(flags.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(flags.devices) > 0 {
		cfg.Bridge.Devices = append(cfg.Bridge.Devices, flags.devices...)
	}
	if flags.broker != "" {
		cfg.MQTT.Broker = flags.broker
	}
	if flags.stateDir != "" {
		cfg.StateDir = flags.stateDir
	}
	if flags.protocolLog != "" {
		cfg.ProtocolLog = flags.protocolLog
	}
	if flags.noMDNS {
		cfg.Bridge.DisableMDNS = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(level string) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	case "warn", "error":
		log.SetFlags(log.Ltime)
	}
}

// newLogger builds the service logger at the requested level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// handleEvent logs service events in non-interactive mode.
func handleEvent(event service.Event) {
	switch event.Type {
	case service.EventDeviceDiscovered:
		log.Printf("[EVENT] Discovered %s at %s", event.DeviceID, event.Address)
	case service.EventConnected:
		log.Printf("[EVENT] Device connected: %s (%s)", event.DeviceID, event.Address)
	case service.EventDisconnected:
		log.Printf("[EVENT] Device disconnected: %s", event.DeviceID)
	}
}

// stringList collects repeated flag values.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	if value == "" {
		return fmt.Errorf("empty address")
	}
	*s = append(*s, value)
	return nil
}

// consoleWriter is an io.Writer whose destination can be swapped at
// runtime, so log output moves above the readline prompt once the
// interactive console starts.
type consoleWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (c *consoleWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *consoleWriter) swap(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w = w
}
