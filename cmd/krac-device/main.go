// Command krac-device runs a simulated Samsung ARTIK051_KRAC_18K air
// conditioner.
//
// The device listens for bridge connections over CBOR/TCP, advertises
// itself via mDNS and simulates a room whose temperature drifts toward
// the cooling setpoint while the unit runs. State survives restarts
// when a state directory is configured.
//
// Usage:
//
//	krac-device [flags]
//
// Flags:
//
//	-config string        Configuration file path
//	-listen string        Listen address (host:port)
//	-id string            Device ID (generated if empty)
//	-label string         Device label
//	-state-dir string     Directory for persisted device state
//	-protocol-log string  CBOR protocol log file
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-no-mdns              Disable mDNS advertising
//	-simulate             Run the environment simulation (default true)
//	-interactive          Start the interactive console
//
// Examples:
//
//	# Start with defaults and an interactive console
//	krac-device -interactive
//
//	# Start from a config file with persistent state
//	krac-device -config ac.yaml -state-dir /var/lib/krac
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/krac-home/krac-go/cmd/krac-device/interactive"
	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/config"
	kraclog "github.com/krac-home/krac-go/pkg/log"
	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/persistence"
	"github.com/krac-home/krac-go/pkg/service"
)

var flags struct {
	configFile  string
	listen      string
	deviceID    string
	label       string
	stateDir    string
	protocolLog string
	logLevel    string
	noMDNS      bool
	simulate    bool
	interactive bool
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path")
	flag.StringVar(&flags.listen, "listen", "", "Listen address (host:port)")
	flag.StringVar(&flags.deviceID, "id", "", "Device ID (generated if empty)")
	flag.StringVar(&flags.label, "label", "", "Device label")
	flag.StringVar(&flags.stateDir, "state-dir", "", "Directory for persisted device state")
	flag.StringVar(&flags.protocolLog, "protocol-log", "", "CBOR protocol log file")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.noMDNS, "no-mdns", false, "Disable mDNS advertising")
	flag.BoolVar(&flags.simulate, "simulate", true, "Run the environment simulation")
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

	log.Println("KRAC Air Conditioner")
	log.Println("====================")
	log.Printf("Device ID: %s", cfg.Device.ID)
	log.Printf("Label:     %s", cfg.Device.Label)
	log.Printf("Model:     %s", caps.ModelARTIK051KRAC18K)
	log.Printf("Listen:    %s", cfg.Device.Listen)

	device := caps.NewAirConditionerDevice(cfg.Device.ID, cfg.Device.Label)
	seedEnvironment(device, cfg)

	svcConfig := service.DefaultDeviceConfig()
	svcConfig.ListenAddress = cfg.Device.Listen
	svcConfig.DisableMDNS = cfg.Device.DisableMDNS
	svcConfig.Logger = newLogger(out, flags.logLevel)

	if cfg.StateDir != "" {
		path := filepath.Join(cfg.StateDir, "device-"+cfg.Device.ID+".json")
		svcConfig.StateStore = persistence.NewDeviceStateStore(path)
	}

	var protocolLog *kraclog.FileLogger
	if cfg.ProtocolLog != "" {
		protocolLog, err = kraclog.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			log.Fatalf("Failed to open protocol log: %v", err)
		}
		svcConfig.ProtocolLogger = protocolLog
	}

	svc, err := service.NewDeviceService(device, svcConfig)
	if err != nil {
		log.Fatalf("Failed to create device service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}
	log.Printf("Service started (state: %s, addr: %s)", svc.State(), svc.Addr())

	sim := NewSimulator(device)
	if flags.simulate {
		sim.Start()
		log.Println("Simulation running")
	}

	if flags.interactive {
		console, err := interactive.New(svc, sim)
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
	sim.Stop()

	if err := svc.Stop(); err != nil {
		log.Printf("Error stopping service: %v", err)
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

	if flags.listen != "" {
		cfg.Device.Listen = flags.listen
	}
	if flags.deviceID != "" {
		cfg.Device.ID = flags.deviceID
	}
	if flags.label != "" {
		cfg.Device.Label = flags.label
	}
	if flags.stateDir != "" {
		cfg.StateDir = flags.stateDir
	}
	if flags.protocolLog != "" {
		cfg.ProtocolLog = flags.protocolLog
	}
	if flags.noMDNS {
		cfg.Device.DisableMDNS = true
	}

	if cfg.Device.ID == "" {
		cfg.Device.ID = uuid.New().String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// seedEnvironment applies the configured starting values. Persisted
// state restored by the service afterwards takes precedence.
func seedEnvironment(device *model.Device, cfg *config.Config) {
	if t, err := caps.TemperatureOf(device); err == nil {
		_ = t.SetTemperature(cfg.Device.InitialTemperature)
	}
	if sp, err := caps.CoolingSetpointOf(device); err == nil {
		_ = sp.SetSetpoint(cfg.Device.InitialSetpoint)
	}
	if h, err := caps.HumidityOf(device); err == nil {
		_ = h.SetHumidity(ambientHumidity)
	}
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
	case service.EventConnected:
		log.Printf("[EVENT] Bridge connected: %s", event.Address)
	case service.EventDisconnected:
		log.Printf("[EVENT] Bridge disconnected: %s", event.Address)
	case service.EventCommandInvoked:
		log.Printf("[EVENT] Command %s.%s invoked", event.Capability, event.Command)
	case service.EventValueChanged:
		// The simulator touches the measurements every tick, skip them.
		switch event.Capability {
		case caps.CapTemperatureMeasurement, caps.CapRelativeHumidityMeasurement:
			return
		}
		log.Printf("[EVENT] %s.%s = %v", event.Capability, event.Attribute, event.Value)
	}
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
