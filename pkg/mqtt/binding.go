package mqtt

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/krac-home/krac-go/pkg/climate"
	"github.com/krac-home/krac-go/pkg/quirks"
)

// PresetNone is the climate platform's "no preset" value. The vendor
// vocabulary calls it off.
const PresetNone = "none"

const (
	defaultCommandTimeout = 10 * time.Second
	commandQueueSize      = 16
)

// Publisher is the slice of Client a binding uses.
type Publisher interface {
	Publish(topic string, payload []byte, retain bool) error
	Subscribe(topic string, handler MessageHandler) error
	Unsubscribe(topic string) error
}

var _ Publisher = (*Client)(nil)

// BindingConfig configures a ClimateBinding.
type BindingConfig struct {
	// Topics is the device's topic layout.
	Topics Topics

	// DiscoveryPrefix is the Home Assistant discovery prefix.
	DiscoveryPrefix string

	// BridgeAvailability names the bridge-wide availability topic in
	// the discovery payload next to the per-device one. Empty leaves
	// only the device topic.
	BridgeAvailability string

	// CommandTimeout bounds one inbound command. Zero means 10s.
	CommandTimeout time.Duration

	// Logger receives command failures. Nil disables logging.
	Logger *slog.Logger
}

// ClimateBinding ties one air conditioner entity to the broker: state
// facets out, commands in. Inbound commands are dispatched on a
// separate goroutine so a slow device never blocks the MQTT receive
// path.
type ClimateBinding struct {
	ac  *climate.AirConditioner
	pub Publisher
	cfg BindingConfig

	commands chan command

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type commandKind uint8

const (
	cmdMode commandKind = iota + 1
	cmdTemperature
	cmdFanMode
	cmdSwingMode
	cmdPresetMode
)

func (k commandKind) String() string {
	switch k {
	case cmdMode:
		return "mode"
	case cmdTemperature:
		return "temperature"
	case cmdFanMode:
		return "fan_mode"
	case cmdSwingMode:
		return "swing_mode"
	case cmdPresetMode:
		return "preset_mode"
	default:
		return "unknown"
	}
}

type command struct {
	kind    commandKind
	payload string
}

// NewClimateBinding creates a binding for one entity.
func NewClimateBinding(ac *climate.AirConditioner, pub Publisher, cfg BindingConfig) *ClimateBinding {
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = defaultCommandTimeout
	}
	return &ClimateBinding{
		ac:       ac,
		pub:      pub,
		cfg:      cfg,
		commands: make(chan command, commandQueueSize),
	}
}

// Entity returns the bound air conditioner.
func (b *ClimateBinding) Entity() *climate.AirConditioner {
	return b.ac
}

// Start subscribes to the command topics and launches the dispatcher.
func (b *ClimateBinding) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.cancel != nil {
		b.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	b.cancel = cancel
	b.done = done
	b.mu.Unlock()

	var subscribed []string
	for topic, kind := range b.commandTopics() {
		handler := func(_ string, payload []byte) {
			b.enqueue(kind, string(payload))
		}
		if err := b.pub.Subscribe(topic, handler); err != nil {
			for _, sub := range subscribed {
				_ = b.pub.Unsubscribe(sub)
			}
			cancel()
			close(done)
			b.mu.Lock()
			b.cancel = nil
			b.done = nil
			b.mu.Unlock()
			return err
		}
		subscribed = append(subscribed, topic)
	}

	go b.run(ctx, done)
	return nil
}

// Stop halts the dispatcher and drops the command subscriptions.
func (b *ClimateBinding) Stop() {
	b.mu.Lock()
	cancel := b.cancel
	done := b.done
	b.cancel = nil
	b.done = nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	for topic := range b.commandTopics() {
		_ = b.pub.Unsubscribe(topic)
	}
}

func (b *ClimateBinding) commandTopics() map[string]commandKind {
	t := b.cfg.Topics
	return map[string]commandKind{
		t.ModeSet():        cmdMode,
		t.TemperatureSet(): cmdTemperature,
		t.FanModeSet():     cmdFanMode,
		t.SwingModeSet():   cmdSwingMode,
		t.PresetModeSet():  cmdPresetMode,
	}
}

// enqueue hands a command to the dispatcher without blocking the MQTT
// callback goroutine.
func (b *ClimateBinding) enqueue(kind commandKind, payload string) {
	select {
	case b.commands <- command{kind: kind, payload: payload}:
	default:
		b.logInfo("command queue full, dropping", "command", kind.String(), "payload", payload)
	}
}

func (b *ClimateBinding) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-b.commands:
			b.dispatch(ctx, cmd)
		}
	}
}

func (b *ClimateBinding) dispatch(ctx context.Context, cmd command) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.CommandTimeout)
	defer cancel()

	payload := strings.TrimSpace(cmd.payload)

	var err error
	switch cmd.kind {
	case cmdMode:
		err = b.ac.SetHVACMode(ctx, climate.HVACMode(payload))
	case cmdTemperature:
		var target float64
		target, err = strconv.ParseFloat(payload, 64)
		if err == nil {
			err = b.ac.SetTemperature(ctx, climate.TemperatureRequest{Target: target})
		}
	case cmdFanMode:
		err = b.ac.SetFanMode(ctx, payload)
	case cmdSwingMode:
		err = b.ac.SetSwingMode(ctx, payload)
	case cmdPresetMode:
		if strings.EqualFold(payload, PresetNone) {
			payload = "off"
		}
		err = b.ac.SetPresetMode(ctx, payload)
	}

	if err != nil {
		b.logInfo("command failed", "command", cmd.kind.String(), "payload", cmd.payload, "error", err)
		return
	}

	if err := b.PublishState(); err != nil {
		b.logInfo("state publish failed", "error", err)
	}
}

// PublishDiscovery announces the entity to Home Assistant. The payload
// is retained so the entity survives HA restarts.
func (b *ClimateBinding) PublishDiscovery() error {
	payload, err := json.Marshal(b.discoveryPayload())
	if err != nil {
		return err
	}
	topic := DiscoveryTopic(b.cfg.DiscoveryPrefix, b.ac.Device().ID())
	return b.pub.Publish(topic, payload, true)
}

// RemoveDiscovery retracts the entity. Home Assistant deletes entities
// whose retained config is cleared.
func (b *ClimateBinding) RemoveDiscovery() error {
	topic := DiscoveryTopic(b.cfg.DiscoveryPrefix, b.ac.Device().ID())
	return b.pub.Publish(topic, nil, true)
}

// PublishAvailability marks the device online or offline.
func (b *ClimateBinding) PublishAvailability(online bool) error {
	payload := PayloadOffline
	if online {
		payload = PayloadOnline
	}
	return b.pub.Publish(b.cfg.Topics.Availability(), []byte(payload), true)
}

// PublishState publishes every state facet the entity can currently
// answer, retained.
func (b *ClimateBinding) PublishState() error {
	t := b.cfg.Topics

	var firstErr error
	pub := func(topic string, value []byte) {
		if err := b.pub.Publish(topic, value, true); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if mode := b.ac.HVACMode(); mode != "" {
		pub(t.Mode(), []byte(mode))
	}
	if action := b.ac.Action(); action != "" {
		pub(t.Action(), []byte(action))
	}
	if v, ok := b.ac.TargetTemperature(); ok {
		pub(t.Temperature(), []byte(formatTemperature(v)))
	}
	if v, ok := b.ac.CurrentTemperature(); ok {
		pub(t.CurrentTemperature(), []byte(formatTemperature(v)))
	}
	if v, ok := b.ac.CurrentHumidity(); ok {
		pub(t.CurrentHumidity(), []byte(strconv.FormatFloat(v, 'f', -1, 64)))
	}
	if fan := b.ac.FanMode(); fan != "" {
		pub(t.FanMode(), []byte(fan))
	}
	if len(b.ac.SwingModes()) > 0 {
		pub(t.SwingMode(), []byte(b.ac.SwingMode()))
	}
	if len(b.ac.PresetModes()) > 0 {
		pub(t.PresetMode(), []byte(presetForHA(b.ac.PresetMode())))
	}

	if state, err := json.Marshal(b.ac.State()); err == nil {
		pub(t.Attributes(), state)
	} else if firstErr == nil {
		firstErr = err
	}

	return firstErr
}

func (b *ClimateBinding) discoveryPayload() *ClimateDiscovery {
	dev := b.ac.Device()
	t := b.cfg.Topics

	d := &ClimateDiscovery{
		Name:     dev.Label(),
		UniqueID: "krac_" + dev.ID(),
		Device: DeviceBlock{
			Identifiers:  []string{dev.ID()},
			Name:         dev.Label(),
			Manufacturer: dev.Manufacturer(),
			Model:        quirks.Model(dev),
			SWVersion:    dev.Firmware(),
		},
		Availability: []AvailabilityEntry{
			{Topic: t.Availability()},
		},

		ModeStateTopic:   t.Mode(),
		ModeCommandTopic: t.ModeSet(),
		Modes:            hvacModeStrings(b.ac.HVACModes()),
		ActionTopic:      t.Action(),

		TemperatureStateTopic:   t.Temperature(),
		TemperatureCommandTopic: t.TemperatureSet(),
		CurrentTemperatureTopic: t.CurrentTemperature(),
		MinTemp:                 b.ac.MinTemperature(),
		MaxTemp:                 b.ac.MaxTemperature(),
		TempStep:                b.ac.TargetStep(),
		TemperatureUnit:         b.ac.TemperatureUnit(),

		FanModeStateTopic:   t.FanMode(),
		FanModeCommandTopic: t.FanModeSet(),
		FanModes:            b.ac.FanModes(),

		JSONAttributesTopic: t.Attributes(),
	}

	if b.cfg.BridgeAvailability != "" {
		d.Availability = append([]AvailabilityEntry{{Topic: b.cfg.BridgeAvailability}}, d.Availability...)
		d.AvailabilityMode = "all"
	}
	if b.ac.HasHumidity() {
		d.CurrentHumidityTopic = t.CurrentHumidity()
	}
	if swings := b.ac.SwingModes(); len(swings) > 0 {
		d.SwingModeStateTopic = t.SwingMode()
		d.SwingModeCommandTopic = t.SwingModeSet()
		d.SwingModes = swings
	}
	if presets := b.ac.PresetModes(); len(presets) > 0 {
		d.PresetModeStateTopic = t.PresetMode()
		d.PresetModeCommandTopic = t.PresetModeSet()
		d.PresetModes = presets
	}
	return d
}

// presetForHA maps the vendor's cleared preset to the climate
// platform's none.
func presetForHA(preset string) string {
	if preset == "" || strings.EqualFold(preset, "off") {
		return PresetNone
	}
	return preset
}

func formatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func hvacModeStrings(modes []climate.HVACMode) []string {
	out := make([]string, 0, len(modes))
	for _, m := range modes {
		out = append(out, string(m))
	}
	return out
}

func (b *ClimateBinding) logInfo(msg string, args ...any) {
	if b.cfg.Logger != nil {
		b.cfg.Logger.Info(msg, args...)
	}
}
