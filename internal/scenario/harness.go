package scenario

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/krac-home/krac-go/pkg/climate"
	"github.com/krac-home/krac-go/pkg/inspect"
	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/service"
)

// Tolerance for float expectations; YAML numbers and attribute values
// may differ in representation but not meaningfully in value.
const floatTolerance = 1e-6

// Harness hosts a device service and a bridge service over a loopback
// TCP connection and exposes them to scenarios. mDNS and MQTT stay
// out of the loop; the bridge dials the device's listen address
// directly.
type Harness struct {
	device    *model.Device
	inspector *inspect.Inspector
	devSvc    *service.DeviceService
	bridge    *service.BridgeService
	deviceID  string
}

// NewHarness starts both services around the given device and waits
// for the bridge's climate entity to come up.
func NewHarness(ctx context.Context, device *model.Device) (*Harness, error) {
	devSvc, err := service.NewDeviceService(device, service.DeviceConfig{
		ListenAddress: "127.0.0.1:0",
		DisableMDNS:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("device service: %w", err)
	}
	if err := devSvc.Start(ctx); err != nil {
		return nil, fmt.Errorf("device service: %w", err)
	}

	bridge, err := service.NewBridgeService(service.BridgeConfig{
		StaticAddresses:         []string{devSvc.Addr().String()},
		DisableMDNS:             true,
		ConnectTimeout:          2 * time.Second,
		RequestTimeout:          2 * time.Second,
		SubscriptionMinInterval: 50 * time.Millisecond,
		SubscriptionMaxInterval: 2 * time.Second,
		ReconnectMinDelay:       50 * time.Millisecond,
		ReconnectMaxDelay:       200 * time.Millisecond,
	})
	if err != nil {
		_ = devSvc.Stop()
		return nil, fmt.Errorf("bridge service: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		_ = devSvc.Stop()
		return nil, fmt.Errorf("bridge service: %w", err)
	}

	h := &Harness{
		device:    device,
		inspector: inspect.NewInspector(device),
		devSvc:    devSvc,
		bridge:    bridge,
		deviceID:  device.ID(),
	}

	if err := h.waitForEntity(ctx); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

// Close stops both services.
func (h *Harness) Close() {
	_ = h.bridge.Stop()
	_ = h.devSvc.Stop()
}

// Device returns the hosted device model.
func (h *Harness) Device() *model.Device {
	return h.device
}

// Bridge returns the bridge service.
func (h *Harness) Bridge() *service.BridgeService {
	return h.bridge
}

// Entity returns the bridge's climate entity for the device.
func (h *Harness) Entity() (*climate.AirConditioner, error) {
	return h.bridge.Entity(h.deviceID)
}

// Engine builds a scenario engine with the climate action set and the
// expectation checker wired to this harness.
func (h *Harness) Engine() *Engine {
	e := NewEngine()
	e.RegisterAction("power", h.actionPower)
	e.RegisterAction("set_hvac_mode", h.actionSetHVACMode)
	e.RegisterAction("set_temperature", h.actionSetTemperature)
	e.RegisterAction("set_fan_mode", h.actionSetFanMode)
	e.RegisterAction("set_swing_mode", h.actionSetSwingMode)
	e.RegisterAction("set_preset", h.actionSetPreset)
	e.RegisterAction("device_set", h.actionDeviceSet)
	e.RegisterAction("wait", h.actionWait)
	e.SetChecker(h.checkExpectation)
	return e
}

func (h *Harness) waitForEntity(ctx context.Context) error {
	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, err := h.bridge.Entity(h.deviceID); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("entity for %s never came up", h.deviceID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(checkInterval):
		}
	}
}

// Actions. Every climate action goes through the bridge entity, so a
// scenario exercises the full path: entity -> commander -> wire ->
// device capability -> notification -> mirror.

func (h *Harness) actionPower(ctx context.Context, step *Step) error {
	state, err := stringParam(step, "state")
	if err != nil {
		return err
	}
	ac, err := h.Entity()
	if err != nil {
		return err
	}
	switch state {
	case "on":
		return ac.TurnOn(ctx)
	case "off":
		return ac.TurnOff(ctx)
	default:
		return fmt.Errorf("power state must be on or off, got %q", state)
	}
}

func (h *Harness) actionSetHVACMode(ctx context.Context, step *Step) error {
	mode, err := stringParam(step, "mode")
	if err != nil {
		return err
	}
	ac, err := h.Entity()
	if err != nil {
		return err
	}
	return ac.SetHVACMode(ctx, climate.HVACMode(mode))
}

func (h *Harness) actionSetTemperature(ctx context.Context, step *Step) error {
	target, err := floatParam(step, "target")
	if err != nil {
		return err
	}
	ac, err := h.Entity()
	if err != nil {
		return err
	}
	req := climate.TemperatureRequest{Target: target}
	if mode, err := stringParam(step, "mode"); err == nil {
		req.Mode = climate.HVACMode(mode)
	}
	return ac.SetTemperature(ctx, req)
}

func (h *Harness) actionSetFanMode(ctx context.Context, step *Step) error {
	mode, err := stringParam(step, "mode")
	if err != nil {
		return err
	}
	ac, err := h.Entity()
	if err != nil {
		return err
	}
	return ac.SetFanMode(ctx, mode)
}

func (h *Harness) actionSetSwingMode(ctx context.Context, step *Step) error {
	mode, err := stringParam(step, "mode")
	if err != nil {
		return err
	}
	ac, err := h.Entity()
	if err != nil {
		return err
	}
	return ac.SetSwingMode(ctx, mode)
}

func (h *Harness) actionSetPreset(ctx context.Context, step *Step) error {
	preset, err := stringParam(step, "preset")
	if err != nil {
		return err
	}
	ac, err := h.Entity()
	if err != nil {
		return err
	}
	return ac.SetPresetMode(ctx, preset)
}

// actionDeviceSet writes an attribute directly on the hosted device,
// simulating a vendor-side change (remote control, sensor drift).
func (h *Harness) actionDeviceSet(_ context.Context, step *Step) error {
	pathStr, err := stringParam(step, "path")
	if err != nil {
		return err
	}
	value, ok := step.Params["value"]
	if !ok {
		return fmt.Errorf("missing param %q", "value")
	}

	path, err := inspect.ParsePath(pathStr)
	if err != nil {
		return fmt.Errorf("bad path %q: %w", pathStr, err)
	}
	if path.IsPartial {
		return fmt.Errorf("path %q must name an attribute", pathStr)
	}
	return h.inspector.WriteAttribute(path, normalizeValue(value))
}

func (h *Harness) actionWait(ctx context.Context, step *Step) error {
	dur, err := stringParam(step, "duration")
	if err != nil {
		return err
	}
	d, err := time.ParseDuration(dur)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", dur, err)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// checkExpectation probes one expectation. Entity keys read the
// bridge's climate entity; "device:<path>" keys read the hosted
// device directly, so a scenario can assert both ends of the link.
func (h *Harness) checkExpectation(key string, expected any) *CheckResult {
	actual, err := h.observe(key)
	if err != nil {
		return &CheckResult{
			Key:      key,
			Expected: expected,
			Passed:   false,
			Message:  err.Error(),
		}
	}

	passed := looselyEqual(expected, actual)
	msg := "ok"
	if !passed {
		msg = fmt.Sprintf("want %v, got %v", expected, actual)
	}
	return &CheckResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  msg,
	}
}

func (h *Harness) observe(key string) (any, error) {
	if pathStr, ok := strings.CutPrefix(key, "device:"); ok {
		path, err := inspect.ParsePath(pathStr)
		if err != nil {
			return nil, fmt.Errorf("bad path %q: %v", pathStr, err)
		}
		value, _, err := h.inspector.ReadAttribute(path)
		if err != nil {
			return nil, err
		}
		return value, nil
	}

	ac, err := h.Entity()
	if err != nil {
		return nil, err
	}

	switch key {
	case "hvac_mode":
		return string(ac.HVACMode()), nil
	case "action":
		return string(ac.Action()), nil
	case "fan_mode":
		return ac.FanMode(), nil
	case "swing_mode":
		return ac.SwingMode(), nil
	case "preset":
		return ac.PresetMode(), nil
	case "target_temperature":
		v, ok := ac.TargetTemperature()
		if !ok {
			return nil, fmt.Errorf("target temperature unknown")
		}
		return v, nil
	case "current_temperature":
		v, ok := ac.CurrentTemperature()
		if !ok {
			return nil, fmt.Errorf("current temperature unknown")
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown expectation key %q", key)
	}
}

func stringParam(step *Step, name string) (string, error) {
	v, ok := step.Params[name]
	if !ok {
		return "", fmt.Errorf("missing param %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string, got %T", name, v)
	}
	return s, nil
}

func floatParam(step *Step, name string) (float64, error) {
	v, ok := step.Params[name]
	if !ok {
		return 0, fmt.Errorf("missing param %q", name)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("param %q must be a number, got %T", name, v)
	}
	return f, nil
}

// normalizeValue converts YAML integers to float64 where a device
// attribute expects a number; other values pass through.
func normalizeValue(v any) any {
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

// looselyEqual compares an expected YAML value with an observed one:
// numbers compare within tolerance regardless of concrete type,
// everything else compares by DeepEqual.
func looselyEqual(expected, actual any) bool {
	if ef, ok := toFloat(expected); ok {
		if af, ok := toFloat(actual); ok {
			return math.Abs(ef-af) < floatTolerance
		}
		return false
	}
	return reflect.DeepEqual(expected, actual)
}
