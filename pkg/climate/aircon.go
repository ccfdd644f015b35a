package climate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/model"
	"github.com/krac-home/krac-go/pkg/quirks"
)

var (
	ErrMissingCapability  = errors.New("required capability missing")
	ErrUnsupportedMode    = errors.New("mode not supported by device")
	ErrSetpointOutOfRange = errors.New("setpoint outside device range")
)

// Commander sends capability commands toward the device that owns
// them. The device service fulfills it locally; the bridge sends over
// the interaction client.
type Commander interface {
	Command(ctx context.Context, component, capability, command string, args []any) error
	Execute(ctx context.Context, href string, args map[string]any) error
}

// Setpoint fallbacks for devices that do not report
// custom.thermostatSetpointControl limits.
const (
	fallbackMinC = 16
	fallbackMaxC = 30
	fallbackMinF = 60
	fallbackMaxF = 86
)

var requiredAirConditionerCaps = []string{
	caps.CapAirConditionerMode,
	caps.CapAirConditionerFanMode,
	caps.CapSwitch,
	caps.CapTemperatureMeasurement,
	caps.CapThermostatCoolingSetpoint,
}

// Supports reports whether the device carries every capability the
// air conditioner entity needs.
func Supports(device *model.Device) bool {
	main := device.MainComponent()
	for _, id := range requiredAirConditionerCaps {
		if !main.HasCapability(id) {
			return false
		}
	}
	return true
}

// AirConditioner is the climate entity over a room air conditioner.
// Reads come from the device's attribute state; writes go through the
// commander and are applied locally once the send succeeds, so the
// entity tracks intent until the device pushes its own value.
type AirConditioner struct {
	device    *model.Device
	commander Commander
	quirk     quirks.Quirk

	sw      *caps.Switch
	mode    *caps.AirConditionerMode
	fan     *caps.AirConditionerFanMode
	temp    *caps.TemperatureMeasurement
	cooling *caps.ThermostatCoolingSetpoint

	// Present on some devices only.
	osc       *caps.FanOscillationMode
	humidity  *caps.RelativeHumidityMeasurement
	optional  *caps.AirConditionerOptionalMode
	limits    *caps.SetpointControl
	operating *caps.ThermostatOperatingState
}

// NewAirConditioner builds the entity for a device. The device must
// satisfy Supports.
func NewAirConditioner(device *model.Device, commander Commander) (*AirConditioner, error) {
	if !Supports(device) {
		return nil, fmt.Errorf("%w: device %s is not an air conditioner", ErrMissingCapability, device.ID())
	}

	a := &AirConditioner{device: device, commander: commander}
	a.sw, _ = caps.SwitchOf(device)
	a.mode, _ = caps.AcModeOf(device)
	a.fan, _ = caps.FanModeOf(device)
	a.temp, _ = caps.TemperatureOf(device)
	a.cooling, _ = caps.CoolingSetpointOf(device)

	a.osc, _ = caps.OscillationOf(device)
	a.humidity, _ = caps.HumidityOf(device)
	a.optional, _ = caps.OptionalModeOf(device)
	a.limits, _ = caps.SetpointControlOf(device)
	a.operating, _ = caps.OperatingStateOf(device)

	if q, ok := quirks.Lookup(quirks.Model(device)); ok {
		a.quirk = q
	}
	return a, nil
}

// Device returns the underlying device.
func (a *AirConditioner) Device() *model.Device {
	return a.device
}

// switchState reads the power state. known is false while the switch
// attribute has no value yet, as on an unprimed mirror.
func (a *AirConditioner) switchState() (on, known bool) {
	val, err := a.sw.Value(caps.AttrSwitch)
	if err != nil || val == nil {
		return false, false
	}
	s, ok := val.(string)
	return ok && s == "on", ok
}

// HVACMode returns the climate mode: off while the unit is powered
// down, otherwise the mapped vendor AC mode. Unknown vendor modes and
// unknown power state yield "".
func (a *AirConditioner) HVACMode() HVACMode {
	on, known := a.switchState()
	if !known {
		return ""
	}
	if !on {
		return HVACOff
	}
	mode, _ := HVACModeForACMode(a.mode.Mode())
	return mode
}

// HVACModes returns the selectable climate modes: off plus the mapped
// supported vendor modes in reported order. Vendor modes with no
// climate equivalent are dropped.
func (a *AirConditioner) HVACModes() []HVACMode {
	modes := []HVACMode{HVACOff}
	for _, m := range a.mode.SupportedModes() {
		hm, ok := HVACModeForACMode(m)
		if !ok {
			continue
		}
		if !slices.Contains(modes, hm) {
			modes = append(modes, hm)
		}
	}
	return modes
}

// SetHVACMode changes the climate mode. Off powers the unit down;
// any other mode powers it up first when needed. Modes the device
// does not list in supportedAcModes are rejected.
func (a *AirConditioner) SetHVACMode(ctx context.Context, mode HVACMode) error {
	if mode == HVACOff {
		return a.TurnOff(ctx)
	}

	vendor, ok := ACModeForHVAC(mode)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}
	if supported := a.mode.SupportedModes(); supported != nil && !slices.Contains(supported, vendor) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}

	if on, known := a.switchState(); known && !on {
		if err := a.TurnOn(ctx); err != nil {
			return err
		}
	}

	err := a.commander.Command(ctx, model.MainComponentID,
		caps.CapAirConditionerMode, caps.CmdSetAirConditionerMode, []any{vendor})
	if err != nil {
		return err
	}
	return a.mode.SetMode(vendor)
}

// TurnOn powers the unit on without touching the mode.
func (a *AirConditioner) TurnOn(ctx context.Context) error {
	err := a.commander.Command(ctx, model.MainComponentID,
		caps.CapSwitch, caps.CmdSwitchOn, nil)
	if err != nil {
		return err
	}
	return a.sw.Set(true)
}

// TurnOff powers the unit off.
func (a *AirConditioner) TurnOff(ctx context.Context) error {
	err := a.commander.Command(ctx, model.MainComponentID,
		caps.CapSwitch, caps.CmdSwitchOff, nil)
	if err != nil {
		return err
	}
	return a.sw.Set(false)
}

// Action reports what the unit is doing: off when powered down, the
// mapped operating state when the device reports one, idle otherwise.
func (a *AirConditioner) Action() HVACAction {
	on, known := a.switchState()
	if !known {
		return ""
	}
	if !on {
		return ActionOff
	}
	if a.operating != nil {
		if action, ok := ActionForOperatingState(a.operating.State()); ok {
			return action
		}
	}
	return ActionIdle
}

// CurrentTemperature returns the measured temperature, false before
// the first reading.
func (a *AirConditioner) CurrentTemperature() (float64, bool) {
	return a.temp.Temperature()
}

// CurrentHumidity returns the measured relative humidity when the
// device reports one.
func (a *AirConditioner) CurrentHumidity() (float64, bool) {
	if a.humidity == nil {
		return 0, false
	}
	return a.humidity.Humidity()
}

// HasHumidity reports whether the device measures humidity at all,
// regardless of whether a reading has arrived yet.
func (a *AirConditioner) HasHumidity() bool {
	return a.humidity != nil
}

// TemperatureUnit returns the unit of the temperature attribute, C or
// F.
func (a *AirConditioner) TemperatureUnit() string {
	return a.temp.Unit()
}

// TargetTemperature returns the cooling setpoint.
func (a *AirConditioner) TargetTemperature() (float64, bool) {
	return a.cooling.Setpoint()
}

// MinTemperature returns the lower setpoint bound: the reported
// custom.thermostatSetpointControl minimum when present, else 16°C or
// 60°F.
func (a *AirConditioner) MinTemperature() float64 {
	if a.limits != nil {
		if v, ok := a.limits.Minimum(); ok {
			return v
		}
	}
	if a.TemperatureUnit() == "F" {
		return fallbackMinF
	}
	return fallbackMinC
}

// MaxTemperature returns the upper setpoint bound: the reported
// custom.thermostatSetpointControl maximum when present, else 30°C or
// 86°F.
func (a *AirConditioner) MaxTemperature() float64 {
	if a.limits != nil {
		if v, ok := a.limits.Maximum(); ok {
			return v
		}
	}
	if a.TemperatureUnit() == "F" {
		return fallbackMaxF
	}
	return fallbackMaxC
}

// TargetStep returns the setpoint granularity.
func (a *AirConditioner) TargetStep() float64 {
	return 1.0
}

// TemperatureRequest is a target temperature change, optionally
// combined with a mode change the way climate frontends send both at
// once.
type TemperatureRequest struct {
	Target float64
	Mode   HVACMode // empty keeps the current mode
}

// SetTemperature applies a temperature request. The target is rounded
// to three decimals and rejected outside [MinTemperature,
// MaxTemperature].
func (a *AirConditioner) SetTemperature(ctx context.Context, req TemperatureRequest) error {
	if req.Mode != "" {
		if err := a.SetHVACMode(ctx, req.Mode); err != nil {
			return err
		}
	}

	target := math.Round(req.Target*1000) / 1000
	if min, max := a.MinTemperature(), a.MaxTemperature(); target < min || target > max {
		return fmt.Errorf("%w: %.1f not in [%.1f, %.1f]", ErrSetpointOutOfRange, target, min, max)
	}

	err := a.commander.Command(ctx, model.MainComponentID,
		caps.CapThermostatCoolingSetpoint, caps.CmdSetCoolingSetpoint, []any{target})
	if err != nil {
		return err
	}
	return a.cooling.SetSetpoint(target)
}

// FanMode returns the current fan mode.
func (a *AirConditioner) FanMode() string {
	return a.fan.Mode()
}

// FanModes returns the supported fan modes.
func (a *AirConditioner) FanModes() []string {
	return a.fan.SupportedModes()
}

// SetFanMode changes the fan mode.
func (a *AirConditioner) SetFanMode(ctx context.Context, mode string) error {
	if supported := a.fan.SupportedModes(); supported != nil && !slices.Contains(supported, mode) {
		return fmt.Errorf("%w: fan %s", ErrUnsupportedMode, mode)
	}
	err := a.commander.Command(ctx, model.MainComponentID,
		caps.CapAirConditionerFanMode, caps.CmdSetFanMode, []any{mode})
	if err != nil {
		return err
	}
	return a.fan.SetMode(mode)
}

// SwingMode returns the swing mode for the current fan oscillation
// mode, off when the device has no oscillation capability.
func (a *AirConditioner) SwingMode() string {
	if a.osc == nil {
		return SwingOff
	}
	return SwingForOscillation(a.osc.Mode())
}

// SwingModes returns the selectable swing modes. Devices that report
// no supported oscillation modes get the standard four.
func (a *AirConditioner) SwingModes() []string {
	if a.osc == nil {
		return nil
	}
	reported := a.osc.SupportedModes()
	if len(reported) == 0 {
		reported = defaultOscillationModes
	}
	modes := make([]string, 0, len(reported))
	for _, m := range reported {
		s, ok := oscillationToSwing[m]
		if !ok {
			continue
		}
		if !slices.Contains(modes, s) {
			modes = append(modes, s)
		}
	}
	return modes
}

// SetSwingMode changes the swing mode.
func (a *AirConditioner) SetSwingMode(ctx context.Context, swing string) error {
	if a.osc == nil {
		return fmt.Errorf("%w: %s", ErrMissingCapability, caps.CapFanOscillationMode)
	}
	osc, ok := OscillationForSwing(swing)
	if !ok {
		return fmt.Errorf("%w: swing %s", ErrUnsupportedMode, swing)
	}
	err := a.commander.Command(ctx, model.MainComponentID,
		caps.CapFanOscillationMode, caps.CmdSetFanOscillationMode, []any{osc})
	if err != nil {
		return err
	}
	return a.osc.SetMode(osc)
}

// PresetMode returns the active vendor preset, "" when the device has
// no optional mode capability.
func (a *AirConditioner) PresetMode() string {
	if a.optional == nil {
		return ""
	}
	return a.optional.Mode()
}

// PresetModes returns the offered presets. Quirk models force-add the
// presets their firmware hides and withhold windFree in modes that
// cannot run it. A reported list of just "off" means no presets.
func (a *AirConditioner) PresetModes() []string {
	if a.optional == nil {
		return nil
	}
	reported := a.optional.SupportedModes()

	var modes []string
	if a.quirk != nil {
		modes = a.quirk.PresetModes(reported)
	} else {
		modes = quirks.PruneOff(reported)
	}

	if a.quirk != nil && a.quirk.RestrictWindFree(a.mode.Mode()) {
		modes = slices.DeleteFunc(modes, func(m string) bool {
			return strings.EqualFold(m, "windFree")
		})
	}
	return modes
}

// SetPresetMode activates a preset. "off" always clears the active
// preset; anything else must be in PresetModes. Presets the quirk
// maps to an execute write go out raw; everything else, including
// windFree and off, uses setAcOptionalMode.
func (a *AirConditioner) SetPresetMode(ctx context.Context, preset string) error {
	if a.optional == nil {
		return fmt.Errorf("%w: %s", ErrMissingCapability, caps.CapAirConditionerOptionalMode)
	}
	if !strings.EqualFold(preset, "off") && !containsFold(a.PresetModes(), preset) {
		return fmt.Errorf("%w: %q", quirks.ErrUnknownPreset, preset)
	}

	if a.quirk != nil {
		payload, err := a.quirk.PresetCommand(preset)
		if err == nil {
			if err := a.commander.Execute(ctx, payload.Href, payload.Args); err != nil {
				return err
			}
			return a.optional.SetMode(preset)
		}
		if !errors.Is(err, quirks.ErrUnknownPreset) {
			return err
		}
		// No execute mapping; fall through to the standard command.
	}

	err := a.commander.Command(ctx, model.MainComponentID,
		caps.CapAirConditionerOptionalMode, caps.CmdSetAcOptionalMode, []any{preset})
	if err != nil {
		return err
	}
	return a.optional.SetMode(preset)
}

// EntityState is a publishable snapshot of a climate entity.
type EntityState struct {
	HVACMode    HVACMode   `json:"hvac_mode"`
	HVACModes   []HVACMode `json:"hvac_modes"`
	Action      HVACAction `json:"action,omitempty"`
	Current     *float64   `json:"current_temperature,omitempty"`
	Humidity    *float64   `json:"current_humidity,omitempty"`
	Target      *float64   `json:"target_temperature,omitempty"`
	Unit        string     `json:"temperature_unit,omitempty"`
	MinTemp     float64    `json:"min_temp,omitempty"`
	MaxTemp     float64    `json:"max_temp,omitempty"`
	TargetStep  float64    `json:"target_temperature_step,omitempty"`
	FanMode     string     `json:"fan_mode,omitempty"`
	FanModes    []string   `json:"fan_modes,omitempty"`
	SwingMode   string     `json:"swing_mode,omitempty"`
	SwingModes  []string   `json:"swing_modes,omitempty"`
	PresetMode  string     `json:"preset_mode,omitempty"`
	PresetModes []string   `json:"preset_modes,omitempty"`
	DeviceModel string     `json:"device_model,omitempty"`
}

// State snapshots the entity for publication.
func (a *AirConditioner) State() EntityState {
	s := EntityState{
		HVACMode:    a.HVACMode(),
		HVACModes:   a.HVACModes(),
		Action:      a.Action(),
		Unit:        a.TemperatureUnit(),
		MinTemp:     a.MinTemperature(),
		MaxTemp:     a.MaxTemperature(),
		TargetStep:  a.TargetStep(),
		FanMode:     a.FanMode(),
		FanModes:    a.FanModes(),
		SwingMode:   a.SwingMode(),
		SwingModes:  a.SwingModes(),
		PresetMode:  a.PresetMode(),
		PresetModes: a.PresetModes(),
		DeviceModel: quirks.Model(a.device),
	}
	if v, ok := a.CurrentTemperature(); ok {
		s.Current = &v
	}
	if v, ok := a.CurrentHumidity(); ok {
		s.Humidity = &v
	}
	if v, ok := a.TargetTemperature(); ok {
		s.Target = &v
	}
	return s
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
