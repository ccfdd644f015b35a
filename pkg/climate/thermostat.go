package climate

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/model"
)

var requiredThermostatCaps = []string{
	caps.CapThermostatMode,
	caps.CapTemperatureMeasurement,
	caps.CapThermostatCoolingSetpoint,
	caps.CapThermostatHeatingSetpoint,
}

// SupportsThermostat reports whether the device carries every
// capability the thermostat entity needs. Air conditioners match
// Supports instead; a device is one or the other.
func SupportsThermostat(device *model.Device) bool {
	main := device.MainComponent()
	for _, id := range requiredThermostatCaps {
		if !main.HasCapability(id) {
			return false
		}
	}
	return true
}

// Thermostat is the climate entity over a legacy thermostat device:
// no power switch, mode comes from thermostatMode, and the active
// setpoint follows the mode.
type Thermostat struct {
	device    *model.Device
	commander Commander

	mode    *caps.ThermostatMode
	temp    *caps.TemperatureMeasurement
	cooling *caps.ThermostatCoolingSetpoint
	heating *caps.ThermostatHeatingSetpoint

	// Present on some devices only.
	fan       *caps.ThermostatFanMode
	operating *caps.ThermostatOperatingState
	humidity  *caps.RelativeHumidityMeasurement
}

// NewThermostat builds the entity for a device. The device must
// satisfy SupportsThermostat.
func NewThermostat(device *model.Device, commander Commander) (*Thermostat, error) {
	if !SupportsThermostat(device) {
		return nil, fmt.Errorf("%w: device %s is not a thermostat", ErrMissingCapability, device.ID())
	}

	t := &Thermostat{device: device, commander: commander}
	t.mode, _ = caps.ThermostatModeOf(device)
	t.temp, _ = caps.TemperatureOf(device)
	t.cooling, _ = caps.CoolingSetpointOf(device)
	t.heating, _ = caps.HeatingSetpointOf(device)

	t.fan, _ = caps.ThermostatFanModeOf(device)
	t.operating, _ = caps.OperatingStateOf(device)
	t.humidity, _ = caps.HumidityOf(device)
	return t, nil
}

// Device returns the underlying device.
func (t *Thermostat) Device() *model.Device {
	return t.device
}

// HVACMode returns the mapped thermostat mode, "" for vendor modes
// with no climate equivalent.
func (t *Thermostat) HVACMode() HVACMode {
	mode, _ := HVACModeForThermostatMode(t.mode.Mode())
	return mode
}

// HVACModes returns the mapped supported thermostat modes in reported
// order.
func (t *Thermostat) HVACModes() []HVACMode {
	var modes []HVACMode
	for _, m := range t.mode.SupportedModes() {
		hm, ok := HVACModeForThermostatMode(m)
		if !ok {
			continue
		}
		if !slices.Contains(modes, hm) {
			modes = append(modes, hm)
		}
	}
	return modes
}

// SetHVACMode changes the thermostat mode. Modes the device does not
// list in supportedThermostatModes are rejected.
func (t *Thermostat) SetHVACMode(ctx context.Context, mode HVACMode) error {
	vendor, ok := ThermostatModeForHVAC(mode)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}
	if supported := t.mode.SupportedModes(); supported != nil && !slices.Contains(supported, vendor) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}

	err := t.commander.Command(ctx, model.MainComponentID,
		caps.CapThermostatMode, caps.CmdSetThermostatMode, []any{vendor})
	if err != nil {
		return err
	}
	return t.mode.SetMode(vendor)
}

// Action maps the reported operating state, "" when the device does
// not report one.
func (t *Thermostat) Action() HVACAction {
	if t.operating == nil {
		return ""
	}
	action, _ := ActionForOperatingState(t.operating.State())
	return action
}

// CurrentTemperature returns the measured temperature, false before
// the first reading.
func (t *Thermostat) CurrentTemperature() (float64, bool) {
	return t.temp.Temperature()
}

// CurrentHumidity returns the measured relative humidity when the
// device reports one.
func (t *Thermostat) CurrentHumidity() (float64, bool) {
	if t.humidity == nil {
		return 0, false
	}
	return t.humidity.Humidity()
}

// TemperatureUnit returns the unit of the temperature attribute.
func (t *Thermostat) TemperatureUnit() string {
	return t.temp.Unit()
}

// TargetTemperature returns the setpoint the current mode acts on:
// the heating setpoint in heat, the cooling setpoint in cool, none
// otherwise.
func (t *Thermostat) TargetTemperature() (float64, bool) {
	switch t.HVACMode() {
	case HVACHeat:
		return t.heating.Setpoint()
	case HVACCool:
		return t.cooling.Setpoint()
	default:
		return 0, false
	}
}

// SetTemperature applies a temperature request to the setpoint the
// current mode acts on.
func (t *Thermostat) SetTemperature(ctx context.Context, req TemperatureRequest) error {
	if req.Mode != "" {
		if err := t.SetHVACMode(ctx, req.Mode); err != nil {
			return err
		}
	}

	target := math.Round(req.Target*1000) / 1000
	switch t.HVACMode() {
	case HVACHeat:
		err := t.commander.Command(ctx, model.MainComponentID,
			caps.CapThermostatHeatingSetpoint, caps.CmdSetHeatingSetpoint, []any{target})
		if err != nil {
			return err
		}
		return t.heating.SetSetpoint(target)
	case HVACCool:
		err := t.commander.Command(ctx, model.MainComponentID,
			caps.CapThermostatCoolingSetpoint, caps.CmdSetCoolingSetpoint, []any{target})
		if err != nil {
			return err
		}
		return t.cooling.SetSetpoint(target)
	default:
		return fmt.Errorf("%w: no setpoint in mode %q", ErrUnsupportedMode, t.HVACMode())
	}
}

// FanMode returns the current thermostat fan mode.
func (t *Thermostat) FanMode() string {
	if t.fan == nil {
		return ""
	}
	return t.fan.Mode()
}

// FanModes returns the supported thermostat fan modes.
func (t *Thermostat) FanModes() []string {
	if t.fan == nil {
		return nil
	}
	return t.fan.SupportedModes()
}

// SetFanMode changes the thermostat fan mode.
func (t *Thermostat) SetFanMode(ctx context.Context, mode string) error {
	if t.fan == nil {
		return fmt.Errorf("%w: %s", ErrMissingCapability, caps.CapThermostatFanMode)
	}
	if supported := t.fan.SupportedModes(); supported != nil && !slices.Contains(supported, mode) {
		return fmt.Errorf("%w: fan %s", ErrUnsupportedMode, mode)
	}
	err := t.commander.Command(ctx, model.MainComponentID,
		caps.CapThermostatFanMode, caps.CmdSetThermostatFanMode, []any{mode})
	if err != nil {
		return err
	}
	return t.fan.SetMode(mode)
}

// State snapshots the entity for publication.
func (t *Thermostat) State() EntityState {
	s := EntityState{
		HVACMode:  t.HVACMode(),
		HVACModes: t.HVACModes(),
		Action:    t.Action(),
		Unit:      t.TemperatureUnit(),
		FanMode:   t.FanMode(),
		FanModes:  t.FanModes(),
	}
	if v, ok := t.CurrentTemperature(); ok {
		s.Current = &v
	}
	if v, ok := t.CurrentHumidity(); ok {
		s.Humidity = &v
	}
	if v, ok := t.TargetTemperature(); ok {
		s.Target = &v
	}
	return s
}
