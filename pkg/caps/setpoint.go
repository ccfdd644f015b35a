package caps

import (
	"context"
	"fmt"

	"github.com/krac-home/krac-go/pkg/model"
)

// Setpoint capability names.
const (
	CapThermostatCoolingSetpoint = "thermostatCoolingSetpoint"
	AttrCoolingSetpoint          = "coolingSetpoint"
	CmdSetCoolingSetpoint        = "setCoolingSetpoint"

	CapThermostatHeatingSetpoint = "thermostatHeatingSetpoint"
	AttrHeatingSetpoint          = "heatingSetpoint"
	CmdSetHeatingSetpoint        = "setHeatingSetpoint"

	CapThermostatSetpointControl = "custom.thermostatSetpointControl"
	AttrMinimumSetpoint          = "minimumSetpoint"
	AttrMaximumSetpoint          = "maximumSetpoint"
)

// ThermostatCoolingSetpoint wraps the thermostatCoolingSetpoint
// capability: the target temperature for cooling.
type ThermostatCoolingSetpoint struct {
	*model.Capability
}

// NewThermostatCoolingSetpoint creates a new thermostatCoolingSetpoint
// capability with the given range and default.
func NewThermostatCoolingSetpoint(unit string, min, max, initial float64) *ThermostatCoolingSetpoint {
	c := model.NewCapability(CapThermostatCoolingSetpoint, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrCoolingSetpoint,
		Type:        model.DataTypeNumber,
		MinValue:    min,
		MaxValue:    max,
		Default:     initial,
		Unit:        unit,
		Description: "Cooling setpoint",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSetCoolingSetpoint,
		Description: "Set the cooling setpoint",
		Parameters: []model.ParameterMetadata{
			{Name: "setpoint", Type: model.DataTypeNumber, Required: true},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		v, ok := floatValue(args[0])
		if !ok {
			return nil, fmt.Errorf("%w: setpoint", model.ErrInvalidArgument)
		}
		return nil, c.SetValue(AttrCoolingSetpoint, v)
	})

	return &ThermostatCoolingSetpoint{Capability: c}
}

// SetSetpoint updates the cooling setpoint.
func (s *ThermostatCoolingSetpoint) SetSetpoint(v float64) error {
	return s.SetValue(AttrCoolingSetpoint, v)
}

// Setpoint returns the current cooling setpoint.
func (s *ThermostatCoolingSetpoint) Setpoint() (float64, bool) {
	val, err := s.Value(AttrCoolingSetpoint)
	if err != nil || val == nil {
		return 0, false
	}
	return floatValue(val)
}

// CoolingSetpointOf returns the thermostatCoolingSetpoint capability of
// the device's main component.
func CoolingSetpointOf(device *model.Device) (*ThermostatCoolingSetpoint, error) {
	c, err := device.Capability(model.MainComponentID, CapThermostatCoolingSetpoint)
	if err != nil {
		return nil, err
	}
	return &ThermostatCoolingSetpoint{Capability: c}, nil
}

// ThermostatHeatingSetpoint wraps the thermostatHeatingSetpoint
// capability: the target temperature for heating.
type ThermostatHeatingSetpoint struct {
	*model.Capability
}

// NewThermostatHeatingSetpoint creates a new thermostatHeatingSetpoint
// capability with the given range and default.
func NewThermostatHeatingSetpoint(unit string, min, max, initial float64) *ThermostatHeatingSetpoint {
	c := model.NewCapability(CapThermostatHeatingSetpoint, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrHeatingSetpoint,
		Type:        model.DataTypeNumber,
		MinValue:    min,
		MaxValue:    max,
		Default:     initial,
		Unit:        unit,
		Description: "Heating setpoint",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSetHeatingSetpoint,
		Description: "Set the heating setpoint",
		Parameters: []model.ParameterMetadata{
			{Name: "setpoint", Type: model.DataTypeNumber, Required: true},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		v, ok := floatValue(args[0])
		if !ok {
			return nil, fmt.Errorf("%w: setpoint", model.ErrInvalidArgument)
		}
		return nil, c.SetValue(AttrHeatingSetpoint, v)
	})

	return &ThermostatHeatingSetpoint{Capability: c}
}

// SetSetpoint updates the heating setpoint.
func (s *ThermostatHeatingSetpoint) SetSetpoint(v float64) error {
	return s.SetValue(AttrHeatingSetpoint, v)
}

// Setpoint returns the current heating setpoint.
func (s *ThermostatHeatingSetpoint) Setpoint() (float64, bool) {
	val, err := s.Value(AttrHeatingSetpoint)
	if err != nil || val == nil {
		return 0, false
	}
	return floatValue(val)
}

// HeatingSetpointOf returns the thermostatHeatingSetpoint capability of
// the device's main component.
func HeatingSetpointOf(device *model.Device) (*ThermostatHeatingSetpoint, error) {
	c, err := device.Capability(model.MainComponentID, CapThermostatHeatingSetpoint)
	if err != nil {
		return nil, err
	}
	return &ThermostatHeatingSetpoint{Capability: c}, nil
}

// SetpointControl wraps the custom.thermostatSetpointControl capability:
// the device-reported setpoint range.
type SetpointControl struct {
	*model.Capability
}

// NewSetpointControl creates a new custom.thermostatSetpointControl
// capability reporting the given range.
func NewSetpointControl(min, max float64) *SetpointControl {
	c := model.NewCapability(CapThermostatSetpointControl, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrMinimumSetpoint,
		Type:        model.DataTypeNumber,
		Default:     min,
		Description: "Minimum settable setpoint",
	})

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrMaximumSetpoint,
		Type:        model.DataTypeNumber,
		Default:     max,
		Description: "Maximum settable setpoint",
	})

	return &SetpointControl{Capability: c}
}

// Minimum returns the reported minimum setpoint.
func (s *SetpointControl) Minimum() (float64, bool) {
	val, err := s.Value(AttrMinimumSetpoint)
	if err != nil || val == nil {
		return 0, false
	}
	return floatValue(val)
}

// Maximum returns the reported maximum setpoint.
func (s *SetpointControl) Maximum() (float64, bool) {
	val, err := s.Value(AttrMaximumSetpoint)
	if err != nil || val == nil {
		return 0, false
	}
	return floatValue(val)
}

// SetpointControlOf returns the custom.thermostatSetpointControl
// capability of the device's main component.
func SetpointControlOf(device *model.Device) (*SetpointControl, error) {
	c, err := device.Capability(model.MainComponentID, CapThermostatSetpointControl)
	if err != nil {
		return nil, err
	}
	return &SetpointControl{Capability: c}, nil
}
