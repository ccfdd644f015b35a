package caps

import (
	"context"
	"fmt"
	"slices"

	"github.com/krac-home/krac-go/pkg/model"
)

// Thermostat capability names.
const (
	CapThermostatMode            = "thermostatMode"
	AttrThermostatMode           = "thermostatMode"
	AttrSupportedThermostatModes = "supportedThermostatModes"
	CmdSetThermostatMode         = "setThermostatMode"

	CapThermostatFanMode            = "thermostatFanMode"
	AttrThermostatFanMode           = "thermostatFanMode"
	AttrSupportedThermostatFanModes = "supportedThermostatFanModes"
	CmdSetThermostatFanMode         = "setThermostatFanMode"

	CapThermostatOperatingState  = "thermostatOperatingState"
	AttrThermostatOperatingState = "thermostatOperatingState"
)

// Operating state values reported by thermostatOperatingState.
const (
	OperatingStateIdle           = "idle"
	OperatingStateCooling        = "cooling"
	OperatingStateHeating        = "heating"
	OperatingStateFanOnly        = "fan only"
	OperatingStatePendingCool    = "pending cool"
	OperatingStatePendingHeat    = "pending heat"
	OperatingStateVentEconomizer = "vent economizer"
)

// ThermostatMode wraps the thermostatMode capability.
type ThermostatMode struct {
	*model.Capability
}

// NewThermostatMode creates a new thermostatMode capability supporting
// the given modes.
func NewThermostatMode(supported []string, initial string) *ThermostatMode {
	c := model.NewCapability(CapThermostatMode, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrThermostatMode,
		Type:        model.DataTypeString,
		Default:     initial,
		Description: "Current thermostat mode",
	})

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrSupportedThermostatModes,
		Type:        model.DataTypeStringList,
		Default:     supported,
		Description: "Supported thermostat modes",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSetThermostatMode,
		Description: "Set the thermostat mode",
		Parameters: []model.ParameterMetadata{
			{Name: "mode", Type: model.DataTypeString, Required: true},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		mode, ok := stringValue(args[0])
		if !ok {
			return nil, fmt.Errorf("%w: mode", model.ErrInvalidArgument)
		}
		if !slices.Contains(supported, mode) {
			return nil, fmt.Errorf("%w: mode %q", model.ErrInvalidArgument, mode)
		}
		return nil, c.SetValue(AttrThermostatMode, mode)
	})

	return &ThermostatMode{Capability: c}
}

// SetMode updates the current thermostat mode.
func (m *ThermostatMode) SetMode(mode string) error {
	return m.SetValue(AttrThermostatMode, mode)
}

// Mode returns the current thermostat mode.
func (m *ThermostatMode) Mode() string {
	val, _ := m.Value(AttrThermostatMode)
	s, _ := stringValue(val)
	return s
}

// SupportedModes returns the supported thermostat modes.
func (m *ThermostatMode) SupportedModes() []string {
	val, err := m.Value(AttrSupportedThermostatModes)
	if err != nil || val == nil {
		return nil
	}
	list, _ := stringListValue(val)
	return list
}

// ThermostatModeOf returns the thermostatMode capability of the
// device's main component.
func ThermostatModeOf(device *model.Device) (*ThermostatMode, error) {
	c, err := device.Capability(model.MainComponentID, CapThermostatMode)
	if err != nil {
		return nil, err
	}
	return &ThermostatMode{Capability: c}, nil
}

// ThermostatFanMode wraps the thermostatFanMode capability.
type ThermostatFanMode struct {
	*model.Capability
}

// NewThermostatFanMode creates a new thermostatFanMode capability
// supporting the given fan modes.
func NewThermostatFanMode(supported []string, initial string) *ThermostatFanMode {
	c := model.NewCapability(CapThermostatFanMode, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrThermostatFanMode,
		Type:        model.DataTypeString,
		Default:     initial,
		Description: "Current thermostat fan mode",
	})

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrSupportedThermostatFanModes,
		Type:        model.DataTypeStringList,
		Default:     supported,
		Description: "Supported thermostat fan modes",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSetThermostatFanMode,
		Description: "Set the thermostat fan mode",
		Parameters: []model.ParameterMetadata{
			{Name: "fanMode", Type: model.DataTypeString, Required: true},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		mode, ok := stringValue(args[0])
		if !ok {
			return nil, fmt.Errorf("%w: fanMode", model.ErrInvalidArgument)
		}
		if !slices.Contains(supported, mode) {
			return nil, fmt.Errorf("%w: fanMode %q", model.ErrInvalidArgument, mode)
		}
		return nil, c.SetValue(AttrThermostatFanMode, mode)
	})

	return &ThermostatFanMode{Capability: c}
}

// SetMode updates the current thermostat fan mode.
func (m *ThermostatFanMode) SetMode(mode string) error {
	return m.SetValue(AttrThermostatFanMode, mode)
}

// Mode returns the current thermostat fan mode.
func (m *ThermostatFanMode) Mode() string {
	val, _ := m.Value(AttrThermostatFanMode)
	s, _ := stringValue(val)
	return s
}

// SupportedModes returns the supported thermostat fan modes.
func (m *ThermostatFanMode) SupportedModes() []string {
	val, err := m.Value(AttrSupportedThermostatFanModes)
	if err != nil || val == nil {
		return nil
	}
	list, _ := stringListValue(val)
	return list
}

// ThermostatFanModeOf returns the thermostatFanMode capability of the
// device's main component.
func ThermostatFanModeOf(device *model.Device) (*ThermostatFanMode, error) {
	c, err := device.Capability(model.MainComponentID, CapThermostatFanMode)
	if err != nil {
		return nil, err
	}
	return &ThermostatFanMode{Capability: c}, nil
}

// ThermostatOperatingState wraps the thermostatOperatingState
// capability: what the HVAC equipment is actually doing right now.
type ThermostatOperatingState struct {
	*model.Capability
}

// NewThermostatOperatingState creates a new thermostatOperatingState
// capability, initially idle.
func NewThermostatOperatingState() *ThermostatOperatingState {
	c := model.NewCapability(CapThermostatOperatingState, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name: AttrThermostatOperatingState,
		Type: model.DataTypeEnum,
		EnumValues: []string{
			OperatingStateIdle,
			OperatingStateCooling,
			OperatingStateHeating,
			OperatingStateFanOnly,
			OperatingStatePendingCool,
			OperatingStatePendingHeat,
			OperatingStateVentEconomizer,
		},
		Default:     OperatingStateIdle,
		Description: "Current equipment operating state",
	})

	return &ThermostatOperatingState{Capability: c}
}

// SetState updates the current operating state.
func (s *ThermostatOperatingState) SetState(state string) error {
	return s.SetValue(AttrThermostatOperatingState, state)
}

// State returns the current operating state.
func (s *ThermostatOperatingState) State() string {
	val, _ := s.Value(AttrThermostatOperatingState)
	v, _ := stringValue(val)
	return v
}

// OperatingStateOf returns the thermostatOperatingState capability of
// the device's main component.
func OperatingStateOf(device *model.Device) (*ThermostatOperatingState, error) {
	c, err := device.Capability(model.MainComponentID, CapThermostatOperatingState)
	if err != nil {
		return nil, err
	}
	return &ThermostatOperatingState{Capability: c}, nil
}
