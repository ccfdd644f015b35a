package caps

import (
	"context"
	"fmt"
	"slices"

	"github.com/krac-home/krac-go/pkg/model"
)

// Air conditioner mode capability names.
const (
	CapAirConditionerMode    = "airConditionerMode"
	AttrAirConditionerMode   = "airConditionerMode"
	AttrSupportedAcModes     = "supportedAcModes"
	CmdSetAirConditionerMode = "setAirConditionerMode"
)

// AirConditionerMode wraps the airConditionerMode capability: the
// vendor operating mode (cool, dry, wind, heat, auto and the *Clean
// variants).
type AirConditionerMode struct {
	*model.Capability
}

// NewAirConditionerMode creates a new airConditionerMode capability
// supporting the given vendor modes.
func NewAirConditionerMode(supported []string, initial string) *AirConditionerMode {
	c := model.NewCapability(CapAirConditionerMode, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrAirConditionerMode,
		Type:        model.DataTypeString,
		Default:     initial,
		Description: "Current air conditioner mode",
	})

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrSupportedAcModes,
		Type:        model.DataTypeStringList,
		Default:     supported,
		Description: "Supported air conditioner modes",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSetAirConditionerMode,
		Description: "Set the air conditioner mode",
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
		return nil, c.SetValue(AttrAirConditionerMode, mode)
	})

	return &AirConditionerMode{Capability: c}
}

// SetMode updates the current mode.
func (m *AirConditionerMode) SetMode(mode string) error {
	return m.SetValue(AttrAirConditionerMode, mode)
}

// Mode returns the current mode.
func (m *AirConditionerMode) Mode() string {
	val, _ := m.Value(AttrAirConditionerMode)
	s, _ := stringValue(val)
	return s
}

// SupportedModes returns the supported vendor modes.
func (m *AirConditionerMode) SupportedModes() []string {
	val, err := m.Value(AttrSupportedAcModes)
	if err != nil || val == nil {
		return nil
	}
	list, _ := stringListValue(val)
	return list
}

// AcModeOf returns the airConditionerMode capability of the device's
// main component.
func AcModeOf(device *model.Device) (*AirConditionerMode, error) {
	c, err := device.Capability(model.MainComponentID, CapAirConditionerMode)
	if err != nil {
		return nil, err
	}
	return &AirConditionerMode{Capability: c}, nil
}
