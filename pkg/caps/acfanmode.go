package caps

import (
	"context"
	"fmt"
	"slices"

	"github.com/krac-home/krac-go/pkg/model"
)

// Air conditioner fan mode capability names.
const (
	CapAirConditionerFanMode = "airConditionerFanMode"
	AttrFanMode              = "fanMode"
	AttrSupportedAcFanModes  = "supportedAcFanModes"
	CmdSetFanMode            = "setFanMode"
)

// AirConditionerFanMode wraps the airConditionerFanMode capability:
// the fan speed setting.
type AirConditionerFanMode struct {
	*model.Capability
}

// NewAirConditionerFanMode creates a new airConditionerFanMode
// capability supporting the given fan modes.
func NewAirConditionerFanMode(supported []string, initial string) *AirConditionerFanMode {
	c := model.NewCapability(CapAirConditionerFanMode, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrFanMode,
		Type:        model.DataTypeString,
		Default:     initial,
		Description: "Current fan mode",
	})

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrSupportedAcFanModes,
		Type:        model.DataTypeStringList,
		Default:     supported,
		Description: "Supported fan modes",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSetFanMode,
		Description: "Set the fan mode",
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
		return nil, c.SetValue(AttrFanMode, mode)
	})

	return &AirConditionerFanMode{Capability: c}
}

// SetMode updates the current fan mode.
func (m *AirConditionerFanMode) SetMode(mode string) error {
	return m.SetValue(AttrFanMode, mode)
}

// Mode returns the current fan mode.
func (m *AirConditionerFanMode) Mode() string {
	val, _ := m.Value(AttrFanMode)
	s, _ := stringValue(val)
	return s
}

// SupportedModes returns the supported fan modes.
func (m *AirConditionerFanMode) SupportedModes() []string {
	val, err := m.Value(AttrSupportedAcFanModes)
	if err != nil || val == nil {
		return nil
	}
	list, _ := stringListValue(val)
	return list
}

// FanModeOf returns the airConditionerFanMode capability of the
// device's main component.
func FanModeOf(device *model.Device) (*AirConditionerFanMode, error) {
	c, err := device.Capability(model.MainComponentID, CapAirConditionerFanMode)
	if err != nil {
		return nil, err
	}
	return &AirConditionerFanMode{Capability: c}, nil
}
