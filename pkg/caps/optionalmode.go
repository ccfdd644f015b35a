package caps

import (
	"context"
	"fmt"
	"strings"

	"github.com/krac-home/krac-go/pkg/model"
)

// Optional mode (preset) capability names.
const (
	CapAirConditionerOptionalMode = "custom.airConditionerOptionalMode"
	AttrAcOptionalMode            = "acOptionalMode"
	AttrSupportedAcOptionalMode   = "supportedAcOptionalMode"
	CmdSetAcOptionalMode          = "setAcOptionalMode"
)

// AirConditionerOptionalMode wraps the custom.airConditionerOptionalMode
// capability: vendor preset modes such as quiet, speed, or windFree.
type AirConditionerOptionalMode struct {
	*model.Capability
}

// NewAirConditionerOptionalMode creates a new
// custom.airConditionerOptionalMode capability supporting the given
// preset modes.
func NewAirConditionerOptionalMode(supported []string, initial string) *AirConditionerOptionalMode {
	c := model.NewCapability(CapAirConditionerOptionalMode, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrAcOptionalMode,
		Type:        model.DataTypeString,
		Default:     initial,
		Description: "Current optional mode",
	})

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrSupportedAcOptionalMode,
		Type:        model.DataTypeStringList,
		Nullable:    true,
		Default:     supported,
		Description: "Supported optional modes",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSetAcOptionalMode,
		Description: "Set the optional mode",
		Parameters: []model.ParameterMetadata{
			{Name: "mode", Type: model.DataTypeString, Required: true},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		mode, ok := stringValue(args[0])
		if !ok {
			return nil, fmt.Errorf("%w: mode", model.ErrInvalidArgument)
		}
		// Firmware echoes its own enum token for known modes and
		// stores unknown requests verbatim.
		for _, s := range supported {
			if strings.EqualFold(s, mode) {
				mode = s
				break
			}
		}
		return nil, c.SetValue(AttrAcOptionalMode, mode)
	})

	return &AirConditionerOptionalMode{Capability: c}
}

// SetMode updates the current optional mode.
func (m *AirConditionerOptionalMode) SetMode(mode string) error {
	return m.SetValue(AttrAcOptionalMode, mode)
}

// Mode returns the current optional mode.
func (m *AirConditionerOptionalMode) Mode() string {
	val, _ := m.Value(AttrAcOptionalMode)
	s, _ := stringValue(val)
	return s
}

// SupportedModes returns the supported optional modes as reported by
// the device.
func (m *AirConditionerOptionalMode) SupportedModes() []string {
	val, err := m.Value(AttrSupportedAcOptionalMode)
	if err != nil || val == nil {
		return nil
	}
	list, _ := stringListValue(val)
	return list
}

// OptionalModeOf returns the custom.airConditionerOptionalMode
// capability of the device's main component.
func OptionalModeOf(device *model.Device) (*AirConditionerOptionalMode, error) {
	c, err := device.Capability(model.MainComponentID, CapAirConditionerOptionalMode)
	if err != nil {
		return nil, err
	}
	return &AirConditionerOptionalMode{Capability: c}, nil
}
