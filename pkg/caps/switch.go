package caps

import (
	"context"

	"github.com/krac-home/krac-go/pkg/model"
)

// Switch capability names.
const (
	CapSwitch    = "switch"
	AttrSwitch   = "switch"
	CmdSwitchOn  = "on"
	CmdSwitchOff = "off"
)

// Switch wraps the switch capability: on/off power state.
type Switch struct {
	*model.Capability
}

// NewSwitch creates a new switch capability, initially off.
func NewSwitch() *Switch {
	c := model.NewCapability(CapSwitch, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrSwitch,
		Type:        model.DataTypeEnum,
		EnumValues:  []string{"on", "off"},
		Default:     "off",
		Description: "Power state",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSwitchOn,
		Description: "Turn the device on",
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		return nil, c.SetValue(AttrSwitch, "on")
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSwitchOff,
		Description: "Turn the device off",
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		return nil, c.SetValue(AttrSwitch, "off")
	})

	return &Switch{Capability: c}
}

// Set sets the power state.
func (s *Switch) Set(on bool) error {
	if on {
		return s.SetValue(AttrSwitch, "on")
	}
	return s.SetValue(AttrSwitch, "off")
}

// On returns true if the switch is on.
func (s *Switch) On() bool {
	val, _ := s.Value(AttrSwitch)
	return val == "on"
}

// SwitchOf returns the switch capability of the device's main component.
func SwitchOf(device *model.Device) (*Switch, error) {
	c, err := device.Capability(model.MainComponentID, CapSwitch)
	if err != nil {
		return nil, err
	}
	return &Switch{Capability: c}, nil
}
