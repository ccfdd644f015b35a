package caps

import (
	"context"
	"fmt"
	"slices"

	"github.com/krac-home/krac-go/pkg/model"
)

// Fan oscillation (swing) capability names.
const (
	CapFanOscillationMode            = "fanOscillationMode"
	AttrFanOscillationMode           = "fanOscillationMode"
	AttrSupportedFanOscillationModes = "supportedFanOscillationModes"
	CmdSetFanOscillationMode         = "setFanOscillationMode"
)

// FanOscillationMode wraps the fanOscillationMode capability: the
// louver swing setting (fixed, all, vertical, horizontal).
type FanOscillationMode struct {
	*model.Capability
}

// NewFanOscillationMode creates a new fanOscillationMode capability
// supporting the given oscillation modes.
func NewFanOscillationMode(supported []string, initial string) *FanOscillationMode {
	c := model.NewCapability(CapFanOscillationMode, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrFanOscillationMode,
		Type:        model.DataTypeString,
		Default:     initial,
		Description: "Current fan oscillation mode",
	})

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrSupportedFanOscillationModes,
		Type:        model.DataTypeStringList,
		Nullable:    true,
		Default:     supported,
		Description: "Supported fan oscillation modes",
	})

	_ = c.AddCommand(&model.CommandMetadata{
		Name:        CmdSetFanOscillationMode,
		Description: "Set the fan oscillation mode",
		Parameters: []model.ParameterMetadata{
			{Name: "fanOscillationMode", Type: model.DataTypeString, Required: true},
		},
	}, func(ctx context.Context, args []any) (map[string]any, error) {
		mode, ok := stringValue(args[0])
		if !ok {
			return nil, fmt.Errorf("%w: fanOscillationMode", model.ErrInvalidArgument)
		}
		if !slices.Contains(supported, mode) {
			return nil, fmt.Errorf("%w: fanOscillationMode %q", model.ErrInvalidArgument, mode)
		}
		return nil, c.SetValue(AttrFanOscillationMode, mode)
	})

	return &FanOscillationMode{Capability: c}
}

// SetMode updates the current oscillation mode.
func (m *FanOscillationMode) SetMode(mode string) error {
	return m.SetValue(AttrFanOscillationMode, mode)
}

// Mode returns the current oscillation mode.
func (m *FanOscillationMode) Mode() string {
	val, _ := m.Value(AttrFanOscillationMode)
	s, _ := stringValue(val)
	return s
}

// SupportedModes returns the supported oscillation modes.
func (m *FanOscillationMode) SupportedModes() []string {
	val, err := m.Value(AttrSupportedFanOscillationModes)
	if err != nil || val == nil {
		return nil
	}
	list, _ := stringListValue(val)
	return list
}

// OscillationOf returns the fanOscillationMode capability of the
// device's main component.
func OscillationOf(device *model.Device) (*FanOscillationMode, error) {
	c, err := device.Capability(model.MainComponentID, CapFanOscillationMode)
	if err != nil {
		return nil, err
	}
	return &FanOscillationMode{Capability: c}, nil
}
