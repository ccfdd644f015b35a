package caps

import (
	"github.com/krac-home/krac-go/pkg/model"
)

// Dust filter capability names (Samsung vendor capability).
const (
	CapDustFilter        = "samsungce.dustFilter"
	AttrDustFilterStatus = "dustFilterStatus"
	AttrDustFilterUsage  = "dustFilterUsage"
)

// Dust filter status values.
const (
	DustFilterNormal  = "normal"
	DustFilterReplace = "replace"
	DustFilterWash    = "wash"
)

// DustFilter wraps the samsungce.dustFilter capability: filter wear
// reporting, surfaced as extra state attributes on the climate entity.
type DustFilter struct {
	*model.Capability
}

// NewDustFilter creates a new samsungce.dustFilter capability with a
// fresh filter.
func NewDustFilter() *DustFilter {
	c := model.NewCapability(CapDustFilter, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrDustFilterStatus,
		Type:        model.DataTypeEnum,
		EnumValues:  []string{DustFilterNormal, DustFilterReplace, DustFilterWash},
		Default:     DustFilterNormal,
		Description: "Filter condition",
	})

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrDustFilterUsage,
		Type:        model.DataTypeInteger,
		MinValue:    0,
		MaxValue:    100,
		Default:     0,
		Unit:        "%",
		Description: "Filter usage",
	})

	return &DustFilter{Capability: c}
}

// SetUsage updates the filter usage percentage.
func (d *DustFilter) SetUsage(pct int) error {
	return d.SetValue(AttrDustFilterUsage, pct)
}

// Usage returns the filter usage percentage.
func (d *DustFilter) Usage() int {
	val, err := d.Value(AttrDustFilterUsage)
	if err != nil || val == nil {
		return 0
	}
	f, _ := floatValue(val)
	return int(f)
}

// Status returns the filter condition.
func (d *DustFilter) Status() string {
	val, _ := d.Value(AttrDustFilterStatus)
	s, _ := stringValue(val)
	return s
}

// SetStatus updates the filter condition.
func (d *DustFilter) SetStatus(status string) error {
	return d.SetValue(AttrDustFilterStatus, status)
}

// DustFilterOf returns the samsungce.dustFilter capability of the
// device's main component.
func DustFilterOf(device *model.Device) (*DustFilter, error) {
	c, err := device.Capability(model.MainComponentID, CapDustFilter)
	if err != nil {
		return nil, err
	}
	return &DustFilter{Capability: c}, nil
}
