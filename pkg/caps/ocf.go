package caps

import (
	"strings"

	"github.com/krac-home/krac-go/pkg/model"
)

// OCF device information capability names. Samsung devices expose
// their OCF identity block through this capability; the model string
// (mnmo) drives model-specific behavior downstream.
const (
	CapOcf          = "ocf"
	AttrOcfModel    = "mnmo"
	AttrOcfVendor   = "mnmn"
	AttrOcfFirmware = "mnfv"
	AttrOcfPlatform = "mnpv"
	AttrOcfSpec     = "icv"
	AttrOcfDeviceID = "di"
)

// Ocf wraps the ocf capability.
type Ocf struct {
	*model.Capability
}

// NewOcf creates a new ocf capability with the given identity values.
// The model string keeps its raw OCF form, e.g.
// "ARTIK051_KRAC_18K|10193141|60010132001111110200000000000000".
func NewOcf(deviceID, vendor, modelString, firmware string) *Ocf {
	c := model.NewCapability(CapOcf, 1)

	for _, meta := range []*model.AttributeMetadata{
		{Name: AttrOcfModel, Type: model.DataTypeString, Default: modelString, Description: "Model number"},
		{Name: AttrOcfVendor, Type: model.DataTypeString, Default: vendor, Description: "Manufacturer name"},
		{Name: AttrOcfFirmware, Type: model.DataTypeString, Default: firmware, Description: "Firmware version"},
		{Name: AttrOcfPlatform, Type: model.DataTypeString, Nullable: true, Description: "Platform version"},
		{Name: AttrOcfSpec, Type: model.DataTypeString, Default: "core.1.1.0", Description: "OCF spec version"},
		{Name: AttrOcfDeviceID, Type: model.DataTypeString, Default: deviceID, Description: "OCF device ID"},
	} {
		_ = c.AddAttribute(meta)
	}

	return &Ocf{Capability: c}
}

// ModelString returns the raw OCF model string.
func (o *Ocf) ModelString() string {
	val, _ := o.Value(AttrOcfModel)
	s, _ := stringValue(val)
	return s
}

// ModelID returns the first segment of the OCF model string, e.g.
// "ARTIK051_KRAC_18K".
func (o *Ocf) ModelID() string {
	return ModelID(o.ModelString())
}

// Vendor returns the manufacturer name.
func (o *Ocf) Vendor() string {
	val, _ := o.Value(AttrOcfVendor)
	s, _ := stringValue(val)
	return s
}

// Firmware returns the firmware version.
func (o *Ocf) Firmware() string {
	val, _ := o.Value(AttrOcfFirmware)
	s, _ := stringValue(val)
	return s
}

// OcfOf returns the ocf capability of the device's main component.
func OcfOf(device *model.Device) (*Ocf, error) {
	c, err := device.Capability(model.MainComponentID, CapOcf)
	if err != nil {
		return nil, err
	}
	return &Ocf{Capability: c}, nil
}

// ModelID extracts the model identifier from a raw OCF model string:
// everything before the first "|" separator.
func ModelID(modelString string) string {
	if modelString == "" {
		return ""
	}
	id, _, _ := strings.Cut(modelString, "|")
	return id
}
