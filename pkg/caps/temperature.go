package caps

import (
	"github.com/krac-home/krac-go/pkg/model"
)

// Temperature and humidity measurement capability names.
const (
	CapTemperatureMeasurement = "temperatureMeasurement"
	AttrTemperature           = "temperature"

	CapRelativeHumidityMeasurement = "relativeHumidityMeasurement"
	AttrHumidity                   = "humidity"
)

// TemperatureMeasurement wraps the temperatureMeasurement capability:
// the current ambient temperature reading.
type TemperatureMeasurement struct {
	*model.Capability
}

// NewTemperatureMeasurement creates a new temperatureMeasurement
// capability reporting in the given unit ("C" or "F").
func NewTemperatureMeasurement(unit string) *TemperatureMeasurement {
	c := model.NewCapability(CapTemperatureMeasurement, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrTemperature,
		Type:        model.DataTypeNumber,
		Nullable:    true,
		Unit:        unit,
		Description: "Current temperature",
	})

	return &TemperatureMeasurement{Capability: c}
}

// SetTemperature updates the current temperature reading.
func (t *TemperatureMeasurement) SetTemperature(v float64) error {
	return t.SetValue(AttrTemperature, v)
}

// Temperature returns the current temperature reading.
func (t *TemperatureMeasurement) Temperature() (float64, bool) {
	val, err := t.Value(AttrTemperature)
	if err != nil || val == nil {
		return 0, false
	}
	return floatValue(val)
}

// Unit returns the temperature unit ("C" or "F").
func (t *TemperatureMeasurement) Unit() string {
	attr, err := t.Attribute(AttrTemperature)
	if err != nil {
		return ""
	}
	return attr.Unit()
}

// TemperatureOf returns the temperatureMeasurement capability of the
// device's main component.
func TemperatureOf(device *model.Device) (*TemperatureMeasurement, error) {
	c, err := device.Capability(model.MainComponentID, CapTemperatureMeasurement)
	if err != nil {
		return nil, err
	}
	return &TemperatureMeasurement{Capability: c}, nil
}

// RelativeHumidityMeasurement wraps the relativeHumidityMeasurement
// capability: the current relative humidity reading.
type RelativeHumidityMeasurement struct {
	*model.Capability
}

// NewRelativeHumidityMeasurement creates a new
// relativeHumidityMeasurement capability.
func NewRelativeHumidityMeasurement() *RelativeHumidityMeasurement {
	c := model.NewCapability(CapRelativeHumidityMeasurement, 1)

	_ = c.AddAttribute(&model.AttributeMetadata{
		Name:        AttrHumidity,
		Type:        model.DataTypeNumber,
		Nullable:    true,
		MinValue:    0.0,
		MaxValue:    100.0,
		Unit:        "%",
		Description: "Current relative humidity",
	})

	return &RelativeHumidityMeasurement{Capability: c}
}

// SetHumidity updates the current humidity reading.
func (h *RelativeHumidityMeasurement) SetHumidity(v float64) error {
	return h.SetValue(AttrHumidity, v)
}

// Humidity returns the current humidity reading.
func (h *RelativeHumidityMeasurement) Humidity() (float64, bool) {
	val, err := h.Value(AttrHumidity)
	if err != nil || val == nil {
		return 0, false
	}
	return floatValue(val)
}

// HumidityOf returns the relativeHumidityMeasurement capability of the
// device's main component.
func HumidityOf(device *model.Device) (*RelativeHumidityMeasurement, error) {
	c, err := device.Capability(model.MainComponentID, CapRelativeHumidityMeasurement)
	if err != nil {
		return nil, err
	}
	return &RelativeHumidityMeasurement{Capability: c}, nil
}
