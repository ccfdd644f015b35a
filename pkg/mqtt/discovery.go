package mqtt

// Topic facet names under <prefix>/<deviceID>/.
const (
	facetAvailability = "availability"
	facetMode         = "mode"
	facetAction       = "action"
	facetTemperature  = "temperature"
	facetCurrentTemp  = "current_temperature"
	facetHumidity     = "current_humidity"
	facetFanMode      = "fan_mode"
	facetSwingMode    = "swing_mode"
	facetPresetMode   = "preset_mode"
	facetAttributes   = "attributes"

	setSuffix = "/set"
)

// Topics derives the topic layout for one device.
type Topics struct {
	prefix   string
	deviceID string
}

// NewTopics returns the topic layout for a device under a prefix.
func NewTopics(prefix, deviceID string) Topics {
	return Topics{prefix: prefix, deviceID: deviceID}
}

func (t Topics) facet(name string) string {
	return t.prefix + "/" + t.deviceID + "/" + name
}

// Availability is the per-device availability topic.
func (t Topics) Availability() string { return t.facet(facetAvailability) }

// Mode is the HVAC mode state topic; ModeSet receives commands.
func (t Topics) Mode() string    { return t.facet(facetMode) }
func (t Topics) ModeSet() string { return t.Mode() + setSuffix }

// Action reports what the unit is currently doing.
func (t Topics) Action() string { return t.facet(facetAction) }

// Temperature is the target temperature state topic.
func (t Topics) Temperature() string    { return t.facet(facetTemperature) }
func (t Topics) TemperatureSet() string { return t.Temperature() + setSuffix }

// CurrentTemperature carries the measured room temperature.
func (t Topics) CurrentTemperature() string { return t.facet(facetCurrentTemp) }

// CurrentHumidity carries the measured relative humidity.
func (t Topics) CurrentHumidity() string { return t.facet(facetHumidity) }

// FanMode is the fan mode state topic.
func (t Topics) FanMode() string    { return t.facet(facetFanMode) }
func (t Topics) FanModeSet() string { return t.FanMode() + setSuffix }

// SwingMode is the swing mode state topic.
func (t Topics) SwingMode() string    { return t.facet(facetSwingMode) }
func (t Topics) SwingModeSet() string { return t.SwingMode() + setSuffix }

// PresetMode is the preset mode state topic.
func (t Topics) PresetMode() string    { return t.facet(facetPresetMode) }
func (t Topics) PresetModeSet() string { return t.PresetMode() + setSuffix }

// Attributes carries the JSON entity snapshot.
func (t Topics) Attributes() string { return t.facet(facetAttributes) }

// DiscoveryTopic is where the retained discovery payload lives.
func DiscoveryTopic(discoveryPrefix, deviceID string) string {
	return discoveryPrefix + "/climate/" + deviceID + "/config"
}

// BridgeAvailabilityTopic is the bridge-wide availability topic used
// for the last will.
func BridgeAvailabilityTopic(prefix string) string {
	return prefix + "/bridge/availability"
}

// AvailabilityEntry is one topic in a discovery availability list.
type AvailabilityEntry struct {
	Topic               string `json:"topic"`
	PayloadAvailable    string `json:"payload_available,omitempty"`
	PayloadNotAvailable string `json:"payload_not_available,omitempty"`
}

// DeviceBlock is the Home Assistant device registry block.
type DeviceBlock struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// ClimateDiscovery is the Home Assistant MQTT discovery payload for a
// climate entity.
type ClimateDiscovery struct {
	Name     string      `json:"name"`
	UniqueID string      `json:"unique_id"`
	Device   DeviceBlock `json:"device"`

	// Both the bridge and the device must be available, so entities go
	// unavailable when either the bridge dies (last will) or the
	// device connection drops.
	Availability     []AvailabilityEntry `json:"availability,omitempty"`
	AvailabilityMode string              `json:"availability_mode,omitempty"`

	ModeStateTopic   string   `json:"mode_state_topic,omitempty"`
	ModeCommandTopic string   `json:"mode_command_topic,omitempty"`
	Modes            []string `json:"modes,omitempty"`

	ActionTopic string `json:"action_topic,omitempty"`

	TemperatureStateTopic   string  `json:"temperature_state_topic,omitempty"`
	TemperatureCommandTopic string  `json:"temperature_command_topic,omitempty"`
	CurrentTemperatureTopic string  `json:"current_temperature_topic,omitempty"`
	CurrentHumidityTopic    string  `json:"current_humidity_topic,omitempty"`
	MinTemp                 float64 `json:"min_temp,omitempty"`
	MaxTemp                 float64 `json:"max_temp,omitempty"`
	TempStep                float64 `json:"temp_step,omitempty"`
	TemperatureUnit         string  `json:"temperature_unit,omitempty"`

	FanModeStateTopic   string   `json:"fan_mode_state_topic,omitempty"`
	FanModeCommandTopic string   `json:"fan_mode_command_topic,omitempty"`
	FanModes            []string `json:"fan_modes,omitempty"`

	SwingModeStateTopic   string   `json:"swing_mode_state_topic,omitempty"`
	SwingModeCommandTopic string   `json:"swing_mode_command_topic,omitempty"`
	SwingModes            []string `json:"swing_modes,omitempty"`

	PresetModeStateTopic   string   `json:"preset_mode_state_topic,omitempty"`
	PresetModeCommandTopic string   `json:"preset_mode_command_topic,omitempty"`
	PresetModes            []string `json:"preset_modes,omitempty"`

	JSONAttributesTopic string `json:"json_attributes_topic,omitempty"`
}
