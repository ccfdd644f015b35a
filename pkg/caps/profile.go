package caps

import (
	"context"
	"fmt"
	"strings"

	"github.com/krac-home/krac-go/pkg/model"
)

// ARTIK051_KRAC_18K identity. The OCF model string keeps the raw
// pipe-separated form real units report; the first segment is the
// model ID consumers key on.
const (
	ModelARTIK051KRAC18K = "ARTIK051_KRAC_18K"

	artikModelString = "ARTIK051_KRAC_18K|10193141|60010132001111110200000000000000"
	artikVendor      = "Samsung Electronics"
	artikFirmware    = "ARTIK051_V1.0"
)

// OCF resource for vendor option writes on the KRAC family. Modes the
// firmware does not report in supportedAcOptionalMode (Fast Turbo,
// Comfort, Quiet, 2-Step) are activated by writing Comode tokens here
// instead of calling setAcOptionalMode.
const (
	OptionsHref = "mode/vs/0"
	OptionsKey  = "x.com.samsung.da.options"
)

// Comode option tokens accepted on OptionsHref.
const (
	ComodeOff      = "Comode_Off"
	ComodeQuiet    = "Comode_Quiet"
	ComodeSpeed    = "Comode_Speed"
	ComodeComfort  = "Comode_Comfort"
	Comode2Step    = "Comode_2Step"
	ComodeWindFree = "Comode_WindFree"
)

// comodeOptionalModes maps Comode tokens to the acOptionalMode value
// the firmware reports after applying them.
var comodeOptionalModes = map[string]string{
	ComodeOff:      "off",
	ComodeQuiet:    "quiet",
	ComodeSpeed:    "speed",
	ComodeComfort:  "comfort",
	Comode2Step:    "twoStep",
	ComodeWindFree: "windFree",
}

// NewAirConditionerDevice builds a device with the full
// ARTIK051_KRAC_18K capability set: the profile the simulator serves
// and tests exercise.
func NewAirConditionerDevice(id, label string) *model.Device {
	device := model.NewDevice(id, label, artikVendor, artikModelString, artikFirmware)
	main := device.MainComponent()

	// Identity
	_ = main.AddCapability(NewOcf(id, artikVendor, artikModelString, artikFirmware).Capability)

	// Power and modes
	_ = main.AddCapability(NewSwitch().Capability)
	_ = main.AddCapability(NewAirConditionerMode(
		[]string{"auto", "cool", "dry", "wind", "heat"}, "cool").Capability)
	_ = main.AddCapability(NewAirConditionerFanMode(
		[]string{"auto", "low", "medium", "high", "turbo"}, "auto").Capability)
	_ = main.AddCapability(NewFanOscillationMode(
		[]string{"fixed", "all", "vertical", "horizontal"}, "fixed").Capability)

	// Climate measurements and setpoints
	_ = main.AddCapability(NewTemperatureMeasurement("C").Capability)
	_ = main.AddCapability(NewThermostatCoolingSetpoint("C", 16, 30, 24).Capability)
	_ = main.AddCapability(NewRelativeHumidityMeasurement().Capability)
	_ = main.AddCapability(NewSetpointControl(16, 30).Capability)

	// Vendor presets. The firmware reports only the plain optional
	// modes; Comode-only presets are reachable through execute.
	optional := NewAirConditionerOptionalMode(
		[]string{"off", "sleep", "quiet", "smart", "speed", "windFree"}, "off")
	_ = main.AddCapability(optional.Capability)

	_ = main.AddCapability(NewDustFilter().Capability)
	_ = main.AddCapability(NewExecute(vendorExecuteHandler(optional)).Capability)

	return device
}

// vendorExecuteHandler applies Comode option writes to the optional
// mode capability, the way KRAC firmware maps mode/vs/0 writes onto
// acOptionalMode.
func vendorExecuteHandler(optional *AirConditionerOptionalMode) ExecuteHandler {
	return func(ctx context.Context, href string, args map[string]any) (map[string]any, error) {
		if strings.Trim(href, "/") != OptionsHref {
			return nil, fmt.Errorf("%w: href %q", model.ErrInvalidArgument, href)
		}

		options, ok := stringListValue(args[OptionsKey])
		if !ok || len(options) == 0 {
			return nil, fmt.Errorf("%w: %s", model.ErrMissingArgument, OptionsKey)
		}

		for _, opt := range options {
			mode, known := comodeOptionalModes[opt]
			if !known {
				return nil, fmt.Errorf("%w: option %q", model.ErrInvalidArgument, opt)
			}
			if err := optional.SetMode(mode); err != nil {
				return nil, err
			}
		}

		return map[string]any{OptionsKey: options}, nil
	}
}
