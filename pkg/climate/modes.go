// Package climate turns capability state into climate entity
// semantics: HVAC modes, actions, fan and swing modes, setpoints, and
// vendor presets. The vocabulary follows the Home Assistant climate
// platform so a bridge can publish entities directly.
package climate

import "github.com/krac-home/krac-go/pkg/caps"

// HVACMode is a climate entity operating mode.
type HVACMode string

const (
	HVACOff      HVACMode = "off"
	HVACHeat     HVACMode = "heat"
	HVACCool     HVACMode = "cool"
	HVACHeatCool HVACMode = "heat_cool"
	HVACAuto     HVACMode = "auto"
	HVACDry      HVACMode = "dry"
	HVACFanOnly  HVACMode = "fan_only"
)

// HVACAction is what the unit is currently doing.
type HVACAction string

const (
	ActionOff     HVACAction = "off"
	ActionHeating HVACAction = "heating"
	ActionCooling HVACAction = "cooling"
	ActionDrying  HVACAction = "drying"
	ActionFan     HVACAction = "fan"
	ActionIdle    HVACAction = "idle"
)

// Swing modes in climate entity vocabulary.
const (
	SwingOff        = "off"
	SwingVertical   = "vertical"
	SwingHorizontal = "horizontal"
	SwingBoth       = "both"
)

// acModeToHVAC maps vendor airConditionerMode values to climate
// modes. The Clean variants behave like their base mode.
var acModeToHVAC = map[string]HVACMode{
	"auto":      HVACHeatCool,
	"cool":      HVACCool,
	"dry":       HVACDry,
	"coolClean": HVACCool,
	"dryClean":  HVACDry,
	"heat":      HVACHeat,
	"heatClean": HVACHeat,
	"fanOnly":   HVACFanOnly,
	"wind":      HVACFanOnly,
}

// hvacToACMode picks the vendor mode sent for a requested climate
// mode. heat_cool rides the vendor auto mode and fan_only rides wind.
var hvacToACMode = map[HVACMode]string{
	HVACHeatCool: "auto",
	HVACCool:     "cool",
	HVACDry:      "dry",
	HVACHeat:     "heat",
	HVACFanOnly:  "wind",
}

var thermostatModeToHVAC = map[string]HVACMode{
	"auto":           HVACHeatCool,
	"cool":           HVACCool,
	"eco":            HVACAuto,
	"rush hour":      HVACAuto,
	"emergency heat": HVACHeat,
	"heat":           HVACHeat,
	"off":            HVACOff,
	"wind":           HVACFanOnly,
}

var hvacToThermostatMode = map[HVACMode]string{
	HVACHeatCool: "auto",
	HVACCool:     "cool",
	HVACHeat:     "heat",
	HVACOff:      "off",
	HVACFanOnly:  "wind",
}

var operatingStateToAction = map[string]HVACAction{
	caps.OperatingStateCooling:        ActionCooling,
	caps.OperatingStateFanOnly:        ActionFan,
	caps.OperatingStateHeating:        ActionHeating,
	caps.OperatingStateIdle:           ActionIdle,
	caps.OperatingStatePendingCool:    ActionCooling,
	caps.OperatingStatePendingHeat:    ActionHeating,
	caps.OperatingStateVentEconomizer: ActionFan,
}

var swingToOscillation = map[string]string{
	SwingOff:        "fixed",
	SwingVertical:   "vertical",
	SwingHorizontal: "horizontal",
	SwingBoth:       "all",
}

var oscillationToSwing = map[string]string{
	"fixed":      SwingOff,
	"vertical":   SwingVertical,
	"horizontal": SwingHorizontal,
	"all":        SwingBoth,
}

// defaultOscillationModes stands in when the device reports no
// supported fan oscillation modes.
var defaultOscillationModes = []string{"fixed", "all", "vertical", "horizontal"}

// HVACModeForACMode maps a vendor AC mode to its climate mode.
func HVACModeForACMode(acMode string) (HVACMode, bool) {
	m, ok := acModeToHVAC[acMode]
	return m, ok
}

// ACModeForHVAC maps a climate mode to the vendor AC mode that
// activates it.
func ACModeForHVAC(mode HVACMode) (string, bool) {
	m, ok := hvacToACMode[mode]
	return m, ok
}

// HVACModeForThermostatMode maps a vendor thermostat mode to its
// climate mode.
func HVACModeForThermostatMode(mode string) (HVACMode, bool) {
	m, ok := thermostatModeToHVAC[mode]
	return m, ok
}

// ThermostatModeForHVAC maps a climate mode to the vendor thermostat
// mode that activates it.
func ThermostatModeForHVAC(mode HVACMode) (string, bool) {
	m, ok := hvacToThermostatMode[mode]
	return m, ok
}

// ActionForOperatingState maps a thermostatOperatingState value to a
// climate action.
func ActionForOperatingState(state string) (HVACAction, bool) {
	a, ok := operatingStateToAction[state]
	return a, ok
}

// SwingForOscillation maps a fan oscillation mode to a swing mode,
// defaulting to off for modes with no swing equivalent.
func SwingForOscillation(osc string) string {
	if s, ok := oscillationToSwing[osc]; ok {
		return s
	}
	return SwingOff
}

// OscillationForSwing maps a swing mode to the fan oscillation mode
// that activates it.
func OscillationForSwing(swing string) (string, bool) {
	m, ok := swingToOscillation[swing]
	return m, ok
}
