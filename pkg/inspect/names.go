package inspect

import (
	"strings"

	"github.com/krac-home/krac-go/pkg/caps"
)

// capabilityAliases maps console-friendly short names to canonical
// capability IDs. Lookup is case-insensitive.
var capabilityAliases = map[string]string{
	"switch":      caps.CapSwitch,
	"power":       caps.CapSwitch,
	"mode":        caps.CapAirConditionerMode,
	"acmode":      caps.CapAirConditionerMode,
	"fan":         caps.CapAirConditionerFanMode,
	"fanmode":     caps.CapAirConditionerFanMode,
	"swing":       caps.CapFanOscillationMode,
	"oscillation": caps.CapFanOscillationMode,
	"setpoint":    caps.CapThermostatCoolingSetpoint,
	"cooling":     caps.CapThermostatCoolingSetpoint,
	"limits":      caps.CapThermostatSetpointControl,
	"temperature": caps.CapTemperatureMeasurement,
	"temp":        caps.CapTemperatureMeasurement,
	"humidity":    caps.CapRelativeHumidityMeasurement,
	"optional":    caps.CapAirConditionerOptionalMode,
	"preset":      caps.CapAirConditionerOptionalMode,
	"execute":     caps.CapExecute,
	"ocf":         caps.CapOcf,
	"filter":      caps.CapDustFilter,
	"dustfilter":  caps.CapDustFilter,
}

// canonicalCapabilities indexes every capability ID the console knows
// by lowercase form, for case-insensitive resolution of full IDs.
var canonicalCapabilities = map[string]string{}

func init() {
	for _, id := range []string{
		caps.CapSwitch,
		caps.CapAirConditionerMode,
		caps.CapAirConditionerFanMode,
		caps.CapAirConditionerOptionalMode,
		caps.CapThermostatCoolingSetpoint,
		caps.CapThermostatSetpointControl,
		caps.CapThermostatHeatingSetpoint,
		caps.CapTemperatureMeasurement,
		caps.CapRelativeHumidityMeasurement,
		caps.CapFanOscillationMode,
		caps.CapExecute,
		caps.CapOcf,
		caps.CapDustFilter,
	} {
		canonicalCapabilities[strings.ToLower(id)] = id
	}
}

// ResolveCapability resolves a capability name or alias to its canonical
// ID (case-insensitive). Unknown names pass through unchanged so devices
// carrying capabilities the console has no alias for stay addressable.
func ResolveCapability(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if id, ok := capabilityAliases[key]; ok {
		return id
	}
	if id, ok := canonicalCapabilities[key]; ok {
		return id
	}
	return name
}

// isCapabilityName reports whether name is a known capability ID or alias.
func isCapabilityName(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := capabilityAliases[key]; ok {
		return true
	}
	_, ok := canonicalCapabilities[key]
	return ok
}

// matchName matches want against names case-insensitively and returns
// the canonical spelling. An exact match wins over a case-folded one.
func matchName(names []string, want string) (string, bool) {
	for _, n := range names {
		if n == want {
			return n, true
		}
	}
	for _, n := range names {
		if strings.EqualFold(n, want) {
			return n, true
		}
	}
	return "", false
}

// CapabilityAliases returns a copy of the alias table for help output.
func CapabilityAliases() map[string]string {
	out := make(map[string]string, len(capabilityAliases))
	for alias, id := range capabilityAliases {
		out[alias] = id
	}
	return out
}
