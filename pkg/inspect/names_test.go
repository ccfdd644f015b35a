package inspect_test

import (
	"testing"

	"github.com/krac-home/krac-go/pkg/caps"
	"github.com/krac-home/krac-go/pkg/inspect"
)

func TestResolveCapability(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"canonical ID passes through", "switch", caps.CapSwitch},
		{"alias mode", "mode", caps.CapAirConditionerMode},
		{"alias fan", "fan", caps.CapAirConditionerFanMode},
		{"alias swing", "swing", caps.CapFanOscillationMode},
		{"alias setpoint", "setpoint", caps.CapThermostatCoolingSetpoint},
		{"alias temp", "temp", caps.CapTemperatureMeasurement},
		{"alias humidity", "humidity", caps.CapRelativeHumidityMeasurement},
		{"alias preset", "preset", caps.CapAirConditionerOptionalMode},
		{"alias filter", "filter", caps.CapDustFilter},
		{"alias execute", "execute", caps.CapExecute},
		{"alias ocf", "ocf", caps.CapOcf},
		{"case-insensitive canonical", "AIRCONDITIONERMODE", caps.CapAirConditionerMode},
		{"case-insensitive namespaced", "custom.airconditioneroptionalmode", caps.CapAirConditionerOptionalMode},
		{"case-insensitive alias", "Setpoint", caps.CapThermostatCoolingSetpoint},
		{"whitespace trimmed", " fan ", caps.CapAirConditionerFanMode},
		{"unknown passes through", "samsungce.airQualitySensor", "samsungce.airQualitySensor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inspect.ResolveCapability(tt.input)
			if got != tt.want {
				t.Errorf("ResolveCapability(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCapabilityAliases(t *testing.T) {
	aliases := inspect.CapabilityAliases()
	if len(aliases) == 0 {
		t.Fatal("expected a non-empty alias table")
	}

	// Every alias must resolve to a capability the standard profile carries.
	device := caps.NewAirConditionerDevice("ac-alias-test", "Alias Test")
	main := device.MainComponent()
	for alias, id := range aliases {
		if !main.HasCapability(id) {
			t.Errorf("alias %q maps to %q which the profile does not carry", alias, id)
		}
		if inspect.ResolveCapability(alias) != id {
			t.Errorf("alias %q does not resolve to %q", alias, id)
		}
	}

	// The returned table is a copy, mutating it must not affect resolution.
	aliases["fan"] = "tampered"
	if inspect.ResolveCapability("fan") != caps.CapAirConditionerFanMode {
		t.Error("mutating the returned alias table changed resolution")
	}
}
