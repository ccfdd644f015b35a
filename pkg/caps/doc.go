// Package caps provides typed constructors for the SmartThings
// capabilities a Samsung room air conditioner exposes.
//
// Each constructor returns a thin wrapper embedding *model.Capability
// with the capability's attributes and commands declared, plus typed
// getters and setters. Command handlers mutate the owning capability's
// attributes, so a device built from these constructors responds to
// wire commands without further wiring.
//
// # Usage
//
//	device := caps.NewAirConditionerDevice("device-123", "Living Room AC")
//
//	sw, _ := caps.SwitchOf(device)
//	sw.Set(true)
//
//	temp, _ := caps.TemperatureOf(device)
//	temp.SetTemperature(24.5)
//
// Capability, attribute, and command names follow the SmartThings
// capability reference (e.g. "airConditionerMode", "setCoolingSetpoint")
// so that values observed on the wire read like SmartThings device
// status payloads.
package caps
