// Package service provides the runtime layer of KRAC: DeviceService
// hosts a device model behind a TCP listener and announces it over
// mDNS; BridgeService discovers devices, mirrors their state over
// subscriptions, and exposes each air conditioner to Home Assistant
// through MQTT.
//
// Both services follow the same lifecycle: create with a config,
// Start with a context, observe via OnEvent, Stop to shut down.
package service
